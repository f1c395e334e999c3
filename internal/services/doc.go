// Package services defines shared utilities consumed by the composition
// workflow and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp job IDs, composition IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures with errors.Is (validation, selection misuse, sequencer misuse,
//     combine/caption failures, transport failures).
//   - Details/MarkerForKind, which translate errors to and from the kind
//     strings persisted on failed jobs.
//
// Caller errors (see IsCallerError) are never retried. Transport failures are
// retried by the components that own the call, never here.
package services
