// Package jobs persists composition jobs in SQLite so failed jobs survive the
// process and can be inspected, cancelled, or resubmitted later.
//
// Store implements composition.Recorder. Schema changes bump schemaVersion in
// schema.go; users delete the database to adopt a new schema. AcquireCompositionLock
// keys on the composition id, so two processes never run jobs for the same
// composition at once, whether composing or resubmitting.
package jobs
