// Package notifications reports composition job results to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers can notify unconditionally. Delivery failures are returned to the
// caller; the workflow logs them and never fails a job because a notification
// could not be sent.
package notifications
