// Package remote is the shared HTTP/JSON plumbing for the external generator,
// combiner, captioner, and storage services.
//
// Client issues exactly one request per call with a bounded per-request
// timeout, bearer authentication, and typed errors (StatusError for non-2xx,
// DecodeError for malformed bodies). PostStrict rejects unknown response
// fields so untyped payloads never leak past the service boundary.
//
// Policy owns retries. Transient failures (HTTP 408/429/5xx, network
// timeouts, connection errors) back off exponentially (base 1s, max 10s, three
// attempts by default) and honour Retry-After. Anything else, including
// malformed responses and caller cancellation, stops immediately.
package remote
