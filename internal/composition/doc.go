// Package composition turns a clip sequence snapshot into one captioned
// artifact.
//
// A Job moves Pending -> Combining -> Captioning -> Complete, or to Failed
// from any non-terminal status. Each step is one logical external call
// retried under a bounded remote.Policy; attempts that exhaust the policy
// leave the job Failed with a classified error rather than returning one.
// Failed jobs are kept and may be resubmitted by the caller as new jobs on
// the same snapshot. After Complete an optional Publisher catalogs the
// artifact; publish failures are recorded on the job without changing its
// status.
package composition
