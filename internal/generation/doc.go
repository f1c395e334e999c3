// Package generation requests reaction-video variants for a source video.
//
// Generate validates the request, fans out one backend call per variation
// (prompt suffixed "variation k") under an errgroup limit, retries transient
// failures per variation, and waits for every call to settle. Successful
// variants come back in index order with a failure count; only a total
// failure is an error.
package generation
