// Package llm provides an OpenAI-compatible chat client that drafts overlay
// captions for a composition.
//
// The composition pipeline consults it when a job is started without
// captions. When the [captions_llm] section is disabled the pipeline uses the
// composition prompt as the single caption instead.
//
// # Entry Points
//
// NewClient: construct client from Config.
// Client.SuggestCaptions: ask for N short captions and parse the numbered list.
// ParseCaptionList: tolerant parser for list-shaped model output.
//
// # Retry Behaviour
//
// Each logical call runs under a remote.Policy: HTTP 408/429/5xx, network
// timeouts, and empty completions are retried with exponential backoff.
// Context cancellation aborts retries immediately.
package llm
