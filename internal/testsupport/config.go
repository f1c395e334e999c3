package testsupport

import (
	"path/filepath"
	"testing"

	"hookreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Retry delays are zeroed so pipeline tests never sleep.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Pipeline.RetryBaseDelayMS = 0
	cfgVal.Pipeline.RetryMaxDelayMS = 0
	cfgVal.Logging.RetentionDays = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithServiceURL points the generator, combiner, and captioner at baseURL.
func WithServiceURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Generator.BaseURL = baseURL
		b.cfg.Combiner.BaseURL = baseURL
		b.cfg.Captioner.BaseURL = baseURL
	}
}

// WithStorageURL enables the storage gateway at baseURL.
func WithStorageURL(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Storage.Enabled = true
		b.cfg.Storage.BaseURL = baseURL
	}
}

// WithCaptionsLLM enables caption drafting against the chat endpoint under
// baseURL.
func WithCaptionsLLM(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.CaptionsLLM.Enabled = true
		b.cfg.CaptionsLLM.APIKey = "test-key"
		b.cfg.CaptionsLLM.BaseURL = baseURL + "/chat/completions"
	}
}

// WithPipelineAttempts overrides the per-step attempt bound.
func WithPipelineAttempts(attempts int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Pipeline.MaxAttempts = attempts
		b.cfg.Generator.RetryAttempts = attempts
	}
}

// WithNtfyTopic enables ntfy notifications at topic.
func WithNtfyTopic(topic string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Notifications.NtfyTopic = topic
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}
