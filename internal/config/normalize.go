package config

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables that override API keys from the config file.
const (
	EnvGeneratorAPIKey = "HOOKREEL_GENERATOR_API_KEY"
	EnvCombinerAPIKey  = "HOOKREEL_COMBINER_API_KEY"
	EnvCaptionerAPIKey = "HOOKREEL_CAPTIONER_API_KEY"
	EnvStorageAPIKey   = "HOOKREEL_STORAGE_API_KEY"
	EnvCaptionsLLMKey  = "HOOKREEL_CAPTIONS_LLM_API_KEY"
	// EnvOpenAIAPIKey is consulted when no captions_llm key is set anywhere else.
	EnvOpenAIAPIKey = "OPENAI_API_KEY"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeGenerator()
	c.Combiner = normalizeService(c.Combiner, EnvCombinerAPIKey)
	c.Captioner = normalizeService(c.Captioner, EnvCaptionerAPIKey)
	c.normalizeStorage()
	c.normalizePipeline()
	c.normalizeCaptionsLLM()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeGenerator() {
	c.Generator.BaseURL = strings.TrimRight(strings.TrimSpace(c.Generator.BaseURL), "/")
	c.Generator.APIKey = envOverride(c.Generator.APIKey, EnvGeneratorAPIKey)
	if c.Generator.TimeoutSeconds == 0 {
		c.Generator.TimeoutSeconds = defaultGeneratorTimeout
	}
	if c.Generator.RetryAttempts == 0 {
		c.Generator.RetryAttempts = defaultGeneratorRetries
	}
	if c.Generator.Concurrency == 0 {
		c.Generator.Concurrency = defaultGeneratorConcurrency
	}
	if c.Generator.DefaultVariantCount == 0 {
		c.Generator.DefaultVariantCount = defaultVariantCount
	}
}

func normalizeService(svc Service, envKey string) Service {
	svc.BaseURL = strings.TrimRight(strings.TrimSpace(svc.BaseURL), "/")
	svc.APIKey = envOverride(svc.APIKey, envKey)
	if svc.TimeoutSeconds == 0 {
		svc.TimeoutSeconds = defaultServiceTimeout
	}
	return svc
}

func (c *Config) normalizeStorage() {
	c.Storage.BaseURL = strings.TrimRight(strings.TrimSpace(c.Storage.BaseURL), "/")
	c.Storage.APIKey = envOverride(c.Storage.APIKey, EnvStorageAPIKey)
	if c.Storage.TimeoutSeconds == 0 {
		c.Storage.TimeoutSeconds = defaultStorageTimeout
	}
	if c.Storage.TransferTimeoutSeconds == 0 {
		c.Storage.TransferTimeoutSeconds = defaultTransferTimeout
	}
}

func (c *Config) normalizePipeline() {
	if c.Pipeline.MaxAttempts == 0 {
		c.Pipeline.MaxAttempts = defaultPipelineAttempts
	}
	if c.Pipeline.DefaultFontSize == 0 {
		c.Pipeline.DefaultFontSize = defaultFontSize
	}
}

func (c *Config) normalizeCaptionsLLM() {
	llm := &c.CaptionsLLM
	llm.APIKey = envOverride(llm.APIKey, EnvCaptionsLLMKey)
	if llm.APIKey == "" {
		llm.APIKey = envOverride("", EnvOpenAIAPIKey)
	}
	llm.BaseURL = strings.TrimSpace(llm.BaseURL)
	if llm.BaseURL == "" {
		llm.BaseURL = defaultCaptionsLLMBaseURL
	}
	llm.Model = strings.TrimSpace(llm.Model)
	if llm.Model == "" {
		llm.Model = defaultCaptionsLLMModel
	}
	llm.Referer = strings.TrimSpace(llm.Referer)
	llm.Title = strings.TrimSpace(llm.Title)
	if llm.TimeoutSeconds == 0 {
		llm.TimeoutSeconds = defaultCaptionsLLMTimeout
	}
	if llm.CaptionCount == 0 {
		llm.CaptionCount = defaultCaptionCount
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// envOverride prefers a non-empty environment value over the file value.
func envOverride(current, envKey string) string {
	if value, ok := os.LookupEnv(envKey); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(current)
}
