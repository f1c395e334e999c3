package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is internally consistent. Service URLs
// are checked for shape only; ValidateServices enforces their presence.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateGenerator(); err != nil {
		return err
	}
	if err := validateService("combiner", c.Combiner); err != nil {
		return err
	}
	if err := validateService("captioner", c.Captioner); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	if err := c.validatePipeline(); err != nil {
		return err
	}
	if err := c.validateCaptionsLLM(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

// ValidateServices requires the generator, combiner, and captioner endpoints
// that composition commands depend on.
func (c *Config) ValidateServices() error {
	required := []struct {
		key   string
		value string
	}{
		{"generator.base_url", c.Generator.BaseURL},
		{"combiner.base_url", c.Combiner.BaseURL},
		{"captioner.base_url", c.Captioner.BaseURL},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			defaultPath, err := DefaultConfigPath()
			if err != nil {
				defaultPath = defaultConfigPath
			}
			return fmt.Errorf("%s is required. Edit %s (create with 'hookreel config init')", r.key, defaultPath)
		}
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		return errors.New("paths.data_dir must be set")
	}
	return nil
}

func (c *Config) validateGenerator() error {
	if err := validateURL("generator.base_url", c.Generator.BaseURL); err != nil {
		return err
	}
	if c.Generator.TimeoutSeconds <= 0 {
		return errors.New("generator.timeout_seconds must be positive")
	}
	if c.Generator.RetryAttempts <= 0 {
		return errors.New("generator.retry_attempts must be positive")
	}
	if c.Generator.Concurrency <= 0 {
		return errors.New("generator.concurrency must be positive")
	}
	if c.Generator.RequestsPerSecond < 0 {
		return errors.New("generator.requests_per_second must be zero (unlimited) or positive")
	}
	if c.Generator.DefaultVariantCount <= 0 {
		return errors.New("generator.default_variant_count must be positive")
	}
	return nil
}

func validateService(section string, svc Service) error {
	if err := validateURL(section+".base_url", svc.BaseURL); err != nil {
		return err
	}
	if svc.TimeoutSeconds <= 0 {
		return fmt.Errorf("%s.timeout_seconds must be positive", section)
	}
	return nil
}

func (c *Config) validateStorage() error {
	if !c.Storage.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Storage.BaseURL) == "" {
		return errors.New("storage.base_url must be set when storage.enabled is true")
	}
	if err := validateURL("storage.base_url", c.Storage.BaseURL); err != nil {
		return err
	}
	if c.Storage.TimeoutSeconds <= 0 {
		return errors.New("storage.timeout_seconds must be positive")
	}
	if c.Storage.TransferTimeoutSeconds <= 0 {
		return errors.New("storage.transfer_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.MaxAttempts <= 0 {
		return errors.New("pipeline.max_attempts must be positive")
	}
	if c.Pipeline.RetryBaseDelayMS < 0 {
		return errors.New("pipeline.retry_base_delay_ms must be non-negative")
	}
	if c.Pipeline.RetryMaxDelayMS < c.Pipeline.RetryBaseDelayMS {
		return errors.New("pipeline.retry_max_delay_ms must be >= pipeline.retry_base_delay_ms")
	}
	if c.Pipeline.DefaultFontSize <= 0 {
		return errors.New("pipeline.default_font_size must be positive")
	}
	return nil
}

func (c *Config) validateCaptionsLLM() error {
	llm := c.CaptionsLLM
	if !llm.Enabled {
		return nil
	}
	if llm.APIKey == "" {
		return fmt.Errorf("captions_llm.api_key must be set when captions_llm.enabled is true (or set %s)", EnvCaptionsLLMKey)
	}
	if err := validateURL("captions_llm.base_url", llm.BaseURL); err != nil {
		return err
	}
	if llm.TimeoutSeconds <= 0 {
		return errors.New("captions_llm.timeout_seconds must be positive")
	}
	if llm.Temperature <= 0 || llm.Temperature > 2 {
		return errors.New("captions_llm.temperature must be greater than 0 and at most 2")
	}
	if llm.CaptionCount <= 0 || llm.CaptionCount > maxCaptionCount {
		return fmt.Errorf("captions_llm.caption_count must be between 1 and %d", maxCaptionCount)
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if err := validateURL("notifications.ntfy_topic", c.Notifications.NtfyTopic); err != nil {
		return err
	}
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		return errors.New("notifications.request_timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q (want console or json)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero (disabled) or positive")
	}
	return nil
}

func validateURL(key, value string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s: scheme must be http or https, got %q", key, value)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s: missing host in %q", key, value)
	}
	return nil
}
