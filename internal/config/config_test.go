package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"hookreel/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved != filepath.Join(tempHome, ".config", "hookreel", "config.toml") {
		t.Fatalf("unexpected resolved path %q", resolved)
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}
	if cfg.Paths.DataDir != filepath.Join(tempHome, ".local", "share", "hookreel") {
		t.Fatalf("unexpected data dir %q", cfg.Paths.DataDir)
	}
	if cfg.DatabasePath() != filepath.Join(cfg.Paths.DataDir, "jobs.db") {
		t.Fatalf("unexpected database path %q", cfg.DatabasePath())
	}
	if cfg.Pipeline.DefaultFontSize != 70 {
		t.Fatalf("expected default font size 70, got %d", cfg.Pipeline.DefaultFontSize)
	}
	if cfg.Storage.Enabled {
		t.Fatal("expected storage disabled by default")
	}
	if err := cfg.ValidateServices(); err == nil {
		t.Fatal("expected ValidateServices to require endpoints")
	}
}

func TestLoadProjectConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)
	contents := "[generator]\nbase_url = \"http://gen.local/\"\nconcurrency = 2\n"
	if err := os.WriteFile(filepath.Join(dir, "hookreel.toml"), []byte(contents), 0o644); err != nil {
		t.Fatalf("write project config: %v", err)
	}

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || !strings.HasSuffix(resolved, "hookreel.toml") {
		t.Fatalf("expected project config, got %q exists=%v", resolved, exists)
	}
	if cfg.Generator.BaseURL != "http://gen.local" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Generator.BaseURL)
	}
	if cfg.Generator.Concurrency != 2 {
		t.Fatalf("expected concurrency 2, got %d", cfg.Generator.Concurrency)
	}
}

func TestLoadCustomPath(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hookreel.toml")

	type payload struct {
		Generator struct {
			BaseURL string `toml:"base_url"`
		} `toml:"generator"`
		Combiner struct {
			BaseURL string `toml:"base_url"`
		} `toml:"combiner"`
		Captioner struct {
			BaseURL string `toml:"base_url"`
		} `toml:"captioner"`
		Pipeline struct {
			MaxAttempts     int `toml:"max_attempts"`
			DefaultFontSize int `toml:"default_font_size"`
		} `toml:"pipeline"`
	}
	custom := payload{}
	custom.Generator.BaseURL = "https://gen.example.com"
	custom.Combiner.BaseURL = "https://combine.example.com"
	custom.Captioner.BaseURL = "https://caption.example.com"
	custom.Pipeline.MaxAttempts = 5
	custom.Pipeline.DefaultFontSize = 48
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("unexpected resolution %q exists=%v", resolved, exists)
	}
	if cfg.Pipeline.MaxAttempts != 5 || cfg.Pipeline.DefaultFontSize != 48 {
		t.Fatalf("unexpected pipeline section %+v", cfg.Pipeline)
	}
	if err := cfg.ValidateServices(); err != nil {
		t.Fatalf("ValidateServices returned error: %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hookreel.toml")
	if err := os.WriteFile(configPath, []byte("[generator]\nbase_urll = \"x\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to fail")
	}
}

func TestEnvVarOverridesConfigFileForAPIKeys(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hookreel.toml")
	contents := strings.Join([]string{
		"[generator]", `api_key = "file-gen"`,
		"[combiner]", `api_key = "file-combine"`,
		"[captioner]", `api_key = "file-caption"`,
		"[storage]", `api_key = "file-storage"`,
	}, "\n")
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv(config.EnvGeneratorAPIKey, "env-gen")
	t.Setenv(config.EnvCombinerAPIKey, "env-combine")
	t.Setenv(config.EnvCaptionerAPIKey, "")
	t.Setenv(config.EnvStorageAPIKey, "env-storage")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Generator.APIKey != "env-gen" {
		t.Errorf("expected generator key from env, got %q", cfg.Generator.APIKey)
	}
	if cfg.Combiner.APIKey != "env-combine" {
		t.Errorf("expected combiner key from env, got %q", cfg.Combiner.APIKey)
	}
	if cfg.Captioner.APIKey != "file-caption" {
		t.Errorf("expected blank env to keep file key, got %q", cfg.Captioner.APIKey)
	}
	if cfg.Storage.APIKey != "env-storage" {
		t.Errorf("expected storage key from env, got %q", cfg.Storage.APIKey)
	}
}

func TestCaptionsLLMKeyFallsBackToOpenAIEnv(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "hookreel.toml")
	contents := strings.Join([]string{"[captions_llm]", "enabled = true", "caption_count = 5"}, "\n")
	if err := os.WriteFile(configPath, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvCaptionsLLMKey, "")
	t.Setenv(config.EnvOpenAIAPIKey, "sk-openai")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CaptionsLLM.APIKey != "sk-openai" {
		t.Fatalf("expected OPENAI_API_KEY fallback, got %q", cfg.CaptionsLLM.APIKey)
	}
	if cfg.CaptionsLLM.CaptionCount != 5 || cfg.CaptionsLLM.Model != "gpt-4-turbo" {
		t.Fatalf("unexpected captions_llm section %+v", cfg.CaptionsLLM)
	}

	t.Setenv(config.EnvCaptionsLLMKey, "sk-hookreel")
	cfg, _, _, err = config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.CaptionsLLM.APIKey != "sk-hookreel" {
		t.Fatalf("expected hookreel key to win, got %q", cfg.CaptionsLLM.APIKey)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if cfg.Pipeline.DefaultFontSize != 70 {
		t.Fatalf("expected sample font size 70, got %d", cfg.Pipeline.DefaultFontSize)
	}
	if !strings.Contains(cfg.Paths.DataDir, "hookreel") {
		t.Fatalf("expected data dir to contain hookreel, got %q", cfg.Paths.DataDir)
	}

	loaded, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if err := loaded.ValidateServices(); err != nil {
		t.Fatalf("sample should satisfy ValidateServices: %v", err)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"bad scheme", func(c *config.Config) { c.Generator.BaseURL = "ftp://gen" }, "generator.base_url"},
		{"missing host", func(c *config.Config) { c.Combiner.BaseURL = "http://" }, "combiner.base_url"},
		{"concurrency", func(c *config.Config) { c.Generator.Concurrency = 0 }, "generator.concurrency"},
		{"rate", func(c *config.Config) { c.Generator.RequestsPerSecond = -1 }, "generator.requests_per_second"},
		{"captioner timeout", func(c *config.Config) { c.Captioner.TimeoutSeconds = 0 }, "captioner.timeout_seconds"},
		{"storage url", func(c *config.Config) { c.Storage.Enabled = true }, "storage.base_url"},
		{"storage transfer timeout", func(c *config.Config) {
			c.Storage.Enabled = true
			c.Storage.BaseURL = "http://storage"
			c.Storage.TransferTimeoutSeconds = 0
		}, "storage.transfer_timeout_seconds"},
		{"attempts", func(c *config.Config) { c.Pipeline.MaxAttempts = 0 }, "pipeline.max_attempts"},
		{"delays", func(c *config.Config) { c.Pipeline.RetryMaxDelayMS = 10 }, "pipeline.retry_max_delay_ms"},
		{"font", func(c *config.Config) { c.Pipeline.DefaultFontSize = -1 }, "pipeline.default_font_size"},
		{"llm key", func(c *config.Config) { c.CaptionsLLM.Enabled = true }, "captions_llm.api_key"},
		{"llm url", func(c *config.Config) {
			c.CaptionsLLM.Enabled = true
			c.CaptionsLLM.APIKey = "key"
			c.CaptionsLLM.BaseURL = "api.openai.com"
		}, "captions_llm.base_url"},
		{"llm caption count", func(c *config.Config) {
			c.CaptionsLLM.Enabled = true
			c.CaptionsLLM.APIKey = "key"
			c.CaptionsLLM.CaptionCount = 11
		}, "captions_llm.caption_count"},
		{"llm temperature", func(c *config.Config) {
			c.CaptionsLLM.Enabled = true
			c.CaptionsLLM.APIKey = "key"
			c.CaptionsLLM.Temperature = 0
		}, "captions_llm.temperature"},
		{"ntfy topic", func(c *config.Config) { c.Notifications.NtfyTopic = "ntfy.sh/hookreel" }, "notifications.ntfy_topic"},
		{"ntfy timeout", func(c *config.Config) { c.Notifications.RequestTimeoutSeconds = 0 }, "notifications.request_timeout_seconds"},
		{"format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"level", func(c *config.Config) { c.Logging.Level = "loud" }, "logging.level"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatalf("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error naming %s, got %v", tc.want, err)
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestExpandPathHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	got, err := config.ExpandPath("~/data")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	if got != filepath.Join(home, "data") {
		t.Fatalf("unexpected expansion %q", got)
	}
}
