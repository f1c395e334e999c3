package config

const (
	defaultConfigPath           = "~/.config/hookreel/config.toml"
	projectConfigName           = "hookreel.toml"
	defaultDataDir              = "~/.local/share/hookreel"
	defaultLogDir               = "~/.local/share/hookreel/logs"
	defaultLogRetentionDays     = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultServiceTimeout       = 120
	defaultGeneratorTimeout     = 300
	defaultGeneratorRetries     = 3
	defaultGeneratorConcurrency = 4
	defaultVariantCount         = 3
	defaultStorageTimeout       = 60
	defaultTransferTimeout      = 600
	defaultPipelineAttempts     = 3
	defaultRetryBaseDelayMS     = 1000
	defaultRetryMaxDelayMS      = 10000
	defaultFontSize             = 70
	defaultNotifyTimeout        = 10
	defaultCaptionsLLMBaseURL   = "https://api.openai.com/v1/chat/completions"
	defaultCaptionsLLMModel     = "gpt-4-turbo"
	defaultCaptionsLLMTimeout   = 30
	defaultCaptionsLLMTemp      = 0.7
	defaultCaptionCount         = 3
	maxCaptionCount             = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Generator: Generator{
			TimeoutSeconds:      defaultGeneratorTimeout,
			RetryAttempts:       defaultGeneratorRetries,
			Concurrency:         defaultGeneratorConcurrency,
			DefaultVariantCount: defaultVariantCount,
		},
		Combiner: Service{
			TimeoutSeconds: defaultServiceTimeout,
		},
		Captioner: Service{
			TimeoutSeconds: defaultServiceTimeout,
		},
		Storage: Storage{
			TimeoutSeconds:         defaultStorageTimeout,
			TransferTimeoutSeconds: defaultTransferTimeout,
		},
		Pipeline: Pipeline{
			MaxAttempts:      defaultPipelineAttempts,
			RetryBaseDelayMS: defaultRetryBaseDelayMS,
			RetryMaxDelayMS:  defaultRetryMaxDelayMS,
			DefaultFontSize:  defaultFontSize,
		},
		CaptionsLLM: CaptionsLLM{
			BaseURL:        defaultCaptionsLLMBaseURL,
			Model:          defaultCaptionsLLMModel,
			TimeoutSeconds: defaultCaptionsLLMTimeout,
			Temperature:    defaultCaptionsLLMTemp,
			CaptionCount:   defaultCaptionCount,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNotifyTimeout,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
