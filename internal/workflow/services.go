package workflow

import (
	"log/slog"
	"time"

	"hookreel/internal/composition"
	"hookreel/internal/config"
	"hookreel/internal/generation"
	"hookreel/internal/notifications"
	"hookreel/internal/services/captioner"
	"hookreel/internal/services/combiner"
	"hookreel/internal/services/generator"
	"hookreel/internal/services/llm"
	"hookreel/internal/services/remote"
	"hookreel/internal/storage"
)

// Services bundles the configured collaborators a Composer runs against.
type Services struct {
	Generation *generation.Service
	Pipeline   *composition.Pipeline
	// Storage is nil when the gateway is disabled.
	Storage  *storage.Client
	Notifier notifications.Service
}

// BuildServices wires HTTP clients, retry policies, the optional caption
// drafting model, and the optional storage publisher from cfg. recorder may be
// nil to keep jobs in memory.
func BuildServices(cfg *config.Config, recorder composition.Recorder, logger *slog.Logger) (*Services, error) {
	if err := cfg.ValidateServices(); err != nil {
		return nil, err
	}

	generatorPolicy := remote.Policy{
		MaxAttempts: cfg.Generator.RetryAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}
	pipelinePolicy := remote.Policy{
		MaxAttempts: cfg.Pipeline.MaxAttempts,
		BaseDelay:   cfg.RetryBaseDelay(),
		MaxDelay:    cfg.RetryMaxDelay(),
	}

	backend := generator.New(generator.Config{
		BaseURL:           cfg.Generator.BaseURL,
		APIKey:            cfg.Generator.APIKey,
		TimeoutSeconds:    cfg.Generator.TimeoutSeconds,
		RequestsPerSecond: cfg.Generator.RequestsPerSecond,
	})
	out := &Services{
		Generation: generation.New(backend,
			generation.WithConcurrency(cfg.Generator.Concurrency),
			generation.WithPolicy(generatorPolicy),
			generation.WithLogger(logger),
		),
		Notifier: notifications.NewService(cfg),
	}

	opts := []composition.Option{
		composition.WithPolicy(pipelinePolicy),
		composition.WithLogger(logger),
		composition.WithDefaultFontSize(cfg.Pipeline.DefaultFontSize),
		composition.WithRecorder(recorder),
	}
	if cfg.CaptionsLLM.Enabled {
		suggester := llm.NewClient(llm.Config{
			APIKey:         cfg.CaptionsLLM.APIKey,
			BaseURL:        cfg.CaptionsLLM.BaseURL,
			Model:          cfg.CaptionsLLM.Model,
			Referer:        cfg.CaptionsLLM.Referer,
			Title:          cfg.CaptionsLLM.Title,
			TimeoutSeconds: cfg.CaptionsLLM.TimeoutSeconds,
			Temperature:    cfg.CaptionsLLM.Temperature,
		}, llm.WithPolicy(pipelinePolicy))
		opts = append(opts, composition.WithCaptionSuggester(suggester, cfg.CaptionsLLM.CaptionCount))
	}
	if cfg.Storage.Enabled {
		out.Storage = storage.New(remote.Config{
			BaseURL:        cfg.Storage.BaseURL,
			APIKey:         cfg.Storage.APIKey,
			TimeoutSeconds: cfg.Storage.TimeoutSeconds,
		}, storage.WithTransferTimeout(time.Duration(cfg.Storage.TransferTimeoutSeconds)*time.Second))
		opts = append(opts, composition.WithPublisher(storage.NewPublisher(out.Storage, out.Storage, logger)))
	}

	out.Pipeline = composition.New(
		combiner.New(remote.Config{
			BaseURL:        cfg.Combiner.BaseURL,
			APIKey:         cfg.Combiner.APIKey,
			TimeoutSeconds: cfg.Combiner.TimeoutSeconds,
		}),
		captioner.New(remote.Config{
			BaseURL:        cfg.Captioner.BaseURL,
			APIKey:         cfg.Captioner.APIKey,
			TimeoutSeconds: cfg.Captioner.TimeoutSeconds,
		}),
		opts...,
	)
	return out, nil
}

// NewComposer builds a Composer over these services. Later options override
// the configured notifier.
func (s *Services) NewComposer(opts ...Option) *Composer {
	opts = append([]Option{WithNotifier(s.Notifier)}, opts...)
	return NewComposer(s.Generation, s.Pipeline, opts...)
}
