package generation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"hookreel/internal/clip"
	"hookreel/internal/logging"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const defaultConcurrency = 4

// Call is one per-variant request issued to the backend.
type Call struct {
	// Index is the 1-based variation number.
	Index     int
	SourceURL string
	Prompt    string
	Reaction  clip.ReactionType
	Demo      clip.DemoType
}

// Backend produces a single variant per call.
type Backend interface {
	GenerateVariant(ctx context.Context, call Call) (clip.Variant, error)
}

// Request asks for VariantCount variants of one source video.
type Request struct {
	SourceURL    string
	Prompt       string
	Reaction     clip.ReactionType
	Demo         clip.DemoType
	VariantCount int
}

// Failure records why one variation produced nothing.
type Failure struct {
	Index int
	Err   error
}

// Result holds the successful variants in index order. Failed counts the
// variations that produced nothing; the list is never padded.
type Result struct {
	Variants []clip.Variant
	Original clip.Source
	Failed   int
	Failures []Failure
}

// Partial reports whether some, but not all, variations failed.
func (r Result) Partial() bool {
	return r.Failed > 0 && len(r.Variants) > 0
}

// Service fans generation requests out to the backend. It keeps no state
// between calls.
type Service struct {
	backend     Backend
	concurrency int
	policy      remote.Policy
	logger      *slog.Logger
}

// Option customizes the service.
type Option func(*Service)

// WithConcurrency bounds the number of in-flight backend calls.
func WithConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithPolicy sets the retry policy applied to each variation.
func WithPolicy(policy remote.Policy) Option {
	return func(s *Service) { s.policy = policy }
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a generation service around backend.
func New(backend Backend, opts ...Option) *Service {
	s := &Service{
		backend:     backend,
		concurrency: defaultConcurrency,
		policy:      remote.DefaultPolicy(),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "generation")
	return s
}

// Validate checks a request without contacting the backend.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.SourceURL) == "" {
		problems = append(problems, "source video url is required")
	}
	if strings.TrimSpace(r.Prompt) == "" {
		problems = append(problems, "prompt is required")
	}
	if !r.Reaction.Valid() {
		problems = append(problems, fmt.Sprintf("reaction type %q is not one of %v", r.Reaction, clip.ReactionTypes()))
	}
	if !r.Demo.Valid() {
		problems = append(problems, fmt.Sprintf("demo type %q is not one of %v", r.Demo, clip.DemoTypes()))
	}
	if r.VariantCount < 1 {
		problems = append(problems, fmt.Sprintf("variant count must be at least 1, got %d", r.VariantCount))
	}
	if len(problems) > 0 {
		return services.Wrap(services.ErrValidation, "generation", "validate request", strings.Join(problems, "; "), nil)
	}
	return nil
}

// Calls expands the request into its per-variant calls.
func (r Request) Calls() []Call {
	calls := make([]Call, 0, r.VariantCount)
	for k := 1; k <= r.VariantCount; k++ {
		calls = append(calls, Call{
			Index:     k,
			SourceURL: strings.TrimSpace(r.SourceURL),
			Prompt:    VariationPrompt(r.Prompt, k),
			Reaction:  r.Reaction,
			Demo:      r.Demo,
		})
	}
	return calls
}

// VariationPrompt appends the 1-based variation suffix to prompt.
func VariationPrompt(prompt string, index int) string {
	return fmt.Sprintf("%s variation %d", strings.TrimSpace(prompt), index)
}

// Generate issues VariantCount independent backend calls, bounded by the
// configured concurrency, and returns once every call has settled. It fails
// with ErrGenerationFailed only when no variation succeeds.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}
	if s.backend == nil {
		return Result{}, services.Wrap(services.ErrConfiguration, "generation", "generate", "generator backend is not configured", nil)
	}

	ctx = services.WithStage(ctx, "generation")
	logger := logging.WithContext(ctx, s.logger)
	logger.Info("generation started",
		logging.String(logging.FieldEventType, "generation_start"),
		logging.String("reaction", string(req.Reaction)),
		logging.String("demo", string(req.Demo)),
		logging.Int("variant_count", req.VariantCount),
		logging.Int("concurrency", s.concurrency),
	)

	calls := req.Calls()
	variants := make([]clip.Variant, len(calls))
	errs := make([]error, len(calls))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, call := range calls {
		g.Go(func() error {
			variants[i], errs[i] = s.generateOne(ctx, logger, call)
			return nil
		})
	}
	_ = g.Wait()

	result := assemble(req, calls, variants, errs)
	for _, failure := range result.Failures {
		logging.WarnWithContext(logger, "variation failed", "variation_failed",
			logging.Int("index", failure.Index),
			logging.Error(failure.Err),
			logging.String(logging.FieldImpact, "fewer variants returned"),
		)
	}

	if len(result.Variants) == 0 {
		joined := errors.Join(failureErrors(result.Failures)...)
		return result, services.Wrap(services.ErrGenerationFailed, "generation", "generate",
			fmt.Sprintf("all %d variation(s) failed", len(calls)), joined)
	}

	logger.Info("generation completed",
		logging.String(logging.FieldEventType, "generation_complete"),
		logging.Int("variants", len(result.Variants)),
		logging.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *Service) generateOne(ctx context.Context, logger *slog.Logger, call Call) (clip.Variant, error) {
	var variant clip.Variant
	_, err := s.policy.Do(ctx, func(int) error {
		v, err := s.backend.GenerateVariant(ctx, call)
		if err != nil {
			return err
		}
		if err := checkVariant(call, v); err != nil {
			return err
		}
		variant = v
		return nil
	}, func(attempt int, err error) {
		logger.Debug("variation attempt failed",
			logging.Int("index", call.Index),
			logging.Int("attempt", attempt),
			logging.Error(err),
		)
	})
	if err != nil {
		return clip.Variant{}, err
	}
	return variant, nil
}

// checkVariant rejects variants whose shape does not match the call.
func checkVariant(call Call, v clip.Variant) error {
	var problems []string
	if strings.TrimSpace(v.ID) == "" {
		problems = append(problems, "missing id")
	}
	if strings.TrimSpace(v.URL) == "" {
		problems = append(problems, "missing url")
	}
	if v.Reaction != call.Reaction {
		problems = append(problems, fmt.Sprintf("reaction %q does not match requested %q", v.Reaction, call.Reaction))
	}
	if v.Demo != call.Demo {
		problems = append(problems, fmt.Sprintf("demo type %q does not match requested %q", v.Demo, call.Demo))
	}
	if len(problems) == 0 {
		return nil
	}
	return services.Wrap(services.ErrExternalTool, "generation", fmt.Sprintf("variation %d", call.Index),
		"unexpected variant shape: "+strings.Join(problems, ", "), nil)
}

func assemble(req Request, calls []Call, variants []clip.Variant, errs []error) Result {
	result := Result{Original: clip.OriginalSource(req.SourceURL)}
	seen := make(map[string]int, len(calls))
	for i, call := range calls {
		if errs[i] != nil {
			result.Failures = append(result.Failures, Failure{Index: call.Index, Err: errs[i]})
			continue
		}
		v := variants[i]
		if first, dup := seen[v.ID]; dup {
			result.Failures = append(result.Failures, Failure{
				Index: call.Index,
				Err: services.Wrap(services.ErrExternalTool, "generation", fmt.Sprintf("variation %d", call.Index),
					fmt.Sprintf("duplicate variant id %q (already returned by variation %d)", v.ID, first), nil),
			})
			continue
		}
		seen[v.ID] = call.Index
		if strings.TrimSpace(v.Prompt) == "" {
			v.Prompt = call.Prompt
		}
		if strings.TrimSpace(v.Description) == "" {
			v.Description = clip.Describe(call.Reaction, call.Demo)
		}
		if strings.TrimSpace(v.Name) == "" {
			v.Name = fmt.Sprintf("%s %s %d", call.Reaction.Label(), call.Demo.Label(), call.Index)
		}
		result.Variants = append(result.Variants, v)
	}
	result.Failed = len(result.Failures)
	return result
}

func failureErrors(failures []Failure) []error {
	out := make([]error, 0, len(failures))
	for _, f := range failures {
		out = append(out, fmt.Errorf("variation %d: %w", f.Index, f.Err))
	}
	return out
}
