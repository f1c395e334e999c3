package composition

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"hookreel/internal/clip"
	"hookreel/internal/logging"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

// Combiner joins ordered clips into one video and returns its url.
type Combiner interface {
	Combine(ctx context.Context, clipURLs []string) (string, error)
}

// Captioner overlays captions on a video and returns the result url.
type Captioner interface {
	Caption(ctx context.Context, videoURL string, spec clip.CaptionSpec) (string, error)
}

// CaptionSuggester drafts overlay captions from a composition prompt.
type CaptionSuggester interface {
	SuggestCaptions(ctx context.Context, prompt string, count int) ([]string, error)
}

// Publisher hands a completed artifact to durable storage and returns the
// catalog id it was recorded under.
type Publisher interface {
	Publish(ctx context.Context, job *Job) (string, error)
}

// Recorder persists job transitions.
type Recorder interface {
	Save(ctx context.Context, job *Job) error
}

// Request starts a job over a sequence snapshot.
type Request struct {
	CompositionID string
	Clips         []clip.Variant
	Captions      clip.CaptionSpec
	Metadata      clip.Metadata
}

// Pipeline runs combine then caption for each job. Jobs share no mutable
// state, so one Pipeline may serve concurrent callers.
type Pipeline struct {
	combiner        Combiner
	captioner       Captioner
	publisher       Publisher
	suggester       CaptionSuggester
	suggestCount    int
	recorder        Recorder
	policy          remote.Policy
	logger          *slog.Logger
	now             func() time.Time
	newID           func() string
	defaultFontSize int
}

// Option customizes the pipeline.
type Option func(*Pipeline)

// WithPublisher enables the output stage.
func WithPublisher(publisher Publisher) Option {
	return func(p *Pipeline) { p.publisher = publisher }
}

// WithCaptionSuggester drafts count captions for jobs started without any.
// Without a suggester the composition prompt becomes the single caption.
func WithCaptionSuggester(suggester CaptionSuggester, count int) Option {
	return func(p *Pipeline) {
		p.suggester = suggester
		p.suggestCount = count
	}
}

// WithRecorder persists every transition.
func WithRecorder(recorder Recorder) Option {
	return func(p *Pipeline) {
		if recorder != nil {
			p.recorder = recorder
		}
	}
}

// WithPolicy overrides the per-step retry policy.
func WithPolicy(policy remote.Policy) Option {
	return func(p *Pipeline) { p.policy = policy }
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithClock overrides the timestamp source (useful for tests).
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) {
		if now != nil {
			p.now = now
		}
	}
}

// WithIDGenerator overrides job id generation (useful for tests).
func WithIDGenerator(newID func() string) Option {
	return func(p *Pipeline) {
		if newID != nil {
			p.newID = newID
		}
	}
}

// WithDefaultFontSize sets the caption size used when a request omits one.
func WithDefaultFontSize(size int) Option {
	return func(p *Pipeline) {
		if size > 0 {
			p.defaultFontSize = size
		}
	}
}

// New constructs a pipeline around the combiner and captioner.
func New(combiner Combiner, captioner Captioner, opts ...Option) *Pipeline {
	p := &Pipeline{
		combiner:        combiner,
		captioner:       captioner,
		recorder:        NewMemoryRecorder(),
		policy:          remote.DefaultPolicy(),
		logger:          logging.NewNop(),
		now:             time.Now,
		newID:           uuid.NewString,
		defaultFontSize: clip.DefaultFontSize,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "pipeline")
	return p
}

// Start validates the request, snapshots the clips, and runs the job to a
// terminal status. A Failed job is returned with a nil error; the error
// return is reserved for invalid requests, caption drafting failures, and
// persistence failures.
func (p *Pipeline) Start(ctx context.Context, req Request) (*Job, error) {
	job, err := p.newJob(req)
	if err != nil {
		return nil, err
	}
	if err := p.suggestCaptions(ctx, job); err != nil {
		return nil, err
	}
	if err := p.save(ctx, job); err != nil {
		return nil, err
	}
	return job, p.run(ctx, job)
}

// Resubmit starts a new job on a Failed job's snapshot and captions. The
// pipeline never resubmits on its own.
func (p *Pipeline) Resubmit(ctx context.Context, failed *Job) (*Job, error) {
	if err := failed.Resubmittable(); err != nil {
		return nil, err
	}
	job, err := p.newJob(Request{
		CompositionID: failed.CompositionID,
		Clips:         failed.Snapshot,
		Captions:      failed.Captions,
		Metadata:      failed.Metadata,
	})
	if err != nil {
		return nil, err
	}
	job.ResubmittedFrom = failed.ID
	if err := p.save(ctx, job); err != nil {
		return nil, err
	}
	return job, p.run(ctx, job)
}

// Cancel marks a job so it will not be resubmitted. An in-flight request is
// not interrupted.
func (p *Pipeline) Cancel(ctx context.Context, job *Job) error {
	if job == nil {
		return services.Wrap(services.ErrValidation, "composition", "cancel", errNilJob.Error(), nil)
	}
	if job.Status == StatusComplete {
		return services.Wrap(services.ErrValidation, "composition", "cancel",
			fmt.Sprintf("job %s already complete", job.ID), nil)
	}
	if job.CancelRequested {
		return nil
	}
	job.CancelRequested = true
	return p.save(ctx, job)
}

func (p *Pipeline) newJob(req Request) (*Job, error) {
	if len(req.Clips) == 0 {
		return nil, services.Wrap(services.ErrValidation, "composition", "start job", "clip sequence is empty", nil)
	}
	for i, v := range req.Clips {
		if strings.TrimSpace(v.URL) == "" {
			return nil, services.Wrap(services.ErrValidation, "composition", "start job",
				fmt.Sprintf("clip %d (%s) has no url", i, v.ID), nil)
		}
	}
	if p.combiner == nil || p.captioner == nil {
		return nil, services.Wrap(services.ErrConfiguration, "composition", "start job", "combiner and captioner are required", nil)
	}

	captions := req.Captions
	if captions.FontSize <= 0 {
		captions.FontSize = p.defaultFontSize
	}
	fallback := req.Metadata.Prompt
	if p.suggester != nil {
		fallback = ""
	}
	now := p.now().UTC()
	return &Job{
		ID:            p.newID(),
		CompositionID: strings.TrimSpace(req.CompositionID),
		Snapshot:      append([]clip.Variant(nil), req.Clips...),
		Metadata:      req.Metadata,
		Captions:      captions.Normalized(fallback),
		Status:        StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// suggestCaptions fills in drafted captions when the job has none and a
// suggester is configured. A job without a prompt keeps an empty list.
func (p *Pipeline) suggestCaptions(ctx context.Context, job *Job) error {
	if p.suggester == nil || len(job.Captions.Captions) > 0 {
		return nil
	}
	prompt := strings.TrimSpace(job.Metadata.Prompt)
	if prompt == "" {
		return nil
	}
	ctx = services.WithStage(services.WithJobID(ctx, job.ID), "suggesting")
	logger := logging.WithContext(ctx, p.logger)

	suggested, err := p.suggester.SuggestCaptions(ctx, prompt, p.suggestCount)
	if err != nil {
		logger.Error("caption suggestion failed",
			logging.String(logging.FieldEventType, "caption_suggestion_failed"),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check [captions_llm] settings or pass captions with --caption"),
		)
		return services.Wrap(services.ErrCaption, "suggesting", "suggest captions", "caption drafting failed", err)
	}
	spec := clip.CaptionSpec{Captions: suggested, FontSize: job.Captions.FontSize}.Normalized("")
	if len(spec.Captions) == 0 {
		return services.Wrap(services.ErrCaption, "suggesting", "suggest captions", "caption drafting returned no captions", nil)
	}
	job.Captions = spec
	logger.Info("captions suggested",
		logging.String(logging.FieldEventType, "captions_suggested"),
		logging.Int("caption_count", len(spec.Captions)),
	)
	return nil
}

func (p *Pipeline) run(ctx context.Context, job *Job) error {
	ctx = services.WithJobID(ctx, job.ID)
	ctx = services.WithCompositionID(ctx, job.CompositionID)

	combine := stage{
		name:       "combining",
		processing: StatusCombining,
		done:       StatusCaptioning,
		marker:     services.ErrCombination,
		execute: func(ctx context.Context, job *Job) error {
			url, err := p.combiner.Combine(ctx, job.ClipURLs())
			if err != nil {
				return err
			}
			job.CombinedURL = url
			return nil
		},
	}
	caption := stage{
		name:       "captioning",
		processing: StatusCaptioning,
		done:       StatusComplete,
		marker:     services.ErrCaption,
		execute: func(ctx context.Context, job *Job) error {
			url, err := p.captioner.Caption(ctx, job.CombinedURL, job.Captions)
			if err != nil {
				return err
			}
			job.ArtifactURL = url
			return nil
		},
	}

	for _, s := range []stage{combine, caption} {
		ok, err := p.runStage(ctx, job, s)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	p.publish(ctx, job)
	return nil
}

func (p *Pipeline) publish(ctx context.Context, job *Job) {
	if p.publisher == nil {
		return
	}
	ctx = services.WithStage(ctx, "publishing")
	logger := logging.WithContext(ctx, p.logger)

	catalogID, err := p.publisher.Publish(ctx, job)
	if err != nil {
		job.PublishError = strings.TrimSpace(err.Error())
		logging.WarnWithContext(logger, "publish failed; artifact remains at captioner url", "publish_failed",
			logging.String("artifact_url", job.ArtifactURL),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check storage gateway connectivity and retry with 'hookreel jobs show'"),
			logging.String(logging.FieldImpact, "artifact not cataloged"),
		)
	} else {
		job.CatalogID = catalogID
		job.PublishError = ""
		logger.Info("artifact published",
			logging.String(logging.FieldEventType, "publish_complete"),
			logging.String("catalog_id", catalogID),
		)
	}
	if err := p.save(ctx, job); err != nil {
		logger.Error("failed to persist publish result", logging.Error(err))
	}
}

// save persists job with a context detached from caller cancellation, so an
// interrupted run never leaves a stale processing status behind.
func (p *Pipeline) save(ctx context.Context, job *Job) error {
	job.UpdatedAt = p.now().UTC()
	if err := p.recorder.Save(context.WithoutCancel(ctx), job); err != nil {
		return fmt.Errorf("persist job %s: %w", job.ID, err)
	}
	return nil
}
