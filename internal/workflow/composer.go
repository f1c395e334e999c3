package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
	"hookreel/internal/generation"
	"hookreel/internal/logging"
	"hookreel/internal/selection"
	"hookreel/internal/sequence"
	"hookreel/internal/services"
)

// ErrJobRunning is returned when a composition already has a job in flight.
var ErrJobRunning = fmt.Errorf("%w: composition already has a running job", services.ErrValidation)

// Generator produces variants for a composition.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) (generation.Result, error)
}

// Runner executes composition jobs.
type Runner interface {
	Start(ctx context.Context, req composition.Request) (*composition.Job, error)
	Resubmit(ctx context.Context, failed *composition.Job) (*composition.Job, error)
	Cancel(ctx context.Context, job *composition.Job) error
}

// Notifier reports job results. Delivery errors are logged and ignored.
type Notifier interface {
	NotifyJobCompleted(ctx context.Context, label, artifactURL string) error
	NotifyJobFailed(ctx context.Context, label string, err error) error
	NotifyPublished(ctx context.Context, label, catalogID string) error
	NotifyGenerationPartial(ctx context.Context, succeeded, failed int) error
}

// Label is the display name recorded when a selection is accepted.
type Label struct {
	Name        string
	Description string
}

// Composer owns one composition: its generated options, the selection
// session over them, the clip sequence, and at most one running job.
type Composer struct {
	id        string
	generator Generator
	runner    Runner
	notifier  Notifier
	logger    *slog.Logger

	mu       sync.Mutex
	metadata clip.Metadata
	result   generation.Result
	session  *selection.Session
	sequence *sequence.Sequencer
	label    Label
	running  bool
	lastJob  *composition.Job
}

// Option customizes a Composer.
type Option func(*Composer)

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Composer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithNotifier attaches a job result notifier.
func WithNotifier(notifier Notifier) Option {
	return func(c *Composer) {
		if notifier != nil {
			c.notifier = notifier
		}
	}
}

// WithCompositionID fixes the composition id instead of generating one.
func WithCompositionID(id string) Option {
	return func(c *Composer) {
		if id = strings.TrimSpace(id); id != "" {
			c.id = id
		}
	}
}

// NewComposer constructs a composer with an empty sequence.
func NewComposer(generator Generator, runner Runner, opts ...Option) *Composer {
	c := &Composer{
		id:        uuid.NewString(),
		generator: generator,
		runner:    runner,
		logger:    logging.NewNop(),
		sequence:  sequence.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "workflow").With(
		logging.String(logging.FieldCompositionID, c.id),
	)
	return c
}

// ID returns the composition id.
func (c *Composer) ID() string {
	return c.id
}

// Sequence exposes the clip sequence for direct edits.
func (c *Composer) Sequence() *sequence.Sequencer {
	return c.sequence
}

// Session returns the current selection session, or nil before Generate.
func (c *Composer) Session() *selection.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Result returns the most recent generation result.
func (c *Composer) Result() generation.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.result
}

// Label returns the name recorded by the last Accept.
func (c *Composer) Label() Label {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.label
}

// Metadata returns the prompt, reaction, and demo of the last generation.
func (c *Composer) Metadata() clip.Metadata {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metadata
}

// LastJob returns the most recent job started by this composer.
func (c *Composer) LastJob() *composition.Job {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastJob.Clone()
}

// Generate runs generation and opens a fresh selection session over the
// variants. The previous session, if any, is discarded.
func (c *Composer) Generate(ctx context.Context, req generation.Request) (generation.Result, error) {
	if c.generator == nil {
		return generation.Result{}, services.Wrap(services.ErrConfiguration, "workflow", "generate", "generator not configured", nil)
	}
	ctx = services.WithCompositionID(ctx, c.id)
	result, err := c.generator.Generate(ctx, req)
	if err != nil {
		return result, err
	}
	session, err := selection.New(result.Variants)
	if err != nil {
		return result, err
	}
	if result.Partial() {
		c.notify(ctx, "generation_partial", func(n Notifier) error {
			return n.NotifyGenerationPartial(ctx, len(result.Variants), result.Failed)
		})
	}

	c.mu.Lock()
	c.result = result
	c.session = session
	c.metadata = clip.Metadata{
		Prompt:   strings.TrimSpace(req.Prompt),
		Reaction: req.Reaction,
		Demo:     req.Demo,
	}
	c.mu.Unlock()
	return result, nil
}

// Accept appends the completed session's hook and demo to the sequence as
// two entries, hook first. Either both are added or neither.
func (c *Composer) Accept() (selection.Pair, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		return selection.Pair{}, fmt.Errorf("%w: accept before generate", selection.ErrInvalidTransition)
	}
	pair, err := session.Pair()
	if err != nil {
		return selection.Pair{}, err
	}
	if err := c.sequence.AddAll(pair.Hook, pair.Demo); err != nil {
		return selection.Pair{}, err
	}

	label := Label{
		Name:        pair.Hook.DisplayName() + "-" + pair.Demo.DisplayName(),
		Description: fmt.Sprintf("Combined: %s with %s", pair.Hook.Description, pair.Demo.Description),
	}
	c.mu.Lock()
	c.label = label
	c.mu.Unlock()

	c.logger.Info("selection accepted",
		logging.String(logging.FieldEventType, "selection_accepted"),
		logging.String("hook_id", pair.Hook.ID),
		logging.String("demo_id", pair.Demo.ID),
		logging.String("label", label.Name),
		logging.Int("sequence_length", c.sequence.Len()),
	)
	return pair, nil
}

// Compose snapshots the sequence and runs a job over it.
func (c *Composer) Compose(ctx context.Context, captions clip.CaptionSpec) (*composition.Job, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	req := composition.Request{
		CompositionID: c.id,
		Clips:         c.sequence.Snapshot(),
		Captions:      captions,
		Metadata:      c.Metadata(),
	}
	job, err := c.runner.Start(ctx, req)
	c.finish(ctx, job)
	return job, err
}

// Resubmit starts a new job on a Failed job's snapshot.
func (c *Composer) Resubmit(ctx context.Context, failed *composition.Job) (*composition.Job, error) {
	if err := failed.Resubmittable(); err != nil {
		return nil, err
	}
	if err := c.begin(); err != nil {
		return nil, err
	}
	job, err := c.runner.Resubmit(ctx, failed)
	c.finish(ctx, job)
	return job, err
}

// Cancel marks job so it will not be resubmitted.
func (c *Composer) Cancel(ctx context.Context, job *composition.Job) error {
	if c.runner == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "cancel", "pipeline not configured", nil)
	}
	return c.runner.Cancel(ctx, job)
}

func (c *Composer) begin() error {
	if c.runner == nil {
		return services.Wrap(services.ErrConfiguration, "workflow", "compose", "pipeline not configured", nil)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return ErrJobRunning
	}
	c.running = true
	return nil
}

func (c *Composer) finish(ctx context.Context, job *composition.Job) {
	c.mu.Lock()
	c.running = false
	if job != nil {
		c.lastJob = job.Clone()
	}
	label := c.label.Name
	c.mu.Unlock()
	if job == nil {
		return
	}

	switch job.Status {
	case composition.StatusComplete:
		c.notify(ctx, "job_completed", func(n Notifier) error {
			return n.NotifyJobCompleted(ctx, label, job.ArtifactURL)
		})
		if job.CatalogID != "" {
			c.notify(ctx, "job_published", func(n Notifier) error {
				return n.NotifyPublished(ctx, label, job.CatalogID)
			})
		}
	case composition.StatusFailed:
		if job.CancelRequested {
			return
		}
		c.notify(ctx, "job_failed", func(n Notifier) error {
			return n.NotifyJobFailed(ctx, label, job.Err())
		})
	}
}

func (c *Composer) notify(ctx context.Context, event string, send func(Notifier) error) {
	if c.notifier == nil || ctx.Err() != nil {
		return
	}
	if err := send(c.notifier); err != nil {
		c.logger.Warn("notification failed",
			logging.String(logging.FieldEventType, "notification_failed"),
			logging.String("notification", event),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic or run 'hookreel test-notify'"),
			logging.String(logging.FieldImpact, "notification not delivered; job outcome unchanged"),
		)
	}
}
