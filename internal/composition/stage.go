package composition

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"hookreel/internal/logging"
	"hookreel/internal/services"
)

type stage struct {
	name       string
	processing Status
	done       Status
	marker     error
	execute    func(context.Context, *Job) error
}

// runStage moves the job into the stage's processing status, executes it
// under the retry policy, and records the outcome. ok is false when the job
// ended Failed. err is returned only when persistence fails.
func (p *Pipeline) runStage(ctx context.Context, job *Job, s stage) (bool, error) {
	stageCtx := services.WithStage(ctx, s.name)
	logger := logging.WithContext(stageCtx, p.logger)

	job.Status = s.processing
	job.Attempt = 0
	if err := p.save(stageCtx, job); err != nil {
		return false, fmt.Errorf("persist %s transition: %w", s.name, err)
	}
	logger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(s.processing)),
		logging.Int("clip_count", len(job.Snapshot)),
	)

	attempts, err := p.policy.Do(stageCtx, func(attempt int) error {
		return s.execute(stageCtx, job)
	}, func(attempt int, err error) {
		job.Attempt = attempt
		logger.Warn("stage attempt failed",
			logging.String(logging.FieldEventType, "stage_retry"),
			logging.Int("attempt", attempt),
			logging.Int("max_attempts", p.policy.Attempts()),
			logging.Error(err),
		)
		if saveErr := p.save(stageCtx, job); saveErr != nil {
			logger.Error("failed to persist attempt count", logging.Error(saveErr))
		}
	})
	if err != nil {
		return false, p.failStage(stageCtx, job, s, attempts, err)
	}

	job.Status = s.done
	job.Attempt = 0
	if err := p.save(stageCtx, job); err != nil {
		return false, fmt.Errorf("persist %s result: %w", s.name, err)
	}
	logger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(job.Status)),
		logging.Int("attempts", attempts),
	)
	return true, nil
}

func (p *Pipeline) failStage(ctx context.Context, job *Job, s stage, attempts int, cause error) error {
	logger := logging.WithContext(ctx, p.logger)
	message := fmt.Sprintf("%d attempt(s)", attempts)
	if errors.Is(cause, context.Canceled) || errors.Is(cause, context.DeadlineExceeded) {
		message = "interrupted"
	}
	stageErr := services.Wrap(s.marker, s.name, "request", message, cause)
	details := services.Details(stageErr)
	job.setFailed(details.Kind, details.Message)

	logger.Error(
		"stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(StatusFailed)),
		logging.String("error_message", strings.TrimSpace(details.Message)),
		logging.Int("attempts", attempts),
		logging.Error(cause),
	)
	if err := p.save(ctx, job); err != nil {
		return fmt.Errorf("persist %s failure: %w", s.name, err)
	}
	return nil
}
