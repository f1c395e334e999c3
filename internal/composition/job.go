package composition

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/services"
)

// Status is the lifecycle state of a composition job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCombining  Status = "combining"
	StatusCaptioning Status = "captioning"
	StatusComplete   Status = "complete"
	StatusFailed     Status = "failed"
)

var statuses = []Status{StatusPending, StatusCombining, StatusCaptioning, StatusComplete, StatusFailed}

// Statuses returns every job status in lifecycle order.
func Statuses() []Status {
	return append([]Status(nil), statuses...)
}

// ParseStatus converts a persisted string into a Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range statuses {
		if status == normalized {
			return status, true
		}
	}
	return "", false
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusComplete || s == StatusFailed
}

// Job tracks one combine -> caption run over an immutable clip snapshot.
type Job struct {
	ID              string
	CompositionID   string
	Snapshot        []clip.Variant
	Metadata        clip.Metadata
	Captions        clip.CaptionSpec
	Status          Status
	Attempt         int
	CombinedURL     string
	ArtifactURL     string
	Error           string
	FailureKind     string
	CancelRequested bool
	ResubmittedFrom string
	CatalogID       string
	PublishError    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ClipURLs returns the snapshot's clip urls in sequence order.
func (j *Job) ClipURLs() []string {
	urls := make([]string, 0, len(j.Snapshot))
	for _, v := range j.Snapshot {
		urls = append(urls, v.URL)
	}
	return urls
}

// Err reconstructs the classified failure of a Failed job.
func (j *Job) Err() error {
	if j == nil || j.Status != StatusFailed {
		return nil
	}
	message := strings.TrimSpace(j.Error)
	if message == "" {
		message = "job failed"
	}
	marker := services.MarkerForKind(j.FailureKind)
	message = strings.TrimPrefix(message, marker.Error()+": ")
	return fmt.Errorf("%w: %s", marker, message)
}

// Resubmittable reports whether the caller may start a new job from this one.
func (j *Job) Resubmittable() error {
	if j == nil {
		return services.Wrap(services.ErrValidation, "composition", "resubmit", "job is required", nil)
	}
	if j.Status != StatusFailed {
		return services.Wrap(services.ErrValidation, "composition", "resubmit",
			fmt.Sprintf("job %s is %s; only failed jobs can be resubmitted", j.ID, j.Status), nil)
	}
	if j.CancelRequested {
		return services.Wrap(services.ErrValidation, "composition", "resubmit",
			fmt.Sprintf("job %s was cancelled", j.ID), nil)
	}
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	clone := *j
	clone.Snapshot = append([]clip.Variant(nil), j.Snapshot...)
	clone.Captions.Captions = append([]string(nil), j.Captions.Captions...)
	return &clone
}

func (j *Job) setFailed(kind, message string) {
	j.Status = StatusFailed
	j.FailureKind = kind
	j.Error = strings.TrimSpace(message)
}

var errNilJob = errors.New("job is nil")
