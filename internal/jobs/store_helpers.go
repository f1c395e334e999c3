package jobs

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
)

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const jobColumns = "id, composition_id, snapshot_json, metadata_json, captions_json, status, attempt, combined_url, artifact_url, error_message, failure_kind, cancel_requested, resubmitted_from, catalog_id, publish_error, created_at, updated_at"

type encodedJob struct {
	snapshot string
	metadata string
	captions string
}

func encodeJob(job *composition.Job) (encodedJob, error) {
	snapshot, err := json.Marshal(job.Snapshot)
	if err != nil {
		return encodedJob{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	captions, err := json.Marshal(job.Captions)
	if err != nil {
		return encodedJob{}, fmt.Errorf("marshal captions: %w", err)
	}
	out := encodedJob{snapshot: string(snapshot), captions: string(captions)}
	if job.Metadata != (clip.Metadata{}) {
		metadata, err := json.Marshal(job.Metadata)
		if err != nil {
			return encodedJob{}, fmt.Errorf("marshal metadata: %w", err)
		}
		out.metadata = string(metadata)
	}
	return out, nil
}

func scanJob(scanner interface{ Scan(dest ...any) error }) (*composition.Job, error) {
	var (
		id              string
		compositionID   sql.NullString
		snapshotJSON    string
		metadataJSON    sql.NullString
		captionsJSON    string
		statusStr       string
		attempt         int
		combinedURL     sql.NullString
		artifactURL     sql.NullString
		errorMessage    sql.NullString
		failureKind     sql.NullString
		cancelRequested sql.NullInt64
		resubmittedFrom sql.NullString
		catalogID       sql.NullString
		publishError    sql.NullString
		createdRaw      string
		updatedRaw      string
	)
	if err := scanner.Scan(
		&id,
		&compositionID,
		&snapshotJSON,
		&metadataJSON,
		&captionsJSON,
		&statusStr,
		&attempt,
		&combinedURL,
		&artifactURL,
		&errorMessage,
		&failureKind,
		&cancelRequested,
		&resubmittedFrom,
		&catalogID,
		&publishError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	status, ok := composition.ParseStatus(statusStr)
	if !ok {
		return nil, fmt.Errorf("job %s: unknown status %q", id, statusStr)
	}
	job := &composition.Job{
		ID:              id,
		CompositionID:   compositionID.String,
		Status:          status,
		Attempt:         attempt,
		CombinedURL:     combinedURL.String,
		ArtifactURL:     artifactURL.String,
		Error:           errorMessage.String,
		FailureKind:     failureKind.String,
		CancelRequested: cancelRequested.Valid && cancelRequested.Int64 != 0,
		ResubmittedFrom: resubmittedFrom.String,
		CatalogID:       catalogID.String,
		PublishError:    publishError.String,
	}
	if err := json.Unmarshal([]byte(snapshotJSON), &job.Snapshot); err != nil {
		return nil, fmt.Errorf("job %s: decode snapshot: %w", id, err)
	}
	if err := json.Unmarshal([]byte(captionsJSON), &job.Captions); err != nil {
		return nil, fmt.Errorf("job %s: decode captions: %w", id, err)
	}
	if metadataJSON.Valid && strings.TrimSpace(metadataJSON.String) != "" {
		if err := json.Unmarshal([]byte(metadataJSON.String), &job.Metadata); err != nil {
			return nil, fmt.Errorf("job %s: decode metadata: %w", id, err)
		}
	}
	if created, err := parseTimeString(createdRaw); err == nil {
		job.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		job.UpdatedAt = updated
	}
	return job, nil
}

func scanJobs(rows *sql.Rows) ([]*composition.Job, error) {
	var out []*composition.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out = append(out, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02 15:04:05", value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
