package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/composition"
)

const shortIDLength = 8

func shortID(id string) string {
	if len(id) <= shortIDLength {
		return id
	}
	return id[:shortIDLength]
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func variantRows(variants []clip.Variant) [][]string {
	rows := make([][]string, 0, len(variants))
	for i, v := range variants {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			v.ID,
			v.DisplayName(),
			v.Reaction.Label(),
			v.Demo.Label(),
			v.URL,
		})
	}
	return rows
}

func renderVariants(variants []clip.Variant) string {
	return renderTable(
		[]column{numCol("#"), col("ID"), textCol("Name"), col("Reaction"), col("Demo"), col("URL")},
		variantRows(variants),
	)
}

func renderJobList(list []*composition.Job) string {
	rows := make([][]string, 0, len(list))
	for _, job := range list {
		rows = append(rows, []string{
			shortID(job.ID),
			string(job.Status),
			strconv.Itoa(len(job.Snapshot)),
			strconv.Itoa(job.Attempt),
			formatTimestamp(job.CreatedAt),
			job.ArtifactURL,
		})
	}
	return renderTable(
		[]column{col("ID"), col("Status"), numCol("Clips"), numCol("Attempt"), col("Created"), col("Artifact")},
		rows,
	)
}

func writeJobDetail(out io.Writer, job *composition.Job, colorize bool) {
	for _, line := range renderSectionHeader("Job "+shortID(job.ID), colorize) {
		fmt.Fprintln(out, line)
	}
	statusMessage := ""
	if job.Status == composition.StatusFailed {
		statusMessage = job.Error
	}
	fmt.Fprintln(out, renderStatusLine("Status", jobStatusKind(job.Status), statusMessage, colorize))
	fmt.Fprintln(out, renderField("ID", job.ID))
	fmt.Fprintln(out, renderField("Composition", job.CompositionID))
	fmt.Fprintln(out, renderField("Attempt", strconv.Itoa(job.Attempt)))
	fmt.Fprintln(out, renderField("Combined URL", job.CombinedURL))
	fmt.Fprintln(out, renderField("Artifact URL", job.ArtifactURL))
	fmt.Fprintln(out, renderField("Captions", strings.Join(job.Captions.Captions, " | ")))
	fmt.Fprintln(out, renderField("Font size", strconv.Itoa(job.Captions.FontSize)))
	if job.Metadata.Prompt != "" {
		fmt.Fprintln(out, renderField("Prompt", job.Metadata.Prompt))
		fmt.Fprintln(out, renderField("Reaction", job.Metadata.Reaction.Label()))
		fmt.Fprintln(out, renderField("Demo", job.Metadata.Demo.Label()))
	}
	if job.ResubmittedFrom != "" {
		fmt.Fprintln(out, renderField("Resubmitted from", job.ResubmittedFrom))
	}
	fmt.Fprintln(out, renderField("Cancelled", yesNo(job.CancelRequested)))
	switch {
	case job.CatalogID != "":
		fmt.Fprintln(out, renderStatusLine("Catalog", statusOK, job.CatalogID, colorize))
	case job.PublishError != "":
		fmt.Fprintln(out, renderStatusLine("Catalog", statusWarn, job.PublishError, colorize))
	}
	fmt.Fprintln(out, renderField("Created", formatTimestamp(job.CreatedAt)))
	fmt.Fprintln(out, renderField("Updated", formatTimestamp(job.UpdatedAt)))

	fmt.Fprintln(out)
	fmt.Fprintln(out, renderVariants(job.Snapshot))
}

type jobJSON struct {
	ID              string             `json:"id"`
	CompositionID   string             `json:"composition_id,omitempty"`
	Status          composition.Status `json:"status"`
	Attempt         int                `json:"attempt"`
	Clips           []clip.Variant     `json:"clips"`
	Captions        clip.CaptionSpec   `json:"captions"`
	Metadata        clip.Metadata      `json:"metadata"`
	CombinedURL     string             `json:"combined_url,omitempty"`
	ArtifactURL     string             `json:"artifact_url,omitempty"`
	Error           string             `json:"error,omitempty"`
	FailureKind     string             `json:"failure_kind,omitempty"`
	CancelRequested bool               `json:"cancel_requested"`
	ResubmittedFrom string             `json:"resubmitted_from,omitempty"`
	CatalogID       string             `json:"catalog_id,omitempty"`
	PublishError    string             `json:"publish_error,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

func toJobJSON(job *composition.Job) jobJSON {
	return jobJSON{
		ID:              job.ID,
		CompositionID:   job.CompositionID,
		Status:          job.Status,
		Attempt:         job.Attempt,
		Clips:           job.Snapshot,
		Captions:        job.Captions,
		Metadata:        job.Metadata,
		CombinedURL:     job.CombinedURL,
		ArtifactURL:     job.ArtifactURL,
		Error:           job.Error,
		FailureKind:     job.FailureKind,
		CancelRequested: job.CancelRequested,
		ResubmittedFrom: job.ResubmittedFrom,
		CatalogID:       job.CatalogID,
		PublishError:    job.PublishError,
		CreatedAt:       job.CreatedAt,
		UpdatedAt:       job.UpdatedAt,
	}
}
