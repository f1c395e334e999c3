package storage

import (
	"context"
	"log/slog"
	"strings"

	"hookreel/internal/composition"
	"hookreel/internal/logging"
	"hookreel/internal/services"
)

// Transferer moves an artifact into an upload target.
type Transferer interface {
	Transfer(ctx context.Context, sourceURL, target string) error
}

// Publisher stores completed composition artifacts in the catalog.
type Publisher struct {
	gateway  Gateway
	transfer Transferer
	logger   *slog.Logger
}

// NewPublisher wires a gateway and transfer into a composition publisher.
func NewPublisher(gateway Gateway, transfer Transferer, logger *slog.Logger) *Publisher {
	return &Publisher{
		gateway:  gateway,
		transfer: transfer,
		logger:   logging.NewComponentLogger(logger, "storage"),
	}
}

// Publish requests a slot, transfers the artifact, and finalizes the record.
func (p *Publisher) Publish(ctx context.Context, job *composition.Job) (string, error) {
	if job == nil || strings.TrimSpace(job.ArtifactURL) == "" {
		return "", services.Wrap(services.ErrValidation, "publishing", "publish", "job has no artifact", nil)
	}
	if p.gateway == nil || p.transfer == nil {
		return "", services.Wrap(services.ErrConfiguration, "publishing", "publish", "storage gateway not configured", nil)
	}

	slot, err := p.gateway.RequestUploadSlot(ctx, job.Metadata)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publishing", "upload slot", "request failed", err)
	}
	if err := p.transfer.Transfer(ctx, job.ArtifactURL, slot.UploadTarget); err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publishing", "transfer", "artifact transfer failed", err)
	}
	record, err := p.gateway.FinalizeUpload(ctx, slot.RecordID)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "publishing", "finalize", "finalize failed", err)
	}

	p.logger.Info("artifact published",
		logging.String(logging.FieldJobID, job.ID),
		logging.String("catalog_id", record.ID.String()),
		logging.String("url", record.URL),
	)
	return record.ID.String(), nil
}
