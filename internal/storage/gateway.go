package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"hookreel/internal/clip"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// Gateway is the durable storage collaborator: upload slots, finalization,
// and the paginated catalog.
type Gateway interface {
	RequestUploadSlot(ctx context.Context, metadata clip.Metadata) (UploadSlot, error)
	FinalizeUpload(ctx context.Context, recordID RecordID) (Record, error)
	ListVideos(ctx context.Context, filter Filter, page, limit int) (Page, error)
}

// RecordID identifies a catalog record. Gateways may encode it as a JSON
// number or string.
type RecordID string

// UnmarshalJSON accepts numeric and string ids.
func (id *RecordID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = RecordID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("record id: %w", err)
	}
	*id = RecordID(n.String())
	return nil
}

func (id RecordID) String() string { return string(id) }

// UploadSlot is where an artifact should be sent before finalization.
type UploadSlot struct {
	UploadTarget string   `json:"uploadTarget"`
	RecordID     RecordID `json:"recordId"`
}

// Record is a finalized catalog entry.
type Record struct {
	ID       RecordID          `json:"id"`
	URL      string            `json:"url"`
	Name     string            `json:"name"`
	Prompt   string            `json:"prompt"`
	Reaction clip.ReactionType `json:"reaction"`
	Demo     clip.DemoType     `json:"demoType"`
}

// Filter narrows a catalog listing. Zero values match everything.
type Filter struct {
	Reaction clip.ReactionType
	Demo     clip.DemoType
}

// Page is one slice of the catalog, newest first.
type Page struct {
	Items      []Record `json:"items"`
	Total      int      `json:"total"`
	Page       int      `json:"page"`
	Limit      int      `json:"limit"`
	TotalPages int      `json:"totalPages"`
}

// NormalizePaging applies catalog defaults to non-positive values.
func NormalizePaging(page, limit int) (int, int) {
	if page < 1 {
		page = DefaultPage
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	return page, limit
}

// TotalPages returns ceil(total/limit).
func TotalPages(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
