package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"hookreel/internal/clip"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const (
	uploadsPath = "uploads"
	videosPath  = "videos"

	defaultTransferTimeout = 10 * time.Minute
)

// Client talks to the storage gateway over HTTP.
type Client struct {
	api      *remote.Client
	transfer *http.Client
}

// New constructs a gateway client. Artifact transfers get their own, longer
// timeout; the gateway timeout only bounds the JSON calls.
func New(cfg remote.Config, opts ...Option) *Client {
	o := options{transferTimeout: defaultTransferTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	api := remote.New("storage", cfg, o.remote...)
	transfer := o.transfer
	if transfer == nil {
		transfer = &http.Client{Timeout: o.transferTimeout}
	}
	return &Client{api: api, transfer: transfer}
}

// TransferTimeout returns the bounded wait applied to each artifact transfer.
func (c *Client) TransferTimeout() time.Duration {
	return c.transfer.Timeout
}

// Option customizes the client.
type Option func(*options)

type options struct {
	remote          []remote.Option
	transfer        *http.Client
	transferTimeout time.Duration
}

// WithRemoteOptions forwards options to the JSON client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *options) { o.remote = append(o.remote, opts...) }
}

// WithTransferTimeout sets the timeout for artifact downloads and uploads.
// Non-positive values keep the default.
func WithTransferTimeout(timeout time.Duration) Option {
	return func(o *options) {
		if timeout > 0 {
			o.transferTimeout = timeout
		}
	}
}

// WithTransferClient overrides the client used for artifact transfer.
func WithTransferClient(client *http.Client) Option {
	return func(o *options) { o.transfer = client }
}

type uploadRequest struct {
	Metadata clip.Metadata `json:"metadata"`
}

// RequestUploadSlot asks the gateway for an upload target.
func (c *Client) RequestUploadSlot(ctx context.Context, metadata clip.Metadata) (UploadSlot, error) {
	var slot UploadSlot
	if err := c.api.PostJSON(ctx, uploadsPath, uploadRequest{Metadata: metadata}, &slot); err != nil {
		return UploadSlot{}, err
	}
	slot.UploadTarget = strings.TrimSpace(slot.UploadTarget)
	if slot.UploadTarget == "" || slot.RecordID == "" {
		return UploadSlot{}, services.Wrap(services.ErrExternalTool, "publishing", "upload slot",
			"gateway returned an incomplete slot", nil)
	}
	return slot, nil
}

// FinalizeUpload marks recordID as uploaded and returns the catalog record.
func (c *Client) FinalizeUpload(ctx context.Context, recordID RecordID) (Record, error) {
	if recordID == "" {
		return Record{}, services.Wrap(services.ErrValidation, "publishing", "finalize", "record id is required", nil)
	}
	var record Record
	path := uploadsPath + "/" + url.PathEscape(recordID.String()) + "/finalize"
	if err := c.api.PostJSON(ctx, path, struct{}{}, &record); err != nil {
		return Record{}, err
	}
	if record.ID == "" {
		record.ID = recordID
	}
	return record, nil
}

// ListVideos returns one catalog page. Non-positive paging falls back to
// page 1 and limit 10.
func (c *Client) ListVideos(ctx context.Context, filter Filter, page, limit int) (Page, error) {
	page, limit = NormalizePaging(page, limit)
	query := url.Values{}
	if filter.Reaction != "" {
		query.Set("reaction", string(filter.Reaction))
	}
	if filter.Demo != "" {
		query.Set("demoType", string(filter.Demo))
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var result Page
	if err := c.api.GetJSON(ctx, videosPath, query, &result); err != nil {
		return Page{}, err
	}
	if result.Page == 0 {
		result.Page = page
	}
	if result.Limit == 0 {
		result.Limit = limit
	}
	if result.TotalPages == 0 {
		result.TotalPages = TotalPages(result.Total, result.Limit)
	}
	if result.Items == nil {
		result.Items = []Record{}
	}
	return result, nil
}

// Transfer streams the artifact at sourceURL into the upload target.
func (c *Client) Transfer(ctx context.Context, sourceURL, target string) error {
	getReq, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return fmt.Errorf("transfer: build download: %w", err)
	}
	source, err := c.transfer.Do(getReq)
	if err != nil {
		return fmt.Errorf("transfer: download %s: %w", sourceURL, err)
	}
	defer source.Body.Close()
	if source.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(source.Body, 512))
		return &remote.StatusError{Service: "artifact", StatusCode: source.StatusCode, Body: remote.Snippet(string(body), 512)}
	}

	putReq, err := http.NewRequestWithContext(ctx, http.MethodPut, target, source.Body)
	if err != nil {
		return fmt.Errorf("transfer: build upload: %w", err)
	}
	putReq.Header.Set("Content-Type", "video/mp4")
	if source.ContentLength >= 0 {
		putReq.ContentLength = source.ContentLength
	}
	started := time.Now()
	resp, err := c.transfer.Do(putReq)
	if err != nil {
		return fmt.Errorf("transfer: upload after %s: %w", time.Since(started).Round(time.Millisecond), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &remote.StatusError{Service: "upload", StatusCode: resp.StatusCode, Body: remote.Snippet(string(body), 512)}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
