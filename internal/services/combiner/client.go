package combiner

import (
	"context"
	"strings"

	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const combinePath = "combine"

// Client joins ordered clips through the external combiner. Each call is a
// single request; the composition pipeline owns retries.
type Client struct {
	http *remote.Client
}

// New constructs a combiner client.
func New(cfg remote.Config, opts ...remote.Option) *Client {
	return &Client{http: remote.New("combiner", cfg, opts...)}
}

type combineRequest struct {
	OrderedClipURLs []string `json:"orderedClipUrls"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// Combine sends the clip urls in sequence order and returns the combined url.
func (c *Client) Combine(ctx context.Context, clipURLs []string) (string, error) {
	if len(clipURLs) == 0 {
		return "", services.Wrap(services.ErrValidation, "combining", "combine", "no clip urls", nil)
	}
	var resp urlResponse
	if err := c.http.PostJSON(ctx, combinePath, combineRequest{OrderedClipURLs: clipURLs}, &resp); err != nil {
		return "", err
	}
	url := strings.TrimSpace(resp.URL)
	if url == "" {
		return "", services.Wrap(services.ErrExternalTool, "combining", "combine", "combiner returned no url", nil)
	}
	return url, nil
}
