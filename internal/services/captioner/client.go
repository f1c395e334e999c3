package captioner

import (
	"context"
	"strings"

	"hookreel/internal/clip"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const captionPath = "caption"

// Client overlays captions through the external captioner. Each call is a
// single request; the composition pipeline owns retries.
type Client struct {
	http *remote.Client
}

// New constructs a captioner client.
func New(cfg remote.Config, opts ...remote.Option) *Client {
	return &Client{http: remote.New("captioner", cfg, opts...)}
}

type captionRequest struct {
	VideoURL string   `json:"videoUrl"`
	Captions []string `json:"captions"`
	FontSize int      `json:"fontSize"`
}

type urlResponse struct {
	URL string `json:"url"`
}

// Caption overlays spec on videoURL and returns the captioned url.
func (c *Client) Caption(ctx context.Context, videoURL string, spec clip.CaptionSpec) (string, error) {
	videoURL = strings.TrimSpace(videoURL)
	if videoURL == "" {
		return "", services.Wrap(services.ErrValidation, "captioning", "caption", "video url is required", nil)
	}
	fontSize := spec.FontSize
	if fontSize <= 0 {
		fontSize = clip.DefaultFontSize
	}
	captions := spec.Captions
	if captions == nil {
		captions = []string{}
	}
	var resp urlResponse
	if err := c.http.PostJSON(ctx, captionPath, captionRequest{
		VideoURL: videoURL,
		Captions: captions,
		FontSize: fontSize,
	}, &resp); err != nil {
		return "", err
	}
	url := strings.TrimSpace(resp.URL)
	if url == "" {
		return "", services.Wrap(services.ErrExternalTool, "captioning", "caption", "captioner returned no url", nil)
	}
	return url, nil
}
