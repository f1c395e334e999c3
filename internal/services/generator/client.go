package generator

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/time/rate"

	"hookreel/internal/clip"
	"hookreel/internal/generation"
	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const generatePath = "generate"

// Config contains the generator connection settings.
type Config struct {
	BaseURL           string
	APIKey            string
	TimeoutSeconds    int
	RequestsPerSecond float64
}

// Client calls the external generator once per variation.
type Client struct {
	http    *remote.Client
	limiter *rate.Limiter
}

// Option customizes the client.
type Option func(*options)

type options struct {
	remote []remote.Option
}

// WithRemoteOptions forwards options to the underlying HTTP client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *options) { o.remote = append(o.remote, opts...) }
}

// New constructs a generator client. A positive RequestsPerSecond installs
// a client-side limiter shared by all variations.
func New(cfg Config, opts ...Option) *Client {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	client := &Client{
		http: remote.New("generator", remote.Config{
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, o.remote...),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := int(cfg.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		client.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}
	return client
}

type generateRequest struct {
	SourceVideoURL string `json:"sourceVideoUrl"`
	Prompt         string `json:"prompt"`
	ReactionType   string `json:"reactionType"`
	DemoType       string `json:"demoType"`
	VariantCount   int    `json:"variantCount"`
}

type generateResponse struct {
	Options       []option     `json:"options"`
	OriginalVideo *originalRef `json:"originalVideo,omitempty"`
}

type option struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	Prompt      string `json:"prompt"`
	Reaction    string `json:"reaction"`
	DemoType    string `json:"demoType"`
	PreviewURL  string `json:"previewUrl,omitempty"`
	Description string `json:"description,omitempty"`
	Name        string `json:"name,omitempty"`
}

type originalRef struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
}

// GenerateVariant requests one variant for call. Responses with unknown
// fields or no options are rejected.
func (c *Client) GenerateVariant(ctx context.Context, call generation.Call) (clip.Variant, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return clip.Variant{}, fmt.Errorf("generator rate limit: %w", err)
		}
	}

	var resp generateResponse
	err := c.http.PostStrict(ctx, generatePath, generateRequest{
		SourceVideoURL: call.SourceURL,
		Prompt:         call.Prompt,
		ReactionType:   string(call.Reaction),
		DemoType:       string(call.Demo),
		VariantCount:   1,
	}, &resp)
	if err != nil {
		return clip.Variant{}, err
	}
	if len(resp.Options) == 0 {
		return clip.Variant{}, services.Wrap(services.ErrExternalTool, "generation",
			fmt.Sprintf("variation %d", call.Index), "generator returned no options", nil)
	}
	first := resp.Options[0]
	return clip.Variant{
		ID:          strings.TrimSpace(first.ID),
		URL:         strings.TrimSpace(first.URL),
		Prompt:      strings.TrimSpace(first.Prompt),
		Reaction:    clip.ReactionType(strings.TrimSpace(first.Reaction)),
		Demo:        clip.DemoType(strings.TrimSpace(first.DemoType)),
		PreviewURL:  strings.TrimSpace(first.PreviewURL),
		Description: strings.TrimSpace(first.Description),
		Name:        strings.TrimSpace(first.Name),
	}, nil
}
