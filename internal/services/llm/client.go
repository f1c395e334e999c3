package llm

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"hookreel/internal/services"
	"hookreel/internal/services/remote"
)

const (
	defaultBaseURL      = "https://api.openai.com/v1/chat/completions"
	defaultModel        = "gpt-4-turbo"
	defaultTemperature  = 0.7
	defaultCaptionCount = 3
	maxCaptionWords     = 10
)

const captionSystemPrompt = "You are a creative assistant."

const captionUserPrompt = `Generate %d highly engaging short-form overlay captions for a %s video.
Keep each caption under %d words: short, snappy, and attention-grabbing. No hashtags or emojis.
Format the response as a numbered list with one caption per line. Only include the captions.`

// Config captures the runtime settings required to talk to the LLM.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	Referer        string
	Title          string
	TimeoutSeconds int
	Temperature    float64
}

// Client wraps a chat completion endpoint.
type Client struct {
	cfg    Config
	http   *remote.Client
	policy remote.Policy
}

// Option customizes the client.
type Option func(*clientOptions)

type clientOptions struct {
	policy  remote.Policy
	remotes []remote.Option
}

// WithPolicy overrides the retry policy applied to each call.
func WithPolicy(policy remote.Policy) Option {
	return func(o *clientOptions) { o.policy = policy }
}

// WithRemoteOptions forwards options to the underlying HTTP client.
func WithRemoteOptions(opts ...remote.Option) Option {
	return func(o *clientOptions) { o.remotes = append(o.remotes, opts...) }
}

// NewClient constructs an LLM client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	cfg = Config{
		APIKey:         strings.TrimSpace(cfg.APIKey),
		BaseURL:        strings.TrimSpace(cfg.BaseURL),
		Model:          strings.TrimSpace(cfg.Model),
		Referer:        strings.TrimSpace(cfg.Referer),
		Title:          strings.TrimSpace(cfg.Title),
		TimeoutSeconds: cfg.TimeoutSeconds,
		Temperature:    cfg.Temperature,
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = defaultTemperature
	}

	options := clientOptions{policy: remote.DefaultPolicy()}
	for _, opt := range opts {
		opt(&options)
	}
	remoteOpts := []remote.Option{
		remote.WithHeader("HTTP-Referer", cfg.Referer),
		remote.WithHeader("X-Title", cfg.Title),
	}
	remoteOpts = append(remoteOpts, options.remotes...)

	return &Client{
		cfg: cfg,
		http: remote.New("llm", remote.Config{
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			TimeoutSeconds: cfg.TimeoutSeconds,
		}, remoteOpts...),
		policy: options.policy,
	}
}

type emptyContentError struct {
	FinishReason string
	Refusal      string
}

func (e *emptyContentError) Error() string {
	return fmt.Sprintf("empty content (finish_reason=%q, refusal=%q)", e.FinishReason, e.Refusal)
}

// Unwrap marks empty completions as worth another attempt.
func (e *emptyContentError) Unwrap() error { return services.ErrTransient }

// SuggestCaptions asks the model for count captions about prompt. count <= 0
// requests the default of three. The result holds at most count captions.
func (c *Client) SuggestCaptions(ctx context.Context, prompt string, count int) ([]string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, services.Wrap(services.ErrValidation, "captioning", "suggest captions", "prompt is required", nil)
	}
	if c.cfg.APIKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, "captioning", "suggest captions", "llm api key required", nil)
	}
	if count <= 0 {
		count = defaultCaptionCount
	}
	payload := chatCompletionRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: captionSystemPrompt},
			{Role: "user", Content: fmt.Sprintf(captionUserPrompt, count, prompt, maxCaptionWords)},
		},
		Temperature: c.cfg.Temperature,
	}
	content, err := c.complete(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("llm captions: %w", err)
	}
	captions := ParseCaptionList(content, count)
	if len(captions) == 0 {
		return nil, fmt.Errorf("llm captions: no captions in response (%s)", remote.Snippet(content, 160))
	}
	return captions, nil
}

type chatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatCompletionMessage `json:"message"`
		// Some providers return the streaming schema even when stream=false.
		Delta        chatCompletionMessage `json:"delta"`
		Text         string                `json:"text"`
		FinishReason string                `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

type chatCompletionMessage struct {
	Content string `json:"content"`
	Refusal string `json:"refusal"`
}

func (c *Client) complete(ctx context.Context, payload chatCompletionRequest) (string, error) {
	var content string
	_, err := c.policy.Do(ctx, func(int) error {
		var completion chatCompletionResponse
		if err := c.http.PostJSON(ctx, "", payload, &completion); err != nil {
			return err
		}
		if completion.Error != nil {
			return fmt.Errorf("api error: %s", strings.TrimSpace(completion.Error.Message))
		}
		if len(completion.Choices) == 0 {
			return fmt.Errorf("empty choices")
		}
		text, finishReason, refusal := extractCompletion(completion)
		if text == "" {
			return &emptyContentError{FinishReason: finishReason, Refusal: refusal}
		}
		content = text
		return nil
	}, nil)
	return content, err
}

func extractCompletion(completion chatCompletionResponse) (content, finishReason, refusal string) {
	for _, choice := range completion.Choices {
		if finishReason == "" {
			finishReason = strings.TrimSpace(choice.FinishReason)
		}
		if refusal == "" {
			refusal = firstNonEmpty(choice.Message.Refusal, choice.Delta.Refusal)
		}
		if text := firstNonEmpty(choice.Message.Content, choice.Delta.Content, choice.Text); text != "" {
			return text, finishReason, refusal
		}
	}
	return "", finishReason, refusal
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}

var listMarker = regexp.MustCompile(`^(?:\d+\s*[.):-]|[-*•])\s+`)

// ParseCaptionList extracts one caption per non-empty line, dropping list
// markers, code fences, and surrounding quotes. limit <= 0 keeps every line.
func ParseCaptionList(content string, limit int) []string {
	var captions []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "```") {
			continue
		}
		line = strings.TrimSpace(listMarker.ReplaceAllString(line, ""))
		line = strings.TrimSpace(strings.Trim(line, `"“”'`))
		if line == "" {
			continue
		}
		captions = append(captions, line)
		if limit > 0 && len(captions) == limit {
			break
		}
	}
	return captions
}
