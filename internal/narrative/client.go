// Package narrative is the client of the generative narrative-review
// collaborator: an OpenAI-compatible chat-completions endpoint with vision
// input.
package narrative

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"claimaudit/internal/review/models"
	"claimaudit/pkg/platform/retry"
	"claimaudit/pkg/platform/sentinel"
)

// Options configures the client. Zero values take the defaults below.
type Options struct {
	BaseURL      string
	EndpointPath string
	Model        string
	APIKey       string
	// Timeout bounds one HTTP attempt; the review service bounds the whole call.
	Timeout     time.Duration
	Temperature *float64
	// MaxImages caps the photos attached to one request.
	MaxImages int
	// MaxTextChars truncates the combined document text, in bytes, on a
	// rune boundary.
	MaxTextChars int
	Retry        retry.Policy
	ExtraHeaders map[string]string
}

func (o *Options) defaults() {
	if o.BaseURL == "" {
		o.BaseURL = "https://api.openai.com/v1"
	}
	if o.EndpointPath == "" {
		o.EndpointPath = "/chat/completions"
	}
	if o.Model == "" {
		o.Model = "gpt-4o"
	}
	if o.Timeout <= 0 {
		o.Timeout = 60 * time.Second
	}
	if o.MaxImages <= 0 {
		o.MaxImages = 20
	}
	if o.MaxTextChars <= 0 {
		o.MaxTextChars = 60000
	}
	if o.Retry == (retry.Policy{}) {
		o.Retry = retry.DefaultPolicy
	}
}

// Client implements review.Narrator.
type Client struct {
	hc      *http.Client
	url     string
	opts    Options
	logger  *slog.Logger
	prompts Prompts
}

// New builds a client. An API key is required.
func New(opts Options, logger *slog.Logger) (*Client, error) {
	opts.defaults()
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("narrative: missing api key")
	}
	if logger == nil {
		logger = slog.Default()
	}
	url := opts.EndpointPath
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = strings.TrimRight(opts.BaseURL, "/") + "/" + strings.TrimLeft(opts.EndpointPath, "/")
	}
	return &Client{
		hc:      &http.Client{Timeout: opts.Timeout},
		url:     url,
		opts:    opts,
		logger:  logger,
		prompts: DefaultPrompts(),
	}, nil
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type chatMessage struct {
	Role    string        `json:"role"`
	Content []contentPart `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Review asks the collaborator for its narrative. Deadline expiry is
// reported as sentinel.ErrTimeout, every other failure as
// sentinel.ErrUnavailable.
func (c *Client) Review(ctx context.Context, req models.NarrativeRequest) (string, error) {
	body, err := json.Marshal(c.buildRequest(req))
	if err != nil {
		return "", fmt.Errorf("encode narrative request: %w", err)
	}

	var narrative string
	attempt := 0
	err = retry.Do(ctx, c.opts.Retry, func(ctx context.Context) error {
		attempt++
		text, err := c.post(ctx, body)
		if err != nil {
			c.logger.WarnContext(ctx, "narrative attempt failed",
				"file_number", req.FileNumber,
				"attempt", attempt,
				"error", err,
			)
			return err
		}
		narrative = text
		return nil
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return "", fmt.Errorf("%w: %w", sentinel.ErrTimeout, err)
		}
		return "", fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return narrative, nil
}

func (c *Client) post(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", retry.Permanent(fmt.Errorf("new request: %w", err))
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range c.opts.ExtraHeaders {
		if k != "" {
			httpReq.Header.Set(k, v)
		}
	}

	resp, err := c.hc.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", &retry.UpstreamError{Service: "narrative", Status: resp.StatusCode, Message: strings.TrimSpace(string(slurp))}
	}
	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode narrative response: %w", err))
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", retry.Permanent(errors.New("narrative response has no content"))
	}
	return decoded.Choices[0].Message.Content, nil
}

// truncate cuts text to at most limit bytes without splitting a rune.
func truncate(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	i := limit
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return text[:i]
}

func (c *Client) buildRequest(req models.NarrativeRequest) chatRequest {
	text := req.CombinedText
	if len(text) > c.opts.MaxTextChars {
		text = truncate(text, c.opts.MaxTextChars) + "\n[truncated]"
	}
	user := []contentPart{{Type: "text", Text: c.prompts.User(req.FileNumber, req.Policy, req.EvidenceHints, text)}}
	for i, img := range req.Images {
		if i >= c.opts.MaxImages {
			c.logger.Warn("narrative image limit reached",
				"file_number", req.FileNumber,
				"dropped", len(req.Images)-c.opts.MaxImages,
			)
			break
		}
		user = append(user,
			contentPart{Type: "text", Text: "Photo: " + img.Name},
			contentPart{Type: "image_url", ImageURL: &imageURL{URL: DataURI(img.ContentType, img.Data), Detail: "high"}},
		)
	}
	return chatRequest{
		Model:       c.opts.Model,
		Temperature: c.opts.Temperature,
		Messages: []chatMessage{
			{Role: "system", Content: []contentPart{{Type: "text", Text: c.prompts.System}}},
			{Role: "user", Content: user},
		},
	}
}

// DataURI inlines an image as a base64 data URI.
func DataURI(contentType string, data []byte) string {
	if contentType == "" || !strings.HasPrefix(contentType, "image/") {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func isTimeout(err error) bool {
	var upstream *retry.UpstreamError
	if errors.As(err, &upstream) {
		return upstream.Status == http.StatusRequestTimeout || upstream.Status == http.StatusGatewayTimeout
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
