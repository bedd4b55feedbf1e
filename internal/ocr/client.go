// Package ocr is the HTTP client of the OCR collaborator. The service takes
// a raw image body and answers {"text": "..."}.
package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"claimaudit/pkg/platform/circuit"
	"claimaudit/pkg/platform/retry"
	"claimaudit/pkg/platform/sentinel"
	"claimaudit/pkg/requestcontext"
)

const defaultTimeout = 20 * time.Second

// Client implements normalize.OCR.
type Client struct {
	hc      *http.Client
	url     string
	policy  retry.Policy
	breaker *circuit.Breaker
	logger  *slog.Logger
}

type Option func(*Client)

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.hc.Timeout = d
		}
	}
}

func WithRetryPolicy(p retry.Policy) Option {
	return func(c *Client) {
		c.policy = p
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		if b != nil {
			c.breaker = b
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func New(url string, opts ...Option) *Client {
	c := &Client{
		hc:      &http.Client{Timeout: defaultTimeout},
		url:     url,
		policy:  retry.DefaultPolicy,
		breaker: circuit.New("ocr"),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type recognizeResponse struct {
	Text string `json:"text"`
}

// Recognize returns the text the collaborator read from image. While the
// circuit is open it fails fast with sentinel.ErrCircuitOpen, except for the
// breaker's probe calls.
func (c *Client) Recognize(ctx context.Context, image []byte, contentType string) (string, error) {
	if !c.breaker.Allow() {
		return "", sentinel.ErrCircuitOpen
	}

	var text string
	err := retry.Do(ctx, c.policy, func(ctx context.Context) error {
		t, err := c.post(ctx, image, contentType)
		if err != nil {
			return err
		}
		text = t
		return nil
	})
	if err != nil {
		if _, change := c.breaker.RecordFailure(); change.Opened {
			c.logger.WarnContext(ctx, "ocr circuit opened",
				"request_id", requestcontext.RequestID(ctx),
				"file_number", requestcontext.FileNumber(ctx),
				"error", err,
			)
		}
		return "", fmt.Errorf("ocr: %w", err)
	}
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "ocr circuit closed")
	}
	return text, nil
}

func (c *Client) post(ctx context.Context, image []byte, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(image))
	if err != nil {
		return "", retry.Permanent(err)
	}
	if contentType == "" {
		contentType = http.DetectContentType(image)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return "", &retry.UpstreamError{Service: "ocr", Status: resp.StatusCode, Message: strings.TrimSpace(string(slurp))}
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
		if err != nil {
			return "", err
		}
		return string(body), nil
	}
	var decoded recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", retry.Permanent(fmt.Errorf("decode ocr response: %w", err))
	}
	return decoded.Text, nil
}
