package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// Upload is one file attached to a review request.
type Upload struct {
	Name string
	Data []byte
}

// TestContext holds the state of a single scenario against a running server.
type TestContext struct {
	BaseURL string
	client  *http.Client

	status int
	body   []byte
	fields map[string]any
}

func NewTestContext(baseURL string) *TestContext {
	return &TestContext{
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 2 * time.Minute},
	}
}

// Reset clears the previous response between scenarios.
func (tc *TestContext) Reset() {
	tc.status = 0
	tc.body = nil
	tc.fields = nil
}

func (tc *TestContext) GET(path string) error {
	req, err := http.NewRequest(http.MethodGet, tc.BaseURL+path, nil)
	if err != nil {
		return err
	}
	return tc.do(req)
}

// PostReview sends a multipart review request to POST /vision-review.
func (tc *TestContext) PostReview(fileNumber, rules string, files []Upload) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if fileNumber != "" {
		if err := mw.WriteField("file_number", fileNumber); err != nil {
			return err
		}
	}
	if rules != "" {
		if err := mw.WriteField("client_rules", rules); err != nil {
			return err
		}
	}
	for _, f := range files {
		part, err := mw.CreateFormFile("files", f.Name)
		if err != nil {
			return err
		}
		if _, err := part.Write(f.Data); err != nil {
			return err
		}
	}
	if err := mw.Close(); err != nil {
		return err
	}

	req, err := http.NewRequest(http.MethodPost, tc.BaseURL+"/vision-review", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return tc.do(req)
}

func (tc *TestContext) do(req *http.Request) error {
	resp, err := tc.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	tc.body, err = io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	tc.status = resp.StatusCode
	tc.fields = nil
	if len(tc.body) > 0 {
		_ = json.Unmarshal(tc.body, &tc.fields)
	}
	return nil
}

func (tc *TestContext) StatusCode() int { return tc.status }

func (tc *TestContext) Body() string { return string(tc.body) }

// GetResponseField returns a top-level field of the last JSON response.
func (tc *TestContext) GetResponseField(field string) (any, error) {
	if tc.fields == nil {
		return nil, fmt.Errorf("response is not a JSON object: %s", tc.body)
	}
	v, ok := tc.fields[field]
	if !ok {
		return nil, fmt.Errorf("response has no field %q", field)
	}
	return v, nil
}
