package narrative

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimaudit/internal/review/models"
	"claimaudit/pkg/platform/retry"
	"claimaudit/pkg/platform/sentinel"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{
		BaseURL: url,
		APIKey:  "test-key",
		Retry:   retry.Policy{MaxRetries: 2, Base: time.Millisecond},
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return c
}

func reply(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"choices": []map[string]any{{"message": map[string]string{"content": content}}},
	})
}

func TestReviewSendsVisionRequest(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		reply(w, "Compliance Score: 85%")
	}))
	defer srv.Close()

	narrative, err := newTestClient(t, srv.URL).Review(context.Background(), models.NarrativeRequest{
		FileNumber:    "F-1",
		Policy:        "Tax must be itemized.",
		CombinedText:  "Body labor rate $55/hr",
		EvidenceHints: "MISSING PHOTOS: odometer",
		Images:        []models.ImageAttachment{{Name: "front.png", ContentType: "image/png", Data: []byte("png-bytes")}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Compliance Score: 85%", narrative)

	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	user := got.Messages[1]
	require.Len(t, user.Content, 3)
	assert.Contains(t, user.Content[0].Text, "File #: F-1")
	assert.Contains(t, user.Content[0].Text, "MISSING PHOTOS: odometer")
	assert.Contains(t, user.Content[0].Text, "Body labor rate $55/hr")
	assert.Equal(t, "Photo: front.png", user.Content[1].Text)
	require.NotNil(t, user.Content[2].ImageURL)
	assert.True(t, strings.HasPrefix(user.Content[2].ImageURL.URL, "data:image/png;base64,"))
}

func TestReviewRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		reply(w, "ok")
	}))
	defer srv.Close()

	narrative, err := newTestClient(t, srv.URL).Review(context.Background(), models.NarrativeRequest{FileNumber: "F-1"})
	require.NoError(t, err)
	assert.Equal(t, "ok", narrative)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReviewFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
		calls   int32
	}{
		{
			name:    "client error is not retried",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.Error(w, "bad key", http.StatusUnauthorized) },
			want:    sentinel.ErrUnavailable,
			calls:   1,
		},
		{
			name:    "empty choices",
			handler: func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte(`{"choices":[]}`)) },
			want:    sentinel.ErrUnavailable,
			calls:   1,
		},
		{
			name:    "gateway timeout after retries",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusGatewayTimeout) },
			want:    sentinel.ErrTimeout,
			calls:   3,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				tt.handler(w, r)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv.URL).Review(context.Background(), models.NarrativeRequest{})
			assert.ErrorIs(t, err, tt.want)
			assert.Equal(t, tt.calls, calls.Load())
		})
	}
}

func TestReviewHonoursDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := newTestClient(t, srv.URL).Review(ctx, models.NarrativeRequest{})
	assert.ErrorIs(t, err, sentinel.ErrTimeout)
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New(Options{}, nil)
	assert.ErrorContains(t, err, "missing api key")
}

func TestDataURIDetectsContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n0000")
	assert.True(t, strings.HasPrefix(DataURI("", png), "data:image/png;base64,"))
	assert.True(t, strings.HasPrefix(DataURI("image/jpeg", []byte{1}), "data:image/jpeg;base64,"))
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		limit int
		want  string
	}{
		{name: "under the limit", text: "Reparación", limit: 64, want: "Reparación"},
		{name: "cut inside a two byte rune", text: "Reparación", limit: 9, want: "Reparaci"},
		{name: "cut after a two byte rune", text: "Reparación", limit: 10, want: "Reparació"},
		{name: "cut inside a four byte rune", text: "ok 🚗 dent", limit: 5, want: "ok "},
		{name: "ascii", text: "Body labor", limit: 4, want: "Body"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := truncate(tt.text, tt.limit)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
		})
	}
}

func TestBuildRequestTruncatesMultibyteText(t *testing.T) {
	c, err := New(Options{APIKey: "test-key", MaxTextChars: 9}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	req := c.buildRequest(models.NarrativeRequest{FileNumber: "F-1", CombinedText: "Reparación del parachoques"})

	text := req.Messages[1].Content[0].Text
	assert.True(t, utf8.ValidString(text))
	assert.Contains(t, text, "Reparaci\n[truncated]")
}
