package ocr

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimaudit/pkg/platform/circuit"
	"claimaudit/pkg/platform/retry"
	"claimaudit/pkg/platform/sentinel"
	"claimaudit/pkg/requestcontext"
)

func testOptions() []Option {
	return []Option{
		WithRetryPolicy(retry.Policy{MaxRetries: 1, Base: time.Millisecond}),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
}

func TestRecognize(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{name: "json", contentType: "application/json", body: `{"text":"ODOMETER 45120"}`, want: "ODOMETER 45120"},
		{name: "plain text", contentType: "text/plain; charset=utf-8", body: "VIN 1HGCM82633A004352", want: "VIN 1HGCM82633A004352"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "image/png", r.Header.Get("Content-Type"))
				body, _ := io.ReadAll(r.Body)
				assert.Equal(t, "img", string(body))
				w.Header().Set("Content-Type", tt.contentType)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			text, err := New(srv.URL, testOptions()...).Recognize(context.Background(), []byte("img"), "image/png")
			require.NoError(t, err)
			assert.Equal(t, tt.want, text)
		})
	}
}

func TestRecognizeForwardsRequestID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "req-42", r.Header.Get("X-Request-ID"))
		_, _ = w.Write([]byte(`{"text":"REAR LEFT"}`))
	}))
	defer srv.Close()

	ctx := requestcontext.WithRequestID(context.Background(), "req-42")
	text, err := New(srv.URL, testOptions()...).Recognize(ctx, []byte("img"), "")
	require.NoError(t, err)
	assert.Equal(t, "REAR LEFT", text)
}

func TestRecognizeRetriesThenFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := New(srv.URL, testOptions()...).Recognize(context.Background(), []byte("img"), "image/png")
	var upstream *retry.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusInternalServerError, upstream.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCircuitOpensAndProbes(t *testing.T) {
	var healthy atomic.Bool
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		if !healthy.Load() {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"text":"ok"}`))
	}))
	defer srv.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	breaker := circuit.New("ocr",
		circuit.WithFailureThreshold(2),
		circuit.WithSuccessThreshold(1),
		circuit.WithProbeInterval(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	c := New(srv.URL, append(testOptions(), WithBreaker(breaker))...)

	for range 2 {
		_, err := c.Recognize(context.Background(), []byte("img"), "image/png")
		require.Error(t, err)
	}
	require.True(t, breaker.IsOpen())

	_, err := c.Recognize(context.Background(), []byte("img"), "image/png")
	assert.ErrorIs(t, err, sentinel.ErrCircuitOpen)
	assert.Equal(t, int32(2), calls.Load())

	// failed probe keeps the circuit open
	now = now.Add(2 * time.Minute)
	_, err = c.Recognize(context.Background(), []byte("img"), "image/png")
	require.Error(t, err)
	assert.NotErrorIs(t, err, sentinel.ErrCircuitOpen)
	assert.Equal(t, int32(3), calls.Load())
	assert.True(t, breaker.IsOpen())

	healthy.Store(true)
	now = now.Add(2 * time.Minute)
	text, err := c.Recognize(context.Background(), []byte("img"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.False(t, breaker.IsOpen())
}
