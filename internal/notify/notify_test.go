package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agenthands/sentinel/internal/config"
	"github.com/agenthands/sentinel/internal/model"
)

type MockNotifier struct {
	Alerts []model.Alert
	Err    error
}

func (m *MockNotifier) Notify(ctx context.Context, alert model.Alert) error {
	m.Alerts = append(m.Alerts, alert)
	return m.Err
}

func testEvent(score float64, verified int) model.DisasterEvent {
	return model.DisasterEvent{
		ID:            "evt-1",
		Text:          "Flash flood on Jalan Ampang",
		Location:      "Kuala Lumpur",
		EventType:     "flood",
		Verified:      verified,
		DisasterScore: score,
		Author:        "alice",
		Platform:      "twitter",
	}
}

func testPost() model.RawPost {
	return model.RawPost{ID: "p1", Platform: "twitter", URL: "https://x.example/p1"}
}

func TestSeverity(t *testing.T) {
	assert.Equal(t, model.AlertSeverityMedium, Severity(0.71))
	assert.Equal(t, model.AlertSeverityMedium, Severity(0.79))
	assert.Equal(t, model.AlertSeverityHigh, Severity(0.8))
	assert.Equal(t, model.AlertSeverityHigh, Severity(0.95))
}

func TestBuildAlert(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := BuildAlert(testEvent(0.85, 1), testPost(), at)

	assert.Contains(t, a.Subject, "twitter")
	assert.Contains(t, a.Subject, "Kuala Lumpur")
	assert.Equal(t, map[string]string{"platform": "twitter", "severity": "HIGH", "verified": "true"}, a.Attributes)
	assert.Equal(t, "evt-1", a.Message.EventID)
	assert.Equal(t, "https://x.example/p1", a.Message.URL)
	assert.Equal(t, at, a.Message.ProcessedAt)
	assert.True(t, a.Message.Verified)
}

func TestDispatcher_Gate(t *testing.T) {
	tests := []struct {
		name     string
		score    float64
		verified int
		want     bool
	}{
		{"verified above threshold", 0.77, 1, true},
		{"at threshold", 0.7, 1, false},
		{"unverified", 0.95, 0, false},
		{"low score", 0.55, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &MockNotifier{}
			d := NewDispatcher(m, 0.7, zerolog.Nop())

			sent, err := d.Dispatch(context.Background(), testEvent(tt.score, tt.verified), testPost())
			require.NoError(t, err)
			assert.Equal(t, tt.want, sent)
			assert.Equal(t, tt.want, len(m.Alerts) == 1)
		})
	}
}

func TestDispatcher_Failure(t *testing.T) {
	m := &MockNotifier{Err: errors.New("topic gone")}
	d := NewDispatcher(m, 0.7, zerolog.Nop())

	sent, err := d.Dispatch(context.Background(), testEvent(0.9, 1), testPost())
	assert.False(t, sent)
	assert.ErrorIs(t, err, ErrDispatch)
}

func TestWebhook_PostsAlert(t *testing.T) {
	var got model.Alert
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		auth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithHeaders(map[string]string{"Authorization": "Bearer t"}))
	require.NoError(t, wh.Notify(context.Background(), BuildAlert(testEvent(0.9, 1), testPost(), time.Now())))

	assert.Equal(t, "evt-1", got.Message.EventID)
	assert.Equal(t, "HIGH", got.Attributes["severity"])
	assert.Equal(t, "Bearer t", auth)
}

func TestWebhook_RetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithBackoff(time.Millisecond))
	require.NoError(t, wh.Notify(context.Background(), model.Alert{}))
	assert.Equal(t, int32(3), calls.Load())
}

func TestWebhook_NoRetryOn4xx(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	wh := NewWebhook(srv.URL, WithBackoff(time.Millisecond))
	err := wh.Notify(context.Background(), model.Alert{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 400")
	assert.Equal(t, int32(1), calls.Load())
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := &MockNotifier{}
	bad := &MockNotifier{Err: errors.New("down")}

	err := Multi{bad, ok}.Notify(context.Background(), model.Alert{Subject: "s"})
	assert.ErrorContains(t, err, "down")
	assert.Len(t, ok.Alerts, 1, "one failure does not stop the fan-out")
}

func TestFromConfig(t *testing.T) {
	n := FromConfig(config.NotifyConfig{}, nil, zerolog.Nop())
	assert.IsType(t, LogNotifier{}, n)

	n = FromConfig(config.NotifyConfig{WebhookURL: "http://x"}, nil, zerolog.Nop())
	assert.IsType(t, &Webhook{}, n)

	n = FromConfig(config.NotifyConfig{WebhookURL: "http://x", RedisChannel: "alerts"}, nil, zerolog.Nop())
	assert.IsType(t, &Webhook{}, n, "redis channel needs a client")
}
