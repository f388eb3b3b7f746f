package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"TechMart/internal/domain/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHubBroadcast(t *testing.T) {
	hub := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()

	a := dial(t, srv)
	b := dial(t, srv)
	require.Eventually(t, func() bool { return hub.Count() == 2 }, time.Second, 10*time.Millisecond)

	ev := models.Event{ID: "e1", Type: models.EventAlertCreated, Data: map[string]string{"title": "Out of Stock"}}
	require.NoError(t, hub.Notify(context.Background(), ev))

	for _, c := range []*websocket.Conn{a, b} {
		_ = c.SetReadDeadline(time.Now().Add(time.Second))
		_, msg, err := c.ReadMessage()
		require.NoError(t, err)
		var got models.Event
		require.NoError(t, json.Unmarshal(msg, &got))
		assert.Equal(t, "e1", got.ID)
		assert.Equal(t, models.EventAlertCreated, got.Type)
	}

	a.Close()
	require.Eventually(t, func() bool { return hub.Count() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Close())
	assert.Equal(t, 0, hub.Count())
	assert.ErrorIs(t, hub.Notify(context.Background(), ev), ErrHubClosed)
}

func TestHubRejectsAfterClose(t *testing.T) {
	hub := NewHub(nil)
	require.NoError(t, hub.Close())

	errCh := make(chan error, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		errCh <- hub.ServeWS(w, r)
	}))
	defer srv.Close()

	dial(t, srv)
	assert.ErrorIs(t, <-errCh, ErrHubClosed)
}

func TestHubOriginCheck(t *testing.T) {
	hub := NewHub(nil, WithAllowedOrigins([]string{"https://shop.example"}))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r)
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": []string{"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

type recordingPublisher struct {
	mu     sync.Mutex
	topics []string
	keys   []string
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, key []byte, _ interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	return p.err
}

type countingMetrics struct {
	published map[string]int
}

func (m *countingMetrics) RecordForecast(int, string) {}
func (m *countingMetrics) RecordSuggestion(string) {}
func (m *countingMetrics) RecordFraudVerdict(bool, float64) {}
func (m *countingMetrics) RecordAlert(string, string) {}
func (m *countingMetrics) RecordJob(string, error) {}
func (m *countingMetrics) RecordError(string) {}
func (m *countingMetrics) RecordLatency(string, float64) {}
func (m *countingMetrics) RecordEventPublished(sink, _ string) { m.published[sink]++ }

func TestFanout(t *testing.T) {
	ok := &recordingPublisher{}
	broken := &recordingPublisher{err: errors.New("broker down")}
	metrics := &countingMetrics{published: map[string]int{}}

	f := NewFanout(nil, metrics,
		Sink{Name: "broken", Notifier: NewKafkaNotifier(broken, "techmart.events")},
		Sink{Name: "kafka", Notifier: NewKafkaNotifier(ok, "techmart.events")},
	)

	ev := f.NewEvent(models.EventFraudDetected, map[string]float64{"fraud_score": 0.74})
	assert.NotEmpty(t, ev.ID)
	assert.False(t, ev.Timestamp.IsZero())

	err := f.Notify(context.Background(), ev)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")

	// the healthy sink still got the event
	assert.Equal(t, []string{"techmart.events"}, ok.topics)
	assert.Equal(t, []string{models.EventFraudDetected}, ok.keys)
	assert.Equal(t, 1, metrics.published["kafka"])
	assert.Zero(t, metrics.published["broken"])
}
