package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/marketstream/common/middleware"
	"github.com/telhawk-systems/marketstream/internal/feedsim"
	"github.com/telhawk-systems/marketstream/internal/metrics"
	"github.com/telhawk-systems/marketstream/pkg/stream"
)

func startRouter(t *testing.T, opts feedsim.ServerOptions) (*feedsim.Server, *httptest.Server) {
	t.Helper()
	feed := feedsim.NewServer(opts)
	ts := httptest.NewServer(NewRouter(feed))
	t.Cleanup(func() {
		feed.CloseClients()
		ts.Close()
	})
	return feed, ts
}

func TestRouter_Health(t *testing.T) {
	_, ts := startRouter(t, feedsim.ServerOptions{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(middleware.HeaderRequestID))

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, float64(0), body["clients"])
}

func TestRouter_Metrics(t *testing.T) {
	metrics.HeartbeatsSent.Add(0)
	_, ts := startRouter(t, feedsim.ServerOptions{})

	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "marketstream_heartbeats_enqueued_total")
}

func TestRouter_RejectsBadToken(t *testing.T) {
	_, ts := startRouter(t, feedsim.ServerOptions{Token: "secret"})

	resp, err := http.Get(ts.URL + "/socket/websocket?token=nope")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "invalid token", body["error"])
}

func TestRouter_StreamClient(t *testing.T) {
	feed, ts := startRouter(t, feedsim.ServerOptions{
		Generator: feedsim.NewGenerator(9, "neon-vortex-1"),
		Token:     "secret",
		Interval:  10 * time.Millisecond,
	})

	endpoint := "ws" + strings.TrimPrefix(ts.URL, "http") + "/socket/websocket"
	client, err := stream.Connect(context.Background(), stream.Mainnet, "secret", stream.WithEndpoint(endpoint))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Subscribe(stream.Collection("neon-vortex-1")))

	event, ok := client.NextEvent()
	require.True(t, ok)
	assert.Equal(t, "neon-vortex-1", event.CollectionSlug())
	assert.Equal(t, 1, feed.Clients())
}

func TestMetricsRouter(t *testing.T) {
	ts := httptest.NewServer(NewMetricsRouter())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp2, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusOK, resp2.StatusCode)
}

func TestMetricsRouter_HealthChecks(t *testing.T) {
	var connected atomic.Bool
	connected.Store(true)
	ts := httptest.NewServer(NewMetricsRouter(HealthCheck{Name: "nats", Healthy: connected.Load}))
	defer ts.Close()

	get := func() (int, map[string]interface{}) {
		resp, err := http.Get(ts.URL + "/healthz")
		require.NoError(t, err)
		defer resp.Body.Close()
		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body
	}

	code, body := get()
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, map[string]interface{}{"nats": "ok"}, body["checks"])

	connected.Store(false)
	code, body = get()
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, map[string]interface{}{"nats": "down"}, body["checks"])
}
