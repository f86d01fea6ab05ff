package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mcbench/internal/benchmark"
	"mcbench/internal/command"
	"mcbench/internal/config"
	"mcbench/internal/events"
	"mcbench/internal/runner"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"golang.org/x/net/websocket"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T) (*Server, *benchmark.Engine, *events.Bus) {
	t.Helper()
	t.Cleanup(http.DefaultClient.CloseIdleConnections)

	cfg := config.Default()
	cfg.NClients = 2
	cfg.NFiles = 10
	cfg.Style = "rear"

	r := runner.Func(func(ctx context.Context, invs []command.Invocation) (*runner.Output, error) {
		return &runner.Output{Stdout: "1.0 sec, 2.0 MB/s\n2.0 sec, 3.0 MB/s\n"}, nil
	})
	bus := events.NewBus()
	engine := benchmark.New(cfg, r)
	engine.SetEventBus(bus)
	return NewServer("127.0.0.1:0", engine, bus), engine, bus
}

func TestStatusBeforeRun(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/api/status")
	require.NoError(t, err)
	defer resp.Body.Close()

	var status StatusResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.False(t, status.Running)
	assert.Equal(t, 2, status.Clients)
	assert.Equal(t, "rear", status.Style)
	assert.Empty(t, status.RunID)
}

func TestPlanAndSummaryNotFoundBeforeRun(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	for _, path := range []string{"/api/plan", "/api/summary"} {
		resp, err := http.Get(ts.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	s, _, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	resp, err := http.Post(ts.URL+"/api/status", "application/json", strings.NewReader("{}"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestSummaryAfterRun(t *testing.T) {
	s, engine, _ := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	result, err := engine.Run(context.Background())
	require.NoError(t, err)

	resp, err := http.Get(ts.URL + "/api/summary")
	require.NoError(t, err)
	defer resp.Body.Close()

	var sum SummaryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sum))
	assert.Equal(t, result.RunID, sum.RunID)
	assert.Equal(t, 5.0, sum.TotalThroughput)
	assert.Equal(t, "5.000000,2.000000,1.000000,2.000000,3.000000,1.000000,2.000000", sum.Line)

	resp2, err := http.Get(ts.URL + "/api/plan")
	require.NoError(t, err)
	defer resp2.Body.Close()

	var plan struct {
		RunID       string               `json:"run_id"`
		Invocations []command.Invocation `json:"invocations"`
	}
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&plan))
	assert.Equal(t, result.RunID, plan.RunID)
	require.Len(t, plan.Invocations, 2)
	assert.Equal(t, []int{5, 6, 7, 8, 9}, plan.Invocations[1].Tasks)
}

func TestWebSocketEvents(t *testing.T) {
	s, _, bus := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.forwardEvents(ctx)
	require.Eventually(t, func() bool { return bus.SubscriberCount() == 1 }, time.Second, 10*time.Millisecond)

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	ws, err := websocket.Dial(wsURL, "", ts.URL)
	require.NoError(t, err)
	defer ws.Close()
	require.Eventually(t, func() bool { return s.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	bus.Publish(events.NewRunStartedEvent("run-42", 2))

	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg string
	require.NoError(t, websocket.Message.Receive(ws, &msg))

	var event events.Event
	require.NoError(t, json.Unmarshal([]byte(msg), &event))
	assert.Equal(t, events.EventRunStarted, event.Type)
	assert.Equal(t, "run-42", event.RunID)

	require.Eventually(t, func() bool {
		st := s.status()
		return st.LastEvent != nil && st.LastEvent.RunID == "run-42"
	}, time.Second, 10*time.Millisecond)
}

func TestStartShutdown(t *testing.T) {
	s, _, _ := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
