package server

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshharrison/ganttcpm/internal/config"
	"github.com/joshharrison/ganttcpm/internal/cpm"
	"github.com/joshharrison/ganttcpm/internal/reporter"
)

const diamond = `{
  "tasks": [
    {"id": "a", "start_date": "2024-03-04", "end_date": "2024-03-05"},
    {"id": "b", "start_date": "2024-03-05", "end_date": "2024-03-10"},
    {"id": "c", "start_date": "2024-03-05", "end_date": "2024-03-06"},
    {"id": "d", "start_date": "2024-03-10", "end_date": "2024-03-11"}
  ],
  "dependencies": [
    {"predecessor_id": "a", "successor_id": "b"},
    {"predecessor_id": "a", "successor_id": "c"},
    {"predecessor_id": "b", "successor_id": "d"},
    {"predecessor_id": "c", "successor_id": "d"}
  ]
}`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := New(config.DefaultConfig().Server, cpm.Options{}, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestSchedule(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/schedule", diamond)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var doc reporter.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "scheduled", doc.Status)
	require.NotNil(t, doc.ProjectDuration)
	assert.Equal(t, 7, *doc.ProjectDuration)
	assert.Equal(t, []string{"a", "b", "d"}, doc.CriticalTaskIDs)
	assert.Equal(t, []string{"a->b", "b->d"}, doc.CriticalDependencyIDs)
}

func TestSchedule_Cycle(t *testing.T) {
	ts := newTestServer(t)

	body := `{
	  "tasks": [{"id": "a", "is_critical": true}, {"id": "b"}],
	  "dependencies": [
	    {"predecessor_id": "a", "successor_id": "b"},
	    {"predecessor_id": "b", "successor_id": "a"}
	  ]
	}`
	resp := post(t, ts.URL+"/api/schedule", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc reporter.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "degraded", doc.Status)
	assert.Nil(t, doc.ProjectDuration)
	assert.Equal(t, []string{"a"}, doc.CriticalTaskIDs)
}

func TestSchedule_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name string
		body string
		want int
	}{
		{"invalid json", `{"tasks": [`, http.StatusBadRequest},
		{"task without id", `{"tasks": [{"name": "x"}]}`, http.StatusBadRequest},
		{"bad date", `{"tasks": [{"id": "a", "start_date": "soon"}]}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/schedule", tt.body)
			assert.Equal(t, tt.want, resp.StatusCode)

			var e errorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestSchedule_BodyTooLarge(t *testing.T) {
	cfg := config.DefaultConfig().Server
	cfg.MaxBodyBytes = 16
	ts := httptest.NewServer(New(cfg, cpm.Options{}, nil).Handler())
	defer ts.Close()

	resp := post(t, ts.URL+"/api/schedule", diamond)
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
}

func TestSchedule_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/schedule")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCheckDependency(t *testing.T) {
	ts := newTestServer(t)

	existing := `"dependencies": [
	  {"predecessor_id": "a", "successor_id": "b"},
	  {"predecessor_id": "b", "successor_id": "c"}
	]`

	tests := []struct {
		name      string
		candidate string
		want      CheckResponse
	}{
		{
			name:      "closes cycle",
			candidate: `"predecessor_id": "c", "successor_id": "a"`,
			want:      CheckResponse{WouldCreateCycle: true, Admitted: false},
		},
		{
			name:      "forward edge",
			candidate: `"predecessor_id": "a", "successor_id": "c"`,
			want:      CheckResponse{WouldCreateCycle: false, Admitted: true},
		},
		{
			name:      "duplicate",
			candidate: `"predecessor_id": "a", "successor_id": "b", "relation": "finish_to_start"`,
			want:      CheckResponse{WouldCreateCycle: false, Admitted: false},
		},
		{
			name:      "self",
			candidate: `"predecessor_id": "a", "successor_id": "a"`,
			want:      CheckResponse{WouldCreateCycle: true, Admitted: false},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+"/api/dependencies/check", "{"+existing+", "+tt.candidate+"}")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var got CheckResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
			assert.Equal(t, tt.want.WouldCreateCycle, got.WouldCreateCycle)
			assert.Equal(t, tt.want.Admitted, got.Admitted)
			if tt.want.Admitted {
				assert.Empty(t, got.Reason)
			} else {
				assert.NotEmpty(t, got.Reason)
			}
		})
	}
}

func TestCheckDependency_MissingEndpoints(t *testing.T) {
	ts := newTestServer(t)

	resp := post(t, ts.URL+"/api/dependencies/check", `{"dependencies": [], "predecessor_id": "a"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	srv := New(config.DefaultConfig().Server, cpm.Options{}, nil)

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
