package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"schemacrawler/internal/testdb"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	s := New(context.Background(), zaptest.NewLogger(t))
	s.PollInterval = 10 * time.Millisecond
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func startCrawl(t *testing.T, ts *httptest.Server, req CrawlRequest) string {
	t.Helper()
	resp := postJSON(t, ts.URL+"/api/crawl", req)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	var created map[string]string
	decode(t, resp, &created)
	require.NotEmpty(t, created["task_id"])
	return created["task_id"]
}

func waitForTask(t *testing.T, ts *httptest.Server, id string) Task {
	t.Helper()
	var task Task
	require.Eventually(t, func() bool {
		resp, err := http.Get(ts.URL + "/api/task/" + id)
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&task))
		return task.finished()
	}, 10*time.Second, 20*time.Millisecond)
	return task
}

func TestCrawlTask(t *testing.T) {
	ts := newTestServer(t)
	id := startCrawl(t, ts, CrawlRequest{
		URL:       testdb.Create(t),
		InfoLevel: "maximum",
		Command:   "schema",
		Format:    "text",
	})

	task := waitForTask(t, ts, id)
	require.Equal(t, StatusCompleted, task.Status, task.Message)
	assert.Equal(t, 100, task.Progress)
	assert.Contains(t, task.Output, "FK_BOOKS_PUBLISHER")
	assert.Equal(t, 5, task.Stats["tables"])
	assert.Equal(t, 2, task.Stats["weak_associations"])
}

func TestCrawlTask_Failures(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/crawl", CrawlRequest{URL: testdb.Create(t), Command: "shema"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, ts.URL+"/api/crawl", CrawlRequest{URL: testdb.Create(t), InfoLevel: "everything"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	id := startCrawl(t, ts, CrawlRequest{URL: "jdbc:db2://localhost/x"})
	task := waitForTask(t, ts, id)
	assert.Equal(t, StatusFailed, task.Status)
	assert.Contains(t, task.Message, "connection failed")

	resp, err := http.Get(ts.URL + "/api/task/unknown")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestWebSocketProgress(t *testing.T) {
	ts := newTestServer(t)
	id := startCrawl(t, ts, CrawlRequest{URL: testdb.Create(t), Format: "json"})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws?task=" + id
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	var last Task
	for {
		var task Task
		if err := conn.ReadJSON(&task); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), err)
			break
		}
		assert.GreaterOrEqual(t, task.Progress, last.Progress)
		last = task
	}
	assert.Equal(t, StatusCompleted, last.Status)
	assert.Contains(t, last.Output, `"weakAssociations"`)
}

func TestTestConnection(t *testing.T) {
	ts := newTestServer(t)

	var ok connectionResponse
	decode(t, postJSON(t, ts.URL+"/api/test-connection", CrawlRequest{URL: testdb.Create(t)}), &ok)
	assert.True(t, ok.Success)
	assert.Equal(t, "connected to sqlite", ok.Message)

	var failed connectionResponse
	decode(t, postJSON(t, ts.URL+"/api/test-connection", CrawlRequest{Server: "oracle"}), &failed)
	assert.False(t, failed.Success)
	assert.Contains(t, failed.Message, "connection failed")
}

func TestListSchemas(t *testing.T) {
	ts := newTestServer(t)

	var resp connectionResponse
	decode(t, postJSON(t, ts.URL+"/api/list-schemas", CrawlRequest{URL: testdb.Create(t)}), &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "SQLite", resp.Product)
}

func TestEvictFinishedTasks(t *testing.T) {
	s := New(context.Background(), zaptest.NewLogger(t))
	s.TaskTTL = time.Minute
	now := time.Now()
	s.tasks = map[string]*Task{
		"old-done":    {ID: "old-done", Status: StatusCompleted, Output: "report", UpdatedAt: now.Add(-2 * time.Minute)},
		"old-failed":  {ID: "old-failed", Status: StatusFailed, UpdatedAt: now.Add(-2 * time.Minute)},
		"old-running": {ID: "old-running", Status: StatusRunning, UpdatedAt: now.Add(-2 * time.Minute)},
		"recent-done": {ID: "recent-done", Status: StatusCompleted, UpdatedAt: now.Add(-10 * time.Second)},
	}

	s.mu.Lock()
	s.evictLocked(now)
	s.mu.Unlock()

	_, ok := s.snapshot("old-done")
	assert.False(t, ok)
	_, ok = s.snapshot("old-failed")
	assert.False(t, ok)
	_, ok = s.snapshot("old-running")
	assert.True(t, ok, "running tasks are kept")
	_, ok = s.snapshot("recent-done")
	assert.True(t, ok)
}

func TestCrawlTask_EvictsExpiredOnCreate(t *testing.T) {
	s := New(context.Background(), zaptest.NewLogger(t))
	s.TaskTTL = time.Minute
	s.tasks["stale"] = &Task{ID: "stale", Status: StatusCompleted, UpdatedAt: time.Now().Add(-time.Hour)}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	id := startCrawl(t, ts, CrawlRequest{URL: testdb.Create(t)})
	waitForTask(t, ts, id)

	resp, err := http.Get(ts.URL + "/api/task/stale")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
