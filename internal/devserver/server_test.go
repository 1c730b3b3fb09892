package devserver

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riftpack/rebuildengine/internal/devwatch"
)

func TestHandleStaticPrefersHotUpdateDirOverOutputDir(t *testing.T) {
	hot := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "app.js"), []byte("stale"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(hot, "app.js"), []byte("fresh"), 0o644))

	s := New("assets", hot, out, devwatch.NewBroadcaster())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/assets/app.js", nil)
	s.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "fresh", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Type"), "charset=utf-8")
}

func TestHandleStaticFallsBackToOutputDir(t *testing.T) {
	hot := t.TempDir()
	out := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(out, "app.js"), []byte("stable"), 0o644))

	s := New("assets", hot, out, devwatch.NewBroadcaster())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/assets/app.js", nil)
	s.ServeHTTP(rec, req)

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, "stable", rec.Body.String())
}

func TestHandleStaticMissingFileIs404(t *testing.T) {
	s := New("assets", t.TempDir(), t.TempDir(), devwatch.NewBroadcaster())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/assets/missing.js", nil)
	s.ServeHTTP(rec, req)
	assert.Equal(t, 404, rec.Code)
}

func TestHMRWebSocketForwardsPublishedHash(t *testing.T) {
	b := devwatch.NewBroadcaster()
	s := New("assets", t.TempDir(), t.TempDir(), b)
	ts := httptest.NewServer(s)
	defer ts.Close()

	wsURL := "ws" + ts.URL[len("http"):] + "/__/hmr-ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	time.Sleep(50 * time.Millisecond) // let the server goroutine subscribe
	b.Publish(12345)

	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"hash":"12345"}`, string(msg))
}
