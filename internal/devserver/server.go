// Package devserver is the dev-mode HTTP+WebSocket front end: it serves
// built assets under a configurable public path and pushes hot-update
// hashes to connected clients over "/__/hmr-ws", grounded on the example
// pack's own gorilla/websocket dev-server pattern.
package devserver

import (
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/riftpack/rebuildengine/internal/devwatch"
)

const hmrWebSocketPath = "/__/hmr-ws"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server serves the dev-mode static tree and the HMR WebSocket endpoint.
type Server struct {
	// PublicPath is the request-path prefix assets are served under, with
	// no leading or trailing slash (matches rebuildconfig.Config.PublicPath).
	PublicPath string

	// HotUpdateDir is checked first for a requested asset — a file
	// written there shadows the same-named file in OutputDir until the
	// next full build.
	HotUpdateDir string
	OutputDir    string

	Broadcaster *devwatch.Broadcaster

	mux *http.ServeMux
}

// New builds a Server ready to be handed to http.Serve (or its own
// ListenAndServe).
func New(publicPath, hotUpdateDir, outputDir string, broadcaster *devwatch.Broadcaster) *Server {
	s := &Server{
		PublicPath:   strings.Trim(publicPath, "/"),
		HotUpdateDir: hotUpdateDir,
		OutputDir:    outputDir,
		Broadcaster:  broadcaster,
	}
	s.mux = http.NewServeMux()
	s.mux.HandleFunc(hmrWebSocketPath, s.handleHMRWebSocket)
	s.mux.HandleFunc("/", s.handleStatic)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// ListenAndServe binds 127.0.0.1:port and serves until the process is
// killed or the listener errors.
func (s *Server) ListenAndServe(port uint16) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	return http.ListenAndServe(addr, s)
}

// handleHMRWebSocket upgrades the connection, subscribes it to the
// broadcaster, and forwards every published hash as a {"hash":"..."} text
// frame until the client disconnects.
func (s *Server) handleHMRWebSocket(w http.ResponseWriter, r *http.Request) {
	if !websocket.IsWebSocketUpgrade(r) {
		notFound(w)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	hashes, unsubscribe := s.Broadcaster.Subscribe()
	defer unsubscribe()

	// Drain (and discard) anything the client sends, purely to notice
	// when it disconnects.
	disconnected := make(chan struct{})
	go func() {
		defer close(disconnected)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-disconnected:
			return
		case hash, ok := <-hashes:
			if !ok {
				return
			}
			payload := fmt.Sprintf(`{"hash":"%s"}`, strconv.FormatUint(hash, 10))
			_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, []byte(payload)); err != nil {
				return
			}
		}
	}
}

// handleStatic serves a requested asset from HotUpdateDir first, falling
// back to OutputDir, and rewrites the Content-Type charset to utf-8 for
// text-ish responses the way the dev server's asset pipeline expects
// (browsers otherwise sniff some JS/CSS as a non-UTF-8 charset when served
// without one, which breaks template literals containing non-ASCII text).
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	reqPath := r.URL.Path
	prefix := "/" + s.PublicPath
	if s.PublicPath == "" {
		prefix = "/"
	}
	if !strings.HasPrefix(reqPath, prefix) {
		notFound(w)
		return
	}
	rel := strings.TrimPrefix(reqPath, prefix)
	rel = strings.TrimPrefix(rel, "/")
	if rel == "" {
		rel = "index.html"
	}

	for _, dir := range []string{s.HotUpdateDir, s.OutputDir} {
		if dir == "" {
			continue
		}
		full := path.Join(dir, rel)
		if f, err := httpOpen(full); err == nil {
			defer f.Close()
			rewriteCharset(w, full)
			http.ServeContent(w, r, full, time.Time{}, f)
			return
		}
	}

	notFound(w)
}

// notFound writes the dev server's 404 body, distinct from Go's default
// "404 page not found" text.
func notFound(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte("404 - Page not found"))
}
