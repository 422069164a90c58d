package server

import (
	"bufio"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/elyseproject/elyse/internal/logfields"
)

// Hub fans promoted build IDs out to connected browsers over SSE. A browser
// reloads when the ID changes, so repeated broadcasts of one build are
// dropped before they reach the wire.
type Hub struct {
	mu        sync.RWMutex
	nextID    int
	clients   map[int]*hubClient
	closed    bool
	lastToken string
}

type hubClient struct {
	id   int
	ch   chan string
	done chan struct{}
}

func NewHub() *Hub {
	return &Hub{clients: map[int]*hubClient{}}
}

// ServeHTTP implements the SSE endpoint at /livereload.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.RLock()
	closed := h.closed
	h.mu.RUnlock()
	if closed {
		http.Error(w, "live reload shutting down", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	client := &hubClient{ch: make(chan string, 8), done: make(chan struct{})}
	h.mu.Lock()
	client.id = h.nextID
	h.nextID++
	h.clients[client.id] = client
	current := h.lastToken
	h.mu.Unlock()

	// Opening comment, then the current build so a late subscriber has a
	// baseline to compare later events against.
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(": connected\n\n"); err != nil {
		h.removeClient(client.id)
		return
	}
	if current != "" {
		if _, err := bw.WriteString(sseEvent(current)); err != nil {
			h.removeClient(client.id)
			return
		}
	}
	if err := bw.Flush(); err == nil {
		flusher.Flush()
	}

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			h.removeClient(client.id)
			return
		case <-client.done:
			h.removeClient(client.id)
			return
		case <-heartbeat.C:
			if _, err := bw.WriteString(": ping\n\n"); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("Live reload ping write failed", logfields.Error(err))
			}
		case token := <-client.ch:
			if _, err := bw.WriteString(sseEvent(token)); err == nil {
				bw.Flush()
				flusher.Flush()
			} else {
				slog.Debug("Live reload event write failed", logfields.Error(err))
			}
		}
	}
}

func sseEvent(token string) string {
	return "data: {\"build\":\"" + token + "\"}\n\n"
}

func (h *Hub) removeClient(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.clients[id]; ok {
		delete(h.clients, id)
		close(c.done)
	}
}

// Broadcast sends token to every connected browser. Empty and repeated
// tokens are dropped, as are clients too stuck to accept the send.
func (h *Hub) Broadcast(token string) {
	h.mu.Lock()
	if h.closed || token == "" || token == h.lastToken {
		h.mu.Unlock()
		return
	}
	h.lastToken = token
	snapshot := make([]*hubClient, 0, len(h.clients))
	for _, c := range h.clients {
		snapshot = append(snapshot, c)
	}
	h.mu.Unlock()

	dropped := 0
	for _, c := range snapshot {
		select {
		case c.ch <- token:
		default:
			dropped++
			h.removeClient(c.id)
		}
	}
	slog.Debug("Live reload broadcast",
		logfields.BuildID(token),
		logfields.Count(len(snapshot)),
		slog.Int("dropped", dropped))
}

// Shutdown disconnects all clients and rejects new connections.
func (h *Hub) Shutdown() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := h.clients
	h.clients = map[int]*hubClient{}
	h.mu.Unlock()
	for _, c := range clients {
		close(c.done)
	}
}

// reloadScript is the client served at /livereload.js. It records the build
// ID from the first event as its baseline and reloads on any later change.
const reloadScript = `(() => {
  if (window.__ELYSE_LR__) return;
  window.__ELYSE_LR__ = true;
  function connect() {
    const es = new EventSource('/livereload');
    let first = true;
    let current = null;
    es.onmessage = (e) => {
      try {
        const p = JSON.parse(e.data);
        if (first) { current = p.build; first = false; return; }
        if (p.build && p.build !== current) { location.reload(); }
      } catch (_) {}
    };
    es.onerror = () => { es.close(); setTimeout(connect, 2000); };
  }
  connect();
})();`

func serveReloadScript(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/javascript; charset=utf-8")
	if _, err := w.Write([]byte(reloadScript)); err != nil {
		slog.Debug("Reload script write failed", logfields.Error(err))
	}
}

// injectReloadScript wraps a handler and splices the live reload client
// into HTML responses just before </body>.
func injectReloadScript(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := r.URL.Path
		isHTMLPage := path == "/" || path == "" || strings.HasSuffix(path, "/") || strings.HasSuffix(path, ".html")
		if !isHTMLPage {
			next.ServeHTTP(w, r)
			return
		}
		inj := newReloadInjector(w)
		next.ServeHTTP(inj, r)
		inj.finalize()
	})
}

// reloadInjector buffers an HTML response so the script tag can be inserted
// before it goes out. Non-HTML responses and bodies past maxSize pass
// through unmodified to keep large assets from stalling behind the buffer.
type reloadInjector struct {
	http.ResponseWriter
	statusCode    int
	buffer        []byte
	headerWritten bool
	passthrough   bool
	maxSize       int
}

func newReloadInjector(w http.ResponseWriter) *reloadInjector {
	return &reloadInjector{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
		maxSize:        512 * 1024,
	}
}

func (l *reloadInjector) WriteHeader(code int) {
	l.statusCode = code
	if l.passthrough {
		l.ResponseWriter.WriteHeader(code)
		l.headerWritten = true
	}
}

func (l *reloadInjector) Write(data []byte) (int, error) {
	// Content-Type is only known once the handler starts writing.
	if !l.headerWritten && !l.passthrough && l.buffer == nil {
		contentType := l.ResponseWriter.Header().Get("Content-Type")
		isHTML := contentType == "" || strings.Contains(contentType, "text/html")
		if !isHTML {
			l.passthrough = true
			l.ResponseWriter.WriteHeader(l.statusCode)
			l.headerWritten = true
			return l.ResponseWriter.Write(data)
		}
		l.buffer = make([]byte, 0, 64*1024)
	}

	if l.passthrough {
		return l.ResponseWriter.Write(data)
	}

	if len(l.buffer)+len(data) > l.maxSize {
		l.passthrough = true
		l.ResponseWriter.Header().Del("Content-Length")
		l.ResponseWriter.WriteHeader(l.statusCode)
		l.headerWritten = true
		if len(l.buffer) > 0 {
			if _, err := l.ResponseWriter.Write(l.buffer); err != nil {
				return 0, err
			}
		}
		return l.ResponseWriter.Write(data)
	}

	l.buffer = append(l.buffer, data...)
	return len(data), nil
}

// finalize must run after the wrapped handler returns.
func (l *reloadInjector) finalize() {
	if l.passthrough || len(l.buffer) == 0 {
		if !l.headerWritten {
			l.ResponseWriter.WriteHeader(l.statusCode)
		}
		return
	}

	const scriptTag = `<script src="/livereload.js" async></script></body>`
	modified := strings.Replace(string(l.buffer), "</body>", scriptTag, 1)

	l.ResponseWriter.Header().Del("Content-Length")
	l.ResponseWriter.WriteHeader(l.statusCode)
	if _, err := l.ResponseWriter.Write([]byte(modified)); err != nil {
		slog.Debug("Injected response write failed", logfields.Error(err))
	}
}
