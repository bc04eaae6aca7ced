package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/websocket"

	"github.com/jpalmerr/signalboard/internal/page"
)

const (
	// streamWriteTimeout is the maximum time allowed for a single SSE or
	// WebSocket write. Must be <= shutdown timeout to ensure clean shutdown.
	streamWriteTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SignalBoard"

	indexPath = "assets/index.html"
)

// Layout describes the markup the dashboard template renders. The element
// ids and classes must match what the page document declares.
type Layout struct {
	Title     string
	CountID   string
	Container string
	Member    string
	Class     string
	Bars      int
}

// view is the template data for the dashboard page.
type view struct {
	Layout
	BarIndexes []int
}

// Server handles HTTP requests for the SignalBoard dashboard and API.
//
// Server provides four endpoints:
//   - GET /: Serves the embedded dashboard HTML
//   - GET /api/page: Returns the current page as a JSON change list
//   - GET /api/sse: Server-Sent Events stream of page changes
//   - GET /api/ws: WebSocket stream of page changes
//
// The server is designed for graceful shutdown via context cancellation.
type Server struct {
	store      page.Store
	layout     Layout
	port       int
	httpServer *http.Server
	assets     fs.FS
	logger     *slog.Logger
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - st: page the streams read from
//   - layout: element ids and classes for the dashboard markup
//   - port: TCP port to listen on
//   - assets: Embedded filesystem containing dashboard assets (may be nil)
//   - logger: Logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(st page.Store, layout Layout, port int, assets fs.FS, logger *slog.Logger) *Server {
	if layout.Title == "" {
		layout.Title = defaultTitle
	}
	return &Server{
		store:  st,
		layout: layout,
		port:   port,
		assets: assets,
		logger: logger,
	}
}

// Handler returns the server's routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/page", s.handlePage)
	mux.HandleFunc("/api/sse", s.handleSSE)
	mux.Handle("/api/ws", websocket.Handler(s.handleWS))

	if s.assets != nil {
		mux.HandleFunc("/", s.handleDashboard)
	}

	return mux
}

// Start begins serving HTTP requests in a background goroutine.
//
// Start is non-blocking and returns immediately after confirming the server
// is listening. The server will continue running until the context is
// cancelled, at which point it initiates a graceful shutdown with a 5-second
// timeout.
//
// Returns an error if the server fails to bind to the configured port.
func (s *Server) Start(ctx context.Context) error {
	// create listener first to verify port availability synchronously
	addr := fmt.Sprintf(":%d", s.port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to bind to port %d: %w", s.port, err)
	}

	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts derive from ctx so streaming handlers end on shutdown
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}

	if s.assets == nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	tmpl, err := template.ParseFS(s.assets, indexPath)
	if err != nil {
		s.logger.Error("failed to load dashboard template", "error", err)
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	v := view{Layout: s.layout, BarIndexes: make([]int, s.layout.Bars)}
	for i := range v.BarIndexes {
		v.BarIndexes[i] = i
	}

	// render into a buffer so a template error still yields a clean 500
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, v); err != nil {
		s.logger.Error("failed to render dashboard", "error", err)
		http.Error(w, "Dashboard render failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := buf.WriteTo(w); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handlePage returns the current page state as JSON.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(s.store.Snapshot()); err != nil {
		s.logger.Error("failed to encode page response", "error", err)
	}
}

// handleSSE streams page changes via Server-Sent Events.
//
// Every write carries a deadline so a slow or vanished client cannot block
// the handler past shutdown.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
				s.logger.Warn("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no change falls between the two
	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)
	s.logger.Debug("sse client connected", "subscribers", s.store.Subscribers())

	for _, change := range s.store.Snapshot() {
		data, err := json.Marshal(change)
		if err != nil {
			continue
		}
		if err := writeAndFlush(data); err != nil {
			return
		}
	}

	for {
		select {
		case change, ok := <-ch:
			if !ok {
				s.logger.Debug("sse client fell behind, closing for resync")
				return
			}
			data, err := json.Marshal(change)
			if err != nil {
				continue
			}
			if err := writeAndFlush(data); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

// handleWS streams page changes over a WebSocket, one JSON change per
// message, starting with the snapshot.
func (s *Server) handleWS(ws *websocket.Conn) {
	defer ws.Close()

	ch := s.store.Subscribe()
	defer s.store.Unsubscribe(ch)
	s.logger.Debug("websocket client connected", "subscribers", s.store.Subscribers())

	// the client never sends; a read error means it went away
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var discard string
		for {
			if err := websocket.Message.Receive(ws, &discard); err != nil {
				return
			}
		}
	}()

	send := func(c page.Change) error {
		if err := ws.SetWriteDeadline(time.Now().Add(streamWriteTimeout)); err != nil {
			return err
		}
		return websocket.JSON.Send(ws, c)
	}

	for _, change := range s.store.Snapshot() {
		if err := send(change); err != nil {
			return
		}
	}

	ctx := ws.Request().Context()
	for {
		select {
		case change, ok := <-ch:
			if !ok {
				s.logger.Debug("websocket client fell behind, closing for resync")
				return
			}
			if err := send(change); err != nil {
				s.logger.Debug("websocket client dropped", "error", err)
				return
			}
		case <-gone:
			return
		case <-ctx.Done():
			return
		}
	}
}
