package server

import (
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/jpalmerr/sensorboard/internal/history"
	"github.com/jpalmerr/sensorboard/sensor"
)

const (
	// sseWriteTimeout is the maximum time allowed for a single SSE write operation.
	// Must be <= shutdown timeout to ensure clean shutdown.
	sseWriteTimeout = 5 * time.Second

	shutdownTimeout = 5 * time.Second

	// defaultTitle is used when no custom title is configured.
	defaultTitle = "SensorBoard"

	// titlePlaceholder is the marker in HTML that gets replaced with the actual title.
	titlePlaceholder = "{{.Title}}"

	// intervalPlaceholder is replaced with the refresh interval in seconds.
	intervalPlaceholder = "{{.Interval}}"
)

// Entry is the payload of one SSE message: a history row plus the
// current-value block it produces.
type Entry struct {
	Row     sensor.Row          `json:"row"`
	Display sensor.DisplayState `json:"display"`
}

func newEntry(o sensor.Outcome) Entry {
	return Entry{Row: o.Row(), Display: o.Display()}
}

// Server serves the web mirror.
//
// Routes:
//   - GET /: the embedded dashboard page
//   - GET /api/current: current-value block as JSON
//   - GET /api/history: every history row as JSON, oldest first
//   - GET /api/sse: Server-Sent Events stream of [Entry] values
//   - GET /metrics: Prometheus metrics (when a handler is configured)
type Server struct {
	history    history.Store
	port       int
	httpServer *http.Server
	assets     fs.FS
	title      string
	interval   time.Duration
	metrics    http.Handler
	logger     *slog.Logger

	// encode renders one SSE payload.
	encode func(v any) ([]byte, error)
}

// NewServer creates a new HTTP [Server].
//
// Parameters:
//   - hist: the tick history to mirror
//   - port: TCP port to listen on
//   - assets: embedded filesystem containing dashboard assets (may be nil)
//   - title: dashboard title (defaults to "SensorBoard" if empty)
//   - interval: refresh interval shown in the page footer
//   - metrics: handler for /metrics (may be nil)
//   - logger: logger for server events
//
// The server is not started until [Server.Start] is called.
func NewServer(hist history.Store, port int, assets fs.FS, title string, interval time.Duration, metrics http.Handler, logger *slog.Logger) *Server {
	return &Server{
		history:  hist,
		port:     port,
		assets:   assets,
		title:    title,
		interval: interval,
		metrics:  metrics,
		logger:   logger,
		encode:   json.Marshal,
	}
}

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/api/current", s.handleCurrent).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/sse", s.handleSSE).Methods(http.MethodGet)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	if s.assets != nil {
		r.HandleFunc("/", s.handleDashboard).Methods(http.MethodGet)
	}

	logged := handlers.LoggingHandler(accessLog{s.logger}, r)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLog{s.logger}))(logged)
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
		ReadHeaderTimeout: 5 * time.Second,
		// request contexts derive from ctx so SSE handlers end on shutdown
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
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("http server shutdown error", "error", err)
		}
	}()

	return nil
}

// handleDashboard serves the main dashboard page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	content, err := fs.ReadFile(s.assets, "assets/index.html")
	if err != nil {
		http.Error(w, "Dashboard not found", http.StatusInternalServerError)
		return
	}

	// apply title substitution with HTML escaping to prevent XSS
	title := s.title
	if title == "" {
		title = defaultTitle
	}
	rendered := strings.NewReplacer(
		titlePlaceholder, html.EscapeString(title),
		intervalPlaceholder, fmt.Sprintf("%d", int(s.interval.Seconds())),
	).Replace(string(content))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err = w.Write([]byte(rendered)); err != nil {
		s.logger.Error("failed to write dashboard response", "error", err)
	}
}

// handleCurrent returns the current-value block as JSON.
func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	display := sensor.LoadingDisplay()
	if last, ok := s.history.Last(); ok {
		display = last.Display()
	}
	s.writeJSON(w, display)
}

// handleHistory returns every history row as JSON.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	entries := s.history.Entries()
	rows := make([]sensor.Row, len(entries))
	for i, o := range entries {
		rows[i] = o.Row()
	}
	s.writeJSON(w, rows)
}

func (s *Server) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

// handleSSE streams history entries via Server-Sent Events.
//
// The stream starts with every existing entry, then follows appends. Entries
// are sent at most once per connection, in sequence order.
func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	if _, ok := w.(http.Flusher); !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	rc := http.NewResponseController(w)

	// track if write deadlines are supported (may not be for some ResponseWriter impls)
	deadlinesSupported := true

	writeAndFlush := func(data []byte) error {
		if deadlinesSupported {
			if err := rc.SetWriteDeadline(time.Now().Add(sseWriteTimeout)); err != nil {
				s.logger.Debug("sse write deadlines not supported", "error", err)
				deadlinesSupported = false
			}
		}

		if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
			return err
		}
		return rc.Flush()
	}

	var lastSeq uint64
	send := func(o sensor.Outcome) error {
		if o.Seq != 0 && o.Seq <= lastSeq {
			return nil
		}
		data, err := s.encode(newEntry(o))
		if err != nil {
			// skip the row, keep the stream open
			s.logger.Error("failed to encode sse event",
				"error", err,
				"tick_id", o.TickID,
				"seq", o.Seq,
			)
			return nil
		}
		if err := writeAndFlush(data); err != nil {
			return err
		}
		if o.Seq > lastSeq {
			lastSeq = o.Seq
		}
		return nil
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	// subscribe before the snapshot so no append falls between the two
	ch := s.history.Subscribe()
	defer s.history.Unsubscribe(ch)

	for _, o := range s.history.Entries() {
		if err := send(o); err != nil {
			return
		}
	}

	for {
		select {
		case o, ok := <-ch:
			if !ok {
				return
			}
			if err := send(o); err != nil {
				return
			}

		case <-r.Context().Done():
			// fires on both client disconnect and server shutdown
			return
		}
	}
}

// accessLog adapts gorilla's access log lines to slog.
type accessLog struct {
	logger *slog.Logger
}

func (a accessLog) Write(p []byte) (int, error) {
	a.logger.Debug("http request", "line", strings.TrimSpace(string(p)))
	return len(p), nil
}

// recoveryLog adapts gorilla's recovery logger to slog.
type recoveryLog struct {
	logger *slog.Logger
}

func (l recoveryLog) Println(v ...interface{}) {
	l.logger.Error("http handler panic", "panic", fmt.Sprint(v...))
}
