// Package devserver serves project discoveries to editor and browser tooling
// over a WebSocket, and pushes file change notifications to every client.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gnana997/nextscope/pkg/mcplog"
	"github.com/gnana997/nextscope/pkg/scanner"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	sendBuffer = 32
)

// Options configures a Server.
type Options struct {
	// AllowedOrigins are the browser origins allowed to connect, e.g.
	// "http://localhost:3000". Requests without an Origin header and
	// requests from localhost are always allowed.
	AllowedOrigins []string

	// Calls records one entry per action. Nil disables call logging.
	Calls *mcplog.Logger

	Logger *slog.Logger
}

// Server answers discovery actions for one project root.
//
// Usage:
//
//	srv := devserver.New(sc, root, devserver.Options{})
//	go srv.ListenAndServe(ctx, "127.0.0.1:3210")
//	srv.Broadcast(changedPaths)
type Server struct {
	scanner  *scanner.Scanner
	root     string
	calls    *mcplog.Logger
	log      *slog.Logger
	upgrader websocket.Upgrader
	origins  map[string]bool

	mu      sync.Mutex
	closed  bool
	clients map[*client]struct{}
	wg      sync.WaitGroup
}

type client struct {
	conn   *websocket.Conn
	send   chan Response
	cancel context.CancelFunc
}

// New creates a dev server for the project at root.
func New(sc *scanner.Scanner, root string, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		scanner: sc,
		root:    root,
		calls:   opts.Calls,
		log:     logger,
		origins: make(map[string]bool, len(opts.AllowedOrigins)),
		clients: make(map[*client]struct{}),
	}
	for _, o := range opts.AllowedOrigins {
		s.origins[strings.TrimSuffix(o, "/")] = true
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || s.origins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	switch u.Hostname() {
	case "localhost", "127.0.0.1", "::1":
		return true
	}
	return false
}

// Handler returns the HTTP routes: the WebSocket endpoint at /ws and a
// health check at /healthz.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)
	return mux
}

// ListenAndServe serves until ctx is cancelled, then closes every client.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Info("dev server listening", "addr", addr, "root", s.root)

	select {
	case err := <-errCh:
		s.Close()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dev server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.Close()
	<-errCh
	return err
}

// Close disconnects every client and waits for their goroutines to exit.
// Later connections are refused.
func (s *Server) Close() {
	s.mu.Lock()
	s.closed = true
	for c := range s.clients {
		c.cancel()
		_ = c.conn.Close()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

// Clients returns the number of connected clients.
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Broadcast tells every client which files changed. Paths are reported
// relative to the project root.
func (s *Server) Broadcast(paths []string) {
	rel := make([]string, 0, len(paths))
	for _, p := range paths {
		if r, err := filepath.Rel(s.root, p); err == nil && !strings.HasPrefix(r, "..") {
			p = r
		}
		rel = append(rel, filepath.ToSlash(p))
	}
	sort.Strings(rel)

	msg := Response{Type: TypeChanged, Success: true, Payload: ChangedPayload{Paths: rel}}
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		push(c.send, msg)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "ok",
		"root":    s.root,
		"clients": s.Clients(),
		"cache":   s.scanner.CacheStats(),
	})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &client{conn: conn, send: make(chan Response, sendBuffer), cancel: cancel}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c)
		s.mu.Unlock()
		cancel()
		_ = conn.Close()
		s.wg.Done()
	}()

	s.log.Debug("client connected", "remote", r.RemoteAddr)
	s.serveConn(ctx, c)
	s.log.Debug("client disconnected", "remote", r.RemoteAddr)
}

// serveConn runs the read loop on the calling goroutine and the write loop
// on its own; it returns once both have stopped.
func (s *Server) serveConn(ctx context.Context, c *client) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		return
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeLoop(ctx, c)
	}()

	for {
		var req Request
		if err := c.conn.ReadJSON(&req); err != nil {
			var syntaxErr *json.SyntaxError
			var typeErr *json.UnmarshalTypeError
			if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
				push(c.send, Response{Type: TypeResponse, Error: "malformed request: " + err.Error()})
				continue
			}
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Debug("websocket read failed", "error", err)
			}
			break
		}
		push(c.send, s.Dispatch(ctx, req))
	}

	cancel()
	<-writerDone
}

func (s *Server) writeLoop(ctx context.Context, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// push queues msg, dropping the oldest queued message when the client is
// not keeping up.
func push(ch chan Response, msg Response) {
	select {
	case ch <- msg:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- msg:
	default:
	}
}
