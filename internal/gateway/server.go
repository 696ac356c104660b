package gateway

import (
	"bufio"
	"context"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/lattice-graph/latticedb/internal/auth"
	"github.com/lattice-graph/latticedb/internal/logging"
	"github.com/lattice-graph/latticedb/internal/metrics"
	"github.com/lattice-graph/latticedb/internal/parallel"
	"github.com/lattice-graph/latticedb/internal/registry"
	"github.com/lattice-graph/latticedb/internal/storage"
)

// Options configures a Server.
type Options struct {
	Addr         string
	Store        *storage.GraphStore
	Handlers     map[string]registry.HandlerFunc // pass registry.Handlers() in production
	Logger       logging.Logger
	Metrics      *metrics.Registry
	Workers      int           // 0 -> parallel.WorkerPool default
	ConnDeadline time.Duration // 0 -> no read/write deadline

	// JWTManager, if non-nil, requires every request to carry a valid
	// "Authorization: Bearer <token>" header; nil disables auth entirely
	// (the default, matching spec §6's own gateway which has no auth
	// layer — this is a pack enrichment, not a spec requirement).
	JWTManager *auth.JWTManager
}

// Server is the raw HTTP/1.1-subset gateway named in spec §6: one route
// per registered handler name, requests dispatched through a bounded
// worker pool, and a single exclusive mutex serializing every handler's
// access to the storage engine (spec §5's "the engine is not internally
// thread-safe across operations; the gateway is responsible for
// serializing access").
type Server struct {
	addr         string
	store        *storage.GraphStore
	handlers     map[string]registry.HandlerFunc
	logger       logging.Logger
	metrics      *metrics.Registry
	pool         *parallel.WorkerPool
	connDeadline time.Duration
	jwtManager   *auth.JWTManager

	engineMu sync.Mutex // spec §5 exclusive access

	mu       sync.Mutex
	listener net.Listener
	closing  bool
	conns    map[net.Conn]struct{}
}

// New constructs a Server. Call ListenAndServe to start accepting
// connections.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NopLogger{}
	}
	onPanic := func(r any) {
		logger.Error("gateway: recovered panic in worker", logging.F("panic", r))
	}
	return &Server{
		addr:         opts.Addr,
		store:        opts.Store,
		handlers:     opts.Handlers,
		logger:       logger,
		metrics:      opts.Metrics,
		pool:         parallel.NewWorkerPool(opts.Workers, onPanic),
		connDeadline: opts.ConnDeadline,
		jwtManager:   opts.JWTManager,
		conns:        make(map[net.Conn]struct{}),
	}
}

// ListenAndServe opens addr and accepts connections until Shutdown is
// called, at which point it returns nil.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info("gateway: listening", logging.F("addr", s.addr))

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closing := s.closing
			s.mu.Unlock()
			if closing {
				return nil
			}
			return err
		}
		s.trackConn(conn, true)
		submitErr := s.pool.Submit(context.Background(), func() {
			defer s.trackConn(conn, false)
			s.serveConn(conn)
		})
		if submitErr != nil {
			s.trackConn(conn, false)
			_ = conn.Close()
		}
	}
}

func (s *Server) trackConn(conn net.Conn, add bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if add {
		s.conns[conn] = struct{}{}
	} else {
		delete(s.conns, conn)
	}
}

// serveConn handles every pipelined request on one connection until the
// peer closes it or a deadline fires — the per-socket deadline spec §7
// names as a DoS guard against slow-loris-style clients.
func (s *Server) serveConn(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for {
		if s.connDeadline > 0 {
			_ = conn.SetDeadline(time.Now().Add(s.connDeadline))
		}
		req, err := readRequest(r)
		if err != nil {
			return
		}
		status, body := s.dispatch(req)
		if err := writeResponse(conn, status, body); err != nil {
			return
		}
	}
}

// dispatch routes req to its handler, serializing the call behind
// engineMu and recording latency/error metrics.
func (s *Server) dispatch(req parsedRequest) (int, []byte) {
	name, params, ok := s.route(req.Method, req.Path)
	if !ok {
		return 404, []byte(`{"error":"not found"}`)
	}
	handler, ok := s.handlers[name]
	if !ok {
		return 404, []byte(`{"error":"not found"}`)
	}

	if s.jwtManager != nil {
		if _, err := s.authenticate(req.Headers); err != nil {
			return 401, []byte(`{"error":"unauthorized"}`)
		}
	}

	hreq := &registry.Request{Params: params, Body: req.Body, Store: s.store}
	resp := &registry.Response{}

	start := time.Now()
	s.engineMu.Lock()
	err := handler(hreq, resp)
	s.engineMu.Unlock()
	elapsed := time.Since(start).Seconds()

	if s.metrics != nil {
		s.metrics.ObserveRequest(name, elapsed, err)
	}
	if err != nil {
		s.logger.Error("gateway: handler error", logging.F("route", name), logging.F("error", err.Error()))
		return 500, []byte(`{"error":"internal error"}`)
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	return resp.StatusCode, resp.Body
}

// authenticate extracts and validates the bearer token from headers.
func (s *Server) authenticate(headers map[string]string) (*auth.Claims, error) {
	const prefix = "Bearer "
	value := headers["authorization"]
	if !strings.HasPrefix(value, prefix) {
		return nil, auth.ErrInvalidToken
	}
	return s.jwtManager.ValidateToken(strings.TrimPrefix(value, prefix))
}

// route matches "/<name>" or "/<name>/<id>" against the registered
// handler names, the minimal path scheme spec §6 describes; a trailing
// segment, if present, is bound to Params["id"]. Every registered route
// is installed as (GET, "/"+name) per spec.md §4.6 — any other method
// matches no route, same as an unregistered name.
func (s *Server) route(method, path string) (name string, params map[string]string, ok bool) {
	if method != "GET" {
		return "", nil, false
	}
	trimmed := strings.TrimPrefix(path, "/")
	segments := strings.SplitN(trimmed, "/", 2)
	if len(segments) == 0 || segments[0] == "" {
		return "", nil, false
	}
	if _, exists := s.handlers[segments[0]]; !exists {
		return "", nil, false
	}
	if len(segments) == 2 && segments[1] != "" {
		return segments[0], map[string]string{"id": segments[1]}, true
	}
	return segments[0], map[string]string{}, true
}

// Shutdown closes the listener, then waits for the worker pool to drain;
// in-flight connections are closed only if ctx is done before the drain
// finishes — the graceful-shutdown behavior adapted
// from the teacher's pkg/server/graceful.go, without net/http.Server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	if s.listener != nil {
		_ = s.listener.Close()
	}
	conns := make([]net.Conn, 0, len(s.conns))
	for c := range s.conns {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		for _, c := range conns {
			_ = c.Close()
		}
		return ctx.Err()
	}
}
