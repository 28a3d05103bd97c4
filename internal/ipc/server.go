package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/rbright/eyra/internal/logging"
)

const defaultReadTimeout = 2 * time.Second

// Handler processes one IPC command request.
type Handler interface {
	Handle(context.Context, Request) Response
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(context.Context, Request) Response

func (f HandlerFunc) Handle(ctx context.Context, req Request) Response {
	return f(ctx, req)
}

// Server answers exactly one JSON request per connection.
type Server struct {
	Handler Handler
	Logger  *slog.Logger
	// ReadTimeout bounds how long a client may take to send its request.
	ReadTimeout time.Duration
}

// Serve accepts clients until ctx is cancelled or the listener closes. It
// waits for in-flight requests before returning.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	go func() {
		<-ctx.Done()
		_ = listener.Close()
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) || ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept IPC connection: %w", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()
			s.serveConn(ctx, conn)
		}()
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	logger := logging.OrDiscard(s.Logger)
	timeout := s.ReadTimeout
	if timeout <= 0 {
		timeout = defaultReadTimeout
	}
	_ = conn.SetReadDeadline(time.Now().Add(timeout))

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		reply(conn, Response{Error: fmt.Sprintf("read request: %v", err)})
		return
	}
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		reply(conn, Response{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}

	resp := s.handle(ctx, req)
	logger.Debug("ipc request", "command", req.Command, "ok", resp.OK, "error", resp.Error)
	reply(conn, resp)
}

func (s *Server) handle(ctx context.Context, req Request) (resp Response) {
	defer func() {
		if r := recover(); r != nil {
			logging.OrDiscard(s.Logger).Error("ipc handler panic", "command", req.Command, "panic", fmt.Sprint(r))
			resp = Response{Error: fmt.Sprintf("internal error handling %q", req.Command)}
		}
	}()
	return s.Handler.Handle(ctx, req)
}

func reply(conn net.Conn, resp Response) {
	_ = json.NewEncoder(conn).Encode(resp)
}

// Serve runs a Server with default settings.
func Serve(ctx context.Context, listener net.Listener, handler Handler) error {
	return (&Server{Handler: handler}).Serve(ctx, listener)
}

// Mux routes requests to per-command handlers.
type Mux struct {
	routes map[string]Handler
}

// NewMux returns an empty command router.
func NewMux() *Mux {
	return &Mux{routes: map[string]Handler{}}
}

// HandleFunc registers fn for command.
func (m *Mux) HandleFunc(command string, fn func(context.Context, Request) Response) {
	m.routes[command] = HandlerFunc(fn)
}

// Handle dispatches req by its command name.
func (m *Mux) Handle(ctx context.Context, req Request) Response {
	handler, ok := m.routes[req.Command]
	if !ok {
		return Response{OK: false, Error: fmt.Sprintf("unknown command %q", req.Command)}
	}
	return handler.Handle(ctx, req)
}
