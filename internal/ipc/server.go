package ipc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"jukebox/internal/logging"
)

const (
	maxLogWait     = 30 * time.Second
	defaultLogWait = 5 * time.Second
)

// Controller is the daemon side of the control socket. Implementations hop
// onto the event loop for anything touching playback state.
type Controller interface {
	Status(ctx context.Context) (StatusResponse, error)
	Command(ctx context.Context, req CommandRequest) (CommandResponse, error)
	Catalog(ctx context.Context) (CatalogResponse, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
	Stop()
}

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	connMu sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
}

// NewServer configures the IPC server at the given socket path. hub may be
// nil, in which case log tailing returns nothing.
func NewServer(ctx context.Context, path string, ctrl Controller, hub *logging.StreamHub, logger *slog.Logger) (*Server, error) {
	if ctrl == nil {
		return nil, errors.New("ipc server requires controller")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.NewComponentLogger(logger, "ipc")

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	rpcServer := rpc.NewServer()
	srv := &service{ctrl: ctrl, hub: hub, logger: logger, ctx: serverCtx}
	if err := rpcServer.RegisterName("Jukebox", srv); err != nil {
		cancel()
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	return &Server{
		path:      path,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}, nil
}

// Path returns the socket path.
func (s *Server) Path() string {
	return s.path
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}
				logging.WarnWithContext(s.logger, "accept failed", "ipc_accept_failed",
					logging.Error(err),
					logging.String(logging.FieldImpact, "CLI commands may fail to connect"),
					logging.String(logging.FieldErrorHint, "Check socket permissions and restart the daemon if needed"))
				continue
			}
			if !s.track(conn) {
				_ = conn.Close()
				return
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				defer s.untrack(c)
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// track registers an accepted connection. It reports false once Close has
// begun.
func (s *Server) track(conn net.Conn) bool {
	s.connMu.Lock()
	defer s.connMu.Unlock()
	if s.closed {
		return false
	}
	s.conns[conn] = struct{}{}
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.connMu.Lock()
	delete(s.conns, conn)
	s.connMu.Unlock()
}

// Close stops the server, hangs up on connected clients and removes the
// socket file. Clients still attached (a log follower, say) see their
// connection closed instead of holding shutdown open.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.connMu.Lock()
	s.closed = true
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.connMu.Unlock()
	s.wg.Wait()
	_ = os.Remove(s.path)
}

type service struct {
	ctrl   Controller
	hub    *logging.StreamHub
	logger *slog.Logger
	ctx    context.Context
}

// call derives a per-request context carrying a correlation id so log lines
// produced while serving one request can be grouped.
func (s *service) call() (context.Context, *slog.Logger) {
	id := uuid.NewString()
	ctx := logging.ContextWithCorrelationID(s.ctx, id)
	return ctx, logging.WithContext(ctx, s.logger)
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	ctx, _ := s.call()
	status, err := s.ctrl.Status(ctx)
	if err != nil {
		return err
	}
	*resp = status
	return nil
}

func (s *service) Command(req CommandRequest, resp *CommandResponse) error {
	if !slices.Contains(Commands, req.Name) {
		return fmt.Errorf("unknown command %q", req.Name)
	}
	ctx, logger := s.call()
	logger.Debug("command requested",
		logging.String("command", req.Name),
		logging.Int("arg", req.Arg))
	result, err := s.ctrl.Command(ctx, req)
	if err != nil {
		return err
	}
	*resp = result
	logger.Info("command handled",
		logging.String(logging.FieldEventType, "ipc_command"),
		logging.String("command", req.Name),
		logging.Bool("accepted", result.Accepted),
		logging.String("state", result.State))
	return nil
}

func (s *service) Catalog(_ CatalogRequest, resp *CatalogResponse) error {
	ctx, _ := s.call()
	cat, err := s.ctrl.Catalog(ctx)
	if err != nil {
		return err
	}
	*resp = cat
	return nil
}

func (s *service) History(req HistoryRequest, resp *HistoryResponse) error {
	ctx, _ := s.call()
	hist, err := s.ctrl.History(ctx, req)
	if err != nil {
		return err
	}
	*resp = hist
	return nil
}

func (s *service) LogTail(req LogTailRequest, resp *LogTailResponse) error {
	if s.hub == nil {
		resp.Next = req.Since
		return nil
	}
	if !req.Follow {
		if req.Since == 0 {
			resp.Events, resp.Next = s.hub.Tail(req.Limit)
			return nil
		}
		events, next, err := s.hub.Fetch(s.ctx, req.Since, req.Limit, false)
		resp.Events, resp.Next = events, next
		return err
	}

	wait := time.Duration(req.WaitMillis) * time.Millisecond
	if wait <= 0 {
		wait = defaultLogWait
	}
	wait = min(wait, maxLogWait)
	ctx, cancel := context.WithTimeout(s.ctx, wait)
	defer cancel()
	events, next, err := s.hub.Fetch(ctx, req.Since, req.Limit, true)
	if errors.Is(err, context.DeadlineExceeded) {
		err = nil
	}
	resp.Events, resp.Next = events, next
	return err
}

func (s *service) Stop(_ StopRequest, resp *StopResponse) error {
	_, logger := s.call()
	logger.Info("stop requested",
		logging.String(logging.FieldEventType, "ipc_stop"))
	s.ctrl.Stop()
	resp.Stopped = true
	return nil
}
