// Package websocket serves the feed protocol to browser and CLI clients.
package websocket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	feedapp "github.com/fd1az/cycle-arbitrage/business/feed/app"
	"github.com/fd1az/cycle-arbitrage/business/feed/domain"
	"github.com/fd1az/cycle-arbitrage/internal/apperror"
	"github.com/fd1az/cycle-arbitrage/internal/logger"
)

// SessionHub opens and closes protocol sessions.
type SessionHub interface {
	Open(storeID int) (*feedapp.Session, error)
	Close(id string) error
}

var _ SessionHub = (*feedapp.Hub)(nil)

// Config configures the listener.
type Config struct {
	Addr           string
	DefaultStore   int
	WriteTimeout   time.Duration
	MaxMessageSize int64
}

// Server accepts one session per connection. Requests are answered inline
// and the session's pushes are drained by a writer goroutine.
type Server struct {
	hub    SessionHub
	cfg    Config
	logger logger.LoggerInterface

	srv      *http.Server
	listener net.Listener

	ctx    context.Context
	cancel context.CancelFunc
	conns  sync.WaitGroup
}

func NewServer(hub SessionHub, cfg Config, log logger.LoggerInterface) *Server {
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	if cfg.MaxMessageSize <= 0 {
		cfg.MaxMessageSize = 1 << 16
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		hub:    hub,
		cfg:    cfg,
		logger: log,
		ctx:    ctx,
		cancel: cancel,
	}
	s.srv = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	return s
}

// Handler upgrades every request on "/". The optional ?store= query
// selects the price store; it defaults to Config.DefaultStore.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.serveWS)
	return mux
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return apperror.New(apperror.CodeConfigurationError,
			apperror.WithCause(err), apperror.WithContext("listen "+s.cfg.Addr))
	}
	s.listener = ln

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error(s.ctx, "feed server stopped", "error", err)
		}
	}()

	s.logger.Info(s.ctx, "feed server listening", "addr", ln.Addr().String())
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting, cancels live connections and waits for their
// sessions to close.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	s.cancel()

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	storeID := s.cfg.DefaultStore
	if raw := r.URL.Query().Get("store"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid store id", http.StatusBadRequest)
			return
		}
		storeID = id
	}

	session, err := s.hub.Open(storeID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
	if err != nil {
		s.logger.Warn(r.Context(), "websocket accept failed", "error", err)
		_ = s.hub.Close(session.ID())
		return
	}
	conn.SetReadLimit(s.cfg.MaxMessageSize)

	s.conns.Add(1)
	defer s.conns.Done()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	log := s.logger.With("session", session.ID(), "store", storeID)
	log.Info(ctx, "session opened", "remote", r.RemoteAddr)

	pushDone := make(chan struct{})
	go func() {
		defer close(pushDone)
		s.push(ctx, cancel, conn, session)
	}()

	s.read(ctx, conn, session, log)

	cancel()
	_ = s.hub.Close(session.ID())
	<-pushDone
	_ = conn.Close(websocket.StatusNormalClosure, "")
	log.Info(context.Background(), "session closed")
}

// read answers requests until the peer goes away or a write fails.
func (s *Server) read(ctx context.Context, conn *websocket.Conn, session *feedapp.Session, log logger.LoggerInterface) {
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil && websocket.CloseStatus(err) == -1 {
				log.Debug(ctx, "read failed", "error", err)
			}
			return
		}

		resp := session.HandleRequest(ctx, data)
		if err := s.write(ctx, conn, resp); err != nil {
			log.Debug(ctx, "reply failed", "error", err)
			return
		}
	}
}

// push forwards the session's queued responses. A failed write tears the
// connection down.
func (s *Server) push(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, session *feedapp.Session) {
	for {
		select {
		case <-ctx.Done():
			return
		case resp, ok := <-session.Messages():
			if !ok {
				return
			}
			if err := s.write(ctx, conn, resp); err != nil {
				cancel()
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, resp domain.Response) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.WriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, resp)
}
