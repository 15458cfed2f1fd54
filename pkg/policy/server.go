package policy

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/logging"
)

// Document is the cross-domain policy served to every connection.
const Document = `<cross-domain-policy><allow-access-from domain="*" to-ports="*" /></cross-domain-policy>`

// DefaultListenAddr is the port socket-policy clients probe.
const DefaultListenAddr = ":843"

// Config holds responder settings.
type Config struct {
	ListenAddr   string
	WriteTimeout time.Duration
}

// Server answers every TCP connection with Document and closes it.
// It does not read the client's request.
type Server struct {
	logger *logging.ColoredLogger
	config Config

	mu       sync.Mutex
	listener net.Listener
	wg       sync.WaitGroup
}

// NewServer creates a policy responder. A nil logger disables logging.
func NewServer(logger *logging.ColoredLogger, cfg Config) *Server {
	if logger == nil {
		logger = logging.NewNop()
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = DefaultListenAddr
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}
	return &Server{logger: logger, config: cfg}
}

// Listen binds the configured address. Serve calls it when needed.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}

	ln, err := net.Listen("tcp", s.config.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddr, err)
	}
	s.listener = ln
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then waits for
// in-flight responses and returns nil.
func (s *Server) Serve(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()

	s.logger.ComponentInfo(logging.ComponentPolicy, "policy server listening",
		zap.String("listen_addr", ln.Addr().String()))

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		ln.Close()
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			s.logger.ComponentError(logging.ComponentPolicy, "accept error", zap.Error(err))
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			s.wg.Wait()
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func(c net.Conn) {
			defer s.wg.Done()
			s.respond(c)
		}(conn)
	}

	s.wg.Wait()
	s.logger.ComponentInfo(logging.ComponentPolicy, "policy server stopped")
	return nil
}

func (s *Server) respond(conn net.Conn) {
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	if _, err := conn.Write([]byte(Document)); err != nil {
		s.logger.ComponentWarn(logging.ComponentPolicy, "failed to write policy",
			zap.String("remote", conn.RemoteAddr().String()),
			zap.Error(err))
		return
	}
	s.logger.ComponentDebug(logging.ComponentPolicy, "policy served",
		zap.String("remote", conn.RemoteAddr().String()))

	// Half-close and drain whatever request the client sent, so the final
	// close does not reset the connection before the client read the policy.
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.CloseWrite()
		_ = conn.SetReadDeadline(time.Now().Add(s.config.WriteTimeout))
		_, _ = io.Copy(io.Discard, io.LimitReader(conn, 4096))
	}
}
