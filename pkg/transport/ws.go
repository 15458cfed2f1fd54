package transport

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/DeBrosOfficial/hermes/pkg/client"
	"github.com/DeBrosOfficial/hermes/pkg/errors"
	"github.com/DeBrosOfficial/hermes/pkg/logging"
)

// Config controls how the WebSocket transport dials and reconnects.
type Config struct {
	URL              string
	Header           http.Header
	Reconnect        bool
	MinBackoff       time.Duration
	MaxBackoff       time.Duration
	WriteTimeout     time.Duration
	HandshakeTimeout time.Duration
	// PingInterval sends client pings to keep intermediaries from idling
	// the connection out. Zero disables pings.
	PingInterval time.Duration
}

// DefaultConfig returns the transport defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:              url,
		Reconnect:        true,
		MinBackoff:       500 * time.Millisecond,
		MaxBackoff:       30 * time.Second,
		WriteTimeout:     10 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// WS is a WebSocket transport. Each successful dial is reported to the
// handler as a new open connection; every loss as a close. Frames are
// delivered from a single read goroutine, in arrival order.
type WS struct {
	cfg    Config
	dialer *websocket.Dialer
	logger *logging.ColoredLogger
}

// Option customizes a WS transport.
type Option func(*WS)

// WithLogger sets the component logger.
func WithLogger(l *logging.ColoredLogger) Option {
	return func(w *WS) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithDialer replaces the default gorilla dialer.
func WithDialer(d *websocket.Dialer) Option {
	return func(w *WS) {
		if d != nil {
			w.dialer = d
		}
	}
}

// New creates a WebSocket transport.
func New(cfg Config, opts ...Option) *WS {
	w := &WS{
		cfg: cfg,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

var _ client.Transport = (*WS)(nil)

// Run dials the broker and pumps events into h until ctx is cancelled.
// Without Reconnect it returns after the first connection ends.
func (w *WS) Run(ctx context.Context, h client.Handler) error {
	b := backoff.NewExponentialBackOff()
	if w.cfg.MinBackoff > 0 {
		b.InitialInterval = w.cfg.MinBackoff
	}
	if w.cfg.MaxBackoff > 0 {
		b.MaxInterval = w.cfg.MaxBackoff
	}

	for {
		opened, err := w.session(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if !w.cfg.Reconnect {
			return err
		}
		if opened {
			b.Reset()
		}

		wait := b.NextBackOff()
		w.logger.ComponentInfo(logging.ComponentTransport, "reconnecting",
			zap.String("url", w.cfg.URL),
			zap.Duration("backoff", wait),
			zap.Error(err))

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

// session runs one connection from dial to close. opened reports whether
// the dial succeeded.
func (w *WS) session(ctx context.Context, h client.Handler) (opened bool, err error) {
	conn, _, err := w.dialer.DialContext(ctx, w.cfg.URL, w.cfg.Header)
	if err != nil {
		terr := errors.NewTransportError("dial", err)
		if ctx.Err() == nil {
			h.OnClose(terr)
		}
		return false, terr
	}

	c := &wsConn{conn: conn, writeTimeout: w.cfg.WriteTimeout}
	w.logger.ComponentInfo(logging.ComponentTransport, "connected", zap.String("url", w.cfg.URL))
	h.OnOpen(c)

	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		w.watch(ctx, c, stop)
	}()
	defer func() {
		close(stop)
		wg.Wait()
	}()

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			_ = c.close()
			if ctx.Err() != nil || websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.OnClose(nil)
				return true, nil
			}
			terr := errors.NewTransportError("read", rerr)
			h.OnClose(terr)
			return true, terr
		}
		h.OnMessage(data)
	}
}

// watch closes the connection on cancellation and sends keep-alive pings.
func (w *WS) watch(ctx context.Context, c *wsConn, stop <-chan struct{}) {
	var ping <-chan time.Time
	if w.cfg.PingInterval > 0 {
		ticker := time.NewTicker(w.cfg.PingInterval)
		defer ticker.Stop()
		ping = ticker.C
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			_ = c.closeNormal()
			return
		case <-ping:
			if err := c.ping(); err != nil {
				w.logger.ComponentDebug(logging.ComponentTransport, "ping failed", zap.Error(err))
				_ = c.close()
				return
			}
		}
	}
}

// wsConn is the client.Sender for one WebSocket connection.
type wsConn struct {
	conn         *websocket.Conn
	writeTimeout time.Duration
	mu           sync.Mutex
}

// Send writes frame as a single text message. A failed write closes the
// connection so the read loop observes the loss.
func (c *wsConn) Send(frame string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		_ = c.conn.Close()
		return err
	}
	return nil
}

func (c *wsConn) ping() error {
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.deadline()))
}

func (c *wsConn) closeNormal() error {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.deadline()))
	return c.conn.Close()
}

func (c *wsConn) close() error {
	return c.conn.Close()
}

func (c *wsConn) deadline() time.Duration {
	if c.writeTimeout > 0 {
		return c.writeTimeout
	}
	return time.Second
}
