// Package websocket serves server-side websocket sessions with keepalive and a
// bounded, latest-wins outbound queue.
package websocket

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// ErrSessionClosed is returned when sending on a closed session.
var ErrSessionClosed = errors.New("session closed")

// Config holds session configuration.
type Config struct {
	PingInterval   time.Duration
	PongTimeout    time.Duration
	WriteTimeout   time.Duration
	SendBufferSize int
	// CheckOrigin decides whether an upgrade request is allowed. Nil allows all origins.
	CheckOrigin func(r *http.Request) bool
	Logger      *zap.Logger
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.PingInterval <= 0 {
		out.PingInterval = 30 * time.Second
	}
	if out.PongTimeout <= 0 {
		out.PongTimeout = 60 * time.Second
	}
	if out.WriteTimeout <= 0 {
		out.WriteTimeout = 10 * time.Second
	}
	if out.SendBufferSize <= 0 {
		out.SendBufferSize = 16
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = func(*http.Request) bool { return true }
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return out
}

// MessageHandler handles one inbound text message.
type MessageHandler func(ctx context.Context, message []byte) error

// Session is one accepted websocket connection.
type Session struct {
	id     string
	conn   *websocket.Conn
	config Config
	logger *zap.Logger

	send   chan []byte
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed    atomic.Bool
	closeOnce sync.Once
	started   time.Time
}

// Upgrade upgrades an HTTP request to a websocket session.
func Upgrade(w http.ResponseWriter, r *http.Request, id string, cfg Config) (*Session, error) {
	c := cfg.withDefaults()
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     c.CheckOrigin,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("upgrade: %w", err)
	}

	return newSession(conn, id, c), nil
}

func newSession(conn *websocket.Conn, id string, c Config) *Session {
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:      id,
		conn:    conn,
		config:  c,
		logger:  c.Logger.With(zap.String("session-id", id)),
		send:    make(chan []byte, c.SendBufferSize),
		ctx:     ctx,
		cancel:  cancel,
		started: time.Now(),
	}
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Context is cancelled when the session ends.
func (s *Session) Context() context.Context {
	return s.ctx
}

// Run serves the session until the peer disconnects, the keepalive times out or
// ctx is cancelled. Inbound messages are passed to handle in order; a handler
// error ends the session.
func (s *Session) Run(ctx context.Context, handle MessageHandler) error {
	ActiveSessions.Inc()
	defer ActiveSessions.Dec()
	defer s.Close()

	stop := context.AfterFunc(ctx, s.Close)
	defer stop()

	_ = s.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	s.wg.Add(1)
	go s.writeLoop()

	s.logger.Info("websocket-session-started")

	err := s.readLoop(handle)

	SessionDuration.Observe(time.Since(s.started).Seconds())
	s.logger.Info("websocket-session-ended", zap.Error(err))
	return err
}

func (s *Session) readLoop(handle MessageHandler) error {
	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			if s.closed.Load() || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		MessagesReceivedTotal.Inc()

		err = handle(s.ctx, message)
		if err != nil {
			return fmt.Errorf("handle message: %w", err)
		}
	}
}

// writeLoop owns all writes to the connection, including pings.
func (s *Session) writeLoop() {
	defer s.wg.Done()
	// unblocks the reader once writing stops
	defer s.conn.Close()

	ticker := time.NewTicker(s.config.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			_ = s.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(time.Second))
			return
		case msg := <-s.send:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
			err := s.conn.WriteMessage(websocket.TextMessage, msg)
			if err != nil {
				s.logger.Warn("websocket-write-error", zap.Error(err))
				s.cancel()
				return
			}
			MessagesSentTotal.Inc()
		case <-ticker.C:
			err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.config.WriteTimeout))
			if err != nil {
				s.logger.Warn("ping-error", zap.Error(err))
				s.cancel()
				return
			}
		}
	}
}

// SendJSON queues v for delivery. When the queue is full the oldest queued
// message is dropped so the peer always receives the newest state.
func (s *Session) SendJSON(v interface{}) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	msg, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	for {
		select {
		case s.send <- msg:
			return nil
		default:
		}

		select {
		case <-s.send:
			MessagesDroppedTotal.WithLabelValues("superseded").Inc()
		default:
		}

		if s.closed.Load() {
			return ErrSessionClosed
		}
	}
}

// Close ends the session and waits for the writer to exit.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.cancel()
		s.wg.Wait()
		_ = s.conn.Close()
	})
}
