package socket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"parley/internal/models"
)

const defaultHandshakeTimeout = 10 * time.Second

type Options struct {
	// URL is the realtime server origin, e.g. http://localhost:3001.
	URL               string
	ReconnectAttempts int
	ReconnectDelay    time.Duration
	HandshakeTimeout  time.Duration
	Dialer            Dialer
}

// Manager owns at most one realtime connection, keyed by the session token.
type Manager struct {
	opts     Options
	endpoint string

	events *Registry
	status statusListeners

	// lifecycle serializes Connect and Disconnect.
	lifecycle sync.Mutex

	mu     sync.Mutex
	token  string
	cancel context.CancelFunc
	done   chan struct{}
	conn   *connection

	connected atomic.Bool
}

func NewManager(opts Options) (*Manager, error) {
	endpoint, err := Endpoint(opts.URL)
	if err != nil {
		return nil, err
	}
	if opts.Dialer == nil {
		opts.Dialer = WebsocketDialer{}
	}
	if opts.HandshakeTimeout <= 0 {
		opts.HandshakeTimeout = defaultHandshakeTimeout
	}
	if opts.ReconnectAttempts < 0 {
		opts.ReconnectAttempts = 0
	}

	return &Manager{
		opts:     opts,
		endpoint: endpoint,
		events:   NewRegistry(),
	}, nil
}

// Endpoint turns an http(s) origin into the Socket.IO WebSocket URL.
func Endpoint(origin string) (string, error) {
	u, err := url.Parse(origin)
	if err != nil {
		return "", fmt.Errorf("invalid socket url %q: %w", origin, err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid socket url %q: unsupported scheme", origin)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid socket url %q: missing host", origin)
	}

	if u.Path == "" || u.Path == "/" {
		u.Path = "/socket.io/"
	}
	q := u.Query()
	q.Set("EIO", "4")
	q.Set("transport", "websocket")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// Connect starts a connection authenticated with token. Calling it again with
// the same token while a connection is active or retrying does nothing; a
// different token replaces the existing connection.
func (m *Manager) Connect(ctx context.Context, token string) error {
	if token == "" {
		return models.ErrNoSession
	}

	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	m.mu.Lock()
	active := m.cancel != nil
	same := m.token == token
	m.mu.Unlock()

	if active && same {
		return nil
	}
	if active {
		slog.Info("session changed, replacing realtime connection")
		m.stop()
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	m.mu.Lock()
	m.token = token
	m.cancel = cancel
	m.done = done
	m.mu.Unlock()

	go m.run(runCtx, token, done)
	return nil
}

// Disconnect tears the connection down and stops reconnecting. It is a no-op
// when nothing is connected.
func (m *Manager) Disconnect() {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()
	m.stop()
}

func (m *Manager) stop() {
	m.mu.Lock()
	cancel, done, conn := m.cancel, m.done, m.conn
	m.cancel = nil
	m.token = ""
	m.mu.Unlock()

	if cancel == nil {
		return
	}
	if conn != nil {
		conn.close()
	}
	cancel()
	<-done
}

func (m *Manager) run(ctx context.Context, token string, done chan struct{}) {
	defer func() {
		m.mu.Lock()
		if m.done == done {
			m.cancel = nil
			m.token = ""
		}
		m.mu.Unlock()
		close(done)
	}()

	attempt := 0
	for {
		wasConnected, err := m.session(ctx, token)
		if ctx.Err() != nil || !m.current(done) {
			return
		}
		if wasConnected {
			attempt = 0
		}
		if err != nil {
			slog.Error("realtime connection error", "error", err, "attempt", attempt)
		}
		if errors.Is(err, ErrRejected) {
			return
		}
		if attempt >= m.opts.ReconnectAttempts {
			slog.Warn("giving up on realtime connection", "attempts", attempt)
			return
		}
		attempt++

		t := time.NewTimer(m.opts.ReconnectDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			return
		case <-t.C:
		}
	}
}

// current reports whether the run owning done has not been stopped.
func (m *Manager) current(done chan struct{}) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.done == done && m.cancel != nil
}

func (m *Manager) session(ctx context.Context, token string) (bool, error) {
	ws, err := m.opts.Dialer.Dial(ctx, m.endpoint)
	if err != nil {
		return false, fmt.Errorf("dial: %w", err)
	}

	// Unblock the handshake reads if the run is stopped meanwhile.
	stopWatch := context.AfterFunc(ctx, func() { _ = ws.Close() })
	conn, err := handshake(ws, token, m.opts.HandshakeTimeout, m.events.Dispatch)
	stopWatch()
	if err != nil {
		_ = ws.Close()
		return false, err
	}

	m.mu.Lock()
	if ctx.Err() != nil {
		m.mu.Unlock()
		conn.close()
		return false, nil
	}
	m.conn = conn
	m.mu.Unlock()

	slog.Info("realtime connected", "sid", conn.sid)
	m.setConnected(true)

	err = conn.Handle(ctx)

	m.mu.Lock()
	m.conn = nil
	m.mu.Unlock()
	conn.close()

	slog.Info("realtime disconnected")
	m.setConnected(false)

	return true, err
}

func (m *Manager) setConnected(v bool) {
	if m.connected.Swap(v) != v {
		m.status.notify(v)
	}
}

func (m *Manager) Connected() bool {
	return m.connected.Load()
}

// OnStatus calls fn on every connected/disconnected transition.
func (m *Manager) OnStatus(fn func(connected bool)) *Subscription {
	return m.status.add(fn)
}

// WaitConnected blocks until the manager is connected or ctx ends.
func (m *Manager) WaitConnected(ctx context.Context) error {
	up := make(chan struct{}, 1)
	sub := m.OnStatus(func(connected bool) {
		if connected {
			select {
			case up <- struct{}{}:
			default:
			}
		}
	})
	defer sub.Close()

	if m.Connected() {
		return nil
	}
	select {
	case <-up:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Emit sends event to the server. It fails with models.ErrNotConnected
// instead of queueing while the connection is down.
func (m *Manager) Emit(event models.EventType, payload any) error {
	m.mu.Lock()
	conn := m.conn
	m.mu.Unlock()

	if conn == nil {
		return models.ErrNotConnected
	}
	return conn.emit(event, payload)
}

// Subscribe registers fn for an inbound event. Handlers run one at a time on
// the connection's read loop and must not call Disconnect or Connect.
func (m *Manager) Subscribe(event models.EventType, fn Handler) *Subscription {
	return m.events.Subscribe(event, fn)
}
