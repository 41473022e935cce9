package socket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"parley/internal/models"
)

const (
	defaultPingWait = 45 * time.Second

	// writeWait bounds every write so a peer that stops reading cannot pin writeMu.
	writeWait = 10 * time.Second
	closeWait = time.Second
)

var (
	// ErrRejected is returned when the server refuses the namespace connect,
	// usually because the token is invalid. Rejected sessions are not retried.
	ErrRejected = errors.New("connection rejected")

	errServerClosed = errors.New("server closed the connection")
)

// Conn is the subset of *websocket.Conn the manager needs.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Dialer opens the underlying WebSocket.
type Dialer interface {
	Dial(ctx context.Context, url string) (Conn, error)
}

// WebsocketDialer dials with gorilla/websocket.
type WebsocketDialer struct {
	Dialer *websocket.Dialer
	Header http.Header
}

func (d WebsocketDialer) Dial(ctx context.Context, url string) (Conn, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	ws, resp, err := dialer.DialContext(ctx, url, d.Header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("%w (status %d)", err, resp.StatusCode)
		}
		return nil, err
	}
	return ws, nil
}

type connection struct {
	ws       Conn
	dispatch func(models.EventType, json.RawMessage)
	pingWait time.Duration
	sid      string

	writeMu sync.Mutex
	closed  atomic.Bool

	frames  chan frame
	errorCh chan error
}

// handshake reads the Engine.IO open packet, connects to the root namespace
// with token as auth and waits for the server to accept.
func handshake(ws Conn, token string, timeout time.Duration, dispatch func(models.EventType, json.RawMessage)) (*connection, error) {
	c := &connection{
		ws:       ws,
		dispatch: dispatch,
		pingWait: defaultPingWait,
		frames:   make(chan frame),
		errorCh:  make(chan error, 2),
	}

	if err := ws.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}

	f, err := c.read()
	if err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}
	if f.engine != engineOpen {
		return nil, fmt.Errorf("handshake: expected open packet, got %q", f.engine)
	}

	var open openPayload
	if err := json.Unmarshal(f.data, &open); err != nil {
		return nil, fmt.Errorf("handshake: %w: %v", errMalformedData, err)
	}
	if open.PingInterval > 0 && open.PingTimeout > 0 {
		c.pingWait = time.Duration(open.PingInterval+open.PingTimeout) * time.Millisecond
	}

	packet, err := encodeConnect(map[string]string{"token": token})
	if err != nil {
		return nil, err
	}
	if err := c.write(packet); err != nil {
		return nil, fmt.Errorf("handshake: %w", err)
	}

	for {
		f, err := c.read()
		if err != nil {
			return nil, fmt.Errorf("handshake: %w", err)
		}

		switch {
		case f.engine == enginePing:
			if err := c.write([]byte{enginePong}); err != nil {
				return nil, fmt.Errorf("handshake: %w", err)
			}
		case f.engine == engineClose:
			return nil, fmt.Errorf("handshake: %w", errServerClosed)
		case f.engine != engineMessage || !f.inRootNamespace():
		case f.socket == socketConnect:
			var ack struct {
				SID string `json:"sid"`
			}
			_ = json.Unmarshal(f.data, &ack)
			c.sid = ack.SID
			return c, nil
		case f.socket == socketConnectError:
			var reason connectErrorPayload
			_ = json.Unmarshal(f.data, &reason)
			if reason.Message == "" {
				return nil, ErrRejected
			}
			return nil, fmt.Errorf("%w: %s", ErrRejected, reason.Message)
		}
	}
}

func (c *connection) read() (frame, error) {
	for {
		msgType, raw, err := c.ws.ReadMessage()
		if err != nil {
			return frame{}, err
		}
		if msgType != websocket.TextMessage {
			slog.Debug("ignoring binary frame")
			continue
		}
		return decodeFrame(raw)
	}
}

func (c *connection) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if c.closed.Load() {
		return models.ErrNotConnected
	}
	if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Handle runs the connection until the server goes away or ctx ends.
func (c *connection) Handle(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Go(func() {
		c.errorCh <- c.pumpFrames(ctx)
		cancel()
	})

	wg.Go(func() {
		c.errorCh <- c.mainLoop(ctx)
		cancel()
	})

	var err error
	select {
	case err = <-c.errorCh:
	case <-ctx.Done():
	}
	_ = c.ws.Close()
	wg.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (c *connection) pumpFrames(ctx context.Context) error {
	for {
		if err := c.ws.SetReadDeadline(time.Now().Add(c.pingWait)); err != nil {
			return err
		}
		f, err := c.read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		select {
		case c.frames <- f:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *connection) mainLoop(ctx context.Context) error {
	for {
		select {
		case f := <-c.frames:
			if err := c.process(f); err != nil {
				return err
			}
		case <-ctx.Done():
			return nil
		}
	}
}

func (c *connection) process(f frame) error {
	switch f.engine {
	case enginePing:
		return c.write([]byte{enginePong})
	case engineClose:
		return errServerClosed
	case engineMessage:
	default:
		return nil
	}

	if !f.inRootNamespace() {
		return nil
	}

	switch f.socket {
	case socketEvent:
		event, payload, err := decodeEvent(f.data)
		if err != nil {
			slog.Warn("dropping malformed event packet", "error", err)
			return nil
		}
		c.dispatch(event, payload)
	case socketDisconnect:
		return errServerClosed
	case socketConnectError:
		var reason connectErrorPayload
		_ = json.Unmarshal(f.data, &reason)
		return fmt.Errorf("%w: %s", ErrRejected, reason.Message)
	}
	return nil
}

func (c *connection) emit(event models.EventType, payload any) error {
	packet, err := encodeEvent(event, payload)
	if err != nil {
		return err
	}
	return c.write(packet)
}

// close sends a namespace disconnect and closes the socket. It never waits
// on writeMu: when a write is in flight the disconnect packet is skipped and
// closing the socket releases the writer. Safe to call twice.
func (c *connection) close() {
	if !c.closed.CompareAndSwap(false, true) {
		return
	}
	if c.writeMu.TryLock() {
		if err := c.ws.SetWriteDeadline(time.Now().Add(closeWait)); err == nil {
			_ = c.ws.WriteMessage(websocket.TextMessage, encodeDisconnect())
		}
		c.writeMu.Unlock()
	}
	_ = c.ws.Close()
}
