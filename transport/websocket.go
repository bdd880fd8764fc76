package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/hedeqiang/anchor/event"
	"github.com/hedeqiang/anchor/internal/identity"
	"github.com/hedeqiang/anchor/internal/syncutil"
	"github.com/hedeqiang/anchor/position"
	"github.com/hedeqiang/anchor/retry"
	"github.com/hedeqiang/anchor/stream"
)

// WebSocket implements stream.Source over a WebSocket connection.
// A dropped connection is redialed with backoff and the subscription is
// re-established from the last marked position; the resulting stream
// delivers a reconnect event before any redelivered message.
type WebSocket struct {
	url    string
	config Config
}

// NewWebSocket creates a WebSocket source for the given endpoint.
func NewWebSocket(url string, cfg Config) *WebSocket {
	return &WebSocket{url: url, config: cfg.withDefaults()}
}

// frame is the wire envelope exchanged with the server.
type frame struct {
	Type       string `json:"type"`
	Key        string `json:"key,omitempty"`
	Data       []byte `json:"data,omitempty"`
	Position   string `json:"position,omitempty"`
	EndOfBlock bool   `json:"endOfBlock,omitempty"`
	Message    string `json:"message,omitempty"`
	Terminal   bool   `json:"terminal,omitempty"`
	Query      string `json:"query,omitempty"`
	From       string `json:"from,omitempty"`
	Origin     string `json:"origin,omitempty"`
}

// Subscribe dials the endpoint, sends the subscription request, and
// returns the live stream.
func (w *WebSocket) Subscribe(ctx context.Context, q stream.Query, from position.Position) (stream.Stream, error) {
	s := &wsStream{
		url:    w.url,
		config: w.config,
		query:  q,
		ch:     make(chan event.Event, w.config.Buffer),
		logger: w.config.Logger,
		marked: from,
		group:  syncutil.NewGroup(ctx),
	}
	if w.config.BreakerThreshold > 0 {
		s.breaker = retry.NewCircuitBreaker(w.config.BreakerThreshold, w.config.BreakerReset)
	}

	conn, err := s.dial(ctx)
	if err != nil {
		s.group.Stop()
		return nil, &stream.TransportError{Err: err, Terminal: true}
	}
	s.conn = conn

	if err := s.sendSubscribe(); err != nil {
		conn.Close()
		s.group.Stop()
		return nil, &stream.TransportError{Err: err, Terminal: true}
	}

	s.group.Go(s.run)
	return s, nil
}

type wsStream struct {
	url     string
	config  Config
	query   stream.Query
	ch      chan event.Event
	logger  *slog.Logger
	breaker *retry.CircuitBreaker
	group   *syncutil.Group

	mu     sync.Mutex
	conn   *websocket.Conn
	marked position.Position
	closed bool
}

// Events returns the normalized event channel.
func (s *wsStream) Events() <-chan event.Event {
	return s.ch
}

// Mark records the resume position and acknowledges it to the server.
// A send failure is not fatal: the recorded position still governs the
// resubscribe after the next reconnect.
func (s *wsStream) Mark(pos position.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marked = pos
	if s.conn == nil {
		return nil // mid-reconnect; position rides along on resubscribe
	}
	return s.conn.WriteJSON(frame{Type: "mark", Position: pos.Encode()})
}

// Close terminates the stream and the connection.
func (s *wsStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
	s.group.Stop()
	return nil
}

func (s *wsStream) dial(ctx context.Context) (*websocket.Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.HandshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("transport/ws: dial %s: %w", s.url, err)
	}
	return conn, nil
}

func (s *wsStream) sendSubscribe() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("transport/ws: not connected")
	}

	f := frame{Type: "subscribe", Query: s.query.Expression}
	if s.marked != nil {
		f.From = s.marked.Encode()
	} else if s.query.Origin == stream.OriginEarliest {
		f.Origin = "earliest"
	} else {
		f.Origin = "latest"
	}
	if err := s.conn.WriteJSON(f); err != nil {
		return fmt.Errorf("transport/ws: subscribe: %w", err)
	}
	return nil
}

// run reads frames until the connection drops, then reconnects and
// resubscribes. It is the only writer to the event channel, so the
// reconnect marker is ordered ahead of every redelivered event.
func (s *wsStream) run(ctx context.Context) {
	defer close(s.ch)

	for {
		err := s.readLoop(ctx)
		if err == nil {
			return // complete or closed
		}
		if ctx.Err() != nil {
			return
		}

		s.logger.Warn("connection lost, reconnecting", "url", s.url, "err", err)
		s.emit(ctx, event.Errorf(&stream.TransportError{Err: err}, false))

		if !s.reconnect(ctx) {
			return
		}
		s.emit(ctx, event.Reconnect())
	}
}

// readLoop consumes frames from the current connection. It returns nil
// when the stream is finished and an error when the connection dropped.
func (s *wsStream) readLoop(ctx context.Context) error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport/ws: not connected")
	}

	for {
		var f frame
		if err := conn.ReadJSON(&f); err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			return fmt.Errorf("transport/ws: read: %w", err)
		}

		switch f.Type {
		case "data":
			pos, err := position.Parse(f.Position)
			if err != nil {
				s.logger.Warn("dropping frame with bad position", "position", f.Position, "err", err)
				continue
			}
			key := f.Key
			if key == "" {
				key = identity.Key(f.Position, f.Data)
			}
			ev := event.Data(event.Payload{Key: key, Data: f.Data}, pos)
			ev.EndOfBlock = f.EndOfBlock
			s.emit(ctx, ev)
		case "progress":
			pos, err := position.Parse(f.Position)
			if err != nil {
				s.logger.Warn("dropping frame with bad position", "position", f.Position, "err", err)
				continue
			}
			s.emit(ctx, event.Progress(pos))
		case "error":
			terr := &stream.TransportError{Err: fmt.Errorf("%s", f.Message), Terminal: f.Terminal}
			s.emit(ctx, event.Errorf(terr, f.Terminal))
			if f.Terminal {
				return nil
			}
		case "complete":
			s.emit(ctx, event.Complete())
			return nil
		default:
			s.logger.Debug("ignoring unknown frame", "type", f.Type)
		}
	}
}

// reconnect redials and resubscribes from the marked position. Returns
// false when the stream should give up; a terminal error has then been
// emitted.
func (s *wsStream) reconnect(ctx context.Context) bool {
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
	}
	s.mu.Unlock()

	err := retry.Do(ctx, s.config.Reconnect, func(ctx context.Context) error {
		if s.breaker != nil && !s.breaker.Allow() {
			return fmt.Errorf("transport/ws: circuit open")
		}

		conn, err := s.dial(ctx)
		if err != nil {
			if s.breaker != nil {
				s.breaker.RecordFailure()
			}
			return err
		}

		s.mu.Lock()
		s.conn = conn
		s.mu.Unlock()

		if err := s.sendSubscribe(); err != nil {
			if s.breaker != nil {
				s.breaker.RecordFailure()
			}
			s.mu.Lock()
			s.conn = nil
			s.mu.Unlock()
			conn.Close()
			return err
		}

		if s.breaker != nil {
			s.breaker.RecordSuccess()
		}
		return nil
	})
	if err != nil {
		if ctx.Err() == nil {
			s.emit(ctx, event.Errorf(&stream.TransportError{Err: err, Terminal: true}, true))
		}
		return false
	}
	return true
}

func (s *wsStream) emit(ctx context.Context, ev event.Event) {
	select {
	case s.ch <- ev:
	case <-ctx.Done():
	}
}
