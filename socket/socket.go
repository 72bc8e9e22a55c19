// Package socket serves a relay dispatcher over a single websocket. Text
// frames carry JSON envelopes and binary frames carry the proto encoding;
// responses are written in the encoding of the request they answer.
//
// One dispatcher may serve many connections. Handlers receive the *Conn the
// envelope arrived on, so they can tell peers apart and talk back to them.
package socket

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	runtimepkg "github.com/drblury/relay/internal/runtime"
	errspkg "github.com/drblury/relay/internal/runtime/errors"
	idspkg "github.com/drblury/relay/internal/runtime/ids"
	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
)

const defaultWriteTimeout = 10 * time.Second

type (
	// Dispatcher routes envelopes received on any number of connections.
	Dispatcher = runtimepkg.Dispatcher[*Conn]
	// Handlers are handlers served over websockets.
	Handlers = runtimepkg.Handlers[*Conn]
)

// NewDispatcher builds a dispatcher for websocket connections. ErrorEncoder
// defaults to EncodeErrorMessage so failures survive the wire.
func NewDispatcher(opts runtimepkg.Options[*Conn]) *Dispatcher {
	if opts.ErrorEncoder == nil {
		opts.ErrorEncoder = runtimepkg.EncodeErrorMessage
	}
	return runtimepkg.NewDispatcher(opts)
}

// Options configures a Conn.
type Options struct {
	// Identity is used as From on envelopes this side originates.
	Identity string
	// PeerIdentity is the To address of Call and Notify.
	PeerIdentity string
	// Binary sends Call and Notify as proto binary frames instead of JSON text.
	Binary bool
	// WriteTimeout bounds each frame write. Defaults to 10s.
	WriteTimeout time.Duration
	Logger       loggingpkg.ServiceLogger
}

// Conn is one websocket peer. Reads happen only in Serve; writes may come
// from any goroutine.
type Conn struct {
	ws         *websocket.Conn
	dispatcher *Dispatcher

	identity     string
	peerIdentity string
	codec        runtimepkg.Codec
	writeTimeout time.Duration
	logger       loggingpkg.ServiceLogger

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
	done      chan struct{}
}

// NewConn wraps an established websocket.
func NewConn(ws *websocket.Conn, d *Dispatcher, opts Options) (*Conn, error) {
	if ws == nil {
		return nil, errspkg.ErrConnectionRequired
	}
	if d == nil {
		return nil, errspkg.ErrDispatcherRequired
	}

	logger := loggingpkg.OrNop(opts.Logger)
	var codec runtimepkg.Codec = runtimepkg.JSONCodec{}
	if opts.Binary {
		codec = runtimepkg.ProtoCodec{}
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = defaultWriteTimeout
	}

	return &Conn{
		ws:           ws,
		dispatcher:   d,
		identity:     opts.Identity,
		peerIdentity: opts.PeerIdentity,
		codec:        codec,
		writeTimeout: timeout,
		logger: logger.With(loggingpkg.LogFields{
			"remote_addr": ws.RemoteAddr().String(),
		}),
		done: make(chan struct{}),
	}, nil
}

// Upgrade upgrades an HTTP request and wraps the result. The upgrader's
// error response has already been written when err is not nil.
func Upgrade(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request, d *Dispatcher, opts Options) (*Conn, error) {
	if upgrader == nil {
		upgrader = &websocket.Upgrader{}
	}
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	conn, err := NewConn(ws, d, opts)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	return conn, nil
}

// Dial connects to a websocket server and wraps the connection.
func Dial(ctx context.Context, url string, d *Dispatcher, opts Options) (*Conn, error) {
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}
	conn, err := NewConn(ws, d, opts)
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	return conn, nil
}

// Serve reads frames until the socket closes or ctx is done, dispatching each
// envelope with c as the sender. A clean close returns nil.
func (c *Conn) Serve(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	stop := context.AfterFunc(ctx, func() { _ = c.Close() })
	defer stop()

	for {
		kind, data, err := c.ws.ReadMessage()
		if err != nil {
			_ = c.Close()
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if isClosed(err) {
				return nil
			}
			return err
		}

		codec := c.codecFor(kind)
		env, err := codec.Unmarshal(data)
		if err != nil {
			c.logger.Error("Invalid message", err, loggingpkg.LogFields{"codec": codec.Name()})
			continue
		}

		c.dispatcher.Dispatch(ctx, env, c, func(res runtimepkg.Message) {
			if err := c.write(codec, res); err != nil {
				c.logger.Error("Failed to write response", err, loggingpkg.LogFields{"id": res.ID})
			}
		})
	}
}

// Call sends a request to the peer and waits for its response.
func (c *Conn) Call(ctx context.Context, method string, args runtimepkg.Args) (any, error) {
	req := runtimepkg.NewRequest(c.identity, c.peerIdentity, idspkg.NewCorrelationID(), method, args)
	return runtimepkg.Request(ctx, c.dispatcher, req, func(_ context.Context, env runtimepkg.Message) error {
		return c.write(c.codec, env)
	})
}

// Notify sends a notification to the peer.
func (c *Conn) Notify(method string, args runtimepkg.Args) error {
	return c.write(c.codec, runtimepkg.NewNotification(c.identity, c.peerIdentity, method, args))
}

// Dispatcher returns the dispatcher serving this connection.
func (c *Conn) Dispatcher() *Dispatcher {
	return c.dispatcher
}

// RemoteAddr returns the peer's network address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.ws.RemoteAddr()
}

// Done is closed once the connection is closed.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Close sends a close frame and closes the socket. Safe to call more than
// once.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		deadline := time.Now().Add(time.Second)
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		c.closeErr = c.ws.Close()
		close(c.done)
	})
	return c.closeErr
}

func (c *Conn) write(codec runtimepkg.Codec, env runtimepkg.Message) error {
	select {
	case <-c.done:
		return net.ErrClosed
	default:
	}

	data, err := codec.Marshal(env)
	if err != nil {
		return err
	}
	kind := websocket.TextMessage
	if codec.Name() == runtimepkg.CodecProto {
		kind = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
		return err
	}
	return c.ws.WriteMessage(kind, data)
}

func (c *Conn) codecFor(kind int) runtimepkg.Codec {
	if kind == websocket.BinaryMessage {
		return runtimepkg.ProtoCodec{}
	}
	return runtimepkg.JSONCodec{}
}

func isClosed(err error) bool {
	return websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) ||
		errors.Is(err, net.ErrClosed)
}
