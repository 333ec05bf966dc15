package wsclient

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"portbridge/logger"
)

const (
	defaultKeepAlive      = 20 * time.Second
	defaultRequestTimeout = 30 * time.Second
	defaultPushBuffer     = 256
	writeWait             = 10 * time.Second
)

// Options tune a Client. Zero values select the defaults.
type Options struct {
	Header         http.Header
	PingInterval   time.Duration
	RequestTimeout time.Duration
	PushBuffer     int
}

// Push is a server-initiated message.
type Push struct {
	Cmd  uint8
	Body []byte
}

type result struct {
	body []byte
	err  error
}

// Client is one WebSocket connection speaking the binary packet protocol.
// Requests may be issued concurrently; responses are matched by request id.
// The client does not reconnect.
type Client struct {
	conn *websocket.Conn
	log  *logger.Entry
	opts Options

	nextID  atomic.Uint32
	writeMu sync.Mutex

	mu       sync.Mutex
	pending  map[uint32]chan result
	closed   bool
	closeErr error

	pushes     chan Push
	done       chan struct{}
	cancelPing context.CancelFunc
	wg         sync.WaitGroup
}

// Dial connects to url and starts the read and ping loops.
func Dial(ctx context.Context, url string, opts Options) (*Client, error) {
	log := logger.GetLogger().WithComponent("ws_client").WithField("url", url)
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, url, opts.Header)
	if err != nil {
		fields := logger.Fields{}
		if resp != nil {
			fields["status"] = resp.StatusCode
		}
		log.WithFields(fields).WithError(err).Warn("failed to connect websocket")
		return nil, &Error{Kind: KindConnect, Cause: err}
	}
	log.Debug("websocket connected")
	return newClient(conn, opts, log), nil
}

func newClient(conn *websocket.Conn, opts Options, log *logger.Entry) *Client {
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultKeepAlive
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}
	if opts.PushBuffer <= 0 {
		opts.PushBuffer = defaultPushBuffer
	}
	pingCtx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:       conn,
		log:        log,
		opts:       opts,
		pending:    make(map[uint32]chan result),
		pushes:     make(chan Push, opts.PushBuffer),
		done:       make(chan struct{}),
		cancelPing: cancel,
	}
	c.wg.Add(2)
	go c.readLoop()
	go c.pingLoop(pingCtx)
	return c
}

// Pushes yields server pushes in arrival order. The channel is closed once
// the connection ends.
func (c *Client) Pushes() <-chan Push {
	return c.pushes
}

// Done is closed when the connection has ended.
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Err returns why the connection ended, or nil while it is open.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closeErr
}

// Request sends cmd with body and waits for the matching response. A non-zero
// response status yields a KindResponseError.
func (c *Client) Request(ctx context.Context, cmd uint8, body []byte) ([]byte, error) {
	id := c.nextID.Add(1)
	ch := make(chan result, 1)

	c.mu.Lock()
	if c.closed {
		cause := c.closeErr
		c.mu.Unlock()
		return nil, &Error{Kind: KindConnectionClosed, Cause: cause}
	}
	c.pending[id] = ch
	c.mu.Unlock()

	timeoutMS := c.opts.RequestTimeout.Milliseconds()
	if timeoutMS > 0xffff {
		timeoutMS = 0xffff
	}
	pkt := Packet{Type: PacketRequest, Cmd: cmd, RequestID: id, TimeoutMS: uint16(timeoutMS), Body: body}
	if err := c.write(pkt.Encode()); err != nil {
		c.forget(id)
		return nil, &Error{Kind: KindWrite, Cause: err}
	}

	timer := time.NewTimer(c.opts.RequestTimeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.body, res.err
	case <-ctx.Done():
		c.forget(id)
		return nil, &Error{Kind: KindRequestTimeout, Cause: ctx.Err()}
	case <-timer.C:
		c.forget(id)
		return nil, &Error{Kind: KindRequestTimeout}
	}
}

func (c *Client) forget(id uint32) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *Client) write(b []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(websocket.BinaryMessage, b)
}

// Close ends the connection. Pending requests fail with KindConnectionClosed.
func (c *Client) Close() error {
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	c.shutdown(ErrClosed)
	c.wg.Wait()
	return nil
}

func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.closeErr = cause
	pending := c.pending
	c.pending = nil
	c.mu.Unlock()

	close(c.done)
	c.cancelPing()
	for _, ch := range pending {
		ch <- result{err: &Error{Kind: KindConnectionClosed, Cause: cause}}
	}
	c.conn.Close()

	if !errors.Is(cause, ErrClosed) {
		c.log.WithError(cause).WithField("pending", len(pending)).Warn("websocket connection ended")
	}
}

func (c *Client) readLoop() {
	defer c.wg.Done()
	defer close(c.pushes)
	for {
		typ, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.shutdown(err)
			return
		}
		if typ != websocket.BinaryMessage {
			continue
		}
		pkt, err := DecodePacket(msg)
		if err != nil {
			c.log.WithError(err).WithField("size", len(msg)).Warn("dropping undecodable packet")
			continue
		}
		switch pkt.Type {
		case PacketResponse:
			c.deliver(pkt)
		case PacketPush:
			select {
			case c.pushes <- Push{Cmd: pkt.Cmd, Body: pkt.Body}:
			case <-c.done:
				return
			}
		default:
			c.log.WithField("cmd", pkt.Cmd).Debug("ignoring server request")
		}
	}
}

func (c *Client) deliver(pkt Packet) {
	c.mu.Lock()
	ch, ok := c.pending[pkt.RequestID]
	delete(c.pending, pkt.RequestID)
	c.mu.Unlock()
	if !ok {
		c.log.WithFields(logger.Fields{"cmd": pkt.Cmd, "request_id": pkt.RequestID}).Debug("response for unknown request")
		return
	}
	if pkt.Status != 0 {
		ch <- result{err: responseError(pkt.Status, pkt.Body)}
		return
	}
	ch <- result{body: pkt.Body}
}

func (c *Client) pingLoop(ctx context.Context) {
	defer c.wg.Done()
	ticker := time.NewTicker(c.opts.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(time.Second)); err != nil {
				c.log.WithError(err).Warn("failed to send websocket ping")
				c.shutdown(err)
				return
			}
		}
	}
}
