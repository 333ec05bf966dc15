package trade

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"portbridge/config"
	"portbridge/httpclient"
	"portbridge/internal/channel"
	"portbridge/internal/metrics"
	"portbridge/logger"
	"portbridge/sdkerr"
	"portbridge/wsclient"
)

const socketTokenPath = "/v1/socket/token"

// Options configure a trade Context.
type Options struct {
	URL            string
	PushBuffer     int
	RequestTimeout time.Duration
}

// OptionsFromConfig maps the SDK-wide configuration onto trade options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:        cfg.Endpoints.TradeWSURL,
		PushBuffer: cfg.Push.BufferSize,
	}
}

// Context is an authenticated trade connection that decodes pushes.
type Context struct {
	ws     *wsclient.Client
	events *channel.Channel[PushEvent]
	log    *logger.Entry

	handlerMu sync.RWMutex
	handler   func(PushEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	closed   atomic.Bool
	handling atomic.Bool
}

// Connect obtains a one-time socket token over HTTP, dials the trade
// endpoint and authenticates.
func Connect(ctx context.Context, hc *httpclient.Client, opts Options) (*Context, error) {
	if opts.URL == "" {
		opts.URL = config.DefaultTradeWSURL
	}
	log := logger.GetLogger().WithComponent("trade_push").WithField("url", opts.URL)

	otp, err := socketToken(ctx, hc)
	if err != nil {
		return nil, err
	}
	ws, err := wsclient.Dial(ctx, opts.URL, wsclient.Options{
		RequestTimeout: opts.RequestTimeout,
		PushBuffer:     opts.PushBuffer,
	})
	if err != nil {
		return nil, sdkerr.WsClient(err)
	}
	if _, err := ws.Authenticate(ctx, otp); err != nil {
		ws.Close()
		return nil, sdkerr.WsClient(err)
	}
	return newContext(ws, opts, log), nil
}

func newContext(ws *wsclient.Client, opts Options, log *logger.Entry) *Context {
	bufferSize := opts.PushBuffer
	if bufferSize <= 0 {
		bufferSize = 256
	}
	ctx, cancel := context.WithCancel(context.Background())
	c := &Context{
		ws:     ws,
		events: channel.New[PushEvent]("trade_push_events", bufferSize),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	c.wg.Add(1)
	go c.dispatch()
	log.Info("trade context connected")
	return c
}

func socketToken(ctx context.Context, hc *httpclient.Client) (string, error) {
	body, err := hc.Request(httpclient.MethodGet, socketTokenPath).Send(ctx)
	if err != nil {
		return "", sdkerr.HTTPClient(err)
	}
	var resp struct {
		Data struct {
			OTP string `json:"otp"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", sdkerr.DecodeJSON(err)
	}
	if resp.Data.OTP == "" {
		return "", sdkerr.ParseField("otp", errors.New("empty socket token"))
	}
	return resp.Data.OTP, nil
}

// Subscribe starts delivery of the given topics and returns the topics the
// server now has subscribed. Topics the server refuses are reported as an error.
func (c *Context) Subscribe(ctx context.Context, topics []TopicType) ([]string, error) {
	return c.changeSubscription(ctx, CmdSubscribe, topics)
}

func (c *Context) Unsubscribe(ctx context.Context, topics []TopicType) ([]string, error) {
	return c.changeSubscription(ctx, CmdUnsubscribe, topics)
}

func (c *Context) changeSubscription(ctx context.Context, cmd uint8, topics []TopicType) ([]string, error) {
	req := subRequest{Topics: make([]string, 0, len(topics))}
	for _, t := range topics {
		req.Topics = append(req.Topics, t.String())
	}
	body, err := c.ws.Request(ctx, cmd, req.Marshal())
	if err != nil {
		return nil, sdkerr.WsClient(err)
	}
	var resp SubResponse
	if err := resp.Unmarshal(body); err != nil {
		return nil, sdkerr.DecodeProtobuf(err)
	}
	if len(resp.Fail) > 0 {
		f := resp.Fail[0]
		return resp.Current, sdkerr.WsClient(fmt.Errorf("topic %s refused: %s", f.Topic, f.Reason))
	}
	c.log.WithFields(logger.Fields{"cmd": cmd, "topics": req.Topics, "current": resp.Current}).Debug("subscription changed")
	return resp.Current, nil
}

// OnPush registers fn to be called for every decoded event, from the
// dispatch goroutine. A nil fn removes the handler.
func (c *Context) OnPush(fn func(PushEvent)) {
	c.handlerMu.Lock()
	c.handler = fn
	c.handlerMu.Unlock()
}

// Events yields decoded events. Events are dropped, and counted, when the
// buffer is full. The channel is closed by Close.
func (c *Context) Events() <-chan PushEvent {
	return c.events.C
}

// Stats reports delivery counters of the events channel.
func (c *Context) Stats() channel.ChannelStats {
	return c.events.GetStats()
}

func (c *Context) dispatch() {
	defer c.wg.Done()
	defer c.events.Close()
	for push := range c.ws.Pushes() {
		event, err := ParsePushEvent(push.Cmd, push.Body)
		if err != nil {
			metrics.Push(metrics.PushFailed)
			c.log.WithError(err).WithField("cmd", push.Cmd).Warn("failed to decode push")
			continue
		}
		if event == nil {
			metrics.Push(metrics.PushFiltered)
			continue
		}
		if c.closed.Load() {
			continue
		}
		metrics.Push(metrics.PushDecoded)

		c.handlerMu.RLock()
		fn := c.handler
		c.handlerMu.RUnlock()
		if fn != nil {
			c.handling.Store(true)
			fn(*event)
			c.handling.Store(false)
		}
		if !c.events.Send(c.ctx, *event) {
			metrics.Push(metrics.PushDropped)
		}
	}
}

// Close ends the connection and waits for the dispatch goroutine. Called
// from a push handler, it returns without waiting and dispatch finishes
// once the handler returns.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.cancel()
	c.ws.Close()
	if !c.handling.Load() {
		c.wg.Wait()
	}
	c.log.Info("trade context closed")
	return nil
}
