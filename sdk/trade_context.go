package sdk

import (
	"context"
	"encoding/json"

	"portbridge/httpclient"
	"portbridge/sdkerr"
	"portbridge/trade"
)

type handleResult struct {
	Handle Handle `json:"handle"`
}

// NewTradeContext connects a trade context with the configuration behind
// cfg. The callback receives {"handle":n} once the context is authenticated.
func (s *SDK) NewTradeContext(cfg Handle, cb Callback) *sdkerr.SimpleError {
	lease, err := s.configs.Acquire(cfg)
	if err != nil {
		return simple(err)
	}
	serr := s.execute(func(ctx context.Context) (any, error) {
		defer lease.Release()
		c := lease.Value()
		hc, err := httpclient.New(httpclient.FromSDKConfig(c))
		if err != nil {
			return nil, sdkerr.HTTPClient(err)
		}
		tc, err := trade.Connect(ctx, hc, trade.OptionsFromConfig(c))
		hc.Close()
		if err != nil {
			return nil, err
		}
		h, err := s.trade.Insert(tc)
		if err != nil {
			tc.Close()
			return nil, err
		}
		return handleResult{Handle: h}, nil
	}, cb)
	if serr != nil {
		lease.Release()
	}
	return serr
}

// FreeTradeContext releases h and closes the connection once no operation
// holds it.
func (s *SDK) FreeTradeContext(h Handle) *sdkerr.SimpleError {
	return simple(s.trade.Release(h))
}

func (s *SDK) TradeContextSubscribe(h Handle, topics []string, cb Callback) *sdkerr.SimpleError {
	return s.changeSubscription(h, topics, cb, (*trade.Context).Subscribe)
}

func (s *SDK) TradeContextUnsubscribe(h Handle, topics []string, cb Callback) *sdkerr.SimpleError {
	return s.changeSubscription(h, topics, cb, (*trade.Context).Unsubscribe)
}

func (s *SDK) changeSubscription(h Handle, names []string, cb Callback,
	change func(*trade.Context, context.Context, []trade.TopicType) ([]string, error)) *sdkerr.SimpleError {
	topics := make([]trade.TopicType, 0, len(names))
	for _, name := range names {
		t, err := trade.ParseTopic(name)
		if err != nil {
			return sdkerr.Simplify(sdkerr.ParseField("topics", err))
		}
		topics = append(topics, t)
	}
	lease, err := s.trade.Acquire(h)
	if err != nil {
		return simple(err)
	}
	serr := s.execute(func(ctx context.Context) (any, error) {
		defer lease.Release()
		current, err := change(lease.Value(), ctx, topics)
		if err != nil {
			return nil, err
		}
		return current, nil
	}, cb)
	if serr != nil {
		lease.Release()
	}
	return serr
}

// TradeContextSetOnPush registers fn to receive every decoded push as JSON.
// A nil fn removes the handler.
func (s *SDK) TradeContextSetOnPush(h Handle, fn func(event []byte)) *sdkerr.SimpleError {
	return simple(s.trade.With(h, func(c *trade.Context) error {
		if fn == nil {
			c.OnPush(nil)
			return nil
		}
		c.OnPush(func(event trade.PushEvent) {
			b, err := json.Marshal(event)
			if err != nil {
				s.log.WithError(err).Warn("failed to encode push event")
				return
			}
			fn(b)
		})
		return nil
	}))
}
