// Package sdk is the foreign-callable surface. Resources are held in handle
// registries and referenced by integer handles; asynchronous work runs on a
// bridge runtime and completes through callbacks. Only *sdkerr.SimpleError
// leaves this package as an error.
package sdk

import (
	"context"
	"errors"
	"sync"

	"portbridge/bridge"
	"portbridge/config"
	"portbridge/handle"
	"portbridge/httpclient"
	"portbridge/logger"
	"portbridge/sdkerr"
	"portbridge/trade"
)

type Handle = handle.Handle

// Callback receives the JSON result of an operation or its error.
type Callback = bridge.Callback

// SDK owns the runtime and the handle registries.
type SDK struct {
	runtime *bridge.Runtime
	configs *handle.Registry[*config.Config]
	http    *handle.Registry[*httpclient.Client]
	trade   *handle.Registry[*trade.Context]
	log     *logger.Entry
}

// New builds an SDK whose runtime runs at most workers operations at once.
func New(workers int) *SDK {
	return &SDK{
		runtime: bridge.NewRuntime(workers),
		configs: handle.New[*config.Config]("config", nil),
		http: handle.New("http_client", func(c *httpclient.Client) error {
			return c.Close()
		}),
		trade: handle.New("trade_context", func(c *trade.Context) error {
			return c.Close()
		}),
		log: logger.GetLogger().WithComponent("sdk"),
	}
}

var (
	defaultOnce sync.Once
	defaultSDK  *SDK
)

// Default returns the process-wide SDK used by the C ABI.
func Default() *SDK {
	defaultOnce.Do(func() {
		defaultSDK = New(0)
	})
	return defaultSDK
}

// Shutdown stops accepting work, waits for in-flight callbacks and then
// releases every live handle.
func (s *SDK) Shutdown(ctx context.Context) error {
	err := s.runtime.Shutdown(ctx)
	s.trade.Close()
	s.http.Close()
	s.configs.Close()
	return err
}

// Live reports the number of live handles per kind.
func (s *SDK) Live() map[string]int {
	return map[string]int{
		"config":        s.configs.Len(),
		"http_client":   s.http.Len(),
		"trade_context": s.trade.Len(),
	}
}

func (s *SDK) execute(op bridge.Operation, cb Callback) *sdkerr.SimpleError {
	if _, err := s.runtime.Execute(op, cb); err != nil {
		return simple(err)
	}
	return nil
}

// simple reduces err for the boundary. Registry and runtime sentinels have
// no taxonomy variant and render as Other.
func simple(err error) *sdkerr.SimpleError {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, handle.ErrInvalidHandle), errors.Is(err, handle.ErrReleased),
		errors.Is(err, handle.ErrRegistryClosed), errors.Is(err, bridge.ErrRuntimeClosed):
		return sdkerr.Other(err.Error())
	}
	return sdkerr.Simplify(err)
}
