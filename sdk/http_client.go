package sdk

import (
	"context"
	"encoding/json"
	"fmt"

	"portbridge/httpclient"
	"portbridge/sdkerr"
)

// RequestDescription is the host's description of one HTTP call.
type RequestDescription struct {
	Method  string            `json:"method"`
	Path    string            `json:"path"`
	Data    json.RawMessage   `json:"data,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (s *SDK) NewHTTPClient(httpURL, appKey, appSecret, accessToken string) (Handle, *sdkerr.SimpleError) {
	h, err := s.http.Create(func() (*httpclient.Client, error) {
		c, err := httpclient.New(httpclient.NewConfig(appKey, appSecret, accessToken).WithHTTPURL(httpURL))
		if err != nil {
			return nil, sdkerr.HTTPClient(err)
		}
		return c, nil
	})
	return h, simple(err)
}

// NewHTTPClientFromEnv builds a client from .env and PORTBRIDGE_* variables.
func (s *SDK) NewHTTPClientFromEnv() (Handle, *sdkerr.SimpleError) {
	h, err := s.http.Create(func() (*httpclient.Client, error) {
		c, err := httpclient.FromEnv()
		if err != nil {
			return nil, sdkerr.HTTPClient(err)
		}
		return c, nil
	})
	return h, simple(err)
}

// FreeHTTPClient releases h. Requests already scheduled on it still complete.
func (s *SDK) FreeHTTPClient(h Handle) *sdkerr.SimpleError {
	return simple(s.http.Release(h))
}

// HTTPClientRequest schedules the request described by the JSON document req
// on the client behind h. An unknown handle or a malformed document is
// reported synchronously; everything after scheduling reaches cb. On success
// cb receives the response body verbatim.
func (s *SDK) HTTPClientRequest(h Handle, req []byte, cb Callback) *sdkerr.SimpleError {
	var desc RequestDescription
	if err := json.Unmarshal(req, &desc); err != nil {
		return sdkerr.Other(fmt.Sprintf("invalid request: %v", err))
	}
	lease, err := s.http.Acquire(h)
	if err != nil {
		return simple(err)
	}

	serr := s.execute(func(ctx context.Context) (any, error) {
		defer lease.Release()
		method, err := httpclient.ParseMethod(desc.Method)
		if err != nil {
			return nil, sdkerr.HTTPClient(err)
		}
		rb := lease.Value().Request(method, desc.Path)
		for k, v := range desc.Headers {
			rb.Header(k, v)
		}
		if len(desc.Data) > 0 && string(desc.Data) != "null" {
			rb.JSONBody(desc.Data)
		}
		body, err := rb.Send(ctx)
		if err != nil {
			return nil, sdkerr.HTTPClient(err)
		}
		return body, nil
	}, cb)
	if serr != nil {
		lease.Release()
	}
	return serr
}
