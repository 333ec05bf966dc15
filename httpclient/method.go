package httpclient

import (
	"fmt"
	"net/http"
	"strings"
)

// Method is an HTTP verb accepted by the client.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodDelete  Method = http.MethodDelete
	MethodPatch   Method = http.MethodPatch
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

var methods = map[string]Method{
	http.MethodGet:     MethodGet,
	http.MethodPost:    MethodPost,
	http.MethodPut:     MethodPut,
	http.MethodDelete:  MethodDelete,
	http.MethodPatch:   MethodPatch,
	http.MethodHead:    MethodHead,
	http.MethodOptions: MethodOptions,
}

// ParseMethod parses a verb name case-insensitively.
func ParseMethod(s string) (Method, error) {
	if m, ok := methods[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return m, nil
	}
	return "", &Error{Kind: KindInvalidRequest, Cause: fmt.Errorf("unknown method %q", s)}
}

func (m Method) String() string {
	return string(m)
}
