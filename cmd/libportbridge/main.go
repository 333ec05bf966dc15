// Command libportbridge builds the SDK as a C shared library:
//
//	go build -buildmode=c-shared -o libportbridge.so ./cmd/libportbridge
//
// Handles are uint64 values. Functions that can fail synchronously return a
// JSON error string (or NULL) that the caller releases with
// portbridge_free_string. Result and error strings handed to callbacks are
// owned by the library and valid only for the duration of the call.
package main

/*
#include <stdint.h>
#include <stdlib.h>

typedef void (*portbridge_callback)(const char *result, const char *error, void *userdata);
typedef void (*portbridge_push_callback)(const char *event, void *userdata);

static inline void portbridge_invoke(portbridge_callback cb, const char *result, const char *error, void *userdata) {
	cb(result, error, userdata);
}

static inline void portbridge_invoke_push(portbridge_push_callback cb, const char *event, void *userdata) {
	cb(event, userdata);
}
*/
import "C"

import (
	"context"
	"time"
	"unsafe"

	"portbridge/sdk"
	"portbridge/sdkerr"
)

func main() {}

// callback adapts a C function pointer and its userdata to an sdk.Callback.
func callback(cb C.portbridge_callback, userdata unsafe.Pointer) sdk.Callback {
	if cb == nil {
		return nil
	}
	return func(value []byte, serr *sdkerr.SimpleError) {
		var result, errStr *C.char
		if serr != nil {
			errStr = C.CString(errorJSON(serr))
			defer C.free(unsafe.Pointer(errStr))
		} else {
			result = C.CString(string(value))
			defer C.free(unsafe.Pointer(result))
		}
		C.portbridge_invoke(cb, result, errStr, userdata)
	}
}

// cError returns serr as a caller-owned JSON C string, or NULL.
func cError(serr *sdkerr.SimpleError) *C.char {
	if serr == nil {
		return nil
	}
	return C.CString(errorJSON(serr))
}

func setError(out **C.char, serr *sdkerr.SimpleError) {
	if out != nil {
		*out = cError(serr)
	}
}

//export portbridge_free_string
func portbridge_free_string(s *C.char) {
	C.free(unsafe.Pointer(s))
}

//export portbridge_config_new
func portbridge_config_new(doc *C.char, errOut **C.char) C.uint64_t {
	h, serr := sdk.Default().NewConfig([]byte(C.GoString(doc)))
	setError(errOut, serr)
	return C.uint64_t(h)
}

//export portbridge_config_from_env
func portbridge_config_from_env(errOut **C.char) C.uint64_t {
	h, serr := sdk.Default().NewConfigFromEnv()
	setError(errOut, serr)
	return C.uint64_t(h)
}

//export portbridge_config_free
func portbridge_config_free(h C.uint64_t) *C.char {
	return cError(sdk.Default().FreeConfig(sdk.Handle(h)))
}

//export portbridge_http_client_new
func portbridge_http_client_new(httpURL, appKey, appSecret, accessToken *C.char, errOut **C.char) C.uint64_t {
	h, serr := sdk.Default().NewHTTPClient(C.GoString(httpURL), C.GoString(appKey), C.GoString(appSecret), C.GoString(accessToken))
	setError(errOut, serr)
	return C.uint64_t(h)
}

//export portbridge_http_client_from_env
func portbridge_http_client_from_env(errOut **C.char) C.uint64_t {
	h, serr := sdk.Default().NewHTTPClientFromEnv()
	setError(errOut, serr)
	return C.uint64_t(h)
}

//export portbridge_http_client_free
func portbridge_http_client_free(h C.uint64_t) *C.char {
	return cError(sdk.Default().FreeHTTPClient(sdk.Handle(h)))
}

//export portbridge_http_client_request
func portbridge_http_client_request(h C.uint64_t, request *C.char, cb C.portbridge_callback, userdata unsafe.Pointer) *C.char {
	return cError(sdk.Default().HTTPClientRequest(sdk.Handle(h), []byte(C.GoString(request)), callback(cb, userdata)))
}

//export portbridge_trade_context_new
func portbridge_trade_context_new(cfg C.uint64_t, cb C.portbridge_callback, userdata unsafe.Pointer) *C.char {
	return cError(sdk.Default().NewTradeContext(sdk.Handle(cfg), callback(cb, userdata)))
}

//export portbridge_trade_context_subscribe
func portbridge_trade_context_subscribe(h C.uint64_t, topics *C.char, cb C.portbridge_callback, userdata unsafe.Pointer) *C.char {
	names, serr := parseTopics(C.GoString(topics))
	if serr != nil {
		return cError(serr)
	}
	return cError(sdk.Default().TradeContextSubscribe(sdk.Handle(h), names, callback(cb, userdata)))
}

//export portbridge_trade_context_unsubscribe
func portbridge_trade_context_unsubscribe(h C.uint64_t, topics *C.char, cb C.portbridge_callback, userdata unsafe.Pointer) *C.char {
	names, serr := parseTopics(C.GoString(topics))
	if serr != nil {
		return cError(serr)
	}
	return cError(sdk.Default().TradeContextUnsubscribe(sdk.Handle(h), names, callback(cb, userdata)))
}

//export portbridge_trade_context_set_on_push
func portbridge_trade_context_set_on_push(h C.uint64_t, cb C.portbridge_push_callback, userdata unsafe.Pointer) *C.char {
	if cb == nil {
		return cError(sdk.Default().TradeContextSetOnPush(sdk.Handle(h), nil))
	}
	return cError(sdk.Default().TradeContextSetOnPush(sdk.Handle(h), func(event []byte) {
		s := C.CString(string(event))
		defer C.free(unsafe.Pointer(s))
		C.portbridge_invoke_push(cb, s, userdata)
	}))
}

//export portbridge_trade_context_free
func portbridge_trade_context_free(h C.uint64_t) *C.char {
	return cError(sdk.Default().FreeTradeContext(sdk.Handle(h)))
}

// portbridge_session_at returns the session of symbol at unix seconds as a
// caller-owned JSON string, or NULL with *errOut set.
//
//export portbridge_session_at
func portbridge_session_at(cfg C.uint64_t, symbol *C.char, unixSec C.int64_t, errOut **C.char) *C.char {
	info, serr := sdk.Default().SessionAt(sdk.Handle(cfg), C.GoString(symbol), int64(unixSec))
	if serr != nil {
		setError(errOut, serr)
		return nil
	}
	doc, serr := encodeResult(info)
	if serr != nil {
		setError(errOut, serr)
		return nil
	}
	return C.CString(doc)
}

// portbridge_shutdown waits up to timeoutMS for in-flight callbacks and then
// releases every handle. No function may be called afterwards.
//
//export portbridge_shutdown
func portbridge_shutdown(timeoutMS C.uint32_t) *C.char {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutMS)*time.Millisecond)
	defer cancel()
	if err := sdk.Default().Shutdown(ctx); err != nil {
		return cError(sdkerr.Other(err.Error()))
	}
	return nil
}
