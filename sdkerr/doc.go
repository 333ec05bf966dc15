// Package sdkerr defines the unified error taxonomy of the SDK core.
//
// Every fallible path reports one *Error whose Kind names the failure:
// protocol decode (protobuf or JSON), field parse, unknown command,
// domain validation (symbol, market, trade session) or a transport failure
// from the HTTP or WebSocket collaborator.
//
// The rich *Error never crosses the foreign boundary. Callers at the
// boundary reduce it with Simple (or Simplify for arbitrary errors):
//
//	Response{code, message, trace_id}  server rejected the request
//	Other(message)                     everything else
package sdkerr
