// Package wire holds the per-field conversion policies applied while decoding
// push payloads. The upstream wire format overloads zero and the empty string:
// on some fields they are legitimate values, on others they mean "not set".
// Each policy here names one convention, and a schema picks the policy per
// field. Nothing is inferred generically.
package wire
