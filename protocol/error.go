package protocol

import (
	"encoding/json"
	"fmt"
)

// ErrorContext carries the correlation metadata an error needs to report:
// which operation and component raised it, and which request (if any) it
// was raised while serving.
type ErrorContext struct {
	Operation string      `json:"operation,omitempty"`
	Component string      `json:"component,omitempty"`
	RequestId MessageId   `json:"requestId,omitempty"`
}

// Error is both the JSON-RPC wire error object (Code/Message/Data marshal
// exactly per the JSON-RPC 2.0 spec) and TurboMCP's internal error carrier:
// Kind and Context never appear on the wire but let the dispatcher,
// rpcclient, and the resilience decorator reason about retryability and
// provenance uniformly.
type Error struct {
	// Code is the JSON-RPC error code that occurred.
	Code int `json:"code" yaml:"code" mapstructure:"code"`

	// Data carries additional information about the error. Populated by
	// the sender (e.g. detailed error information, nested errors etc.).
	Data interface{} `json:"data,omitempty" yaml:"data,omitempty" mapstructure:"data,omitempty"`

	// Message is a short, single-sentence description of the error.
	Message string `json:"message" yaml:"message" mapstructure:"message"`

	// Kind classifies the error for retry and logging purposes. It is
	// not part of the wire representation.
	Kind Kind `json:"-"`

	// Context is optional correlation metadata. Not part of the wire
	// representation.
	Context *ErrorContext `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Retryable reports whether this error's Kind is safe to retry
// automatically (see Kind.Retryable).
func (e *Error) Retryable() bool {
	if e == nil {
		return false
	}
	return e.Kind.Retryable()
}

// WithContext attaches correlation metadata and returns the same Error for
// chaining.
func (e *Error) WithContext(operation, component string, requestId MessageId) *Error {
	if e == nil {
		return nil
	}
	e.Context = &ErrorContext{Operation: operation, Component: component, RequestId: requestId}
	return e
}

// NewError constructs an Error of the given Kind with a message and
// optional data payload. The JSON-RPC Code is derived from Kind.
func NewError(kind Kind, message string, data interface{}) *Error {
	return &Error{
		Kind:    kind,
		Code:    kind.Code(),
		Message: message,
		Data:    data,
	}
}

// NewParsingError creates a Parse-kind error (-32700).
func NewParsingError(message string, data []byte) *Error {
	return NewError(KindParse, message, json.RawMessage(data))
}

// NewInternalError creates an Internal-kind error (-32603).
func NewInternalError(message string, data interface{}) *Error {
	return NewError(KindInternal, message, data)
}

// NewInvalidRequest creates an InvalidRequest-kind error (-32600).
func NewInvalidRequest(message string, data interface{}) *Error {
	return NewError(KindInvalidRequest, message, data)
}

// NewInvalidParams creates an InvalidParams-kind error (-32602). Data
// conventionally carries the offending JSON path.
func NewInvalidParams(message string, data interface{}) *Error {
	return NewError(KindInvalidParams, message, data)
}

// NewMethodNotFound creates a MethodNotFound-kind error (-32601).
func NewMethodNotFound(method string) *Error {
	return NewError(KindMethodNotFound, fmt.Sprintf("method not found: %s", method), nil)
}

// NewTimeoutError creates a Timeout-kind error (retryable).
func NewTimeoutError(message string) *Error {
	return NewError(KindTimeout, message, nil)
}

// NewTransportError creates a Transport-kind error (retryable).
func NewTransportError(message string) *Error {
	return NewError(KindTransport, message, nil)
}

// NewResourceNotFoundError creates a ResourceNotFound-kind error. It still
// encodes as CodeInternalError on the wire, for interoperability with
// clients that don't recognize a dedicated not-found code.
func NewResourceNotFoundError(kind, name string) *Error {
	return NewError(KindResourceNotFound, fmt.Sprintf("%s not found: %s", kind, name), nil)
}
