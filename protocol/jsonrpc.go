// Package protocol implements the JSON-RPC 2.0 wire model shared by every
// TurboMCP transport: request/response/notification envelopes, the error
// taxonomy, and the codec that turns one into the other.
package protocol

import (
	"encoding/json"
	"errors"
)

// Version is the JSON-RPC protocol version TurboMCP speaks on the wire.
const Version = "2.0"

// MessageId is the id carried by requests and responses. JSON-RPC permits
// string or number ids; TurboMCP additionally allows a UUID so a
// correlation id can be generated without risking collision with a peer's
// own numbering. Equality follows the underlying value: the string "1" and
// the number 1 are distinct ids.
type MessageId any

// Request represents a JSON-RPC request message. A Request with no Id is
// not valid on the wire; use Notification for that shape instead.
type Request struct {
	// Id corresponds to the JSON schema field "id".
	Id MessageId `json:"id" yaml:"id" mapstructure:"id"`

	// Jsonrpc corresponds to the JSON schema field "jsonrpc".
	Jsonrpc string `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`

	// Method corresponds to the JSON schema field "method".
	Method string `json:"method" yaml:"method" mapstructure:"method"`

	// Params corresponds to the JSON schema field "params".
	// It is stored as a []byte so method-specific types can be unmarshalled
	// by the handler without a second round-trip through a generic map.
	Params json.RawMessage `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params,omitempty"`
}

// UnmarshalJSON is a custom JSON unmarshaler for the Request type.
func (m *Request) UnmarshalJSON(data []byte) error {
	required := struct {
		Id      *MessageId       `json:"id" yaml:"id" mapstructure:"id"`
		Jsonrpc *string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Method  *string          `json:"method" yaml:"method" mapstructure:"method"`
		Params  *json.RawMessage `json:"params" yaml:"params" mapstructure:"params"`
	}{}
	err := json.Unmarshal(data, &required)
	if err != nil {
		return err
	}
	if required.Id == nil {
		return errors.New("field id in Request: required")
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Request: required")
	}
	if required.Method == nil {
		return errors.New("field method in Request: required")
	}
	if required.Params == nil {
		required.Params = new(json.RawMessage)
	}

	m.Id = *required.Id
	m.Jsonrpc = *required.Jsonrpc
	m.Method = *required.Method
	m.Params = *required.Params
	return nil
}

// Notification is a request-shaped message with no id; no response is ever
// sent for one.
type Notification struct {
	// Jsonrpc corresponds to the JSON schema field "jsonrpc".
	Jsonrpc string `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`

	// Method corresponds to the JSON schema field "method".
	Method string `json:"method" yaml:"method" mapstructure:"method"`

	// Params corresponds to the JSON schema field "params".
	Params json.RawMessage `json:"params,omitempty" yaml:"params,omitempty" mapstructure:"params,omitempty"`
}

// UnmarshalJSON is a custom JSON unmarshaler for the Notification type.
func (m *Notification) UnmarshalJSON(data []byte) error {
	required := struct {
		Jsonrpc *string `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Method  *string `json:"method" yaml:"method" mapstructure:"method"`
		Id      *int64  `json:"id" yaml:"id" mapstructure:"id"`
		Params  json.RawMessage `json:"params" yaml:"params" mapstructure:"params"`
	}{}
	err := json.Unmarshal(data, &required)
	if err != nil {
		return err
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Notification: required")
	}
	if required.Method == nil {
		return errors.New("field method in Notification: required")
	}
	if required.Id != nil {
		return errors.New("field id in Notification: not allowed")
	}
	m.Jsonrpc = *required.Jsonrpc
	m.Method = *required.Method
	m.Params = required.Params
	return nil
}

// Response represents a JSON-RPC response. Exactly one of Result/Error is
// present.
type Response struct {
	// Id corresponds to the JSON schema field "id"; copied from the
	// request, and may be null only on parse-error responses.
	Id MessageId `json:"id" yaml:"id" mapstructure:"id"`

	// Jsonrpc corresponds to the JSON schema field "jsonrpc".
	Jsonrpc string `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`

	// Error holds the error, if any.
	Error *Error `json:"error,omitempty" yaml:"error" mapstructure:"error"`

	// Result corresponds to the JSON schema field "result".
	Result json.RawMessage `json:"result,omitempty" yaml:"result" mapstructure:"result"`
}

// NewResponse creates a new Response instance with the specified id and
// already-marshalled result payload.
func NewResponse(id MessageId, data []byte) *Response {
	return &Response{
		Id:      id,
		Jsonrpc: Version,
		Result:  data,
	}
}

// UnmarshalJSON is a custom JSON unmarshaler for the Response type.
func (m *Response) UnmarshalJSON(data []byte) error {
	required := struct {
		Id      *MessageId       `json:"id" yaml:"id" mapstructure:"id"`
		Jsonrpc *string          `json:"jsonrpc" yaml:"jsonrpc" mapstructure:"jsonrpc"`
		Result  *json.RawMessage `json:"result" yaml:"result" mapstructure:"result"`
		Error   *Error           `json:"error" yaml:"error" mapstructure:"error"`
	}{}
	err := json.Unmarshal(data, &required)
	if err != nil {
		return err
	}
	if required.Jsonrpc == nil {
		return errors.New("field jsonrpc in Response: required")
	}
	if required.Id != nil {
		m.Id = *required.Id
	}
	m.Jsonrpc = *required.Jsonrpc
	if required.Result != nil {
		m.Result = *required.Result
	}
	m.Error = required.Error
	if required.Result == nil && required.Error == nil {
		return errors.New("field result in Response: one of result/error is required")
	}
	return nil
}

// NewRequest builds a Request, marshalling parameters per asParameters.
func NewRequest(method string, parameters interface{}) (*Request, error) {
	req := &Request{Jsonrpc: Version, Method: method}
	var err error
	req.Params, err = asParameters(method, parameters)
	if err != nil {
		return nil, err
	}
	return req, nil
}

func asParameters(method string, parameters interface{}) (json.RawMessage, error) {
	if parameters == nil {
		return nil, nil
	}
	switch actual := parameters.(type) {
	case string:
		return []byte(actual), nil
	case []byte:
		return actual, nil
	case json.RawMessage:
		return actual, nil
	default:
		data, err := json.Marshal(actual)
		if err != nil {
			return nil, &paramsMarshalError{method: method, err: err}
		}
		return data, nil
	}
}

type paramsMarshalError struct {
	method string
	err    error
}

func (e *paramsMarshalError) Error() string {
	return "failed to marshal jsonrpc request parameter for method " + e.method + ": " + e.err.Error()
}

func (e *paramsMarshalError) Unwrap() error { return e.err }
