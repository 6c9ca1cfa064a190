package protocol

import (
	"encoding/json"
	"errors"
)

// MessageType classifies a decoded Message by which JSON-RPC shape it holds.
type MessageType string

const (
	MessageTypeRequest      MessageType = "request"
	MessageTypeNotification MessageType = "notification"
	MessageTypeResponse     MessageType = "response"
)

// Message is a discriminated union over the three wire shapes a single
// incoming line can take. A transport's frame detector (see
// transport/base) decides the Type before allocating the concrete struct,
// so a handler never has to guess.
type Message struct {
	Type                MessageType
	JsonRpcRequest      *Request
	JsonRpcNotification *Notification
	JsonRpcResponse     *Response
}

// Method returns the method name for request/notification messages, or the
// empty string for a response.
func (m *Message) Method() string {
	switch m.Type {
	case MessageTypeRequest:
		return m.JsonRpcRequest.Method
	case MessageTypeNotification:
		return m.JsonRpcNotification.Method
	default:
		return ""
	}
}

// MarshalJSON is a custom JSON marshaler for the Message type.
func (m *Message) MarshalJSON() ([]byte, error) {
	switch m.Type {
	case MessageTypeRequest:
		return json.Marshal(m.JsonRpcRequest)
	case MessageTypeNotification:
		return json.Marshal(m.JsonRpcNotification)
	case MessageTypeResponse:
		return json.Marshal(m.JsonRpcResponse)
	default:
		return nil, errors.New("unknown message type, couldn't marshal")
	}
}

// NewNotificationMessage creates a new JSON-RPC message of type Notification.
func NewNotificationMessage(notification *Notification) *Message {
	return &Message{
		Type:                MessageTypeNotification,
		JsonRpcNotification: notification,
	}
}

// NewRequestMessage creates a new JSON-RPC message of type Request.
func NewRequestMessage(request *Request) *Message {
	return &Message{
		Type:           MessageTypeRequest,
		JsonRpcRequest: request,
	}
}

// NewResponseMessage creates a new JSON-RPC message of type Response.
func NewResponseMessage(response *Response) *Message {
	return &Message{
		Type:            MessageTypeResponse,
		JsonRpcResponse: response,
	}
}
