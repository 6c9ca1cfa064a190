// Package base holds the frame-shape detection every TurboMCP transport
// shares: given one decoded JSON object, decide whether it is a request, a
// notification, or a response before allocating the concrete struct.
package base

import (
	"github.com/goccy/go-json"

	"github.com/viant/turbomcp/protocol"
)

// MessageType inspects the top-level fields of data and reports which
// JSON-RPC shape it is, without fully unmarshalling into a typed struct.
func MessageType(data []byte) protocol.MessageType {
	probe := &probe{}
	_ = json.Unmarshal(data, probe)
	if probe.Id == nil {
		if probe.Method == "" && probe.Error != nil {
			// An error response to an unparseable request carries "id": null.
			return protocol.MessageTypeResponse
		}
		return protocol.MessageTypeNotification
	}
	if probe.Method != "" {
		return protocol.MessageTypeRequest
	}
	return protocol.MessageTypeResponse
}

// Decode fully unmarshals data into a protocol.Message, selecting the
// concrete variant via MessageType.
func Decode(data []byte) (*protocol.Message, error) {
	switch MessageType(data) {
	case protocol.MessageTypeRequest:
		req := &protocol.Request{}
		if err := json.Unmarshal(data, req); err != nil {
			return nil, err
		}
		return protocol.NewRequestMessage(req), nil
	case protocol.MessageTypeResponse:
		resp := &protocol.Response{}
		if err := json.Unmarshal(data, resp); err != nil {
			return nil, err
		}
		return protocol.NewResponseMessage(resp), nil
	default:
		note := &protocol.Notification{}
		if err := json.Unmarshal(data, note); err != nil {
			return nil, err
		}
		return protocol.NewNotificationMessage(note), nil
	}
}

type probe struct {
	Id     protocol.MessageId `json:"id"`
	Error  *protocol.Error    `json:"error" yaml:"error"`
	Method string             `json:"method" yaml:"method"`
}
