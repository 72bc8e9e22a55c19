package runtime

import (
	"fmt"

	errspkg "github.com/drblury/relay/internal/runtime/errors"
)

// MessageType discriminates the three envelope kinds.
type MessageType string

const (
	TypeRequest      MessageType = "request"
	TypeNotification MessageType = "notification"
	TypeResponse     MessageType = "response"
)

// Args carries the named arguments of a request or notification.
type Args map[string]any

// Message is the routed envelope. Which fields are meaningful depends on Type:
//
//	request:      From, To, ID, Method, Args
//	notification: From, To, Method, Args
//	response:     From, To, ID, Result, Error
//
// A response is a failure when Error is truthy (see Truthy), so Error: false
// or Error: 0 still count as success.
type Message struct {
	Type   MessageType `json:"type"`
	From   string      `json:"from,omitempty"`
	To     string      `json:"to"`
	ID     string      `json:"id,omitempty"`
	Method string      `json:"method,omitempty"`
	Args   Args        `json:"args,omitempty"`
	Result any         `json:"result,omitempty"`
	Error  any         `json:"error,omitempty"`
}

// NewRequest builds a request envelope.
func NewRequest(from, to, id, method string, args Args) Message {
	return Message{Type: TypeRequest, From: from, To: to, ID: id, Method: method, Args: args}
}

// NewNotification builds a notification envelope.
func NewNotification(from, to, method string, args Args) Message {
	return Message{Type: TypeNotification, From: from, To: to, Method: method, Args: args}
}

// NewResponse builds the reply to req. Addresses are swapped so the reply
// travels back to the requester.
func NewResponse(req Message, result, failure any) Message {
	return Message{
		Type:   TypeResponse,
		From:   req.To,
		To:     req.From,
		ID:     req.ID,
		Result: result,
		Error:  failure,
	}
}

// IsFailure reports whether a response carries a truthy Error.
func (m Message) IsFailure() bool {
	return Truthy(m.Error)
}

// Validate checks the fields the dispatcher relies on for the message type.
// Correlation ids belong to the caller and any value, "" included, is a valid
// key. Addresses are not checked here; filtering is the dispatcher's concern.
func (m Message) Validate() error {
	switch m.Type {
	case TypeRequest, TypeNotification:
		if m.Method == "" {
			return errspkg.ErrMethodRequired
		}
	case TypeResponse:
	default:
		return fmt.Errorf("%w: %q", errspkg.ErrUnknownMessageType, m.Type)
	}
	return nil
}

func (m Message) logFields() map[string]any {
	fields := map[string]any{
		"type": string(m.Type),
		"to":   m.To,
	}
	if m.From != "" {
		fields["from"] = m.From
	}
	if m.ID != "" {
		fields["id"] = m.ID
	}
	if m.Method != "" {
		fields["method"] = m.Method
	}
	return fields
}
