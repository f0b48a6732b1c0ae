package table

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mcdev12/gemtable/go/internal/models"
)

// MessageType identifies a push channel message.
type MessageType string

const (
	MessageRoomSnapshot MessageType = "room_snapshot"
	MessageActionError  MessageType = "action_error"
	MessagePong         MessageType = "pong"
)

var (
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrMalformedMessage = errors.New("malformed message")
)

// Message is the envelope for everything the server pushes.
type Message struct {
	Type   MessageType  `json:"type"`
	Reason string       `json:"reason,omitempty"`
	Room   *models.Room `json:"room,omitempty"`
	Error  string       `json:"error,omitempty"`
}

// ParseMessage decodes and validates a pushed message.
func ParseMessage(data []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}

	switch msg.Type {
	case MessageRoomSnapshot:
		if msg.Room == nil {
			return Message{}, fmt.Errorf("%w: snapshot without room", ErrMalformedMessage)
		}
	case MessageActionError, MessagePong:
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}
	return msg, nil
}
