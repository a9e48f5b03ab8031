// Package domain contains core concepts of the chat channel.
// This file defines chat messages and their persisted form.
// Messages are immutable and validated by the domain.
package domain

import (
	"chat-channel/errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

var validate = validator.New()

// ChatMessage is a message either sent or received on the channel.
// CreatedAt is set by the producing side, never by the transport.
type ChatMessage struct {
	Sender    User
	Recipient User
	Text      string
	CreatedAt time.Time `validate:"required"`
}

// NewChatMessage guarantees a sender and a recipient are known.
func NewChatMessage(sender, recipient User, text string, at time.Time) (ChatMessage, error) {
	msg := ChatMessage{Sender: sender, Recipient: recipient, Text: text, CreatedAt: at}
	if err := validate.Struct(msg); err != nil {
		return ChatMessage{}, fmt.Errorf("%w: %v", errors.ErrInvalidMessage, err)
	}
	return msg, nil
}

// PersistedMessage is handed to the message stores.
// ID only keys the local journal, the remote store assigns its own.
type PersistedMessage struct {
	ID        uuid.UUID `json:"-"`
	Sender    User      `json:"sender"`
	Recipient User      `json:"recipient"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

func (m ChatMessage) ToPersisted() PersistedMessage {
	return PersistedMessage{
		ID:        uuid.New(),
		Sender:    m.Sender,
		Recipient: m.Recipient,
		Text:      m.Text,
		CreatedAt: m.CreatedAt,
	}
}

// ValidatePartner checks the partner given to connect.
func ValidatePartner(p Partner) error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidPartner, err)
	}
	return nil
}
