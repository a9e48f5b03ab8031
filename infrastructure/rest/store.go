package rest

import (
	"chat-channel/domain"
	"chat-channel/errors"
	"context"
	"fmt"
	"net/http"
)

// MessageStoreClient saves sent messages with POST /api/chat-messages.
// The local message id never leaves the process.
type MessageStoreClient struct {
	client *Client
}

func NewMessageStoreClient(client *Client) *MessageStoreClient {
	return &MessageStoreClient{client: client}
}

func (s *MessageStoreClient) Create(ctx context.Context, message domain.PersistedMessage) error {
	if err := s.client.do(ctx, http.MethodPost, "/api/chat-messages", message, nil); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrPersistenceFailure, err)
	}
	return nil
}
