package repositories

import (
	"chat-channel/domain"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type IMessageRepository interface {
	Create(ctx context.Context, message domain.PersistedMessage) error
	GetMessages(partner domain.UserID, cursor *string) ([]domain.PersistedMessage, *string, error)
}

// MessageRepository is the local journal of sent messages, one conversation
// per partner.
type MessageRepository struct {
	db            *badger.DB
	log           *slog.Logger
	limitMessages *int
}

func NewMessageRepository(db *badger.DB, log *slog.Logger, limitMessages *int) *MessageRepository {
	return &MessageRepository{db: db, log: log, limitMessages: limitMessages}
}

// diskMessage keeps the local id, which the JSON form of PersistedMessage hides.
type diskMessage struct {
	ID string `json:"id"`
	domain.PersistedMessage
}

func messagePrefix(partner domain.UserID) string {
	return fmt.Sprintf("msg:%d:", partner)
}

// Create appends a message to the journal.
// The key is formatted as "msg:{partner_id}:{timestamp_padded}:{uuid}" so that
// a prefix scan returns a conversation sorted by time, the 19-digit padding
// keeping lexicographical and chronological order aligned.
func (m *MessageRepository) Create(_ context.Context, message domain.PersistedMessage) error {
	key := fmt.Sprintf("%s%019d:%s",
		messagePrefix(message.Recipient.ID),
		message.CreatedAt.UnixNano(),
		message.ID,
	)
	bytes, err := json.Marshal(diskMessage{ID: message.ID.String(), PersistedMessage: message})
	if err != nil {
		return err
	}
	return m.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), bytes)
	})
}

// GetMessages pages a conversation newest first. The returned cursor is the
// last key read, to be given back for the next page; it is nil once the
// conversation is exhausted.
func (m *MessageRepository) GetMessages(partner domain.UserID, cursor *string) ([]domain.PersistedMessage, *string, error) {
	var byteMessages [][]byte
	var lastKey string
	prefixStr := messagePrefix(partner)

	err := m.db.View(func(txn *badger.Txn) error {
		prefix := []byte(prefixStr)
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		var seekKey []byte
		switch cursor {
		case nil:
			// Reverse iteration starts after the newest possible timestamp
			seekKey = append(prefix, []byte("9999999999999999999")...)
		default:
			seekKey = append(prefix, []byte(*cursor)...)
		}

		it.Seek(seekKey)
		if cursor != nil && it.ValidForPrefix(prefix) && string(it.Item().Key()) == string(seekKey) {
			it.Next()
		}

		for ; it.ValidForPrefix(prefix); it.Next() {
			if m.limitMessages != nil && len(byteMessages) == *m.limitMessages {
				m.log.Debug(fmt.Sprintf("Maximum of %d message reached", *m.limitMessages))
				break
			}
			item := it.Item()
			lastKey = string(item.Key()[len(prefixStr):])
			err := item.Value(func(value []byte) error {
				byteMessages = append(byteMessages, value)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	if len(byteMessages) == 0 {
		return nil, nil, nil
	}

	disk := make([]diskMessage, len(byteMessages))
	for i, b := range byteMessages {
		if err := json.Unmarshal(b, &disk[i]); err != nil {
			return nil, nil, err
		}
	}
	messages, err := toPersisted(disk)
	if err != nil {
		return nil, nil, err
	}
	return messages, &lastKey, nil
}

func toPersisted(disk []diskMessage) ([]domain.PersistedMessage, error) {
	var parseErr error
	messages := lo.Map(disk, func(d diskMessage, _ int) domain.PersistedMessage {
		message := d.PersistedMessage
		id, err := parseID(d.ID)
		if err != nil && parseErr == nil {
			parseErr = err
		}
		message.ID = id
		message.CreatedAt = message.CreatedAt.UTC()
		return message
	})
	return messages, parseErr
}

func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid message id %q: %w", raw, err)
	}
	return id, nil
}
