package repositories

import (
	"chat-channel/domain"
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/blugelabs/bluge"
)

const (
	fieldPartner   = "partner"
	fieldSender    = "sender"
	fieldText      = "text"
	fieldCreatedAt = "createdAt"
)

// SearchHit is a message found by full-text search.
type SearchHit struct {
	ID        string
	PartnerID domain.UserID
	Sender    string
	Text      string
	CreatedAt time.Time
}

// MessageIndex indexes sent messages for full-text search.
type MessageIndex struct {
	writer   *bluge.Writer
	log      *slog.Logger
	pageSize int
}

func NewMessageIndex(writer *bluge.Writer, log *slog.Logger, pageSize int) *MessageIndex {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &MessageIndex{writer: writer, log: log, pageSize: pageSize}
}

// Create indexes one message, replacing any document with the same id.
func (i *MessageIndex) Create(_ context.Context, message domain.PersistedMessage) error {
	doc := bluge.NewDocument(message.ID.String()).
		AddField(bluge.NewKeywordField(fieldPartner, message.Recipient.ID.String()).StoreValue()).
		AddField(bluge.NewTextField(fieldSender, message.Sender.Label()).StoreValue()).
		AddField(bluge.NewTextField(fieldText, message.Text).StoreValue()).
		AddField(bluge.NewDateTimeField(fieldCreatedAt, message.CreatedAt).StoreValue().Sortable())

	if err := i.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("indexing message %s: %w", message.ID, err)
	}
	return nil
}

// Search matches the text of messages, newest first. A zero partner searches
// every conversation. It returns one page and the total number of matches.
func (i *MessageIndex) Search(ctx context.Context, text string, partner domain.UserID, page int) ([]SearchHit, uint64, error) {
	reader, err := i.writer.Reader()
	if err != nil {
		return nil, 0, fmt.Errorf("opening index reader: %w", err)
	}
	defer func() {
		_ = reader.Close()
	}()

	query := bluge.NewBooleanQuery().
		AddMust(bluge.NewMatchQuery(text).SetField(fieldText))
	if partner != 0 {
		query.AddMust(bluge.NewTermQuery(partner.String()).SetField(fieldPartner))
	}

	request := bluge.NewTopNSearch(i.pageSize, query).
		SetFrom(max(page, 0) * i.pageSize).
		SortBy([]string{"-" + fieldCreatedAt}).
		WithStandardAggregations()

	matches, err := reader.Search(ctx, request)
	if err != nil {
		return nil, 0, fmt.Errorf("searching %q: %w", text, err)
	}

	var hits []SearchHit
	match, err := matches.Next()
	for err == nil && match != nil {
		var hit SearchHit
		visitErr := match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "_id":
				hit.ID = string(value)
			case fieldPartner:
				id, _ := strconv.ParseInt(string(value), 10, 64)
				hit.PartnerID = domain.UserID(id)
			case fieldSender:
				hit.Sender = string(value)
			case fieldText:
				hit.Text = string(value)
			case fieldCreatedAt:
				if at, decodeErr := bluge.DecodeDateTime(value); decodeErr == nil {
					hit.CreatedAt = at.UTC()
				}
			}
			return true
		})
		if visitErr != nil {
			return nil, 0, visitErr
		}
		hits = append(hits, hit)
		match, err = matches.Next()
	}
	if err != nil {
		return nil, 0, err
	}

	total := matches.Aggregations().Count()
	i.log.Debug("Message search", "query", text, "partner", partner, "page", page, "total", total)
	return hits, total, nil
}
