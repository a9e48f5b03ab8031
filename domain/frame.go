package domain

import (
	"chat-channel/errors"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const MessageKindChat = "CHAT"

// frameTimeLayout matches what JSON.stringify produces for a JS Date.
const frameTimeLayout = "2006-01-02T15:04:05.000Z"

// WireFrame is the payload exchanged on a topic.
// Every consumer of the channel parses this exact shape, do not rename fields.
type WireFrame struct {
	ID        int64       `json:"_id"`
	User      FrameAuthor `json:"user"`
	Sender    string      `json:"sender"`
	Text      string      `json:"text"`
	CreatedAt FrameTime   `json:"createdAt"`
	Type      string      `json:"type"`
}

type FrameAuthor struct {
	ID     UserID `json:"_id"`
	Avatar string `json:"avatar"`
}

// NewWireFrame builds the outbound frame of a local send.
// The synthetic id is the send time in milliseconds.
func NewWireFrame(author User, text string, at time.Time) WireFrame {
	return WireFrame{
		ID:        at.UnixMilli(),
		User:      FrameAuthor{ID: author.ID, Avatar: author.ImageURL},
		Sender:    author.DisplayName(),
		Text:      text,
		CreatedAt: FrameTime(at),
		Type:      MessageKindChat,
	}
}

func (f WireFrame) Encode() ([]byte, error) {
	return json.Marshal(f)
}

// inboundFrame keeps pointers to tell a missing field from a zero value.
type inboundFrame struct {
	ID   *int64 `json:"_id"`
	User *struct {
		ID     *UserID `json:"_id"`
		Avatar string  `json:"avatar"`
	} `json:"user"`
	Sender    string    `json:"sender"`
	Text      *string   `json:"text"`
	CreatedAt FrameTime `json:"createdAt"`
	Type      string    `json:"type"`
}

// DecodeFrame parses an inbound payload, anything not shaped like a chat
// frame is reported as ErrMalformedFrame.
func DecodeFrame(payload []byte) (WireFrame, error) {
	var in inboundFrame
	if err := json.Unmarshal(payload, &in); err != nil {
		return WireFrame{}, fmt.Errorf("%w: %v", errors.ErrMalformedFrame, err)
	}
	switch {
	case in.User == nil || in.User.ID == nil:
		return WireFrame{}, fmt.Errorf("%w: missing user._id", errors.ErrMalformedFrame)
	case in.Text == nil:
		return WireFrame{}, fmt.Errorf("%w: missing text", errors.ErrMalformedFrame)
	case in.Type != "" && in.Type != MessageKindChat:
		return WireFrame{}, fmt.Errorf("%w: unexpected type %q", errors.ErrMalformedFrame, in.Type)
	}
	frame := WireFrame{
		User:      FrameAuthor{ID: *in.User.ID, Avatar: in.User.Avatar},
		Sender:    in.Sender,
		Text:      *in.Text,
		CreatedAt: in.CreatedAt,
		Type:      MessageKindChat,
	}
	if in.ID != nil {
		frame.ID = *in.ID
	}
	return frame, nil
}

// FrameTime serializes as an ISO timestamp with millisecond precision in UTC.
type FrameTime time.Time

func (t FrameTime) Time() time.Time { return time.Time(t) }

func (t FrameTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(frameTimeLayout))
}

// inboundTimeLayouts are the ISO forms seen from other clients. A timestamp
// without zone is taken as UTC. Fractional seconds are accepted by all.
var inboundTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05Z0700",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON never fails: an unreadable timestamp stays zero and the
// receiver falls back on its own clock. Numbers are epoch milliseconds.
func (t *FrameTime) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	switch v := raw.(type) {
	case float64:
		*t = FrameTime(time.UnixMilli(int64(v)).UTC())
	case string:
		*t = FrameTime(parseFrameTime(strings.TrimSpace(v)))
	}
	return nil
}

func parseFrameTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range inboundTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
