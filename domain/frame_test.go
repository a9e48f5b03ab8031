package domain

import (
	"chat-channel/errors"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewWireFrame_Shape(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 3, 14, 9, 26, 53, 589_000_000, time.UTC)
	author := User{ID: 7, Login: "fm", FirstName: "Ada", LastName: "Byron", ImageURL: "http://img/7.png"}

	// When a frame is built for a local send
	payload, err := NewWireFrame(author, "hi", at).Encode()
	req.NoError(err)

	// Then every field of the wire contract is present with the expected value
	var raw map[string]any
	req.NoError(json.Unmarshal(payload, &raw))
	req.Len(raw, 6)
	req.EqualValues(at.UnixMilli(), raw["_id"])
	req.Equal(map[string]any{"_id": float64(7), "avatar": "http://img/7.png"}, raw["user"])
	req.Equal("Ada Byron", raw["sender"])
	req.Equal("hi", raw["text"])
	req.Equal("2026-03-14T09:26:53.589Z", raw["createdAt"])
	req.Equal("CHAT", raw["type"])
}

func TestDecodeFrame(t *testing.T) {
	tests := []struct {
		name      string
		payload   string
		malformed bool
		author    UserID
		text      string
	}{
		{
			name:    "complete frame",
			payload: `{"_id":1,"user":{"_id":42,"avatar":"a"},"sender":"P Q","text":"yo","createdAt":"2026-03-14T09:26:53.589Z","type":"CHAT"}`,
			author:  42,
			text:    "yo",
		},
		{
			name:    "frame without type nor createdAt",
			payload: `{"user":{"_id":42},"text":""}`,
			author:  42,
			text:    "",
		},
		{name: "not json", payload: `hello`, malformed: true},
		{name: "missing user", payload: `{"text":"yo"}`, malformed: true},
		{name: "missing user id", payload: `{"user":{"avatar":"a"},"text":"yo"}`, malformed: true},
		{name: "string user id", payload: `{"user":{"_id":"42"},"text":"yo"}`, malformed: true},
		{name: "missing text", payload: `{"user":{"_id":42}}`, malformed: true},
		{name: "other kind", payload: `{"user":{"_id":42},"text":"yo","type":"JOIN"}`, malformed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			frame, err := DecodeFrame([]byte(tt.payload))
			if tt.malformed {
				req.ErrorIs(err, errors.ErrMalformedFrame)
				return
			}
			req.NoError(err)
			req.Equal(tt.author, frame.User.ID)
			req.Equal(tt.text, frame.Text)
			req.Equal(MessageKindChat, frame.Type)
		})
	}
}

func TestDecodeFrame_Timestamps(t *testing.T) {
	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		createdAt string
		want      time.Time
	}{
		{name: "utc with millis", createdAt: `"2024-05-01T10:00:00.000Z"`, want: at},
		{name: "offset with colon", createdAt: `"2024-05-01T12:00:00+02:00"`, want: at},
		{name: "no zone", createdAt: `"2024-05-01T10:00:00.000"`, want: at},
		{name: "offset without colon", createdAt: `"2024-05-01T10:00:00.000+0000"`, want: at},
		{name: "space separator", createdAt: `"2024-05-01 10:00:00"`, want: at},
		{name: "space separator with zone", createdAt: `"2024-05-01 10:00:00Z"`, want: at},
		{name: "epoch millis", createdAt: `1714557600000`, want: at},
		{name: "unreadable", createdAt: `"yesterday"`},
		{name: "empty", createdAt: `""`},
		{name: "null", createdAt: `null`},
		{name: "object", createdAt: `{"$date":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			payload := `{"user":{"_id":42},"text":"yo","createdAt":` + tt.createdAt + `}`

			// When the frame is decoded
			frame, err := DecodeFrame([]byte(payload))

			// Then the text is kept whatever the timestamp looks like
			req.NoError(err)
			req.Equal("yo", frame.Text)
			if tt.want.IsZero() {
				req.True(frame.CreatedAt.Time().IsZero())
				return
			}
			req.True(tt.want.Equal(frame.CreatedAt.Time()), "got %s", frame.CreatedAt.Time())
		})
	}
}

func TestDecodeFrame_RoundTripKeepsTimestamp(t *testing.T) {
	req := require.New(t)
	at := time.Date(2026, 1, 2, 3, 4, 5, 6_000_000, time.UTC)
	payload, err := NewWireFrame(User{ID: 7}, "hi", at).Encode()
	req.NoError(err)

	frame, err := DecodeFrame(payload)
	req.NoError(err)
	req.True(at.Equal(frame.CreatedAt.Time()))
	req.Equal(at.UnixMilli(), frame.ID)
}
