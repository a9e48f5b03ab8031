package stomp

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// pair returns both ends of a WebSocket connection.
func pair(t *testing.T) (client, server *wsStream) {
	accepted := make(chan *websocket.Conn, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		accepted <- ws
	}))
	t.Cleanup(srv.Close)

	ws, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	client = newWSStream(ws, time.Second)
	server = newWSStream(<-accepted, time.Second)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return client, server
}

func TestWSStream_Reads_Across_Messages(t *testing.T) {
	req := require.New(t)
	client, server := pair(t)

	// Given a frame split over two messages followed by a heart-beat
	_, err := server.Write([]byte("MESSAGE\nsubscription:0\n"))
	req.NoError(err)
	_, err = server.Write([]byte("\nhi\x00"))
	req.NoError(err)
	_, err = server.Write([]byte("\n"))
	req.NoError(err)

	// When the client reads
	want := "MESSAGE\nsubscription:0\n\nhi\x00\n"
	got := make([]byte, len(want))
	_, err = io.ReadFull(client, got)

	// Then the messages are one continuous stream
	req.NoError(err)
	req.Equal(want, string(got))
}

func TestWSStream_Write_Is_One_Message(t *testing.T) {
	req := require.New(t)
	client, server := pair(t)

	_, err := client.Write([]byte("SEND\ndestination:/topic/public/42\n\n{}\x00"))
	req.NoError(err)

	_, data, err := server.ws.ReadMessage()
	req.NoError(err)
	req.Equal("SEND\ndestination:/topic/public/42\n\n{}\x00", string(data))
}

func TestWSStream_Dead_After_Close(t *testing.T) {
	req := require.New(t)
	client, server := pair(t)
	req.True(client.alive())

	// When the peer closes
	_ = server.Close()

	// Then the next read fails and the stream is dead
	_, err := client.Read(make([]byte, 8))
	req.Error(err)
	req.False(client.alive())
}
