package rest

import (
	"chat-channel/domain"
	"chat-channel/errors"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestDirectoryClient_Find(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("Bearer secret", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/api/users/alice":
			_, _ = w.Write([]byte(`{"id":42,"login":"alice","firstName":"Alice","lastName":"Martin","imageUrl":"a.png"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	directory := NewDirectoryClient(NewClient(server.URL+"/", "secret", time.Second))

	// When the user exists
	user, err := directory.Find(context.Background(), "alice")

	// Then the record is decoded
	req.NoError(err)
	req.Equal(domain.User{ID: 42, Login: "alice", FirstName: "Alice", LastName: "Martin", ImageURL: "a.png"}, user)

	// When the user is unknown
	_, err = directory.Find(context.Background(), "bob")

	// Then it is reported as not found
	req.ErrorIs(err, errors.ErrUserNotFound)
}

func TestDirectoryClient_Find_Server_Error(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := NewDirectoryClient(NewClient(server.URL, "", time.Second)).Find(context.Background(), "alice")

	req.Error(err)
	req.NotErrorIs(err, errors.ErrUserNotFound)
	req.Contains(err.Error(), "500")
}

func TestAccountClient_CurrentLogin(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req.Equal("/api/account", r.URL.Path)
		_, _ = w.Write([]byte(`{"login":"bob","firstName":"Bob"}`))
	}))
	defer server.Close()

	login, err := NewAccountClient(NewClient(server.URL, "", time.Second)).CurrentLogin(context.Background())

	req.NoError(err)
	req.Equal("bob", login)
}

func TestMessageStoreClient_Create(t *testing.T) {
	req := require.New(t)
	received := make(chan map[string]any, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		received <- body
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	store := NewMessageStoreClient(NewClient(server.URL, "", time.Second))
	message := domain.PersistedMessage{
		ID:        uuid.New(),
		Sender:    domain.User{ID: 7, Login: "me"},
		Recipient: domain.User{ID: 42, Login: "alice"},
		Text:      "hello",
		CreatedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}

	// When a message is created
	req.NoError(store.Create(context.Background(), message))

	// Then the body carries sender, recipient, text and date but no local id
	body := <-received
	req.Equal("hello", body["text"])
	req.Equal("2024-05-01T10:00:00Z", body["createdAt"])
	req.Equal(float64(7), body["sender"].(map[string]any)["id"])
	req.Equal(float64(42), body["recipient"].(map[string]any)["id"])
	req.NotContains(body, "id")
}

func TestMessageStoreClient_Create_Failure(t *testing.T) {
	req := require.New(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	err := NewMessageStoreClient(NewClient(server.URL, "", time.Second)).
		Create(context.Background(), domain.PersistedMessage{Text: "x"})

	req.ErrorIs(err, errors.ErrPersistenceFailure)
}
