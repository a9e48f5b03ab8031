package services

import (
	"chat-channel/auth"
	"chat-channel/errors"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestStaticIdentity(t *testing.T) {
	req := require.New(t)

	login, err := NewStaticIdentity("me").CurrentLogin(context.Background())
	req.NoError(err)
	req.Equal("me", login)

	_, err = NewStaticIdentity("").CurrentLogin(context.Background())
	req.ErrorIs(err, errors.ErrIdentityUnresolved)
}

func TestTokenIdentity(t *testing.T) {
	req := require.New(t)
	key := []byte("0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
	token, err := auth.GenerateToken("me", key, time.Hour)
	req.NoError(err)

	// Given a token signed by the backend
	login, err := NewTokenIdentity(token, nil).CurrentLogin(context.Background())

	// Then its subject is the local login
	req.NoError(err)
	req.Equal("me", login)

	// When the signature does not match the configured key
	_, err = NewTokenIdentity(token, []byte("another key entirely, also long enough")).CurrentLogin(context.Background())

	// Then the identity is unresolved
	req.ErrorIs(err, errors.ErrIdentityUnresolved)
}
