package services

import (
	"chat-channel/auth"
	"chat-channel/errors"
	"context"
	"fmt"
)

// StaticIdentity is a login given by configuration.
type StaticIdentity struct {
	login string
}

func NewStaticIdentity(login string) StaticIdentity {
	return StaticIdentity{login: login}
}

func (s StaticIdentity) CurrentLogin(_ context.Context) (string, error) {
	if s.login == "" {
		return "", fmt.Errorf("%w: no login configured", errors.ErrIdentityUnresolved)
	}
	return s.login, nil
}

// TokenIdentity reads the login from the subject of the bearer token.
// A nil key skips signature checks.
type TokenIdentity struct {
	token string
	key   []byte
}

func NewTokenIdentity(token string, key []byte) TokenIdentity {
	return TokenIdentity{token: token, key: key}
}

func (t TokenIdentity) CurrentLogin(_ context.Context) (string, error) {
	login, err := auth.Login(t.token, t.key)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrIdentityUnresolved, err)
	}
	return login, nil
}
