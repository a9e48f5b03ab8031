package rest

import (
	"context"
	"fmt"
	"net/http"
)

type account struct {
	Login string `json:"login"`
}

// AccountClient reads the authenticated principal from GET /api/account.
type AccountClient struct {
	client *Client
}

func NewAccountClient(client *Client) *AccountClient {
	return &AccountClient{client: client}
}

func (a *AccountClient) CurrentLogin(ctx context.Context) (string, error) {
	var acc account
	if err := a.client.do(ctx, http.MethodGet, "/api/account", nil, &acc); err != nil {
		return "", err
	}
	if acc.Login == "" {
		return "", fmt.Errorf("account without login")
	}
	return acc.Login, nil
}
