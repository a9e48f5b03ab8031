package rest

import (
	"chat-channel/domain"
	"chat-channel/errors"
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/url"
)

// DirectoryClient resolves users through GET /api/users/{login}.
type DirectoryClient struct {
	client *Client
}

func NewDirectoryClient(client *Client) *DirectoryClient {
	return &DirectoryClient{client: client}
}

func (d *DirectoryClient) Find(ctx context.Context, login string) (domain.User, error) {
	if login == "" {
		return domain.User{}, fmt.Errorf("%w: empty login", errors.ErrUserNotFound)
	}

	var user domain.User
	err := d.client.do(ctx, http.MethodGet, "/api/users/"+url.PathEscape(login), nil, &user)
	var status *statusError
	if stderrors.As(err, &status) && status.code == http.StatusNotFound {
		return domain.User{}, fmt.Errorf("%w: %s", errors.ErrUserNotFound, login)
	}
	if err != nil {
		return domain.User{}, err
	}
	if user.ID == 0 {
		return domain.User{}, fmt.Errorf("%w: %s has no id", errors.ErrUserNotFound, login)
	}
	return user, nil
}
