package services

import (
	"chat-channel/contract"
	"chat-channel/domain"
	"chat-channel/repositories"
	"context"
	"log/slog"
)

// CachedDirectory reads through a local cache before asking the directory.
// A broken cache never fails a lookup.
type CachedDirectory struct {
	log       *slog.Logger
	directory contract.Directory
	cache     repositories.IUserRepository
}

func NewCachedDirectory(log *slog.Logger, directory contract.Directory, cache repositories.IUserRepository) *CachedDirectory {
	return &CachedDirectory{log: log, directory: directory, cache: cache}
}

func (c *CachedDirectory) Find(ctx context.Context, login string) (domain.User, error) {
	user, found, err := c.cache.GetUser(login)
	if err != nil {
		c.log.Warn("User cache unreadable", "login", login, "error", err)
	}
	if found {
		return user, nil
	}

	user, err = c.directory.Find(ctx, login)
	if err != nil {
		return domain.User{}, err
	}
	if err := c.cache.SaveUser(login, user); err != nil {
		c.log.Warn("User not cached", "login", login, "error", err)
	}
	return user, nil
}
