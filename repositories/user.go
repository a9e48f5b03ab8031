package repositories

import (
	"chat-channel/domain"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

type IUserRepository interface {
	GetUser(login string) (domain.User, bool, error)
	SaveUser(login string, user domain.User) error
}

// UserRepository caches directory records. Entries expire on their own.
type UserRepository struct {
	db  *badger.DB
	ttl time.Duration
}

func NewUserRepository(db *badger.DB, ttl time.Duration) *UserRepository {
	return &UserRepository{db: db, ttl: ttl}
}

func userKey(login string) []byte {
	return []byte("user:" + login)
}

// SaveUser overwrites the cached record and restarts its TTL.
func (u *UserRepository) SaveUser(login string, user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}
	return u.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry(userKey(login), data)
		if u.ttl > 0 {
			entry = entry.WithTTL(u.ttl)
		}
		return txn.SetEntry(entry)
	})
}

// GetUser reports false on a miss or an expired entry.
func (u *UserRepository) GetUser(login string) (domain.User, bool, error) {
	var user domain.User
	err := u.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(userKey(login))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, false, nil
	}
	if err != nil {
		return domain.User{}, false, err
	}
	return user, true, nil
}
