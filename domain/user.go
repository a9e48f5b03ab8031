// Package domain contains core concepts of the chat channel.
// This file defines users as resolved from the directory.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"strconv"
	"strings"
)

type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// User is a directory record. Login is the reference used for lookups.
type User struct {
	ID        UserID `json:"id" validate:"required"`
	Login     string `json:"login"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	ImageURL  string `json:"imageUrl"`
}

// DisplayName is the "<first> <last>" form carried on the wire.
func (u User) DisplayName() string {
	return u.FirstName + " " + u.LastName
}

// Label is used by terminals and logs, falling back on the login
// when the directory did not provide any name.
func (u User) Label() string {
	if name := strings.TrimSpace(u.DisplayName()); name != "" {
		return name
	}
	if u.Login != "" {
		return u.Login
	}
	return u.ID.String()
}

// Partner identifies the other side of the conversation.
type Partner struct {
	ID    UserID `validate:"required"`
	Login string `validate:"required,max=256"`
}

// AsUser is the minimal record known before the directory answered.
func (p Partner) AsUser() User {
	return User{ID: p.ID, Login: p.Login}
}
