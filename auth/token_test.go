package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var testKey = []byte("a_test_key_long_enough_for_hs512_signatures_0123456789")

func TestLogin_From_Signed_Token(t *testing.T) {
	req := require.New(t)
	token, err := GenerateToken("alice", testKey, time.Hour)
	req.NoError(err)

	login, err := Login(token, testKey)
	req.NoError(err)
	req.Equal("alice", login)

	// Unverified parsing does not need the key
	login, err = Login(token, nil)
	req.NoError(err)
	req.Equal("alice", login)
}

func TestLogin_Rejects_Bad_Tokens(t *testing.T) {
	req := require.New(t)

	token, err := GenerateToken("alice", testKey, time.Hour)
	req.NoError(err)
	_, err = Login(token, []byte("another key of the same kind but different"))
	req.Error(err)

	expired, err := GenerateToken("alice", testKey, -time.Minute)
	req.NoError(err)
	_, err = Login(expired, testKey)
	req.Error(err)

	_, err = Login("not.a.token", nil)
	req.Error(err)

	noSubject, err := GenerateToken("", testKey, time.Hour)
	req.NoError(err)
	_, err = Login(noSubject, testKey)
	req.Error(err)
}
