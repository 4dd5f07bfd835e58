package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	req := require.New(t)
	tokens := NewTokenManager([]byte("test-secret"), time.Hour)

	identity, subject, err := NewIdentity()
	req.NoError(err)
	req.Equal(DeriveIdentity(Issuer, subject), identity)

	token, err := tokens.GenerateToken(identity, subject)
	req.NoError(err)

	got, err := tokens.ValidateToken(token)
	req.NoError(err)
	req.Equal(identity, got)
}

func TestValidateToken_Rejects_Foreign_Or_Expired_Tokens(t *testing.T) {
	req := require.New(t)
	identity := DeriveIdentity(Issuer, "subject")

	foreign, err := NewTokenManager([]byte("other-secret"), time.Hour).GenerateToken(identity, "subject")
	req.NoError(err)
	_, err = NewTokenManager([]byte("test-secret"), time.Hour).ValidateToken(foreign)
	req.Error(err)

	expired, err := NewTokenManager([]byte("test-secret"), -time.Minute).GenerateToken(identity, "subject")
	req.NoError(err)
	_, err = NewTokenManager([]byte("test-secret"), time.Hour).ValidateToken(expired)
	req.Error(err)
}

func TestDeriveIdentity_Is_Stable(t *testing.T) {
	req := require.New(t)
	req.Equal(DeriveIdentity(Issuer, "a"), DeriveIdentity(Issuer, "a"))
	req.NotEqual(DeriveIdentity(Issuer, "a"), DeriveIdentity(Issuer, "b"))
	req.Len(DeriveIdentity(Issuer, "a").String(), 64)
	req.False(strings.Contains(DeriveIdentity(Issuer, "a").String(), " "))
}

func BenchmarkValidateToken(b *testing.B) {
	tokens := NewTokenManager([]byte("bench-secret"), time.Hour)
	token, _ := tokens.GenerateToken(DeriveIdentity(Issuer, "bench"), "bench")
	for i := 0; i < b.N; i++ {
		_, _ = tokens.ValidateToken(token)
	}
}
