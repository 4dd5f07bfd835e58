package auth

import (
	"chat-gate/domain"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/blake2b"
)

const Issuer = "chat-gate"

// CustomClaims defines the structure of the data stored inside the JWT.
type CustomClaims struct {
	Identity string `json:"identity"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies identity tokens with a shared HMAC secret.
type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(secret []byte, duration time.Duration) *TokenManager {
	return &TokenManager{secret: secret, duration: duration}
}

// DeriveIdentity hashes the issuer and subject into a 32 bytes identity,
// so that the same subject always maps to the same identity.
func DeriveIdentity(issuer, subject string) domain.Identity {
	return blake2b.Sum256([]byte(issuer + "|" + subject))
}

// NewIdentity draws a random subject and returns the identity derived from it.
func NewIdentity() (domain.Identity, string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return domain.Identity{}, "", err
	}
	subject := hex.EncodeToString(raw)
	return DeriveIdentity(Issuer, subject), subject, nil
}

// GenerateToken creates a signed JWT carrying identity.
func (m *TokenManager) GenerateToken(identity domain.Identity, subject string) (string, error) {
	now := time.Now()
	claims := &CustomClaims{
		Identity: identity.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.duration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    Issuer,
		},
	}

	// Create the token using the HS256 algorithm (HMAC with SHA256).
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateToken checks signature and expiration, then decodes the identity claim.
func (m *TokenManager) ValidateToken(tokenString string) (domain.Identity, error) {
	token, err := jwt.ParseWithClaims(tokenString, &CustomClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(Issuer),
	)
	if err != nil {
		return domain.Identity{}, err
	}

	claims, ok := token.Claims.(*CustomClaims)
	if !ok || !token.Valid {
		return domain.Identity{}, jwt.ErrSignatureInvalid
	}
	identity, err := domain.ParseIdentity(claims.Identity)
	if err != nil {
		return domain.Identity{}, fmt.Errorf("identity claim: %w", err)
	}
	return identity, nil
}
