package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Tokens are opaque bearer credentials of the form "<id>|<secret>". The id is
// the token row's UUID, used for lookup; the secret is 32 random bytes, stored
// only as a SHA256 hash. Holding the database therefore never yields a usable
// credential, and every issued token can be listed and revoked server-side.

const secretByteLen = 32

var ErrMalformedToken = errors.New("malformed token")

// GeneratedToken is the output of Generate. Plaintext is shown to the client
// exactly once; Hash is what gets persisted.
type GeneratedToken struct {
	ID        string
	Plaintext string
	Hash      string
}

// Generate mints a new opaque token.
func Generate() (*GeneratedToken, error) {
	secret := make([]byte, secretByteLen)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate token secret: %w", err)
	}

	id := uuid.New().String()
	secretHex := hex.EncodeToString(secret)

	return &GeneratedToken{
		ID:        id,
		Plaintext: id + "|" + secretHex,
		Hash:      HashSecret(secretHex),
	}, nil
}

// Parse splits a presented token into its id and secret parts, validating
// shape only. Whether the secret is correct is decided against the stored
// hash, not here.
func Parse(plaintext string) (id, secret string, err error) {
	id, secret, ok := strings.Cut(plaintext, "|")
	if !ok {
		return "", "", ErrMalformedToken
	}
	if _, err := uuid.Parse(id); err != nil {
		return "", "", ErrMalformedToken
	}
	if len(secret) != secretByteLen*2 {
		return "", "", ErrMalformedToken
	}
	return id, secret, nil
}

// HashSecret returns the hex SHA256 of the secret part.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// VerifySecret compares a presented secret against the stored hash in
// constant time.
func VerifySecret(storedHash, secret string) bool {
	presented := HashSecret(secret)
	return subtle.ConstantTimeCompare([]byte(storedHash), []byte(presented)) == 1
}
