// Package auth handles room-scoped credentials and the session tokens
// that bind a seat to a game.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidToken indicates the token is unknown or revoked.
	ErrInvalidToken = errors.New("auth: invalid token")

	// ErrInvalidCredentials indicates the password does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// HashPassword returns the bcrypt hash to store for a room player.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword checks a password against a stored hash.
func VerifyPassword(hash, password string) error {
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// Session binds a token to a seat in a specific game.
type Session struct {
	SeatID   string
	GameID   string
	Position int
}

// Issuer mints and resolves opaque session tokens. Tokens live for the
// process lifetime; a restart invalidates them and players re-auth.
type Issuer struct {
	mu     sync.RWMutex
	tokens map[string]Session
}

// NewIssuer creates an empty token issuer.
func NewIssuer() *Issuer {
	return &Issuer{tokens: make(map[string]Session)}
}

// Issue mints a fresh token for the session.
func (i *Issuer) Issue(sess Session) (string, error) {
	var buf [24]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	token := hex.EncodeToString(buf[:])

	i.mu.Lock()
	defer i.mu.Unlock()
	i.tokens[token] = sess
	return token, nil
}

// Resolve returns the session for a token.
func (i *Issuer) Resolve(token string) (Session, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	sess, ok := i.tokens[token]
	if !ok {
		return Session{}, ErrInvalidToken
	}
	return sess, nil
}

// Revoke drops a token, if it exists.
func (i *Issuer) Revoke(token string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.tokens, token)
}
