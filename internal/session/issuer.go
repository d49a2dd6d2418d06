// Package session mints and validates bearer tokens. A token is a signed JWT
// naming its user; it stays valid exactly as long as it is present in that
// user's token list, so logout is removal from the list.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenStore persists the per-user token lists.
type TokenStore interface {
	// UserExists reports whether the user id refers to a stored user.
	UserExists(ctx context.Context, userID string) (bool, error)
	// AddToken appends token to the user's list.
	AddToken(ctx context.Context, userID, token string) error
	// HasToken reports whether token is in the user's list.
	HasToken(ctx context.Context, userID, token string) (bool, error)
	// RemoveToken removes token from the user's list; absence is not an error.
	RemoveToken(ctx context.Context, userID, token string) error
	// RemoveAllTokens empties the user's list.
	RemoveAllTokens(ctx context.Context, userID string) error
}

// Claims is the token payload. The subject carries the user id and the
// token id keeps tokens minted in the same second distinct.
type Claims struct {
	jwt.RegisteredClaims
}

// Issuer signs tokens with an HMAC secret and tracks them in a TokenStore.
type Issuer struct {
	store  TokenStore
	secret []byte
	now    func() time.Time
}

// NewIssuer builds an Issuer. secret must be non-empty.
func NewIssuer(store TokenStore, secret []byte) (*Issuer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty signing secret")
	}
	return &Issuer{store: store, secret: secret, now: time.Now}, nil
}

// Issue signs a new token for userID and adds it to the user's token list.
func (i *Issuer) Issue(ctx context.Context, userID string) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userID,
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(i.now()),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	if err := i.store.AddToken(ctx, userID, token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	return token, nil
}

// parse verifies the signature and returns the user id the token names.
func (i *Issuer) parse(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", apperr.ErrInvalidToken
	}
	return claims.Subject, nil
}

// Validate returns the user id of a live token.
// It fails with apperr.ErrInvalidToken when the token does not verify or its
// user is gone, and with apperr.ErrRevokedToken when the token verifies but is
// no longer in the user's list.
func (i *Issuer) Validate(ctx context.Context, token string) (string, error) {
	userID, err := i.parse(token)
	if err != nil {
		return "", err
	}

	exists, err := i.store.UserExists(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup token owner: %w", err)
	}
	if !exists {
		return "", apperr.ErrInvalidToken
	}

	live, err := i.store.HasToken(ctx, userID, token)
	if err != nil {
		return "", fmt.Errorf("lookup token: %w", err)
	}
	if !live {
		return "", apperr.ErrRevokedToken
	}
	return userID, nil
}

// Revoke removes one token from the user's list. Revoking twice is fine.
func (i *Issuer) Revoke(ctx context.Context, userID, token string) error {
	return i.store.RemoveToken(ctx, userID, token)
}

// RevokeAll removes every token of the user.
func (i *Issuer) RevokeAll(ctx context.Context, userID string) error {
	return i.store.RemoveAllTokens(ctx, userID)
}
