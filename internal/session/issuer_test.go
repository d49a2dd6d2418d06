package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/atinyakov/TaskTracker/internal/apperr"
	"github.com/atinyakov/TaskTracker/internal/models"
	"github.com/atinyakov/TaskTracker/internal/repository/memory"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func newIssuer(t *testing.T) (*Issuer, *memory.Store) {
	t.Helper()
	store := memory.New()
	require.NoError(t, store.CreateUser(context.Background(), &models.User{ID: "u1", Email: "mike@meyers.com"}))
	require.NoError(t, store.CreateUser(context.Background(), &models.User{ID: "u2", Email: "milos@milos.com"}))
	iss, err := NewIssuer(store, testSecret)
	require.NoError(t, err)
	return iss, store
}

func TestNewIssuer_EmptySecret(t *testing.T) {
	_, err := NewIssuer(memory.New(), nil)
	require.Error(t, err)
}

func TestIssueAndValidate(t *testing.T) {
	iss, _ := newIssuer(t)
	ctx := context.Background()

	tok, err := iss.Issue(ctx, "u1")
	require.NoError(t, err)

	userID, err := iss.Validate(ctx, tok)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestIssue_TokensAreDistinct(t *testing.T) {
	iss, _ := newIssuer(t)
	ctx := context.Background()

	a, err := iss.Issue(ctx, "u1")
	require.NoError(t, err)
	b, err := iss.Issue(ctx, "u1")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRevoke_OnlyThatToken(t *testing.T) {
	iss, _ := newIssuer(t)
	ctx := context.Background()

	first, err := iss.Issue(ctx, "u1")
	require.NoError(t, err)
	second, err := iss.Issue(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, iss.Revoke(ctx, "u1", first))
	require.NoError(t, iss.Revoke(ctx, "u1", first), "revoke must be idempotent")

	_, err = iss.Validate(ctx, first)
	assert.ErrorIs(t, err, apperr.ErrRevokedToken)

	userID, err := iss.Validate(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestRevokeAll(t *testing.T) {
	iss, _ := newIssuer(t)
	ctx := context.Background()

	a, _ := iss.Issue(ctx, "u1")
	b, _ := iss.Issue(ctx, "u1")
	other, _ := iss.Issue(ctx, "u2")

	require.NoError(t, iss.RevokeAll(ctx, "u1"))

	for _, tok := range []string{a, b} {
		_, err := iss.Validate(ctx, tok)
		assert.ErrorIs(t, err, apperr.ErrRevokedToken)
	}
	_, err := iss.Validate(ctx, other)
	assert.NoError(t, err)
}

func TestValidate_Invalid(t *testing.T) {
	iss, store := newIssuer(t)
	ctx := context.Background()

	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{}).SignedString(testSecret)
	require.NoError(t, err)

	orphan, err := iss.Issue(ctx, "u2")
	require.NoError(t, err)
	require.NoError(t, store.DeleteUser(ctx, "u2"))

	cases := map[string]string{
		"garbage":       "not-a-jwt",
		"wrong secret":  foreign,
		"alg none":      noneAlg,
		"no subject":    noSubject,
		"deleted owner": orphan,
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := iss.Validate(ctx, tok)
			assert.ErrorIs(t, err, apperr.ErrInvalidToken)
			assert.False(t, errors.Is(err, apperr.ErrRevokedToken))
		})
	}
}

type failingStore struct {
	*memory.Store
}

func (failingStore) AddToken(context.Context, string, string) error {
	return errors.New("disk full")
}

func TestIssue_PersistenceFailure(t *testing.T) {
	iss, err := NewIssuer(failingStore{memory.New()}, testSecret)
	require.NoError(t, err)
	iss.now = func() time.Time { return time.Unix(0, 0) }

	_, err = iss.Issue(context.Background(), "u1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store token")
}
