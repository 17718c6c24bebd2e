package jwtauth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBind(t *testing.T) {
	claims := &Claims{
		Subject:   "alice",
		IssuedAt:  time.Now(),
		ExpiresAt: time.Now().Add(time.Hour),
		Audience:  testAudience,
		Issuer:    testIssuer,
	}

	t.Run("no required username binds the subject", func(t *testing.T) {
		ctx, err := Bind(claims, "")
		require.NoError(t, err)
		assert.Equal(t, "alice", ctx.Username)
	})

	t.Run("matching required username succeeds", func(t *testing.T) {
		ctx, err := Bind(claims, "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", ctx.Username)
	})

	t.Run("mismatched required username is forbidden", func(t *testing.T) {
		_, err := Bind(claims, "bob")
		assertKind(t, err, KindForbidden)
	})

	t.Run("comparison is case-sensitive", func(t *testing.T) {
		_, err := Bind(claims, "Alice")
		assertKind(t, err, KindForbidden)
	})
}

func TestAuthorizeForUsername(t *testing.T) {
	ctx := &AuthContext{Username: "alice"}

	assert.NoError(t, AuthorizeForUsername(ctx, "alice"))
	assertKind(t, AuthorizeForUsername(ctx, "bob"), KindForbidden)
	assertKind(t, AuthorizeForUsername(ctx, "ALICE"), KindForbidden)
	assertKind(t, AuthorizeForUsername(nil, "alice"), KindMissingToken)
}

func TestErrorKindCategories(t *testing.T) {
	unauthenticated := []ErrorKind{
		KindMissingToken, KindMalformedToken, KindUnsupportedAlgorithm,
		KindInvalidSignature, KindTokenExpired, KindTokenTooOld,
		KindInvalidAudience, KindInvalidIssuer, KindInvalidClaims,
	}
	for _, k := range unauthenticated {
		assert.True(t, k.IsUnauthenticated(), string(k))
	}
	assert.False(t, KindForbidden.IsUnauthenticated())
}

func TestErrorsIsMatchesByKind(t *testing.T) {
	err := newError(KindTokenExpired, "token has expired")
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrInvalidSignature)
}
