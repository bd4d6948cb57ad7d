package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/medical-portal/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)

	token, exp, err := tm.GenerateToken("user-1", domain.SubjectTypeUser)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeUser, claims.Subject)
}

func TestTokenRejectsOtherSecret(t *testing.T) {
	token, _, err := NewTokenManager("one", time.Hour).GenerateToken("admin", domain.SubjectTypeAdmin)
	require.NoError(t, err)

	_, err = NewTokenManager("two", time.Hour).ParseToken(token)
	assert.Error(t, err)
}

func TestTokenExpires(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	issued := time.Now()
	tm.now = func() time.Time { return issued }

	token, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser)
	require.NoError(t, err)

	tm.now = func() time.Time { return issued.Add(2 * time.Minute) }
	_, err = tm.ParseToken(token)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	assert.NoError(t, ComparePassword(hash, "s3cret"))
	assert.ErrorIs(t, ComparePassword(hash, "wrong"), ErrInvalidCredentials)
}

func TestTokensCarryDistinctIDs(t *testing.T) {
	tm := NewTokenManager("secret", time.Hour)
	first, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser)
	require.NoError(t, err)
	second, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser)
	require.NoError(t, err)

	a, err := tm.ParseToken(first)
	require.NoError(t, err)
	b, err := tm.ParseToken(second)
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	l := NewMemoryRevocationList()
	now := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	require.NoError(t, l.Revoke(ctx, "t1", now.Add(time.Hour)))
	require.NoError(t, l.Revoke(ctx, "t2", now.Add(-time.Minute)))

	revoked, err := l.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, revoked)
	revoked, err = l.IsRevoked(ctx, "t2")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = l.IsRevoked(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, l.Revoke(ctx, "t3", now.Add(time.Hour)))
	assert.Len(t, l.revoked, 1)
}
