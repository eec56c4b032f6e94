package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(4) // low cost to keep the test fast

	hash, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret", hash)

	assert.NoError(t, hasher.Compare(hash, "s3cret"))
	assert.Error(t, hasher.Compare(hash, "wrong"))
}

func TestJWTManagerRoundTrip(t *testing.T) {
	mgr := NewJWTManager([]byte("test-secret"), time.Hour)

	token, err := mgr.Issue("user-1", "tech@example.com")
	require.NoError(t, err)

	identity, err := mgr.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", identity.UserID)
	assert.Equal(t, "tech@example.com", identity.Email)
}

func TestJWTManagerRejectsBadTokens(t *testing.T) {
	mgr := NewJWTManager([]byte("test-secret"), time.Hour)

	_, err := mgr.Verify("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	// token signed with a different secret
	other := NewJWTManager([]byte("other-secret"), time.Hour)
	token, err := other.Issue("user-1", "tech@example.com")
	require.NoError(t, err)
	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTManagerRejectsExpiredTokens(t *testing.T) {
	mgr := NewJWTManager([]byte("test-secret"), -time.Minute)

	token, err := mgr.Issue("user-1", "tech@example.com")
	require.NoError(t, err)

	_, err = mgr.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
