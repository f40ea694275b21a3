package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	m, err := NewTokenManager("secret", "shop-assistant", time.Hour)
	require.NoError(t, err)

	token, err := m.GenerateToken(context.Background(), "u-1", "ada@example.com", "admin")
	require.NoError(t, err)

	claims, err := m.ValidateToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "admin", claims.Role)
	assert.Equal(t, "u-1", claims.Subject)
}

func TestTokenManager_Rejects(t *testing.T) {
	m, err := NewTokenManager("secret", "shop-assistant", time.Hour)
	require.NoError(t, err)
	token, err := m.GenerateToken(context.Background(), "u-1", "ada@example.com", "user")
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		other, _ := NewTokenManager("other", "shop-assistant", time.Hour)
		_, err := other.ValidateToken(context.Background(), token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		other, _ := NewTokenManager("secret", "someone-else", time.Hour)
		_, err := other.ValidateToken(context.Background(), token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("expired", func(t *testing.T) {
		later, _ := NewTokenManager("secret", "shop-assistant", time.Hour)
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.ValidateToken(context.Background(), token)
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.ValidateToken(context.Background(), "not-a-token")
		assert.True(t, errors.Is(err, ErrInvalidToken))
	})
}

func TestNewTokenManager_RequiresSecret(t *testing.T) {
	_, err := NewTokenManager("", "shop-assistant", time.Hour)
	assert.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)

	assert.NoError(t, CheckPassword(hash, "s3cret!"))
	assert.ErrorIs(t, CheckPassword(hash, "wrong"), ErrPasswordMismatch)
}
