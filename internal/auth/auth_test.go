package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPassword(t *testing.T) {
	hash, err := HashPassword("hunter2")
	require.NoError(t, err)
	assert.True(t, CheckPassword(hash, "hunter2"))
	assert.False(t, CheckPassword(hash, "hunter3"))
}

func TestJWT_RoundTrip(t *testing.T) {
	tok, jti, err := SignJWT(42, "secret", time.Hour)
	require.NoError(t, err)
	assert.Len(t, jti, 26)

	c, err := ParseJWT(tok, "secret")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), c.UserID)
	assert.Equal(t, jti, c.TokenID)
}

func TestJWT_Rejects(t *testing.T) {
	tok, _, err := SignJWT(1, "secret", time.Hour)
	require.NoError(t, err)

	_, err = ParseJWT(tok, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, _, err := SignJWT(1, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = ParseJWT(expired, "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = ParseJWT("not-a-token", "secret")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
