package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateToken(t *testing.T) {
	config := JWTConfig{Secret: "test-secret", TTLHours: 1}

	token, err := GenerateToken(config, "owner-123", "owner@example.com", "starter")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := ValidateToken("test-secret", token)
	require.NoError(t, err)
	assert.Equal(t, "owner-123", claims.OwnerID)
	assert.Equal(t, "owner@example.com", claims.Email)
	assert.Equal(t, "starter", claims.Tier)
}

func TestValidateTokenWrongSecret(t *testing.T) {
	config := JWTConfig{Secret: "test-secret", TTLHours: 1}

	token, err := GenerateToken(config, "owner-123", "owner@example.com", "free")
	require.NoError(t, err)

	_, err = ValidateToken("other-secret", token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenExpired(t *testing.T) {
	now := time.Now()
	claims := Claims{
		OwnerID: "owner-123",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = ValidateToken("test-secret", signed)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateTokenGarbage(t *testing.T) {
	_, err := ValidateToken("test-secret", "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
