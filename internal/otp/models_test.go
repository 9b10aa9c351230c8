package otp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOTPValid(t *testing.T) {
	now := time.Now()
	base := OTP{
		Code:      "ABC123",
		CreatedAt: now,
		ExpiresAt: now.Add(24 * time.Hour),
		IsActive:  true,
	}

	t.Run("fresh unlimited code", func(t *testing.T) {
		o := base
		assert.True(t, o.Valid(now))
	})

	t.Run("revoked", func(t *testing.T) {
		o := base
		o.IsActive = false
		assert.False(t, o.Valid(now))
	})

	t.Run("expired", func(t *testing.T) {
		o := base
		assert.False(t, o.Valid(now.Add(25*time.Hour)))
	})

	t.Run("expiry boundary is exclusive", func(t *testing.T) {
		o := base
		assert.False(t, o.Valid(o.ExpiresAt))
	})

	t.Run("exhausted", func(t *testing.T) {
		o := base
		o.MaxUses = 3
		o.UseCount = 3
		assert.False(t, o.Valid(now))
	})

	t.Run("uses remaining", func(t *testing.T) {
		o := base
		o.MaxUses = 3
		o.UseCount = 2
		assert.True(t, o.Valid(now))
	})

	t.Run("zero max uses is unlimited", func(t *testing.T) {
		o := base
		o.UseCount = 1000
		assert.True(t, o.Valid(now))
	})
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code, err := generateCode(6)
		require.NoError(t, err)
		assert.Len(t, code, 6)
		for _, c := range code {
			assert.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 95)
}
