package service

import (
	"context"
	"testing"
	"time"

	"hotspot-fulfillment/pkg/apperror"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorAuthService_Login(t *testing.T) {
	ctx := context.Background()
	hashSvc := NewArgon2HashService()
	tokenSvc := NewJWTTokenService("test-secret-key", time.Hour, "hotspot-fulfillment")

	hash, err := hashSvc.Hash("correct-horse")
	require.NoError(t, err)

	svc := NewOperatorAuthService("admin", hash, hashSvc, tokenSvc, zerolog.Nop())

	t.Run("valid credentials issue a token", func(t *testing.T) {
		token, expiresAt, err := svc.Login(ctx, "admin", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.True(t, expiresAt.After(time.Now()))

		claims, err := tokenSvc.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", claims.Username)
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "admin", "wrong")
		var appErr *apperror.AppError
		require.ErrorAs(t, err, &appErr)
		assert.Equal(t, "AUTH_001", appErr.Code)
	})

	t.Run("wrong username is rejected", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "root", "correct-horse")
		require.Error(t, err)
	})

	t.Run("unconfigured operator always rejects", func(t *testing.T) {
		empty := NewOperatorAuthService("", "", hashSvc, tokenSvc, zerolog.Nop())
		_, _, err := empty.Login(ctx, "admin", "correct-horse")
		require.Error(t, err)
	})
}
