package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"technova/config"
	"technova/models"
)

func TestGenerateAndParseJWT(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	user := &models.User{Model: gorm.Model{ID: 42}, TokenVersion: 3}

	access, refresh, err := GenerateJWTToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, access)
	require.NotEmpty(t, refresh)
	assert.NotEqual(t, access, refresh)

	claims, err := ParseJWTToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, 3, claims.TokenVersion)
	assert.NotEmpty(t, claims.SessionID)
}

func TestParseJWTRejectsTampering(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	user := &models.User{Model: gorm.Model{ID: 1}}
	access, _, err := GenerateJWTToken(user)
	require.NoError(t, err)

	_, err = ParseJWTToken(access + "x")
	assert.Error(t, err)

	config.AppConfig.JWTSecret = "different-secret"
	_, err = ParseJWTToken(access)
	assert.Error(t, err)
}

func TestRefreshTokens(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	user := &models.User{Model: gorm.Model{ID: 7}, TokenVersion: 1}
	_, refresh, err := GenerateJWTToken(user)
	require.NoError(t, err)

	access2, refresh2, err := RefreshTokens(refresh, user)
	require.NoError(t, err)
	assert.NotEmpty(t, access2)
	assert.NotEmpty(t, refresh2)

	// A version bump (logout) revokes outstanding refresh tokens
	user.TokenVersion = 2
	_, _, err = RefreshTokens(refresh, user)
	assert.Error(t, err)

	// A token for another user is rejected
	other := &models.User{Model: gorm.Model{ID: 8}, TokenVersion: 1}
	_, _, err = RefreshTokens(refresh, other)
	assert.Error(t, err)
}
