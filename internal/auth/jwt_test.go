package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const testSecret = "this-is-a-32-byte-or-longer-secret!"

func TestNewJWTManagerRejectsShortSecret(t *testing.T) {
	_, err := NewJWTManager("too-short", time.Hour)
	require.ErrorIs(t, err, ErrShortSecret)
}

func TestGenerateAndValidateTokenRoundTrips(t *testing.T) {
	mgr, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)

	token, err := mgr.GenerateToken("user-1", RoleEditor)
	require.NoError(t, err)

	claims, err := mgr.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.UserID)
	require.Equal(t, RoleEditor, claims.Role)
}

func TestGenerateTokenRejectsInvalidRole(t *testing.T) {
	mgr, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = mgr.GenerateToken("user-1", "superuser")
	require.ErrorIs(t, err, ErrInvalidRole)
}

func TestValidateTokenRejectsExpiredToken(t *testing.T) {
	mgr, err := NewJWTManager(testSecret, -time.Hour)
	require.NoError(t, err)
	token, err := mgr.GenerateToken("user-1", RoleViewer)
	require.NoError(t, err)

	_, err = mgr.ValidateToken(token)
	require.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	mgr, err := NewJWTManager(testSecret, time.Hour)
	require.NoError(t, err)
	_, err = mgr.ValidateToken("not-a-jwt")
	require.ErrorIs(t, err, ErrInvalidToken)
}
