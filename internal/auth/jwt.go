// Package auth implements gateway bearer-token authentication: HS256 JWT
// issuance/validation with role claims, and a bcrypt-backed local user
// store. Adapted from the teacher's pkg/auth (JWTManager, user_store.go),
// trimmed of its OIDC fields and refresh-token flow — this module's
// gateway only needs single-token issuance and per-request validation.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("auth: invalid token")
	ErrExpiredToken  = errors.New("auth: token has expired")
	ErrInvalidClaims = errors.New("auth: invalid token claims")
	ErrShortSecret   = errors.New("auth: secret must be at least 32 characters")
	ErrInvalidRole   = errors.New("auth: invalid role")
)

// Roles named after the teacher's three-tier scheme. The role travels in
// the token and is checked for validity; the gateway only checks that a
// token is valid and does not restrict routes by role.
const (
	RoleAdmin  = "admin"
	RoleEditor = "editor"
	RoleViewer = "viewer"
)

var validRoles = map[string]bool{RoleAdmin: true, RoleEditor: true, RoleViewer: true}

// Claims is the decoded bearer-token payload attached to a request.
type Claims struct {
	UserID    string
	Role      string
	ExpiresAt time.Time
}

// JWTManager issues and validates HS256 tokens signed with a shared
// secret.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// NewJWTManager requires a secret of at least 32 bytes, the same minimum
// the teacher enforces.
func NewJWTManager(secret string, tokenDuration time.Duration) (*JWTManager, error) {
	if len(secret) < 32 {
		return nil, ErrShortSecret
	}
	return &JWTManager{secretKey: []byte(secret), tokenDuration: tokenDuration}, nil
}

// GenerateToken issues a signed token for userID at role.
func (m *JWTManager) GenerateToken(userID, role string) (string, error) {
	if !validRoles[role] {
		return "", fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"role":    role,
		"iat":     now.Unix(),
		"exp":     now.Add(m.tokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secretKey)
}

// ValidateToken parses and verifies tokenString, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claimsMap, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidClaims
	}
	userID, ok := claimsMap["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("%w: missing user_id", ErrInvalidClaims)
	}
	role, ok := claimsMap["role"].(string)
	if !ok || !validRoles[role] {
		return nil, fmt.Errorf("%w: missing or invalid role", ErrInvalidClaims)
	}
	expFloat, ok := claimsMap["exp"].(float64)
	if !ok {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidClaims)
	}
	expiresAt := time.Unix(int64(expFloat), 0)
	if time.Now().After(expiresAt) {
		return nil, ErrExpiredToken
	}

	return &Claims{UserID: userID, Role: role, ExpiresAt: expiresAt}, nil
}
