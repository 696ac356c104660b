package auth

import (
	"errors"
	"fmt"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUserNotFound    = errors.New("auth: user not found")
	ErrUserExists      = errors.New("auth: user already exists")
	ErrWeakPassword    = errors.New("auth: password must be at least 8 characters")
	ErrInvalidUsername = errors.New("auth: username must be 3-50 alphanumeric characters")
	ErrWrongPassword   = errors.New("auth: incorrect password")
)

const (
	minPasswordLength = 8
	bcryptCost        = 12
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,50}$`)

// User is one local-auth credential record. Passwords are never stored or
// returned in the clear.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         string
}

// UserStore is a minimal standalone in-memory bcrypt-backed credential
// store; the gateway has no login endpoint and does not use it. Grounded on
// the teacher's pkg/auth/user_store.go
// trimmed of its OIDC fields (spec has no external-identity-provider
// requirement).
type UserStore struct {
	mu    sync.RWMutex
	byID   map[string]*User
	byName map[string]*User
}

// NewUserStore returns an empty store.
func NewUserStore() *UserStore {
	return &UserStore{byID: make(map[string]*User), byName: make(map[string]*User)}
}

// CreateUser hashes password and stores a new user under username.
func (s *UserStore) CreateUser(username, password, role string) (*User, error) {
	if !usernameRegex.MatchString(username) {
		return nil, ErrInvalidUsername
	}
	if len(password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	if !validRoles[role] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byName[username]; exists {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	u := &User{ID: uuid.NewString(), Username: username, PasswordHash: string(hash), Role: role}
	s.byID[u.ID] = u
	s.byName[u.Username] = u
	return u, nil
}

// Authenticate checks username/password and returns the matching user.
func (s *UserStore) Authenticate(username, password string) (*User, error) {
	s.mu.RLock()
	u, ok := s.byName[username]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrWrongPassword
	}
	return u, nil
}

// Get returns the user with the given id.
func (s *UserStore) Get(id string) (*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.byID[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	return u, nil
}
