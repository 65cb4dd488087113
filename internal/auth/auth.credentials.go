// FilePath: internal/auth/auth.credentials.go
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// ErrStorageUnavailable wraps any credential lookup failure other than a miss
var ErrStorageUnavailable = errors.New("credential store unavailable")

// CredentialStore is the read-only view of identities used for authentication
type CredentialStore struct {
	users repository.UserRepository
	cost  int
}

// NewCredentialStore creates a credential store over the user repository
func NewCredentialStore(users repository.UserRepository, cost int) *CredentialStore {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &CredentialStore{users: users, cost: cost}
}

// FindByUsername returns repository.ErrNotFound on a miss and ErrStorageUnavailable otherwise
func (c *CredentialStore) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	identity, err := c.users.FindByUsername(ctx, username)
	if err == nil {
		return identity, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	return nil, fmt.Errorf("%w: %v", ErrStorageUnavailable, err)
}

// VerifyPassword reports whether plain matches the bcrypt hash
func (c *CredentialStore) VerifyPassword(plain, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// HashPassword hashes a new password with the configured cost
func (c *CredentialStore) HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), c.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// Check looks up username and verifies password. A miss and a mismatch are
// indistinguishable to the caller.
func (c *CredentialStore) Check(ctx context.Context, username, password string) (*models.Identity, error) {
	identity, err := c.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !c.VerifyPassword(password, identity.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return identity, nil
}
