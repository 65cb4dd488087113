package service

import (
	"context"
	"fmt"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/models"
)

// CreateUser hashes the password and stores a new identity
func (s *Service) CreateUser(ctx context.Context, username, password string, role models.Role) (*models.Identity, error) {
	hash, err := s.credentials.HashPassword(password)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	identity := &models.Identity{
		Username:     username,
		Role:         role,
		PasswordHash: hash,
		CreatedAt:    now,
		LastLoginAt:  now,
	}
	if _, err := s.users.Create(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to create user %s: %w", username, err)
	}
	nuts.L.Infof("[UserService] Created user %s (%s) with role %s", identity.Username, identity.ID, identity.Role)
	return identity, nil
}

// GetUser returns an identity by id
func (s *Service) GetUser(ctx context.Context, id string) (*models.Identity, error) {
	return s.users.Get(ctx, id)
}

// DeleteUser removes an identity by id
func (s *Service) DeleteUser(ctx context.Context, id string) error {
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	nuts.L.Infof("[UserService] Deleted user %s", id)
	return nil
}

// DeleteUsers removes identities of role whose last login lies in tr
func (s *Service) DeleteUsers(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error) {
	return s.Cleanup.DeleteUsers(ctx, role, tr)
}

// UpdateUserRoles assigns role to identities created within tr
func (s *Service) UpdateUserRoles(ctx context.Context, tr models.TimeRange, role models.Role) (int64, error) {
	n, err := s.users.UpdateRoleCreatedBetween(ctx, tr, role)
	if err != nil {
		return 0, fmt.Errorf("failed to update user roles: %w", err)
	}
	nuts.L.Infof("[UserService] Set role %s on %d users", role, n)
	return n, nil
}

// LoginResult is returned by OpenSession
type LoginResult struct {
	Identity *models.Identity
	Token    string
	Session  *models.Session
}

// OpenSession records the login time and issues a bearer token
func (s *Service) OpenSession(ctx context.Context, identity *models.Identity) (*LoginResult, error) {
	if err := s.users.TouchLogin(ctx, identity.ID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	token, session, err := s.tokens.Issue(identity)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}
	nuts.L.Infof("[UserService] User %s logged in", identity.Username)
	return &LoginResult{Identity: identity, Token: token, Session: session}, nil
}

// CloseSession revokes a bearer session
func (s *Service) CloseSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Revoke(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
