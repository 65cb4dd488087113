// FilePath: internal/repository/memory/memory.users.go
package memory

import (
	"context"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// UserRepo is an in-memory identity store keyed by id with a unique username index
type UserRepo struct {
	mu         sync.RWMutex
	users      map[string]*models.Identity
	byUsername map[string]string
}

// NewUserRepository creates an in-memory user repository
func NewUserRepository() *UserRepo {
	return &UserRepo{
		users:      make(map[string]*models.Identity),
		byUsername: make(map[string]string),
	}
}

func (r *UserRepo) ValidID(id string) bool {
	return id != ""
}

func (r *UserRepo) Create(ctx context.Context, identity *models.Identity) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byUsername[identity.Username]; exists {
		return "", repository.ErrDuplicate
	}
	stored := *identity
	stored.ID = nuts.NID("usr", 16)
	r.users[stored.ID] = &stored
	r.byUsername[stored.Username] = stored.ID
	identity.ID = stored.ID
	return stored.ID, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	identity, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *identity
	return &c, nil
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byUsername[username]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c := *r.users[id]
	return &c, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.deleteLocked(id) {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) deleteLocked(id string) bool {
	identity, ok := r.users[id]
	if !ok {
		return false
	}
	delete(r.byUsername, identity.Username)
	delete(r.users, id)
	return true
}

func (r *UserRepo) DeleteByRoleLastLogin(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, identity := range r.users {
		if identity.Role == role && tr.Contains(identity.LastLoginAt) {
			r.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) UpdateRoleCreatedBetween(ctx context.Context, tr models.TimeRange, role models.Role) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, identity := range r.users {
		if tr.Contains(identity.CreatedAt) && identity.Role != role {
			identity.Role = role
			n++
		}
	}
	return n, nil
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	identity, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	identity.LastLoginAt = at
	return nil
}

func (r *UserRepo) PurgeInactive(ctx context.Context, before time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, identity := range r.users {
		if identity.LastLoginAt.Before(before) {
			r.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

// SessionRepo is an in-memory session store used when no Redis is configured
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewSessionRepository creates an in-memory session repository
func NewSessionRepository() *SessionRepo {
	return &SessionRepo{
		sessions: make(map[string]*models.Session),
		now:      time.Now,
	}
}

func (r *SessionRepo) Create(ctx context.Context, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *session
	r.sessions[session.ID] = &c
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if !session.Active(r.now()) {
		delete(r.sessions, id)
		return nil, repository.ErrNotFound
	}
	c := *session
	return &c, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}
