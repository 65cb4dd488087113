package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/zekarki/WeatherAPI/internal/database"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// uniqueViolation is the PostgreSQL SQLSTATE for a unique constraint failure
const uniqueViolation = "23505"

type UserRepo struct {
	PostgresBaseRepo
}

// NewUserRepository creates a PostgreSQL-backed user repository
func NewUserRepository(db database.DB) *UserRepo {
	return &UserRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *UserRepo) ValidID(id string) bool {
	return validID(id)
}

func (r *UserRepo) Create(ctx context.Context, identity *models.Identity) (string, error) {
	identity.ID = uuid.NewString()
	_, err := r.db.GetDB().NamedExecContext(ctx, `
		INSERT INTO users (id, username, password, role, last_login, created_at)
		VALUES (:id, :username, :password, :role, :last_login, :created_at)`, identity)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return "", repository.ErrDuplicate
		}
		return "", errors.NewDatabaseError("failed to create user", err)
	}
	return identity.ID, nil
}

func (r *UserRepo) Get(ctx context.Context, id string) (*models.Identity, error) {
	if !validID(id) {
		return nil, repository.ErrInvalidID
	}
	return r.getOne(ctx, `SELECT * FROM users WHERE id = $1`, id)
}

func (r *UserRepo) FindByUsername(ctx context.Context, username string) (*models.Identity, error) {
	return r.getOne(ctx, `SELECT * FROM users WHERE username = $1`, username)
}

func (r *UserRepo) getOne(ctx context.Context, query string, args ...interface{}) (*models.Identity, error) {
	identity := &models.Identity{}
	if err := r.db.GetDB().GetContext(ctx, identity, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get user", err)
	}
	identity.LastLoginAt = identity.LastLoginAt.UTC()
	identity.CreatedAt = identity.CreatedAt.UTC()
	return identity, nil
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrInvalidID
	}
	n, err := r.exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) DeleteByRoleLastLogin(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error) {
	return r.exec(ctx, `DELETE FROM users WHERE role = $1 AND last_login BETWEEN $2 AND $3`,
		string(role), tr.Start, tr.End)
}

func (r *UserRepo) UpdateRoleCreatedBetween(ctx context.Context, tr models.TimeRange, role models.Role) (int64, error) {
	return r.exec(ctx, `UPDATE users SET role = $1 WHERE created_at BETWEEN $2 AND $3 AND role <> $1`,
		string(role), tr.Start, tr.End)
}

func (r *UserRepo) TouchLogin(ctx context.Context, id string, at time.Time) error {
	if !validID(id) {
		return repository.ErrInvalidID
	}
	n, err := r.exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *UserRepo) PurgeInactive(ctx context.Context, before time.Time) (int64, error) {
	return r.exec(ctx, `DELETE FROM users WHERE last_login < $1`, before)
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...interface{}) (int64, error) {
	result, err := r.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return r.rowsAffected(result)
}
