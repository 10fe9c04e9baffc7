package repository

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/gurkanbulca/tasklist/internal/models"
)

const usersTable = "users"

var userColumns = []string{"id", "name", "email", "created_at"}

// UserRepository keeps a local copy of the users referenced by tasks. The
// account lifecycle itself lives with the token issuer.
type UserRepository struct {
	ext sqlx.ExtContext
}

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{ext: db}
}

// WithTx returns a repository that runs its statements in tx.
func (r *UserRepository) WithTx(tx *sqlx.Tx) *UserRepository {
	return &UserRepository{ext: tx}
}

// Upsert records the user, refreshing name and email when already present.
func (r *UserRepository) Upsert(ctx context.Context, u *models.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
	query := r.ext.Rebind(`INSERT INTO users (id, name, email, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET name = excluded.name, email = excluded.email`)
	if _, err := r.ext.ExecContext(ctx, query, u.ID, u.Name, u.Email, u.CreatedAt); err != nil {
		return fmt.Errorf("upsert user %s: %w", u.ID, err)
	}
	return nil
}

// GetMany returns the known users among ids, keyed by id.
func (r *UserRepository) GetMany(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.User, error) {
	byID := make(map[uuid.UUID]models.User, len(ids))
	if len(ids) == 0 {
		return byID, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query, qargs := entsql.Dialect(r.ext.DriverName()).
		Select(userColumns...).
		From(entsql.Table(usersTable)).
		Where(entsql.In("id", args...)).
		Query()

	var users []models.User
	if err := sqlx.SelectContext(ctx, r.ext, &users, query, qargs...); err != nil {
		return nil, fmt.Errorf("get users: %w", err)
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID, nil
}
