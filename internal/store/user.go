package store

import (
	"context"
	"fmt"

	"appointment-booking-api/internal/model"
)

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, role) VALUES ($1,$2,$3) RETURNING created_at`,
		u.ID, u.Email, string(u.Role),
	).Scan(&u.CreatedAt)
	if err != nil {
		if pgCode(err) == pgUniqueViolation {
			return fmt.Errorf("email %q: %w", u.Email, ErrConflict)
		}
		return err
	}
	u.CreatedAt = u.CreatedAt.UTC()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	u := &model.User{}
	var role string
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, role, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &role, &u.CreatedAt)
	if err != nil {
		return nil, noRows(err)
	}
	u.Role = model.Role(role)
	u.CreatedAt = u.CreatedAt.UTC()
	return u, nil
}

// DeleteUser refuses to remove a user that still owns appointments.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if pgCode(err) == pgForeignKeyViolation {
			return fmt.Errorf("user %s: %w", id, ErrReferenced)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
