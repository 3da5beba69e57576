package sqlstore

import (
	"context"
	"strings"

	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"
)

type UserRepo struct {
	s *Store
}

func NewUserRepo(s *Store) *UserRepo {
	return &UserRepo{s: s}
}

const userColumns = `id, username, email, password_hash, role, created_at`

func (r *UserRepo) Create(ctx context.Context, u users.User) error {
	_, err := r.s.db.ExecContext(ctx, r.s.rebind(`
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`),
		u.ID,
		u.Username,
		u.Email,
		u.PasswordHash,
		string(u.Role),
		toMillis(u.CreatedAt),
	)
	if err == nil {
		return nil
	}
	if detail, ok := uniqueViolation(err); ok {
		if strings.Contains(strings.ToLower(detail), "email") {
			return apperr.Conflict("email already registered")
		}
		return apperr.Conflict("username already taken")
	}
	return classify("create user", err)
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (users.User, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, notFoundOr("get user", "user", err)
	}
	return u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (users.User, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.rebind(`SELECT `+userColumns+` FROM users WHERE username = ?`), username)
	u, err := scanUser(row)
	if err != nil {
		return users.User{}, notFoundOr("get user by username", "user", err)
	}
	return u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]users.User, error) {
	rows, err := r.s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, classify("list users", err)
	}
	defer rows.Close()

	out := make([]users.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, classify("scan user", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list users", err)
	}
	return out, nil
}

func scanUser(sc scanner) (users.User, error) {
	var (
		u         users.User
		role      string
		createdAt int64
	)
	if err := sc.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt); err != nil {
		return users.User{}, err
	}
	u.Role = auth.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return u, nil
}

var _ users.Repository = (*UserRepo)(nil)
