package memory

import (
	"context"
	"sort"
	"strings"

	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/platform/apperr"
)

type userRepo struct {
	db *DB
}

func NewUserRepo(db *DB) users.Repository {
	return &userRepo{db: db}
}

func (r *userRepo) Create(_ context.Context, u users.User) error {
	if strings.TrimSpace(u.ID) == "" {
		return apperr.Validation("user id required")
	}
	return r.db.write(func(st *state) error {
		if _, exists := st.users[u.ID]; exists {
			return apperr.Conflict("user already exists")
		}
		for _, other := range st.users {
			if other.Username == u.Username {
				return apperr.Conflict("username already taken")
			}
			if strings.EqualFold(other.Email, u.Email) {
				return apperr.Conflict("email already registered")
			}
		}
		st.users[u.ID] = u
		return nil
	})
}

func (r *userRepo) GetByID(_ context.Context, id string) (u users.User, err error) {
	r.db.read(func(st *state) {
		var ok bool
		if u, ok = st.users[id]; !ok {
			err = apperr.NotFound("user")
		}
	})
	return u, err
}

func (r *userRepo) GetByUsername(_ context.Context, username string) (u users.User, err error) {
	err = apperr.NotFound("user")
	r.db.read(func(st *state) {
		for _, candidate := range st.users {
			if candidate.Username == username {
				u, err = candidate, nil
				return
			}
		}
	})
	return u, err
}

func (r *userRepo) List(_ context.Context) ([]users.User, error) {
	out := make([]users.User, 0)
	r.db.read(func(st *state) {
		for _, u := range st.users {
			out = append(out, u)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}
