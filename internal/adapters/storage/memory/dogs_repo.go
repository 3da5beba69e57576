package memory

import (
	"context"
	"sort"
	"strings"

	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"
)

type dogRepo struct {
	db *DB
}

func NewDogRepo(db *DB) dogs.Repository {
	return &dogRepo{db: db}
}

func (r *dogRepo) Create(_ context.Context, d dogs.Dog) error {
	if strings.TrimSpace(d.ID) == "" {
		return apperr.Validation("dog id required")
	}
	return r.db.write(func(st *state) error {
		if _, exists := st.dogs[d.ID]; exists {
			return apperr.Conflict("dog already exists")
		}
		// Igual que la FK en SQL
		if _, ok := st.users[d.OwnerUserID]; !ok {
			return apperr.NotFound("owner")
		}
		st.dogs[d.ID] = d
		return nil
	})
}

func (r *dogRepo) GetByID(_ context.Context, id string) (d dogs.Dog, err error) {
	r.db.read(func(st *state) {
		var ok bool
		if d, ok = st.dogs[id]; !ok {
			err = apperr.NotFound("dog")
		}
	})
	return d, err
}

func (r *dogRepo) ListByOwner(_ context.Context, ownerUserID string) ([]dogs.Dog, error) {
	out := make([]dogs.Dog, 0)
	r.db.read(func(st *state) {
		for _, d := range st.dogs {
			if d.OwnerUserID == ownerUserID {
				out = append(out, d)
			}
		}
	})

	// Orden estable por created_at asc
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *dogRepo) ListWithOwners(_ context.Context) ([]dogs.Listing, error) {
	out := make([]dogs.Listing, 0)
	r.db.read(func(st *state) {
		for _, d := range st.dogs {
			owner, ok := st.users[d.OwnerUserID]
			if !ok || owner.Role != auth.RoleOwner {
				continue
			}
			out = append(out, dogs.Listing{
				DogID:         d.ID,
				DogName:       d.Name,
				Size:          d.Size,
				OwnerUsername: owner.Username,
			})
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if out[i].DogName != out[j].DogName {
			return out[i].DogName < out[j].DogName
		}
		return out[i].DogID < out[j].DogID
	})
	return out, nil
}
