package sqlstore

import (
	"context"

	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/platform/apperr"
)

type DogRepo struct {
	s *Store
}

func NewDogRepo(s *Store) *DogRepo {
	return &DogRepo{s: s}
}

func (r *DogRepo) Create(ctx context.Context, d dogs.Dog) error {
	_, err := r.s.db.ExecContext(ctx, r.s.rebind(`
		INSERT INTO dogs (id, owner_id, name, size, created_at)
		VALUES (?, ?, ?, ?, ?)
	`),
		d.ID,
		d.OwnerUserID,
		d.Name,
		string(d.Size),
		toMillis(d.CreatedAt),
	)
	if foreignKeyViolation(err) {
		return apperr.NotFound("owner")
	}
	return classify("create dog", err)
}

func (r *DogRepo) GetByID(ctx context.Context, id string) (dogs.Dog, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.rebind(`
		SELECT id, owner_id, name, size, created_at
		FROM dogs
		WHERE id = ?
	`), id)
	d, err := scanDog(row)
	if err != nil {
		return dogs.Dog{}, notFoundOr("get dog", "dog", err)
	}
	return d, nil
}

func (r *DogRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]dogs.Dog, error) {
	rows, err := r.s.db.QueryContext(ctx, r.s.rebind(`
		SELECT id, owner_id, name, size, created_at
		FROM dogs
		WHERE owner_id = ?
		ORDER BY created_at ASC, id ASC
	`), ownerUserID)
	if err != nil {
		return nil, classify("list dogs", err)
	}
	defer rows.Close()

	out := make([]dogs.Dog, 0)
	for rows.Next() {
		d, err := scanDog(rows)
		if err != nil {
			return nil, classify("scan dog", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list dogs", err)
	}
	return out, nil
}

func (r *DogRepo) ListWithOwners(ctx context.Context) ([]dogs.Listing, error) {
	rows, err := r.s.db.QueryContext(ctx, `
		SELECT d.id, d.name, d.size, u.username
		FROM dogs d
		JOIN users u ON u.id = d.owner_id
		WHERE u.role = 'owner'
		ORDER BY d.name ASC, d.id ASC
	`)
	if err != nil {
		return nil, classify("list dogs with owners", err)
	}
	defer rows.Close()

	out := make([]dogs.Listing, 0)
	for rows.Next() {
		var (
			l    dogs.Listing
			size string
		)
		if err := rows.Scan(&l.DogID, &l.DogName, &size, &l.OwnerUsername); err != nil {
			return nil, classify("scan dog listing", err)
		}
		l.Size = dogs.Size(size)
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list dogs with owners", err)
	}
	return out, nil
}

func scanDog(sc scanner) (dogs.Dog, error) {
	var (
		d         dogs.Dog
		size      string
		createdAt int64
	)
	if err := sc.Scan(&d.ID, &d.OwnerUserID, &d.Name, &size, &createdAt); err != nil {
		return dogs.Dog{}, err
	}
	d.Size = dogs.Size(size)
	d.CreatedAt = fromMillis(createdAt)
	return d, nil
}

var _ dogs.Repository = (*DogRepo)(nil)
