package users

import "context"

type Repository interface {
	// Create devuelve apperr.ErrStateConflict si username o email ya existen.
	Create(ctx context.Context, u User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByUsername(ctx context.Context, username string) (User, error)
	List(ctx context.Context) ([]User, error)
}
