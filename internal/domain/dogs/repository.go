package dogs

import "context"

type Repository interface {
	Create(ctx context.Context, d Dog) error
	GetByID(ctx context.Context, id string) (Dog, error)
	ListByOwner(ctx context.Context, ownerUserID string) ([]Dog, error)
	// ListWithOwners hace join con users; solo dueños con rol owner.
	ListWithOwners(ctx context.Context) ([]Listing, error)
}
