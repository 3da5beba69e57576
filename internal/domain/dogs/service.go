package dogs

import (
	"context"
	"strings"
	"time"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"github.com/google/uuid"
)

const maxNameLen = 50

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{
		repo: repo,
		now:  time.Now,
	}
}

type CreateInput struct {
	Name string
	Size string
}

// Create registra un perro para el actor. Solo usuarios owner pueden tener perros.
func (s *Service) Create(ctx context.Context, actor auth.Claims, in CreateInput) (Dog, error) {
	if strings.TrimSpace(actor.UserID) == "" {
		return Dog{}, apperr.ErrUnauthenticated
	}
	if !actor.IsOwner() {
		return Dog{}, apperr.Forbidden("only owners can register dogs")
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || len(name) > maxNameLen {
		return Dog{}, apperr.Validation("name must be 1-%d characters", maxNameLen)
	}
	size := Size(strings.ToLower(strings.TrimSpace(in.Size)))
	if !size.Valid() {
		return Dog{}, apperr.Validation("size must be small, medium or large")
	}

	d := Dog{
		ID:          uuid.NewString(),
		OwnerUserID: actor.UserID,
		Name:        name,
		Size:        size,
		CreatedAt:   s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return Dog{}, err
	}
	return d, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (Dog, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Dog{}, apperr.NotFound("dog")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerUserID string) ([]Dog, error) {
	return s.repo.ListByOwner(ctx, ownerUserID)
}

func (s *Service) ListAll(ctx context.Context) ([]Listing, error) {
	return s.repo.ListWithOwners(ctx)
}
