// Package seed carga datos de demo a través de los servicios de dominio,
// así cada fila respeta el ciclo de vida igual que si viniera por HTTP.
package seed

import (
	"context"
	"fmt"
	"time"

	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/domain/walks"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/ports/auth"
)

// DemoPassword es la contraseña de todos los usuarios de demo.
const DemoPassword = "password123"

type Services struct {
	Users *users.Service
	Dogs  *dogs.Service
	Walks *walks.Service
}

type demoUser struct {
	username string
	role     auth.Role
}

var demoUsers = []demoUser{
	{"alice123", auth.RoleOwner},
	{"bobwalker", auth.RoleWalker},
	{"carol123", auth.RoleOwner},
	{"davidowner", auth.RoleOwner},
	{"evewalker", auth.RoleWalker},
}

type demoDog struct {
	name  string
	size  string
	owner string
}

var demoDogs = []demoDog{
	{"Max", "medium", "alice123"},
	{"Bella", "small", "alice123"},
	{"Rocky", "large", "carol123"},
	{"Daisy", "small", "davidowner"},
	{"Gus", "medium", "davidowner"},
}

// Load registra usuarios, perros y paseos de demo. La última solicitud creada
// (Daisy, open) marca que la carga terminó; si ya existe no hace nada. Si una
// carga anterior quedó a medias, reutiliza usuarios y perros existentes.
func Load(ctx context.Context, svcs Services, log logger.Logger) error {
	if log == nil {
		log = logger.Nop()
	}

	done, err := loaded(ctx, svcs.Walks)
	if err != nil {
		return err
	}
	if done {
		log.Info("demo data already present, skipping seed", nil)
		return nil
	}

	claims := make(map[string]auth.Claims, len(demoUsers))
	resumed := make([]string, 0)
	for _, du := range demoUsers {
		u, err := svcs.Users.Register(ctx, users.RegisterInput{
			Username: du.username,
			Email:    du.username + "@example.com",
			Password: DemoPassword,
			Role:     string(du.role),
		})
		if apperr.IsConflict(err) {
			u, err = svcs.Users.Authenticate(ctx, du.username, DemoPassword)
			if err != nil {
				return fmt.Errorf("seed user %s exists with other credentials: %w", du.username, err)
			}
			resumed = append(resumed, du.username)
		}
		if err != nil {
			return fmt.Errorf("seed user %s: %w", du.username, err)
		}
		claims[du.username] = u.Claims()
	}
	if len(resumed) > 0 {
		log.Warn("partial demo data found, resuming seed", map[string]any{"existing_users": resumed})
	}

	dogIDs := make(map[string]string, len(demoDogs))
	for _, dd := range demoDogs {
		id, err := ensureDog(ctx, svcs.Dogs, claims[dd.owner], dd)
		if err != nil {
			return err
		}
		dogIDs[dd.name] = id
	}

	day := time.Date(2025, 4, 20, 8, 0, 0, 0, time.UTC)
	alice, carol, david := claims["alice123"], claims["carol123"], claims["davidowner"]
	bob, eve := claims["bobwalker"], claims["evewalker"]

	// bobwalker: dos paseos completados, 5 y 4 estrellas
	if err := completedAndRated(ctx, svcs.Walks, alice, bob, dogIDs["Max"], day, "Parklands", 5, "Great walk"); err != nil {
		return err
	}
	if err := completedAndRated(ctx, svcs.Walks, alice, bob, dogIDs["Bella"], day.Add(26*time.Hour), "Westlands", 4, "Good, a bit late"); err != nil {
		return err
	}

	// evewalker: postulación pendiente sobre Rocky
	rocky, err := svcs.Walks.CreateWalkRequest(ctx, carol, walks.CreateRequestInput{
		DogID: dogIDs["Rocky"], RequestedTime: day.Add(48 * time.Hour), DurationMinutes: 45, Location: "Karura Forest",
	})
	if err != nil {
		return fmt.Errorf("seed walk request Rocky: %w", err)
	}
	if _, err := svcs.Walks.SubmitApplication(ctx, eve, rocky.ID); err != nil {
		return fmt.Errorf("seed application Rocky: %w", err)
	}

	if _, err := svcs.Walks.CreateWalkRequest(ctx, david, walks.CreateRequestInput{
		DogID: dogIDs["Daisy"], RequestedTime: day.Add(72 * time.Hour), DurationMinutes: 30, Location: "Kilimani",
	}); err != nil {
		return fmt.Errorf("seed walk request Daisy: %w", err)
	}

	log.Info("demo data loaded", map[string]any{"users": len(demoUsers), "dogs": len(demoDogs)})
	return nil
}

// loaded indica si una carga anterior llegó hasta el final.
func loaded(ctx context.Context, svc *walks.Service) (bool, error) {
	open, err := svc.ListOpenRequests(ctx)
	if err != nil {
		return false, fmt.Errorf("seed check: %w", err)
	}
	for _, r := range open {
		if r.DogName == "Daisy" && r.OwnerUsername == "davidowner" {
			return true, nil
		}
	}
	return false, nil
}

func ensureDog(ctx context.Context, svc *dogs.Service, owner auth.Claims, dd demoDog) (string, error) {
	mine, err := svc.ListByOwner(ctx, owner.UserID)
	if err != nil {
		return "", fmt.Errorf("seed dog %s: %w", dd.name, err)
	}
	for _, d := range mine {
		if d.Name == dd.name {
			return d.ID, nil
		}
	}
	d, err := svc.Create(ctx, owner, dogs.CreateInput{Name: dd.name, Size: dd.size})
	if err != nil {
		return "", fmt.Errorf("seed dog %s: %w", dd.name, err)
	}
	return d.ID, nil
}

func completedAndRated(ctx context.Context, svc *walks.Service, owner, walker auth.Claims, dogID string, at time.Time, location string, rating int, comments string) error {
	req, err := svc.CreateWalkRequest(ctx, owner, walks.CreateRequestInput{
		DogID: dogID, RequestedTime: at, DurationMinutes: 30, Location: location,
	})
	if err != nil {
		return fmt.Errorf("seed walk request: %w", err)
	}
	app, err := svc.SubmitApplication(ctx, walker, req.ID)
	if err != nil {
		return fmt.Errorf("seed application: %w", err)
	}
	if _, err := svc.AcceptApplication(ctx, owner, app.ID); err != nil {
		return fmt.Errorf("seed accept: %w", err)
	}
	if _, err := svc.MarkCompleted(ctx, walker, req.ID); err != nil {
		return fmt.Errorf("seed complete: %w", err)
	}
	if _, err := svc.SubmitRating(ctx, owner, req.ID, walks.RatingInput{Rating: rating, Comments: comments}); err != nil {
		return fmt.Errorf("seed rating: %w", err)
	}
	return nil
}
