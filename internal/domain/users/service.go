package users

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	minUsernameLen = 3
	maxUsernameLen = 32
	minPasswordLen = 6
	// bcrypt ignora lo que pase de 72 bytes
	maxPasswordLen = 72
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type Service struct {
	repo     Repository
	now      func() time.Time
	hashCost int
}

func NewService(repo Repository) *Service {
	return &Service{
		repo:     repo,
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
	Role     string
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	role := auth.Role(strings.ToLower(strings.TrimSpace(in.Role)))

	if n := len(username); n < minUsernameLen || n > maxUsernameLen {
		return User{}, apperr.Validation("username must be %d-%d characters", minUsernameLen, maxUsernameLen)
	}
	if strings.ContainsAny(username, " \t\n") {
		return User{}, apperr.Validation("username must not contain spaces")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return User{}, apperr.Validation("email is invalid")
	}
	if n := len(in.Password); n < minPasswordLen || n > maxPasswordLen {
		return User{}, apperr.Validation("password must be %d-%d characters", minPasswordLen, maxPasswordLen)
	}
	if !role.Valid() {
		return User{}, apperr.Validation("role must be owner or walker")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return User{}, err
	}

	u := User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    s.now().UTC().Truncate(time.Millisecond),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Authenticate valida credenciales. Usuario inexistente y password incorrecto
// devuelven el mismo error para no revelar qué usernames existen.
func (s *Service) Authenticate(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, unauthenticated()
	}

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if apperr.IsNotFound(err) {
			return User{}, unauthenticated()
		}
		return User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return User{}, unauthenticated()
	}
	return u, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (User, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return User{}, apperr.NotFound("user")
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func unauthenticated() error {
	return fmt.Errorf("%w: %w", apperr.ErrUnauthenticated, ErrInvalidCredentials)
}
