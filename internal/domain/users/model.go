package users

import (
	"time"

	"dog-walk-service/internal/ports/auth"
)

// User es una cuenta de dueño o paseador.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Role         auth.Role
	CreatedAt    time.Time
}

func (u User) Claims() auth.Claims {
	return auth.Claims{UserID: u.ID, Username: u.Username, Role: u.Role}
}
