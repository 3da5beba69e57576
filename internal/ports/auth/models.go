package auth

// Role es el rol del usuario. Inmutable desde el registro.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleWalker Role = "walker"
)

func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleWalker
}

// Claims representa la identidad ya autenticada del actor.
// El dominio la recibe explícitamente en cada operación y la toma como verdad.
type Claims struct {
	UserID   string
	Username string
	Role     Role
}

func (c Claims) IsOwner() bool  { return c.Role == RoleOwner }
func (c Claims) IsWalker() bool { return c.Role == RoleWalker }
