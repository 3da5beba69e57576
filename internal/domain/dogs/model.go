package dogs

import "time"

// Size define el tamaño del perro.
// @Enum small, medium, large
type Size string

const (
	SizeSmall  Size = "small"
	SizeMedium Size = "medium"
	SizeLarge  Size = "large"
)

func (s Size) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge:
		return true
	}
	return false
}

// Dog pertenece a un único usuario con rol owner.
type Dog struct {
	ID          string
	OwnerUserID string

	Name string
	Size Size

	CreatedAt time.Time
}

// Listing es la vista pública: perro + username del dueño.
type Listing struct {
	DogID         string
	DogName       string
	Size          Size
	OwnerUsername string
}
