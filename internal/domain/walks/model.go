package walks

import "time"

type RequestStatus string

const (
	RequestOpen      RequestStatus = "open"
	RequestAccepted  RequestStatus = "accepted"
	RequestCompleted RequestStatus = "completed"
	RequestCancelled RequestStatus = "cancelled"
)

// Terminal indica que no hay transición posible desde este estado.
func (s RequestStatus) Terminal() bool {
	return s == RequestCompleted || s == RequestCancelled
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationAccepted ApplicationStatus = "accepted"
	ApplicationRejected ApplicationStatus = "rejected"
)

const (
	MinRating = 1
	MaxRating = 5
)

// WalkRequest es una oportunidad de paseo para un perro.
// Status solo lo modifica el Service (ciclo de vida).
type WalkRequest struct {
	ID    string
	DogID string

	RequestedTime   time.Time
	DurationMinutes int
	Location        string

	Status RequestStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalkApplication es la postulación de un paseador a una solicitud.
type WalkApplication struct {
	ID        string
	RequestID string
	WalkerID  string

	Status ApplicationStatus

	CreatedAt time.Time
	UpdatedAt time.Time
}

// WalkRating es inmutable una vez creado.
type WalkRating struct {
	ID        string
	RequestID string
	WalkerID  string
	OwnerID   string

	Rating   int
	Comments string

	CreatedAt time.Time
}

// OpenRequest es la vista pública de /api/walkrequests/open.
type OpenRequest struct {
	RequestID       string
	DogName         string
	RequestedTime   time.Time
	DurationMinutes int
	Location        string
	OwnerUsername   string
}

// SummaryRow es una fila del outer join walkers -> aplicaciones aceptadas ->
// solicitudes completadas -> ratings. RequestID vacío y Rating nil cuando no hay match.
type SummaryRow struct {
	WalkerID       string
	WalkerUsername string
	RequestID      string
	Rating         *int
}

// WalkerSummary es una fila del resumen por paseador.
// AverageRating es nil si y solo si TotalRatings == 0.
type WalkerSummary struct {
	WalkerUsername string
	CompletedWalks int
	TotalRatings   int
	AverageRating  *float64
}

// Acceptance es el resultado de aceptar una postulación.
type Acceptance struct {
	Request     WalkRequest
	Application WalkApplication
}
