package walks

import (
	"context"
	"time"
)

// Reader agrupa las lecturas disponibles dentro y fuera de una transacción.
// Todas devuelven apperr.ErrNotFound cuando la fila no existe.
type Reader interface {
	GetRequest(ctx context.Context, id string) (WalkRequest, error)
	GetApplication(ctx context.Context, id string) (WalkApplication, error)
	ListApplications(ctx context.Context, requestID string) ([]WalkApplication, error)
	ListApplicationsByWalker(ctx context.Context, walkerID string) ([]WalkApplication, error)
	FindAcceptedApplication(ctx context.Context, requestID string) (WalkApplication, error)
	GetRating(ctx context.Context, requestID string) (WalkRating, error)
}

// Tx es la vista transaccional del store. Las actualizaciones de estado son
// compare-and-set: devuelven false si la fila no estaba en el estado esperado.
type Tx interface {
	Reader

	// LockRequest lee la solicitud y la bloquea hasta el fin de la transacción.
	LockRequest(ctx context.Context, id string) (WalkRequest, error)

	HasLiveApplication(ctx context.Context, requestID, walkerID string) (bool, error)
	InsertApplication(ctx context.Context, a WalkApplication) error

	UpdateRequestStatus(ctx context.Context, id string, from []RequestStatus, to RequestStatus, at time.Time) (bool, error)
	UpdateApplicationStatus(ctx context.Context, id string, from, to ApplicationStatus, at time.Time) (bool, error)
	// RejectOtherApplications rechaza las postulaciones no rechazadas de la
	// solicitud excepto keepID (vacío = todas).
	RejectOtherApplications(ctx context.Context, requestID, keepID string, at time.Time) (int, error)

	// InsertRating devuelve apperr.ErrStateConflict si ya existe rating para la solicitud.
	InsertRating(ctx context.Context, r WalkRating) error
}

type Store interface {
	Reader

	CreateRequest(ctx context.Context, r WalkRequest) error
	ListOpenRequests(ctx context.Context) ([]OpenRequest, error)

	// SummaryRows devuelve el outer join completo en una sola lectura consistente.
	SummaryRows(ctx context.Context) ([]SummaryRow, error)

	// WithTx ejecuta fn en una transacción: commit si fn devuelve nil, rollback si no.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// DogOwnerLookup evita importar el paquete dogs (rompe ciclos).
type DogOwnerLookup interface {
	OwnerOf(ctx context.Context, dogID string) (string, error)
}
