package walks

import (
	"context"
	"strings"
	"time"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/platform/logger"
	"dog-walk-service/internal/platform/metrics"
	"dog-walk-service/internal/ports/auth"
)

// Service concentra el ciclo de vida de solicitudes/postulaciones, la validación
// de ratings y el resumen por paseador. Es el único que escribe campos status.
type Service struct {
	store Store
	dogs  DogOwnerLookup
	log   logger.Logger
	now   func() time.Time
}

func NewService(store Store, dogs DogOwnerLookup, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store: store,
		dogs:  dogs,
		log:   log,
		now:   time.Now,
	}
}

// clock devuelve el instante actual truncado a ms (los stores SQL guardan epoch ms).
func (s *Service) clock() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

func requireActor(actor auth.Claims) error {
	if strings.TrimSpace(actor.UserID) == "" {
		return apperr.ErrUnauthenticated
	}
	return nil
}

// ownerOf resuelve el dueño del perro de la solicitud.
func (s *Service) ownerOf(ctx context.Context, req WalkRequest) (string, error) {
	ownerID, err := s.dogs.OwnerOf(ctx, req.DogID)
	if err != nil {
		return "", err
	}
	return ownerID, nil
}

// requireDogOwner carga la solicitud y verifica que actor sea dueño del perro.
func (s *Service) requireDogOwner(ctx context.Context, actor auth.Claims, requestID string) (WalkRequest, string, error) {
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return WalkRequest{}, "", err
	}
	ownerID, err := s.ownerOf(ctx, req)
	if err != nil {
		return WalkRequest{}, "", err
	}
	if ownerID != actor.UserID {
		return WalkRequest{}, "", apperr.Forbidden("only the dog's owner can do this")
	}
	return req, ownerID, nil
}

func (s *Service) getRequest(ctx context.Context, id string) (WalkRequest, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return WalkRequest{}, apperr.NotFound("walk request")
	}
	return s.store.GetRequest(ctx, id)
}

// observe registra la métrica y el log de una operación de dominio.
func (s *Service) observe(op string, err error, fields map[string]any) {
	switch {
	case err == nil:
		metrics.RecordWalkOperation(op, metrics.OutcomeOK)
		s.log.Info("walk "+op, fields)
	case apperr.IsConflict(err):
		metrics.RecordWalkOperation(op, metrics.OutcomeConflict)
		s.log.Warn("walk "+op+" conflict", merge(fields, "err", err))
	case apperr.HTTPStatus(err) < 500:
		metrics.RecordWalkOperation(op, metrics.OutcomeRejected)
		s.log.Debug("walk "+op+" rejected", merge(fields, "err", err))
	default:
		metrics.RecordWalkOperation(op, metrics.OutcomeError)
		s.log.Error("walk "+op+" failed", merge(fields, "err", err))
	}
}

func merge(fields map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(fields)+1)
	for fk, fv := range fields {
		out[fk] = fv
	}
	out[k] = v
	return out
}
