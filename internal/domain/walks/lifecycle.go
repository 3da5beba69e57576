package walks

import (
	"context"
	"strings"
	"time"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"github.com/google/uuid"
)

const (
	maxDurationMinutes = 24 * 60
	maxLocationLen     = 255
)

type CreateRequestInput struct {
	DogID           string
	RequestedTime   time.Time
	DurationMinutes int
	Location        string
}

// CreateWalkRequest crea una solicitud open para un perro del actor.
func (s *Service) CreateWalkRequest(ctx context.Context, actor auth.Claims, in CreateRequestInput) (out WalkRequest, err error) {
	defer func() { s.observe("create", err, map[string]any{"walk_request_id": out.ID, "dog_id": in.DogID}) }()

	if err := requireActor(actor); err != nil {
		return WalkRequest{}, err
	}

	dogID := strings.TrimSpace(in.DogID)
	location := strings.TrimSpace(in.Location)
	switch {
	case dogID == "":
		return WalkRequest{}, apperr.Validation("dog_id is required")
	case in.RequestedTime.IsZero():
		return WalkRequest{}, apperr.Validation("requested_time is required")
	case in.DurationMinutes <= 0 || in.DurationMinutes > maxDurationMinutes:
		return WalkRequest{}, apperr.Validation("duration_minutes must be between 1 and %d", maxDurationMinutes)
	case location == "" || len(location) > maxLocationLen:
		return WalkRequest{}, apperr.Validation("location must be 1-%d characters", maxLocationLen)
	}

	ownerID, err := s.dogs.OwnerOf(ctx, dogID)
	if err != nil {
		return WalkRequest{}, err
	}
	if ownerID != actor.UserID {
		return WalkRequest{}, apperr.Forbidden("only the dog's owner can request a walk")
	}

	now := s.clock()
	req := WalkRequest{
		ID:              uuid.NewString(),
		DogID:           dogID,
		RequestedTime:   in.RequestedTime.UTC().Truncate(time.Millisecond),
		DurationMinutes: in.DurationMinutes,
		Location:        location,
		Status:          RequestOpen,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return WalkRequest{}, err
	}
	return req, nil
}

// SubmitApplication postula al paseador actor a una solicitud open.
func (s *Service) SubmitApplication(ctx context.Context, actor auth.Claims, requestID string) (out WalkApplication, err error) {
	defer func() {
		s.observe("apply", err, map[string]any{"walk_request_id": requestID, "walker_id": actor.UserID})
	}()

	if err := requireActor(actor); err != nil {
		return WalkApplication{}, err
	}
	if !actor.IsWalker() {
		return WalkApplication{}, apperr.Forbidden("only walkers can apply to walk requests")
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return WalkApplication{}, apperr.NotFound("walk request")
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		// El lock serializa contra accept/cancel de la misma solicitud.
		req, err := tx.LockRequest(ctx, requestID)
		if err != nil {
			return err
		}
		if req.Status != RequestOpen {
			return apperr.Conflict("walk request is %s, not open", req.Status)
		}

		live, err := tx.HasLiveApplication(ctx, requestID, actor.UserID)
		if err != nil {
			return err
		}
		if live {
			return apperr.Validation("walker already applied to this walk request")
		}

		now := s.clock()
		out = WalkApplication{
			ID:        uuid.NewString(),
			RequestID: requestID,
			WalkerID:  actor.UserID,
			Status:    ApplicationPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return tx.InsertApplication(ctx, out)
	})
	if err != nil {
		return WalkApplication{}, err
	}
	return out, nil
}

// AcceptApplication acepta una postulación pendiente. En una sola transacción:
// solicitud open -> accepted, postulación pending -> accepted, hermanas -> rejected.
// Si otro accept gana la carrera, el perdedor recibe ErrStateConflict.
func (s *Service) AcceptApplication(ctx context.Context, actor auth.Claims, applicationID string) (out Acceptance, err error) {
	defer func() {
		s.observe("accept", err, map[string]any{"application_id": applicationID, "walk_request_id": out.Request.ID})
	}()

	if err := requireActor(actor); err != nil {
		return Acceptance{}, err
	}
	applicationID = strings.TrimSpace(applicationID)
	if applicationID == "" {
		return Acceptance{}, apperr.NotFound("walk application")
	}

	app, err := s.store.GetApplication(ctx, applicationID)
	if err != nil {
		return Acceptance{}, err
	}
	req, _, err := s.requireDogOwner(ctx, actor, app.RequestID)
	if err != nil {
		return Acceptance{}, err
	}

	if req.Status != RequestOpen {
		return Acceptance{}, apperr.Conflict("walk request is %s, not open", req.Status)
	}
	if app.Status != ApplicationPending {
		return Acceptance{}, apperr.Conflict("application is %s, not pending", app.Status)
	}

	now := s.clock()
	err = s.store.WithTx(ctx, func(tx Tx) error {
		ok, err := tx.UpdateRequestStatus(ctx, req.ID, []RequestStatus{RequestOpen}, RequestAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("walk request is no longer open")
		}

		ok, err = tx.UpdateApplicationStatus(ctx, app.ID, ApplicationPending, ApplicationAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.Conflict("application is no longer pending")
		}

		_, err = tx.RejectOtherApplications(ctx, req.ID, app.ID, now)
		return err
	})
	if err != nil {
		return Acceptance{}, err
	}

	req.Status, req.UpdatedAt = RequestAccepted, now
	app.Status, app.UpdatedAt = ApplicationAccepted, now
	return Acceptance{Request: req, Application: app}, nil
}

// MarkCompleted pasa una solicitud accepted a completed. Lo puede hacer el dueño
// del perro o el paseador aceptado.
func (s *Service) MarkCompleted(ctx context.Context, actor auth.Claims, requestID string) (out WalkRequest, err error) {
	defer func() { s.observe("complete", err, map[string]any{"walk_request_id": requestID}) }()

	if err := requireActor(actor); err != nil {
		return WalkRequest{}, err
	}

	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return WalkRequest{}, err
	}
	allowed, err := s.canComplete(ctx, actor, req)
	if err != nil {
		return WalkRequest{}, err
	}
	if !allowed {
		return WalkRequest{}, apperr.Forbidden("only the dog's owner or the accepted walker can complete a walk")
	}

	now := s.clock()
	err = s.store.WithTx(ctx, func(tx Tx) error {
		ok, err := tx.UpdateRequestStatus(ctx, req.ID, []RequestStatus{RequestAccepted}, RequestCompleted, now)
		if err != nil {
			return err
		}
		if !ok {
			return conflictFromCurrent(ctx, tx, req.ID, RequestAccepted)
		}
		return nil
	})
	if err != nil {
		return WalkRequest{}, err
	}

	req.Status, req.UpdatedAt = RequestCompleted, now
	return req, nil
}

func (s *Service) canComplete(ctx context.Context, actor auth.Claims, req WalkRequest) (bool, error) {
	ownerID, err := s.ownerOf(ctx, req)
	if err != nil {
		return false, err
	}
	if ownerID == actor.UserID {
		return true, nil
	}
	if !actor.IsWalker() {
		return false, nil
	}

	acc, err := s.store.FindAcceptedApplication(ctx, req.ID)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return acc.WalkerID == actor.UserID, nil
}

// CancelRequest cancela una solicitud open o accepted; las postulaciones vivas
// quedan rejected en la misma transacción.
func (s *Service) CancelRequest(ctx context.Context, actor auth.Claims, requestID string) (out WalkRequest, err error) {
	defer func() { s.observe("cancel", err, map[string]any{"walk_request_id": requestID}) }()

	if err := requireActor(actor); err != nil {
		return WalkRequest{}, err
	}

	req, _, err := s.requireDogOwner(ctx, actor, requestID)
	if err != nil {
		return WalkRequest{}, err
	}
	if req.Status.Terminal() {
		return WalkRequest{}, apperr.Conflict("walk request is already %s", req.Status)
	}

	now := s.clock()
	err = s.store.WithTx(ctx, func(tx Tx) error {
		ok, err := tx.UpdateRequestStatus(ctx, req.ID, []RequestStatus{RequestOpen, RequestAccepted}, RequestCancelled, now)
		if err != nil {
			return err
		}
		if !ok {
			return conflictFromCurrent(ctx, tx, req.ID, RequestOpen, RequestAccepted)
		}
		_, err = tx.RejectOtherApplications(ctx, req.ID, "", now)
		return err
	})
	if err != nil {
		return WalkRequest{}, err
	}

	req.Status, req.UpdatedAt = RequestCancelled, now
	return req, nil
}

// conflictFromCurrent arma el error de conflicto con el estado real de la fila.
func conflictFromCurrent(ctx context.Context, tx Tx, requestID string, expected ...RequestStatus) error {
	cur, err := tx.GetRequest(ctx, requestID)
	if err != nil {
		return err
	}
	want := make([]string, 0, len(expected))
	for _, e := range expected {
		want = append(want, string(e))
	}
	return apperr.Conflict("walk request is %s, expected %s", cur.Status, strings.Join(want, " or "))
}

// GetRequest devuelve una solicitud. Cualquier usuario autenticado puede verla.
func (s *Service) GetRequest(ctx context.Context, actor auth.Claims, requestID string) (WalkRequest, error) {
	if err := requireActor(actor); err != nil {
		return WalkRequest{}, err
	}
	return s.getRequest(ctx, requestID)
}

// ListApplications lista las postulaciones de una solicitud (solo dueño del perro).
func (s *Service) ListApplications(ctx context.Context, actor auth.Claims, requestID string) ([]WalkApplication, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	req, _, err := s.requireDogOwner(ctx, actor, requestID)
	if err != nil {
		return nil, err
	}
	return s.store.ListApplications(ctx, req.ID)
}

// ListMyApplications lista las postulaciones del paseador actor.
func (s *Service) ListMyApplications(ctx context.Context, actor auth.Claims) ([]WalkApplication, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if !actor.IsWalker() {
		return nil, apperr.Forbidden("only walkers have applications")
	}
	return s.store.ListApplicationsByWalker(ctx, actor.UserID)
}

// ListOpenRequests es público.
func (s *Service) ListOpenRequests(ctx context.Context) ([]OpenRequest, error) {
	return s.store.ListOpenRequests(ctx)
}
