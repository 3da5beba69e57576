package walks

import (
	"context"
	"strings"
	"unicode/utf8"

	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"

	"github.com/google/uuid"
)

const maxCommentsLen = 1000

type RatingInput struct {
	Rating   int
	Comments string
}

// SubmitRating registra el único rating de una solicitud completada.
// El paseador se resuelve desde la postulación aceptada y el dueño desde el perro.
func (s *Service) SubmitRating(ctx context.Context, actor auth.Claims, requestID string, in RatingInput) (out WalkRating, err error) {
	defer func() {
		s.observe("rate", err, map[string]any{"walk_request_id": requestID, "rating": in.Rating})
	}()

	if err := requireActor(actor); err != nil {
		return WalkRating{}, err
	}

	req, ownerID, err := s.requireDogOwner(ctx, actor, requestID)
	if err != nil {
		return WalkRating{}, err
	}

	if in.Rating < MinRating || in.Rating > MaxRating {
		return WalkRating{}, apperr.Validation("rating must be an integer between %d and %d", MinRating, MaxRating)
	}
	comments := strings.TrimSpace(in.Comments)
	if utf8.RuneCountInString(comments) > maxCommentsLen {
		return WalkRating{}, apperr.Validation("comments must be at most %d characters", maxCommentsLen)
	}

	err = s.store.WithTx(ctx, func(tx Tx) error {
		cur, err := tx.LockRequest(ctx, req.ID)
		if err != nil {
			return err
		}
		if cur.Status != RequestCompleted {
			return apperr.Conflict("walk request is %s, not completed", cur.Status)
		}

		if _, err := tx.GetRating(ctx, req.ID); err == nil {
			return apperr.Conflict("walk request already rated")
		} else if !apperr.IsNotFound(err) {
			return err
		}

		acc, err := tx.FindAcceptedApplication(ctx, req.ID)
		if apperr.IsNotFound(err) {
			return apperr.Conflict("walk request has no accepted walker")
		}
		if err != nil {
			return err
		}

		out = WalkRating{
			ID:        uuid.NewString(),
			RequestID: req.ID,
			WalkerID:  acc.WalkerID,
			OwnerID:   ownerID,
			Rating:    in.Rating,
			Comments:  comments,
			CreatedAt: s.clock(),
		}
		// El índice único sobre request_id cubre la carrera entre dos inserts.
		return tx.InsertRating(ctx, out)
	})
	if err != nil {
		return WalkRating{}, err
	}
	return out, nil
}

// GetRating devuelve el rating de una solicitud. Visible para cualquier usuario autenticado.
func (s *Service) GetRating(ctx context.Context, actor auth.Claims, requestID string) (WalkRating, error) {
	if err := requireActor(actor); err != nil {
		return WalkRating{}, err
	}
	req, err := s.getRequest(ctx, requestID)
	if err != nil {
		return WalkRating{}, err
	}
	return s.store.GetRating(ctx, req.ID)
}
