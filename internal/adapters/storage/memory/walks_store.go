package memory

import (
	"context"
	"slices"
	"sort"
	"strings"
	"time"

	"dog-walk-service/internal/domain/walks"
	"dog-walk-service/internal/platform/apperr"
	"dog-walk-service/internal/ports/auth"
)

type walkStore struct {
	db *DB
}

func NewWalkStore(db *DB) walks.Store {
	return &walkStore{db: db}
}

// stateReader implementa walks.Reader sobre un snapshot; quien lo usa ya tiene el lock.
type stateReader struct {
	st *state
}

func (r stateReader) GetRequest(_ context.Context, id string) (walks.WalkRequest, error) {
	req, ok := r.st.requests[id]
	if !ok {
		return walks.WalkRequest{}, apperr.NotFound("walk request")
	}
	return req, nil
}

func (r stateReader) GetApplication(_ context.Context, id string) (walks.WalkApplication, error) {
	a, ok := r.st.applications[id]
	if !ok {
		return walks.WalkApplication{}, apperr.NotFound("walk application")
	}
	return a, nil
}

func (r stateReader) ListApplications(_ context.Context, requestID string) ([]walks.WalkApplication, error) {
	return r.filterApplications(func(a walks.WalkApplication) bool { return a.RequestID == requestID }), nil
}

func (r stateReader) ListApplicationsByWalker(_ context.Context, walkerID string) ([]walks.WalkApplication, error) {
	return r.filterApplications(func(a walks.WalkApplication) bool { return a.WalkerID == walkerID }), nil
}

func (r stateReader) filterApplications(keep func(walks.WalkApplication) bool) []walks.WalkApplication {
	out := make([]walks.WalkApplication, 0)
	for _, a := range r.st.applications {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r stateReader) FindAcceptedApplication(_ context.Context, requestID string) (walks.WalkApplication, error) {
	for _, a := range r.st.applications {
		if a.RequestID == requestID && a.Status == walks.ApplicationAccepted {
			return a, nil
		}
	}
	return walks.WalkApplication{}, apperr.NotFound("accepted application")
}

func (r stateReader) GetRating(_ context.Context, requestID string) (walks.WalkRating, error) {
	rt, ok := r.st.ratings[requestID]
	if !ok {
		return walks.WalkRating{}, apperr.NotFound("walk rating")
	}
	return rt, nil
}

// --- Store (fuera de transacción) ---

func (s *walkStore) GetRequest(ctx context.Context, id string) (out walks.WalkRequest, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.GetRequest(ctx, id) })
	return out, err
}

func (s *walkStore) GetApplication(ctx context.Context, id string) (out walks.WalkApplication, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.GetApplication(ctx, id) })
	return out, err
}

func (s *walkStore) ListApplications(ctx context.Context, requestID string) (out []walks.WalkApplication, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.ListApplications(ctx, requestID) })
	return out, err
}

func (s *walkStore) ListApplicationsByWalker(ctx context.Context, walkerID string) (out []walks.WalkApplication, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.ListApplicationsByWalker(ctx, walkerID) })
	return out, err
}

func (s *walkStore) FindAcceptedApplication(ctx context.Context, requestID string) (out walks.WalkApplication, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.FindAcceptedApplication(ctx, requestID) })
	return out, err
}

func (s *walkStore) GetRating(ctx context.Context, requestID string) (out walks.WalkRating, err error) {
	s.db.read(func(st *state) { out, err = stateReader{st}.GetRating(ctx, requestID) })
	return out, err
}

func (s *walkStore) CreateRequest(_ context.Context, req walks.WalkRequest) error {
	if strings.TrimSpace(req.ID) == "" {
		return apperr.Validation("walk request id required")
	}
	return s.db.write(func(st *state) error {
		if _, exists := st.requests[req.ID]; exists {
			return apperr.Conflict("walk request already exists")
		}
		if _, ok := st.dogs[req.DogID]; !ok {
			return apperr.NotFound("dog")
		}
		st.requests[req.ID] = req
		return nil
	})
}

func (s *walkStore) ListOpenRequests(_ context.Context) ([]walks.OpenRequest, error) {
	out := make([]walks.OpenRequest, 0)
	s.db.read(func(st *state) {
		for _, req := range st.requests {
			if req.Status != walks.RequestOpen {
				continue
			}
			d, ok := st.dogs[req.DogID]
			if !ok {
				continue
			}
			owner := st.users[d.OwnerUserID]
			out = append(out, walks.OpenRequest{
				RequestID:       req.ID,
				DogName:         d.Name,
				RequestedTime:   req.RequestedTime,
				DurationMinutes: req.DurationMinutes,
				Location:        req.Location,
				OwnerUsername:   owner.Username,
			})
		}
	})

	sort.Slice(out, func(i, j int) bool {
		if !out[i].RequestedTime.Equal(out[j].RequestedTime) {
			return out[i].RequestedTime.Before(out[j].RequestedTime)
		}
		return out[i].RequestID < out[j].RequestID
	})
	return out, nil
}

// SummaryRows arma el mismo outer join que el store SQL, bajo un único RLock.
func (s *walkStore) SummaryRows(_ context.Context) ([]walks.SummaryRow, error) {
	out := make([]walks.SummaryRow, 0)
	s.db.read(func(st *state) {
		accepted := make(map[string][]walks.WalkApplication)
		for _, a := range st.applications {
			if a.Status == walks.ApplicationAccepted {
				accepted[a.WalkerID] = append(accepted[a.WalkerID], a)
			}
		}

		for _, u := range st.users {
			if u.Role != auth.RoleWalker {
				continue
			}
			matched := false
			for _, a := range accepted[u.ID] {
				req, ok := st.requests[a.RequestID]
				if !ok || req.Status != walks.RequestCompleted {
					continue
				}
				row := walks.SummaryRow{WalkerID: u.ID, WalkerUsername: u.Username, RequestID: req.ID}
				if rt, ok := st.ratings[req.ID]; ok && rt.WalkerID == u.ID {
					v := rt.Rating
					row.Rating = &v
				}
				out = append(out, row)
				matched = true
			}
			if !matched {
				out = append(out, walks.SummaryRow{WalkerID: u.ID, WalkerUsername: u.Username})
			}
		}
	})
	return out, nil
}

func (s *walkStore) WithTx(_ context.Context, fn func(tx walks.Tx) error) error {
	return s.db.write(func(st *state) error {
		return fn(&memTx{stateReader{st}})
	})
}

// memTx muta la copia de trabajo de WithTx; el lock de escritura ya está tomado.
type memTx struct {
	stateReader
}

func (t *memTx) LockRequest(ctx context.Context, id string) (walks.WalkRequest, error) {
	return t.GetRequest(ctx, id)
}

func (t *memTx) HasLiveApplication(_ context.Context, requestID, walkerID string) (bool, error) {
	for _, a := range t.st.applications {
		if a.RequestID == requestID && a.WalkerID == walkerID && a.Status != walks.ApplicationRejected {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertApplication(_ context.Context, a walks.WalkApplication) error {
	if strings.TrimSpace(a.ID) == "" {
		return apperr.Validation("application id required")
	}
	if _, exists := t.st.applications[a.ID]; exists {
		return apperr.Conflict("application already exists")
	}
	if _, ok := t.st.requests[a.RequestID]; !ok {
		return apperr.NotFound("walk request")
	}
	// Igual que el índice único parcial en SQL
	for _, other := range t.st.applications {
		if other.RequestID == a.RequestID && other.WalkerID == a.WalkerID && other.Status != walks.ApplicationRejected {
			return apperr.Validation("walker already applied to this walk request")
		}
	}
	t.st.applications[a.ID] = a
	return nil
}

func (t *memTx) UpdateRequestStatus(_ context.Context, id string, from []walks.RequestStatus, to walks.RequestStatus, at time.Time) (bool, error) {
	req, ok := t.st.requests[id]
	if !ok || !slices.Contains(from, req.Status) {
		return false, nil
	}
	req.Status = to
	req.UpdatedAt = at
	t.st.requests[id] = req
	return true, nil
}

func (t *memTx) UpdateApplicationStatus(_ context.Context, id string, from, to walks.ApplicationStatus, at time.Time) (bool, error) {
	a, ok := t.st.applications[id]
	if !ok || a.Status != from {
		return false, nil
	}
	a.Status = to
	a.UpdatedAt = at
	t.st.applications[id] = a
	return true, nil
}

func (t *memTx) RejectOtherApplications(_ context.Context, requestID, keepID string, at time.Time) (int, error) {
	n := 0
	for id, a := range t.st.applications {
		if a.RequestID != requestID || id == keepID || a.Status == walks.ApplicationRejected {
			continue
		}
		a.Status = walks.ApplicationRejected
		a.UpdatedAt = at
		t.st.applications[id] = a
		n++
	}
	return n, nil
}

func (t *memTx) InsertRating(_ context.Context, rt walks.WalkRating) error {
	if _, exists := t.st.ratings[rt.RequestID]; exists {
		return apperr.Conflict("walk request already rated")
	}
	t.st.ratings[rt.RequestID] = rt
	return nil
}
