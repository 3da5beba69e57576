package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"dog-walk-service/internal/domain/walks"
	"dog-walk-service/internal/platform/apperr"
)

// WalkStore implementa walks.Store. Las lecturas comparten código con la vista
// transaccional a través de walkReader.
type WalkStore struct {
	walkReader
}

func NewWalkStore(s *Store) *WalkStore {
	return &WalkStore{walkReader{s: s, q: s.db}}
}

const (
	requestColumns     = `id, dog_id, requested_time, duration_minutes, location, status, created_at, updated_at`
	applicationColumns = `id, request_id, walker_id, status, created_at, updated_at`
	ratingColumns      = `id, request_id, walker_id, owner_id, rating, comments, created_at`
)

type walkReader struct {
	s *Store
	q queryer
}

func (r walkReader) GetRequest(ctx context.Context, id string) (walks.WalkRequest, error) {
	row := r.q.QueryRowContext(ctx, r.s.rebind(`SELECT `+requestColumns+` FROM walk_requests WHERE id = ?`), id)
	req, err := scanRequest(row)
	if err != nil {
		return walks.WalkRequest{}, notFoundOr("get walk request", "walk request", err)
	}
	return req, nil
}

func (r walkReader) GetApplication(ctx context.Context, id string) (walks.WalkApplication, error) {
	row := r.q.QueryRowContext(ctx, r.s.rebind(`SELECT `+applicationColumns+` FROM walk_applications WHERE id = ?`), id)
	a, err := scanApplication(row)
	if err != nil {
		return walks.WalkApplication{}, notFoundOr("get walk application", "walk application", err)
	}
	return a, nil
}

func (r walkReader) ListApplications(ctx context.Context, requestID string) ([]walks.WalkApplication, error) {
	return r.listApplications(ctx, "request_id", requestID)
}

func (r walkReader) ListApplicationsByWalker(ctx context.Context, walkerID string) ([]walks.WalkApplication, error) {
	return r.listApplications(ctx, "walker_id", walkerID)
}

func (r walkReader) listApplications(ctx context.Context, column, value string) ([]walks.WalkApplication, error) {
	rows, err := r.q.QueryContext(ctx, r.s.rebind(`
		SELECT `+applicationColumns+`
		FROM walk_applications
		WHERE `+column+` = ?
		ORDER BY created_at ASC, id ASC
	`), value)
	if err != nil {
		return nil, classify("list walk applications", err)
	}
	defer rows.Close()

	out := make([]walks.WalkApplication, 0)
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, classify("scan walk application", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list walk applications", err)
	}
	return out, nil
}

func (r walkReader) FindAcceptedApplication(ctx context.Context, requestID string) (walks.WalkApplication, error) {
	row := r.q.QueryRowContext(ctx, r.s.rebind(`
		SELECT `+applicationColumns+`
		FROM walk_applications
		WHERE request_id = ? AND status = 'accepted'
	`), requestID)
	a, err := scanApplication(row)
	if err != nil {
		return walks.WalkApplication{}, notFoundOr("find accepted application", "accepted application", err)
	}
	return a, nil
}

func (r walkReader) GetRating(ctx context.Context, requestID string) (walks.WalkRating, error) {
	row := r.q.QueryRowContext(ctx, r.s.rebind(`SELECT `+ratingColumns+` FROM walk_ratings WHERE request_id = ?`), requestID)

	var (
		rt        walks.WalkRating
		createdAt int64
	)
	if err := row.Scan(&rt.ID, &rt.RequestID, &rt.WalkerID, &rt.OwnerID, &rt.Rating, &rt.Comments, &createdAt); err != nil {
		return walks.WalkRating{}, notFoundOr("get walk rating", "walk rating", err)
	}
	rt.CreatedAt = fromMillis(createdAt)
	return rt, nil
}

func (w *WalkStore) CreateRequest(ctx context.Context, req walks.WalkRequest) error {
	_, err := w.q.ExecContext(ctx, w.s.rebind(`
		INSERT INTO walk_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`),
		req.ID,
		req.DogID,
		toMillis(req.RequestedTime),
		req.DurationMinutes,
		req.Location,
		string(req.Status),
		toMillis(req.CreatedAt),
		toMillis(req.UpdatedAt),
	)
	if foreignKeyViolation(err) {
		return apperr.NotFound("dog")
	}
	return classify("create walk request", err)
}

func (w *WalkStore) ListOpenRequests(ctx context.Context) ([]walks.OpenRequest, error) {
	rows, err := w.q.QueryContext(ctx, `
		SELECT r.id, d.name, r.requested_time, r.duration_minutes, r.location, u.username
		FROM walk_requests r
		JOIN dogs d ON d.id = r.dog_id
		JOIN users u ON u.id = d.owner_id
		WHERE r.status = 'open'
		ORDER BY r.requested_time ASC, r.id ASC
	`)
	if err != nil {
		return nil, classify("list open walk requests", err)
	}
	defer rows.Close()

	out := make([]walks.OpenRequest, 0)
	for rows.Next() {
		var (
			o  walks.OpenRequest
			at int64
		)
		if err := rows.Scan(&o.RequestID, &o.DogName, &at, &o.DurationMinutes, &o.Location, &o.OwnerUsername); err != nil {
			return nil, classify("scan open walk request", err)
		}
		o.RequestedTime = fromMillis(at)
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list open walk requests", err)
	}
	return out, nil
}

// SummaryRows es una sola sentencia: no hay lecturas parciales entre tablas.
func (w *WalkStore) SummaryRows(ctx context.Context) ([]walks.SummaryRow, error) {
	rows, err := w.q.QueryContext(ctx, `
		SELECT u.id, u.username, r.id, rt.rating
		FROM users u
		LEFT JOIN walk_applications a ON a.walker_id = u.id AND a.status = 'accepted'
		LEFT JOIN walk_requests r ON r.id = a.request_id AND r.status = 'completed'
		LEFT JOIN walk_ratings rt ON rt.request_id = r.id AND rt.walker_id = u.id
		WHERE u.role = 'walker'
	`)
	if err != nil {
		return nil, classify("walker summary", err)
	}
	defer rows.Close()

	out := make([]walks.SummaryRow, 0)
	for rows.Next() {
		var (
			row       walks.SummaryRow
			requestID sql.NullString
			rating    sql.NullInt64
		)
		if err := rows.Scan(&row.WalkerID, &row.WalkerUsername, &requestID, &rating); err != nil {
			return nil, classify("scan walker summary", err)
		}
		row.RequestID = requestID.String
		if rating.Valid {
			v := int(rating.Int64)
			row.Rating = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("walker summary", err)
	}
	return out, nil
}

// WithTx hace commit si fn devuelve nil y rollback en cualquier otro caso (incluido panic).
func (w *WalkStore) WithTx(ctx context.Context, fn func(tx walks.Tx) error) (err error) {
	tx, err := w.s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&walkTx{walkReader{s: w.s, q: tx}}); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify("commit tx", err)
	}
	return nil
}

type walkTx struct {
	walkReader
}

func (t *walkTx) LockRequest(ctx context.Context, id string) (walks.WalkRequest, error) {
	row := t.q.QueryRowContext(ctx, t.s.forUpdate(t.s.rebind(`SELECT `+requestColumns+` FROM walk_requests WHERE id = ?`)), id)
	req, err := scanRequest(row)
	if err != nil {
		return walks.WalkRequest{}, notFoundOr("lock walk request", "walk request", err)
	}
	return req, nil
}

func (t *walkTx) HasLiveApplication(ctx context.Context, requestID, walkerID string) (bool, error) {
	var n int
	err := t.q.QueryRowContext(ctx, t.s.rebind(`
		SELECT COUNT(*)
		FROM walk_applications
		WHERE request_id = ? AND walker_id = ? AND status <> 'rejected'
	`), requestID, walkerID).Scan(&n)
	if err != nil {
		return false, classify("check live application", err)
	}
	return n > 0, nil
}

func (t *walkTx) InsertApplication(ctx context.Context, a walks.WalkApplication) error {
	_, err := t.q.ExecContext(ctx, t.s.rebind(`
		INSERT INTO walk_applications (`+applicationColumns+`)
		VALUES (?, ?, ?, ?, ?, ?)
	`),
		a.ID,
		a.RequestID,
		a.WalkerID,
		string(a.Status),
		toMillis(a.CreatedAt),
		toMillis(a.UpdatedAt),
	)
	if _, ok := uniqueViolation(err); ok {
		return apperr.Validation("walker already applied to this walk request")
	}
	return classify("insert walk application", err)
}

func (t *walkTx) UpdateRequestStatus(ctx context.Context, id string, from []walks.RequestStatus, to walks.RequestStatus, at time.Time) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("update walk request status: no source status")
	}

	args := make([]any, 0, len(from)+3)
	args = append(args, string(to), toMillis(at), id)
	for _, f := range from {
		args = append(args, string(f))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(from)), ", ")

	res, err := t.q.ExecContext(ctx, t.s.rebind(`
		UPDATE walk_requests
		SET status = ?, updated_at = ?
		WHERE id = ? AND status IN (`+placeholders+`)
	`), args...)
	if err != nil {
		return false, classify("update walk request status", err)
	}
	return affectedOne(res)
}

func (t *walkTx) UpdateApplicationStatus(ctx context.Context, id string, from, to walks.ApplicationStatus, at time.Time) (bool, error) {
	res, err := t.q.ExecContext(ctx, t.s.rebind(`
		UPDATE walk_applications
		SET status = ?, updated_at = ?
		WHERE id = ? AND status = ?
	`), string(to), toMillis(at), id, string(from))
	if err != nil {
		return false, classify("update walk application status", err)
	}
	return affectedOne(res)
}

func (t *walkTx) RejectOtherApplications(ctx context.Context, requestID, keepID string, at time.Time) (int, error) {
	res, err := t.q.ExecContext(ctx, t.s.rebind(`
		UPDATE walk_applications
		SET status = 'rejected', updated_at = ?
		WHERE request_id = ? AND id <> ? AND status <> 'rejected'
	`), toMillis(at), requestID, keepID)
	if err != nil {
		return 0, classify("reject applications", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify("reject applications", err)
	}
	return int(n), nil
}

func (t *walkTx) InsertRating(ctx context.Context, rt walks.WalkRating) error {
	_, err := t.q.ExecContext(ctx, t.s.rebind(`
		INSERT INTO walk_ratings (`+ratingColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`),
		rt.ID,
		rt.RequestID,
		rt.WalkerID,
		rt.OwnerID,
		rt.Rating,
		rt.Comments,
		toMillis(rt.CreatedAt),
	)
	if _, ok := uniqueViolation(err); ok {
		return apperr.Conflict("walk request already rated")
	}
	return classify("insert walk rating", err)
}

func affectedOne(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("rows affected", err)
	}
	return n == 1, nil
}

func scanRequest(sc scanner) (walks.WalkRequest, error) {
	var (
		req                            walks.WalkRequest
		status                         string
		requestedAt, created, modified int64
	)
	if err := sc.Scan(&req.ID, &req.DogID, &requestedAt, &req.DurationMinutes, &req.Location, &status, &created, &modified); err != nil {
		return walks.WalkRequest{}, err
	}
	req.RequestedTime = fromMillis(requestedAt)
	req.Status = walks.RequestStatus(status)
	req.CreatedAt = fromMillis(created)
	req.UpdatedAt = fromMillis(modified)
	return req, nil
}

func scanApplication(sc scanner) (walks.WalkApplication, error) {
	var (
		a                 walks.WalkApplication
		status            string
		created, modified int64
	)
	if err := sc.Scan(&a.ID, &a.RequestID, &a.WalkerID, &status, &created, &modified); err != nil {
		return walks.WalkApplication{}, err
	}
	a.Status = walks.ApplicationStatus(status)
	a.CreatedAt = fromMillis(created)
	a.UpdatedAt = fromMillis(modified)
	return a, nil
}

var (
	_ walks.Store = (*WalkStore)(nil)
	_ walks.Tx    = (*walkTx)(nil)
)
