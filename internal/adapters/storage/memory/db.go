package memory

import (
	"maps"
	"sync"

	"dog-walk-service/internal/domain/dogs"
	"dog-walk-service/internal/domain/users"
	"dog-walk-service/internal/domain/walks"
)

// DB es el estado in-memory compartido por todos los repos (dev y tests).
// Las lecturas toman RLock; WithTx toma el lock de escritura, trabaja sobre
// una copia y la publica solo si fn no devuelve error.
type DB struct {
	mu sync.RWMutex
	st *state
}

type state struct {
	users        map[string]users.User
	dogs         map[string]dogs.Dog
	requests     map[string]walks.WalkRequest
	applications map[string]walks.WalkApplication
	// ratings por request id (máximo uno por solicitud)
	ratings map[string]walks.WalkRating
}

func New() *DB {
	return &DB{st: &state{
		users:        make(map[string]users.User),
		dogs:         make(map[string]dogs.Dog),
		requests:     make(map[string]walks.WalkRequest),
		applications: make(map[string]walks.WalkApplication),
		ratings:      make(map[string]walks.WalkRating),
	}}
}

func (s *state) clone() *state {
	return &state{
		users:        maps.Clone(s.users),
		dogs:         maps.Clone(s.dogs),
		requests:     maps.Clone(s.requests),
		applications: maps.Clone(s.applications),
		ratings:      maps.Clone(s.ratings),
	}
}

func (db *DB) read(fn func(st *state)) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	fn(db.st)
}

func (db *DB) write(fn func(st *state) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	next := db.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	db.st = next
	return nil
}
