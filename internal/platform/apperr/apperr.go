package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Tipos de error del dominio. Los servicios envuelven estos sentinels con %w
// para que el borde HTTP decida status y código sin conocer el detalle.
var (
	ErrValidation      = errors.New("validation error")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrStateConflict   = errors.New("state conflict")
	ErrPersistence     = errors.New("persistence error")
)

func Validation(format string, args ...any) error {
	return wrap(ErrValidation, format, args...)
}

func Forbidden(format string, args ...any) error {
	return wrap(ErrForbidden, format, args...)
}

func NotFound(format string, args ...any) error {
	return wrap(ErrNotFound, format, args...)
}

func Conflict(format string, args ...any) error {
	return wrap(ErrStateConflict, format, args...)
}

// Persistence envuelve un error del driver. Si ya viene clasificado, se respeta.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if Classified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}

func wrap(kind error, format string, args ...any) error {
	if format == "" {
		return kind
	}
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// Classified indica si err ya pertenece a alguna de las categorías conocidas.
func Classified(err error) bool {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return true
		}
	}
	return false
}

type kind struct {
	err    error
	status int
	code   string
}

func IsValidation(err error) bool      { return errors.Is(err, ErrValidation) }
func IsUnauthenticated(err error) bool { return errors.Is(err, ErrUnauthenticated) }
func IsForbidden(err error) bool       { return errors.Is(err, ErrForbidden) }
func IsNotFound(err error) bool        { return errors.Is(err, ErrNotFound) }
func IsConflict(err error) bool        { return errors.Is(err, ErrStateConflict) }

// Orden importa: la primera coincidencia gana.
var kinds = []kind{
	{ErrValidation, http.StatusBadRequest, "validation_error"},
	{ErrUnauthenticated, http.StatusUnauthorized, "unauthenticated"},
	{ErrForbidden, http.StatusForbidden, "forbidden"},
	{ErrNotFound, http.StatusNotFound, "not_found"},
	{ErrStateConflict, http.StatusConflict, "state_conflict"},
	{ErrPersistence, http.StatusInternalServerError, "persistence_error"},
}

// HTTPStatus mapea un error a status HTTP. Errores no clasificados => 500.
func HTTPStatus(err error) int {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status
		}
	}
	return http.StatusInternalServerError
}

// Code devuelve un código estable para el cuerpo de error.
func Code(err error) string {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.code
		}
	}
	return "internal_error"
}

// Message devuelve el texto que se expone al cliente.
// Los errores internos no filtran detalle del driver.
func Message(err error) string {
	if err == nil {
		return ""
	}
	if HTTPStatus(err) >= http.StatusInternalServerError {
		return "internal error"
	}
	return err.Error()
}
