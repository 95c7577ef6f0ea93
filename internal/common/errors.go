package common

import (
	"errors"
	"net/http"

	"github.com/lib/pq"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrInvalidState    = errors.New("operation not allowed in current state")
	ErrValidation      = errors.New("validation failed")
	ErrInternal        = errors.New("internal error")
)

// HTTPStatusFromError переводит доменную ошибку в HTTP-код
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	}

	// Нарушение уникальности в Postgres считаем конфликтом (дубликат строки)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

// IsUniqueViolation проверяет ошибку нарушения уникального индекса
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
