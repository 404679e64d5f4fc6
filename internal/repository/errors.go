package repository

import (
	"errors"
	"fmt"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

// ErrNoRowsAffected is returned by conditional updates whose predicate matched nothing.
var ErrNoRowsAffected = errors.New("no rows affected")

// wrapErr wraps a storage error with the operation name, translating
// timeouts and connectivity failures into apperr.TransientErr.
func wrapErr(op string, err error) error {
	if db.IsTransient(err) {
		return fmt.Errorf("%s: %w", op, apperr.TransientErr.WrapParent(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}
