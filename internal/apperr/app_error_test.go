package apperr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/pkg/zerror"
)

func TestNewValidationErr(t *testing.T) {
	err := apperr.NewValidationErr("minPrice", "must be less than or equal to maxPrice")

	assert.ErrorIs(t, err, apperr.ValidationErr)
	assert.Equal(t, zerror.StatusValidationFailed, err.Status())
	assert.Equal(t, []zerror.Detail{{Field: "minPrice", Message: "must be less than or equal to maxPrice"}}, err.Details())
}

func TestStableCodes(t *testing.T) {
	assert.Equal(t, apperr.ConflictCode, apperr.SweetNameTakenErr.Code())
	assert.Equal(t, apperr.ConflictCode, apperr.EmailTakenErr.Code())
	assert.Equal(t, apperr.InsufficientStockCode, apperr.InsufficientStockErr.Code())
	assert.Equal(t, zerror.StatusServiceUnavailable, apperr.TransientErr.Status())
	assert.NotErrorIs(t, apperr.SweetNameTakenErr, apperr.InsufficientStockErr)
}
