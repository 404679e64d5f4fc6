package http

import (
	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/pkg/zerror"
)

var (
	errRouteNotFound    = zerror.NewNotFound(apperr.NotFoundCode, "route not found")
	errMethodNotAllowed = zerror.NewNotFound(apperr.NotFoundCode, "method not allowed on this route")
	errBodyRequired     = apperr.NewValidationErr("body", "request body is required")
	errBodyMalformed    = apperr.NewValidationErr("body", "request body must be a valid JSON object")
	errBodyTooLarge     = apperr.NewValidationErr("body", "request body is too large")
)
