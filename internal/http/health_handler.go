package http

import (
	"net/http"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

type healthHandler struct {
	checker db.HealthChecker
}

func newHealthHandler(checker db.HealthChecker) *healthHandler {
	return &healthHandler{checker: checker}
}

func (h *healthHandler) Check(w http.ResponseWriter, r *http.Request) error {
	healthy, err := h.checker.IsHealthy(r.Context())
	if err != nil || !healthy {
		return apperr.TransientErr.WrapParent(err)
	}

	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
	return nil
}
