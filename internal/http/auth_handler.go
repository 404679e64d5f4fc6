package http

import (
	"fmt"
	"net/http"

	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/validation"
)

type authHandler struct {
	authSvc   service.AuthService
	validator *validation.Validator
}

func newAuthHandler(authSvc service.AuthService, validator *validation.Validator) *authHandler {
	return &authHandler{
		authSvc:   authSvc,
		validator: validator,
	}
}

func (h *authHandler) Register(w http.ResponseWriter, r *http.Request) error {
	var req validation.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	params, err := h.validator.Register(req)
	if err != nil {
		return err
	}

	res, err := h.authSvc.Register(r.Context(), params)
	if err != nil {
		return fmt.Errorf("auth service register: %w", err)
	}

	writeJSON(w, http.StatusCreated, newAuthResponse(res))
	return nil
}

func (h *authHandler) Login(w http.ResponseWriter, r *http.Request) error {
	var req validation.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	params, err := h.validator.Login(req)
	if err != nil {
		return err
	}

	res, err := h.authSvc.Login(r.Context(), params)
	if err != nil {
		return fmt.Errorf("auth service login: %w", err)
	}

	writeJSON(w, http.StatusOK, newAuthResponse(res))
	return nil
}
