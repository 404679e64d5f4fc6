package http

import (
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/validation"
)

type sweetHandler struct {
	catalogSvc   service.CatalogService
	inventorySvc service.InventoryService
	validator    *validation.Validator
}

func newSweetHandler(
	catalogSvc service.CatalogService,
	inventorySvc service.InventoryService,
	validator *validation.Validator,
) *sweetHandler {
	return &sweetHandler{
		catalogSvc:   catalogSvc,
		inventorySvc: inventorySvc,
		validator:    validator,
	}
}

func (h *sweetHandler) CreateSweet(w http.ResponseWriter, r *http.Request) error {
	var req validation.CreateSweetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	params, err := h.validator.CreateSweet(req)
	if err != nil {
		return err
	}

	sweet, err := h.catalogSvc.CreateSweet(r.Context(), params)
	if err != nil {
		return fmt.Errorf("catalog service create sweet: %w", err)
	}

	writeJSON(w, http.StatusCreated, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) ListSweets(w http.ResponseWriter, r *http.Request) error {
	sweets, err := h.catalogSvc.ListSweets(r.Context())
	if err != nil {
		return fmt.Errorf("catalog service list sweets: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetListResponse(sweets))
	return nil
}

func (h *sweetHandler) SearchSweets(w http.ResponseWriter, r *http.Request) error {
	var req validation.SearchSweetsRequest

	query := r.URL.Query()
	binds := []struct {
		name string
		dest any
		kind string
	}{
		{"name", &req.Name, "string"},
		{"category", &req.Category, "string"},
		{"minPrice", &req.MinPrice, "number"},
		{"maxPrice", &req.MaxPrice, "number"},
	}
	for _, b := range binds {
		if err := runtime.BindQueryParameter("form", true, false, b.name, query, b.dest); err != nil {
			return apperr.NewValidationErr(b.name, "must be a "+b.kind).WrapParent(err)
		}
	}

	params, err := h.validator.SearchSweets(req)
	if err != nil {
		return err
	}

	sweets, err := h.catalogSvc.SearchSweets(r.Context(), params)
	if err != nil {
		return fmt.Errorf("catalog service search sweets: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetListResponse(sweets))
	return nil
}

func (h *sweetHandler) GetSweet(w http.ResponseWriter, r *http.Request) error {
	id, err := sweetID(r)
	if err != nil {
		return err
	}

	sweet, err := h.catalogSvc.GetSweet(r.Context(), id)
	if err != nil {
		return fmt.Errorf("catalog service get sweet: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) UpdateSweet(w http.ResponseWriter, r *http.Request) error {
	id, err := sweetID(r)
	if err != nil {
		return err
	}

	var req validation.UpdateSweetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}

	params, err := h.validator.UpdateSweet(req)
	if err != nil {
		return err
	}

	sweet, err := h.catalogSvc.UpdateSweet(r.Context(), id, params)
	if err != nil {
		return fmt.Errorf("catalog service update sweet: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) DeleteSweet(w http.ResponseWriter, r *http.Request) error {
	id, err := sweetID(r)
	if err != nil {
		return err
	}

	sweet, err := h.catalogSvc.DeleteSweet(r.Context(), id)
	if err != nil {
		return fmt.Errorf("catalog service delete sweet: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) PurchaseSweet(w http.ResponseWriter, r *http.Request) error {
	id, quantity, err := h.stockRequest(w, r)
	if err != nil {
		return err
	}

	sweet, err := h.inventorySvc.PurchaseSweet(r.Context(), id, quantity)
	if err != nil {
		return fmt.Errorf("inventory service purchase sweet: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) RestockSweet(w http.ResponseWriter, r *http.Request) error {
	id, quantity, err := h.stockRequest(w, r)
	if err != nil {
		return err
	}

	sweet, err := h.inventorySvc.RestockSweet(r.Context(), id, quantity)
	if err != nil {
		return fmt.Errorf("inventory service restock sweet: %w", err)
	}

	writeJSON(w, http.StatusOK, newSweetResponse(sweet))
	return nil
}

func (h *sweetHandler) stockRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, int, error) {
	id, err := sweetID(r)
	if err != nil {
		return uuid.Nil, 0, err
	}

	var req validation.StockRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return uuid.Nil, 0, err
	}

	quantity, err := h.validator.StockQuantity(req)
	if err != nil {
		return uuid.Nil, 0, err
	}

	return id, quantity, nil
}
