// Package validation checks inbound payloads and converts them into service
// parameters. It fails with apperr.ValidationErr carrying one detail per
// offending field and never returns a partially applied payload.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	govalidator "github.com/go-playground/validator/v10"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/pkg/validator"
	"github.com/tuanvumaihuynh/sweetshop/pkg/zerror"
)

type CreateSweetRequest struct {
	Name        string      `json:"name" validate:"notblank,max=255"`
	Category    string      `json:"category" validate:"notblank,max=255"`
	Price       *float64    `json:"price" validate:"required,gt=0,max=99999999.99,maxdecimals=2"`
	Quantity    json.Number `json:"quantity" validate:"required,nonnegint"`
	Description *string     `json:"description" validate:"omitempty,max=2000"`
}

type UpdateSweetRequest struct {
	Name        *string      `json:"name" validate:"omitempty,notblank,max=255"`
	Category    *string      `json:"category" validate:"omitempty,notblank,max=255"`
	Price       *float64     `json:"price" validate:"omitempty,gt=0,max=99999999.99,maxdecimals=2"`
	Quantity    *json.Number `json:"quantity" validate:"omitempty,nonnegint"`
	Description *string      `json:"description" validate:"omitempty,max=2000"`
}

type SearchSweetsRequest struct {
	Name     *string  `json:"name" validate:"omitempty,max=255"`
	Category *string  `json:"category" validate:"omitempty,max=255"`
	MinPrice *float64 `json:"minPrice" validate:"omitempty,gt=0"`
	MaxPrice *float64 `json:"maxPrice" validate:"omitempty,gt=0"`
}

// StockRequest is the body of purchase and restock.
type StockRequest struct {
	Quantity json.Number `json:"quantity" validate:"required,posint"`
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Validator struct {
	v validator.Validator
}

func New() (*Validator, error) {
	v, err := validator.NewDefaultValidator()
	if err != nil {
		return nil, fmt.Errorf("new default validator: %w", err)
	}
	return &Validator{v: v}, nil
}

func (v *Validator) CreateSweet(req CreateSweetRequest) (service.CreateSweetParams, error) {
	if err := v.validate(req); err != nil {
		return service.CreateSweetParams{}, err
	}

	quantity, err := validator.ParseInt32(req.Quantity.String())
	if err != nil {
		return service.CreateSweetParams{}, apperr.NewValidationErr("quantity", "must be a non-negative integer")
	}

	return service.CreateSweetParams{
		Name:        strings.TrimSpace(req.Name),
		Category:    strings.TrimSpace(req.Category),
		Price:       *req.Price,
		Quantity:    int(quantity),
		Description: emptyToNil(trimOptional(req.Description)),
	}, nil
}

func (v *Validator) UpdateSweet(req UpdateSweetRequest) (service.UpdateSweetParams, error) {
	if err := v.validate(req); err != nil {
		return service.UpdateSweetParams{}, err
	}

	params := service.UpdateSweetParams{
		Name:        trimOptional(req.Name),
		Category:    trimOptional(req.Category),
		Price:       req.Price,
		Description: trimOptional(req.Description),
	}

	if req.Quantity != nil {
		quantity, err := validator.ParseInt32(req.Quantity.String())
		if err != nil {
			return service.UpdateSweetParams{}, apperr.NewValidationErr("quantity", "must be a non-negative integer")
		}
		q := int(quantity)
		params.Quantity = &q
	}

	return params, nil
}

func (v *Validator) SearchSweets(req SearchSweetsRequest) (service.SearchSweetsParams, error) {
	if err := v.validate(req); err != nil {
		return service.SearchSweetsParams{}, err
	}

	if req.MinPrice != nil && req.MaxPrice != nil && *req.MinPrice > *req.MaxPrice {
		return service.SearchSweetsParams{}, apperr.NewValidationErr("minPrice", "must be less than or equal to maxPrice")
	}

	return service.SearchSweetsParams{
		Name:     emptyToNil(trimOptional(req.Name)),
		Category: emptyToNil(trimOptional(req.Category)),
		MinPrice: req.MinPrice,
		MaxPrice: req.MaxPrice,
	}, nil
}

// StockQuantity returns the positive unit count of a purchase or restock.
func (v *Validator) StockQuantity(req StockRequest) (int, error) {
	if err := v.validate(req); err != nil {
		return 0, err
	}

	quantity, err := validator.ParseInt32(req.Quantity.String())
	if err != nil {
		return 0, apperr.NewValidationErr("quantity", "must be a positive integer")
	}

	return int(quantity), nil
}

func (v *Validator) Register(req RegisterRequest) (service.RegisterParams, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := v.validate(req); err != nil {
		return service.RegisterParams{}, err
	}
	return service.RegisterParams{Email: req.Email, Password: req.Password}, nil
}

func (v *Validator) Login(req LoginRequest) (service.LoginParams, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := v.validate(req); err != nil {
		return service.LoginParams{}, err
	}
	return service.LoginParams{Email: req.Email, Password: req.Password}, nil
}

func (v *Validator) validate(req any) error {
	err := v.v.Validate(req)
	if err == nil {
		return nil
	}

	var validationErrs govalidator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return apperr.ValidationErr.WrapParent(err)
	}

	details := make([]zerror.Detail, 0, len(validationErrs))
	for _, fe := range validationErrs {
		details = append(details, zerror.Detail{
			Field:   fe.Field(),
			Message: validator.ValidationErrorMessage(fe),
		})
	}

	return apperr.ValidationErr.WithDetails(details...).WrapParent(err)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

func emptyToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
