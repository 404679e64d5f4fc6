package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
)

type SweetResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Price       float64   `json:"price"`
	Quantity    int       `json:"quantity"`
	Description *string   `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type UserResponse struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	Role      model.Role `json:"role"`
	CreatedAt time.Time  `json:"createdAt"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      UserResponse `json:"user"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func newSweetResponse(sweet model.Sweet) SweetResponse {
	return SweetResponse{
		ID:          sweet.ID,
		Name:        sweet.Name,
		Category:    sweet.Category,
		Price:       sweet.Price,
		Quantity:    sweet.Quantity,
		Description: sweet.Description,
		CreatedAt:   sweet.CreatedAt,
		UpdatedAt:   sweet.UpdatedAt,
	}
}

func newSweetListResponse(sweets []model.Sweet) []SweetResponse {
	items := make([]SweetResponse, 0, len(sweets))
	for _, sweet := range sweets {
		items = append(items, newSweetResponse(sweet))
	}
	return items
}

func newAuthResponse(res service.AuthResult) AuthResponse {
	return AuthResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt,
		User: UserResponse{
			ID:        res.User.ID,
			Email:     res.User.Email,
			Role:      res.User.Role,
			CreatedAt: res.User.CreatedAt,
		},
	}
}
