package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/event"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

type CreateSweetParams struct {
	Name        string
	Category    string
	Price       float64
	Quantity    int
	Description *string
}

// UpdateSweetParams holds the fields to change; nil fields are left untouched.
// A non-nil empty Description clears it.
type UpdateSweetParams struct {
	Name        *string
	Category    *string
	Price       *float64
	Quantity    *int
	Description *string
}

// SearchSweetsParams criteria are combined with AND; nil criteria match everything.
type SearchSweetsParams struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

type CatalogService interface {
	CreateSweet(ctx context.Context, params CreateSweetParams) (model.Sweet, error)
	// ListSweets returns every sweet, newest first.
	ListSweets(ctx context.Context) ([]model.Sweet, error)
	SearchSweets(ctx context.Context, params SearchSweetsParams) ([]model.Sweet, error)
	GetSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error)
	UpdateSweet(ctx context.Context, id uuid.UUID, params UpdateSweetParams) (model.Sweet, error)
	DeleteSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error)
}

type catalogService struct {
	db            db.DB
	sweetRepo     repository.SweetRepository
	outboxMsgRepo repository.OutboxMsgRepository
	queryTimeout  time.Duration
}

func NewCatalogService(
	db db.DB,
	sweetRepo repository.SweetRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	queryTimeout time.Duration,
) CatalogService {
	return &catalogService{
		db:            db,
		sweetRepo:     sweetRepo,
		outboxMsgRepo: outboxMsgRepo,
		queryTimeout:  queryTimeout,
	}
}

func (s *catalogService) CreateSweet(ctx context.Context, params CreateSweetParams) (model.Sweet, error) {
	if params.Price <= 0 {
		return model.Sweet{}, apperr.NewValidationErr("price", "must be greater than 0")
	}
	if _, err := stockQuantity("quantity", params.Quantity, true); err != nil {
		return model.Sweet{}, err
	}

	id, err := uuid.NewV7()
	if err != nil {
		return model.Sweet{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	now := time.Now()
	sweet := model.Sweet{
		ID:          id,
		Name:        params.Name,
		Category:    params.Category,
		Price:       params.Price,
		Quantity:    params.Quantity,
		Description: params.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var created model.Sweet
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		exists, err := s.sweetRepo.
			WithDB(db).
			ExistsSweetByName(ctx, repository.ExistsSweetByNameParams{Name: sweet.Name})
		if err != nil {
			return fmt.Errorf("sweet repository exists sweet by name: %w", err)
		}
		if exists {
			return apperr.SweetNameTakenErr
		}

		created, err = s.sweetRepo.
			WithDB(db).
			CreateSweet(ctx, sweet)
		if err != nil {
			return fmt.Errorf("sweet repository create sweet: %w", err)
		}

		msg, err := newOutboxMsg(ctx, event.TopicSweetCreated, created.ID, sweetChangedEvent(ctx, created))
		if err != nil {
			return err
		}
		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, msg); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Sweet{}, classify(fmt.Errorf("db with tx: %w", err))
	}

	return created, nil
}

func (s *catalogService) ListSweets(ctx context.Context) ([]model.Sweet, error) {
	return s.SearchSweets(ctx, SearchSweetsParams{})
}

func (s *catalogService) SearchSweets(ctx context.Context, params SearchSweetsParams) ([]model.Sweet, error) {
	if params.MinPrice != nil && params.MaxPrice != nil && *params.MinPrice > *params.MaxPrice {
		return nil, apperr.NewValidationErr("minPrice", "must be less than or equal to maxPrice")
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	sweets, err := s.sweetRepo.ListSweets(ctx, repository.ListSweetsParams{
		Name:     params.Name,
		Category: params.Category,
		MinPrice: params.MinPrice,
		MaxPrice: params.MaxPrice,
	})
	if err != nil {
		return nil, classify(fmt.Errorf("sweet repository list sweets: %w", err))
	}

	return sweets, nil
}

func (s *catalogService) GetSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	sweet, err := s.sweetRepo.GetSweetByID(ctx, id)
	if err != nil {
		return model.Sweet{}, classify(fmt.Errorf("sweet repository get sweet by id: %w", err))
	}

	return sweet, nil
}

func (s *catalogService) UpdateSweet(ctx context.Context, id uuid.UUID, params UpdateSweetParams) (model.Sweet, error) {
	if params.Price != nil && *params.Price <= 0 {
		return model.Sweet{}, apperr.NewValidationErr("price", "must be greater than 0")
	}
	if params.Quantity != nil {
		if _, err := stockQuantity("quantity", *params.Quantity, true); err != nil {
			return model.Sweet{}, err
		}
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var updated model.Sweet
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		sweetRepo := s.sweetRepo.WithDB(db)

		sweet, err := sweetRepo.LockSweetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("sweet repository lock sweet by id: %w", err)
		}

		if params.Name != nil && *params.Name != sweet.Name {
			exists, err := sweetRepo.ExistsSweetByName(ctx, repository.ExistsSweetByNameParams{
				Name:      *params.Name,
				ExcludeID: &sweet.ID,
			})
			if err != nil {
				return fmt.Errorf("sweet repository exists sweet by name: %w", err)
			}
			if exists {
				return apperr.SweetNameTakenErr
			}
		}

		applyUpdate(&sweet, params)
		sweet.UpdatedAt = time.Now()

		updated, err = sweetRepo.UpdateSweet(ctx, sweet)
		if err != nil {
			return fmt.Errorf("sweet repository update sweet: %w", err)
		}

		msg, err := newOutboxMsg(ctx, event.TopicSweetUpdated, updated.ID, sweetChangedEvent(ctx, updated))
		if err != nil {
			return err
		}
		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, msg); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Sweet{}, classify(fmt.Errorf("db with tx: %w", err))
	}

	return updated, nil
}

func (s *catalogService) DeleteSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var deleted model.Sweet
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		deleted, err = s.sweetRepo.
			WithDB(db).
			DeleteSweet(ctx, id)
		if err != nil {
			return fmt.Errorf("sweet repository delete sweet: %w", err)
		}

		msg, err := newOutboxMsg(ctx, event.TopicSweetDeleted, deleted.ID, sweetChangedEvent(ctx, deleted))
		if err != nil {
			return err
		}
		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, msg); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		return model.Sweet{}, classify(fmt.Errorf("db with tx: %w", err))
	}

	return deleted, nil
}

func applyUpdate(sweet *model.Sweet, params UpdateSweetParams) {
	if params.Name != nil {
		sweet.Name = *params.Name
	}
	if params.Category != nil {
		sweet.Category = *params.Category
	}
	if params.Price != nil {
		sweet.Price = *params.Price
	}
	if params.Quantity != nil {
		sweet.Quantity = *params.Quantity
	}
	if params.Description != nil {
		if *params.Description == "" {
			sweet.Description = nil
		} else {
			sweet.Description = params.Description
		}
	}
}

func sweetChangedEvent(ctx context.Context, sweet model.Sweet) event.SweetChangedEvent {
	return event.SweetChangedEvent{
		SweetID:    sweet.ID.String(),
		Name:       sweet.Name,
		Category:   sweet.Category,
		Price:      sweet.Price,
		Quantity:   sweet.Quantity,
		ActorID:    actorID(ctx),
		OccurredAt: time.Now(),
	}
}
