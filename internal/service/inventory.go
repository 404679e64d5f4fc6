package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/event"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

// InventoryService adjusts stock levels.
//
// Concurrent purchases of the same sweet serialize on its row: the stock check
// and the decrement happen in one conditional statement, so quantity is never
// observed below zero. Different sweets are adjusted in parallel.
type InventoryService interface {
	PurchaseSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error)
	RestockSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error)
}

type inventoryService struct {
	db            db.DB
	sweetRepo     repository.SweetRepository
	outboxMsgRepo repository.OutboxMsgRepository
	queryTimeout  time.Duration
}

func NewInventoryService(
	db db.DB,
	sweetRepo repository.SweetRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
	queryTimeout time.Duration,
) InventoryService {
	return &inventoryService{
		db:            db,
		sweetRepo:     sweetRepo,
		outboxMsgRepo: outboxMsgRepo,
		queryTimeout:  queryTimeout,
	}
}

func (s *inventoryService) PurchaseSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error) {
	sweet, err := s.adjust(ctx, stockOperationPurchase, id, quantity)
	recordStockAdjustment(stockOperationPurchase, err)
	return sweet, err
}

func (s *inventoryService) RestockSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error) {
	sweet, err := s.adjust(ctx, stockOperationRestock, id, quantity)
	recordStockAdjustment(stockOperationRestock, err)
	return sweet, err
}

func (s *inventoryService) adjust(ctx context.Context, op stockOperation, id uuid.UUID, quantity int) (model.Sweet, error) {
	n, err := stockQuantity("quantity", quantity, false)
	if err != nil {
		return model.Sweet{}, err
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	var sweet model.Sweet
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		var err error
		sweetRepo := s.sweetRepo.WithDB(db)
		params := repository.AdjustStockParams{ID: id, Quantity: n, UpdatedAt: time.Now()}

		var (
			topic = event.TopicSweetRestocked
			delta = quantity
		)
		if op == stockOperationPurchase {
			topic = event.TopicSweetPurchased
			delta = -quantity

			sweet, err = sweetRepo.DecrementStock(ctx, params)
			if errors.Is(err, repository.ErrNoRowsAffected) {
				return s.explainRejectedPurchase(ctx, sweetRepo, id, quantity)
			}
			if err != nil {
				return fmt.Errorf("sweet repository decrement stock: %w", err)
			}
		} else {
			sweet, err = sweetRepo.IncrementStock(ctx, params)
			if err != nil {
				return fmt.Errorf("sweet repository increment stock: %w", err)
			}
		}

		msg, err := newOutboxMsg(ctx, topic, sweet.ID, event.StockAdjustedEvent{
			SweetID:    sweet.ID.String(),
			Name:       sweet.Name,
			Delta:      delta,
			Quantity:   sweet.Quantity,
			ActorID:    actorID(ctx),
			OccurredAt: sweet.UpdatedAt,
		})
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

	return sweet, nil
}

// explainRejectedPurchase tells a missing sweet apart from a stock shortfall
// after the conditional decrement matched no row. The stored quantity is left
// out of the message since a concurrent restock may already have changed it.
func (s *inventoryService) explainRejectedPurchase(ctx context.Context, sweetRepo repository.SweetRepository, id uuid.UUID, requested int) error {
	if _, err := sweetRepo.GetSweetByID(ctx, id); err != nil {
		return fmt.Errorf("sweet repository get sweet by id: %w", err)
	}

	return apperr.InsufficientStockErr.WithMsg(
		fmt.Sprintf("insufficient stock for %d requested", requested))
}
