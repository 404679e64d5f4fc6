package event

import (
	"context"
	"log/slog"
	"time"
)

const (
	TopicSweetCreated   = "sweet.created"
	TopicSweetUpdated   = "sweet.updated"
	TopicSweetDeleted   = "sweet.deleted"
	TopicSweetPurchased = "sweet.purchased"
	TopicSweetRestocked = "sweet.restocked"
)

// SweetChangedEvent is published on catalog changes.
type SweetChangedEvent struct {
	SweetID    string    `json:"sweet_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Price      float64   `json:"price"`
	Quantity   int       `json:"quantity"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// StockAdjustedEvent is published on purchases and restocks.
type StockAdjustedEvent struct {
	SweetID    string    `json:"sweet_id"`
	Name       string    `json:"name"`
	Delta      int       `json:"delta"`
	Quantity   int       `json:"quantity"`
	ActorID    string    `json:"actor_id,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

func (s *Service) handleSweetPurchasedEvent(ctx context.Context, ev StockAdjustedEvent) error {
	s.logger.InfoContext(ctx, "sweet purchased",
		slog.String("sweet_id", ev.SweetID),
		slog.Int("delta", ev.Delta),
		slog.Int("quantity", ev.Quantity),
	)

	if ev.Quantity == 0 {
		s.logger.WarnContext(ctx, "sweet sold out",
			slog.String("sweet_id", ev.SweetID),
			slog.String("name", ev.Name),
		)
	}

	return nil
}

func (s *Service) handleSweetRestockedEvent(ctx context.Context, ev StockAdjustedEvent) error {
	s.logger.InfoContext(ctx, "sweet restocked",
		slog.String("sweet_id", ev.SweetID),
		slog.String("actor_id", ev.ActorID),
		slog.Int("delta", ev.Delta),
		slog.Int("quantity", ev.Quantity),
	)
	return nil
}

func (s *Service) handleSweetDeletedEvent(ctx context.Context, ev SweetChangedEvent) error {
	s.logger.InfoContext(ctx, "sweet deleted",
		slog.String("sweet_id", ev.SweetID),
		slog.String("actor_id", ev.ActorID),
		slog.String("name", ev.Name),
	)
	return nil
}
