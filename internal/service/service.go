package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
	"github.com/tuanvumaihuynh/sweetshop/pkg/outbox"
	"github.com/tuanvumaihuynh/sweetshop/pkg/ptr"
	"github.com/tuanvumaihuynh/sweetshop/pkg/zerror"
)

// withTimeout bounds a storage round trip. A zero timeout leaves ctx as is.
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// classify keeps typed errors and turns untyped storage timeouts into apperr.TransientErr.
func classify(err error) error {
	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		return err
	}
	if db.IsTransient(err) {
		return apperr.TransientErr.WrapParent(err)
	}
	return err
}

func newOutboxMsg(ctx context.Context, topic string, key uuid.UUID, ev any) (repository.CreateOutboxMsgParams, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return repository.CreateOutboxMsgParams{}, fmt.Errorf("marshal %s event: %w", topic, err)
	}

	return repository.CreateOutboxMsgParams{
		Topic:        topic,
		Headers:      outbox.BuildHeaders(ctx),
		Payload:      payload,
		PartitionKey: ptr.New(key.String()),
	}, nil
}

func actorID(ctx context.Context) string {
	if identity, ok := auth.FromContext(ctx); ok {
		return identity.ID.String()
	}
	return ""
}

func stockQuantity(field string, quantity int, allowZero bool) (int32, error) {
	if quantity < 0 || (!allowZero && quantity == 0) {
		if allowZero {
			return 0, apperr.NewValidationErr(field, "must be a non-negative integer")
		}
		return 0, apperr.NewValidationErr(field, "must be a positive integer")
	}
	if quantity > math.MaxInt32 {
		return 0, apperr.NewValidationErr(field, "exceeds the maximum stock level")
	}
	return int32(quantity), nil
}
