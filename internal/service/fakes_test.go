package service_test

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

// fakeDB runs transactions inline; repositories below keep their own locking.
type fakeDB struct {
	db.DB
}

func (f fakeDB) WithTx(_ context.Context, txFunc func(db.DB) error) error {
	return txFunc(f)
}

type memSweetRepository struct {
	mu     sync.Mutex
	sweets map[uuid.UUID]model.Sweet
}

var _ repository.SweetRepository = (*memSweetRepository)(nil)

func newMemSweetRepository() *memSweetRepository {
	return &memSweetRepository{sweets: map[uuid.UUID]model.Sweet{}}
}

func (r *memSweetRepository) WithDB(db.DB) repository.SweetRepository { return r }

// CreateSweet stores the sweet at column precision: price in cents and
// timestamps in microseconds.
func (r *memSweetRepository) CreateSweet(_ context.Context, sweet model.Sweet) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sweets {
		if existing.Name == sweet.Name {
			return model.Sweet{}, fmt.Errorf("create sweet: %w", apperr.SweetNameTakenErr)
		}
	}
	sweet.Price = math.Round(sweet.Price*100) / 100
	sweet.CreatedAt = sweet.CreatedAt.Truncate(time.Microsecond)
	sweet.UpdatedAt = sweet.UpdatedAt.Truncate(time.Microsecond)
	r.sweets[sweet.ID] = sweet
	return sweet, nil
}

func (r *memSweetRepository) GetSweetByID(_ context.Context, id uuid.UUID) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sweet, ok := r.sweets[id]
	if !ok {
		return model.Sweet{}, fmt.Errorf("get sweet by id: %w", apperr.SweetNotFoundErr)
	}
	return sweet, nil
}

func (r *memSweetRepository) LockSweetByID(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	return r.GetSweetByID(ctx, id)
}

func (r *memSweetRepository) ExistsSweetByName(_ context.Context, params repository.ExistsSweetByNameParams) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, sweet := range r.sweets {
		if sweet.Name == params.Name && (params.ExcludeID == nil || *params.ExcludeID != sweet.ID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSweetRepository) ListSweets(_ context.Context, params repository.ListSweetsParams) ([]model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contains := func(s string, sub *string) bool {
		return sub == nil || strings.Contains(strings.ToLower(s), strings.ToLower(*sub))
	}

	sweets := make([]model.Sweet, 0, len(r.sweets))
	for _, sweet := range r.sweets {
		if !contains(sweet.Name, params.Name) || !contains(sweet.Category, params.Category) {
			continue
		}
		if params.MinPrice != nil && sweet.Price < *params.MinPrice {
			continue
		}
		if params.MaxPrice != nil && sweet.Price > *params.MaxPrice {
			continue
		}
		sweets = append(sweets, sweet)
	}

	slices.SortFunc(sweets, func(a, b model.Sweet) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID.String(), a.ID.String())
	})

	return sweets, nil
}

func (r *memSweetRepository) UpdateSweet(_ context.Context, sweet model.Sweet) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sweets[sweet.ID]; !ok {
		return model.Sweet{}, fmt.Errorf("update sweet: %w", apperr.SweetNotFoundErr)
	}
	for _, existing := range r.sweets {
		if existing.ID != sweet.ID && existing.Name == sweet.Name {
			return model.Sweet{}, fmt.Errorf("update sweet: %w", apperr.SweetNameTakenErr)
		}
	}
	r.sweets[sweet.ID] = sweet
	return sweet, nil
}

func (r *memSweetRepository) DeleteSweet(_ context.Context, id uuid.UUID) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sweet, ok := r.sweets[id]
	if !ok {
		return model.Sweet{}, fmt.Errorf("delete sweet: %w", apperr.SweetNotFoundErr)
	}
	delete(r.sweets, id)
	return sweet, nil
}

func (r *memSweetRepository) DecrementStock(_ context.Context, params repository.AdjustStockParams) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sweet, ok := r.sweets[params.ID]
	if !ok || sweet.Quantity < int(params.Quantity) {
		return model.Sweet{}, fmt.Errorf("decrement stock: %w", repository.ErrNoRowsAffected)
	}
	sweet.Quantity -= int(params.Quantity)
	sweet.UpdatedAt = params.UpdatedAt
	r.sweets[params.ID] = sweet
	return sweet, nil
}

func (r *memSweetRepository) IncrementStock(_ context.Context, params repository.AdjustStockParams) (model.Sweet, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sweet, ok := r.sweets[params.ID]
	if !ok {
		return model.Sweet{}, fmt.Errorf("increment stock: %w", apperr.SweetNotFoundErr)
	}
	sweet.Quantity += int(params.Quantity)
	sweet.UpdatedAt = params.UpdatedAt
	r.sweets[params.ID] = sweet
	return sweet, nil
}

// quantity reads the stored quantity directly, bypassing the services.
func (r *memSweetRepository) quantity(id uuid.UUID) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweets[id].Quantity
}

type memOutboxMsgRepository struct {
	mu   sync.Mutex
	msgs []repository.CreateOutboxMsgParams
}

var _ repository.OutboxMsgRepository = (*memOutboxMsgRepository)(nil)

func (r *memOutboxMsgRepository) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *memOutboxMsgRepository) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *memOutboxMsgRepository) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, nil
}

func (r *memOutboxMsgRepository) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return nil
}

func (r *memOutboxMsgRepository) topics() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics := make([]string, 0, len(r.msgs))
	for _, msg := range r.msgs {
		topics = append(topics, msg.Topic)
	}
	return topics
}

type memUserRepository struct {
	mu    sync.Mutex
	users map[string]model.User
}

var _ repository.UserRepository = (*memUserRepository)(nil)

func newMemUserRepository() *memUserRepository {
	return &memUserRepository{users: map[string]model.User{}}
}

func (r *memUserRepository) WithDB(db.DB) repository.UserRepository { return r }

func (r *memUserRepository) CreateUser(_ context.Context, user model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return fmt.Errorf("create user: %w", apperr.EmailTakenErr)
	}
	r.users[user.Email] = user
	return nil
}

func (r *memUserRepository) CreateUserIfAbsent(_ context.Context, user model.User) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[user.Email]; ok {
		return false, nil
	}
	r.users[user.Email] = user
	return true, nil
}

func (r *memUserRepository) GetUserByEmail(_ context.Context, email string) (model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[email]
	if !ok {
		return model.User{}, fmt.Errorf("get user by email: %w", repository.ErrUserNotFound)
	}
	return user, nil
}
