package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
)

type ExistsSweetByNameParams struct {
	Name string
	// ExcludeID skips the sweet being renamed.
	ExcludeID *uuid.UUID
}

type ListSweetsParams struct {
	Name     *string
	Category *string
	MinPrice *float64
	MaxPrice *float64
}

type AdjustStockParams struct {
	ID        uuid.UUID
	Quantity  int32
	UpdatedAt time.Time
}

type SweetRepository interface {
	WithDB(db db.DB) SweetRepository
	// CreateSweet returns the row as stored, with price and timestamps at
	// column precision.
	CreateSweet(ctx context.Context, sweet model.Sweet) (model.Sweet, error)
	GetSweetByID(ctx context.Context, id uuid.UUID) (model.Sweet, error)
	// LockSweetByID reads the sweet and holds its row lock until the
	// surrounding transaction ends.
	LockSweetByID(ctx context.Context, id uuid.UUID) (model.Sweet, error)
	ExistsSweetByName(ctx context.Context, params ExistsSweetByNameParams) (bool, error)
	ListSweets(ctx context.Context, params ListSweetsParams) ([]model.Sweet, error)
	UpdateSweet(ctx context.Context, sweet model.Sweet) (model.Sweet, error)
	DeleteSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error)
	// DecrementStock subtracts params.Quantity only if enough stock is left.
	// It returns ErrNoRowsAffected when the sweet is missing or short.
	DecrementStock(ctx context.Context, params AdjustStockParams) (model.Sweet, error)
	IncrementStock(ctx context.Context, params AdjustStockParams) (model.Sweet, error)
}

type sweetRepository struct {
	db db.DB
}

func NewSweetRepository(db db.DB) SweetRepository {
	return &sweetRepository{
		db: db,
	}
}

func (r sweetRepository) WithDB(db db.DB) SweetRepository {
	return &sweetRepository{
		db: db,
	}
}

const sweetColumns = `id, name, category, price, quantity, description, created_at, updated_at`

func (r sweetRepository) CreateSweet(ctx context.Context, sweet model.Sweet) (model.Sweet, error) {
	price, err := toNumeric(sweet.Price)
	if err != nil {
		return model.Sweet{}, err
	}

	quantity, err := toInt32(sweet.Quantity)
	if err != nil {
		return model.Sweet{}, err
	}

	row := r.db.QueryRow(ctx, `
		INSERT INTO sweets (id, name, category, price, quantity, description, created_at, updated_at)
		VALUES (@id, @name, @category, @price, @quantity, @description, @created_at, @updated_at)
		RETURNING `+sweetColumns, pgx.NamedArgs{
		"id":          sweet.ID,
		"name":        sweet.Name,
		"category":    sweet.Category,
		"price":       price,
		"quantity":    quantity,
		"description": sweet.Description,
		"created_at":  sweet.CreatedAt,
		"updated_at":  sweet.UpdatedAt,
	})

	created, err := scanSweet(row)
	if err != nil {
		return model.Sweet{}, writeErr("create sweet", err)
	}

	return created, nil
}

func (r sweetRepository) GetSweetByID(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sweetColumns+` FROM sweets WHERE id = @id`, pgx.NamedArgs{"id": id})

	sweet, err := scanSweet(row)
	if err != nil {
		return model.Sweet{}, readErr("get sweet by id", err)
	}

	return sweet, nil
}

func (r sweetRepository) LockSweetByID(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	row := r.db.QueryRow(ctx, `SELECT `+sweetColumns+` FROM sweets WHERE id = @id FOR UPDATE`, pgx.NamedArgs{"id": id})

	sweet, err := scanSweet(row)
	if err != nil {
		return model.Sweet{}, readErr("lock sweet by id", err)
	}

	return sweet, nil
}

func (r sweetRepository) ExistsSweetByName(ctx context.Context, params ExistsSweetByNameParams) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sweets
			WHERE name = @name
			  AND (@exclude_id::uuid IS NULL OR id <> @exclude_id::uuid)
		)
	`, pgx.NamedArgs{
		"name":       params.Name,
		"exclude_id": params.ExcludeID,
	}).Scan(&exists)
	if err != nil {
		return false, wrapErr("exists sweet by name", err)
	}

	return exists, nil
}

func (r sweetRepository) ListSweets(ctx context.Context, params ListSweetsParams) ([]model.Sweet, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sweetColumns+`
		FROM sweets
		WHERE (@name::text IS NULL OR STRPOS(LOWER(name), LOWER(@name::text)) > 0)
		  AND (@category::text IS NULL OR STRPOS(LOWER(category), LOWER(@category::text)) > 0)
		  AND (@min_price::numeric IS NULL OR price >= @min_price::numeric)
		  AND (@max_price::numeric IS NULL OR price <= @max_price::numeric)
		ORDER BY created_at DESC, id DESC
	`, pgx.NamedArgs{
		"name":      params.Name,
		"category":  params.Category,
		"min_price": params.MinPrice,
		"max_price": params.MaxPrice,
	})
	if err != nil {
		return nil, wrapErr("list sweets", err)
	}

	sweets, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Sweet, error) {
		return scanSweet(row)
	})
	if err != nil {
		return nil, wrapErr("collect sweets", err)
	}

	return sweets, nil
}

func (r sweetRepository) UpdateSweet(ctx context.Context, sweet model.Sweet) (model.Sweet, error) {
	price, err := toNumeric(sweet.Price)
	if err != nil {
		return model.Sweet{}, err
	}

	quantity, err := toInt32(sweet.Quantity)
	if err != nil {
		return model.Sweet{}, err
	}

	row := r.db.QueryRow(ctx, `
		UPDATE sweets
		SET name        = @name,
			category    = @category,
			price       = @price,
			quantity    = @quantity,
			description = @description,
			updated_at  = @updated_at
		WHERE id = @id
		RETURNING `+sweetColumns, pgx.NamedArgs{
		"id":          sweet.ID,
		"name":        sweet.Name,
		"category":    sweet.Category,
		"price":       price,
		"quantity":    quantity,
		"description": sweet.Description,
		"updated_at":  sweet.UpdatedAt,
	})

	updated, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Sweet{}, readErr("update sweet", err)
		}
		return model.Sweet{}, writeErr("update sweet", err)
	}

	return updated, nil
}

func (r sweetRepository) DeleteSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	row := r.db.QueryRow(ctx, `DELETE FROM sweets WHERE id = @id RETURNING `+sweetColumns, pgx.NamedArgs{"id": id})

	sweet, err := scanSweet(row)
	if err != nil {
		return model.Sweet{}, readErr("delete sweet", err)
	}

	return sweet, nil
}

func (r sweetRepository) DecrementStock(ctx context.Context, params AdjustStockParams) (model.Sweet, error) {
	// The predicate and the decrement are one statement: the row lock taken by
	// UPDATE makes concurrent purchases re-check quantity after each other commits.
	row := r.db.QueryRow(ctx, `
		UPDATE sweets
		SET quantity   = quantity - @quantity,
			updated_at = @updated_at
		WHERE id = @id
		  AND quantity >= @quantity
		RETURNING `+sweetColumns, pgx.NamedArgs{
		"id":         params.ID,
		"quantity":   params.Quantity,
		"updated_at": params.UpdatedAt,
	})

	sweet, err := scanSweet(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Sweet{}, fmt.Errorf("decrement stock: %w", ErrNoRowsAffected)
		}
		return model.Sweet{}, wrapErr("decrement stock", err)
	}

	return sweet, nil
}

func (r sweetRepository) IncrementStock(ctx context.Context, params AdjustStockParams) (model.Sweet, error) {
	row := r.db.QueryRow(ctx, `
		UPDATE sweets
		SET quantity   = quantity + @quantity,
			updated_at = @updated_at
		WHERE id = @id
		RETURNING `+sweetColumns, pgx.NamedArgs{
		"id":         params.ID,
		"quantity":   params.Quantity,
		"updated_at": params.UpdatedAt,
	})

	sweet, err := scanSweet(row)
	if err != nil {
		if db.HasCode(err, db.CodeNumericOutOfRange) {
			return model.Sweet{}, fmt.Errorf("increment stock: %w",
				apperr.NewValidationErr("quantity", "exceeds the maximum stock level").WrapParent(err))
		}
		return model.Sweet{}, readErr("increment stock", err)
	}

	return sweet, nil
}

func scanSweet(row pgx.Row) (model.Sweet, error) {
	var (
		sweet    model.Sweet
		price    pgtype.Numeric
		quantity int32
	)

	if err := row.Scan(
		&sweet.ID,
		&sweet.Name,
		&sweet.Category,
		&price,
		&quantity,
		&sweet.Description,
		&sweet.CreatedAt,
		&sweet.UpdatedAt,
	); err != nil {
		return model.Sweet{}, err
	}

	priceValue, err := price.Float64Value()
	if err != nil {
		return model.Sweet{}, fmt.Errorf("convert price to float64: %w", err)
	}

	sweet.Price = priceValue.Float64
	sweet.Quantity = int(quantity)

	return sweet, nil
}

func toNumeric(v float64) (pgtype.Numeric, error) {
	var n pgtype.Numeric
	if err := n.Scan(strconv.FormatFloat(v, 'f', -1, 64)); err != nil {
		return n, fmt.Errorf("scan price: %w", err)
	}
	return n, nil
}

func toInt32(v int) (int32, error) {
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, apperr.NewValidationErr("quantity", "exceeds the maximum stock level")
	}
	return int32(v), nil
}

// readErr maps a missing row to apperr.SweetNotFoundErr.
func readErr(op string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, apperr.SweetNotFoundErr)
	}
	return wrapErr(op, err)
}

// writeErr maps constraint violations raised by a sweet write.
func writeErr(op string, err error) error {
	if _, ok := db.UniqueViolation(err); ok {
		return fmt.Errorf("%s: %w", op, apperr.SweetNameTakenErr.WrapParent(err))
	}
	if db.HasCode(err, db.CodeNumericOutOfRange) {
		return fmt.Errorf("%s: %w", op, apperr.NewValidationErr("price", "must be at most 99999999.99").WrapParent(err))
	}
	if db.HasCode(err, db.CodeCheckViolation) {
		field := "sweet"
		switch constraint := db.ConstraintName(err); {
		case strings.Contains(constraint, "price"):
			field = "price"
		case strings.Contains(constraint, "quantity"):
			field = "quantity"
		case strings.Contains(constraint, "category"):
			field = "category"
		case strings.Contains(constraint, "name"):
			field = "name"
		}
		return fmt.Errorf("%s: %w", op, apperr.NewValidationErr(field, "violates a stored constraint").WrapParent(err))
	}
	return wrapErr(op, err)
}
