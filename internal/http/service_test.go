package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apicontract "github.com/tuanvumaihuynh/sweetshop/api-contract"
	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/config"
	sweethttp "github.com/tuanvumaihuynh/sweetshop/internal/http"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/validation"
	"github.com/tuanvumaihuynh/sweetshop/pkg/correlationid"
)

type mockCatalogService struct{ mock.Mock }

func (m *mockCatalogService) CreateSweet(ctx context.Context, params service.CreateSweetParams) (model.Sweet, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(model.Sweet), args.Error(1)
}

func (m *mockCatalogService) ListSweets(ctx context.Context) ([]model.Sweet, error) {
	args := m.Called(ctx)
	return args.Get(0).([]model.Sweet), args.Error(1)
}

func (m *mockCatalogService) SearchSweets(ctx context.Context, params service.SearchSweetsParams) ([]model.Sweet, error) {
	args := m.Called(ctx, params)
	return args.Get(0).([]model.Sweet), args.Error(1)
}

func (m *mockCatalogService) GetSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Sweet), args.Error(1)
}

func (m *mockCatalogService) UpdateSweet(ctx context.Context, id uuid.UUID, params service.UpdateSweetParams) (model.Sweet, error) {
	args := m.Called(ctx, id, params)
	return args.Get(0).(model.Sweet), args.Error(1)
}

func (m *mockCatalogService) DeleteSweet(ctx context.Context, id uuid.UUID) (model.Sweet, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Sweet), args.Error(1)
}

type mockInventoryService struct{ mock.Mock }

func (m *mockInventoryService) PurchaseSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(model.Sweet), args.Error(1)
}

func (m *mockInventoryService) RestockSweet(ctx context.Context, id uuid.UUID, quantity int) (model.Sweet, error) {
	args := m.Called(ctx, id, quantity)
	return args.Get(0).(model.Sweet), args.Error(1)
}

type mockAuthService struct{ mock.Mock }

func (m *mockAuthService) Register(ctx context.Context, params service.RegisterParams) (service.AuthResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(service.AuthResult), args.Error(1)
}

func (m *mockAuthService) Login(ctx context.Context, params service.LoginParams) (service.AuthResult, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(service.AuthResult), args.Error(1)
}

func (m *mockAuthService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	args := m.Called(ctx, email, password)
	return args.Bool(0), args.Error(1)
}

type mockHealthChecker struct{ mock.Mock }

func (m *mockHealthChecker) IsHealthy(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"details"`
}

func (b errorBody) fields() []string {
	fields := make([]string, 0, len(b.Details))
	for _, d := range b.Details {
		fields = append(fields, d.Field)
	}
	return fields
}

type testServer struct {
	handler   http.Handler
	tokens    *auth.TokenManager
	catalog   *mockCatalogService
	inventory *mockInventoryService
	auth      *mockAuthService
	health    *mockHealthChecker
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	tokens := auth.NewTokenManager(config.Auth{
		JWTSecret: "http-test-secret",
		TokenTTL:  time.Hour,
		Issuer:    "sweetshop",
	})
	v, err := validation.New()
	require.NoError(t, err)

	ts := &testServer{
		tokens:    tokens,
		catalog:   &mockCatalogService{},
		inventory: &mockInventoryService{},
		auth:      &mockAuthService{},
		health:    &mockHealthChecker{},
	}

	svc := sweethttp.New(
		config.HTTP{Swagger: true, AllowedOrigins: []string{"*"}},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		ts.catalog,
		ts.inventory,
		ts.auth,
		auth.NewGate(tokens),
		v,
		ts.health,
	)
	ts.handler = svc.Handler()

	t.Cleanup(func() {
		ts.catalog.AssertExpectations(t)
		ts.inventory.AssertExpectations(t)
		ts.auth.AssertExpectations(t)
		ts.health.AssertExpectations(t)
	})

	return ts
}

func (ts *testServer) token(t *testing.T, role model.Role) string {
	t.Helper()
	token, _, err := ts.tokens.Issue(auth.Identity{
		ID:    uuid.Must(uuid.NewV7()),
		Email: strings.ToLower(string(role)) + "@sweetshop.test",
		Role:  role,
	})
	require.NoError(t, err)
	return token
}

func (ts *testServer) do(method, path, body, token string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func testSweet(name string, quantity int) model.Sweet {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	return model.Sweet{
		ID:        uuid.Must(uuid.NewV7()),
		Name:      name,
		Category:  "Indian",
		Price:     2.5,
		Quantity:  quantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestAuthentication(t *testing.T) {
	ts := newTestServer(t)

	t.Run("Should reject a request without credential", func(t *testing.T) {
		rec := ts.do(http.MethodGet, "/sweets", "", "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, apperr.UnauthenticatedCode, body.Code)
		assert.Equal(t, "no credential supplied", body.Message)
	})

	t.Run("Should reject a forged credential", func(t *testing.T) {
		other := auth.NewTokenManager(config.Auth{JWTSecret: "another-secret", TokenTTL: time.Hour, Issuer: "sweetshop"})
		token, _, err := other.Issue(auth.Identity{ID: uuid.Must(uuid.NewV7()), Role: model.RoleAdmin})
		require.NoError(t, err)

		rec := ts.do(http.MethodGet, "/sweets", "", token)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "credential invalid", body.Message)
	})

	t.Run("Should reject a non bearer scheme", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sweets", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		rec := httptest.NewRecorder()

		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should echo the correlation id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/sweets", nil)
		req.Header.Set(correlationid.Header, "corr-123")
		rec := httptest.NewRecorder()

		ts.handler.ServeHTTP(rec, req)

		assert.Equal(t, "corr-123", rec.Header().Get(correlationid.Header))
	})
}

func TestCreateSweet(t *testing.T) {
	t.Run("Should create a sweet", func(t *testing.T) {
		ts := newTestServer(t)
		created := testSweet("Ladoo", 10)
		ts.catalog.On("CreateSweet", mock.Anything, service.CreateSweetParams{
			Name:     "Ladoo",
			Category: "Indian",
			Price:    2.5,
			Quantity: 10,
		}).Return(created, nil).Once()

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":" Ladoo ","category":"Indian","price":2.5,"quantity":10}`,
			ts.token(t, model.RoleUser))

		require.Equal(t, http.StatusCreated, rec.Code)
		var res sweethttp.SweetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, created.ID, res.ID)
		assert.Equal(t, "Ladoo", res.Name)
		assert.Equal(t, 10, res.Quantity)
	})

	t.Run("Should report every invalid field", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"  ","category":"Indian","price":0,"quantity":-1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, apperr.ValidationErrorCode, body.Code)
		assert.ElementsMatch(t, []string{"name", "price", "quantity"}, body.fields())
	})

	t.Run("Should name the field of a mistyped value", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"Ladoo","category":"Indian","price":"cheap","quantity":1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"price"}, decodeError(t, rec).fields())
	})

	t.Run("Should reject a price finer than a cent", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"Ladoo","category":"Indian","price":10.005,"quantity":1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"price"}, decodeError(t, rec).fields())
		ts.catalog.AssertNotCalled(t, "CreateSweet", mock.Anything, mock.Anything)
	})

	t.Run("Should reject a malformed body", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/sweets", `{"name":`, ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"body"}, decodeError(t, rec).fields())
	})

	t.Run("Should map a duplicate name to conflict", func(t *testing.T) {
		ts := newTestServer(t)
		ts.catalog.On("CreateSweet", mock.Anything, mock.Anything).
			Return(model.Sweet{}, apperr.SweetNameTakenErr).Once()

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"Ladoo","category":"Indian","price":2,"quantity":1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apperr.ConflictCode, decodeError(t, rec).Code)
	})

	t.Run("Should hide internal failures", func(t *testing.T) {
		ts := newTestServer(t)
		ts.catalog.On("CreateSweet", mock.Anything, mock.Anything).
			Return(model.Sweet{}, errors.New("pq: relation sweets does not exist")).Once()

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"Ladoo","category":"Indian","price":2,"quantity":1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "INTERNAL_SERVER_ERROR", body.Code)
		assert.NotContains(t, rec.Body.String(), "relation")
	})

	t.Run("Should map transient failures to service unavailable", func(t *testing.T) {
		ts := newTestServer(t)
		ts.catalog.On("CreateSweet", mock.Anything, mock.Anything).
			Return(model.Sweet{}, apperr.TransientErr).Once()

		rec := ts.do(http.MethodPost, "/sweets",
			`{"name":"Ladoo","category":"Indian","price":2,"quantity":1}`,
			ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, apperr.TransientCode, decodeError(t, rec).Code)
	})
}

func TestListAndGetSweets(t *testing.T) {
	t.Run("Should list sweets", func(t *testing.T) {
		ts := newTestServer(t)
		sweets := []model.Sweet{testSweet("Barfi", 1), testSweet("Ladoo", 2)}
		ts.catalog.On("ListSweets", mock.Anything).Return(sweets, nil).Once()

		rec := ts.do(http.MethodGet, "/sweets", "", ts.token(t, model.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		var res []sweethttp.SweetResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		require.Len(t, res, 2)
		assert.Equal(t, "Barfi", res[0].Name)
	})

	t.Run("Should return an empty array", func(t *testing.T) {
		ts := newTestServer(t)
		ts.catalog.On("ListSweets", mock.Anything).Return([]model.Sweet(nil), nil).Once()

		rec := ts.do(http.MethodGet, "/sweets", "", ts.token(t, model.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("Should get a sweet by id", func(t *testing.T) {
		ts := newTestServer(t)
		sweet := testSweet("Jalebi", 4)
		ts.catalog.On("GetSweet", mock.Anything, sweet.ID).Return(sweet, nil).Once()

		rec := ts.do(http.MethodGet, "/sweets/"+sweet.ID.String(), "", ts.token(t, model.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name":"Jalebi"`)
	})

	t.Run("Should treat a malformed id as not found", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/sweets/not-a-uuid", "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperr.NotFoundCode, decodeError(t, rec).Code)
	})

	t.Run("Should return not found for an unknown sweet", func(t *testing.T) {
		ts := newTestServer(t)
		id := uuid.Must(uuid.NewV7())
		ts.catalog.On("GetSweet", mock.Anything, id).Return(model.Sweet{}, apperr.SweetNotFoundErr).Once()

		rec := ts.do(http.MethodGet, "/sweets/"+id.String(), "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestSearchSweets(t *testing.T) {
	t.Run("Should pass criteria from the query", func(t *testing.T) {
		ts := newTestServer(t)
		minPrice, maxPrice, category := 1.0, 3.0, "Indian"
		ts.catalog.On("SearchSweets", mock.Anything, service.SearchSweetsParams{
			Category: &category,
			MinPrice: &minPrice,
			MaxPrice: &maxPrice,
		}).Return([]model.Sweet{testSweet("Ladoo", 1)}, nil).Once()

		rec := ts.do(http.MethodGet, "/sweets/search?category=Indian&minPrice=1&maxPrice=3", "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should reject an inverted price range", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/sweets/search?minPrice=5&maxPrice=1", "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"minPrice"}, decodeError(t, rec).fields())
	})

	t.Run("Should reject a price that is not a number", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/sweets/search?maxPrice=lots", "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"maxPrice"}, decodeError(t, rec).fields())
	})
}

func TestUpdateSweet(t *testing.T) {
	t.Run("Should apply a partial update for a regular user", func(t *testing.T) {
		ts := newTestServer(t)
		sweet := testSweet("Ladoo", 3)
		price := 3.0
		ts.catalog.On("UpdateSweet", mock.Anything, sweet.ID, service.UpdateSweetParams{Price: &price}).
			Return(sweet, nil).Once()

		rec := ts.do(http.MethodPut, "/sweets/"+sweet.ID.String(), `{"price":3}`, ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should reject a negative quantity", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPut, "/sweets/"+uuid.Must(uuid.NewV7()).String(), `{"quantity":-4}`, ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"quantity"}, decodeError(t, rec).fields())
	})
}

func TestDeleteSweet(t *testing.T) {
	t.Run("Should forbid a regular user", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodDelete, "/sweets/"+uuid.Must(uuid.NewV7()).String(), "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apperr.ForbiddenCode, decodeError(t, rec).Code)
		ts.catalog.AssertNotCalled(t, "DeleteSweet", mock.Anything, mock.Anything)
	})

	t.Run("Should forbid before resolving a malformed id", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodDelete, "/sweets/nope", "", ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Should delete for an admin", func(t *testing.T) {
		ts := newTestServer(t)
		sweet := testSweet("Ladoo", 0)
		ts.catalog.On("DeleteSweet", mock.Anything, sweet.ID).Return(sweet, nil).Once()

		rec := ts.do(http.MethodDelete, "/sweets/"+sweet.ID.String(), "", ts.token(t, model.RoleAdmin))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), sweet.ID.String())
	})
}

func TestStockAdjustments(t *testing.T) {
	t.Run("Should purchase", func(t *testing.T) {
		ts := newTestServer(t)
		sweet := testSweet("Barfi", 7)
		ts.inventory.On("PurchaseSweet", mock.Anything, sweet.ID, 3).Return(sweet, nil).Once()

		rec := ts.do(http.MethodPost, "/sweets/"+sweet.ID.String()+"/purchase", `{"quantity":3}`, ts.token(t, model.RoleUser))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"quantity":7`)
	})

	for name, body := range map[string]string{
		"zero":     `{"quantity":0}`,
		"negative": `{"quantity":-1}`,
		"missing":  `{}`,
		"fraction": `{"quantity":1.5}`,
	} {
		t.Run("Should reject a "+name+" purchase quantity", func(t *testing.T) {
			ts := newTestServer(t)

			rec := ts.do(http.MethodPost, "/sweets/"+uuid.Must(uuid.NewV7()).String()+"/purchase", body, ts.token(t, model.RoleUser))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			res := decodeError(t, rec)
			assert.Equal(t, apperr.ValidationErrorCode, res.Code)
			assert.Equal(t, []string{"quantity"}, res.fields())
		})
	}

	t.Run("Should report insufficient stock", func(t *testing.T) {
		ts := newTestServer(t)
		id := uuid.Must(uuid.NewV7())
		ts.inventory.On("PurchaseSweet", mock.Anything, id, 5).
			Return(model.Sweet{}, apperr.InsufficientStockErr.WithMsg("insufficient stock for 5 requested")).Once()

		rec := ts.do(http.MethodPost, "/sweets/"+id.String()+"/purchase", `{"quantity":5}`, ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, apperr.InsufficientStockCode, body.Code)
		assert.Equal(t, "insufficient stock for 5 requested", body.Message)
	})

	t.Run("Should forbid a regular user to restock", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/sweets/"+uuid.Must(uuid.NewV7()).String()+"/restock", `{"quantity":5}`, ts.token(t, model.RoleUser))

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("Should restock for an admin", func(t *testing.T) {
		ts := newTestServer(t)
		sweet := testSweet("Barfi", 15)
		ts.inventory.On("RestockSweet", mock.Anything, sweet.ID, 5).Return(sweet, nil).Once()

		rec := ts.do(http.MethodPost, "/sweets/"+sweet.ID.String()+"/restock", `{"quantity":5}`, ts.token(t, model.RoleAdmin))

		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAuthRoutes(t *testing.T) {
	result := service.AuthResult{
		Token:     "signed-token",
		ExpiresAt: time.Date(2026, 1, 3, 0, 0, 0, 0, time.UTC),
		User: model.User{
			ID:           uuid.Must(uuid.NewV7()),
			Email:        "ana@example.com",
			PasswordHash: "$2a$10$secret",
			Role:         model.RoleUser,
		},
	}

	t.Run("Should register without credential", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Register", mock.Anything, service.RegisterParams{Email: "ana@example.com", Password: "password1"}).
			Return(result, nil).Once()

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"ana@example.com","password":"password1"}`, "")

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Contains(t, rec.Body.String(), `"token":"signed-token"`)
		assert.NotContains(t, rec.Body.String(), "secret")
	})

	t.Run("Should reject a short password", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodPost, "/auth/register", `{"email":"ana@example.com","password":"short"}`, "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"password"}, decodeError(t, rec).fields())
	})

	t.Run("Should reject invalid login", func(t *testing.T) {
		ts := newTestServer(t)
		ts.auth.On("Login", mock.Anything, mock.Anything).Return(service.AuthResult{}, apperr.InvalidLoginErr).Once()

		rec := ts.do(http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"wrong-password"}`, "")

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid email or password", decodeError(t, rec).Message)
	})
}

func TestOperationalRoutes(t *testing.T) {
	t.Run("Should report healthy", func(t *testing.T) {
		ts := newTestServer(t)
		ts.health.On("IsHealthy", mock.Anything).Return(true, nil).Once()

		rec := ts.do(http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("Should report unavailable storage", func(t *testing.T) {
		ts := newTestServer(t)
		ts.health.On("IsHealthy", mock.Anything).Return(false, errors.New("dial tcp: refused")).Once()

		rec := ts.do(http.MethodGet, "/healthz", "", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("Should expose metrics", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/metrics", "", "")

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should return not found for an unknown route", func(t *testing.T) {
		ts := newTestServer(t)

		rec := ts.do(http.MethodGet, "/candies", "", "")

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apperr.NotFoundCode, decodeError(t, rec).Code)
	})
}

func TestRoutesMatchContract(t *testing.T) {
	ts := newTestServer(t)
	doc, err := apicontract.Load(context.Background())
	require.NoError(t, err)

	routes, ok := ts.handler.(chi.Routes)
	require.True(t, ok)

	undocumented := map[string]bool{"/metrics": true, "/docs": true, "/docs/openapi.yml": true}

	err = chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		if undocumented[route] {
			return nil
		}

		item := doc.Paths.Find(route)
		if assert.NotNil(t, item, "route %s is not documented", route) {
			assert.NotNil(t, item.GetOperation(method), "%s %s is not documented", method, route)
		}
		return nil
	})
	require.NoError(t, err)
}
