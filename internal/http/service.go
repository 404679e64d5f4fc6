package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/sweetshop/internal/config"
	"github.com/tuanvumaihuynh/sweetshop/internal/http/apierr"
	"github.com/tuanvumaihuynh/sweetshop/internal/http/metric"
	"github.com/tuanvumaihuynh/sweetshop/internal/http/middleware"
	"github.com/tuanvumaihuynh/sweetshop/internal/http/swagger"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/service"
	"github.com/tuanvumaihuynh/sweetshop/internal/storage/db"
	"github.com/tuanvumaihuynh/sweetshop/internal/validation"
)

var tracer = otel.Tracer("internal/http")

// Service represents the HTTP service.
type Service struct {
	cfg     config.HTTP
	logger  *slog.Logger
	metrics *metric.Metrics

	catalogSvc    service.CatalogService
	inventorySvc  service.InventoryService
	authSvc       service.AuthService
	authenticator middleware.Authenticator
	validator     *validation.Validator
	health        db.HealthChecker
}

type CleanupFunc func(ctx context.Context) error

func New(
	cfg config.HTTP,
	log *slog.Logger,
	catalogSvc service.CatalogService,
	inventorySvc service.InventoryService,
	authSvc service.AuthService,
	authenticator middleware.Authenticator,
	validator *validation.Validator,
	health db.HealthChecker,
) *Service {
	return &Service{
		cfg:           cfg,
		logger:        log.With(slog.String("service", "http")),
		metrics:       metric.New(),
		catalogSvc:    catalogSvc,
		inventorySvc:  inventorySvc,
		authSvc:       authSvc,
		authenticator: authenticator,
		validator:     validator,
		health:        health,
	}
}

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	return s.RunWithServer(ctx, s.Handler())
}

// Handler builds the complete router with middlewares and routes.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	s.RegisterMiddlewares(r)

	if s.cfg.Swagger {
		swagger.Register(r)
	}

	s.RegisterHandlers(r)

	return r
}

func (s *Service) RunWithServer(ctx context.Context, handler http.Handler) (CleanupFunc, error) {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Port),
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64 KB
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}

	go func() {
		if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Error("http server stopped unexpectedly", slog.Any("error", err))
		}
	}()

	s.logger.Info("http server listening", slog.String("addr", ln.Addr().String()))

	return func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return srv.Shutdown(ctx)
	}, nil
}

func (s *Service) RegisterMiddlewares(r chi.Router) {
	r.Use(
		middleware.Recoverer(s.logger),
		middleware.CorrelationID(),
		middleware.Trace(tracer),
		middleware.Metrics(s.metrics),
		middleware.Cors(s.cfg.AllowedOrigins),
		middleware.Logging(s.logger),
	)
}

func (s *Service) RegisterHandlers(r chi.Router) {
	sweets := newSweetHandler(s.catalogSvc, s.inventorySvc, s.validator)
	users := newAuthHandler(s.authSvc, s.validator)
	health := newHealthHandler(s.health)

	r.NotFound(s.handle(func(http.ResponseWriter, *http.Request) error {
		return errRouteNotFound
	}))
	r.MethodNotAllowed(s.handle(func(http.ResponseWriter, *http.Request) error {
		return errMethodNotAllowed
	}))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handle(users.Register))
		r.Post("/login", s.handle(users.Login))
	})

	r.Route("/sweets", func(r chi.Router) {
		r.Use(middleware.Authenticate(s.authenticator, s.handleResponseError))

		r.Post("/", s.handle(sweets.CreateSweet))
		r.Get("/", s.handle(sweets.ListSweets))
		r.Get("/search", s.handle(sweets.SearchSweets))

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handle(sweets.GetSweet))
			r.Put("/", s.handle(sweets.UpdateSweet))
			r.Post("/purchase", s.handle(sweets.PurchaseSweet))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(model.RoleAdmin, s.handleResponseError))
				r.Delete("/", s.handle(sweets.DeleteSweet))
				r.Post("/restock", s.handle(sweets.RestockSweet))
			})
		})
	})

	r.Get(middleware.HealthPath, s.handle(health.Check))

	r.Handle(middleware.MetricsPath, promhttp.HandlerFor(prometheus.DefaultGatherer, promhttp.HandlerOpts{
		ErrorLog: log.Default(),
	}))
}

// handlerFunc is an HTTP handler whose failure is rendered by handleResponseError.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Service) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			s.handleResponseError(w, r, err)
		}
	}
}

func (s *Service) handleResponseError(w http.ResponseWriter, r *http.Request, err error) {
	res := apierr.New(err)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(res.StatusCode)

	logLevel := slog.LevelInfo
	if res.StatusCode >= 500 {
		logLevel = slog.LevelError
	} else if res.StatusCode >= 400 {
		logLevel = slog.LevelWarn
	}
	s.logger.Log(r.Context(), logLevel, "http response error",
		slog.String("code", res.Code),
		slog.Any("error", err))

	if err := json.NewEncoder(w).Encode(res); err != nil {
		s.logger.ErrorContext(r.Context(), "error encoding error response",
			slog.Any("error", err))
	}
}
