package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/auth"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
	"github.com/tuanvumaihuynh/sweetshop/internal/repository"
)

type RegisterParams struct {
	Email    string
	Password string
}

type LoginParams struct {
	Email    string
	Password string
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      model.User
}

// TokenIssuer signs credentials for an identity.
type TokenIssuer interface {
	Issue(identity auth.Identity) (string, time.Time, error)
}

type AuthService interface {
	// Register creates a USER account and signs it in.
	Register(ctx context.Context, params RegisterParams) (AuthResult, error)
	Login(ctx context.Context, params LoginParams) (AuthResult, error)
	// EnsureAdmin creates an ADMIN account unless the email is already taken.
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type authService struct {
	userRepo     repository.UserRepository
	tokenIssuer  TokenIssuer
	queryTimeout time.Duration
	hashCost     int
}

func NewAuthService(
	userRepo repository.UserRepository,
	tokenIssuer TokenIssuer,
	queryTimeout time.Duration,
) AuthService {
	return &authService{
		userRepo:     userRepo,
		tokenIssuer:  tokenIssuer,
		queryTimeout: queryTimeout,
		hashCost:     bcrypt.DefaultCost,
	}
}

// dummyHash is compared against when the email is unknown so that failed
// logins take the same time whether or not the account exists.
var dummyHash = sync.OnceValue(func() []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte("sweetshop-unknown-account"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Errorf("generate dummy hash: %w", err))
	}
	return hash
})

func (s *authService) Register(ctx context.Context, params RegisterParams) (AuthResult, error) {
	user, err := s.newUser(params.Email, params.Password, model.RoleUser)
	if err != nil {
		return AuthResult{}, err
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		return AuthResult{}, classify(fmt.Errorf("user repository create user: %w", err))
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	user, err := s.userRepo.GetUserByEmail(ctx, normalizeEmail(params.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			//nolint:errcheck
			bcrypt.CompareHashAndPassword(dummyHash(), []byte(params.Password))
			return AuthResult{}, apperr.InvalidLoginErr
		}
		return AuthResult{}, classify(fmt.Errorf("user repository get user by email: %w", err))
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return AuthResult{}, apperr.InvalidLoginErr.WrapParent(err)
	}

	return s.issue(user)
}

func (s *authService) EnsureAdmin(ctx context.Context, email, password string) (bool, error) {
	user, err := s.newUser(email, password, model.RoleAdmin)
	if err != nil {
		return false, err
	}

	ctx, cancel := withTimeout(ctx, s.queryTimeout)
	defer cancel()

	created, err := s.userRepo.CreateUserIfAbsent(ctx, user)
	if err != nil {
		return false, classify(fmt.Errorf("user repository create user if absent: %w", err))
	}

	return created, nil
}

func (s *authService) newUser(email, password string, role model.Role) (model.User, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return model.User{}, fmt.Errorf("generate uuid v7: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return model.User{}, apperr.NewValidationErr("password", "must be at most 72 bytes")
		}
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}

	return model.User{
		ID:           id,
		Email:        normalizeEmail(email),
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now(),
	}, nil
}

func (s *authService) issue(user model.User) (AuthResult, error) {
	token, expiresAt, err := s.tokenIssuer.Issue(auth.Identity{
		ID:    user.ID,
		Email: user.Email,
		Role:  user.Role,
	})
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      user,
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
