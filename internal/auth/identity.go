package auth

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/sweetshop/internal/apperr"
	"github.com/tuanvumaihuynh/sweetshop/internal/model"
)

// RoleAny marks operations open to every authenticated identity.
const RoleAny model.Role = ""

// Identity is the caller resolved from a verified credential.
type Identity struct {
	ID    uuid.UUID
	Email string
	Role  model.Role
}

// Verifier checks a raw credential.
type Verifier interface {
	Verify(raw string) (Claims, error)
}

// Gate resolves raw credentials into identities without touching storage.
type Gate struct {
	verifier Verifier
}

func NewGate(verifier Verifier) *Gate {
	return &Gate{verifier: verifier}
}

// Authenticate returns the identity carried by raw.
func (g *Gate) Authenticate(raw string) (Identity, error) {
	if strings.TrimSpace(raw) == "" {
		return Identity{}, apperr.NoCredentialErr
	}

	claims, err := g.verifier.Verify(raw)
	if err != nil {
		return Identity{}, apperr.InvalidCredentialErr.WrapParent(err)
	}

	return Identity{
		ID:    claims.UserID,
		Email: claims.Email,
		Role:  claims.Role,
	}, nil
}

// Authorize allows identity to run an operation requiring the given role.
func Authorize(identity Identity, required model.Role) error {
	if required == RoleAny {
		return nil
	}
	if required == model.RoleAdmin && identity.Role != model.RoleAdmin {
		return apperr.AdminRequiredErr
	}
	return nil
}

// ExtractBearer returns the token of an "Authorization: Bearer <token>"
// header value, or "" when the header carries none.
func ExtractBearer(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type identityCtxKey struct{}

// NewContext returns a copy of ctx carrying identity.
func NewContext(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey{}, identity)
}

// FromContext returns the identity stored in ctx by the auth middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(Identity)
	return identity, ok
}
