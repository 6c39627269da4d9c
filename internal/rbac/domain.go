package rbac

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-ledger/internal/platform/httpx"
)

var (
	// ErrForbidden reports a user acting on an entity they are not linked to.
	ErrForbidden = fmt.Errorf("rbac: user may not act on this entity: %w", httpx.ErrForbidden)
	// ErrUnauthenticated reports a request without a usable identity.
	ErrUnauthenticated = fmt.Errorf("rbac: no user identity: %w", httpx.ErrUnauthorized)
)

type ctxKey struct{}

// WithUser stores the acting person in ctx.
func WithUser(ctx context.Context, user uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKey{}, user)
}

// UserFromContext returns the acting person, if any.
func UserFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := ctx.Value(ctxKey{}).(uuid.UUID)
	return user, ok && user != uuid.Nil
}

// RequireUser is UserFromContext returning ErrUnauthenticated when absent.
func RequireUser(ctx context.Context) (uuid.UUID, error) {
	user, ok := UserFromContext(ctx)
	if !ok {
		return uuid.Nil, ErrUnauthenticated
	}
	return user, nil
}
