package middleware

import (
	"context"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
)

type contextKey string

const (
	ctxUserID contextKey = "user_id"
	ctxRole   contextKey = "actor_role"
)

func UserIDFromContext(ctx context.Context) uuid.UUID {
	if ctx == nil {
		return uuid.Nil
	}
	if v, ok := ctx.Value(ctxUserID).(uuid.UUID); ok {
		return v
	}
	return uuid.Nil
}

func RoleFromContext(ctx context.Context) enums.Role {
	if ctx == nil {
		return enums.RoleGuest
	}
	if v, ok := ctx.Value(ctxRole).(enums.Role); ok {
		return v
	}
	return enums.RoleGuest
}

// WithIdentity injects the authenticated caller into the context.
func WithIdentity(ctx context.Context, userID uuid.UUID, role enums.Role) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithValue(ctx, ctxUserID, userID)
	return context.WithValue(ctx, ctxRole, role)
}
