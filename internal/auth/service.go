package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/gearhouse/autoparts-backend/internal/identity"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// IdentityExchanger verifies an opaque provider session id.
type IdentityExchanger interface {
	Exchange(ctx context.Context, sessionID string) (*identity.Profile, error)
}

// Accounts provisions and loads user rows.
type Accounts interface {
	FindOrCreate(ctx context.Context, email, name string, picture *string) (*models.User, error)
	GetActive(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// SessionStore manages opaque login sessions.
type SessionStore interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	FindValid(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// RoleResolver computes the effective role for an email.
type RoleResolver interface {
	Resolve(ctx context.Context, email string) (enums.Role, error)
}

// Identity is the authenticated caller attached to a request.
type Identity struct {
	User *models.User
	Role enums.Role
}

// LoginResult is returned from a successful exchange.
type LoginResult struct {
	User    *models.User    `json:"user"`
	Role    enums.Role      `json:"role"`
	Session *models.Session `json:"-"`
}

// Service implements login, identification and logout.
type Service interface {
	ExchangeSession(ctx context.Context, providerSessionID string) (*LoginResult, error)
	Identify(ctx context.Context, token string) (*Identity, error)
	Logout(ctx context.Context, token string) error
}

type service struct {
	exchanger IdentityExchanger
	accounts  Accounts
	sessions  SessionStore
	resolver  RoleResolver
}

// NewService wires auth dependencies.
func NewService(exchanger IdentityExchanger, accounts Accounts, sessions SessionStore, resolver RoleResolver) (Service, error) {
	if exchanger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "identity exchanger required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "accounts required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session store required")
	}
	if resolver == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "role resolver required")
	}
	return &service{exchanger: exchanger, accounts: accounts, sessions: sessions, resolver: resolver}, nil
}

// ExchangeSession verifies the provider session, provisions the account
// on first login and opens a server-side session.
func (s *service) ExchangeSession(ctx context.Context, providerSessionID string) (*LoginResult, error) {
	profile, err := s.exchanger.Exchange(ctx, providerSessionID)
	if err != nil {
		return nil, err
	}

	var picture *string
	if profile.Picture != "" {
		picture = &profile.Picture
	}
	user, err := s.accounts.FindOrCreate(ctx, profile.Email, profile.Name, picture)
	if err != nil {
		return nil, err
	}
	if user.IsDeleted() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "account is disabled")
	}

	session, err := s.sessions.Create(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	role, err := s.resolver.Resolve(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &LoginResult{User: user, Role: role, Session: session}, nil
}

// Identify resolves the caller behind a session token. The role is
// recomputed here on every call, so membership edits and demotions
// take effect without touching existing sessions.
func (s *service) Identify(ctx context.Context, token string) (*Identity, error) {
	session, err := s.sessions.FindValid(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.accounts.GetActive(ctx, session.UserID)
	if err != nil {
		// a session surviving its soft-deleted owner does not authorize
		if appErr := pkgerrors.As(err); appErr != nil && appErr.Code() == pkgerrors.CodeNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session owner not available")
		}
		return nil, err
	}

	role, err := s.resolver.Resolve(ctx, user.Email)
	if err != nil {
		return nil, err
	}
	return &Identity{User: user, Role: role}, nil
}

// Logout deletes the session. Unknown tokens are not an error.
func (s *service) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}
