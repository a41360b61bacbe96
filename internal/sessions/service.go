package sessions

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

const tokenBytes = 32

// Service manages opaque login sessions.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID) (*models.Session, error)
	FindValid(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

type service struct {
	repo Repository
	ttl  time.Duration
	now  func() time.Time
}

// NewService wires session dependencies. ttl controls new session
// lifetimes; now is injectable for tests and defaults to UTC wall time.
func NewService(repo Repository, ttl time.Duration, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "sessions repository required")
	}
	if ttl <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session ttl must be positive")
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &service{repo: repo, ttl: ttl, now: now}, nil
}

func (s *service) Create(ctx context.Context, userID uuid.UUID) (*models.Session, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	token, err := newToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate session token")
	}
	session := &models.Session{
		ID:        uuid.New(),
		Token:     token,
		UserID:    userID,
		ExpiresAt: s.now().Add(s.ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return session, nil
}

// FindValid returns the session only while it authorizes. An expired
// row is deleted on sight so the table does not accumulate stale
// tokens waiting for a sweeper.
func (s *service) FindValid(ctx context.Context, token string) (*models.Session, error) {
	if token == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session token required")
	}
	session, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find session")
	}
	if session.ExpiredAt(s.now()) {
		if _, delErr := s.repo.DeleteByToken(ctx, token); delErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, delErr, "delete expired session")
		}
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "session expired")
	}
	return session, nil
}

func (s *service) Delete(ctx context.Context, token string) error {
	if token == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "session token required")
	}
	if _, err := s.repo.DeleteByToken(ctx, token); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete session")
	}
	return nil
}

// DeleteByUser invalidates every session for the user. Demotion and
// account deletion paths call this so stale roles cannot linger.
func (s *service) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	if userID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	count, err := s.repo.DeleteByUser(ctx, userID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete user sessions")
	}
	return count, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
