package memberships

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

// SessionInvalidator revokes every session belonging to a user.
type SessionInvalidator interface {
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error)
}

// AccountLookup finds the user account behind a membership email.
type AccountLookup interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// ProductLedger exposes the catalog rows involved in a settlement run.
type ProductLedger interface {
	UnsettledByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Product, error)
	MarkSettled(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Notifier records a notification for a user, best-effort.
type Notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, message string, typ enums.NotificationType) error
}

// Service manages partner, admin and subscriber rosters.
type Service interface {
	ListPartners(ctx context.Context) ([]models.Partner, error)
	CreatePartner(ctx context.Context, input MemberInput) (*models.Partner, error)
	UpdatePartner(ctx context.Context, id uuid.UUID, input MemberInput) (*models.Partner, error)
	DeletePartner(ctx context.Context, id uuid.UUID) error

	ListAdmins(ctx context.Context) ([]models.Admin, error)
	CreateAdmin(ctx context.Context, input MemberInput) (*models.Admin, error)
	UpdateAdmin(ctx context.Context, id uuid.UUID, input MemberInput) (*models.Admin, error)
	DeleteAdmin(ctx context.Context, id uuid.UUID) error
	SettleAdminRevenue(ctx context.Context, adminID, settledBy uuid.UUID) (*SettleResult, error)

	ListSubscribers(ctx context.Context) ([]models.Subscriber, error)
	CreateSubscriber(ctx context.Context, input MemberInput) (*models.Subscriber, error)
	DeleteSubscriber(ctx context.Context, id uuid.UUID) error
}

// MemberInput carries the writable membership fields.
type MemberInput struct {
	Email string  `json:"email" validate:"required,email"`
	Name  string  `json:"name" validate:"required"`
	Phone *string `json:"phone,omitempty"`
}

// SettleResult summarizes one settlement run.
type SettleResult struct {
	Settlement   *models.Settlement `json:"settlement"`
	ProductCount int                `json:"product_count"`
}

type service struct {
	repo     Repository
	sessions SessionInvalidator
	accounts AccountLookup
	ledger   ProductLedger
	notifier Notifier
	logg     *logger.Logger
	now      func() time.Time
}

// NewService wires membership dependencies. ledger and notifier are
// optional; without them SettleAdminRevenue is unavailable.
func NewService(repo Repository, sessions SessionInvalidator, accounts AccountLookup, ledger ProductLedger, notifier Notifier, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	if sessions == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "session invalidator required")
	}
	if accounts == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "account lookup required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:     repo,
		sessions: sessions,
		accounts: accounts,
		ledger:   ledger,
		notifier: notifier,
		logg:     logg,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

func normalizeInput(input *MemberInput) error {
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Name = strings.TrimSpace(input.Name)
	if input.Email == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "email required")
	}
	if input.Name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "name required")
	}
	return nil
}

func (s *service) ListPartners(ctx context.Context) ([]models.Partner, error) {
	rows, err := s.repo.ListPartners(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list partners")
	}
	return rows, nil
}

func (s *service) CreatePartner(ctx context.Context, input MemberInput) (*models.Partner, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.repo.ActivePartnerByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "partner email already active")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check partner email")
	}

	row := &models.Partner{ID: uuid.New(), Email: input.Email, Name: input.Name, Phone: input.Phone}
	if err := s.repo.CreatePartner(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "partner email already active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create partner")
	}
	return row, nil
}

func (s *service) UpdatePartner(ctx context.Context, id uuid.UUID, input MemberInput) (*models.Partner, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	row, err := s.repo.FindPartner(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find partner")
	}

	previousEmail := row.Email
	row.Email = input.Email
	row.Name = input.Name
	row.Phone = input.Phone
	if err := s.repo.SavePartner(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "partner email already active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update partner")
	}
	if previousEmail != row.Email {
		s.invalidateSessionsForEmail(ctx, previousEmail)
	}
	return row, nil
}

func (s *service) DeletePartner(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.SoftDeletePartner(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "partner not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete partner")
	}
	s.invalidateSessionsForEmail(ctx, row.Email)
	return nil
}

func (s *service) ListAdmins(ctx context.Context) ([]models.Admin, error) {
	rows, err := s.repo.ListAdmins(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list admins")
	}
	return rows, nil
}

func (s *service) CreateAdmin(ctx context.Context, input MemberInput) (*models.Admin, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.repo.ActiveAdminByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin email already active")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check admin email")
	}

	row := &models.Admin{ID: uuid.New(), Email: input.Email, Name: input.Name, Phone: input.Phone, Revenue: decimal.Zero}
	if err := s.repo.CreateAdmin(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin email already active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create admin")
	}
	return row, nil
}

func (s *service) UpdateAdmin(ctx context.Context, id uuid.UUID, input MemberInput) (*models.Admin, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	row, err := s.repo.FindAdmin(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find admin")
	}

	previousEmail := row.Email
	row.Email = input.Email
	row.Name = input.Name
	row.Phone = input.Phone
	if err := s.repo.SaveAdmin(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "admin email already active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update admin")
	}
	if previousEmail != row.Email {
		s.invalidateSessionsForEmail(ctx, previousEmail)
	}
	return row, nil
}

func (s *service) DeleteAdmin(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.SoftDeleteAdmin(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete admin")
	}
	s.invalidateSessionsForEmail(ctx, row.Email)
	return nil
}

// SettleAdminRevenue marks the admin's unsettled products as settled,
// records a settlement row and bumps the revenue counter. The steps
// are best-effort: a failure partway leaves earlier steps applied.
func (s *service) SettleAdminRevenue(ctx context.Context, adminID, settledBy uuid.UUID) (*SettleResult, error) {
	if s.ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "product ledger not configured")
	}
	admin, err := s.repo.FindAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "admin not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "find admin")
	}

	products, err := s.ledger.UnsettledByAdmin(ctx, adminID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list unsettled products")
	}
	if len(products) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to settle")
	}

	amount := decimal.Zero
	ids := make([]uuid.UUID, 0, len(products))
	for _, product := range products {
		amount = amount.Add(product.Price)
		ids = append(ids, product.ID)
	}

	if _, err := s.ledger.MarkSettled(ctx, ids); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark products settled")
	}

	settlement := &models.Settlement{
		ID:         uuid.New(),
		AdminID:    adminID,
		Amount:     amount,
		ProductIDs: ids,
		SettledBy:  settledBy,
	}
	if err := s.repo.CreateSettlement(ctx, settlement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record settlement")
	}
	if err := s.repo.IncrementAdminRevenue(ctx, adminID, amount); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment revenue")
	}

	s.notifySettled(ctx, admin, amount)

	return &SettleResult{Settlement: settlement, ProductCount: len(ids)}, nil
}

func (s *service) ListSubscribers(ctx context.Context) ([]models.Subscriber, error) {
	rows, err := s.repo.ListSubscribers(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list subscribers")
	}
	return rows, nil
}

func (s *service) CreateSubscriber(ctx context.Context, input MemberInput) (*models.Subscriber, error) {
	if err := normalizeInput(&input); err != nil {
		return nil, err
	}
	if _, err := s.repo.ActiveSubscriberByEmail(ctx, input.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscriber email already active")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check subscriber email")
	}

	row := &models.Subscriber{ID: uuid.New(), Email: input.Email, Name: input.Name}
	if err := s.repo.CreateSubscriber(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "subscriber email already active")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscriber")
	}
	return row, nil
}

func (s *service) DeleteSubscriber(ctx context.Context, id uuid.UUID) error {
	row, err := s.repo.SoftDeleteSubscriber(ctx, id, s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "subscriber not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete subscriber")
	}
	s.invalidateSessionsForEmail(ctx, row.Email)
	return nil
}

// invalidateSessionsForEmail revokes sessions so the demoted account
// cannot keep acting under its old role. Best-effort: the membership
// change itself has already happened.
func (s *service) invalidateSessionsForEmail(ctx context.Context, email string) {
	user, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "session invalidation lookup failed")
		}
		return
	}
	if _, err := s.sessions.DeleteByUser(ctx, user.ID); err != nil {
		s.logg.Warn(s.logg.WithUserID(ctx, user.ID.String()), "session invalidation failed")
	}
}

func (s *service) notifySettled(ctx context.Context, admin *models.Admin, amount decimal.Decimal) {
	if s.notifier == nil {
		return
	}
	user, err := s.accounts.FindByEmail(ctx, admin.Email)
	if err != nil {
		return
	}
	err = s.notifier.Notify(ctx, user.ID, "Revenue settled",
		"A settlement of "+amount.StringFixed(2)+" was recorded for your products.",
		enums.NotificationTypeSystem)
	if err != nil {
		s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "settlement notification failed")
	}
}
