package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
	"github.com/gearhouse/autoparts-backend/pkg/logger"
)

type stubSessions struct {
	deletedUsers []uuid.UUID
}

func (s *stubSessions) DeleteByUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	s.deletedUsers = append(s.deletedUsers, userID)
	return 1, nil
}

type stubAccounts struct {
	byEmail map[string]*models.User
}

func (s *stubAccounts) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLedger struct {
	products []models.Product
	settled  []uuid.UUID
}

func (s *stubLedger) UnsettledByAdmin(ctx context.Context, adminID uuid.UUID) ([]models.Product, error) {
	return s.products, nil
}

func (s *stubLedger) MarkSettled(ctx context.Context, ids []uuid.UUID) (int64, error) {
	s.settled = append(s.settled, ids...)
	return int64(len(ids)), nil
}

type stubNotifier struct {
	notified []uuid.UUID
}

func (s *stubNotifier) Notify(ctx context.Context, userID uuid.UUID, title, message string, typ enums.NotificationType) error {
	s.notified = append(s.notified, userID)
	return nil
}

func newMemberService(t *testing.T, accounts *stubAccounts, sessions *stubSessions, ledger *stubLedger, notifier *stubNotifier) (Service, Repository) {
	t.Helper()
	repo := NewRepository(newMembershipDB(t))
	logg := logger.New(logger.Options{ServiceName: "test"})
	var l ProductLedger
	if ledger != nil {
		l = ledger
	}
	var n Notifier
	if notifier != nil {
		n = notifier
	}
	svc, err := NewService(repo, sessions, accounts, l, n, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestCreatePartnerDuplicateActiveEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemberService(t, &stubAccounts{}, &stubSessions{}, nil, nil)

	input := MemberInput{Email: "dup@gearhouse.test", Name: "Dup"}
	if _, err := svc.CreatePartner(ctx, input); err != nil {
		t.Fatalf("first create failed: %v", err)
	}
	_, err := svc.CreatePartner(ctx, input)
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreatePartnerAllowsReusingDeletedEmail(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemberService(t, &stubAccounts{}, &stubSessions{}, nil, nil)

	input := MemberInput{Email: "back@gearhouse.test", Name: "Back"}
	first, err := svc.CreatePartner(ctx, input)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := svc.DeletePartner(ctx, first.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := svc.CreatePartner(ctx, input); err != nil {
		t.Fatalf("re-create after delete failed: %v", err)
	}
}

func TestDeleteAdminInvalidatesSessions(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "staff@gearhouse.test"}
	accounts := &stubAccounts{byEmail: map[string]*models.User{user.Email: user}}
	sessions := &stubSessions{}
	svc, _ := newMemberService(t, accounts, sessions, nil, nil)

	admin, err := svc.CreateAdmin(ctx, MemberInput{Email: user.Email, Name: "Staff"})
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	if err := svc.DeleteAdmin(ctx, admin.ID); err != nil {
		t.Fatalf("delete admin failed: %v", err)
	}
	if len(sessions.deletedUsers) != 1 || sessions.deletedUsers[0] != user.ID {
		t.Fatalf("expected session invalidation for %s, got %v", user.ID, sessions.deletedUsers)
	}
}

func TestSettleAdminRevenue(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: uuid.New(), Email: "seller@gearhouse.test"}
	accounts := &stubAccounts{byEmail: map[string]*models.User{user.Email: user}}
	ledger := &stubLedger{products: []models.Product{
		{ID: uuid.New(), Price: decimal.NewFromFloat(120.50)},
		{ID: uuid.New(), Price: decimal.NewFromFloat(79.50)},
	}}
	notifier := &stubNotifier{}
	svc, repo := newMemberService(t, accounts, &stubSessions{}, ledger, notifier)

	admin, err := svc.CreateAdmin(ctx, MemberInput{Email: user.Email, Name: "Seller"})
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}

	result, err := svc.SettleAdminRevenue(ctx, admin.ID, uuid.New())
	if err != nil {
		t.Fatalf("settle failed: %v", err)
	}
	if result.ProductCount != 2 {
		t.Fatalf("expected 2 products settled, got %d", result.ProductCount)
	}
	if !result.Settlement.Amount.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected amount 200, got %s", result.Settlement.Amount)
	}
	if len(ledger.settled) != 2 {
		t.Fatalf("products not marked settled")
	}
	if len(notifier.notified) != 1 || notifier.notified[0] != user.ID {
		t.Fatalf("expected settle notification for admin user")
	}

	refreshed, err := repo.FindAdmin(ctx, admin.ID)
	if err != nil {
		t.Fatalf("reload admin: %v", err)
	}
	if !refreshed.Revenue.Equal(decimal.NewFromInt(200)) {
		t.Fatalf("expected revenue 200, got %s", refreshed.Revenue)
	}
}

func TestSettleNothingToSettle(t *testing.T) {
	ctx := context.Background()
	svc, _ := newMemberService(t, &stubAccounts{}, &stubSessions{}, &stubLedger{}, nil)

	admin, err := svc.CreateAdmin(ctx, MemberInput{Email: "idle@gearhouse.test", Name: "Idle"})
	if err != nil {
		t.Fatalf("create admin failed: %v", err)
	}
	_, err = svc.SettleAdminRevenue(ctx, admin.ID, uuid.New())
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
