package memberships

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// Resolver computes the effective role for an email. The role is
// recomputed on every request, never cached on the session, so a
// membership edit takes effect on the next call.
type Resolver struct {
	repo       Repository
	ownerEmail string
}

// NewResolver wires the resolver. ownerEmail is the configured
// primary owner address.
func NewResolver(repo Repository, ownerEmail string) (*Resolver, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "memberships repository required")
	}
	if strings.TrimSpace(ownerEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "owner email required")
	}
	return &Resolver{repo: repo, ownerEmail: strings.ToLower(strings.TrimSpace(ownerEmail))}, nil
}

// Resolve returns the strongest role the email qualifies for:
// owner, then partner, admin, subscriber, and finally plain user.
func (r *Resolver) Resolve(ctx context.Context, email string) (enums.Role, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return enums.RoleGuest, nil
	}
	if email == r.ownerEmail {
		return enums.RoleOwner, nil
	}

	if _, err := r.repo.ActivePartnerByEmail(ctx, email); err == nil {
		return enums.RolePartner, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.RoleGuest, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve partner role")
	}

	if _, err := r.repo.ActiveAdminByEmail(ctx, email); err == nil {
		return enums.RoleAdmin, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.RoleGuest, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve admin role")
	}

	if _, err := r.repo.ActiveSubscriberByEmail(ctx, email); err == nil {
		return enums.RoleSubscriber, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return enums.RoleGuest, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve subscriber role")
	}

	return enums.RoleUser, nil
}
