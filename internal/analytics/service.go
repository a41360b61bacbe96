package analytics

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gearhouse/autoparts-backend/pkg/enums"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// Dashboard is the staff summary payload.
type Dashboard struct {
	OrdersByStatus   map[enums.OrderStatus]int64 `json:"orders_by_status"`
	TotalOrders      int64                       `json:"total_orders"`
	DeliveredRevenue decimal.Decimal             `json:"delivered_revenue"`
	AdminRollups     []AdminRollup               `json:"admin_rollups"`
}

// Service produces the staff dashboard.
type Service interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type service struct {
	repo Repository
}

// NewService wires analytics dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "analytics repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Dashboard(ctx context.Context) (*Dashboard, error) {
	counts, err := s.repo.CountOrdersByStatus(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count orders")
	}
	var total int64
	for _, n := range counts {
		total += n
	}

	revenue, err := s.repo.DeliveredRevenue(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sum delivered revenue")
	}

	rollups, err := s.repo.AdminRollups(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "admin rollups")
	}

	return &Dashboard{
		OrdersByStatus:   counts,
		TotalOrders:      total,
		DeliveredRevenue: revenue.Round(2),
		AdminRollups:     rollups,
	}, nil
}
