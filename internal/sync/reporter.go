package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/gearhouse/autoparts-backend/internal/catalog"
	"github.com/gearhouse/autoparts-backend/internal/promotions"
	"github.com/gearhouse/autoparts-backend/pkg/db/models"
	pkgerrors "github.com/gearhouse/autoparts-backend/pkg/errors"
)

// TableChanges is one table's delta since a client's last pull.
type TableChanges struct {
	Table      string      `json:"table"`
	Items      any         `json:"items"`
	DeletedIDs []uuid.UUID `json:"deleted_ids"`
	ServerTime string      `json:"server_time"`
}

type puller func(ctx context.Context, since *time.Time) (any, []uuid.UUID, error)

// Per-pull row caps. Clients page by feeding the returned server_time
// back as since, so a capped pull converges over successive requests.
const (
	defaultPullLimit   = 1000
	productsPullLimit  = 5000
	tombstonePullLimit = 500
)

// Reporter serves delta pulls over a fixed registry of syncable
// tables. Tables outside the registry do not exist as far as clients
// are concerned.
type Reporter struct {
	tables map[string]puller
	order  []string
	now    func() time.Time
}

// NewReporter registers every client-syncable table.
func NewReporter(db *gorm.DB) *Reporter {
	r := &Reporter{
		tables: map[string]puller{},
		now:    func() time.Time { return time.Now().UTC() },
	}
	register[models.Product](r, db, catalog.TableProducts, productsPullLimit)
	register[models.Category](r, db, catalog.TableCategories, defaultPullLimit)
	register[models.CarBrand](r, db, catalog.TableCarBrands, defaultPullLimit)
	register[models.CarModel](r, db, catalog.TableCarModels, defaultPullLimit)
	register[models.ProductBrand](r, db, catalog.TableProductBrands, defaultPullLimit)
	register[models.Promotion](r, db, promotions.TablePromotions, defaultPullLimit)
	register[models.BundleOffer](r, db, promotions.TableBundleOffers, defaultPullLimit)
	return r
}

func register[T any](r *Reporter, db *gorm.DB, table string, limit int) {
	r.order = append(r.order, table)
	r.tables[table] = func(ctx context.Context, since *time.Time) (any, []uuid.UUID, error) {
		query := db.WithContext(ctx).Where("deleted_at IS NULL")
		if since != nil {
			query = query.Where("updated_at > ?", *since)
		}
		var rows []T
		if err := query.Order("updated_at ASC").Limit(limit).Find(&rows).Error; err != nil {
			return nil, nil, err
		}

		deleted := []uuid.UUID{}
		if since != nil {
			var model T
			err := db.WithContext(ctx).
				Model(&model).
				Where("deleted_at > ?", *since).
				Order("deleted_at ASC").
				Limit(tombstonePullLimit).
				Pluck("id", &deleted).Error
			if err != nil {
				return nil, nil, err
			}
		}
		return rows, deleted, nil
	}
}

// Tables lists the registry in registration order.
func (r *Reporter) Tables() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Known reports whether table is in the registry.
func (r *Reporter) Known(table string) bool {
	_, ok := r.tables[table]
	return ok
}

// Pull returns one table's changes since the given instant. A nil
// since returns a full snapshot with no tombstones. server_time is
// captured before the query runs, so a client that stores it as its
// next since cannot miss rows committed mid-pull.
func (r *Reporter) Pull(ctx context.Context, table string, since *time.Time) (*TableChanges, error) {
	fn, ok := r.tables[table]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("unknown sync table %q", table))
	}

	serverTime := r.now()
	items, deleted, err := fn(ctx, since)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, fmt.Sprintf("pull %s changes", table))
	}
	return &TableChanges{
		Table:      table,
		Items:      items,
		DeletedIDs: deleted,
		ServerTime: serverTime.Format(time.RFC3339Nano),
	}, nil
}

// BulkPull pulls several tables at once. Unknown table names are
// skipped rather than failing the whole request.
func (r *Reporter) BulkPull(ctx context.Context, tables []string, since *time.Time) ([]TableChanges, error) {
	out := make([]TableChanges, 0, len(tables))
	for _, table := range tables {
		if !r.Known(table) {
			continue
		}
		changes, err := r.Pull(ctx, table, since)
		if err != nil {
			return nil, err
		}
		out = append(out, *changes)
	}
	return out, nil
}
