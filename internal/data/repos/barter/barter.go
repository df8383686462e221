package barter

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	Type     types.BarterType
	ActiveAt *time.Time
}

type BarterRepo interface {
	Create(dbc dbctx.Context, rows []*types.Barter) ([]*types.Barter, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Barter, error)
	GetByTypeAndID(dbc dbctx.Context, t types.BarterType, id uuid.UUID) (*types.Barter, error)
	List(dbc dbctx.Context, f ListFilter) ([]*types.Barter, error)
	Save(dbc dbctx.Context, row *types.Barter) error
	Expire(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error)
}

type barterRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBarterRepo(db *gorm.DB, baseLog *logger.Logger) BarterRepo {
	repoLog := baseLog.With("repo", "BarterRepo")
	return &barterRepo{db: db, log: repoLog}
}

func (r *barterRepo) Create(dbc dbctx.Context, rows []*types.Barter) ([]*types.Barter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if len(rows) == 0 {
		return []*types.Barter{}, nil
	}
	for _, b := range rows {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
	}

	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *barterRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Barter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	var results []*types.Barter
	if len(ids) == 0 {
		return results, nil
	}

	if err := transaction.WithContext(dbc.Ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// GetByTypeAndID returns (nil, nil) when no listing of that type has the id.
func (r *barterRepo) GetByTypeAndID(dbc dbctx.Context, t types.BarterType, id uuid.UUID) (*types.Barter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if id == uuid.Nil {
		return nil, nil
	}

	var out types.Barter
	err := transaction.WithContext(dbc.Ctx).
		Where("id = ? AND barter_type = ?", id, t).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *barterRepo) List(dbc dbctx.Context, f ListFilter) ([]*types.Barter, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	q := transaction.WithContext(dbc.Ctx).Model(&types.Barter{})
	if f.Type != "" {
		q = q.Where("barter_type = ?", f.Type)
	}
	if f.ActiveAt != nil {
		q = q.Where("date_expires > ?", *f.ActiveAt)
	}

	var out []*types.Barter
	if err := q.Order("date_created DESC").Order("id DESC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// Save writes every column of row, including NULLs.
func (r *barterRepo) Save(dbc dbctx.Context, row *types.Barter) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	if row == nil || row.ID == uuid.Nil {
		return errors.New("barter save: missing id")
	}
	return transaction.WithContext(dbc.Ctx).Save(row).Error
}

// Expire moves date_expires to at unless the listing already expired.
// It reports whether a row changed.
func (r *barterRepo) Expire(dbc dbctx.Context, id uuid.UUID, at time.Time) (bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}

	res := transaction.WithContext(dbc.Ctx).
		Model(&types.Barter{}).
		Where("id = ? AND date_expires > ?", id, at).
		Updates(map[string]interface{}{
			"date_expires": at,
			"date_updated": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
