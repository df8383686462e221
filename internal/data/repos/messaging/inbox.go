package messaging

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type InboxRepo interface {
	Create(dbc dbctx.Context, rows []*types.Inbox) ([]*types.Inbox, error)
	Ensure(dbc dbctx.Context, userID uuid.UUID) (*types.Inbox, error)
	GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Inbox, error)
}

type inboxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewInboxRepo(db *gorm.DB, baseLog *logger.Logger) InboxRepo {
	return &inboxRepo{db: db, log: baseLog.With("repo", "InboxRepo")}
}

func (r *inboxRepo) Create(dbc dbctx.Context, rows []*types.Inbox) ([]*types.Inbox, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if len(rows) == 0 {
		return []*types.Inbox{}, nil
	}
	for _, in := range rows {
		if in.ID == uuid.Nil {
			in.ID = uuid.New()
		}
	}
	if err := transaction.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Ensure returns the user's inbox, creating it when missing.
func (r *inboxRepo) Ensure(dbc dbctx.Context, userID uuid.UUID) (*types.Inbox, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	if userID == uuid.Nil {
		return nil, errors.New("inbox ensure: missing user id")
	}
	row := &types.Inbox{ID: uuid.New(), UserID: userID}
	if err := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(row).Error; err != nil {
		return nil, err
	}
	return r.GetByUserID(dbctx.Context{Ctx: dbc.Ctx, Tx: transaction}, userID)
}

// GetByUserID returns (nil, nil) when the user has no inbox.
func (r *inboxRepo) GetByUserID(dbc dbctx.Context, userID uuid.UUID) (*types.Inbox, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Inbox
	err := transaction.WithContext(dbc.Ctx).Where("user_id = ?", userID).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}
