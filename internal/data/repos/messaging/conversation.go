package messaging

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

// Tuple identifies a conversation: one listing, one sender, one recipient.
type Tuple struct {
	BarterID    uuid.UUID
	BarterType  string
	SenderID    uuid.UUID
	RecipientID uuid.UUID
}

type ConversationRepo interface {
	Ensure(dbc dbctx.Context, inboxID uuid.UUID, t Tuple) (*types.Conversation, bool, error)
	FindByTuple(dbc dbctx.Context, t Tuple) (*types.Conversation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	GetThread(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	ListByRecipient(dbc dbctx.Context, recipientID uuid.UUID) ([]*types.Conversation, error)
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	LinkBarter(dbc dbctx.Context, barterID, conversationID uuid.UUID) error
	ListByBarter(dbc dbctx.Context, barterID uuid.UUID) ([]*types.Conversation, error)
}

type conversationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return &conversationRepo{db: db, log: baseLog.With("repo", "ConversationRepo")}
}

// Ensure inserts the conversation unless the tuple already exists, then
// reads back the stored row. The bool reports whether this call created it.
func (r *conversationRepo) Ensure(dbc dbctx.Context, inboxID uuid.UUID, t Tuple) (*types.Conversation, bool, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	row := &types.Conversation{
		ID:          uuid.New(),
		InboxID:     inboxID,
		BarterID:    t.BarterID,
		BarterType:  t.BarterType,
		SenderID:    t.SenderID,
		RecipientID: t.RecipientID,
	}
	res := transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Omit(clause.Associations).
		Create(row)
	if res.Error != nil {
		return nil, false, res.Error
	}

	var out types.Conversation
	if err := transaction.WithContext(dbc.Ctx).
		Where("inbox_id = ? AND barter_id = ? AND barter_type = ? AND sender_id = ? AND recipient_id = ?",
			inboxID, t.BarterID, t.BarterType, t.SenderID, t.RecipientID).
		Take(&out).Error; err != nil {
		return nil, false, fmt.Errorf("read back conversation: %w", err)
	}
	return &out, res.RowsAffected == 1, nil
}

// FindByTuple returns the conversation with its messages, or (nil, nil).
func (r *conversationRepo) FindByTuple(dbc dbctx.Context, t Tuple) (*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
	err := transaction.WithContext(dbc.Ctx).
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("barter_id = ? AND barter_type = ? AND sender_id = ? AND recipient_id = ?",
			t.BarterID, t.BarterType, t.SenderID, t.RecipientID).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
	err := transaction.WithContext(dbc.Ctx).Where("id = ?", id).Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// GetThread loads the conversation with participants and messages in
// receipt order.
func (r *conversationRepo) GetThread(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out types.Conversation
	err := transaction.WithContext(dbc.Ctx).
		Preload("Sender").
		Preload("Recipient").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("id = ?", id).
		Take(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) ListByRecipient(dbc dbctx.Context, recipientID uuid.UUID) ([]*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Conversation
	if err := transaction.WithContext(dbc.Ctx).
		Preload("Sender").
		Preload("Recipient").
		Preload("Messages", func(db *gorm.DB) *gorm.DB { return db.Order("seq ASC") }).
		Where("recipient_id = ?", recipientID).
		Order("updated_at DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *conversationRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Conversation, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("missing id")
	}
	if dbc.Tx == nil {
		return nil, fmt.Errorf("LockByID requires dbc.Tx")
	}
	var out types.Conversation
	if err := dbc.Tx.WithContext(dbc.Ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&out).Error; err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *conversationRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil {
		return fmt.Errorf("missing id")
	}
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["updated_at"] = time.Now().UTC()
	txx := dbc.Tx
	if txx == nil {
		txx = r.db
	}
	return txx.WithContext(dbc.Ctx).
		Model(&types.Conversation{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *conversationRepo) LinkBarter(dbc dbctx.Context, barterID, conversationID uuid.UUID) error {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&types.BarterConversation{BarterID: barterID, ConversationID: conversationID}).Error
}

func (r *conversationRepo) ListByBarter(dbc dbctx.Context, barterID uuid.UUID) ([]*types.Conversation, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var out []*types.Conversation
	if err := transaction.WithContext(dbc.Ctx).
		Joins("JOIN barter_conversation bc ON bc.conversation_id = conversation.id").
		Where("bc.barter_id = ?", barterID).
		Order("conversation.created_at ASC").
		Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
