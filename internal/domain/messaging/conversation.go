package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/domain/user"
)

// Conversation is the thread between one sender and one recipient about one
// listing. It lives in the recipient's inbox; the tuple is unique.
type Conversation struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	InboxID     uuid.UUID `gorm:"type:uuid;not null;column:inbox_id;uniqueIndex:idx_conversation_tuple,priority:1" json:"inbox_id"`
	BarterID    uuid.UUID `gorm:"type:uuid;not null;column:barter_id;uniqueIndex:idx_conversation_tuple,priority:2;index" json:"barter_id"`
	BarterType  string    `gorm:"column:barter_type;size:16;not null;uniqueIndex:idx_conversation_tuple,priority:3" json:"barter_type"`
	SenderID    uuid.UUID `gorm:"type:uuid;not null;column:sender_id;uniqueIndex:idx_conversation_tuple,priority:4;index" json:"sender_id"`
	RecipientID uuid.UUID `gorm:"type:uuid;not null;column:recipient_id;uniqueIndex:idx_conversation_tuple,priority:5;index" json:"recipient_id"`

	// Per-thread message sequencing.
	NextSeq int64 `gorm:"column:next_seq;not null" json:"-"`

	Inbox     *Inbox         `gorm:"constraint:OnDelete:CASCADE;foreignKey:InboxID;references:ID" json:"-"`
	Barter    *barter.Barter `gorm:"constraint:OnDelete:CASCADE;foreignKey:BarterID;references:ID" json:"-"`
	Sender    *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:SenderID;references:ID" json:"-"`
	Recipient *user.User     `gorm:"constraint:OnDelete:CASCADE;foreignKey:RecipientID;references:ID" json:"-"`
	Messages  []*Message     `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"messages"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime;index" json:"updated_at"`
}

func (Conversation) TableName() string { return "conversation" }

// HasParticipant reports whether userID is the sender or the recipient.
func (c *Conversation) HasParticipant(userID uuid.UUID) bool {
	return c != nil && userID != uuid.Nil && (c.SenderID == userID || c.RecipientID == userID)
}

// Counterpart returns the other participant.
func (c *Conversation) Counterpart(userID uuid.UUID) uuid.UUID {
	if c.SenderID == userID {
		return c.RecipientID
	}
	return c.SenderID
}
