package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
)

// BarterConversation links a listing to every conversation opened about it.
type BarterConversation struct {
	BarterID       uuid.UUID `gorm:"type:uuid;primaryKey;column:barter_id" json:"barter_id"`
	ConversationID uuid.UUID `gorm:"type:uuid;primaryKey;column:conversation_id;index" json:"conversation_id"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`

	Barter       *barter.Barter `gorm:"constraint:OnDelete:CASCADE;foreignKey:BarterID;references:ID" json:"-"`
	Conversation *Conversation  `gorm:"constraint:OnDelete:CASCADE;foreignKey:ConversationID;references:ID" json:"-"`
}

func (BarterConversation) TableName() string { return "barter_conversation" }
