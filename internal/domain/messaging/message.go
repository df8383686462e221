package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Message is immutable once stored. Seq orders messages inside a thread.
type Message struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID uuid.UUID `gorm:"type:uuid;not null;column:conversation_id;uniqueIndex:idx_message_seq,priority:1" json:"conversation_id"`
	Seq            int64     `gorm:"column:seq;not null;uniqueIndex:idx_message_seq,priority:2" json:"seq"`
	SenderID       uuid.UUID `gorm:"type:uuid;not null;column:sender_id;index" json:"sender_id"`
	RecipientID    uuid.UUID `gorm:"type:uuid;not null;column:recipient_id;index" json:"recipient_id"`
	Body           string    `gorm:"column:body;size:1000;not null" json:"body"`
	DateReceived   time.Time `gorm:"column:date_received;not null" json:"date_received"`
}

func (Message) TableName() string { return "message" }

const MaxBodyLength = 1000
