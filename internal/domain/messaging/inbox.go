package messaging

import (
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/domain/user"
)

// Inbox groups the conversations a user receives. One per user.
type Inbox struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;column:user_id" json:"user_id"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`

	User *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"-"`
}

func (Inbox) TableName() string { return "inbox" }
