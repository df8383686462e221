package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	MemberID  uuid.UUID  `gorm:"type:uuid;uniqueIndex;not null;column:member_id" json:"member_id"`
	Email     string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password  string     `gorm:"not null;column:password" json:"-"`
	Username  string     `gorm:"column:username;size:150" json:"username"`
	FirstName string     `gorm:"column:first_name;size:150" json:"first_name"`
	LastName  string     `gorm:"column:last_name;size:150" json:"last_name"`
	IsActive  bool       `gorm:"column:is_active;not null;index" json:"is_active"`
	IsStaff   bool       `gorm:"column:is_staff;not null" json:"is_staff"`
	LastLogin *time.Time `gorm:"column:last_login" json:"last_login,omitempty"`

	CreatedAt time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "user" }

// Summary is the participant view embedded in conversations.
type Summary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

func (u *User) Summary() *Summary {
	if u == nil {
		return nil
	}
	return &Summary{ID: u.ID, Username: u.Username, FirstName: u.FirstName, LastName: u.LastName}
}
