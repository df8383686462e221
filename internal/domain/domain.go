package domain

import (
	"github.com/yungbote/gardenbarter-backend/internal/domain/auth"
	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/domain/messaging"
	"github.com/yungbote/gardenbarter-backend/internal/domain/user"
)

type User = user.User
type UserSummary = user.Summary
type UserToken = auth.UserToken

type Barter = barter.Barter
type BarterType = barter.Type
type BarterForm = barter.Form

type Inbox = messaging.Inbox
type Conversation = messaging.Conversation
type Message = messaging.Message
type BarterConversation = messaging.BarterConversation
type ConversationView = messaging.ConversationView
type InboxView = messaging.InboxView

const (
	BarterTypeSeed     = barter.TypeSeed
	BarterTypePlant    = barter.TypePlant
	BarterTypeProduce  = barter.TypeProduce
	BarterTypeMaterial = barter.TypeMaterial
	BarterTypeTool     = barter.TypeTool
)

// Models lists every persisted type in migration order.
func Models() []interface{} {
	return []interface{}{
		&User{},
		&UserToken{},
		&Inbox{},
		&Barter{},
		&Conversation{},
		&Message{},
		&BarterConversation{},
	}
}
