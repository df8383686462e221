package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos/auth"
	"github.com/yungbote/gardenbarter-backend/internal/data/repos/barter"
	"github.com/yungbote/gardenbarter-backend/internal/data/repos/messaging"
	"github.com/yungbote/gardenbarter-backend/internal/data/repos/user"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type UserTokenRepo = auth.UserTokenRepo

type BarterRepo = barter.BarterRepo
type BarterListFilter = barter.ListFilter

type InboxRepo = messaging.InboxRepo
type ConversationRepo = messaging.ConversationRepo
type ConversationTuple = messaging.Tuple
type MessageRepo = messaging.MessageRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewUserTokenRepo(db *gorm.DB, baseLog *logger.Logger) UserTokenRepo {
	return auth.NewUserTokenRepo(db, baseLog)
}

func NewBarterRepo(db *gorm.DB, baseLog *logger.Logger) BarterRepo {
	return barter.NewBarterRepo(db, baseLog)
}

func NewInboxRepo(db *gorm.DB, baseLog *logger.Logger) InboxRepo {
	return messaging.NewInboxRepo(db, baseLog)
}
func NewConversationRepo(db *gorm.DB, baseLog *logger.Logger) ConversationRepo {
	return messaging.NewConversationRepo(db, baseLog)
}
func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return messaging.NewMessageRepo(db, baseLog)
}
