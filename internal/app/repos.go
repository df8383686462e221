package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type Repos struct {
	User         repos.UserRepo
	UserToken    repos.UserTokenRepo
	Barter       repos.BarterRepo
	Inbox        repos.InboxRepo
	Conversation repos.ConversationRepo
	Message      repos.MessageRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:         repos.NewUserRepo(db, log),
		UserToken:    repos.NewUserTokenRepo(db, log),
		Barter:       repos.NewBarterRepo(db, log),
		Inbox:        repos.NewInboxRepo(db, log),
		Conversation: repos.NewConversationRepo(db, log),
		Message:      repos.NewMessageRepo(db, log),
	}
}
