package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	User         services.UserService
	Barter       services.BarterService
	Conversation services.ConversationService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	var cache services.BarterCache
	if clients.BarterCache != nil {
		cache = clients.BarterCache
	}

	return Services{
		Auth: services.NewAuthService(
			db,
			log,
			repos.User,
			repos.UserToken,
			repos.Inbox,
			metrics,
			cfg.JWTSecretKey,
			cfg.AccessTokenTTL,
			cfg.RefreshTokenTTL,
		),
		User:   services.NewUserService(db, log, repos.User),
		Barter: services.NewBarterService(db, log, repos.Barter, cache, metrics, cfg.BarterLifespan),
		Conversation: services.NewConversationService(
			db,
			log,
			repos.User,
			repos.Barter,
			repos.Inbox,
			repos.Conversation,
			repos.Message,
			metrics,
		),
	}
}
