package app

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/http"
	httpH "github.com/yungbote/gardenbarter-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gardenbarter-backend/internal/http/middleware"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	Auth    *httpH.AuthHandler
	User    *httpH.UserHandler
	Barter  *httpH.BarterHandler
	Message *httpH.MessageHandler
}

func wireHandlers(log *logger.Logger, db *gorm.DB, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health: httpH.NewHealthHandler(db),
		Auth: httpH.NewAuthHandler(log, services.Auth, httpH.CookieConfig{
			Secure: cfg.CookieSecure,
			Domain: cfg.CookieDomain,
		}),
		User:    httpH.NewUserHandler(log, services.User),
		Barter:  httpH.NewBarterHandler(log, services.Barter),
		Message: httpH.NewMessageHandler(log, services.Conversation),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func wireRouter(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) *gin.Engine {
	tracing := ""
	if cfg.Otel.Enabled {
		tracing = cfg.Otel.ServiceName
	}
	return http.NewRouter(http.RouterConfig{
		Log:            log,
		Metrics:        metrics,
		CORSOrigins:    cfg.CORSOrigins,
		TracingService: tracing,
		HealthHandler:  handlers.Health,
		AuthHandler:    handlers.Auth,
		AuthMiddleware: middleware.Auth,
		UserHandler:    handlers.User,
		BarterHandler:  handlers.Barter,
		MessageHandler: handlers.Message,
	})
}
