package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/gardenbarter-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gardenbarter-backend/internal/http/middleware"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	CORSOrigins    []string
	TracingService string // otelgin is installed when non-empty

	AuthHandler    *httpH.AuthHandler
	AuthMiddleware *httpMW.AuthMiddleware
	UserHandler    *httpH.UserHandler
	BarterHandler  *httpH.BarterHandler
	MessageHandler *httpH.MessageHandler
	HealthHandler  *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	requireAuth := func(c *gin.Context) { c.Next() }
	if cfg.AuthMiddleware != nil {
		requireAuth = cfg.AuthMiddleware.RequireAuth()
	}

	users := r.Group("/users")
	{
		// Identity (public; the refresh cookie authenticates /token and /logout)
		if cfg.AuthHandler != nil {
			users.POST("/register", cfg.AuthHandler.Register)
			users.POST("/login", cfg.AuthHandler.Login)
			users.GET("/token", cfg.AuthHandler.Token)
			users.POST("/logout", cfg.AuthHandler.Logout)
		}
		if cfg.UserHandler != nil {
			users.GET("/me", requireAuth, cfg.UserHandler.GetMe)
			users.GET("/detail/:id", requireAuth, cfg.UserHandler.GetUser)
			users.PUT("/detail/:id", requireAuth, cfg.UserHandler.UpdateUser)
		}
	}

	barters := r.Group("/barters")
	if cfg.BarterHandler != nil {
		barters.GET("/", cfg.BarterHandler.Retrieve)
		barters.GET("/:type/", cfg.BarterHandler.Retrieve)
		barters.GET("/:type/:id/", cfg.BarterHandler.Retrieve)

		barters.POST("/create", requireAuth, cfg.BarterHandler.Create)
		barters.POST("/update/:type/:id/", requireAuth, cfg.BarterHandler.Update)
		barters.POST("/delete/:type/:id/", requireAuth, cfg.BarterHandler.Delete)
	}

	messages := r.Group("/messages", requireAuth)
	if cfg.MessageHandler != nil {
		messages.POST("/create", cfg.MessageHandler.Create)
		messages.GET("/inbox", cfg.MessageHandler.GetInbox)
		messages.GET("/conversations/find", cfg.MessageHandler.Find)
		messages.GET("/conversations/:id", cfg.MessageHandler.GetThread)
		messages.POST("/conversations/:id/reply", cfg.MessageHandler.Reply)
	}

	return r
}
