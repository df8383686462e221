package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/http/response"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

type UserHandler struct {
	log         *logger.Logger
	userService services.UserService
}

func NewUserHandler(log *logger.Logger, userService services.UserService) *UserHandler {
	return &UserHandler{log: log.With("handler", "UserHandler"), userService: userService}
}

// GET /users/me
func (uh *UserHandler) GetMe(c *gin.Context) {
	me, err := uh.userService.GetMe(dbctx.Of(c.Request.Context()))
	if err != nil {
		fail(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": me})
}

// GET /users/detail/:id
func (uh *UserHandler) GetUser(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		response.RespondErrors(c, err)
		return
	}
	u, err := uh.userService.GetByID(dbctx.Of(c.Request.Context()), id)
	if err != nil {
		fail(c, uh.log, err)
		return
	}
	response.RespondOK(c, gin.H{"user": u})
}

// PUT /users/detail/:id
// body: { "first_name": "...", "last_name": "...", "username": "..." }, all optional
func (uh *UserHandler) UpdateUser(c *gin.Context) {
	id, err := parseUserID(c.Param("id"))
	if err != nil {
		response.RespondErrors(c, err)
		return
	}
	var req services.UserUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondErrors(c, invalidBody(err))
		return
	}
	u, err := uh.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		fail(c, uh.log, err)
		return
	}
	response.RespondStatus(c, http.StatusAccepted, gin.H{"user": u})
}
