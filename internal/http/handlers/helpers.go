package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/gardenbarter-backend/internal/http/response"
	"github.com/yungbote/gardenbarter-backend/internal/platform/apierr"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

func invalidBody(err error) error {
	return apierr.Newf(http.StatusBadRequest, "invalid_request", "Invalid request body: %v", err)
}

func statusOf(err error) int { return apierr.StatusOf(err) }

// fail renders err as {"errors": [...]}; server-side failures are logged
// with their cause first.
func fail(c *gin.Context, log *logger.Logger, err error) {
	logInternal(c, log, err)
	response.RespondErrors(c, err)
}

func logInternal(c *gin.Context, log *logger.Logger, err error) {
	if apierr.StatusOf(err) >= http.StatusInternalServerError {
		log.Error("Request failed", "error", err, "method", c.Request.Method, "path", c.FullPath())
	}
}

func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apierr.Newf(http.StatusNotFound, "not_found", "No user found with id %s.", raw)
	}
	return id, nil
}
