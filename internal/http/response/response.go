package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/platform/apierr"
)

const internalMessage = "Something went wrong."

// RespondErrors writes {"errors": [...]}, the shape of the listing,
// messaging and user surfaces.
func RespondErrors(c *gin.Context, err error) {
	status, msgs := describe(err)
	c.JSON(status, gin.H{"errors": msgs})
}

// RespondMsg writes {"msg": [...]}, the shape of the identity surface.
func RespondMsg(c *gin.Context, err error) {
	status, msgs := describe(err)
	c.JSON(status, gin.H{"msg": msgs})
}

// AbortMsg is RespondMsg for middleware.
func AbortMsg(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"msg": []string{msg}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondStatus(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// describe picks the status and client messages for err. Errors without an
// explicit status are 500 and never leak their text.
func describe(err error) (int, []string) {
	var ae *apierr.Error
	if !errors.As(err, &ae) || ae == nil || ae.Status == 0 {
		return http.StatusInternalServerError, []string{internalMessage}
	}
	return ae.Status, apierr.Messages(ae)
}
