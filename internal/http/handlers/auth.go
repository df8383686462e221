package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/http/response"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

const (
	RefreshCookieName = "refreshtoken"
	refreshCookiePath = "/users"
)

// CookieConfig controls the refresh cookie. Secure is off only for local
// development over plain HTTP.
type CookieConfig struct {
	Secure bool
	Domain string
}

type AuthHandler struct {
	log         *logger.Logger
	authService services.AuthService
	cookie      CookieConfig
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{
		log:         log.With("handler", "AuthHandler"),
		authService: authService,
		cookie:      cookie,
	}
}

// POST /users/register
// body: { "email": "...", "password": "...", "password2": "..." }
func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		Password2 string `json:"password2"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondMsg(c, invalidBody(err))
		return
	}
	user, pair, err := ah.authService.Register(c.Request.Context(), req.Email, req.Password, req.Password2)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ah.setRefreshCookie(c, pair.RefreshToken)
	response.RespondStatus(c, http.StatusCreated, gin.H{
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// POST /users/login
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondMsg(c, invalidBody(err))
		return
	}
	user, pair, err := ah.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		ah.fail(c, err)
		return
	}
	ah.setRefreshCookie(c, pair.RefreshToken)
	response.RespondOK(c, gin.H{
		"accessToken": pair.AccessToken,
		"user":        user,
	})
}

// GET /users/token
// Exchanges the refresh cookie for a new access token and rotates the cookie.
func (ah *AuthHandler) Token(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)
	pair, err := ah.authService.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		if refreshToken != "" {
			ah.clearRefreshCookie(c)
		}
		ah.fail(c, err)
		return
	}
	ah.setRefreshCookie(c, pair.RefreshToken)
	response.RespondOK(c, gin.H{"accessToken": pair.AccessToken})
}

// POST /users/logout
func (ah *AuthHandler) Logout(c *gin.Context) {
	refreshToken, _ := c.Cookie(RefreshCookieName)
	if err := ah.authService.Logout(c.Request.Context(), refreshToken); err != nil {
		ah.fail(c, err)
		return
	}
	ah.clearRefreshCookie(c)
	response.RespondOK(c, gin.H{"msg": []string{"Logged out."}})
}

func (ah *AuthHandler) fail(c *gin.Context, err error) {
	logInternal(c, ah.log, err)
	response.RespondMsg(c, err)
}

func (ah *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		RefreshCookieName,
		token,
		int(ah.authService.GetRefreshTTL().Seconds()),
		refreshCookiePath,
		ah.cookie.Domain,
		ah.cookie.Secure,
		true,
	)
}

func (ah *AuthHandler) clearRefreshCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(RefreshCookieName, "", -1, refreshCookiePath, ah.cookie.Domain, ah.cookie.Secure, true)
}
