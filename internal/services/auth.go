package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/apierr"
	"github.com/yungbote/gardenbarter-backend/internal/platform/ctxutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
)

type JWTClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	RefreshExpiresAt time.Time
}

type AuthService interface {
	Register(ctx context.Context, email, password, password2 string) (*types.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	GetAccessTTL() time.Duration
	GetRefreshTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	inboxRepo     repos.InboxRepo
	metrics       *observability.Metrics
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	inboxRepo repos.InboxRepo,
	metrics *observability.Metrics,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		inboxRepo:     inboxRepo,
		metrics:       metrics,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func identityError(status int, code string, sentinel error, msg string) *apierr.Error {
	return apierr.Wrap(status, code, sentinel, msg)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (as *authService) Register(ctx context.Context, email, password, password2 string) (*types.User, *TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, nil, identityError(http.StatusBadRequest, "validation_error", ErrValidation, "Email is required.")
	}
	if password == "" {
		return nil, nil, identityError(http.StatusBadRequest, "validation_error", ErrValidation, "Password is required.")
	}
	exists, err := as.userRepo.EmailExists(dbctx.Of(ctx), email)
	if err != nil {
		return nil, nil, fmt.Errorf("check email: %w", err)
	}
	if exists {
		return nil, nil, identityError(http.StatusBadRequest, "duplicate_email", ErrDuplicateEmail, "")
	}
	if password != password2 {
		return nil, nil, identityError(http.StatusBadRequest, "password_mismatch", ErrPasswordMismatch, "")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, fmt.Errorf("hash password: %w", err)
	}

	user := &types.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		if _, err := as.userRepo.Create(dbc, []*types.User{user}); err != nil {
			return err
		}
		if _, err := as.inboxRepo.Create(dbc, []*types.Inbox{{UserID: user.ID}}); err != nil {
			return fmt.Errorf("create inbox: %w", err)
		}
		p, err := as.issuePair(dbc, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, nil, identityError(http.StatusBadRequest, "duplicate_email", ErrDuplicateEmail, "")
		}
		as.log.Error("Register failed", "error", err)
		return nil, nil, fmt.Errorf("register user: %w", err)
	}
	as.log.Info("User registered", "user_id", user.ID)
	return user, pair, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, nil, identityError(http.StatusBadRequest, "invalid_credentials", ErrInvalidCredentials, "")
	}
	users, err := as.userRepo.GetByEmails(dbctx.Of(ctx), []string{email})
	if err != nil {
		return nil, nil, fmt.Errorf("load user by email: %w", err)
	}
	if len(users) == 0 {
		return nil, nil, identityError(http.StatusBadRequest, "invalid_credentials", ErrInvalidCredentials, "")
	}
	user := users[0]
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, nil, identityError(http.StatusBadRequest, "invalid_credentials", ErrInvalidCredentials, "")
	}
	if !user.IsActive {
		return nil, nil, identityError(http.StatusForbidden, "user_inactive", ErrUserInactive, "")
	}

	var pair *TokenPair
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		p, err := as.issuePair(dbc, user)
		if err != nil {
			return err
		}
		if err := as.userRepo.TouchLastLogin(dbc, user.ID, as.now()); err != nil {
			return fmt.Errorf("stamp last login: %w", err)
		}
		pair = p
		return nil
	})
	if err != nil {
		as.log.Error("Login failed", "error", err, "user_id", user.ID)
		return nil, nil, fmt.Errorf("login user: %w", err)
	}
	return user, pair, nil
}

// issuePair signs a new access/refresh pair and replaces the user's single
// stored refresh token.
func (as *authService) issuePair(dbc dbctx.Context, user *types.User) (*TokenPair, error) {
	access, err := as.signToken(user.ID, tokenTypeAccess, as.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	refreshExpires := as.now().Add(as.refreshTTL)
	refresh, err := as.signToken(user.ID, tokenTypeRefresh, as.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}
	if err := as.userTokenRepo.Upsert(dbc, &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    refreshExpires,
	}); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, RefreshExpiresAt: refreshExpires}, nil
}

// Refresh exchanges a stored refresh token for a new pair. The swap is a
// single conditional UPDATE, so of two concurrent exchanges of the same
// token exactly one succeeds.
func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		as.metrics.IncTokenRefresh("missing")
		return nil, identityError(http.StatusUnauthorized, "missing_token", ErrMissingToken, "")
	}
	pair, outcome, err := as.refresh(dbctx.Of(ctx), refreshToken)
	as.metrics.IncTokenRefresh(outcome)
	if err != nil {
		if apierr.StatusOf(err) >= http.StatusInternalServerError {
			as.log.Error("Refresh failed", "error", err)
		}
		return nil, err
	}
	return pair, nil
}

func (as *authService) refresh(dbc dbctx.Context, refreshToken string) (*TokenPair, string, error) {
	unknown := identityError(http.StatusUnauthorized, "unknown_token", ErrUnknownToken, "")

	found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
	if err != nil {
		return nil, "error", fmt.Errorf("load refresh token: %w", err)
	}
	if len(found) == 0 {
		return nil, "unknown", unknown
	}
	stored := found[0]

	claims, perr := as.parseToken(refreshToken, tokenTypeRefresh)
	if perr != nil || !stored.ExpiresAt.After(as.now()) {
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{stored.ID}); err != nil {
			return nil, "error", fmt.Errorf("delete dead refresh token: %w", err)
		}
		if perr == nil || errors.Is(perr, jwt.ErrTokenExpired) {
			return nil, "expired", identityError(http.StatusUnauthorized, "expired_token", ErrExpiredToken, "")
		}
		return nil, "unknown", unknown
	}
	if claims.Subject != stored.UserID.String() {
		return nil, "unknown", unknown
	}

	users, err := as.userRepo.GetByIDs(dbc, []uuid.UUID{stored.UserID})
	if err != nil {
		return nil, "error", fmt.Errorf("load token owner: %w", err)
	}
	if len(users) == 0 || !users[0].IsActive {
		if err := as.userTokenRepo.FullDeleteByIDs(dbc, []uuid.UUID{stored.ID}); err != nil {
			return nil, "error", fmt.Errorf("delete orphan refresh token: %w", err)
		}
		return nil, "inactive", identityError(http.StatusUnauthorized, "unknown_token", ErrUnknownToken,
			"Refresh token does not belong to an active user.")
	}
	user := users[0]

	access, err := as.signToken(user.ID, tokenTypeAccess, as.accessTTL)
	if err != nil {
		return nil, "error", fmt.Errorf("sign access token: %w", err)
	}
	next, err := as.signToken(user.ID, tokenTypeRefresh, as.refreshTTL)
	if err != nil {
		return nil, "error", fmt.Errorf("sign refresh token: %w", err)
	}
	expiresAt := as.now().Add(as.refreshTTL)
	ok, err := as.userTokenRepo.Rotate(dbc, stored.ID, refreshToken, next, expiresAt)
	if err != nil {
		return nil, "error", fmt.Errorf("rotate refresh token: %w", err)
	}
	if !ok {
		return nil, "unknown", unknown
	}
	return &TokenPair{AccessToken: access, RefreshToken: next, RefreshExpiresAt: expiresAt}, "ok", nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil
	}
	dbc := dbctx.Of(ctx)
	found, err := as.userTokenRepo.GetByRefreshTokens(dbc, []string{refreshToken})
	if err != nil {
		return fmt.Errorf("load refresh token: %w", err)
	}
	if len(found) == 0 {
		return nil
	}
	if err := as.userTokenRepo.FullDeleteByUserIDs(dbc, []uuid.UUID{found[0].UserID}); err != nil {
		as.log.Warn("Error deleting user token", "error", err)
		return fmt.Errorf("delete user tokens: %w", err)
	}
	return nil
}

func (as *authService) signToken(userID uuid.UUID, typ string, ttl time.Duration) (string, error) {
	now := as.now()
	claims := JWTClaims{
		Type: typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) parseToken(tokenString, typ string) (*JWTClaims, error) {
	claims := &JWTClaims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, err
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	if claims.Type != typ {
		return nil, fmt.Errorf("wrong token type %q", claims.Type)
	}
	return claims, nil
}

// SetContextFromToken authenticates a bearer access token and attaches the
// caller identity to ctx.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	claims, err := as.parseToken(tokenString, tokenTypeAccess)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ctx, identityError(http.StatusForbidden, "token_expired", ErrTokenExpired, "")
		}
		return ctx, identityError(http.StatusForbidden, "invalid_token", ErrInvalidToken, "")
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, identityError(http.StatusForbidden, "invalid_token", ErrInvalidToken, "")
	}
	users, err := as.userRepo.GetByIDs(dbctx.Of(ctx), []uuid.UUID{userID})
	if err != nil {
		return ctx, fmt.Errorf("load token user: %w", err)
	}
	if len(users) == 0 {
		return ctx, identityError(http.StatusUnauthorized, "user_not_found", ErrUserNotFound, "")
	}
	if !users[0].IsActive {
		return ctx, identityError(http.StatusForbidden, "user_inactive", ErrUserInactive, "")
	}
	rd := &ctxutil.RequestData{
		TokenString: tokenString,
		UserID:      userID,
		IsStaff:     users[0].IsStaff,
	}
	return ctxutil.WithRequestData(ctx, rd), nil
}

func (as *authService) GetAccessTTL() time.Duration  { return as.accessTTL }
func (as *authService) GetRefreshTTL() time.Duration { return as.refreshTTL }
