package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/platform/ctxutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

const maxProfileFieldLength = 150

// UserUpdate is the partial profile patch; nil fields are left alone.
type UserUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Username  *string `json:"username"`
}

type UserService interface {
	GetMe(dbc dbctx.Context) (*types.User, error)
	GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error)
	Update(ctx context.Context, userID uuid.UUID, in UserUpdate) (*types.User, error)
}

type userService struct {
	db       *gorm.DB
	log      *logger.Logger
	userRepo repos.UserRepo
}

func NewUserService(db *gorm.DB, log *logger.Logger, userRepo repos.UserRepo) UserService {
	serviceLog := log.With("service", "UserService")
	return &userService{
		db:       db,
		log:      serviceLog,
		userRepo: userRepo,
	}
}

func (us *userService) GetMe(dbc dbctx.Context) (*types.User, error) {
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil {
		us.log.Warn("Request data not set in context")
		return nil, fmt.Errorf("request data not set in context")
	}
	return us.GetByID(dbc, rd.UserID)
}

func (us *userService) GetByID(dbc dbctx.Context, userID uuid.UUID) (*types.User, error) {
	users, err := us.userRepo.GetByIDs(dbc, []uuid.UUID{userID})
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if len(users) == 0 {
		return nil, notFound(fmt.Sprintf("No user found with id %s.", userID))
	}
	return users[0], nil
}

// Update applies a partial profile patch. Only the user themself or staff
// may edit a profile.
func (us *userService) Update(ctx context.Context, userID uuid.UUID, in UserUpdate) (*types.User, error) {
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	if rd.UserID != userID && !rd.IsStaff {
		return nil, forbidden("")
	}

	updates := map[string]interface{}{}
	fields := []struct {
		column string
		value  *string
	}{
		{"first_name", in.FirstName},
		{"last_name", in.LastName},
		{"username", in.Username},
	}
	for _, f := range fields {
		if f.value == nil {
			continue
		}
		v := strings.TrimSpace(*f.value)
		if utf8.RuneCountInString(v) > maxProfileFieldLength {
			return nil, badRequestf("%s: Ensure this field has no more than %d characters.", f.column, maxProfileFieldLength)
		}
		updates[f.column] = v
	}

	var out *types.User
	err := us.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		u, err := us.GetByID(dbc, userID)
		if err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := us.userRepo.UpdateFields(dbc, userID, updates); err != nil {
				return fmt.Errorf("update user: %w", err)
			}
			u, err = us.GetByID(dbc, userID)
			if err != nil {
				return err
			}
		}
		out = u
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
