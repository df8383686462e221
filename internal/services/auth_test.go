package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	"github.com/yungbote/gardenbarter-backend/internal/data/repos/testutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/apierr"
	"github.com/yungbote/gardenbarter-backend/internal/platform/ctxutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
)

const testSecret = "test-secret"

type fixture struct {
	db    *gorm.DB
	users repos.UserRepo
	toks  repos.UserTokenRepo
	inbox repos.InboxRepo
	auth  AuthService
}

func newFixture(t *testing.T, accessTTL time.Duration) *fixture {
	t.Helper()
	db := testutil.DB(t)
	log := testutil.Logger(t)
	f := &fixture{
		db:    db,
		users: repos.NewUserRepo(db, log),
		toks:  repos.NewUserTokenRepo(db, log),
		inbox: repos.NewInboxRepo(db, log),
	}
	f.auth = NewAuthService(db, log, f.users, f.toks, f.inbox, nil, testSecret, accessTTL, time.Hour)
	return f
}

func asUser(id uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: id})
}

func wantStatus(t *testing.T, err error, status int, msg string) {
	t.Helper()
	if err == nil {
		t.Fatalf("want error %d %q, got nil", status, msg)
	}
	if got := apierr.StatusOf(err); got != status {
		t.Fatalf("status: want=%d got=%d (%v)", status, got, err)
	}
	if msg != "" && err.Error() != msg {
		t.Fatalf("message: want=%q got=%q", msg, err.Error())
	}
}

// requirePostgres skips tests whose outcome depends on real row locking.
func requirePostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("TEST_POSTGRES_DSN") == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}
}

func TestRegisterPasswordMismatch(t *testing.T) {
	f := newFixture(t, time.Minute)
	_, _, err := f.auth.Register(context.Background(), testutil.UniqueEmail("a"), "p1", "p2")
	wantStatus(t, err, http.StatusBadRequest, "Passwords don't match")
	if !errors.Is(err, ErrPasswordMismatch) {
		t.Fatalf("errors.Is(ErrPasswordMismatch): want true")
	}
}

func TestRegisterCreatesUserInboxAndToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	email := testutil.UniqueEmail("Reg")

	u, pair, err := f.auth.Register(ctx, "  "+email+" ", "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Email != normalizeEmail(email) {
		t.Fatalf("email: want=%q got=%q", normalizeEmail(email), u.Email)
	}
	if u.Password == "pw" {
		t.Fatalf("password stored in clear")
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatalf("tokens missing: %+v", pair)
	}
	in, err := f.inbox.GetByUserID(dbctx.Of(ctx), u.ID)
	if err != nil || in == nil {
		t.Fatalf("inbox: err=%v in=%v", err, in)
	}
	stored, err := f.toks.GetByUserIDs(dbctx.Of(ctx), []uuid.UUID{u.ID})
	if err != nil || len(stored) != 1 || stored[0].RefreshToken != pair.RefreshToken {
		t.Fatalf("stored token: err=%v rows=%d", err, len(stored))
	}

	_, _, err = f.auth.Register(ctx, email, "pw", "pw")
	wantStatus(t, err, http.StatusBadRequest, "Email already registered")
}

func TestLoginReplacesRefreshToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	email := testutil.UniqueEmail("login")
	_, first, err := f.auth.Register(ctx, email, "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, _, err = f.auth.Login(ctx, email, "nope")
	wantStatus(t, err, http.StatusBadRequest, "Invalid email or password")

	u, second, err := f.auth.Login(ctx, email, "pw")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	reloaded, _ := f.users.GetByIDs(dbctx.Of(ctx), []uuid.UUID{u.ID})
	if len(reloaded) != 1 || reloaded[0].LastLogin == nil {
		t.Fatalf("last_login not stamped")
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatalf("login must issue a new refresh token")
	}
	_, err = f.auth.Refresh(ctx, first.RefreshToken)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("old refresh after login: want ErrUnknownToken got %v", err)
	}
}

func TestRefreshRotatesToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	_, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("rot"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = f.auth.Refresh(ctx, "")
	wantStatus(t, err, http.StatusUnauthorized, "Missing refresh token")

	next, err := f.auth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken || next.AccessToken == "" {
		t.Fatalf("refresh must rotate: %+v", next)
	}
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	wantStatus(t, err, http.StatusUnauthorized, "")
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("reuse: want ErrUnknownToken got %v", err)
	}
	if _, err := f.auth.Refresh(ctx, next.RefreshToken); err != nil {
		t.Fatalf("rotated token must work: %v", err)
	}
}

func TestRefreshInactiveUser(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	u, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("inactive"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := f.users.UpdateFields(dbctx.Of(ctx), u.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	wantStatus(t, err, http.StatusUnauthorized, "Refresh token does not belong to an active user.")

	rows, _ := f.toks.GetByUserIDs(dbctx.Of(ctx), []uuid.UUID{u.ID})
	if len(rows) != 0 {
		t.Fatalf("token row must be deleted, got %d", len(rows))
	}
}

func TestRefreshExpiredToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	auth := NewAuthService(f.db, testutil.Logger(t), f.users, f.toks, f.inbox, nil, testSecret, time.Minute, -time.Minute)
	u, pair, err := auth.Register(ctx, testutil.UniqueEmail("stale"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	wantStatus(t, err, http.StatusUnauthorized, "")
	if !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expired refresh: want ErrExpiredToken got %v", err)
	}
	rows, err := f.toks.GetByUserIDs(dbctx.Of(ctx), []uuid.UUID{u.ID})
	if err != nil {
		t.Fatalf("GetByUserIDs: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expired token row must be deleted, got %d", len(rows))
	}

	_, err = auth.Refresh(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("replay after expiry: want ErrUnknownToken got %v", err)
	}
}

func TestConcurrentRefreshRotatesOnce(t *testing.T) {
	requirePostgres(t)
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	_, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("race"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	errs := make([]error, 4)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.auth.Refresh(ctx, pair.RefreshToken)
		}(i)
	}
	wg.Wait()

	won := 0
	for i, err := range errs {
		switch {
		case err == nil:
			won++
		case !errors.Is(err, ErrUnknownToken):
			t.Fatalf("refresh #%d: want ErrUnknownToken got %v", i, err)
		}
	}
	if won != 1 {
		t.Fatalf("concurrent refresh: want exactly 1 success got %d", won)
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	_, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("out"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := f.auth.Logout(ctx, pair.RefreshToken); err != nil {
			t.Fatalf("Logout #%d: %v", i, err)
		}
	}
	_, err = f.auth.Refresh(ctx, pair.RefreshToken)
	if !errors.Is(err, ErrUnknownToken) {
		t.Fatalf("refresh after logout: want ErrUnknownToken got %v", err)
	}
}

func TestSetContextFromToken(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	u, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("authn"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	got, err := f.auth.SetContextFromToken(ctx, pair.AccessToken)
	if err != nil {
		t.Fatalf("SetContextFromToken: %v", err)
	}
	rd := ctxutil.GetRequestData(got)
	if rd == nil || rd.UserID != u.ID {
		t.Fatalf("request data: want user %s got %+v", u.ID, rd)
	}

	_, err = f.auth.SetContextFromToken(ctx, pair.RefreshToken)
	wantStatus(t, err, http.StatusForbidden, "Invalid access token")

	_, err = f.auth.SetContextFromToken(ctx, "garbage")
	wantStatus(t, err, http.StatusForbidden, "Invalid access token")

	if err := f.users.UpdateFields(dbctx.Of(ctx), u.ID, map[string]interface{}{"is_active": false}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	_, err = f.auth.SetContextFromToken(ctx, pair.AccessToken)
	wantStatus(t, err, http.StatusForbidden, "user is inactive")
}

func TestExpiredAccessToken(t *testing.T) {
	f := newFixture(t, -time.Minute)
	ctx := context.Background()
	_, pair, err := f.auth.Register(ctx, testutil.UniqueEmail("exp"), "pw", "pw")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, err = f.auth.SetContextFromToken(ctx, pair.AccessToken)
	wantStatus(t, err, http.StatusForbidden, "Access token expired")
}

func TestUserUpdateRequiresSelfOrStaff(t *testing.T) {
	f := newFixture(t, time.Minute)
	ctx := context.Background()
	svc := NewUserService(f.db, testutil.Logger(t), f.users)
	owner := testutil.SeedUser(t, ctx, f.db, testutil.UniqueEmail("owner"))
	other := testutil.SeedUser(t, ctx, f.db, testutil.UniqueEmail("other"))

	name := "  Rosa "
	_, err := svc.Update(asUser(other.ID), owner.ID, UserUpdate{FirstName: &name})
	wantStatus(t, err, http.StatusForbidden, "")

	u, err := svc.Update(asUser(owner.ID), owner.ID, UserUpdate{FirstName: &name})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if u.FirstName != "Rosa" || u.LastName != owner.LastName {
		t.Fatalf("partial update: got first=%q last=%q", u.FirstName, u.LastName)
	}

	long := strings.Repeat("é", maxProfileFieldLength+1)
	_, err = svc.Update(asUser(owner.ID), owner.ID, UserUpdate{FirstName: &long, LastName: &long, Username: &long})
	wantStatus(t, err, http.StatusBadRequest, "first_name: Ensure this field has no more than 150 characters.")
	_, err = svc.Update(asUser(owner.ID), owner.ID, UserUpdate{LastName: &long, Username: &long})
	wantStatus(t, err, http.StatusBadRequest, "last_name: Ensure this field has no more than 150 characters.")
	fits := strings.Repeat("é", maxProfileFieldLength)
	if _, err := svc.Update(asUser(owner.ID), owner.ID, UserUpdate{Username: &fits}); err != nil {
		t.Fatalf("150 runes must fit: %v", err)
	}

	staff := ctxutil.WithRequestData(ctx, &ctxutil.RequestData{UserID: other.ID, IsStaff: true})
	if _, err := svc.Update(staff, owner.ID, UserUpdate{}); err != nil {
		t.Fatalf("staff update: %v", err)
	}

	_, err = svc.GetByID(dbctx.Of(ctx), uuid.New())
	wantStatus(t, err, http.StatusNotFound, "")
}
