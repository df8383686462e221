package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	"github.com/yungbote/gardenbarter-backend/internal/data/repos/testutil"
	httpH "github.com/yungbote/gardenbarter-backend/internal/http/handlers"
	httpMW "github.com/yungbote/gardenbarter-backend/internal/http/middleware"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/services"
)

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

func newAPI(t *testing.T) *apiClient {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	userRepo := repos.NewUserRepo(db, log)
	tokenRepo := repos.NewUserTokenRepo(db, log)
	barterRepo := repos.NewBarterRepo(db, log)
	inboxRepo := repos.NewInboxRepo(db, log)
	convRepo := repos.NewConversationRepo(db, log)
	msgRepo := repos.NewMessageRepo(db, log)
	metrics := observability.New()

	auth := services.NewAuthService(db, log, userRepo, tokenRepo, inboxRepo, metrics, "router-secret", time.Minute, time.Hour)
	r := NewRouter(RouterConfig{
		Log:            log,
		Metrics:        metrics,
		AuthHandler:    httpH.NewAuthHandler(log, auth, httpH.CookieConfig{}),
		AuthMiddleware: httpMW.NewAuthMiddleware(log, auth),
		UserHandler:    httpH.NewUserHandler(log, services.NewUserService(db, log, userRepo)),
		BarterHandler: httpH.NewBarterHandler(log,
			services.NewBarterService(db, log, barterRepo, nil, metrics, services.DefaultBarterLifespan)),
		MessageHandler: httpH.NewMessageHandler(log,
			services.NewConversationService(db, log, userRepo, barterRepo, inboxRepo, convRepo, msgRepo, metrics)),
		HealthHandler: httpH.NewHealthHandler(db),
	})
	return &apiClient{t: t, r: r}
}

type call struct {
	method string
	path   string
	body   any
	bearer string
	cookie *http.Cookie
}

func (a *apiClient) do(c call) (*httptest.ResponseRecorder, map[string]any) {
	a.t.Helper()
	var buf bytes.Buffer
	if c.body != nil {
		if err := json.NewEncoder(&buf).Encode(c.body); err != nil {
			a.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(c.method, c.path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if c.bearer != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearer)
	}
	if c.cookie != nil {
		req.AddCookie(c.cookie)
	}
	rec := httptest.NewRecorder()
	a.r.ServeHTTP(rec, req)

	out := map[string]any{}
	if ct := rec.Header().Get("Content-Type"); len(ct) >= 16 && ct[:16] == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			a.t.Fatalf("%s %s: decode response: %v (%s)", c.method, c.path, err, rec.Body.String())
		}
	}
	return rec, out
}

type session struct {
	id      string
	access  string
	refresh *http.Cookie
}

func (a *apiClient) register(email string) session {
	a.t.Helper()
	rec, body := a.do(call{method: http.MethodPost, path: "/users/register", body: map[string]string{
		"email": email, "password": "pw-1234", "password2": "pw-1234",
	}})
	if rec.Code != http.StatusCreated {
		a.t.Fatalf("register: want=%d got=%d (%s)", http.StatusCreated, rec.Code, rec.Body.String())
	}
	user, _ := body["user"].(map[string]any)
	s := session{access: body["accessToken"].(string), id: user["id"].(string)}
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == httpH.RefreshCookieName {
			s.refresh = ck
		}
	}
	if s.refresh == nil {
		a.t.Fatalf("register: refresh cookie not set")
	}
	return s
}

func firstMessage(t *testing.T, body map[string]any, key string) string {
	t.Helper()
	list, ok := body[key].([]any)
	if !ok || len(list) == 0 {
		t.Fatalf("want %q list, got %v", key, body)
	}
	s, _ := list[0].(string)
	return s
}

func sameInstant(t *testing.T, a, b any) bool {
	t.Helper()
	as, _ := a.(string)
	bs, _ := b.(string)
	at, err := time.Parse(time.RFC3339Nano, as)
	if err != nil {
		t.Fatalf("parse %q: %v", as, err)
	}
	bt, err := time.Parse(time.RFC3339Nano, bs)
	if err != nil {
		t.Fatalf("parse %q: %v", bs, err)
	}
	return at.Equal(bt)
}

func TestHealthcheck(t *testing.T) {
	a := newAPI(t)
	rec, _ := a.do(call{method: http.MethodGet, path: "/healthcheck"})
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("healthcheck: code=%d body=%q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpMW.HeaderRequestID) == "" {
		t.Fatalf("request id header missing")
	}
}

func TestRefreshCookieAttributes(t *testing.T) {
	a := newAPI(t)
	s := a.register(testutil.UniqueEmail("cookie"))
	ck := s.refresh
	if !ck.HttpOnly || ck.Path != "/users" || ck.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie attributes: httpOnly=%v path=%q sameSite=%v", ck.HttpOnly, ck.Path, ck.SameSite)
	}
	if ck.MaxAge != int(time.Hour.Seconds()) {
		t.Fatalf("cookie max-age: want=%d got=%d", int(time.Hour.Seconds()), ck.MaxAge)
	}
}

func TestIdentityErrorsUseMsgShape(t *testing.T) {
	a := newAPI(t)

	rec, body := a.do(call{method: http.MethodGet, path: "/users/me"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("no bearer: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}
	if got := firstMessage(t, body, "msg"); got != "Authentication credentials were not provided." {
		t.Fatalf("no bearer message: got=%q", got)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/users/me", bearer: "not-a-jwt"})
	if rec.Code != http.StatusForbidden || firstMessage(t, body, "msg") != "Invalid access token" {
		t.Fatalf("bad bearer: code=%d body=%v", rec.Code, body)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/users/token"})
	if rec.Code != http.StatusUnauthorized || firstMessage(t, body, "msg") != "Missing refresh token" {
		t.Fatalf("token without cookie: code=%d body=%v", rec.Code, body)
	}

	rec, body = a.do(call{method: http.MethodPost, path: "/users/register", body: map[string]string{
		"email": testutil.UniqueEmail("mm"), "password": "a", "password2": "b",
	}})
	if rec.Code != http.StatusBadRequest || firstMessage(t, body, "msg") != "Passwords don't match" {
		t.Fatalf("mismatch: code=%d body=%v", rec.Code, body)
	}
}

func TestTokenRotationOverHTTP(t *testing.T) {
	a := newAPI(t)
	s := a.register(testutil.UniqueEmail("rotate"))

	rec, body := a.do(call{method: http.MethodGet, path: "/users/me", bearer: s.access})
	if rec.Code != http.StatusOK {
		t.Fatalf("me: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if user, _ := body["user"].(map[string]any); user["id"] != s.id {
		t.Fatalf("me: want id %s got %v", s.id, body)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/users/token", cookie: s.refresh})
	if rec.Code != http.StatusOK || body["accessToken"] == "" {
		t.Fatalf("token: code=%d body=%v", rec.Code, body)
	}

	rec, _ = a.do(call{method: http.MethodGet, path: "/users/token", cookie: s.refresh})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("reused refresh cookie: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}

	rec, _ = a.do(call{method: http.MethodPost, path: "/users/logout"})
	if rec.Code != http.StatusOK {
		t.Fatalf("logout without cookie: want=%d got=%d", http.StatusOK, rec.Code)
	}
}

func TestBarterLifecycleOverHTTP(t *testing.T) {
	a := newAPI(t)
	owner := a.register(testutil.UniqueEmail("owner"))
	other := a.register(testutil.UniqueEmail("other"))

	create := map[string]any{
		"userData":   map[string]string{"id": owner.id},
		"barterType": "seed",
		"formData": map[string]any{
			"title":          "Cherokee Purple seeds",
			"will_trade_for": "basil starts",
			"postal_code":    "97214",
		},
	}
	rec, _ := a.do(call{method: http.MethodPost, path: "/barters/create", body: create})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous create: want=%d got=%d", http.StatusUnauthorized, rec.Code)
	}

	rec, body := a.do(call{method: http.MethodPost, path: "/barters/create", body: create, bearer: owner.access})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: want=%d got=%d (%s)", http.StatusCreated, rec.Code, rec.Body.String())
	}
	created, _ := body["barter"].(map[string]any)
	id, _ := created["id"].(string)
	if id == "" || created["is_expired"] != false {
		t.Fatalf("create body: %v", body)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/barters/seed/" + id + "/"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve one: want=%d got=%d", http.StatusOK, rec.Code)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/barters/"})
	if rec.Code != http.StatusOK {
		t.Fatalf("retrieve all: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if list, _ := body["barters"].([]any); len(list) != 1 {
		t.Fatalf("retrieve all: want 1 got %v", body["barters"])
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/barters/gizmo/"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unknown type: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	firstMessage(t, body, "errors")

	missing := "00000000-0000-0000-0000-000000000001"
	rec, body = a.do(call{method: http.MethodGet, path: "/barters/plant/" + missing + "/"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing barter: want=%d got=%d", http.StatusNotFound, rec.Code)
	}
	if got := firstMessage(t, body, "errors"); got != "No barter found of type 'plant' with id "+missing+"." {
		t.Fatalf("missing barter message: got=%q", got)
	}

	update := map[string]any{"title": "Cherokee Purple tomato seeds"}
	rec, _ = a.do(call{method: http.MethodPost, path: "/barters/update/seed/" + id + "/", body: update, bearer: other.access})
	if rec.Code != http.StatusForbidden {
		t.Fatalf("non-owner update: want=%d got=%d", http.StatusForbidden, rec.Code)
	}
	rec, body = a.do(call{method: http.MethodPost, path: "/barters/update/seed/" + id + "/", body: update, bearer: owner.access})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("update: want=%d got=%d (%s)", http.StatusAccepted, rec.Code, rec.Body.String())
	}
	updated, _ := body["barter"].(map[string]any)
	if updated["title"] != "Cherokee Purple tomato seeds" || !sameInstant(t, updated["date_expires"], created["date_expires"]) {
		t.Fatalf("update body: %v", updated)
	}

	rec, body = a.do(call{method: http.MethodPost, path: "/barters/delete/seed/" + id + "/", bearer: owner.access})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("delete: want=%d got=%d", http.StatusAccepted, rec.Code)
	}
	if deleted, _ := body["barter"].(map[string]any); deleted["is_expired"] != true {
		t.Fatalf("delete must expire: %v", body)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/barters/seed/?active=true"})
	if list, _ := body["barters"].([]any); rec.Code != http.StatusOK || len(list) != 0 {
		t.Fatalf("active filter: code=%d body=%v", rec.Code, body)
	}
}

func TestMessagingOverHTTP(t *testing.T) {
	a := newAPI(t)
	owner := a.register(testutil.UniqueEmail("owner"))
	buyer := a.register(testutil.UniqueEmail("buyer"))

	rec, body := a.do(call{method: http.MethodPost, path: "/barters/create", bearer: owner.access, body: map[string]any{
		"userData":   map[string]string{"id": owner.id},
		"barterType": "tool",
		"formData":   map[string]any{"title": "Hori hori", "is_free": true, "postal_code": "97214"},
	}})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create barter: want=%d got=%d (%s)", http.StatusCreated, rec.Code, rec.Body.String())
	}
	barterID := body["barter"].(map[string]any)["id"].(string)

	findPath := "/messages/conversations/find?barterType=tool&barterId=" + barterID +
		"&senderId=" + buyer.id + "&recipientId=" + owner.id
	rec, body = a.do(call{method: http.MethodGet, path: findPath, bearer: buyer.access})
	if rec.Code != http.StatusNotFound || body["message"] != "No conversation found." {
		t.Fatalf("find before send: code=%d body=%v", rec.Code, body)
	}

	msg := map[string]any{
		"senderId":    buyer.id,
		"recipientId": owner.id,
		"barterId":    barterID,
		"barterType":  "tool",
		"formData":    map[string]string{"body": "Still available?"},
	}
	rec, body = a.do(call{method: http.MethodPost, path: "/messages/create", body: msg, bearer: buyer.access})
	if rec.Code != http.StatusCreated || body["message"] != "Message created!" {
		t.Fatalf("create message: code=%d body=%v", rec.Code, body)
	}
	convID, _ := body["conversation_id"].(string)

	rec, body = a.do(call{method: http.MethodGet, path: findPath, bearer: owner.access})
	if rec.Code != http.StatusOK || body["message"] != "Conversation found." {
		t.Fatalf("find after send: code=%d body=%v", rec.Code, body)
	}

	rec, _ = a.do(call{method: http.MethodPost, path: "/messages/conversations/" + convID + "/reply",
		body: map[string]any{"formData": map[string]string{"body": "Yes!"}}, bearer: owner.access})
	if rec.Code != http.StatusCreated {
		t.Fatalf("reply: want=%d got=%d", http.StatusCreated, rec.Code)
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/messages/conversations/" + convID, bearer: buyer.access})
	if rec.Code != http.StatusOK {
		t.Fatalf("thread: want=%d got=%d", http.StatusOK, rec.Code)
	}
	conv, _ := body["conversation"].(map[string]any)
	if msgs, _ := conv["messages"].([]any); len(msgs) != 2 {
		t.Fatalf("thread: want 2 messages got %v", conv["messages"])
	}

	rec, body = a.do(call{method: http.MethodGet, path: "/messages/inbox", bearer: owner.access})
	if rec.Code != http.StatusOK {
		t.Fatalf("inbox: want=%d got=%d", http.StatusOK, rec.Code)
	}
	inbox, _ := body["inbox"].(map[string]any)
	if convs, _ := inbox["conversations"].([]any); len(convs) != 1 {
		t.Fatalf("owner inbox: want 1 conversation got %v", inbox["conversations"])
	}

	msg["senderId"] = owner.id
	rec, body = a.do(call{method: http.MethodPost, path: "/messages/create", body: msg, bearer: buyer.access})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("self message: want=%d got=%d", http.StatusBadRequest, rec.Code)
	}
	firstMessage(t, body, "errors")
}

func TestMetricsEndpoint(t *testing.T) {
	a := newAPI(t)
	a.do(call{method: http.MethodGet, path: "/healthcheck"})
	rec, _ := a.do(call{method: http.MethodGet, path: "/metrics"})
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics: want=%d got=%d", http.StatusOK, rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`gb_api_requests_total{method="GET",route="/healthcheck",status="200"} 1`)) {
		t.Fatalf("metrics: healthcheck request not counted")
	}
}
