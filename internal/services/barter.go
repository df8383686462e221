package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/yungbote/gardenbarter-backend/internal/data/repos"
	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
	"github.com/yungbote/gardenbarter-backend/internal/observability"
	"github.com/yungbote/gardenbarter-backend/internal/platform/ctxutil"
	"github.com/yungbote/gardenbarter-backend/internal/platform/dbctx"
	"github.com/yungbote/gardenbarter-backend/internal/platform/logger"
)

const DefaultBarterLifespan = 14 * 24 * time.Hour

// BarterCache is the optional read-through cache in front of listing reads.
type BarterCache interface {
	Get(ctx context.Context, scope string, dst interface{}) (bool, error)
	Set(ctx context.Context, scope string, v interface{}) error
	Invalidate(ctx context.Context) error
}

// UserData identifies the caller inside a create payload.
type UserData struct {
	ID string `json:"id"`
}

// BarterCreateInput mirrors the create request body. Pointers distinguish
// an absent object from an empty one.
type BarterCreateInput struct {
	UserData   *UserData    `json:"userData"`
	FormData   *barter.Form `json:"formData"`
	BarterType string       `json:"barterType"`
}

// Retrieval is the result of a listing read: Barter for a single lookup,
// Barters otherwise.
type Retrieval struct {
	Barter  map[string]interface{}
	Barters []interface{}
}

type BarterService interface {
	Create(ctx context.Context, in BarterCreateInput) (map[string]interface{}, error)
	Retrieve(ctx context.Context, barterType, barterID string, activeOnly bool) (*Retrieval, error)
	Update(ctx context.Context, barterType, barterID string, form *barter.Form) (map[string]interface{}, error)
	Delete(ctx context.Context, barterType, barterID string) (map[string]interface{}, error)
}

type barterService struct {
	db         *gorm.DB
	log        *logger.Logger
	barterRepo repos.BarterRepo
	cache      BarterCache
	metrics    *observability.Metrics
	lifespan   time.Duration
	group      singleflight.Group
	now        func() time.Time
}

func NewBarterService(
	db *gorm.DB,
	log *logger.Logger,
	barterRepo repos.BarterRepo,
	cache BarterCache,
	metrics *observability.Metrics,
	lifespan time.Duration,
) BarterService {
	if lifespan <= 0 {
		lifespan = DefaultBarterLifespan
	}
	return &barterService{
		db:         db,
		log:        log.With("service", "BarterService"),
		barterRepo: barterRepo,
		cache:      cache,
		metrics:    metrics,
		lifespan:   lifespan,
		now:        func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

func invalidBarterType(key string) error {
	return badRequestf("Invalid barterType '%s'. Choices are %s", key, barter.KeyList())
}

func barterNotFound(key, id string) error {
	return notFound(fmt.Sprintf("No barter found of type '%s' with id %s.", key, id))
}

func (s *barterService) Create(ctx context.Context, in BarterCreateInput) (map[string]interface{}, error) {
	ctx, span := observability.StartSpan(ctx, "barter.create", attribute.String("barter_type", in.BarterType))
	defer span.End()

	if in.FormData == nil {
		return nil, badRequestf("Missing 'formData' object. Required form fields: %s", strings.Join(barter.RequiredFields, ", "))
	}
	key := strings.TrimSpace(in.BarterType)
	if key == "" {
		return nil, badRequestf("Missing property 'barterType'. Choices are %s", barter.KeyList())
	}
	if in.UserData == nil {
		return nil, badRequest("Missing 'userData' object.")
	}
	cat, ok := barter.Lookup(key)
	if !ok {
		return nil, invalidBarterType(key)
	}
	rd := ctxutil.GetRequestData(ctx)
	if rd == nil {
		return nil, fmt.Errorf("request data not set in context")
	}
	ownerID, err := uuid.Parse(strings.TrimSpace(in.UserData.ID))
	if err != nil || ownerID != rd.UserID {
		return nil, forbidden("")
	}

	now := s.now()
	b := &types.Barter{
		Quantity:      barter.DefaultQuantity,
		QuantityUnits: barter.DefaultUnit,
	}
	in.FormData.ApplyBase(b)
	if err := barter.CheckTrade(b); err != nil {
		return nil, badRequest(err.Error())
	}
	if err := cat.Apply(b, in.FormData); err != nil {
		return nil, badRequest(err.Error())
	}
	if msgs := barter.Validate(cat, b, now); len(msgs) > 0 {
		return nil, validationList(msgs)
	}

	b.CreatorID = ownerID
	b.BarterType = cat.Key
	b.DateCreated = now
	b.DateUpdated = now
	b.DateExpires = now.Add(s.lifespan)

	if _, err := s.barterRepo.Create(dbctx.Of(ctx), []*types.Barter{b}); err != nil {
		if errors.Is(err, gorm.ErrCheckConstraintViolated) {
			return nil, badRequest(barter.ErrTradeMissing.Error())
		}
		s.log.Error("Create barter failed", "error", err, "creator_id", ownerID)
		return nil, fmt.Errorf("create barter: %w", err)
	}
	s.invalidate(ctx)
	s.metrics.IncBarterCreated(string(cat.Key))
	s.log.Info("Barter created", "barter_id", b.ID, "barter_type", cat.Key, "creator_id", ownerID)
	return barter.Detail(b, now), nil
}

func (s *barterService) Retrieve(ctx context.Context, barterType, barterID string, activeOnly bool) (*Retrieval, error) {
	key := strings.TrimSpace(barterType)
	now := s.now()

	if key == "" {
		rows, err := s.list(ctx, "all", repos.BarterListFilter{}, activeOnly, now)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, len(rows))
		for _, b := range rows {
			out = append(out, barter.NewSummary(b, now))
		}
		return &Retrieval{Barters: out}, nil
	}

	cat, ok := barter.Lookup(key)
	if !ok {
		return nil, invalidBarterType(key)
	}

	id := strings.TrimSpace(barterID)
	if id == "" {
		rows, err := s.list(ctx, "type:"+string(cat.Key), repos.BarterListFilter{Type: cat.Key}, activeOnly, now)
		if err != nil {
			return nil, err
		}
		out := make([]interface{}, 0, len(rows))
		for _, b := range rows {
			out = append(out, barter.Detail(b, now))
		}
		return &Retrieval{Barters: out}, nil
	}

	b, err := s.loadOne(ctx, cat.Key, id)
	if err != nil {
		return nil, err
	}
	if b == nil || (activeOnly && b.IsExpired(now)) {
		return nil, barterNotFound(string(cat.Key), id)
	}
	return &Retrieval{Barter: barter.Detail(b, now)}, nil
}

// list serves full listings through the cache. Active-only listings depend
// on the clock, so they are filtered in SQL and never cached.
func (s *barterService) list(ctx context.Context, scope string, f repos.BarterListFilter, activeOnly bool, now time.Time) ([]*types.Barter, error) {
	if !activeOnly {
		return s.loadList(ctx, scope, f)
	}
	f.ActiveAt = &now
	rows, err := s.barterRepo.List(dbctx.Of(ctx), f)
	if err != nil {
		s.log.Error("List active barters failed", "error", err, "scope", scope)
		return nil, fmt.Errorf("list barters: %w", err)
	}
	return rows, nil
}

func (s *barterService) loadList(ctx context.Context, scope string, f repos.BarterListFilter) ([]*types.Barter, error) {
	if rows, ok := s.cached(ctx, scope); ok {
		return rows, nil
	}
	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		rows, err := s.barterRepo.List(dbctx.Of(ctx), f)
		if err != nil {
			return nil, err
		}
		s.store(ctx, scope, rows)
		return rows, nil
	})
	if err != nil {
		s.log.Error("List barters failed", "error", err, "scope", scope)
		return nil, fmt.Errorf("list barters: %w", err)
	}
	return v.([]*types.Barter), nil
}

func (s *barterService) loadOne(ctx context.Context, t types.BarterType, rawID string) (*types.Barter, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, nil
	}
	scope := "one:" + string(t) + ":" + id.String()
	if rows, ok := s.cached(ctx, scope); ok && len(rows) == 1 {
		return rows[0], nil
	}
	v, err, _ := s.group.Do(scope, func() (interface{}, error) {
		b, err := s.barterRepo.GetByTypeAndID(dbctx.Of(ctx), t, id)
		if err != nil {
			return nil, err
		}
		if b != nil {
			s.store(ctx, scope, []*types.Barter{b})
		}
		return b, nil
	})
	if err != nil {
		s.log.Error("Get barter failed", "error", err, "barter_id", id)
		return nil, fmt.Errorf("get barter: %w", err)
	}
	return v.(*types.Barter), nil
}

func (s *barterService) cached(ctx context.Context, scope string) ([]*types.Barter, bool) {
	if s.cache == nil {
		return nil, false
	}
	var rows []*types.Barter
	hit, err := s.cache.Get(ctx, scope, &rows)
	if err != nil {
		s.log.Warn("Barter cache read failed", "error", err, "scope", scope)
		return nil, false
	}
	s.metrics.IncCacheLookup(hit)
	return rows, hit
}

func (s *barterService) store(ctx context.Context, scope string, rows []*types.Barter) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, scope, rows); err != nil {
		s.log.Warn("Barter cache write failed", "error", err, "scope", scope)
	}
}

func (s *barterService) invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("Barter cache invalidate failed", "error", err)
	}
}

// loadOwned resolves a listing for a write and checks that the caller owns
// it or is staff.
func (s *barterService) loadOwned(dbc dbctx.Context, barterType, barterID string) (*barter.Category, *types.Barter, error) {
	key := strings.TrimSpace(barterType)
	cat, ok := barter.Lookup(key)
	if !ok {
		return nil, nil, invalidBarterType(key)
	}
	rd := ctxutil.GetRequestData(dbc.Ctx)
	if rd == nil {
		return nil, nil, fmt.Errorf("request data not set in context")
	}
	id, err := uuid.Parse(strings.TrimSpace(barterID))
	if err != nil {
		return nil, nil, barterNotFound(string(cat.Key), barterID)
	}
	b, err := s.barterRepo.GetByTypeAndID(dbc, cat.Key, id)
	if err != nil {
		return nil, nil, fmt.Errorf("load barter: %w", err)
	}
	if b == nil {
		return nil, nil, barterNotFound(string(cat.Key), barterID)
	}
	if !b.IsOwnedBy(rd.UserID) && !rd.IsStaff {
		return nil, nil, forbidden("")
	}
	return cat, b, nil
}

// Update patches the supplied fields. Category, creator and expiry are not
// client-settable and are never changed here.
func (s *barterService) Update(ctx context.Context, barterType, barterID string, form *barter.Form) (map[string]interface{}, error) {
	ctx, span := observability.StartSpan(ctx, "barter.update", attribute.String("barter_type", barterType))
	defer span.End()

	now := s.now()
	var out *types.Barter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		cat, b, err := s.loadOwned(dbc, barterType, barterID)
		if err != nil {
			return err
		}
		form.ApplyBase(b)
		if err := barter.CheckTrade(b); err != nil {
			return badRequest(err.Error())
		}
		if err := cat.Apply(b, form); err != nil {
			return badRequest(err.Error())
		}
		if msgs := barter.Validate(cat, b, now); len(msgs) > 0 {
			return validationList(msgs)
		}
		b.DateUpdated = now
		if err := s.barterRepo.Save(dbc, b); err != nil {
			return fmt.Errorf("save barter: %w", err)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return barter.Detail(out, now), nil
}

// Delete expires the listing now. The row and its conversations stay.
func (s *barterService) Delete(ctx context.Context, barterType, barterID string) (map[string]interface{}, error) {
	now := s.now()
	var out *types.Barter
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: tx}
		_, b, err := s.loadOwned(dbc, barterType, barterID)
		if err != nil {
			return err
		}
		changed, err := s.barterRepo.Expire(dbc, b.ID, now)
		if err != nil {
			return fmt.Errorf("expire barter: %w", err)
		}
		if changed {
			b.DateExpires = now
			b.DateUpdated = now
			s.metrics.IncBarterExpired()
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return barter.Detail(out, now), nil
}
