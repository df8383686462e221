package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/gardenbarter-backend/internal/domain"
	"github.com/yungbote/gardenbarter-backend/internal/domain/barter"
)

// UniqueEmail keeps fixtures from colliding on a shared Postgres database.
func UniqueEmail(prefix string) string {
	return prefix + "+" + uuid.NewString()[:8] + "@example.com"
}

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, email string) *types.User {
	tb.Helper()
	u := &types.User{
		ID:        uuid.New(),
		MemberID:  uuid.New(),
		Email:     email,
		Password:  "pw",
		FirstName: "A",
		LastName:  "B",
		IsActive:  true,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedInbox(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID) *types.Inbox {
	tb.Helper()
	in := &types.Inbox{ID: uuid.New(), UserID: userID}
	if err := tx.WithContext(ctx).Create(in).Error; err != nil {
		tb.Fatalf("seed inbox: %v", err)
	}
	return in
}

func SeedBarter(tb testing.TB, ctx context.Context, tx *gorm.DB, creatorID uuid.UUID, t barter.Type, title string) *types.Barter {
	tb.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	b := &types.Barter{
		ID:            uuid.New(),
		CreatorID:     creatorID,
		BarterType:    t,
		Title:         title,
		WillTradeFor:  "seeds",
		Quantity:      barter.DefaultQuantity,
		QuantityUnits: barter.DefaultUnit,
		PostalCode:    "97214",
		DateCreated:   now,
		DateExpires:   now.Add(14 * 24 * time.Hour),
	}
	if err := tx.WithContext(ctx).Create(b).Error; err != nil {
		tb.Fatalf("seed barter: %v", err)
	}
	return b
}
