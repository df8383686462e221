package barter

import (
	"time"

	"github.com/google/uuid"
)

// Summary is the category-agnostic serialization used when listings of
// every category are returned together.
type Summary struct {
	ID            uuid.UUID `json:"id"`
	CreatorID     uuid.UUID `json:"creator_id"`
	BarterType    Type      `json:"barter_type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	WillTradeFor  string    `json:"will_trade_for"`
	IsFree        bool      `json:"is_free"`
	Quantity      float64   `json:"quantity"`
	QuantityUnits Unit      `json:"quantity_units"`
	PostalCode    string    `json:"postal_code"`
	Latitude      *float64  `json:"latitude"`
	Longitude     *float64  `json:"longitude"`
	CrossStreet1  string    `json:"cross_street_1"`
	CrossStreet2  string    `json:"cross_street_2"`
	DateCreated   time.Time `json:"date_created"`
	DateUpdated   time.Time `json:"date_updated"`
	DateExpires   time.Time `json:"date_expires"`
	IsExpired     bool      `json:"is_expired"`
}

func NewSummary(b *Barter, now time.Time) *Summary {
	if b == nil {
		return nil
	}
	return &Summary{
		ID:            b.ID,
		CreatorID:     b.CreatorID,
		BarterType:    b.BarterType,
		Title:         b.Title,
		Description:   b.Description,
		WillTradeFor:  b.WillTradeFor,
		IsFree:        b.IsFree,
		Quantity:      b.Quantity,
		QuantityUnits: b.QuantityUnits,
		PostalCode:    b.PostalCode,
		Latitude:      b.Latitude,
		Longitude:     b.Longitude,
		CrossStreet1:  b.CrossStreet1,
		CrossStreet2:  b.CrossStreet2,
		DateCreated:   b.DateCreated,
		DateUpdated:   b.DateUpdated,
		DateExpires:   b.DateExpires,
		IsExpired:     b.IsExpired(now),
	}
}

// Detail is the full serialization: the summary plus the columns owned by
// the listing's category.
func Detail(b *Barter, now time.Time) map[string]interface{} {
	if b == nil {
		return nil
	}
	s := NewSummary(b, now)
	out := map[string]interface{}{
		"id":             s.ID,
		"creator_id":     s.CreatorID,
		"barter_type":    s.BarterType,
		"title":          s.Title,
		"description":    s.Description,
		"will_trade_for": s.WillTradeFor,
		"is_free":        s.IsFree,
		"quantity":       s.Quantity,
		"quantity_units": s.QuantityUnits,
		"postal_code":    s.PostalCode,
		"latitude":       s.Latitude,
		"longitude":      s.Longitude,
		"cross_street_1": s.CrossStreet1,
		"cross_street_2": s.CrossStreet2,
		"date_created":   s.DateCreated,
		"date_updated":   s.DateUpdated,
		"date_expires":   s.DateExpires,
		"is_expired":     s.IsExpired,
	}
	if c, ok := categories[b.BarterType]; ok {
		for k, v := range c.Extras(b) {
			out[k] = v
		}
	}
	return out
}
