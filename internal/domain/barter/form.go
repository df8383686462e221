package barter

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Form is the client-supplied listing payload ("formData"). Every field is
// optional so the same shape serves create and partial update.
type Form struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	WillTradeFor  *string  `json:"will_trade_for"`
	IsFree        *bool    `json:"is_free"`
	Quantity      *float64 `json:"quantity"`
	QuantityUnits *string  `json:"quantity_units"`
	PostalCode    *string  `json:"postal_code"`
	Latitude      *float64 `json:"latitude"`
	Longitude     *float64 `json:"longitude"`
	CrossStreet1  *string  `json:"cross_street_1"`
	CrossStreet2  *string  `json:"cross_street_2"`

	Genus         *string `json:"genus"`
	Species       *string `json:"species"`
	CommonName    *string `json:"common_name"`
	YearPackaged  *int    `json:"year_packaged"`
	DatePlanted   *string `json:"date_planted"`
	DateHarvested *string `json:"date_harvested"`
	Dimensions    *string `json:"dimensions"`
}

// RequiredFields names the fields a create payload must carry.
var RequiredFields = []string{"title", "postal_code"}

// ApplyBase copies the shared listing fields that are present in f onto b.
func (f *Form) ApplyBase(b *Barter) {
	if f == nil || b == nil {
		return
	}
	if f.Title != nil {
		b.Title = strings.TrimSpace(*f.Title)
	}
	if f.Description != nil {
		b.Description = strings.TrimSpace(*f.Description)
	}
	if f.WillTradeFor != nil {
		b.WillTradeFor = strings.TrimSpace(*f.WillTradeFor)
	}
	if f.IsFree != nil {
		b.IsFree = *f.IsFree
	}
	if f.Quantity != nil {
		b.Quantity = math.Round(*f.Quantity*100) / 100
	}
	if f.QuantityUnits != nil {
		b.QuantityUnits = Unit(strings.ToUpper(strings.TrimSpace(*f.QuantityUnits)))
	}
	if f.PostalCode != nil {
		b.PostalCode = strings.TrimSpace(*f.PostalCode)
	}
	if f.Latitude != nil {
		v := *f.Latitude
		b.Latitude = &v
	}
	if f.Longitude != nil {
		v := *f.Longitude
		b.Longitude = &v
	}
	if f.CrossStreet1 != nil {
		b.CrossStreet1 = strings.TrimSpace(*f.CrossStreet1)
	}
	if f.CrossStreet2 != nil {
		b.CrossStreet2 = strings.TrimSpace(*f.CrossStreet2)
	}
}

func optString(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func parseDate(field string, raw *string) (*datatypes.Date, error) {
	s := optString(raw)
	if s == nil {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, fmt.Errorf("%s: Date has wrong format. Use YYYY-MM-DD.", field)
	}
	d := datatypes.Date(t)
	return &d, nil
}

// CheckTrade enforces that a listing which is not free names what it is
// traded for.
func CheckTrade(b *Barter) error {
	if b != nil && !b.IsFree && strings.TrimSpace(b.WillTradeFor) == "" {
		return ErrTradeMissing
	}
	return nil
}
