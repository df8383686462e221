package barter

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/gardenbarter-backend/internal/domain/user"
)

type Type string

const (
	TypeSeed     Type = "seed"
	TypePlant    Type = "plant"
	TypeProduce  Type = "produce"
	TypeMaterial Type = "material"
	TypeTool     Type = "tool"
)

type Unit string

const (
	UnitPlant    Unit = "PL"
	UnitBunch    Unit = "BC"
	UnitCount    Unit = "CT"
	UnitPack     Unit = "PK"
	UnitOunce    Unit = "OZ"
	UnitPound    Unit = "LB"
	UnitCubicYd  Unit = "CY"
	UnitGallon   Unit = "GL"
	UnitPint     Unit = "PT"
	DefaultUnit       = UnitCount
)

// Units lists the quantity units in display order.
var Units = []Unit{UnitPlant, UnitBunch, UnitCount, UnitPack, UnitOunce, UnitPound, UnitCubicYd, UnitGallon, UnitPint}

const DefaultQuantity = 1.0

// Barter is one listing. All categories share the table; BarterType
// selects which of the nullable category columns are meaningful.
type Barter struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatorID  uuid.UUID `gorm:"type:uuid;not null;index;column:creator_id" json:"creator_id"`
	BarterType Type      `gorm:"column:barter_type;size:16;not null;index" json:"barter_type"`

	Creator *user.User `gorm:"constraint:OnDelete:CASCADE;foreignKey:CreatorID;references:ID" json:"-" validate:"-"`

	Title         string  `gorm:"column:title;size:255;not null" json:"title" validate:"required,max=255"`
	Description   string  `gorm:"column:description;size:1000" json:"description" validate:"max=1000"`
	WillTradeFor  string  `gorm:"column:will_trade_for;size:255" json:"will_trade_for" validate:"max=255"`
	IsFree        bool    `gorm:"column:is_free;not null" json:"is_free"`
	Quantity      float64 `gorm:"column:quantity;type:numeric(10,2);not null" json:"quantity" validate:"gte=0,lte=99999999.99"`
	QuantityUnits Unit    `gorm:"column:quantity_units;size:2;not null" json:"quantity_units" validate:"required,oneof=PL BC CT PK OZ LB CY GL PT"`

	PostalCode   string   `gorm:"column:postal_code;size:12;not null;index" json:"postal_code" validate:"required,max=12"`
	Latitude     *float64 `gorm:"column:latitude" json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude    *float64 `gorm:"column:longitude" json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	CrossStreet1 string   `gorm:"column:cross_street_1;size:255" json:"cross_street_1" validate:"max=255"`
	CrossStreet2 string   `gorm:"column:cross_street_2;size:255" json:"cross_street_2" validate:"max=255"`

	// seed, plant, produce
	Genus      *string `gorm:"column:genus;size:255" json:"genus,omitempty" validate:"omitempty,max=255"`
	Species    *string `gorm:"column:species;size:255" json:"species,omitempty" validate:"omitempty,max=255"`
	CommonName *string `gorm:"column:common_name;size:255" json:"common_name,omitempty" validate:"omitempty,max=255"`
	// seed
	YearPackaged *int `gorm:"column:year_packaged" json:"year_packaged,omitempty" validate:"omitempty,gte=0"`
	// plant
	DatePlanted *datatypes.Date `gorm:"column:date_planted" json:"date_planted,omitempty"`
	// produce
	DateHarvested *datatypes.Date `gorm:"column:date_harvested" json:"date_harvested,omitempty"`
	// tool: "Height x Width x Depth"
	Dimensions *string `gorm:"column:dimensions;size:64" json:"dimensions,omitempty" validate:"omitempty,max=64"`

	DateCreated time.Time `gorm:"column:date_created;not null;index" json:"date_created"`
	DateUpdated time.Time `gorm:"column:date_updated;not null;autoUpdateTime" json:"date_updated"`
	DateExpires time.Time `gorm:"column:date_expires;not null;index" json:"date_expires"`
}

func (Barter) TableName() string { return "barter" }

// IsExpired is derived, never stored. A listing stops being active at the
// instant it expires.
func (b *Barter) IsExpired(now time.Time) bool {
	return !now.Before(b.DateExpires)
}

// IsOwnedBy reports whether userID created the listing.
func (b *Barter) IsOwnedBy(userID uuid.UUID) bool {
	return b != nil && userID != uuid.Nil && b.CreatorID == userID
}
