package barter

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// Category describes one listing category: which extra columns it owns and
// how those columns are read from a Form and checked.
type Category struct {
	Key    Type
	Label  string
	Fields []string

	check func(b *Barter, now time.Time) []string
}

type extraField struct {
	apply func(b *Barter, f *Form) error
	clear func(b *Barter)
	value func(b *Barter) interface{}
}

var extraFields = map[string]extraField{
	"genus": {
		apply: func(b *Barter, f *Form) error {
			if f.Genus != nil {
				b.Genus = optString(f.Genus)
			}
			return nil
		},
		clear: func(b *Barter) { b.Genus = nil },
		value: func(b *Barter) interface{} { return b.Genus },
	},
	"species": {
		apply: func(b *Barter, f *Form) error {
			if f.Species != nil {
				b.Species = optString(f.Species)
			}
			return nil
		},
		clear: func(b *Barter) { b.Species = nil },
		value: func(b *Barter) interface{} { return b.Species },
	},
	"common_name": {
		apply: func(b *Barter, f *Form) error {
			if f.CommonName != nil {
				b.CommonName = optString(f.CommonName)
			}
			return nil
		},
		clear: func(b *Barter) { b.CommonName = nil },
		value: func(b *Barter) interface{} { return b.CommonName },
	},
	"year_packaged": {
		apply: func(b *Barter, f *Form) error {
			if f.YearPackaged != nil {
				v := *f.YearPackaged
				b.YearPackaged = &v
			}
			return nil
		},
		clear: func(b *Barter) { b.YearPackaged = nil },
		value: func(b *Barter) interface{} { return b.YearPackaged },
	},
	"date_planted": {
		apply: func(b *Barter, f *Form) error {
			if f.DatePlanted == nil {
				return nil
			}
			d, err := parseDate("date_planted", f.DatePlanted)
			if err != nil {
				return err
			}
			b.DatePlanted = d
			return nil
		},
		clear: func(b *Barter) { b.DatePlanted = nil },
		value: func(b *Barter) interface{} { return formatDate(b.DatePlanted) },
	},
	"date_harvested": {
		apply: func(b *Barter, f *Form) error {
			if f.DateHarvested == nil {
				return nil
			}
			d, err := parseDate("date_harvested", f.DateHarvested)
			if err != nil {
				return err
			}
			b.DateHarvested = d
			return nil
		},
		clear: func(b *Barter) { b.DateHarvested = nil },
		value: func(b *Barter) interface{} { return formatDate(b.DateHarvested) },
	},
	"dimensions": {
		apply: func(b *Barter, f *Form) error {
			if f.Dimensions != nil {
				b.Dimensions = optString(f.Dimensions)
			}
			return nil
		},
		clear: func(b *Barter) { b.Dimensions = nil },
		value: func(b *Barter) interface{} { return b.Dimensions },
	},
}

var extraOrder = []string{"genus", "species", "common_name", "year_packaged", "date_planted", "date_harvested", "dimensions"}

func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	s := time.Time(*d).Format("2006-01-02")
	return &s
}

func notFuture(field string, d *datatypes.Date, now time.Time) []string {
	if d == nil {
		return nil
	}
	y, m, day := now.Date()
	today := time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	if time.Time(*d).After(today) {
		return []string{fmt.Sprintf("%s: Date cannot be in the future.", field)}
	}
	return nil
}

var categories map[Type]*Category
var categoryOrder = []Type{TypeSeed, TypePlant, TypeProduce, TypeMaterial, TypeTool}

func init() {
	taxonomy := []string{"genus", "species", "common_name"}
	categories = map[Type]*Category{
		TypeSeed: {
			Key:    TypeSeed,
			Label:  "Seed",
			Fields: append(append([]string{}, taxonomy...), "year_packaged"),
			check: func(b *Barter, now time.Time) []string {
				if b.YearPackaged != nil && *b.YearPackaged > now.Year() {
					return []string{fmt.Sprintf("year_packaged: Year cannot be later than %d.", now.Year())}
				}
				return nil
			},
		},
		TypePlant: {
			Key:    TypePlant,
			Label:  "Plant",
			Fields: append(append([]string{}, taxonomy...), "date_planted"),
			check: func(b *Barter, now time.Time) []string {
				return notFuture("date_planted", b.DatePlanted, now)
			},
		},
		TypeProduce: {
			Key:    TypeProduce,
			Label:  "Produce",
			Fields: append(append([]string{}, taxonomy...), "date_harvested"),
			check: func(b *Barter, now time.Time) []string {
				return notFuture("date_harvested", b.DateHarvested, now)
			},
		},
		TypeMaterial: {
			Key:   TypeMaterial,
			Label: "Material",
		},
		TypeTool: {
			Key:    TypeTool,
			Label:  "Tool",
			Fields: []string{"dimensions"},
		},
	}
}

// Lookup returns the category registered under key.
func Lookup(key string) (*Category, bool) {
	c, ok := categories[Type(strings.ToLower(strings.TrimSpace(key)))]
	return c, ok
}

// Keys lists the category keys in their canonical order.
func Keys() []Type {
	return append([]Type(nil), categoryOrder...)
}

// KeyList renders the keys for error messages.
func KeyList() string {
	parts := make([]string, 0, len(categoryOrder))
	for _, k := range categoryOrder {
		parts = append(parts, string(k))
	}
	return strings.Join(parts, ", ")
}

func (c *Category) owns(field string) bool {
	for _, f := range c.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// Apply copies the category-specific fields present in f onto b and
// nulls every extra column the category does not own.
func (c *Category) Apply(b *Barter, f *Form) error {
	if f != nil {
		for _, name := range c.Fields {
			if err := extraFields[name].apply(b, f); err != nil {
				return err
			}
		}
	}
	c.Scrub(b)
	return nil
}

func (c *Category) Scrub(b *Barter) {
	for _, name := range extraOrder {
		if !c.owns(name) {
			extraFields[name].clear(b)
		}
	}
}

// Check runs the category's own rules on a record.
func (c *Category) Check(b *Barter, now time.Time) []string {
	if c.check == nil {
		return nil
	}
	return c.check(b, now)
}

// Extras returns the category-specific columns of b keyed by field name.
func (c *Category) Extras(b *Barter) map[string]interface{} {
	out := make(map[string]interface{}, len(c.Fields))
	for _, name := range c.Fields {
		out[name] = extraFields[name].value(b)
	}
	return out
}
