package barter

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	ErrTradeMissing = errors.New("Desired trade missing. An item must be traded for something if 'is_free' is false.")
	ErrTitleBlank   = errors.New("title: This field may not be blank.")
	ErrPostalBlank  = errors.New("postal_code: This field may not be blank.")
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func schema() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// Validate checks b against the shared schema and its category's rules.
// It returns every violation, base fields first.
func Validate(c *Category, b *Barter, now time.Time) []string {
	var msgs []string
	if strings.TrimSpace(b.Title) == "" {
		msgs = append(msgs, ErrTitleBlank.Error())
	}
	if strings.TrimSpace(b.PostalCode) == "" {
		msgs = append(msgs, ErrPostalBlank.Error())
	}
	if err := schema().Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Tag() == "required" && (fe.Field() == "title" || fe.Field() == "postal_code") {
					continue
				}
				msgs = append(msgs, describe(fe))
			}
		} else {
			msgs = append(msgs, err.Error())
		}
	}
	if c != nil {
		msgs = append(msgs, c.Check(b, now)...)
	}
	return msgs
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s: This field is required.", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s: Ensure this field has no more than %s characters.", field, fe.Param())
		}
		return fmt.Sprintf("%s: Ensure this value is less than or equal to %s.", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s: Ensure this value is less than or equal to %s.", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s: Ensure this value is greater than or equal to %s.", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s: %q is not a valid choice. Choices are %s.", field, fmt.Sprint(fe.Value()), strings.ReplaceAll(fe.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s: failed %s validation.", field, fe.Tag())
	}
}
