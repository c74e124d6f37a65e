package validation

import (
	"math"
	"strings"
	"time"

	"carbon-registry/internal/domain"
)

// Finite rejects NaN and ±Inf.
func Finite(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return domain.Invalid(field, "must be a finite number")
	}
	return nil
}

// NonNegative rejects negative, NaN and infinite quantities.
func NonNegative(field string, v float64) error {
	if err := Finite(field, v); err != nil {
		return err
	}
	if v < 0 {
		return domain.Invalid(field, "must be non-negative, got %g", v)
	}
	return nil
}

// Percent accepts 0..100 inclusive.
func Percent(field string, v float64) error {
	if err := NonNegative(field, v); err != nil {
		return err
	}
	if v > 100 {
		return domain.Invalid(field, "must be between 0 and 100, got %g", v)
	}
	return nil
}

// MinInt rejects integers below min (e.g. a crediting period shorter than one year).
func MinInt(field string, v, min int) error {
	if v < min {
		return domain.Invalid(field, "must be at least %d, got %d", min, v)
	}
	return nil
}

// OneOf rejects values outside allowed.
func OneOf(field, v string, allowed ...string) error {
	for _, a := range allowed {
		if v == a {
			return nil
		}
	}
	return domain.Invalid(field, "must be one of %s, got %q", strings.Join(allowed, ", "), v)
}

// RecordDate accepts a YYYY-MM-DD calendar date.
func RecordDate(s string) error {
	if _, err := time.Parse(domain.RecordDateLayout, s); err != nil {
		return domain.Invalid("record_date", "must be a YYYY-MM-DD date, got %q", s)
	}
	return nil
}

// Required rejects blank strings.
func Required(field, v string) error {
	if strings.TrimSpace(v) == "" {
		return domain.Invalid(field, "is required")
	}
	return nil
}

// First returns the first non-nil error, so checks can be listed in field order.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
