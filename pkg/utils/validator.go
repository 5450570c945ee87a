package utils

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/jinzhu/now"
	"github.com/shopspring/decimal"
)

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ParseTripDate parses a YYYY-MM-DD date
func ParseTripDate(s string) (time.Time, error) {
	if !isoDate.MatchString(s) {
		return time.Time{}, fmt.Errorf("date must be YYYY-MM-DD: %q", s)
	}
	t, err := now.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// ValidateTripDates checks both dates and that the trip does not end before it starts.
// Empty dates are allowed.
func ValidateTripDates(start, end string) error {
	var startAt, endAt time.Time
	var err error
	if start != "" {
		if startAt, err = ParseTripDate(start); err != nil {
			return err
		}
	}
	if end != "" {
		if endAt, err = ParseTripDate(end); err != nil {
			return err
		}
	}
	if start != "" && end != "" && endAt.Before(startAt) {
		return fmt.Errorf("end date %s is before start date %s", end, start)
	}
	return nil
}

// TripDays returns the number of calendar days covered by the trip, or 0 if
// either date is missing or invalid.
func TripDays(start, end string) int {
	startAt, err := ParseTripDate(start)
	if err != nil {
		return 0
	}
	endAt, err := ParseTripDate(end)
	if err != nil || endAt.Before(startAt) {
		return 0
	}
	from := now.With(startAt).BeginningOfDay()
	to := now.With(endAt).BeginningOfDay()
	return int(math.Round(to.Sub(from).Hours()/24)) + 1
}

// ValidateCost validates a trip cost estimate
func ValidateCost(cost decimal.Decimal) error {
	if cost.IsNegative() {
		return fmt.Errorf("cost estimate must not be negative: %s", cost.String())
	}
	return nil
}

// SanitizeString removes control characters
func SanitizeString(s string) string {
	return regexp.MustCompile(`[\x00-\x08\x0b-\x1f\x7f]`).ReplaceAllString(s, "")
}
