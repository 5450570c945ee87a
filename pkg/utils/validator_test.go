package utils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestValidateTripDates(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		wantErr bool
	}{
		{"valid range", "2025-12-01", "2025-12-05", false},
		{"same day", "2025-12-01", "2025-12-01", false},
		{"both empty", "", "", false},
		{"end before start", "2025-12-05", "2025-12-01", true},
		{"bad format", "01.12.2025", "2025-12-05", true},
		{"bad month", "2025-13-01", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTripDates(tt.start, tt.end)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTripDays(t *testing.T) {
	assert.Equal(t, 5, TripDays("2025-12-01", "2025-12-05"))
	assert.Equal(t, 1, TripDays("2025-12-01", "2025-12-01"))
	assert.Equal(t, 0, TripDays("2025-12-05", "2025-12-01"))
	assert.Equal(t, 0, TripDays("", "2025-12-01"))
}

func TestValidateCost(t *testing.T) {
	assert.NoError(t, ValidateCost(decimal.NewFromInt(80000)))
	assert.NoError(t, ValidateCost(decimal.Zero))
	assert.Error(t, ValidateCost(decimal.NewFromInt(-1)))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Conference\nday", SanitizeString("Confer\x00ence\nday"))
}
