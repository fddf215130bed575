package commission_test

import (
	"testing"
	"time"

	"github.com/straye-as/commission-api/internal/commission"
	"github.com/stretchr/testify/assert"
)

func TestTenureMonths(t *testing.T) {
	date := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		hire time.Time
		now  time.Time
		want int
	}{
		{"same day", date(2024, 1, 10), date(2024, 1, 10), 0},
		{"one day short of a month", date(2024, 1, 10), date(2024, 2, 9), 0},
		{"exactly one month", date(2024, 1, 10), date(2024, 2, 10), 1},
		{"across a year boundary", date(2023, 11, 20), date(2024, 5, 19), 5},
		{"six full months", date(2023, 11, 20), date(2024, 5, 20), 6},
		{"month end clamps", date(2024, 1, 31), date(2024, 2, 29), 1},
		{"several years", date(2020, 3, 1), date(2024, 3, 1), 48},
		{"future hire date", date(2024, 9, 1), date(2024, 6, 1), -3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hire := tt.hire
			assert.Equal(t, tt.want, commission.TenureMonths(&hire, tt.now))
		})
	}

	t.Run("nil hire date", func(t *testing.T) {
		assert.Equal(t, 0, commission.TenureMonths(nil, time.Now()))
	})
}
