package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOperationOverlaps(t *testing.T) {
	op := Operation{
		StartDate: day(2025, 6, 10),
		EndDate:   day(2025, 6, 20),
	}

	cases := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected bool
	}{
		{"полностью внутри", day(2025, 6, 12), day(2025, 6, 15), true},
		{"накрывает целиком", day(2025, 6, 1), day(2025, 6, 30), true},
		{"пересекает начало", day(2025, 6, 5), day(2025, 6, 10), true},
		{"пересекает конец", day(2025, 6, 20), day(2025, 6, 25), true},
		{"совпадение в один день", day(2025, 6, 10), day(2025, 6, 10), true},
		{"заканчивается накануне", day(2025, 6, 1), day(2025, 6, 9), false},
		{"начинается назавтра", day(2025, 6, 21), day(2025, 6, 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, op.Overlaps(tc.start, tc.end))
		})
	}
}

func TestOperationOverlaps_IgnoresTimeOfDay(t *testing.T) {
	op := Operation{
		StartDate: time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, 6, 20, 1, 0, 0, 0, time.UTC),
	}

	// Сравнение идет по календарным датам
	assert.True(t, op.Overlaps(
		time.Date(2025, 6, 20, 22, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 25, 0, 0, 0, 0, time.UTC)))
}

func TestOperationDurationDays(t *testing.T) {
	op := Operation{
		StartDate: day(2025, 6, 10),
		EndDate:   day(2025, 6, 10),
	}
	assert.Equal(t, 1, op.DurationDays(), "Однодневная операция длится один день")

	op.EndDate = day(2025, 6, 20)
	assert.Equal(t, 11, op.DurationDays(), "Границы включительные")
}
