package menu

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 2024-01-01 was a Monday.
func dayOf(t *testing.T, loc *time.Location, offset int) time.Time {
	t.Helper()
	return time.Date(2024, time.January, 1+offset, 12, 0, 0, 0, loc)
}

func TestResolveTargetDayWeekdays(t *testing.T) {
	t.Parallel()

	names := []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}
	for i, want := range names {
		for _, fallback := range []bool{true, false} {
			got := ResolveTargetDay(dayOf(t, time.UTC, i), fallback)
			assert.Equal(t, want, got, "offset %d fallback %v", i, fallback)
		}
	}
}

func TestResolveTargetDayWeekend(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		offset   int
		fallback bool
		want     string
	}{
		{name: "saturday with fallback", offset: 5, fallback: true, want: "Monday"},
		{name: "sunday with fallback", offset: 6, fallback: true, want: "Monday"},
		{name: "saturday without fallback", offset: 5, fallback: false, want: "Saturday"},
		{name: "sunday without fallback", offset: 6, fallback: false, want: "Sunday"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ResolveTargetDay(dayOf(t, time.UTC, tt.offset), tt.fallback))
		})
	}
}

func TestResolveTargetDayUsesZone(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	// 02:00 UTC on a Tuesday is still Monday evening in New York.
	instant := time.Date(2024, time.January, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "Tuesday", ResolveTargetDay(instant, true))
	assert.Equal(t, "Monday", ResolveTargetDay(instant.In(ny), true))

	// 01:00 UTC on a Saturday is Friday evening in New York.
	friday := time.Date(2024, time.January, 6, 1, 0, 0, 0, time.UTC).In(ny)
	assert.Equal(t, "Friday", ResolveTargetDay(friday, true))
	assert.False(t, IsWeekend(friday))
}
