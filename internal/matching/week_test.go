package matching

import (
	"testing"
	"time"
)

func TestWeekStart(t *testing.T) {
	cases := []struct {
		name string
		now  time.Time
		tz   string
		want time.Time
	}{
		{
			name: "midweek_utc",
			now:  time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC), // Wednesday
			tz:   "UTC",
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), // Monday
		},
		{
			name: "monday_is_its_own_week",
			now:  time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
			tz:   "UTC",
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "sunday_belongs_to_previous_monday",
			now:  time.Date(2026, 9, 6, 23, 59, 0, 0, time.UTC),
			tz:   "UTC",
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "bad_zone_falls_back_to_utc",
			now:  time.Date(2026, 9, 2, 15, 30, 0, 0, time.UTC),
			tz:   "Not/AZone",
			want: time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := WeekStart(tc.now, tc.tz)
			if !got.Equal(tc.want) {
				t.Fatalf("WeekStart = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWeekStartZoneBoundary(t *testing.T) {
	// Monday 03:00 UTC is still Sunday evening in New York; the New York
	// match week has not rolled over yet.
	now := time.Date(2026, 8, 31, 3, 0, 0, 0, time.UTC)
	got := WeekStart(now, "America/New_York")
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	want := time.Date(2026, 8, 24, 0, 0, 0, 0, loc)
	if !got.Equal(want) {
		t.Fatalf("WeekStart = %v, want %v", got, want)
	}
}
