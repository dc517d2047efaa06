package recurrence

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextDue(t *testing.T) {
	t.Parallel()

	now := date(2024, time.January, 15)

	tests := []struct {
		name      string
		pattern   Pattern
		anchor    time.Time
		startDate *time.Time
		want      time.Time
	}{
		{
			name:    "daily advances by one day",
			pattern: Pattern{Type: TypeDaily, Interval: 1},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 16),
		},
		{
			name:    "daily with interval",
			pattern: Pattern{Type: TypeDaily, Interval: 3},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 18),
		},
		{
			name:    "weekly advances by seven days",
			pattern: Pattern{Type: TypeWeekly, Interval: 1},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 22),
		},
		{
			name:    "weekly with interval",
			pattern: Pattern{Type: TypeWeekly, Interval: 2},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 29),
		},
		{
			name:    "monthly keeps day of month",
			pattern: Pattern{Type: TypeMonthly, Interval: 1},
			anchor:  date(2024, time.March, 15),
			want:    date(2024, time.April, 15),
		},
		{
			name:    "monthly clamps jan 31 to leap feb 29",
			pattern: Pattern{Type: TypeMonthly, Interval: 1},
			anchor:  date(2024, time.January, 31),
			want:    date(2024, time.February, 29),
		},
		{
			name:    "monthly clamps jan 31 to feb 28 outside leap years",
			pattern: Pattern{Type: TypeMonthly, Interval: 1},
			anchor:  date(2023, time.January, 31),
			want:    date(2023, time.February, 28),
		},
		{
			name:    "monthly clamps across the clamp month",
			pattern: Pattern{Type: TypeMonthly, Interval: 2},
			anchor:  date(2024, time.January, 31),
			want:    date(2024, time.March, 31),
		},
		{
			name:    "monthly with multi month interval",
			pattern: Pattern{Type: TypeMonthly, Interval: 3},
			anchor:  date(2024, time.January, 31),
			want:    date(2024, time.April, 30),
		},
		{
			name:    "time of day applied to occurrence",
			pattern: Pattern{Type: TypeDaily, Interval: 1, TimeOfDay: "09:30"},
			anchor:  date(2024, time.January, 15),
			want:    time.Date(2024, time.January, 16, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "anchor time of day discarded before advancing",
			pattern: Pattern{Type: TypeDaily, Interval: 1},
			anchor:  time.Date(2024, time.January, 15, 23, 45, 0, 0, time.UTC),
			want:    date(2024, time.January, 16),
		},
		{
			name:      "future start date wins over interval math",
			pattern:   Pattern{Type: TypeDaily, Interval: 1},
			anchor:    date(2024, time.January, 15),
			startDate: ptr(date(2024, time.February, 1)),
			want:      date(2024, time.February, 1),
		},
		{
			name:      "future start date carries time of day",
			pattern:   Pattern{Type: TypeWeekly, Interval: 1, TimeOfDay: "07:00"},
			anchor:    date(2024, time.January, 15),
			startDate: ptr(date(2024, time.February, 1)),
			want:      time.Date(2024, time.February, 1, 7, 0, 0, 0, time.UTC),
		},
		{
			name:      "past start date is ignored",
			pattern:   Pattern{Type: TypeDaily, Interval: 1},
			anchor:    date(2024, time.January, 15),
			startDate: ptr(date(2024, time.January, 1)),
			want:      date(2024, time.January, 16),
		},
		{
			name:    "zero interval treated as one",
			pattern: Pattern{Type: TypeDaily, Interval: 0},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 16),
		},
		{
			name:    "unknown type falls back to tomorrow",
			pattern: Pattern{Type: "yearly", Interval: 1},
			anchor:  date(2024, time.January, 15),
			want:    date(2024, time.January, 16),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := NextDue(tt.pattern, tt.anchor, now, tt.startDate)
			if !got.Equal(tt.want) {
				t.Errorf("NextDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPatternValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		pattern Pattern
		wantErr bool
	}{
		{name: "valid daily", pattern: Pattern{Type: TypeDaily, Interval: 1}},
		{name: "valid weekly with time", pattern: Pattern{Type: TypeWeekly, Interval: 2, TimeOfDay: "14:00"}},
		{name: "valid monthly", pattern: Pattern{Type: TypeMonthly, Interval: 12}},
		{name: "unknown type", pattern: Pattern{Type: "hourly", Interval: 1}, wantErr: true},
		{name: "zero interval", pattern: Pattern{Type: TypeDaily, Interval: 0}, wantErr: true},
		{name: "negative interval", pattern: Pattern{Type: TypeDaily, Interval: -2}, wantErr: true},
		{name: "garbage time of day", pattern: Pattern{Type: TypeDaily, Interval: 1, TimeOfDay: "noon"}, wantErr: true},
		{name: "out of range time of day", pattern: Pattern{Type: TypeDaily, Interval: 1, TimeOfDay: "25:00"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.pattern.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func ptr(t time.Time) *time.Time { return &t }
