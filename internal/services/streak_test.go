package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNextStreak(t *testing.T) {
	day := func(d int, hour int) time.Time {
		return time.Date(2025, time.March, d, hour, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		current    int
		lastActive *time.Time
		now        time.Time
		want       int
	}{
		{
			name:       "first ever activity starts at one",
			current:    0,
			lastActive: nil,
			now:        day(10, 12),
			want:       1,
		},
		{
			name:       "same day keeps streak",
			current:    5,
			lastActive: ptr(day(10, 9)),
			now:        day(10, 22),
			want:       5,
		},
		{
			name:       "same day repairs zero streak",
			current:    0,
			lastActive: ptr(day(10, 9)),
			now:        day(10, 22),
			want:       1,
		},
		{
			name:       "consecutive day increments",
			current:    5,
			lastActive: ptr(day(10, 23)),
			now:        day(11, 1),
			want:       6,
		},
		{
			name:       "two day gap resets",
			current:    5,
			lastActive: ptr(day(10, 12)),
			now:        day(12, 12),
			want:       1,
		},
		{
			name:       "long gap resets",
			current:    30,
			lastActive: ptr(day(1, 12)),
			now:        day(20, 12),
			want:       1,
		},
		{
			name:       "clock skew into the past resets",
			current:    4,
			lastActive: ptr(day(12, 12)),
			now:        day(10, 12),
			want:       1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextStreak(tt.current, tt.lastActive, tt.now)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNextStreakAcrossMidnight(t *testing.T) {
	// 23:59 one day, 00:01 the next: a boundary crossing of two minutes still
	// counts as a consecutive day.
	last := time.Date(2025, time.March, 10, 23, 59, 0, 0, time.UTC)
	now := time.Date(2025, time.March, 11, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 4, NextStreak(3, &last, now))
}
