package booking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func ts(hour, min int) time.Time {
	return time.Date(2025, 1, 10, hour, min, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	testCases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical intervals", ts(10, 0), ts(11, 0), ts(10, 0), ts(11, 0), true},
		{"partial overlap", ts(10, 0), ts(12, 0), ts(11, 0), ts(13, 0), true},
		{"contained interval", ts(10, 0), ts(13, 0), ts(11, 0), ts(12, 0), true},
		{"back to back, first then second", ts(10, 0), ts(11, 0), ts(11, 0), ts(12, 0), false},
		{"back to back, second then first", ts(11, 0), ts(12, 0), ts(10, 0), ts(11, 0), false},
		{"disjoint", ts(8, 0), ts(9, 0), ts(10, 0), ts(11, 0), false},
		{"one minute shared", ts(10, 0), ts(11, 1), ts(11, 0), ts(12, 0), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Overlaps(tc.s1, tc.e1, tc.s2, tc.e2))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, Overlaps(tc.s2, tc.e2, tc.s1, tc.e1))
		})
	}
}

func TestValidInterval(t *testing.T) {
	now := ts(9, 0)
	grace := 5 * time.Minute

	assert.True(t, ValidInterval(ts(10, 0), ts(11, 0), now, grace))
	assert.True(t, ValidInterval(ts(8, 56), ts(11, 0), now, grace), "within grace")
	assert.False(t, ValidInterval(ts(8, 54), ts(11, 0), now, grace), "beyond grace")
	assert.False(t, ValidInterval(ts(11, 0), ts(10, 0), now, grace), "end before start")
	assert.False(t, ValidInterval(ts(10, 0), ts(10, 0), now, grace), "zero length")
}

func TestTotalPrice(t *testing.T) {
	// 30 minutes at 0.30/min.
	assert.InDelta(t, 9.00, TotalPrice(ts(10, 0), ts(10, 30), 0.30), 0.001)
	// 90 minutes at 0.25/min.
	assert.InDelta(t, 22.50, TotalPrice(ts(10, 0), ts(11, 30), 0.25), 0.001)
	// Rounded to cents.
	assert.InDelta(t, 0.10, TotalPrice(ts(10, 0), ts(10, 1), 0.099), 0.001)
}
