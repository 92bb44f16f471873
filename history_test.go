package kapytal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistoryLatestOnOrBefore(t *testing.T) {
	var h history
	h.set(MustParseDate("2024-03-01"), dec("10"))
	h.set(MustParseDate("2024-01-01"), dec("8")) // out-of-order insert
	h.set(MustParseDate("2024-06-01"), dec("12"))

	tests := []struct {
		on   string
		want string
		ok   bool
	}{
		{"2023-12-31", "", false},
		{"2024-01-01", "8", true},
		{"2024-02-15", "8", true},
		{"2024-03-01", "10", true},
		{"2024-05-31", "10", true},
		{"2030-01-01", "12", true},
	}
	for _, tt := range tests {
		value, ok := h.latest(MustParseDate(tt.on))
		assert.Equal(t, tt.ok, ok, tt.on)
		if ok {
			assert.True(t, value.Equal(dec(tt.want)), "latest(%s) = %s, want %s", tt.on, value, tt.want)
		}
	}
}

func TestHistoryUpsertAndDelete(t *testing.T) {
	var h history
	h.set(MustParseDate("2024-03-01"), dec("10"))
	h.set(MustParseDate("2024-03-01"), dec("11")) // overwrite, same day
	assert.Equal(t, 1, h.len())

	value, ok := h.latest(MustParseDate("2024-03-01"))
	assert.True(t, ok)
	assert.True(t, value.Equal(dec("11")))

	assert.False(t, h.delete(MustParseDate("2024-03-02")))
	assert.True(t, h.delete(MustParseDate("2024-03-01")))
	assert.Equal(t, 0, h.len())
}

func TestRangesBetweenClipsToWindow(t *testing.T) {
	buckets := Monthly.RangesBetween(MustParseDate("2024-01-15"), MustParseDate("2024-03-10"))
	if assert.Len(t, buckets, 3) {
		assert.Equal(t, MustParseDate("2024-01-15"), buckets[0].From)
		assert.Equal(t, MustParseDate("2024-01-31"), buckets[0].To)
		assert.Equal(t, MustParseDate("2024-02-01"), buckets[1].From)
		assert.Equal(t, MustParseDate("2024-02-29"), buckets[1].To)
		assert.Equal(t, MustParseDate("2024-03-01"), buckets[2].From)
		assert.Equal(t, MustParseDate("2024-03-10"), buckets[2].To)
	}
}
