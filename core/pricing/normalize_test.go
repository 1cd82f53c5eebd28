package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestNormalize(t *testing.T) {
	entries := []RawEntry{
		{Start: "2025-06-01T13:00:00Z", Price: f(0.30)},
		{Start: "2025-06-01T12:00:00Z", Price: f(0.25), SellPrice: f(0.20)},
	}
	points, err := Normalize(entries)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC), points[0].Start.UTC())
	assert.Equal(t, 0.25, points[0].BuyPrice)
	assert.Equal(t, 0.20, points[0].SellPrice)

	// sell price falls back to buy when absent
	assert.Equal(t, 0.30, points[1].BuyPrice)
	assert.Equal(t, 0.30, points[1].SellPrice)
}

func TestNormalizeHourValueAliases(t *testing.T) {
	entries := []RawEntry{
		{Hour: "2025-06-01T12:00:00+02:00", Value: f(0.15)},
	}
	points, err := Normalize(entries)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.15, points[0].BuyPrice)
}

func TestNormalizeSkipsMalformed(t *testing.T) {
	entries := []RawEntry{
		{Start: "not a timestamp", Price: f(0.25)},
		{Start: "2025-06-01T12:00:00Z"}, // no price
		{Start: "2025-06-01T13:00:00Z", Price: f(0.40)},
	}
	points, err := Normalize(entries)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, 0.40, points[0].BuyPrice)
}

func TestNormalizeAllMalformed(t *testing.T) {
	_, err := Normalize([]RawEntry{{Start: "bogus", Price: f(1)}})
	assert.Error(t, err)

	_, err = Normalize(nil)
	assert.Error(t, err)
}

func TestNormalizeClampsNegativeSell(t *testing.T) {
	points, err := Normalize([]RawEntry{
		{Start: "2025-06-01T12:00:00Z", Price: f(0.10), SellPrice: f(-0.05)},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, points[0].SellPrice)
}
