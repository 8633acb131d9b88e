package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHaversine(t *testing.T) {
	// Los Angeles to San Diego is roughly 180 km.
	d := Haversine(34.05, -118.24, 32.7157, -117.1611)
	assert.InDelta(t, 179_000, d, 3_000)

	assert.Zero(t, Haversine(10, 10, 10, 10))
}

func TestUnits(t *testing.T) {
	u, err := ParseUnit("mi")
	require.NoError(t, err)
	assert.InDelta(t, 160934, u.ToMeters(100), 0.001)
	assert.InDelta(t, 0.000621371, u.Multiplier(), 1e-12)

	u, err = ParseUnit("km")
	require.NoError(t, err)
	assert.InDelta(t, 100000, u.ToMeters(100), 0.001)

	_, err = ParseUnit("ft")
	assert.Error(t, err)
}

func TestParseLatLng(t *testing.T) {
	lat, lng, err := ParseLatLng("34.05,-118.24")
	require.NoError(t, err)
	assert.Equal(t, 34.05, lat)
	assert.Equal(t, -118.24, lng)

	for _, bad := range []string{"", "34.05", "a,b", "91,0", "0,181"} {
		_, _, err := ParseLatLng(bad)
		assert.Error(t, err, bad)
	}
}
