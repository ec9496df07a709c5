package timeclock

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

func TestDistanceMeters(t *testing.T) {
	assert.InDelta(t, 0, DistanceMeters(23.0966, 113.2988, 23.0966, 113.2988), 0.001)
	// 赤道上经度相差 1 度约 111.2 公里
	assert.InDelta(t, 111195, DistanceMeters(0, 0, 0, 1), 50)
}

func TestWithinGeofence(t *testing.T) {
	fence := domain.Geofence{Enabled: true, Latitude: 0, Longitude: 0, RadiusMeters: 200}

	assert.True(t, WithinGeofence(fence, 0, 0.001))
	assert.False(t, WithinGeofence(fence, 0, 0.01))

	fence.Enabled = false
	assert.True(t, WithinGeofence(fence, 10, 10))
}
