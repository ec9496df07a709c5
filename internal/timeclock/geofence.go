package timeclock

import (
	"math"

	"github.com/sysu-ecnc-dev/punch-clock/backend/internal/domain"
)

const earthRadiusMeters = 6371000.0

// DistanceMeters 使用 haversine 公式计算两点间的球面距离
func DistanceMeters(lat1, lng1, lat2, lng2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLng := toRad(lng2 - lng1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}

// WithinGeofence 判断坐标是否在打卡范围内，未开启地理围栏时总是返回 true
func WithinGeofence(g domain.Geofence, lat, lng float64) bool {
	if !g.Enabled {
		return true
	}
	return DistanceMeters(g.Latitude, g.Longitude, lat, lng) <= g.RadiusMeters
}
