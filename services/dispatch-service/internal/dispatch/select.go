package dispatch

import "delivery-order-system/shared/pkg/geo"

// Candidate is an available transporter considered for an assignment.
type Candidate struct {
	UserID string
	Lat    float64
	Lng    float64
}

const avgSpeedKmh = 30.0

// Nearest picks the candidate closest to the pickup point within maxRadiusKm.
// The bool is false when nobody is in range.
func Nearest(candidates []Candidate, lat, lng, maxRadiusKm float64) (Candidate, float64, bool) {
	var best Candidate
	bestDist := maxRadiusKm
	found := false
	for _, c := range candidates {
		d := geo.DistanceKm(c.Lat, c.Lng, lat, lng)
		if d <= bestDist {
			best, bestDist, found = c, d, true
		}
	}
	return best, bestDist, found
}

// EtaMinutes estimates pickup arrival assuming city driving speed.
func EtaMinutes(distanceKm float64) int {
	m := int(distanceKm / avgSpeedKmh * 60)
	if m < 1 {
		m = 1
	}
	return m
}
