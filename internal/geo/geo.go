// Package geo provides the distance function used for geofence matching.
//
// DistanceKm is a flat-plane approximation: degrees of latitude and
// longitude are both scaled by 111 km. Longitude degrees actually shrink
// by cos(latitude), so east-west distances are overestimated by a factor
// of up to 1/cos(lat) away from the equator; below |lat| = 35 degrees the
// overestimate stays under ~22%. Existing stakeholder radius values were
// configured against this approximation, so it is kept as-is rather than
// replaced with a great-circle formula (which would change matching at
// area boundaries).
package geo

import "math"

const kmPerDegree = 111.0

func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := lat1 - lat2
	dLon := lon1 - lon2
	return math.Sqrt(dLat*dLat+dLon*dLon) * kmPerDegree
}

// WithinKm reports whether the two points are at most radiusKm apart.
// The boundary is inclusive.
func WithinKm(lat1, lon1, lat2, lon2, radiusKm float64) bool {
	return DistanceKm(lat1, lon1, lat2, lon2) <= radiusKm
}
