// Package geo computes great-circle distances between reported item
// locations.
package geo

import (
	"errors"
	"fmt"
	"math"
)

// EarthRadiusKm is the mean Earth radius used by the haversine formula.
const EarthRadiusKm = 6371.0

// ErrInvalidCoordinate is returned when a latitude or longitude is outside
// its valid range.
var ErrInvalidCoordinate = errors.New("invalid coordinate")

// Validate checks that lat is within [-90, 90] and lon within [-180, 180].
func Validate(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidCoordinate, lat)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidCoordinate, lon)
	}
	return nil
}

// Distance returns the great-circle distance in kilometers between two
// coordinates given in decimal degrees, using the haversine formula.
// It returns ErrInvalidCoordinate if either point is out of range.
func Distance(lat1, lon1, lat2, lon2 float64) (float64, error) {
	if err := Validate(lat1, lon1); err != nil {
		return 0, err
	}
	if err := Validate(lat2, lon2); err != nil {
		return 0, err
	}

	const degToRad = math.Pi / 180

	phi1 := lat1 * degToRad
	phi2 := lat2 * degToRad
	dPhi := (lat2 - lat1) * degToRad
	dLambda := (lon2 - lon1) * degToRad

	sinPhi := math.Sin(dPhi / 2)
	sinLambda := math.Sin(dLambda / 2)

	a := sinPhi*sinPhi + math.Cos(phi1)*math.Cos(phi2)*sinLambda*sinLambda

	// Clamp against floating-point drift so Asin never sees an argument
	// above 1 for near-antipodal points.
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(a))), nil
}
