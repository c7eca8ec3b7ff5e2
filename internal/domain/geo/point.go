package geo

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/petmatch/internal/domain"
)

// MetersPerMile is the statute mile length.
const MetersPerMile = 1609.344

// Point is a WGS 84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Validate checks that the point lies within latitude/longitude bounds.
// The zero point is rejected: the directory treats it as "no location".
func (p Point) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) {
		return fmt.Errorf("%w: coordinates must be numbers", domain.ErrInvalidLocation)
	}
	if p.Lat < -90 || p.Lat > 90 {
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", domain.ErrInvalidLocation, p.Lat)
	}
	if p.Lng < -180 || p.Lng > 180 {
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", domain.ErrInvalidLocation, p.Lng)
	}
	if p.Lat == 0 && p.Lng == 0 {
		return fmt.Errorf("%w: location is required", domain.ErrInvalidLocation)
	}
	return nil
}

// String formats the point as "lat,lng", the form accepted by the directory.
func (p Point) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// KmToMiles converts a radius in kilometers to whole miles, rounding up so
// the searched area never shrinks. Minimum 1.
func KmToMiles(km float64) int {
	miles := int(math.Ceil(km * 1000 / MetersPerMile))
	if miles < 1 {
		return 1
	}
	return miles
}
