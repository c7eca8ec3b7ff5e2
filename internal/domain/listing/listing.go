// Package listing holds adoptable-animal records returned by the pet directory
// and the query used to fetch them.
package listing

import (
	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

// PlaceholderDescription is used when a listing has no description and none could be generated.
const PlaceholderDescription = "No description available."

// StatusAdoptable is the only listing status searched for.
const StatusAdoptable = "adoptable"

// Photo holds the URLs of one listing photo in the sizes the directory provides.
type Photo struct {
	Small  string `json:"small,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
	Full   string `json:"full,omitempty"`
}

// Best returns the most useful URL for analysis and display: medium first.
func (p Photo) Best() string {
	for _, u := range []string{p.Medium, p.Large, p.Full, p.Small} {
		if u != "" {
			return u
		}
	}
	return ""
}

// Listing is a single adoptable animal.
type Listing struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	Type             string   `json:"type,omitempty"`
	Breed            string   `json:"breed,omitempty"`
	Age              string   `json:"age,omitempty"`
	Gender           string   `json:"gender,omitempty"`
	Size             string   `json:"size,omitempty"`
	Coat             string   `json:"coat,omitempty"`
	Color            string   `json:"color,omitempty"`
	Description      string   `json:"description"`
	OrganizationID   string   `json:"organization_id,omitempty"`
	OrganizationName string   `json:"organization_name,omitempty"`
	URL              string   `json:"url,omitempty"`
	Photos           []Photo  `json:"photos,omitempty"`
	DistanceMiles    *float64 `json:"distance_miles,omitempty"`
	Enriched         bool     `json:"enriched"`
}

// PrimaryPhoto returns the URL of the first usable photo, or "".
func (l *Listing) PrimaryPhoto() string {
	for _, p := range l.Photos {
		if u := p.Best(); u != "" {
			return u
		}
	}
	return ""
}

// Result is one page of listings plus the directory-reported total.
// TotalCount is authoritative; Listings may be shorter (pagination).
type Result struct {
	Listings   []Listing
	TotalCount int
}

// Query is a single directory search. Built fresh for every request.
type Query struct {
	Filters   map[trait.Key]string
	Location  *geo.Point
	RadiusKm  float64
	Status    string
	Limit     int
	Page      int
	Sort      string
	HasPhotos bool
}
