package petfinder

import (
	"context"
	"html"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/petmatch/internal/domain/geo"
	"github.com/kailas-cloud/petmatch/internal/domain/listing"
	"github.com/kailas-cloud/petmatch/internal/domain/trait"
)

// Search runs an animal search. Trait filters map one-to-one onto directory
// query parameters; the radius is converted to whole miles.
func (c *Client) Search(ctx context.Context, q listing.Query) (listing.Result, error) {
	var resp animalsResponse
	if err := c.get(ctx, "search", "/animals", searchParams(q), &resp); err != nil {
		return listing.Result{}, err
	}

	out := listing.Result{
		Listings:   make([]listing.Listing, 0, len(resp.Animals)),
		TotalCount: resp.Pagination.TotalCount,
	}
	for i := range resp.Animals {
		out.Listings = append(out.Listings, toListing(&resp.Animals[i]))
	}
	return out, nil
}

func searchParams(q listing.Query) url.Values {
	v := url.Values{}
	for _, k := range trait.Keys {
		if val, ok := q.Filters[k]; ok && val != "" {
			v.Set(string(k), val)
		}
	}
	if q.Location != nil {
		v.Set("location", q.Location.String())
		if q.RadiusKm > 0 {
			v.Set("distance", strconv.Itoa(geo.KmToMiles(q.RadiusKm)))
		}
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.HasPhotos {
		v.Set("has_photos", "true")
	}
	return v
}

func toListing(a *animalDTO) listing.Listing {
	l := listing.Listing{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		Breed:          breedName(a.Breeds),
		Age:            a.Age,
		Gender:         a.Gender,
		Size:           a.Size,
		Coat:           deref(a.Coat),
		Color:          deref(a.Colors.Primary),
		Description:    strings.TrimSpace(html.UnescapeString(deref(a.Description))),
		OrganizationID: a.OrganizationID,
		URL:            a.URL,
		DistanceMiles:  a.Distance,
	}
	for _, p := range a.Photos {
		l.Photos = append(l.Photos, listing.Photo{Small: p.Small, Medium: p.Medium, Large: p.Large, Full: p.Full})
	}
	return l
}

func breedName(b breedsDTO) string {
	primary := deref(b.Primary)
	if secondary := deref(b.Secondary); secondary != "" && primary != "" {
		return primary + " / " + secondary
	}
	if b.Mixed && primary != "" {
		return primary + " Mix"
	}
	return primary
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
