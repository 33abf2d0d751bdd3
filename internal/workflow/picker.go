// Package workflow holds the step-indexed form machines that validate input
// incrementally and hand finished records to the order store.
package workflow

import (
	"context"
	"strings"

	"tadweer/internal/domain"
)

// LocationPicker is the map/geocoding collaborator. A location step is only
// satisfied once a pick resolved; ok=false means the user picked nothing.
type LocationPicker interface {
	PickLocation(ctx context.Context, query string) (domain.Location, bool)
}

// StaticPicker resolves queries against a fixed place table; the CLI and
// tests use it in place of a live geocoder.
type StaticPicker struct {
	Places map[string]domain.Location
}

// DefaultPicker covers the pilot cities.
func DefaultPicker() StaticPicker {
	return StaticPicker{Places: map[string]domain.Location{
		"muscat":  {Lat: 23.588, Lng: 58.3829, Address: "Muscat"},
		"salalah": {Lat: 17.0151, Lng: 54.0924, Address: "Salalah"},
		"sohar":   {Lat: 24.342, Lng: 56.7299, Address: "Sohar"},
		"nizwa":   {Lat: 22.9333, Lng: 57.5333, Address: "Nizwa"},
	}}
}

func (p StaticPicker) PickLocation(_ context.Context, query string) (domain.Location, bool) {
	loc, ok := p.Places[strings.ToLower(strings.TrimSpace(query))]
	return loc, ok
}
