package weather

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/kelvins/geocoder"
)

var errNoPlace = errors.New("no address for coordinates")

// geocoderMu guards the package-level API key of the geocoder library.
var geocoderMu sync.Mutex

// GeocoderResolver resolves place names through the Google Geocoding API.
type GeocoderResolver struct {
	apiKey string
}

// NewGeocoderResolver returns a resolver using apiKey.
func NewGeocoderResolver(apiKey string) *GeocoderResolver {
	return &GeocoderResolver{apiKey: apiKey}
}

// ResolvePlace returns the formatted address closest to lat/lon.
func (g *GeocoderResolver) ResolvePlace(ctx context.Context, lat, lon float64) (string, error) {
	type result struct {
		name string
		err  error
	}
	done := make(chan result, 1)

	go func() {
		geocoderMu.Lock()
		defer geocoderMu.Unlock()

		geocoder.ApiKey = g.apiKey
		addresses, err := geocoder.GeocodingReverse(geocoder.Location{Latitude: lat, Longitude: lon})
		if err != nil {
			done <- result{err: err}
			return
		}
		if len(addresses) == 0 {
			done <- result{err: errNoPlace}
			return
		}
		name := strings.TrimSpace(addresses[0].FormatAddress())
		if name == "" {
			done <- result{err: errNoPlace}
			return
		}
		done <- result{name: name}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r := <-done:
		return r.name, r.err
	}
}
