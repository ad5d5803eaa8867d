// Package geocode resolves coordinates to places via an external service.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Place is the reverse-geocoding result for a coordinate pair.
type Place struct {
	Country string `json:"country"`
	Address string `json:"address"`
}

// Geocoder reverse-geocodes coordinates. The provider is an external
// collaborator; callers treat failures as non-fatal and fall back to
// user-supplied values.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

// HTTPGeocoder calls a reverse-geocoding HTTP endpoint that answers
// {"country": ..., "address": ...} for ?lat=&lng= queries.
type HTTPGeocoder struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPGeocoder creates a geocoder against the given endpoint.
func NewHTTPGeocoder(baseURL, apiKey string) *HTTPGeocoder {
	return &HTTPGeocoder{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

func (g *HTTPGeocoder) Reverse(ctx context.Context, lat, lng float64) (*Place, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lng, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if g.apiKey != "" {
		req.Header.Set("Authorization", "KakaoAK "+g.apiKey)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var place Place
	if err := json.NewDecoder(resp.Body).Decode(&place); err != nil {
		return nil, err
	}
	return &place, nil
}
