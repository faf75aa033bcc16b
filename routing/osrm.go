package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/theoremus-urban-solutions/location-hub/geo"
)

// OSRM is a Router backed by an OSRM-compatible HTTP routing service.
type OSRM struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewOSRM creates a router against baseURL. An empty profile means "driving".
func NewOSRM(baseURL, profile string, timeout time.Duration) *OSRM {
	if profile == "" {
		profile = "driving"
	}
	return &OSRM{
		baseURL:    strings.TrimRight(baseURL, "/"),
		profile:    profile,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type osrmResponse struct {
	Code   string      `json:"code"`
	Routes []osrmRoute `json:"routes"`
}

type osrmRoute struct {
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Geometry struct {
		Coordinates [][]float64 `json:"coordinates"`
	} `json:"geometry"`
}

// ComputeRoute requests the first route between from and to
func (o *OSRM) ComputeRoute(ctx context.Context, from, to geo.Position) *Path {
	p, err := o.fetch(ctx, from, to)
	if err != nil {
		log.Printf("failed to calculate route: %v", err)
		return nil
	}
	return p
}

func (o *OSRM) routeURL(from, to geo.Position) string {
	// OSRM takes lon,lat pairs
	return fmt.Sprintf("%s/route/v1/%s/%s,%s;%s,%s?overview=full&geometries=geojson",
		o.baseURL, o.profile,
		coord(from.Longitude), coord(from.Latitude), coord(to.Longitude), coord(to.Latitude))
}

// coord formats a coordinate without rounding
func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func (o *OSRM) fetch(ctx context.Context, from, to geo.Position) (*Path, error) {
	url := o.routeURL(from, to)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return nil, fmt.Errorf("no route (code %q)", body.Code)
	}

	r := body.Routes[0]
	points := make([]geo.Position, 0, len(r.Geometry.Coordinates))
	for _, c := range r.Geometry.Coordinates {
		if len(c) < 2 {
			continue
		}
		points = append(points, geo.New(c[1], c[0]))
	}
	return &Path{
		Points:         points,
		DistanceMeters: r.Distance,
		Duration:       time.Duration(r.Duration * float64(time.Second)),
	}, nil
}
