// Package airports expands human-friendly pool definitions (a country name,
// a city plus a travel radius) into IATA airport codes, using the public
// OurAirports datasets.
package airports

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	defaultAirportsURL  = "https://davidmegginson.github.io/ourairports-data/airports.csv"
	defaultCountriesURL = "https://davidmegginson.github.io/ourairports-data/countries.csv"

	// averageTrainSpeedKMH approximates ground travel when converting a
	// travel-time budget into a radius.
	averageTrainSpeedKMH = 80.0

	earthRadiusKM = 6371.0
)

// Airport is one row of the OurAirports dataset that carries an IATA code.
type Airport struct {
	IATA      string
	Name      string
	Country   string // ISO 3166-1 alpha-2
	Type      string // small_airport, medium_airport, large_airport, ...
	Lat       float64
	Lon       float64
	Scheduled bool
}

// Country is one row of the countries dataset.
type Country struct {
	Code string
	Name string
}

// Client fetches and caches the OurAirports datasets.
type Client struct {
	httpClient   *http.Client
	airportsURL  string
	countriesURL string

	mu        sync.Mutex
	airports  []Airport
	countries []Country
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithDataURLs overrides the dataset locations (used in tests).
func WithDataURLs(airportsURL, countriesURL string) Option {
	return func(c *Client) {
		c.airportsURL = airportsURL
		c.countriesURL = countriesURL
	}
}

// NewClient creates a dataset client.
func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 60 * time.Second},
		airportsURL:  defaultAirportsURL,
		countriesURL: defaultCountriesURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CountryAirports resolves a country (2-letter ISO code or partial name)
// and returns its IATA airports.
func (c *Client) CountryAirports(ctx context.Context, query string) (Country, []Airport, error) {
	country, err := c.resolveCountry(ctx, query)
	if err != nil {
		return Country{}, nil, err
	}

	airports, err := c.loadAirports(ctx)
	if err != nil {
		return Country{}, nil, err
	}

	var out []Airport
	for _, a := range airports {
		if a.Country == country.Code {
			out = append(out, a)
		}
	}
	zap.L().Debug("airports: resolved country",
		zap.String("code", country.Code),
		zap.Int("airports", len(out)),
	)
	return country, out, nil
}

// AirportsWithin returns large, scheduled-service airports reachable from a
// point within the given ground-travel time, assuming the average train
// speed.
func (c *Client) AirportsWithin(ctx context.Context, lat, lon float64, maxTravel time.Duration) ([]Airport, error) {
	airports, err := c.loadAirports(ctx)
	if err != nil {
		return nil, err
	}

	maxKM := averageTrainSpeedKMH * maxTravel.Hours()
	var out []Airport
	for _, a := range airports {
		if a.Type != "large_airport" || !a.Scheduled {
			continue
		}
		if haversineKM(lat, lon, a.Lat, a.Lon) <= maxKM {
			out = append(out, a)
		}
	}
	return out, nil
}

// resolveCountry matches a 2-letter code exactly, otherwise the first
// case-insensitive name match.
func (c *Client) resolveCountry(ctx context.Context, query string) (Country, error) {
	countries, err := c.loadCountries(ctx)
	if err != nil {
		return Country{}, err
	}

	query = strings.TrimSpace(query)
	if len(query) == 2 {
		code := strings.ToUpper(query)
		for _, country := range countries {
			if country.Code == code {
				return country, nil
			}
		}
	}
	for _, country := range countries {
		if strings.Contains(strings.ToLower(country.Name), strings.ToLower(query)) {
			return country, nil
		}
	}
	return Country{}, eris.Errorf("airports: no country matching %q", query)
}

func (c *Client) loadAirports(ctx context.Context) ([]Airport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.airports != nil {
		return c.airports, nil
	}

	rows, header, err := c.fetchCSV(ctx, c.airportsURL)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header)
	var airports []Airport
	for _, row := range rows {
		iata := field(row, col, "iata_code")
		if iata == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(field(row, col, "latitude_deg"), 64)
		lon, errLon := strconv.ParseFloat(field(row, col, "longitude_deg"), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		airports = append(airports, Airport{
			IATA:      iata,
			Name:      field(row, col, "name"),
			Country:   field(row, col, "iso_country"),
			Type:      field(row, col, "type"),
			Lat:       lat,
			Lon:       lon,
			Scheduled: strings.EqualFold(field(row, col, "scheduled_service"), "yes"),
		})
	}
	c.airports = airports
	return airports, nil
}

func (c *Client) loadCountries(ctx context.Context) ([]Country, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.countries != nil {
		return c.countries, nil
	}

	rows, header, err := c.fetchCSV(ctx, c.countriesURL)
	if err != nil {
		return nil, err
	}

	col := columnIndex(header)
	var countries []Country
	for _, row := range rows {
		code := field(row, col, "code")
		if code == "" {
			continue
		}
		countries = append(countries, Country{Code: code, Name: field(row, col, "name")})
	}
	c.countries = countries
	return countries, nil
}

func (c *Client) fetchCSV(ctx context.Context, url string) ([][]string, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, eris.Wrap(err, "airports: create request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "airports: fetch %s", url)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, nil, eris.Errorf("airports: fetch %s: status %d", url, resp.StatusCode)
	}

	r := csv.NewReader(resp.Body)
	r.FieldsPerRecord = -1 // dataset rows occasionally vary
	header, err := r.Read()
	if err != nil {
		return nil, nil, eris.Wrap(err, "airports: read csv header")
	}

	var rows [][]string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Skip unparseable rows instead of failing the whole dataset.
			continue
		}
		rows = append(rows, row)
	}
	return rows, header, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	return col
}

func field(row []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// haversineKM computes the great-circle distance between two points.
func haversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
