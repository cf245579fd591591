package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// coordinatePrecision matches the DECIMAL(9,6) columns of the locations table
const coordinatePrecision = 1e6

// Coordinate is a point on the globe. Longitude comes first, as the geocoder reports it.
type Coordinate struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// NewCoordinate rounds both components to 6 decimal places
func NewCoordinate(lon, lat float64) Coordinate {
	return Coordinate{
		Lon: math.Round(lon*coordinatePrecision) / coordinatePrecision,
		Lat: math.Round(lat*coordinatePrecision) / coordinatePrecision,
	}
}

// Location is a cached geocoding result keyed by the verbatim address.
// Lon/Lat stay nil until the geocoder has resolved the address.
type Location struct {
	Address   string    `json:"address"`
	Lon       *float64  `json:"lon,omitempty"`
	Lat       *float64  `json:"lat,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Coordinate returns the cached point and whether both components are populated
func (l *Location) Coordinate() (Coordinate, bool) {
	if l == nil || l.Lon == nil || l.Lat == nil {
		return Coordinate{}, false
	}
	return Coordinate{Lon: *l.Lon, Lat: *l.Lat}, true
}

// SetCoordinate populates the coordinate fields in place
func (l *Location) SetCoordinate(c Coordinate) {
	lon, lat := c.Lon, c.Lat
	l.Lon = &lon
	l.Lat = &lat
}

// Placemark is a single candidate returned by the geocoder, most relevant first
type Placemark struct {
	// Pos is "longitude latitude", space separated
	Pos string `json:"pos"`
}

// ParsePosition parses a placemark position of the form "lon lat"
func ParsePosition(pos string) (Coordinate, error) {
	parts := strings.Fields(pos)
	if len(parts) != 2 {
		return Coordinate{}, fmt.Errorf("malformed position %q", pos)
	}

	lon, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("malformed longitude %q: %w", parts[0], err)
	}
	lat, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return Coordinate{}, fmt.Errorf("malformed latitude %q: %w", parts[1], err)
	}
	if lon < -180 || lon > 180 || lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("position %q out of range", pos)
	}

	return NewCoordinate(lon, lat), nil
}

// Coordinates maps addresses to their resolved points. Unresolved addresses are absent.
type Coordinates map[string]Coordinate

// Lookup returns the coordinate for an address
func (c Coordinates) Lookup(address string) (Coordinate, bool) {
	coord, ok := c[address]
	return coord, ok
}
