package models

import (
	"fmt"
	"net/netip"
	"strconv"
	"strings"
)

// LookupQuery is a validated address taken from a single chat message
// It lives only as long as the handler that created it
type LookupQuery struct {
	Raw  string     // Token as the user typed it
	Addr netip.Addr // Canonical parsed form
}

// IP returns the canonical string form sent to the lookup service
func (q LookupQuery) IP() string {
	return q.Addr.String()
}

// LookupResult represents geolocation information returned by ipinfo.io
// JSON tags match the ipinfo.io response body
type LookupResult struct {
	IP       string `json:"ip"`
	Hostname string `json:"hostname,omitempty"`
	City     string `json:"city,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
	Loc      string `json:"loc,omitempty"` // "latitude,longitude"
	Org      string `json:"org,omitempty"`
	Postal   string `json:"postal,omitempty"`
	Timezone string `json:"timezone,omitempty"`
	Bogon    bool   `json:"bogon,omitempty"` // Private or reserved range, no geo data
}

// Coordinates parses Loc into latitude and longitude
// Returns ok=false when the location is missing or malformed
func (r *LookupResult) Coordinates() (lat, lon float64, ok bool) {
	latStr, lonStr, found := strings.Cut(r.Loc, ",")
	if !found {
		return 0, 0, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(latStr), 64)
	if err != nil {
		return 0, 0, false
	}
	lon, err = strconv.ParseFloat(strings.TrimSpace(lonStr), 64)
	if err != nil {
		return 0, 0, false
	}

	return lat, lon, true
}

// String is used in log lines
func (r *LookupResult) String() string {
	return fmt.Sprintf("%s (%s, %s, %s)", r.IP, r.City, r.Region, r.Country)
}

// ErrorResponse is the standard error response format of the HTTP API
type ErrorResponse struct {
	Error string `json:"error"` // Error message
}
