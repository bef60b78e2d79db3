// Package geoip: approximate visitor position from a MaxMind City database, used by /nearest when the
// caller sends no coordinates
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// Reader resolves IP addresses against an opened City mmdb.
// Constraint: geoip2.Reader is safe for concurrent lookups; one Reader serves all requests.
type Reader struct {
	db *geoip2.Reader
}

// Open loads the City database at path.
func Open(path string) (*Reader, error) {
	db, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip db %s: %w", path, err)
	}
	return &Reader{db: db}, nil
}

// Close releases the memory map.
func (r *Reader) Close() error { return r.db.Close() }

// Locate returns the City record position of ip.
// Unparseable addresses, lookup errors and records without a position (MaxMind stores 0,0) report false.
func (r *Reader) Locate(ip string) (lat, lon float64, ok bool) {
	addr := net.ParseIP(ip)
	if addr == nil {
		return 0, 0, false
	}
	rec, err := r.db.City(addr)
	if err != nil {
		return 0, 0, false
	}
	lat, lon = rec.Location.Latitude, rec.Location.Longitude
	if lat == 0 && lon == 0 {
		return 0, 0, false
	}
	return lat, lon, true
}
