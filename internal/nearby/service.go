package nearby

import (
	"fmt"
	"math"
	"time"
)

// MaxK caps how many hits one request may ask for.
const MaxK = 50

// Service: validated nearest-place queries over an Index with a result cache
type Service struct {
	index     *Index
	cache     *LRU
	maxRadius float64
}

// NewService: maxRadiusKm is the default and the upper bound of the search radius.
func NewService(ix *Index, maxRadiusKm float64, cacheTTL time.Duration) *Service {
	if maxRadiusKm <= 0 {
		maxRadiusKm = 5
	}
	return &Service{index: ix, cache: NewLRU(4096, cacheTTL), maxRadius: maxRadiusKm}
}

// Query: validates the point, clamps k to 1..MaxK and radius to (0, max], then looks up
// Results are shared by all points of one geohash-9 cell, so distances may be off by a few metres.
func (s *Service) Query(lat, lon float64, k int, radiusKm float64) ([]Hit, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, fmt.Errorf("coordinate out of range: lat %g lon %g", lat, lon)
	}
	if k <= 0 {
		k = 10
	}
	if k > MaxK {
		k = MaxK
	}
	if radiusKm <= 0 || radiusKm > s.maxRadius {
		radiusKm = s.maxRadius
	}
	key := fmt.Sprintf("%s:%d:%g", encodeGeohash(lat, lon, 9), k, radiusKm)
	if v, ok := s.cache.Get(key); ok {
		return v, nil
	}
	hits := s.index.Nearest(lat, lon, k, radiusKm)
	s.cache.Set(key, hits)
	return hits, nil
}

func (s *Service) Len() int { return s.index.Len() }
