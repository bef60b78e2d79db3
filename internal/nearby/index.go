// Package nearby: nearest gazetteer places to a WGS84 point
// Background: backs the map view; the index is built once from the loaded table and shared read-only.
// Constraint: only records with projectable coordinates and at least one non-null name column are indexed.
package nearby

import (
	"math"
	"place-search/internal/gazetteer"
	"place-search/internal/search"
	"sort"
)

const earthRadiusKm = 6371.0

// Place is one indexed record.
type Place struct {
	Row          int     `json:"row"`
	Name         string  `json:"name"`
	Column       string  `json:"column"`
	Language     string  `json:"language,omitempty"`
	Municipality string  `json:"municipality"`
	Lon          float64 `json:"lon"`
	Lat          float64 `json:"lat"`
}

// Hit is a Place with its great-circle distance from the query point.
type Hit struct {
	Place
	DistanceKm float64 `json:"distance_km"`
}

type node struct {
	p    Place
	ax   int // 0: lon, 1: lat
	l, r *node
}

// Index is a 2-d tree over place coordinates.
type Index struct {
	root *node
	size int
}

// Build: indexes every record of t that projects to a coordinate
// The name is taken from the first non-null column of nameColumns; languages tags that column.
func Build(t *gazetteer.Table, p search.Projector, nameColumns []string, languages map[string]string) *Index {
	var places []Place
	for _, rec := range t.Records() {
		if !rec.HasCoords() {
			continue
		}
		lon, lat := p.Project(rec.X, rec.Y)
		if lon == nil || lat == nil {
			continue
		}
		for _, c := range nameColumns {
			if v, ok := rec.Value(c); ok {
				places = append(places, Place{Row: rec.Row, Name: v, Column: c, Language: languages[c], Municipality: rec.Municipality, Lon: *lon, Lat: *lat})
				break
			}
		}
	}
	return &Index{root: build(places, 0), size: len(places)}
}

func (ix *Index) Len() int { return ix.size }

func build(ps []Place, depth int) *node {
	if len(ps) == 0 {
		return nil
	}
	ax := depth % 2
	mid := len(ps) / 2
	selectNth(ps, mid, ax)
	n := &node{p: ps[mid], ax: ax}
	n.l = build(ps[:mid], depth+1)
	n.r = build(ps[mid+1:], depth+1)
	return n
}

// selectNth: quickselect; afterwards a[n] holds the element of rank n on axis ax
func selectNth(a []Place, n, ax int) {
	lo, hi := 0, len(a)-1
	for lo < hi {
		p := partition(a, lo, hi, (lo+hi)/2, ax)
		if p == n {
			return
		}
		if n < p {
			hi = p - 1
		} else {
			lo = p + 1
		}
	}
}

func partition(a []Place, lo, hi, pivot, ax int) int {
	pv := coord(a[pivot], ax)
	a[pivot], a[hi] = a[hi], a[pivot]
	i := lo
	for j := lo; j < hi; j++ {
		if coord(a[j], ax) < pv {
			a[i], a[j] = a[j], a[i]
			i++
		}
	}
	a[i], a[hi] = a[hi], a[i]
	return i
}

func coord(p Place, ax int) float64 {
	if ax == 0 {
		return p.Lon
	}
	return p.Lat
}

// Nearest: up to k places within radiusKm of (lat, lon), closest first
// Equal distances are ordered by Row. k <= 0 or radiusKm <= 0 gives no hits.
func (ix *Index) Nearest(lat, lon float64, k int, radiusKm float64) []Hit {
	out := []Hit{}
	if ix == nil || ix.root == nil || k <= 0 || radiusKm <= 0 {
		return out
	}
	bound := func() float64 {
		if len(out) == k {
			return math.Min(out[k-1].DistanceKm, radiusKm)
		}
		return radiusKm
	}
	var visit func(n *node)
	visit = func(n *node) {
		if n == nil {
			return
		}
		if d := Haversine(lat, lon, n.p.Lat, n.p.Lon); d <= bound() {
			out = insert(out, Hit{Place: n.p, DistanceKm: d}, k)
		}
		key, split := lat, n.p.Lat
		if n.ax == 0 {
			key, split = lon, n.p.Lon
		}
		first, second := n.l, n.r
		if key >= split {
			first, second = n.r, n.l
		}
		visit(first)
		if planeDistance(lat, lon, split, n.ax) <= bound() {
			visit(second)
		}
	}
	visit(ix.root)
	return out
}

// insert keeps hits sorted by (distance, row) and at most k long.
func insert(hits []Hit, h Hit, k int) []Hit {
	i := sort.Search(len(hits), func(i int) bool {
		if hits[i].DistanceKm != h.DistanceKm {
			return hits[i].DistanceKm > h.DistanceKm
		}
		return hits[i].Row > h.Row
	})
	if i >= k {
		return hits
	}
	hits = append(hits, Hit{})
	copy(hits[i+1:], hits[i:])
	hits[i] = h
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// planeDistance: lower bound in km from the point to the splitting meridian (ax 0) or parallel (ax 1)
func planeDistance(lat, lon, split float64, ax int) float64 {
	if ax == 1 {
		return earthRadiusKm * math.Abs(lat-split) * math.Pi / 180
	}
	dLon := math.Abs(lon-split) * math.Pi / 180
	if dLon >= math.Pi/2 {
		return 0 // no useful bound across a quarter of the globe
	}
	return earthRadiusKm * math.Asin(math.Sin(dLon)*math.Cos(lat*math.Pi/180))
}

// Haversine returns the great-circle distance in km.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
