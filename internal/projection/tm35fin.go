// Package projection: conversion between the Finnish national grid ETRS-TM35FIN (EPSG:3067) and geographic coordinates
//
// Background: gazetteer rows carry national grid easting/northing; results are shown on web maps in
// WGS84. ETRS89 is treated as WGS84 (sub-metre difference), the same null datum shift pyproj applies.
// Constraint: axis order is always (easting, northing) in and (lon, lat) out.
package projection

import (
	"errors"
	"fmt"
	"math"

	"github.com/wroge/wgs84"
)

const (
	centralMeridian = 27.0
	scaleFactor     = 0.9996
	falseEasting    = 500000.0

	// Newton refinement of the grid → geographic step against the forward series
	refineSteps = 6
	// metres; a point the forward series cannot reproduce this closely is out of domain
	refineTolerance = 1e-3
	// degrees, finite difference step for the Jacobian
	jacobianStep = 1e-6
)

// ErrOutOfDomain is returned when the input or the computed coordinate is not a finite, valid value.
var ErrOutOfDomain = errors.New("projection: coordinate out of domain")

// Projector converts between ETRS-TM35FIN and geographic coordinates.
// It holds only the coordinate reference systems and their transform functions, so one value may be
// shared by any number of goroutines.
type Projector struct {
	grid   wgs84.ProjectedReferenceSystem
	toGeo  wgs84.SafeFunc
	toGrid wgs84.SafeFunc
	fwd    wgs84.Func
}

// NewTM35FIN builds the projector for EPSG:3067: GRS80 transverse Mercator on 27°E, k0 0.9996.
func NewTM35FIN() Projector {
	grid := wgs84.ETRS89().TransverseMercator(centralMeridian, 0, scaleFactor, falseEasting, 0)
	geo := wgs84.LonLat()
	return Projector{
		grid:   grid,
		toGeo:  wgs84.SafeTransform(grid, geo),
		toGrid: wgs84.SafeTransform(geo, grid),
		fwd:    wgs84.Transform(geo, grid),
	}
}

// Project: grid coordinate → (lon, lat); (nil, nil) on any failure
// Missing input (NaN) skips the transform entirely. Any failure inside the transform, including a
// panic, is absorbed so that a bad coordinate never aborts a search.
func (p Projector) Project(x, y float64) (lon, lat *float64) {
	if math.IsNaN(x) || math.IsNaN(y) {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			lon, lat = nil, nil
		}
	}()
	lo, la, err := p.Inverse(x, y)
	if err != nil {
		return nil, nil
	}
	return &lo, &la
}

// Inverse converts easting/northing (metres) to longitude/latitude (degrees).
// The series inverse is refined with Newton steps until the forward series reproduces the input.
func (p Projector) Inverse(easting, northing float64) (lon, lat float64, err error) {
	if !finite(easting) || !finite(northing) {
		return 0, 0, ErrOutOfDomain
	}
	lon, lat, _, err = p.toGeo(easting, northing, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrOutOfDomain, err)
	}
	for i := 0; i < refineSteps; i++ {
		e, n, _ := p.fwd(lon, lat, 0)
		de, dn := easting-e, northing-n
		if math.Abs(de) < refineTolerance && math.Abs(dn) < refineTolerance {
			if !finite(lon) || !finite(lat) || !p.grid.Contains(lon, lat) {
				return 0, 0, ErrOutOfDomain
			}
			return lon, lat, nil
		}
		eLon, nLon, _ := p.fwd(lon+jacobianStep, lat, 0)
		eLat, nLat, _ := p.fwd(lon, lat+jacobianStep, 0)
		a, b := (eLon-e)/jacobianStep, (eLat-e)/jacobianStep
		c, d := (nLon-n)/jacobianStep, (nLat-n)/jacobianStep
		det := a*d - b*c
		if det == 0 || !finite(det) {
			return 0, 0, ErrOutOfDomain
		}
		lon += (d*de - b*dn) / det
		lat += (a*dn - c*de) / det
	}
	return 0, 0, ErrOutOfDomain
}

// Forward converts longitude/latitude (degrees) to easting/northing (metres).
func (p Projector) Forward(lon, lat float64) (easting, northing float64, err error) {
	if !finite(lon) || !finite(lat) || math.Abs(lat) >= 90 {
		return 0, 0, ErrOutOfDomain
	}
	easting, northing, _, err = p.toGrid(lon, lat, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrOutOfDomain, err)
	}
	if !finite(easting) || !finite(northing) {
		return 0, 0, ErrOutOfDomain
	}
	return easting, northing, nil
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
