// Package geo provides the fixed continental projection and boundary geometry for ContextMap
package geo

import "math"

const (
	radians = math.Pi / 180
	clipEps = 1e-6
)

// conic is one conic equal-area sub-projection with its own rotation,
// center, scale, translate and rectangular clip extent.
type conic struct {
	n, c, rho0 float64
	rotate     float64 // radians added to λ before projecting
	cx, cy     float64 // raw projection of the center (not rotated)

	k      float64
	dx, dy float64

	x0, y0, x1, y1 float64
}

func newConic(parallel0, parallel1, rotateLon, centerLon, centerLat float64) conic {
	sin0 := math.Sin(parallel0 * radians)
	n := (sin0 + math.Sin(parallel1*radians)) / 2
	c := 1 + sin0*(2*n-sin0)
	p := conic{
		n:      n,
		c:      c,
		rho0:   math.Sqrt(c) / n,
		rotate: math.Mod(rotateLon, 360) * radians,
	}
	p.cx, p.cy = p.raw(centerLon*radians, centerLat*radians)
	return p
}

// raw is the unscaled forward conic equal-area formula in radians.
func (p conic) raw(lambda, phi float64) (float64, float64) {
	rho := math.Sqrt(p.c-2*p.n*math.Sin(phi)) / p.n
	lambda *= p.n
	return rho * math.Sin(lambda), p.rho0 - rho*math.Cos(lambda)
}

// place sets scale and translate and recomputes the pixel offsets.
func (p *conic) place(k, tx, ty float64) {
	p.k = k
	p.dx = tx - p.cx*k
	p.dy = ty + p.cy*k
}

func (p *conic) clip(x0, y0, x1, y1 float64) {
	p.x0, p.y0, p.x1, p.y1 = x0, y0, x1, y1
}

func (p conic) project(lon, lat float64) (float64, float64, bool) {
	lambda := lon*radians + p.rotate
	if lambda > math.Pi {
		lambda -= 2 * math.Pi
	} else if lambda < -math.Pi {
		lambda += 2 * math.Pi
	}
	rx, ry := p.raw(lambda, lat*radians)
	x := rx*p.k + p.dx
	y := p.dy - ry*p.k
	if math.IsNaN(x) || math.IsNaN(y) {
		return x, y, false
	}
	if x < p.x0 || x > p.x1 || y < p.y0 || y > p.y1 {
		return x, y, false
	}
	return x, y, true
}

// AlbersUSA is the composite projection of the lower 48 states with
// Alaska and Hawaii insets. A point is claimed by the first sub-projection
// whose clip extent contains it.
type AlbersUSA struct {
	lower48 conic
	alaska  conic
	hawaii  conic

	// empty is set when the scale collapses every inset to a point
	empty bool
}

// NewAlbersUSA builds the composite projection for the given state.
func NewAlbersUSA(s State) *AlbersUSA {
	a := &AlbersUSA{
		lower48: newConic(29.5, 45.5, 96, -0.6, 38.7),
		alaska:  newConic(55, 65, 154, -2, 58.5),
		hawaii:  newConic(8, 18, 157, -3, 19.9),
	}

	k, x, y := s.Scale, s.TranslateX, s.TranslateY
	a.empty = !(k > 0) || math.IsInf(k, 0)

	a.lower48.place(k, x, y)
	a.lower48.clip(x-0.455*k, y-0.238*k, x+0.455*k, y+0.238*k)

	a.alaska.place(k*0.35, x-0.307*k, y+0.201*k)
	a.alaska.clip(x-0.425*k+clipEps, y+0.120*k+clipEps, x-0.214*k-clipEps, y+0.234*k-clipEps)

	a.hawaii.place(k, x-0.205*k, y+0.212*k)
	a.hawaii.clip(x-0.214*k+clipEps, y+0.166*k+clipEps, x-0.115*k-clipEps, y+0.234*k-clipEps)

	return a
}

// Project maps degrees to pixels. ok is false when no inset claims the point.
func (a *AlbersUSA) Project(lon, lat float64) (x, y float64, ok bool) {
	if a.empty {
		return math.NaN(), math.NaN(), false
	}
	if x, y, ok := a.lower48.project(lon, lat); ok {
		return x, y, true
	}
	if x, y, ok := a.alaska.project(lon, lat); ok {
		return x, y, true
	}
	if x, y, ok := a.hawaii.project(lon, lat); ok {
		return x, y, true
	}
	return math.NaN(), math.NaN(), false
}
