package geo

import (
	"math"
	"sync"
)

// GeoPoint is an immutable source coordinate in degrees.
type GeoPoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// Valid reports whether both components are finite.
func (p GeoPoint) Valid() bool {
	return !math.IsNaN(p.Lon) && !math.IsNaN(p.Lat) && !math.IsInf(p.Lon, 0) && !math.IsInf(p.Lat, 0)
}

// State is the projection's translate and scale.
type State struct {
	TranslateX float64 `json:"translate_x"`
	TranslateY float64 `json:"translate_y"`
	Scale      float64 `json:"scale"`
}

// Engine is the single shared projection. Its state is replaced as a whole
// so a reader never sees a translate from one gesture and a scale from another.
type Engine struct {
	mu    sync.RWMutex
	state State
	proj  *AlbersUSA
}

// NewEngine creates an engine with the given initial state.
func NewEngine(s State) *Engine {
	return &Engine{state: s, proj: NewAlbersUSA(s)}
}

// State returns the current projection state.
func (e *Engine) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// SetState replaces the projection state.
func (e *Engine) SetState(s State) {
	proj := NewAlbersUSA(s)
	e.mu.Lock()
	e.state = s
	e.proj = proj
	e.mu.Unlock()
}

// Project maps a GeoPoint to pixel coordinates. Points outside every inset
// come back as NaN.
func (e *Engine) Project(p GeoPoint) (float64, float64) {
	x, y, _ := e.ProjectOK(p)
	return x, y
}

// ProjectOK is Project with an explicit validity flag.
func (e *Engine) ProjectOK(p GeoPoint) (float64, float64, bool) {
	e.mu.RLock()
	proj := e.proj
	e.mu.RUnlock()
	return proj.Project(p.Lon, p.Lat)
}
