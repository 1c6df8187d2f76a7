// Package scene holds the append-only set of visual primitives for ContextMap
package scene

import (
	"math"

	"github.com/contextmap/contextmap-go/internal/geo"
	geojson "github.com/paulmach/go.geojson"
)

// Kind identifies a layer class. The numeric order is the z-order.
type Kind int

const (
	KindBoundary Kind = iota
	KindRing
	KindContext
	KindConnector
	KindMarker
)

var kindNames = map[Kind]string{
	KindBoundary:  "boundary",
	KindRing:      "ring",
	KindContext:   "context",
	KindConnector: "connector",
	KindMarker:    "marker",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Kinds lists every layer class in z-order.
func Kinds() []Kind {
	return []Kind{KindBoundary, KindRing, KindContext, KindConnector, KindMarker}
}

// Primitive is one drawn element. Source fields are the truth; pixel fields
// are a cache of the last projection pass.
type Primitive struct {
	Index int
	Kind  Kind
	Tier  int

	Feature    *geojson.Feature
	Context    *ContextRecord
	Connection *ConnectionRecord
	Marker     *MarkerRecord

	X, Y   float64
	X2, Y2 float64
	Radius float64
	Rings  []geo.Ring
	Path   string

	BaseRadius float64
	Opacity    float64
	Fill       string
	Stroke     string
	StrokeW    float64
	Hoverable  bool
}

// Anchor returns the source coordinate of a point primitive.
func (p *Primitive) Anchor() (geo.GeoPoint, bool) {
	switch {
	case p.Context != nil:
		return p.Context.Point, true
	case p.Marker != nil:
		return p.Marker.Point, true
	}
	return geo.GeoPoint{}, false
}

// Source returns the record the primitive was built from.
func (p *Primitive) Source() any {
	switch {
	case p.Feature != nil:
		return p.Feature
	case p.Context != nil:
		return p.Context
	case p.Connection != nil:
		return p.Connection
	case p.Marker != nil:
		return p.Marker
	}
	return nil
}

// Visible reports whether the cached position is drawable.
func (p *Primitive) Visible() bool {
	switch p.Kind {
	case KindBoundary:
		return len(p.Rings) > 0
	case KindConnector:
		return finite(p.X, p.Y) && finite(p.X2, p.Y2)
	default:
		return finite(p.X, p.Y)
	}
}

// Contains reports whether a pixel falls inside a circle primitive.
func (p *Primitive) Contains(x, y float64) bool {
	if p.Kind == KindBoundary || p.Kind == KindConnector || !p.Visible() {
		return false
	}
	return math.Hypot(x-p.X, y-p.Y) <= p.Radius
}

func finite(x, y float64) bool {
	return !math.IsNaN(x) && !math.IsNaN(y) && !math.IsInf(x, 0) && !math.IsInf(y, 0)
}

// Store owns every primitive. Append order equals z-order.
type Store struct {
	prims  []*Primitive
	byKind map[Kind][]*Primitive
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{byKind: make(map[Kind][]*Primitive)}
}

// Append adds a primitive on top of everything else and returns its index.
func (s *Store) Append(p *Primitive) int {
	p.Index = len(s.prims)
	s.prims = append(s.prims, p)
	s.byKind[p.Kind] = append(s.byKind[p.Kind], p)
	return p.Index
}

// All returns every primitive bottom to top.
func (s *Store) All() []*Primitive {
	return s.prims
}

// OfKind returns the primitives of one class in append order.
func (s *Store) OfKind(k Kind) []*Primitive {
	return s.byKind[k]
}

// RingsOfTier returns the rings of one tier.
func (s *Store) RingsOfTier(tier int) []*Primitive {
	var out []*Primitive
	for _, p := range s.byKind[KindRing] {
		if p.Tier == tier {
			out = append(out, p)
		}
	}
	return out
}

// Len returns the number of primitives.
func (s *Store) Len() int {
	return len(s.prims)
}

// Counts returns the number of primitives per kind.
func (s *Store) Counts() map[Kind]int {
	counts := make(map[Kind]int, len(s.byKind))
	for k, ps := range s.byKind {
		counts[k] = len(ps)
	}
	return counts
}

// HitTest returns the topmost hoverable primitive under (x, y), limited to
// the given kinds when any are passed.
func (s *Store) HitTest(x, y float64, kinds ...Kind) *Primitive {
	for i := len(s.prims) - 1; i >= 0; i-- {
		p := s.prims[i]
		if !p.Hoverable || !matches(p.Kind, kinds) {
			continue
		}
		if p.Contains(x, y) {
			return p
		}
	}
	return nil
}

func matches(k Kind, kinds []Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, want := range kinds {
		if k == want {
			return true
		}
	}
	return false
}
