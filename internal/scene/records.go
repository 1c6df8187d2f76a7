package scene

import (
	"github.com/contextmap/contextmap-go/internal/geo"
)

// ContextRecord is a location that pulls elements toward it.
type ContextRecord struct {
	Point geo.GeoPoint
	Color string
	Area  string
}

// ConnectionRecord is a line between two locations. It carries no identity
// and is not joined against contexts or markers.
type ConnectionRecord struct {
	Start geo.GeoPoint
	End   geo.GeoPoint
}

// MarkerRecord is a person or place attracted to a context.
type MarkerRecord struct {
	Point geo.GeoPoint
	Color string
	Name  string
	Image string
}
