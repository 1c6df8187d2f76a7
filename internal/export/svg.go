package export

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
	"github.com/rotisserie/eris"
)

// Options describes the surface a store is exported from.
type Options struct {
	Width      float64
	Height     float64
	Container  string
	Projection geo.State
}

// SVG renders every drawable primitive in store order inside
// <g class="map-container">. Later elements paint over earlier ones, so the
// document keeps the z-order of the store.
func SVG(store *scene.Store, opts Options) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s">`, num(opts.Width), num(opts.Height))
	sb.WriteString("\n<g class=\"map-container\">\n")
	for _, p := range store.All() {
		if !p.Visible() {
			continue
		}
		writePrimitive(&sb, p)
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

func writePrimitive(sb *strings.Builder, p *scene.Primitive) {
	switch p.Kind {
	case scene.KindBoundary:
		if p.Path == "" {
			return
		}
		fmt.Fprintf(sb, `<path d="%s" style="stroke: %s; stroke-width: %s; fill: %s;"/>`,
			p.Path, attr(p.Stroke), num(p.StrokeW), attr(p.Fill))
	case scene.KindRing:
		fmt.Fprintf(sb, `<circle class="ring%d ring" cx="%s" cy="%s" r="%s" data-r="%s" style="fill: %s; stroke: %s; opacity: %s;"/>`,
			p.Tier, num(p.X), num(p.Y), num(p.Radius), num(p.BaseRadius), attr(p.Fill), attr(p.Stroke), num(p.Opacity))
	case scene.KindContext:
		fmt.Fprintf(sb, `<circle class="context" cx="%s" cy="%s" r="%s" style="fill: %s; stroke: %s;">`,
			num(p.X), num(p.Y), num(p.Radius), attr(p.Fill), attr(p.Stroke))
		writeTitle(sb, p)
		sb.WriteString("</circle>")
	case scene.KindConnector:
		fmt.Fprintf(sb, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke-width="%s" stroke="%s"/>`,
			num(p.X), num(p.Y), num(p.X2), num(p.Y2), num(p.StrokeW), attr(p.Stroke))
	case scene.KindMarker:
		fmt.Fprintf(sb, `<circle class="marker" cx="%s" cy="%s" r="%s" style="fill: %s; stroke: %s;">`,
			num(p.X), num(p.Y), num(p.Radius), attr(p.Fill), attr(p.Stroke))
		writeTitle(sb, p)
		sb.WriteString("</circle>")
	default:
		return
	}
	sb.WriteByte('\n')
}

// writeTitle gives hoverable circles a native tooltip with the same text the
// interactive tooltip shows.
func writeTitle(sb *strings.Builder, p *scene.Primitive) {
	var text string
	switch {
	case p.Context != nil:
		text = p.Context.Area
	case p.Marker != nil:
		text = p.Marker.Name
	}
	if text != "" {
		fmt.Fprintf(sb, "<title>%s</title>", html.EscapeString(text))
	}
}

func attr(s string) string {
	return html.EscapeString(s)
}

// num formats a coordinate with at most two decimals.
func num(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	r := math.Round(v*100) / 100
	if r == 0 {
		r = 0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// ExportSVG writes the store to a timestamped .svg file in directory
func ExportSVG(store *scene.Store, opts Options, directory string) (string, error) {
	filename := GenerateFilename("contextmap", "svg", directory)
	if err := writeFile(filename, []byte(SVG(store, opts))); err != nil {
		return "", eris.Wrap(err, "failed to export svg")
	}
	return filename, nil
}
