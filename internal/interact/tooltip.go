// Package interact handles pointer hover over the map and the tooltip it drives
package interact

import (
	"fmt"
	"html"
	"math"
	"time"

	"github.com/contextmap/contextmap-go/internal/scene"
)

// CubicInOut is the default easing for tooltip fades.
func CubicInOut(t float64) float64 {
	t = math.Max(0, math.Min(1, t))
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// Transition is an eased opacity change.
type Transition struct {
	From     float64
	To       float64
	Start    time.Time
	Duration time.Duration
}

// At returns the opacity at now.
func (tr Transition) At(now time.Time) float64 {
	if tr.Duration <= 0 || !now.Before(tr.Start.Add(tr.Duration)) {
		return tr.To
	}
	elapsed := now.Sub(tr.Start)
	if elapsed <= 0 {
		return tr.From
	}
	k := CubicInOut(float64(elapsed) / float64(tr.Duration))
	return tr.From + (tr.To-tr.From)*k
}

// Done reports whether the transition has finished at now.
func (tr Transition) Done(now time.Time) bool {
	return !now.Before(tr.Start.Add(tr.Duration))
}

// Content is what the tooltip shows. Text is always set; HTML only for
// markers, which carry an avatar image.
type Content struct {
	Text string
	HTML string
}

// ContentFor derives tooltip content from a primitive's source record.
func ContentFor(p *scene.Primitive) Content {
	switch {
	case p == nil:
		return Content{}
	case p.Marker != nil:
		return Content{
			Text: p.Marker.Name,
			HTML: fmt.Sprintf("<img class='avatar' src='%s'/><p>%s</p>",
				html.EscapeString(p.Marker.Image), html.EscapeString(p.Marker.Name)),
		}
	case p.Context != nil:
		return Content{Text: p.Context.Area}
	}
	return Content{}
}

// Tooltip is the floating overlay. It exists only once attached to a container.
type Tooltip struct {
	attached  bool
	container string
	content   Content
	left, top float64
	fade      Transition
}

// Attached reports whether the tooltip has been created.
func (t *Tooltip) Attached() bool { return t.attached }

// Container returns the mount point the tooltip was attached to.
func (t *Tooltip) Container() string { return t.container }

// Content returns the current content.
func (t *Tooltip) Content() Content { return t.content }

// Position returns the tooltip's left and top offsets.
func (t *Tooltip) Position() (left, top float64) { return t.left, t.top }

// Opacity returns the tooltip's opacity at now.
func (t *Tooltip) Opacity(now time.Time) float64 {
	return t.fade.At(now)
}

// Visible reports whether any of the tooltip shows at now.
func (t *Tooltip) Visible(now time.Time) bool {
	return t.attached && t.Opacity(now) > 0
}

// Animating reports whether a fade is still running at now.
func (t *Tooltip) Animating(now time.Time) bool {
	return t.attached && !t.fade.Done(now)
}

// fadeTo starts a transition from the current opacity, interrupting any
// transition in flight.
func (t *Tooltip) fadeTo(to float64, d time.Duration, now time.Time) {
	t.fade = Transition{From: t.Opacity(now), To: to, Start: now, Duration: d}
}
