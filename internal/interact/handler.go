package interact

import (
	"time"

	"github.com/contextmap/contextmap-go/internal/geo"
	"github.com/contextmap/contextmap-go/internal/scene"
)

// Config controls the tooltip.
type Config struct {
	FadeIn  time.Duration
	FadeOut time.Duration
	Opacity float64
	OffsetY float64
}

// DefaultConfig fades in over 200ms to 0.9 and out over 500ms, 28px above the pointer.
func DefaultConfig() Config {
	return Config{
		FadeIn:  200 * time.Millisecond,
		FadeOut: 500 * time.Millisecond,
		Opacity: 0.9,
		OffsetY: -28,
	}
}

// Handler maps pointer movement to hover and unhover on hoverable primitives.
type Handler struct {
	cfg     Config
	store   *scene.Store
	tip     Tooltip
	hovered *scene.Primitive
}

// NewHandler creates a handler over the shared store.
func NewHandler(cfg Config, store *scene.Store) *Handler {
	return &Handler{cfg: cfg, store: store}
}

// Attach creates the tooltip inside container at opacity 0.
func (h *Handler) Attach(container string) {
	h.tip = Tooltip{attached: true, container: container}
}

// Tooltip returns the tooltip state.
func (h *Handler) Tooltip() *Tooltip {
	return &h.tip
}

// Hovered returns the primitive under the pointer, if any.
func (h *Handler) Hovered() *scene.Primitive {
	return h.hovered
}

// OnHover fades the tooltip in next to the pointer with p's content.
func (h *Handler) OnHover(p *scene.Primitive, pointer geo.Point, now time.Time) {
	if !h.tip.attached || p == nil || !p.Hoverable {
		return
	}
	h.hovered = p
	h.tip.content = ContentFor(p)
	h.tip.left = pointer.X
	h.tip.top = pointer.Y + h.cfg.OffsetY
	h.tip.fadeTo(h.cfg.Opacity, h.cfg.FadeIn, now)
}

// OnUnhover fades the tooltip out. Content and position stay until the next hover.
func (h *Handler) OnUnhover(p *scene.Primitive, now time.Time) {
	if !h.tip.attached || p == nil {
		return
	}
	if h.hovered == p {
		h.hovered = nil
	}
	h.tip.fadeTo(0, h.cfg.FadeOut, now)
}

// PointerMoved hit-tests the pointer and reports whether the hovered
// primitive changed.
func (h *Handler) PointerMoved(pointer geo.Point, now time.Time) bool {
	if !h.tip.attached {
		return false
	}
	hit := h.store.HitTest(pointer.X, pointer.Y)
	if hit == h.hovered {
		return false
	}
	if h.hovered != nil {
		h.OnUnhover(h.hovered, now)
	}
	if hit != nil {
		h.OnHover(hit, pointer, now)
	}
	return true
}

// PointerLeft unhovers whatever is under the pointer when it leaves the surface.
func (h *Handler) PointerLeft(now time.Time) bool {
	if !h.tip.attached || h.hovered == nil {
		return false
	}
	h.OnUnhover(h.hovered, now)
	return true
}
