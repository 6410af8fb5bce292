package coordinator

import (
	"github.com/Garsondee/tactical-overlays/internal/overlay"
)

// Hover shows tokenHover overlays while the pointer is over a token.
type Hover struct {
	helper   *Helper
	registry *overlay.Registry

	current string
	shown   Shown
}

func NewHover(h *Helper, reg *overlay.Registry) *Hover {
	return &Hover{helper: h, registry: reg, shown: make(Shown)}
}

// Enter shows hover overlays for tokenID, leaving any previous token first.
// The host must already report tokenID as hovered.
func (h *Hover) Enter(tokenID string) {
	if h.current == tokenID {
		return
	}
	if h.current != "" {
		h.Leave(h.current)
	}
	h.current = tokenID
	h.shown.Add(h.helper.ProcessOverlaysByScope(h.registry.FilterByTrigger(overlay.TriggerTokenHover), overlay.TriggerTokenHover, nil))
}

// Leave hides what hovering tokenID showed. Leaving another token is a no-op.
func (h *Hover) Leave(tokenID string) {
	if h.current != tokenID {
		return
	}
	h.helper.HideShown(h.shown)
	h.shown = make(Shown)
	h.current = ""
}

// Current is the hovered token id, or "".
func (h *Hover) Current() string { return h.current }

// Startup keeps the VisibleOnStart overlays in step with the token state
// they depend on.
type Startup struct {
	helper   *Helper
	registry *overlay.Registry
	shown    Shown
}

func NewStartup(h *Helper, reg *overlay.Registry) *Startup {
	return &Startup{helper: h, registry: reg, shown: make(Shown)}
}

// Refresh hides the previous pass and renders the startup overlays again.
func (s *Startup) Refresh() {
	s.helper.HideShown(s.shown)
	s.shown = make(Shown)
	s.shown.Add(s.helper.ProcessOverlaysByScope(s.registry.StartupOverlays(), overlay.TriggerStartup, nil))
}

// Clear hides every startup overlay.
func (s *Startup) Clear() {
	s.helper.HideShown(s.shown)
	s.shown = make(Shown)
}
