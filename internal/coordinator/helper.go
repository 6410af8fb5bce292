// Package coordinator turns gestures into overlay renders: it resolves which
// tokens a trigger targets, builds their contexts and remembers what it
// showed so the gesture's end can hide it again.
package coordinator

import (
	"sort"

	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/tracking"
)

// Renderer is the part of the rendering service coordinators use.
type Renderer interface {
	RenderTokenOverlay(ctx *overlay.RenderContext) error
	HasPainter(overlayID string) bool
	HideTokenOverlay(tokenID, overlayID string) bool
	HideAllOverlaysOfType(overlayID string) int
	ClearTokenOverlay(tokenID, overlayID string) bool
	ClearAllTokenOverlays(tokenID string) int
	ClearOverlayType(overlayID string) int
}

// Request carries the gesture a scope pass runs for.
type Request struct {
	Kind    overlay.TriggerKind
	Preview host.Token
	// Origin is the real token behind a drag preview.
	Origin host.Token
}

// OptionsFunc computes the per-render options for one overlay type.
type OptionsFunc func(h *Helper, target host.Token, req Request) overlay.Options

// Group is one scope's worth of rendering. Targets and Overlays are what the
// pass attempted; Pairs holds the combinations that actually rendered.
type Group struct {
	Scope    overlay.TargetScope
	Targets  []host.Token
	Overlays []*overlay.Definition
	Pairs    []Pair
}

// Pair names one rendered (token, overlay) instance.
type Pair struct {
	TokenID   string
	OverlayID string
}

// Helper resolves scopes, builds contexts and tracks rendered pairs.
type Helper struct {
	platform host.Platform
	registry *overlay.Registry
	builders *overlay.BuilderRegistry
	renderer Renderer
	health   *health.Obfuscator
	tracker  *tracking.Tracker
	log      *logging.Logger

	options map[string]OptionsFunc
	tracked map[string]map[string]bool
}

// NewHelper wires a helper. obfuscator and tracker may be nil, in which case
// health and tracking options are left empty.
func NewHelper(p host.Platform, reg *overlay.Registry, builders *overlay.BuilderRegistry, r Renderer,
	obfuscator *health.Obfuscator, tracker *tracking.Tracker, log *logging.Logger) *Helper {
	return &Helper{
		platform: p,
		registry: reg,
		builders: builders,
		renderer: r,
		health:   obfuscator,
		tracker:  tracker,
		log:      log.With("coordinator"),
		options:  DefaultOptions(),
		tracked:  make(map[string]map[string]bool),
	}
}

// DefaultOptions is the options table for the built-in overlays. Overlays
// not listed get NoOptions.
func DefaultOptions() map[string]OptionsFunc {
	return map[string]OptionsFunc{
		overlay.IDHealthArc: func(h *Helper, target host.Token, _ Request) overlay.Options {
			if h.health == nil {
				return overlay.NoOptions{}
			}
			return overlay.HealthOptions{Result: h.health.ObfuscateFor(target)}
		},
		overlay.IDTokenInfo: func(h *Helper, target host.Token, _ Request) overlay.Options {
			if h.tracker == nil {
				return overlay.TokenInfoOptions{}
			}
			return overlay.TokenInfoOptions{TrackingNumber: h.tracker.Number(target.ID())}
		},
		overlay.IDMovementPath: func(_ *Helper, _ host.Token, req Request) overlay.Options {
			return overlay.DragOptions{Origin: req.Origin, Preview: req.Preview}
		},
		overlay.IDObstacleIndicator: func(_ *Helper, _ host.Token, req Request) overlay.Options {
			return overlay.ObstacleOptions{Mover: req.Origin}
		},
		overlay.IDHoverName:        userOptions,
		overlay.IDControlledMarker: userOptions,
	}
}

func userOptions(h *Helper, _ host.Token, _ Request) overlay.Options {
	return overlay.UserOptions{User: h.platform.CurrentUser()}
}

// SetOptionsFunc overrides the options for an overlay type.
func (h *Helper) SetOptionsFunc(overlayID string, fn OptionsFunc) {
	h.options[overlayID] = fn
}

// Options returns the options an overlay would be rendered with.
func (h *Helper) Options(target host.Token, def *overlay.Definition, req Request) overlay.Options {
	if fn, ok := h.options[def.ID]; ok {
		return fn(h, target, req)
	}
	return overlay.NoOptions{}
}

// ResolveScope returns the tokens a scope selects, in platform order.
func (h *Helper) ResolveScope(scope overlay.TargetScope, preview host.Token) []host.Token {
	var keep func(host.Token) bool
	switch scope {
	case overlay.ScopeAll:
		return h.platform.Tokens()
	case overlay.ScopePreview:
		if preview == nil {
			h.log.Warnf("preview scope requested without a preview token")
			return nil
		}
		return []host.Token{preview}
	case overlay.ScopeVisible:
		keep = func(t host.Token) bool { return t.Visible() }
	case overlay.ScopeVisibleAndNotHidden:
		keep = func(t host.Token) bool { return t.Visible() && !t.Hidden() }
	case overlay.ScopeControlled:
		keep = func(t host.Token) bool { return t.Controlled() }
	case overlay.ScopeOwned:
		keep = func(t host.Token) bool { return t.Owned() && t.Visible() && !t.Hidden() }
	case overlay.ScopeNonControlled:
		keep = func(t host.Token) bool { return t.Visible() && !t.Hidden() && !t.Controlled() }
	case overlay.ScopeHovered:
		keep = func(t host.Token) bool { return t.Hovered() }
	default:
		h.log.Warnf("unknown scope %q; using visible", scope)
		keep = func(t host.Token) bool { return t.Visible() }
	}

	var out []host.Token
	for _, t := range h.platform.Tokens() {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

// ProcessOverlaysByScope renders defs for the trigger kind on the tokens
// each overlay's scope selects and returns the groups it rendered.
func (h *Helper) ProcessOverlaysByScope(defs []*overlay.Definition, kind overlay.TriggerKind, preview host.Token) []Group {
	return h.Process(defs, Request{Kind: kind, Preview: preview})
}

type resolved struct {
	def     *overlay.Definition
	builder overlay.ContextBuilder
}

// Process is ProcessOverlaysByScope with a full request.
func (h *Helper) Process(defs []*overlay.Definition, req Request) []Group {
	var scopes []overlay.TargetScope
	byScope := make(map[overlay.TargetScope][]*overlay.Definition)
	for _, d := range defs {
		s := d.ScopeFor(req.Kind)
		if _, seen := byScope[s]; !seen {
			scopes = append(scopes, s)
		}
		byScope[s] = append(byScope[s], d)
	}

	grid := h.platform.Canvas().GridType()
	var groups []Group
	for _, scope := range scopes {
		targets := h.ResolveScope(scope, req.Preview)
		if len(targets) == 0 {
			continue
		}

		var usable []resolved
		for _, d := range byScope[scope] {
			if !h.renderer.HasPainter(d.ID) || !d.DisplayOn.Supports(grid) || !d.Trigger(req.Kind).Allows() {
				continue
			}
			b, err := h.builders.Resolve(d)
			if err != nil {
				continue
			}
			usable = append(usable, resolved{def: d, builder: b})
		}
		if len(usable) == 0 {
			continue
		}

		g := Group{Scope: scope, Targets: targets}
		for _, r := range usable {
			g.Overlays = append(g.Overlays, r.def)
		}
		for _, t := range targets {
			for _, r := range usable {
				if h.render(t, r.def, r.builder, h.Options(t, r.def, req)) == nil {
					g.Pairs = append(g.Pairs, Pair{TokenID: t.ID(), OverlayID: r.def.ID})
				}
			}
		}
		groups = append(groups, g)
	}
	return groups
}

// RenderOverlay renders one overlay on one token and tracks it.
func (h *Helper) RenderOverlay(target host.Token, def *overlay.Definition, opts overlay.Options) error {
	b, err := h.builders.Resolve(def)
	if err != nil {
		return err
	}
	return h.render(target, def, b, opts)
}

func (h *Helper) render(target host.Token, def *overlay.Definition, b overlay.ContextBuilder, opts overlay.Options) error {
	ctx, err := b.BuildContext(target, def, opts)
	if err != nil {
		h.log.Warnf("build %s for %s: %v", def.ID, target.ID(), err)
		return err
	}
	if err := h.renderer.RenderTokenOverlay(ctx); err != nil {
		h.log.Warnf("render %s for %s: %v", def.ID, target.ID(), err)
		return err
	}
	h.track(target.ID(), def.ID)
	return nil
}

func (h *Helper) track(tokenID, overlayID string) {
	set, ok := h.tracked[tokenID]
	if !ok {
		set = make(map[string]bool)
		h.tracked[tokenID] = set
	}
	set[overlayID] = true
}

// Tracked returns the overlay ids currently tracked for a token, sorted.
func (h *Helper) Tracked(tokenID string) []string {
	ids := make([]string, 0, len(h.tracked[tokenID]))
	for id := range h.tracked[tokenID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TrackedCount is the number of tracked (token, overlay) pairs.
func (h *Helper) TrackedCount() int {
	n := 0
	for _, set := range h.tracked {
		n += len(set)
	}
	return n
}

// Forget drops one pair from tracking without touching its drawable.
func (h *Helper) Forget(tokenID, overlayID string) {
	if set, ok := h.tracked[tokenID]; ok {
		delete(set, overlayID)
		if len(set) == 0 {
			delete(h.tracked, tokenID)
		}
	}
}

// ForgetToken drops every pair of a token from tracking.
func (h *Helper) ForgetToken(tokenID string) {
	delete(h.tracked, tokenID)
}

// ClearTracking forgets everything.
func (h *Helper) ClearTracking() {
	h.tracked = make(map[string]map[string]bool)
}

// HideAllTrackedOverlays hides every tracked pair and clears tracking.
func (h *Helper) HideAllTrackedOverlays() {
	for tokenID, set := range h.tracked {
		for overlayID := range set {
			h.renderer.HideTokenOverlay(tokenID, overlayID)
		}
	}
	h.ClearTracking()
}

// HideOverlaysForTokens hides and forgets every tracked pair of the tokens.
func (h *Helper) HideOverlaysForTokens(ids []string) {
	for _, id := range ids {
		for overlayID := range h.tracked[id] {
			h.renderer.HideTokenOverlay(id, overlayID)
		}
		delete(h.tracked, id)
	}
}

// HideShown hides and forgets exactly the pairs in s.
func (h *Helper) HideShown(s Shown) {
	for tokenID, set := range s {
		for overlayID := range set {
			h.renderer.HideTokenOverlay(tokenID, overlayID)
			h.Forget(tokenID, overlayID)
		}
	}
}

// HideOverlayTypes hides every drawable of each overlay type and forgets
// those types from tracking.
func (h *Helper) HideOverlayTypes(overlayIDs []string) {
	for _, id := range overlayIDs {
		h.renderer.HideAllOverlaysOfType(id)
		for tokenID := range h.tracked {
			h.Forget(tokenID, id)
		}
	}
}

// RerenderTracked re-renders the token's tracked overlays whose UpdateOn
// covers change, and returns how many it redrew.
func (h *Helper) RerenderTracked(tokenID string, change overlay.Change) int {
	target, ok := h.platform.Token(tokenID)
	if !ok {
		return 0
	}
	n := 0
	for _, id := range h.Tracked(tokenID) {
		def, ok := h.registry.Get(id)
		if !ok || !def.UpdateOn.Covers(change) {
			continue
		}
		if err := h.RenderOverlay(target, def, h.Options(target, def, Request{})); err == nil {
			n++
		}
	}
	return n
}

// Shown is a gesture cache: token id to the overlay ids shown on it.
type Shown map[string]map[string]bool

// Add records every rendered pair in groups.
func (s Shown) Add(groups []Group) {
	for _, g := range groups {
		for _, p := range g.Pairs {
			s.AddPair(p.TokenID, p.OverlayID)
		}
	}
}

// AddPair records one pair.
func (s Shown) AddPair(tokenID, overlayID string) {
	set, ok := s[tokenID]
	if !ok {
		set = make(map[string]bool)
		s[tokenID] = set
	}
	set[overlayID] = true
}

// OverlayIDs returns the union of overlay ids in s, sorted.
func (s Shown) OverlayIDs() []string {
	seen := make(map[string]bool)
	for _, set := range s {
		for id := range set {
			seen[id] = true
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len is the number of pairs in s.
func (s Shown) Len() int {
	n := 0
	for _, set := range s {
		n += len(set)
	}
	return n
}
