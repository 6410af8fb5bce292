package overlay

import (
	"image/color"
	"strings"

	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// TargetScope selects which tokens a trigger applies to.
type TargetScope string

const (
	ScopeAll                 TargetScope = "all"
	ScopeControlled          TargetScope = "controlled"
	ScopeOwned               TargetScope = "owned"
	ScopeNonControlled       TargetScope = "non-controlled"
	ScopePreview             TargetScope = "preview"
	ScopeHovered             TargetScope = "hovered"
	ScopeVisible             TargetScope = "visible"
	ScopeVisibleAndNotHidden TargetScope = "visible-and-not-hidden"
)

// TriggerKind names an input or lifecycle trigger.
type TriggerKind string

const (
	TriggerKeyPress       TriggerKind = "keyPress"
	TriggerTokenDragStart TriggerKind = "tokenDragStart"
	TriggerTokenDragMove  TriggerKind = "tokenDragMove"
	TriggerTokenHover     TriggerKind = "tokenHover"
	TriggerStartup        TriggerKind = "startup"
)

// TriggerConfig configures one trigger of an overlay.
type TriggerConfig struct {
	// Keys are the key names that fire a keyPress trigger.
	Keys  []string
	Scope TargetScope
	// Condition, when set, gates the trigger: it fires only while
	// Condition returns true.
	Condition func() bool
}

// Active reports whether the trigger is switched on: a declared key list
// must be non-empty; any other non-nil configuration counts.
func (t *TriggerConfig) Active() bool {
	if t == nil {
		return false
	}
	if t.Keys != nil {
		return len(t.Keys) > 0
	}
	return true
}

// HasKey reports whether key fires this trigger, ignoring case.
func (t *TriggerConfig) HasKey(key string) bool {
	if t == nil {
		return false
	}
	for _, k := range t.Keys {
		if strings.EqualFold(k, key) {
			return true
		}
	}
	return false
}

// Permissions are declared per overlay; enforcement belongs to the host.
type Permissions struct {
	RequireLOS       bool
	RequireGM        bool
	RequireOwnership bool
	RequireControl   bool
}

// DisplayOn lists the grid types an overlay supports.
type DisplayOn struct {
	Gridless   bool
	Square     bool
	HexRows    bool
	HexColumns bool
}

// AllGrids supports every grid type.
var AllGrids = DisplayOn{Gridless: true, Square: true, HexRows: true, HexColumns: true}

// Supports reports whether g is in the matrix. An empty matrix supports
// every grid.
func (d DisplayOn) Supports(g host.GridType) bool {
	if d == (DisplayOn{}) {
		return true
	}
	switch g {
	case host.GridGridless:
		return d.Gridless
	case host.GridSquare:
		return d.Square
	case host.GridHexRows:
		return d.HexRows
	case host.GridHexColumns:
		return d.HexColumns
	}
	return false
}

// Change is a token or actor state change that may force a re-render.
type Change int

const (
	ChangeHealth Change = iota
	ChangeMovement
	ChangeRotation
	ChangeControl
)

// UpdateOn lists the state changes that re-render a shown overlay.
type UpdateOn struct {
	Health   bool
	Movement bool
	Rotation bool
	Control  bool
}

// Covers reports whether c is one of the listed changes.
func (u UpdateOn) Covers(c Change) bool {
	switch c {
	case ChangeHealth:
		return u.Health
	case ChangeMovement:
		return u.Movement
	case ChangeRotation:
		return u.Rotation
	case ChangeControl:
		return u.Control
	}
	return false
}

// Style is the styling for one named sub-element of an overlay.
type Style struct {
	Colour    color.RGBA
	LineWidth float64
	FontSize  float64
	Alpha     float64
}

// Definition is the static description of an overlay type. Definitions are
// built at startup and never mutated once registered.
type Definition struct {
	ID          string
	Name        string
	Description string

	RenderLayer       scene.Layer
	RenderOnTokenMesh bool
	ZIndex            int
	VisibleOnStart    bool

	Permissions Permissions
	DisplayOn   DisplayOn
	Triggers    map[TriggerKind]*TriggerConfig
	UpdateOn    UpdateOn
	Styling     map[string]Style

	// ContextBuilder overrides the builder registry for this overlay.
	ContextBuilder ContextBuilder
}

// Trigger returns the configuration for kind, or nil.
func (d *Definition) Trigger(kind TriggerKind) *TriggerConfig {
	if d == nil || d.Triggers == nil {
		return nil
	}
	return d.Triggers[kind]
}

// ScopeFor returns the scope declared for kind, defaulting to ScopeAll.
func (d *Definition) ScopeFor(kind TriggerKind) TargetScope {
	if t := d.Trigger(kind); t != nil && t.Scope != "" {
		return t.Scope
	}
	return ScopeAll
}

// Style returns the named style, or fallback when it is not configured.
func (d *Definition) Style(name string, fallback Style) Style {
	if s, ok := d.Styling[name]; ok {
		return s
	}
	return fallback
}

// Clone returns a copy whose maps and trigger configs can be changed freely.
func (d *Definition) Clone() *Definition {
	c := *d
	if d.Triggers != nil {
		c.Triggers = make(map[TriggerKind]*TriggerConfig, len(d.Triggers))
		for k, t := range d.Triggers {
			if t == nil {
				c.Triggers[k] = nil
				continue
			}
			tc := *t
			if t.Keys != nil {
				tc.Keys = append([]string(nil), t.Keys...)
			}
			c.Triggers[k] = &tc
		}
	}
	if d.Styling != nil {
		c.Styling = make(map[string]Style, len(d.Styling))
		for k, s := range d.Styling {
			c.Styling[k] = s
		}
	}
	return &c
}

// Allows reports whether the trigger's condition, if any, currently holds.
func (t *TriggerConfig) Allows() bool {
	return t == nil || t.Condition == nil || t.Condition()
}
