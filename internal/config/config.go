package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"image/color"
	"os"
	"strings"

	"github.com/Garsondee/tactical-overlays/internal/overlay"
)

// Config holds process settings and per-overlay overrides.
type Config struct {
	LogLevel string `json:"log_level"`

	// Tabletop window
	WindowWidth  int `json:"window_width"`
	WindowHeight int `json:"window_height"`

	// Bridge server
	BridgeAddr string `json:"bridge_addr"`

	// TrackingSeed seeds tracking number assignment; 0 means time-based.
	TrackingSeed int64 `json:"tracking_seed"`

	Colours  Colours                    `json:"colours"`
	Overlays map[string]OverlayOverride `json:"overlays"`
}

// Colours are "#rrggbb" or "#rrggbbaa" strings; empty keeps the default.
type Colours struct {
	HealthHigh string `json:"health_high"`
	HealthLow  string `json:"health_low"`
}

// OverlayOverride adjusts one built-in overlay definition.
type OverlayOverride struct {
	Disabled bool     `json:"disabled"`
	Keys     []string `json:"keys,omitempty"`
	Scope    string   `json:"scope,omitempty"`
	ZIndex   *int     `json:"z_index,omitempty"`
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	LogLevel   string
	BridgeAddr string
	Width      int
	Height     int
}

// Default returns the settings used when no file is given.
func Default() Config {
	c := Config{}
	c.Resolve(Flags{})
	return c
}

// Load reads a JSON config file. Fields not set in the file keep their zero
// values until Resolve.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// Resolve applies CLI flags, which take priority when set, then fills in
// defaults for anything still empty.
func (c *Config) Resolve(flags Flags) {
	if flags.LogLevel != "" {
		c.LogLevel = flags.LogLevel
	}
	if flags.BridgeAddr != "" {
		c.BridgeAddr = flags.BridgeAddr
	}
	if flags.Width > 0 {
		c.WindowWidth = flags.Width
	}
	if flags.Height > 0 {
		c.WindowHeight = flags.Height
	}

	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.WindowWidth <= 0 {
		c.WindowWidth = 1280
	}
	if c.WindowHeight <= 0 {
		c.WindowHeight = 800
	}
	if c.BridgeAddr == "" {
		c.BridgeAddr = "127.0.0.1:8765"
	}
}

var validScopes = map[overlay.TargetScope]bool{
	overlay.ScopeAll:                 true,
	overlay.ScopeControlled:          true,
	overlay.ScopeOwned:               true,
	overlay.ScopeNonControlled:       true,
	overlay.ScopePreview:             true,
	overlay.ScopeHovered:             true,
	overlay.ScopeVisible:             true,
	overlay.ScopeVisibleAndNotHidden: true,
}

// Apply returns copies of defs with the overrides applied and disabled
// overlays removed. Invalid entries are reported together; valid ones are
// still applied.
func (c Config) Apply(defs []*overlay.Definition) ([]*overlay.Definition, error) {
	var errs []error
	known := make(map[string]bool, len(defs))
	out := make([]*overlay.Definition, 0, len(defs))

	for _, d := range defs {
		known[d.ID] = true
		o, ok := c.Overlays[d.ID]
		if ok && o.Disabled {
			continue
		}
		d = d.Clone()
		if ok {
			if err := applyOverride(d, o); err != nil {
				errs = append(errs, err)
			}
		}
		if d.ID == overlay.IDHealthArc {
			if err := c.applyHealthColours(d); err != nil {
				errs = append(errs, err)
			}
		}
		out = append(out, d)
	}

	for id := range c.Overlays {
		if !known[id] {
			errs = append(errs, fmt.Errorf("config: override for unknown overlay %q", id))
		}
	}
	return out, errors.Join(errs...)
}

func applyOverride(d *overlay.Definition, o OverlayOverride) error {
	if o.ZIndex != nil {
		d.ZIndex = *o.ZIndex
	}
	if len(o.Keys) > 0 {
		t := d.Trigger(overlay.TriggerKeyPress)
		if t == nil {
			return fmt.Errorf("config: overlay %q has no key trigger to rebind", d.ID)
		}
		t.Keys = make([]string, len(o.Keys))
		for i, k := range o.Keys {
			t.Keys[i] = strings.ToLower(k)
		}
	}
	if o.Scope != "" {
		scope := overlay.TargetScope(o.Scope)
		if !validScopes[scope] {
			return fmt.Errorf("config: overlay %q: unknown scope %q", d.ID, o.Scope)
		}
		for _, t := range d.Triggers {
			if t != nil {
				t.Scope = scope
			}
		}
	}
	return nil
}

func (c Config) applyHealthColours(d *overlay.Definition) error {
	set := func(name, value string) error {
		if value == "" {
			return nil
		}
		rgba, err := ParseColour(value)
		if err != nil {
			return fmt.Errorf("config: colours.%s: %w", name, err)
		}
		if d.Styling == nil {
			d.Styling = make(map[string]overlay.Style)
		}
		st := d.Styling[name]
		st.Colour = rgba
		d.Styling[name] = st
		return nil
	}
	return errors.Join(
		set("healthHigh", c.Colours.HealthHigh),
		set("healthLow", c.Colours.HealthLow),
	)
}

// ParseColour parses "#rrggbb" or "#rrggbbaa".
func ParseColour(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var c color.RGBA
	switch len(s) {
	case 6:
		c.A = 0xff
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B); err != nil {
			return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
	case 8:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A); err != nil {
			return color.RGBA{}, fmt.Errorf("bad colour %q: %w", s, err)
		}
	default:
		return color.RGBA{}, fmt.Errorf("bad colour %q: want 6 or 8 hex digits", s)
	}
	return c, nil
}
