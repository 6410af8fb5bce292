// Package engine wires the overlay services together and connects them to
// the event bus. Everything is constructed from explicit dependencies; there
// is no package state.
package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/config"
	"github.com/Garsondee/tactical-overlays/internal/coordinator"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/render"
	"github.com/Garsondee/tactical-overlays/internal/tracking"
)

// Deps are the collaborators an Engine needs.
type Deps struct {
	Platform host.Platform
	Bus      *event.Bus
	// Validator checks drags for obstacles; nil disables the indicator.
	Validator host.MovementValidator
	Logger    *logging.Logger
	Config    config.Config
	// Clock defaults to time.Now.
	Clock func() time.Time
	// Definitions replaces the built-in overlays when non-nil.
	Definitions []*overlay.Definition
}

// Engine owns one set of overlay services for one canvas.
//
// Thread-Safety: owner goroutine only. Other goroutines Post to the bus.
type Engine struct {
	platform host.Platform
	bus      *event.Bus
	cfg      config.Config
	defs     []*overlay.Definition
	log      *logging.Logger

	registry *overlay.Registry
	builders *overlay.BuilderRegistry
	renderer *render.Service
	health   *health.Obfuscator
	tracker  *tracking.Tracker
	helper   *coordinator.Helper
	keyboard *coordinator.Keyboard
	drag     *coordinator.Drag
	hover    *coordinator.Hover
	startup  *coordinator.Startup

	subs    []event.Subscription
	started bool
}

// New constructs the services. Nothing is registered or subscribed until
// Start.
func New(d Deps) (*Engine, error) {
	if d.Platform == nil {
		return nil, errors.New("engine: platform required")
	}
	if d.Bus == nil {
		return nil, errors.New("engine: bus required")
	}
	if d.Clock == nil {
		d.Clock = time.Now
	}
	defs := d.Definitions
	if defs == nil {
		defs = overlay.Defaults()
	}
	seed := d.Config.TrackingSeed
	if seed == 0 {
		seed = d.Clock().UnixNano()
	}

	e := &Engine{
		platform: d.Platform,
		bus:      d.Bus,
		cfg:      d.Config,
		defs:     defs,
		log:      d.Logger.With("engine"),
	}
	e.registry = overlay.NewRegistry(d.Logger)
	e.builders = overlay.NewBuilderRegistry(d.Logger)
	e.renderer = render.NewService(d.Platform.Canvas(), e.registry, d.Bus, d.Logger)
	e.health = health.NewObfuscator(d.Platform, d.Clock, d.Logger)
	e.tracker = tracking.NewTracker(d.Platform.Flags(), seed, d.Logger)
	e.helper = coordinator.NewHelper(d.Platform, e.registry, e.builders, e.renderer, e.health, e.tracker, d.Logger)
	e.keyboard = coordinator.NewKeyboard(e.helper, e.registry, d.Logger)
	e.drag = coordinator.NewDrag(e.helper, e.registry, d.Platform, e.renderer, d.Validator, d.Logger)
	e.hover = coordinator.NewHover(e.helper, e.registry)
	e.startup = coordinator.NewStartup(e.helper, e.registry)
	return e, nil
}

// Start registers overlays, builders and painters, initialises rendering and
// subscribes to the bus. Config override problems are logged and returned,
// but the engine still starts with the valid part of the configuration.
func (e *Engine) Start() error {
	if e.started {
		return nil
	}
	defs, cfgErr := e.cfg.Apply(e.defs)
	if cfgErr != nil {
		e.log.Warnf("overlay overrides: %v", cfgErr)
	}
	for _, d := range defs {
		if err := e.registry.Register(d); err != nil {
			return fmt.Errorf("engine: register %q: %w", d.ID, err)
		}
	}
	overlay.RegisterDefaults(e.builders)
	render.RegisterDefaultPainters(e.renderer)
	e.tracker.Load(e.platform.Tokens())

	ready := e.renderer.Initialise()
	e.subscribe()
	e.started = true
	if ready {
		e.startup.Refresh()
	}
	e.log.Infof("started with %d overlays", len(e.registry.GetAll()))
	return cfgErr
}

// Stop releases every gesture, unsubscribes and tears rendering down.
func (e *Engine) Stop() {
	if !e.started {
		return
	}
	e.keyboard.ClearAllKeys()
	e.drag.End("")
	if cur := e.hover.Current(); cur != "" {
		e.hover.Leave(cur)
	}
	e.startup.Clear()
	e.helper.ClearTracking()
	for _, s := range e.subs {
		e.bus.Unsubscribe(s)
	}
	e.subs = nil
	e.renderer.Teardown()
	e.started = false
	e.log.Infof("stopped")
}

func (e *Engine) on(t event.Type, fn event.Handler) {
	e.subs = append(e.subs, e.bus.Subscribe(t, fn))
}

func (e *Engine) subscribe() {
	e.on(event.CanvasReady, func(event.Event) {
		if e.renderer.Initialise() {
			e.startup.Refresh()
		}
	})
	e.on(event.CanvasTeardown, func(event.Event) {
		e.keyboard.ClearAllKeys()
		e.drag.End("")
		if cur := e.hover.Current(); cur != "" {
			e.hover.Leave(cur)
		}
		e.startup.Clear()
		e.helper.ClearTracking()
		e.renderer.Teardown()
		e.renderer.Initialise()
	})

	e.on(event.TokenCreated, func(ev event.Event) {
		if _, ok := payload[event.TokenPayload](e, ev); ok {
			e.startup.Refresh()
		}
	})
	e.on(event.TokenUpdated, func(ev event.Event) {
		p, ok := payload[event.TokenUpdatePayload](e, ev)
		if !ok {
			return
		}
		if p.Moved {
			e.helper.RerenderTracked(p.TokenID, overlay.ChangeMovement)
		}
		if p.Rotated {
			e.helper.RerenderTracked(p.TokenID, overlay.ChangeRotation)
		}
	})
	e.on(event.TokenDeleted, func(ev event.Event) {
		p, ok := payload[event.TokenPayload](e, ev)
		if !ok {
			return
		}
		if e.drag.Active() == p.TokenID {
			e.drag.End(p.TokenID)
		}
		e.hover.Leave(p.TokenID)
		e.renderer.ClearAllTokenOverlays(p.TokenID)
		e.helper.ForgetToken(p.TokenID)
		e.tracker.Forget(p.TokenID)
	})
	e.on(event.TokenControlled, func(ev event.Event) {
		p, ok := payload[event.ControlPayload](e, ev)
		if !ok {
			return
		}
		e.helper.RerenderTracked(p.TokenID, overlay.ChangeControl)
		e.startup.Refresh()
	})
	e.on(event.TokenHovered, func(ev event.Event) {
		p, ok := payload[event.HoverPayload](e, ev)
		if !ok {
			return
		}
		if p.Hovered {
			e.hover.Enter(p.TokenID)
		} else {
			e.hover.Leave(p.TokenID)
		}
	})

	e.on(event.TokenDragStart, func(ev event.Event) {
		if p, ok := payload[event.DragPayload](e, ev); ok {
			e.drag.Start(p.TokenID, p.PreviewID)
		}
	})
	e.on(event.TokenDragMove, func(ev event.Event) {
		if p, ok := payload[event.DragPayload](e, ev); ok {
			e.drag.Move(p.TokenID, p.PreviewID)
		}
	})
	e.on(event.TokenDragEnd, func(ev event.Event) {
		if p, ok := payload[event.DragPayload](e, ev); ok {
			e.drag.End(p.TokenID)
		}
	})
	e.on(event.TokenDragCancel, func(ev event.Event) {
		if p, ok := payload[event.DragPayload](e, ev); ok {
			e.drag.Cancel(p.TokenID)
		}
	})

	e.on(event.ActorUpdated, func(ev event.Event) {
		p, ok := payload[event.ActorPayload](e, ev)
		if !ok || !p.HealthChanged {
			return
		}
		for _, t := range e.platform.TokensForActor(p.ActorID) {
			e.helper.RerenderTracked(t.ID(), overlay.ChangeHealth)
		}
	})

	e.on(event.KeyDown, func(ev event.Event) {
		if p, ok := payload[event.KeyPayload](e, ev); ok {
			e.keyboard.KeyDown(p.Key)
		}
	})
	e.on(event.KeyUp, func(ev event.Event) {
		if p, ok := payload[event.KeyPayload](e, ev); ok {
			e.keyboard.KeyUp(p.Key)
		}
	})
}

// payload extracts the typed payload of ev, logging a mismatch.
func payload[T any](e *Engine, ev event.Event) (T, bool) {
	p, ok := ev.Payload.(T)
	if !ok {
		e.log.Warnf("%s: unexpected payload %T", ev.Type, ev.Payload)
	}
	return p, ok
}

// Started reports whether Start has run without a matching Stop.
func (e *Engine) Started() bool { return e.started }

// Registry is the overlay catalogue.
func (e *Engine) Registry() *overlay.Registry { return e.registry }

// Builders is the context builder registry, for custom overlays.
func (e *Engine) Builders() *overlay.BuilderRegistry { return e.builders }

// Renderer is the rendering service, for painters and inspection.
func (e *Engine) Renderer() *render.Service { return e.renderer }

// Health is the obfuscator used for health arcs.
func (e *Engine) Health() *health.Obfuscator { return e.health }

// Tracker is the tracking number source.
func (e *Engine) Tracker() *tracking.Tracker { return e.tracker }

// Keyboard is the key gesture coordinator.
func (e *Engine) Keyboard() *coordinator.Keyboard { return e.keyboard }

// Drag is the drag gesture coordinator.
func (e *Engine) Drag() *coordinator.Drag { return e.drag }

// Frame snapshots the visible overlays.
func (e *Engine) Frame() []render.Drawable { return e.renderer.Frame() }
