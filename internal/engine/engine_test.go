package engine

import (
	"image/color"
	"testing"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/config"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
)

func newWorld() *host.World {
	w := host.NewWorld()
	w.AddUser(host.NewUser("p1", "Player", false, color.RGBA{R: 200, A: 255}))
	w.AddActor(host.NewActor("orc-actor", host.HitPoints{Value: 10, Max: 30}, 10))

	hero := host.NewToken("hero", "Hero", 0, 0, 50)
	hero.OwnerIDs = []string{"p1"}
	orc := host.NewToken("orc", "Orc", 200, 0, 50)
	orc.ActorID = "orc-actor"
	orc.Disp = host.DispositionHostile
	w.AddToken(hero)
	w.AddToken(orc)
	w.SetControlled("hero", true)
	return w
}

func start(t *testing.T, w *host.World, cfg config.Config) (*Engine, *event.Bus) {
	t.Helper()
	bus := event.NewBus(nil)
	cfg.TrackingSeed = 7
	e, err := New(Deps{
		Platform:  w,
		Bus:       bus,
		Validator: host.NewObstacleValidator(),
		Config:    cfg,
		Clock:     func() time.Time { return time.UnixMilli(0) },
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	return e, bus
}

func visible(e *Engine, tokenID, overlayID string) bool {
	return e.Renderer().IsVisible(tokenID, overlayID)
}

func TestNew_RequiresCollaborators(t *testing.T) {
	if _, err := New(Deps{Bus: event.NewBus(nil)}); err == nil {
		t.Fatal("missing platform should fail")
	}
	if _, err := New(Deps{Platform: host.NewWorld()}); err == nil {
		t.Fatal("missing bus should fail")
	}
}

func TestStart_DefersUntilCanvasReady(t *testing.T) {
	w := newWorld()
	e, bus := start(t, w, config.Default())
	if e.Renderer().Ready() || len(e.Frame()) != 0 {
		t.Fatal("nothing should render before the canvas is ready")
	}

	w.SceneCanvas().MarkReady()
	bus.Publish(event.Event{Type: event.CanvasReady})
	if !e.Renderer().Ready() {
		t.Fatal("renderer should initialise on CanvasReady")
	}
	if !visible(e, "hero", overlay.IDControlledMarker) {
		t.Fatal("startup overlay should show on the controlled token")
	}
}

func TestKeyGestureThroughBus(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())

	bus.Publish(event.Event{Type: event.KeyDown, Payload: event.KeyPayload{Key: "Alt"}})
	if !visible(e, "orc", overlay.IDHealthArc) || !visible(e, "hero", overlay.IDHealthArc) {
		t.Fatal("alt should show health arcs on visible tokens")
	}
	if !visible(e, "orc", overlay.IDTokenInfo) {
		t.Fatal("alt should label non-controlled tokens")
	}

	bus.Publish(event.Event{Type: event.KeyUp, Payload: event.KeyPayload{Key: "Alt"}})
	if visible(e, "orc", overlay.IDHealthArc) || visible(e, "orc", overlay.IDTokenInfo) {
		t.Fatal("key up should hide what key down showed")
	}
	if !visible(e, "hero", overlay.IDControlledMarker) {
		t.Fatal("key up must not touch startup overlays")
	}
}

func TestTokenDeletedClearsDrawables(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())

	bus.Publish(event.Event{Type: event.KeyDown, Payload: event.KeyPayload{Key: "alt"}})
	before := e.Tracker().Assigned()
	w.RemoveToken("orc")
	bus.Publish(event.Event{Type: event.TokenDeleted, Payload: event.TokenPayload{TokenID: "orc"}})

	for _, d := range e.Frame() {
		if d.TokenID == "orc" {
			t.Fatalf("orc drawable survived deletion: %s", d.Key)
		}
	}
	if e.Tracker().Assigned() != before-1 {
		t.Fatal("tracking number should be released")
	}
}

func TestCanvasTeardownAndRebuild(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())
	bus.Publish(event.Event{Type: event.KeyDown, Payload: event.KeyPayload{Key: "alt"}})

	w.SceneCanvas().Teardown()
	bus.Publish(event.Event{Type: event.CanvasTeardown})
	if e.Renderer().Ready() || len(e.Frame()) != 0 {
		t.Fatal("teardown should drop every drawable")
	}
	if len(e.Keyboard().Pressed()) != 0 {
		t.Fatal("teardown should release held keys")
	}

	w.SceneCanvas().Rebuild(w)
	w.SceneCanvas().MarkReady()
	bus.Publish(event.Event{Type: event.CanvasReady})
	if !visible(e, "hero", overlay.IDControlledMarker) {
		t.Fatal("startup overlays should return with the canvas")
	}
}

func TestControlChangeRefreshesStartup(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())

	w.SetControlled("hero", false)
	w.SetControlled("orc", true)
	bus.Publish(event.Event{Type: event.TokenControlled, Payload: event.ControlPayload{TokenID: "hero"}})
	if visible(e, "hero", overlay.IDControlledMarker) || !visible(e, "orc", overlay.IDControlledMarker) {
		t.Fatal("marker should follow control")
	}
}

func TestStopUnsubscribes(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())
	e.Stop()
	e.Stop()

	bus.Publish(event.Event{Type: event.KeyDown, Payload: event.KeyPayload{Key: "alt"}})
	if len(e.Frame()) != 0 {
		t.Fatal("stopped engine should not render")
	}
	if n := bus.Handlers(event.KeyDown); n != 0 {
		t.Fatalf("%d key handlers left", n)
	}
}

func TestStart_ConfigOverrides(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	cfg := config.Default()
	cfg.Overlays = map[string]config.OverlayOverride{
		overlay.IDControlledMarker: {Disabled: true},
		overlay.IDVisionRange:      {Keys: []string{"R"}},
	}
	e, bus := start(t, w, cfg)

	if e.Registry().Has(overlay.IDControlledMarker) {
		t.Fatal("disabled overlay registered")
	}
	bus.Publish(event.Event{Type: event.KeyDown, Payload: event.KeyPayload{Key: "r"}})
	if !visible(e, "hero", overlay.IDVisionRange) {
		t.Fatal("rebound key should show vision range")
	}
}

func TestUnexpectedPayloadIgnored(t *testing.T) {
	w := newWorld()
	w.SceneCanvas().MarkReady()
	e, bus := start(t, w, config.Default())
	bus.Publish(event.Event{Type: event.KeyDown, Payload: "alt"})
	if len(e.Keyboard().Pressed()) != 0 {
		t.Fatal("malformed event should be dropped")
	}
}
