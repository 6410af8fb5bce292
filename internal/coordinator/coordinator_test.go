package coordinator

import (
	"errors"
	"image/color"
	"slices"
	"testing"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/render"
	"github.com/Garsondee/tactical-overlays/internal/tracking"
)

// countingRenderer counts render calls per instance key.
type countingRenderer struct {
	*render.Service
	renders map[string]int
}

func (c *countingRenderer) RenderTokenOverlay(ctx *overlay.RenderContext) error {
	c.renders[render.InstanceKey(ctx.Token.ID, ctx.OverlayID)]++
	return c.Service.RenderTokenOverlay(ctx)
}

type rig struct {
	world    *host.World
	registry *overlay.Registry
	svc      *render.Service
	renderer *countingRenderer
	helper   *Helper
}

// newRig builds a player's view of five tokens:
//
//	hero  owned + controlled
//	ally  owned
//	orc   hostile stranger
//	ghost hidden by the GM
//	spy   invisible
func newRig(t *testing.T) *rig {
	t.Helper()
	w := host.NewWorld()
	w.AddUser(host.NewUser("p1", "Player", false, color.RGBA{G: 200, A: 255}))
	w.AddUser(host.NewUser("gm", "GM", true, color.RGBA{A: 255}))

	w.AddActor(host.NewActor("hero-actor", host.HitPoints{Value: 20, Max: 20}, 14))
	w.AddActor(host.NewActor("orc-actor", host.HitPoints{Value: 15, Max: 30}, 10))

	add := func(id string, x, y float64, edit func(*host.TokenState)) {
		tok := host.NewToken(id, id, x, y, 50)
		if edit != nil {
			edit(tok)
		}
		w.AddToken(tok)
	}
	add("hero", 0, 0, func(t *host.TokenState) { t.OwnerIDs = []string{"p1"}; t.ActorID = "hero-actor"; t.Disp = host.DispositionFriendly })
	add("ally", 0, 100, func(t *host.TokenState) { t.OwnerIDs = []string{"p1"}; t.Disp = host.DispositionFriendly })
	add("orc", 200, 0, func(t *host.TokenState) { t.ActorID = "orc-actor"; t.Disp = host.DispositionHostile })
	add("ghost", 300, 300, func(t *host.TokenState) { t.IsHidden = true })
	add("spy", 400, 400, func(t *host.TokenState) { t.Invisible = true })
	w.SetControlled("hero", true)
	w.SceneCanvas().MarkReady()

	reg := overlay.NewRegistry(nil)
	reg.MustRegister(overlay.Defaults()...)
	builders := overlay.NewBuilderRegistry(nil)
	overlay.RegisterDefaults(builders)

	svc := render.NewService(w.Canvas(), reg, event.NewBus(nil), nil)
	render.RegisterDefaultPainters(svc)
	svc.Initialise()
	cr := &countingRenderer{Service: svc, renders: make(map[string]int)}

	obf := health.NewObfuscator(w, func() time.Time { return time.UnixMilli(0) }, nil)
	tr := tracking.NewTracker(w, 1, nil)
	return &rig{
		world:    w,
		registry: reg,
		svc:      svc,
		renderer: cr,
		helper:   NewHelper(w, reg, builders, cr, obf, tr, nil),
	}
}

func ids(tokens []host.Token) []string {
	var out []string
	for _, t := range tokens {
		out = append(out, t.ID())
	}
	return out
}

func TestResolveScope_Partition(t *testing.T) {
	r := newRig(t)
	cases := []struct {
		scope overlay.TargetScope
		want  []string
	}{
		{overlay.ScopeAll, []string{"hero", "ally", "orc", "ghost", "spy"}},
		{overlay.ScopeVisible, []string{"hero", "ally", "orc"}},
		{overlay.ScopeVisibleAndNotHidden, []string{"hero", "ally", "orc"}},
		{overlay.ScopeControlled, []string{"hero"}},
		{overlay.ScopeOwned, []string{"hero", "ally"}},
		{overlay.ScopeNonControlled, []string{"ally", "orc"}},
		{overlay.ScopeHovered, nil},
		{overlay.ScopePreview, nil},
		{overlay.TargetScope("sideways"), []string{"hero", "ally", "orc"}},
	}
	for _, c := range cases {
		if got := ids(r.helper.ResolveScope(c.scope, nil)); !slices.Equal(got, c.want) {
			t.Errorf("%s: got %v want %v", c.scope, got, c.want)
		}
	}
}

func TestResolveScope_GMSeesHidden(t *testing.T) {
	r := newRig(t)
	if err := r.world.SetCurrentUser("gm"); err != nil {
		t.Fatal(err)
	}
	if got := ids(r.helper.ResolveScope(overlay.ScopeVisible, nil)); !slices.Equal(got, []string{"hero", "ally", "orc", "ghost"}) {
		t.Fatalf("visible = %v", got)
	}
	if got := ids(r.helper.ResolveScope(overlay.ScopeVisibleAndNotHidden, nil)); slices.Contains(got, "ghost") {
		t.Fatalf("hidden token leaked: %v", got)
	}
	// Owned is always a subset of visible and not hidden.
	for _, o := range r.helper.ResolveScope(overlay.ScopeOwned, nil) {
		if !o.Visible() || o.Hidden() {
			t.Fatalf("owned includes %s", o.ID())
		}
	}
}

func TestResolveScope_Preview(t *testing.T) {
	r := newRig(t)
	p, _ := r.world.BeginPreview("hero")
	if got := ids(r.helper.ResolveScope(overlay.ScopePreview, p)); !slices.Equal(got, []string{"hero-preview"}) {
		t.Fatalf("preview = %v", got)
	}
}

func TestProcess_SkipsUnpaintedAndGroupsInOrder(t *testing.T) {
	r := newRig(t)
	r.registry.MustRegister(&overlay.Definition{
		ID:       "unpainted",
		Triggers: map[overlay.TriggerKind]*overlay.TriggerConfig{overlay.TriggerKeyPress: {Keys: []string{"alt"}, Scope: overlay.ScopeAll}},
	})

	groups := r.helper.ProcessOverlaysByScope(r.registry.FilterByKeyTrigger("alt"), overlay.TriggerKeyPress, nil)
	if len(groups) != 2 {
		t.Fatalf("groups = %+v", groups)
	}
	if groups[0].Scope != overlay.ScopeVisible || groups[1].Scope != overlay.ScopeNonControlled {
		t.Fatalf("scope order = %s, %s", groups[0].Scope, groups[1].Scope)
	}
	if r.helper.TrackedCount() != 5 {
		t.Fatalf("tracked = %d", r.helper.TrackedCount())
	}
	if got := r.helper.Tracked("orc"); !slices.Equal(got, []string{overlay.IDHealthArc, overlay.IDTokenInfo}) {
		t.Fatalf("orc tracked = %v", got)
	}
}

func TestProcess_MissingBuilderSkipsOnlyThatOverlay(t *testing.T) {
	r := newRig(t)
	r.registry.MustRegister(&overlay.Definition{
		ID:       "orphan",
		Triggers: map[overlay.TriggerKind]*overlay.TriggerConfig{overlay.TriggerKeyPress: {Keys: []string{"alt"}, Scope: overlay.ScopeVisible}},
	})
	r.svc.RegisterPainter("orphan", render.PaintBoundary)

	r.helper.ProcessOverlaysByScope(r.registry.FilterByKeyTrigger("alt"), overlay.TriggerKeyPress, nil)
	if !r.svc.IsVisible("orc", overlay.IDHealthArc) {
		t.Fatal("other overlays must still render")
	}
	if r.svc.IsVisible("orc", "orphan") {
		t.Fatal("orphan has no builder")
	}
}

func TestProcess_ConditionAndGrid(t *testing.T) {
	r := newRig(t)
	allowed := false
	r.registry.MustRegister(&overlay.Definition{
		ID: "gated",
		Triggers: map[overlay.TriggerKind]*overlay.TriggerConfig{
			overlay.TriggerKeyPress: {Keys: []string{"g"}, Scope: overlay.ScopeControlled, Condition: func() bool { return allowed }},
		},
		ContextBuilder: overlay.BuilderFunc(func(tok host.Token, d *overlay.Definition, _ overlay.Options) (*overlay.RenderContext, error) {
			return overlay.BaseContext(tok, d), nil
		}),
	})
	r.svc.RegisterPainter("gated", render.PaintBoundary)

	defs := r.registry.FilterByKeyTrigger("g")
	if len(r.helper.ProcessOverlaysByScope(defs, overlay.TriggerKeyPress, nil)) != 0 {
		t.Fatal("condition false should block rendering")
	}
	allowed = true
	if len(r.helper.ProcessOverlaysByScope(defs, overlay.TriggerKeyPress, nil)) != 1 {
		t.Fatal("condition true should render")
	}

	// token-boundary is not offered on hex grids.
	r.world.SceneCanvas().SetGridType(host.GridHexRows)
	if got := r.helper.ProcessOverlaysByScope(r.registry.FilterByTrigger(overlay.TriggerTokenDragStart), overlay.TriggerTokenDragStart, nil); len(got) != 0 {
		t.Fatalf("hex grid groups = %+v", got)
	}
}

func TestKeyboard_GestureSymmetry(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)

	if !kb.KeyDown("Alt") {
		t.Fatal("first key-down should start a press")
	}
	before := len(r.renderer.renders)
	calls := 0
	for _, n := range r.renderer.renders {
		calls += n
	}
	if kb.KeyDown("alt") {
		t.Fatal("repeat key-down should be ignored")
	}
	after := 0
	for _, n := range r.renderer.renders {
		after += n
	}
	if after != calls || len(r.renderer.renders) != before {
		t.Fatal("repeat key-down must not render")
	}

	shown := kb.ShownFor("alt")
	if !slices.Equal(shown, []string{overlay.IDHealthArc, overlay.IDTokenInfo}) {
		t.Fatalf("shown = %v", shown)
	}
	if !kb.KeyUp("ALT") {
		t.Fatal("key-up should end the press")
	}
	if frame := r.svc.Frame(); len(frame) != 0 {
		t.Fatalf("%s still visible after key-up", frame[0].Key)
	}
	if kb.KeyUp("alt") {
		t.Fatal("unmatched key-up must be a no-op")
	}
	if len(r.svc.Instances()) != 5 {
		t.Fatalf("hide must not destroy, have %v", r.svc.Instances())
	}
	if r.helper.TrackedCount() != 0 {
		t.Fatalf("tracking should be empty, have %d", r.helper.TrackedCount())
	}
}

func TestKeyboard_IndependentKeys(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)
	kb.KeyDown("alt")
	kb.KeyDown("shift")
	if !slices.Equal(kb.Pressed(), []string{"alt", "shift"}) {
		t.Fatalf("pressed = %v", kb.Pressed())
	}

	kb.KeyUp("alt")
	if !r.svc.IsVisible("hero", overlay.IDFacingArc) {
		t.Fatal("shift overlays must survive alt release")
	}
	if r.svc.IsVisible("orc", overlay.IDHealthArc) {
		t.Fatal("alt overlays should be hidden")
	}

	kb.ClearAllKeys()
	if r.svc.IsVisible("hero", overlay.IDFacingArc) || len(kb.Pressed()) != 0 {
		t.Fatal("ClearAllKeys should hide and reset")
	}
}

func TestKeyboard_UntrackedKeyIgnored(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)
	if kb.IsTracked("q") || kb.KeyDown("q") || kb.KeyUp("q") {
		t.Fatal("q is not bound")
	}
	if !kb.IsTracked("V") {
		t.Fatal("v is bound to vision-range")
	}
}

func TestKeyboard_KeyUpHidesWholeOverlayType(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)
	kb.KeyDown("alt")

	// ghost is outside every alt scope; give it a health arc of its own.
	ghost, _ := r.world.Token("ghost")
	def, _ := r.registry.Get(overlay.IDHealthArc)
	if err := r.helper.RenderOverlay(ghost, def, r.helper.Options(ghost, def, Request{})); err != nil {
		t.Fatal(err)
	}
	if !r.svc.IsVisible("ghost", overlay.IDHealthArc) {
		t.Fatal("ghost health arc should render")
	}

	kb.KeyUp("alt")
	if r.svc.IsVisible("ghost", overlay.IDHealthArc) {
		t.Fatal("key-up hides every drawable of the cached types")
	}
	if got := r.helper.Tracked("ghost"); len(got) != 0 {
		t.Fatalf("ghost still tracked: %v", got)
	}
}

func TestProcess_FailedRenderLeftOutOfGroup(t *testing.T) {
	r := newRig(t)
	r.registry.MustRegister(&overlay.Definition{
		ID:       "picky",
		Triggers: map[overlay.TriggerKind]*overlay.TriggerConfig{overlay.TriggerKeyPress: {Keys: []string{"p"}, Scope: overlay.ScopeVisible}},
		ContextBuilder: overlay.BuilderFunc(func(tok host.Token, d *overlay.Definition, _ overlay.Options) (*overlay.RenderContext, error) {
			if tok.ID() == "orc" {
				return nil, errors.New("no context for orc")
			}
			return overlay.BaseContext(tok, d), nil
		}),
	})
	r.svc.RegisterPainter("picky", render.PaintBoundary)

	kb := NewKeyboard(r.helper, r.registry, nil)
	groups := r.helper.ProcessOverlaysByScope(r.registry.FilterByKeyTrigger("p"), overlay.TriggerKeyPress, nil)
	if len(groups) != 1 || len(groups[0].Targets) != 3 {
		t.Fatalf("groups = %+v", groups)
	}
	var got []string
	for _, p := range groups[0].Pairs {
		got = append(got, p.TokenID)
	}
	if !slices.Equal(got, []string{"hero", "ally"}) {
		t.Fatalf("rendered pairs = %v", got)
	}

	shown := make(Shown)
	shown.Add(groups)
	if shown.Len() != 2 || shown["orc"] != nil {
		t.Fatalf("shown = %v", shown)
	}

	kb.KeyDown("p")
	if r.svc.IsVisible("orc", "picky") {
		t.Fatal("orc render failed and must not be visible")
	}
}

func TestKeyboard_HealthAndTrackingOptions(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)
	kb.KeyDown("alt")

	n, ok := r.world.Flag("orc", tracking.FlagScope, tracking.FlagKey)
	if !ok || !tracking.Valid(n) {
		t.Fatalf("orc should have a persisted tracking number, got %q", n)
	}
	frame := r.svc.Frame()
	found := false
	for _, d := range frame {
		if d.Key != "orc:token-info" {
			continue
		}
		for _, c := range d.Commands {
			if c.Text == "Bandit "+n {
				found = true
			}
		}
	}
	if !found {
		t.Fatalf("orc tag should read Bandit %s", n)
	}
}

func TestRerenderTracked_UpdateOn(t *testing.T) {
	r := newRig(t)
	kb := NewKeyboard(r.helper, r.registry, nil)
	kb.KeyDown("alt")

	if n := r.helper.RerenderTracked("orc", overlay.ChangeHealth); n != 1 {
		t.Fatalf("rerendered %d, want health arc only", n)
	}
	if n := r.helper.RerenderTracked("orc", overlay.ChangeRotation); n != 0 {
		t.Fatalf("rotation rerendered %d", n)
	}
	if n := r.helper.RerenderTracked("nobody", overlay.ChangeHealth); n != 0 {
		t.Fatal("unknown token")
	}
}

func TestHelper_HideOverlaysForTokens(t *testing.T) {
	r := newRig(t)
	NewKeyboard(r.helper, r.registry, nil).KeyDown("alt")
	r.helper.HideOverlaysForTokens([]string{"orc"})
	if r.svc.IsVisible("orc", overlay.IDHealthArc) || !r.svc.IsVisible("ally", overlay.IDHealthArc) {
		t.Fatal("only orc should be hidden")
	}
	r.helper.HideAllTrackedOverlays()
	if len(r.svc.Frame()) != 0 || r.helper.TrackedCount() != 0 {
		t.Fatal("everything should be hidden and untracked")
	}
}

func TestHover_EnterLeave(t *testing.T) {
	r := newRig(t)
	hv := NewHover(r.helper, r.registry)

	r.world.SetHovered("orc")
	hv.Enter("orc")
	if !r.svc.IsVisible("orc", overlay.IDHoverName) {
		t.Fatal("hover name should show")
	}

	r.world.SetHovered("ally")
	hv.Enter("ally")
	if r.svc.IsVisible("orc", overlay.IDHoverName) || !r.svc.IsVisible("ally", overlay.IDHoverName) {
		t.Fatal("hover should move to ally")
	}

	hv.Leave("orc")
	if !r.svc.IsVisible("ally", overlay.IDHoverName) {
		t.Fatal("leaving a different token is a no-op")
	}
	r.world.SetHovered("")
	hv.Leave("ally")
	if r.svc.IsVisible("ally", overlay.IDHoverName) || hv.Current() != "" {
		t.Fatal("leave should hide")
	}
}

func TestStartup_FollowsControl(t *testing.T) {
	r := newRig(t)
	st := NewStartup(r.helper, r.registry)
	st.Refresh()
	if !r.svc.IsVisible("hero", overlay.IDControlledMarker) || r.svc.IsVisible("ally", overlay.IDControlledMarker) {
		t.Fatal("marker should follow control")
	}

	r.world.SetControlled("hero", false)
	r.world.SetControlled("ally", true)
	st.Refresh()
	if r.svc.IsVisible("hero", overlay.IDControlledMarker) || !r.svc.IsVisible("ally", overlay.IDControlledMarker) {
		t.Fatal("marker should move with control")
	}
	st.Clear()
	if r.svc.IsVisible("ally", overlay.IDControlledMarker) {
		t.Fatal("clear should hide")
	}
}
