package overlay

import (
	"errors"
	"slices"
	"testing"

	"github.com/Garsondee/tactical-overlays/internal/host"
)

func TestRegistry_RegisterUpsertKeepsOrder(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(&Definition{ID: "a"}, &Definition{ID: "b"}, &Definition{ID: "c"})

	replacement := &Definition{ID: "a", Name: "second"}
	if err := r.Register(replacement); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if got := r.GetAllIDs(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Fatalf("order = %v", got)
	}
	if d, _ := r.Get("a"); d != replacement {
		t.Fatal("upsert should replace the stored definition")
	}
}

func TestRegistry_RejectsInvalid(t *testing.T) {
	r := NewRegistry(nil)
	if err := r.Register(nil); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("nil: err = %v", err)
	}
	if err := r.Register(&Definition{}); !errors.Is(err, ErrInvalidDefinition) {
		t.Fatalf("empty id: err = %v", err)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(&Definition{ID: "a"}, &Definition{ID: "b"})
	if !r.Unregister("a") || r.Unregister("a") {
		t.Fatal("Unregister should report existence once")
	}
	if r.Has("a") || len(r.GetAll()) != 1 {
		t.Fatal("a should be gone")
	}
}

func TestRegistry_FilterByTriggerTruthiness(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(
		&Definition{ID: "keys", Triggers: map[TriggerKind]*TriggerConfig{TriggerKeyPress: {Keys: []string{"Alt"}}}},
		&Definition{ID: "empty-keys", Triggers: map[TriggerKind]*TriggerConfig{TriggerKeyPress: {Keys: []string{}}}},
		&Definition{ID: "nil-trigger", Triggers: map[TriggerKind]*TriggerConfig{TriggerKeyPress: nil}},
		&Definition{ID: "scope-only", Triggers: map[TriggerKind]*TriggerConfig{TriggerTokenDragMove: {Scope: ScopePreview}}},
		&Definition{ID: "none"},
	)

	ids := func(defs []*Definition) []string {
		var out []string
		for _, d := range defs {
			out = append(out, d.ID)
		}
		return out
	}
	if got := ids(r.FilterByTrigger(TriggerKeyPress)); !slices.Equal(got, []string{"keys"}) {
		t.Fatalf("keyPress = %v", got)
	}
	if got := ids(r.FilterByTrigger(TriggerTokenDragMove)); !slices.Equal(got, []string{"scope-only"}) {
		t.Fatalf("dragMove = %v", got)
	}
	if got := ids(r.FilterByKeyTrigger("alt")); !slices.Equal(got, []string{"keys"}) {
		t.Fatalf("key alt = %v", got)
	}
	if got := r.FilterByKeyTrigger("shift"); len(got) != 0 {
		t.Fatalf("key shift = %v", got)
	}
}

func TestRegistry_StartupOverlays(t *testing.T) {
	r := NewRegistry(nil)
	r.MustRegister(Defaults()...)
	got := r.StartupOverlays()
	if len(got) != 1 || got[0].ID != IDControlledMarker {
		t.Fatalf("startup = %v", got)
	}
}

func TestDefinition_CloneIsDeep(t *testing.T) {
	d := Defaults()[0]
	c := d.Clone()
	c.Triggers[TriggerKeyPress].Keys[0] = "ctrl"
	c.Styling["arc"] = Style{LineWidth: 99}
	if d.Trigger(TriggerKeyPress).Keys[0] != "alt" {
		t.Fatal("clone shares trigger keys")
	}
	if d.Style("arc", Style{}).LineWidth != 5 {
		t.Fatal("clone shares styling")
	}
}

func TestDefinition_ScopeForDefaultsToAll(t *testing.T) {
	d := &Definition{ID: "x", Triggers: map[TriggerKind]*TriggerConfig{TriggerKeyPress: {Keys: []string{"a"}}}}
	if d.ScopeFor(TriggerKeyPress) != ScopeAll || d.ScopeFor(TriggerTokenHover) != ScopeAll {
		t.Fatal("unset scope should be all")
	}
}

func TestDisplayOn_Supports(t *testing.T) {
	d := DisplayOn{Square: true}
	if !d.Supports(host.GridSquare) || d.Supports(host.GridHexRows) {
		t.Fatal("Supports mismatch")
	}
}

func TestBuilderRegistry_Resolve(t *testing.T) {
	br := NewBuilderRegistry(nil)
	inline := BuilderFunc(func(host.Token, *Definition, Options) (*RenderContext, error) { return nil, nil })

	if _, err := br.Resolve(&Definition{ID: "x"}); !errors.Is(err, ErrNoBuilder) {
		t.Fatalf("missing builder err = %v", err)
	}
	br.Register("x", BuilderFunc(buildBoundary))
	if b, err := br.Resolve(&Definition{ID: "x"}); err != nil || b == nil {
		t.Fatalf("registered builder: %v", err)
	}
	if _, err := br.Resolve(&Definition{ID: "y", ContextBuilder: inline}); err != nil {
		t.Fatalf("inline builder: %v", err)
	}
	if !br.Unregister("x") || br.Has("x") {
		t.Fatal("Unregister failed")
	}
}
