package bridge

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
)

type recorder struct {
	bus    *event.Bus
	events []event.Event
}

func newRecorder() *recorder {
	r := &recorder{bus: event.NewBus(nil)}
	for t := event.CanvasReady; t <= event.KeyUp; t++ {
		r.bus.Subscribe(t, func(e event.Event) { r.events = append(r.events, e) })
	}
	return r
}

// drain delivers queued events and returns them, resetting the record.
func (r *recorder) drain() []event.Event {
	r.bus.Drain()
	out := r.events
	r.events = nil
	return out
}

func types(evs []event.Event) []event.Type {
	out := make([]event.Type, len(evs))
	for i, e := range evs {
		out[i] = e.Type
	}
	return out
}

func mustApply(t *testing.T, a *Applier, raw string) {
	t.Helper()
	typ, msg, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode(%s): %v", raw, err)
	}
	if err := a.Apply(typ, msg); err != nil {
		t.Fatalf("Apply(%s): %v", raw, err)
	}
}

func TestApply_TokenUpsert(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)

	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"orc","name":"Orc","x":100,"y":50,"width":50,"height":50,"disposition":"hostile","owners":["p2"]}}`)
	evs := rec.drain()
	if len(evs) != 1 || evs[0].Type != event.TokenCreated {
		t.Fatalf("events = %v", types(evs))
	}
	tok, ok := w.TokenState("orc")
	if !ok || tok.Disp != host.DispositionHostile || tok.W != 50 || len(tok.OwnerIDs) != 1 {
		t.Fatalf("token = %+v", tok)
	}

	// Identical state changes nothing.
	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"orc","name":"Orc","x":100,"y":50,"width":50,"height":50,"disposition":"hostile","owners":["p2"]}}`)
	if evs := rec.drain(); len(evs) != 0 {
		t.Fatalf("unchanged upsert posted %v", types(evs))
	}

	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"orc","name":"Orc","x":150,"y":50,"width":50,"height":50,"rotation":90,"disposition":"hostile"}}`)
	evs = rec.drain()
	if len(evs) != 1 || evs[0].Type != event.TokenUpdated {
		t.Fatalf("events = %v", types(evs))
	}
	p := evs[0].Payload.(event.TokenUpdatePayload)
	if !p.Moved || !p.Rotated {
		t.Fatalf("payload = %+v", p)
	}
	if tok.X != 150 || tok.Rot != 90 {
		t.Fatalf("token not updated: %+v", tok)
	}
}

func TestApply_Rejects(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)

	cases := []struct {
		raw  string
		want error
	}{
		{`{"type":"tokenDelete","payload":{"id":"ghost"}}`, ErrUnknownToken},
		{`{"type":"tokenControl","payload":{"id":"ghost","controlled":true}}`, ErrUnknownToken},
		{`{"type":"tokenHover","payload":{"id":"ghost","hovered":true}}`, ErrUnknownToken},
		{`{"type":"dragStart","payload":{"tokenId":"ghost"}}`, ErrUnknownToken},
	}
	for _, c := range cases {
		typ, msg, err := Decode([]byte(c.raw))
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Apply(typ, msg); !errors.Is(err, c.want) {
			t.Errorf("%s: err = %v, want %v", typ, err, c.want)
		}
	}

	for _, raw := range []string{
		`{"type":"tokenUpsert","payload":{"id":"x","disposition":"sneaky"}}`,
		`{"type":"canvasReady","payload":{"grid":"triangles"}}`,
		`{"type":"user","payload":{"id":"u","colour":"red"}}`,
		`{"type":"user","payload":{"name":"no id"}}`,
	} {
		typ, msg, err := Decode([]byte(raw))
		if err != nil {
			t.Fatal(err)
		}
		if err := a.Apply(typ, msg); err == nil {
			t.Errorf("%s should be rejected", raw)
		}
	}
	if evs := rec.drain(); len(evs) != 0 {
		t.Fatalf("rejected messages posted %v", types(evs))
	}
}

func TestApply_DragLifecycle(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)
	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"hero","x":0,"y":0,"width":50,"height":50}}`)
	rec.drain()

	mustApply(t, a, `{"type":"dragStart","payload":{"tokenId":"hero"}}`)
	previewID, ok := a.Dragging("hero")
	if !ok || previewID != "hero-preview" {
		t.Fatalf("preview = %q, %v", previewID, ok)
	}
	mustApply(t, a, `{"type":"dragMove","payload":{"tokenId":"hero","x":120,"y":40}}`)
	p, ok := w.PreviewToken(previewID)
	if !ok {
		t.Fatal("preview missing")
	}
	if x, y := p.Position(); x != 120 || y != 40 {
		t.Fatalf("preview at %v,%v", x, y)
	}
	if tok, _ := w.TokenState("hero"); tok.X != 0 {
		t.Fatal("token moved before the drop")
	}

	mustApply(t, a, `{"type":"dragEnd","payload":{"tokenId":"hero","commit":true}}`)
	got := types(rec.drain())
	want := []event.Type{event.TokenDragStart, event.TokenDragMove, event.TokenDragEnd, event.TokenUpdated}
	if len(got) != len(want) {
		t.Fatalf("events = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("events = %v, want %v", got, want)
		}
	}
	if tok, _ := w.TokenState("hero"); tok.X != 120 || tok.Y != 40 {
		t.Fatalf("token at %v,%v", tok.X, tok.Y)
	}
	if _, ok := a.Dragging("hero"); ok {
		t.Fatal("drag should be over")
	}
	if _, ok := w.PreviewToken(previewID); ok {
		t.Fatal("preview should be discarded")
	}

	typ, msg, _ := Decode([]byte(`{"type":"dragMove","payload":{"tokenId":"hero"}}`))
	if err := a.Apply(typ, msg); !errors.Is(err, ErrNoDrag) {
		t.Fatalf("move without drag: %v", err)
	}
}

func TestApply_DeleteCancelsDrag(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)
	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"hero","width":50,"height":50}}`)
	mustApply(t, a, `{"type":"dragStart","payload":{"tokenId":"hero"}}`)
	rec.drain()

	mustApply(t, a, `{"type":"tokenDelete","payload":{"id":"hero"}}`)
	got := types(rec.drain())
	if len(got) != 2 || got[0] != event.TokenDragCancel || got[1] != event.TokenDeleted {
		t.Fatalf("events = %v", got)
	}
	if _, ok := w.TokenState("hero"); ok {
		t.Fatal("token should be gone")
	}
}

func TestApply_CanvasLifecycle(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)
	mustApply(t, a, `{"type":"tokenUpsert","payload":{"id":"hero","width":50,"height":50}}`)
	mustApply(t, a, `{"type":"canvasReady","payload":{"grid":"hexRows"}}`)
	if !w.SceneCanvas().Ready() || w.SceneCanvas().GridType() != host.GridHexRows {
		t.Fatal("canvas should be ready with hex rows")
	}
	mustApply(t, a, `{"type":"dragStart","payload":{"tokenId":"hero"}}`)
	rec.drain()

	mustApply(t, a, `{"type":"canvasTeardown"}`)
	got := types(rec.drain())
	if len(got) != 2 || got[0] != event.TokenDragCancel || got[1] != event.CanvasTeardown {
		t.Fatalf("events = %v", got)
	}
	if w.SceneCanvas().Ready() {
		t.Fatal("teardown should unready the canvas")
	}
}

func TestApply_ActorAndUser(t *testing.T) {
	w := host.NewWorld()
	rec := newRecorder()
	a := NewApplier(w, rec.bus, nil)

	mustApply(t, a, `{"type":"user","payload":{"id":"p1","name":"Avery"}}`)
	mustApply(t, a, `{"type":"user","payload":{"id":"gm","name":"GM","gm":true,"colour":"#ff8800","current":true}}`)
	if u := w.CurrentUser(); u == nil || u.ID() != "gm" || !u.IsGM() {
		t.Fatalf("current user = %v", u)
	}

	mustApply(t, a, `{"type":"actorUpdate","payload":{"id":"a1","hp":10,"maxHp":20,"perception":14}}`)
	mustApply(t, a, `{"type":"actorUpdate","payload":{"id":"a1","hp":10,"maxHp":20}}`)
	mustApply(t, a, `{"type":"actorUpdate","payload":{"id":"a1","hp":4,"maxHp":20}}`)
	evs := rec.drain()
	if len(evs) != 3 {
		t.Fatalf("events = %v", types(evs))
	}
	changed := []bool{true, false, true}
	for i, e := range evs {
		if p := e.Payload.(event.ActorPayload); p.HealthChanged != changed[i] {
			t.Errorf("event %d HealthChanged = %v", i, p.HealthChanged)
		}
	}
	st, _ := w.ActorState("a1")
	if st.HP.Value != 4 || st.Perception != 14 || !st.HasPerception {
		t.Fatalf("actor = %+v", st)
	}
}

func TestApply_Keys(t *testing.T) {
	rec := newRecorder()
	a := NewApplier(host.NewWorld(), rec.bus, nil)
	mustApply(t, a, `{"type":"keyDown","payload":{"key":"alt","shift":true}}`)
	mustApply(t, a, `{"type":"keyUp","payload":{"key":"alt"}}`)
	evs := rec.drain()
	if len(evs) != 2 || evs[0].Type != event.KeyDown || evs[1].Type != event.KeyUp {
		t.Fatalf("events = %v", types(evs))
	}
	if p := evs[0].Payload.(event.KeyPayload); p.Key != "alt" || !p.Modifiers.Shift {
		t.Fatalf("payload = %+v", p)
	}
}

func TestDecode_Errors(t *testing.T) {
	for _, raw := range []string{
		`not json`,
		`{"type":"launchMissiles"}`,
		`{"type":"tokenUpsert","payload":{"x":"far"}}`,
	} {
		if _, _, err := Decode([]byte(raw)); err == nil {
			t.Errorf("Decode(%s) should fail", raw)
		}
	}
}

func TestEncode(t *testing.T) {
	data, err := Encode(TypeHello, HelloMessage{Version: ProtocolVersion})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"type":"hello","payload":{"version":1}}` {
		t.Fatalf("got %s", data)
	}
}

func TestSchema_DefinesEveryMessage(t *testing.T) {
	s := Schema()
	for typ := range payloadTypes {
		if _, ok := s.Definitions[typ]; !ok {
			t.Errorf("no definition for %s", typ)
		}
	}
	raw, err := json.Marshal(s)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(raw), `"$ref":"#/$defs/envelope"`) {
		t.Fatalf("schema should reference the envelope: %s", raw[:200])
	}
	tok := s.Definitions[TypeTokenUpsert]
	found := false
	for _, r := range tok.Required {
		found = found || r == "id"
	}
	if !found {
		t.Fatalf("token id should be required: %v", tok.Required)
	}
}
