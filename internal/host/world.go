package host

import (
	"fmt"
	"image/color"
	"slices"
)

// ActorState is an in-memory Actor.
type ActorState struct {
	id            string
	HP            HitPoints
	Perception    int
	HasPerception bool
}

// NewActor creates an actor with a passive perception score.
func NewActor(id string, hp HitPoints, perception int) *ActorState {
	return &ActorState{id: id, HP: hp, Perception: perception, HasPerception: true}
}

func (a *ActorState) ID() string           { return a.id }
func (a *ActorState) HitPoints() HitPoints { return a.HP }
func (a *ActorState) PassivePerception() (int, bool) {
	return a.Perception, a.HasPerception
}

// UserState is an in-memory User.
type UserState struct {
	id     string
	name   string
	gm     bool
	colour color.RGBA
}

// NewUser creates a user.
func NewUser(id, name string, gm bool, colour color.RGBA) *UserState {
	return &UserState{id: id, name: name, gm: gm, colour: colour}
}

func (u *UserState) ID() string         { return u.id }
func (u *UserState) Name() string       { return u.name }
func (u *UserState) IsGM() bool         { return u.gm }
func (u *UserState) Colour() color.RGBA { return u.colour }

// TokenState is an in-memory Token. Fields are exported for hosts that apply
// updates directly; Controlled/Owned/Visible consult the owning World.
type TokenState struct {
	id        string
	TokenName string
	X, Y      float64
	W, H      float64
	Rot       float64
	Disp      Disposition
	IsHidden  bool // hidden by the GM
	Invisible bool // e.g. an invisibility condition
	OwnerIDs  []string
	ActorID   string
	Mode      string
	Vision    float64

	world   *World
	preview bool
}

// NewToken creates a token; add it to a World before use.
func NewToken(id, name string, x, y, size float64) *TokenState {
	return &TokenState{id: id, TokenName: name, X: x, Y: y, W: size, H: size, Mode: "walk", Vision: 300}
}

func (t *TokenState) ID() string                   { return t.id }
func (t *TokenState) Name() string                 { return t.TokenName }
func (t *TokenState) Position() (float64, float64) { return t.X, t.Y }
func (t *TokenState) Size() (float64, float64)     { return t.W, t.H }
func (t *TokenState) Rotation() float64            { return t.Rot }
func (t *TokenState) Disposition() Disposition     { return t.Disp }
func (t *TokenState) Hidden() bool                 { return t.IsHidden }
func (t *TokenState) MovementMode() string         { return t.Mode }
func (t *TokenState) VisionRange() float64         { return t.Vision }
func (t *TokenState) IsPreview() bool              { return t.preview }

func (t *TokenState) Centre() (float64, float64) {
	return t.X + t.W/2, t.Y + t.H/2
}

func (t *TokenState) Visible() bool {
	if t.Invisible {
		return false
	}
	if !t.IsHidden {
		return true
	}
	return t.world != nil && t.world.currentIsGM()
}

func (t *TokenState) Controlled() bool {
	if t.world == nil || t.preview {
		return false
	}
	return t.world.controlled[t.id]
}

func (t *TokenState) Hovered() bool {
	return t.world != nil && !t.preview && t.world.hovered == t.id
}

func (t *TokenState) Owned() bool {
	if t.world == nil {
		return false
	}
	u := t.world.CurrentUser()
	if u == nil {
		return false
	}
	return u.IsGM() || slices.Contains(t.OwnerIDs, u.ID())
}

func (t *TokenState) Actor() (Actor, bool) {
	if t.world == nil || t.ActorID == "" {
		return nil, false
	}
	a, ok := t.world.actors[t.ActorID]
	if !ok {
		return nil, false
	}
	return a, true
}

// World is an in-memory Platform. Not safe for concurrent use; mutate it from
// the goroutine that drains the event bus.
type World struct {
	tokens     map[string]*TokenState
	order      []string
	previews   map[string]*TokenState
	actors     map[string]*ActorState
	users      map[string]*UserState
	current    string
	controlled map[string]bool
	hovered    string
	flags      map[string]map[string]string
	canvas     *SceneCanvas
}

// NewWorld creates an empty world with an unready canvas.
func NewWorld() *World {
	return &World{
		tokens:     make(map[string]*TokenState),
		previews:   make(map[string]*TokenState),
		actors:     make(map[string]*ActorState),
		users:      make(map[string]*UserState),
		controlled: make(map[string]bool),
		flags:      make(map[string]map[string]string),
		canvas:     NewSceneCanvas(),
	}
}

// AddUser registers a user; the first user added becomes current.
func (w *World) AddUser(u *UserState) {
	w.users[u.id] = u
	if w.current == "" {
		w.current = u.id
	}
}

// SetCurrentUser switches the local user and releases all control.
func (w *World) SetCurrentUser(id string) error {
	if _, ok := w.users[id]; !ok {
		return fmt.Errorf("host: unknown user %q", id)
	}
	w.current = id
	w.controlled = make(map[string]bool)
	return nil
}

// Users returns all registered users in no particular order.
func (w *World) Users() []User {
	out := make([]User, 0, len(w.users))
	for _, u := range w.users {
		out = append(out, u)
	}
	return out
}

// AddActor registers or replaces an actor.
func (w *World) AddActor(a *ActorState) { w.actors[a.id] = a }

// ActorState returns the mutable actor for id.
func (w *World) ActorState(id string) (*ActorState, bool) {
	a, ok := w.actors[id]
	return a, ok
}

// AddToken places t (replacing any token with the same id) and gives it a mesh.
func (w *World) AddToken(t *TokenState) {
	t.world = w
	if _, exists := w.tokens[t.id]; !exists {
		w.order = append(w.order, t.id)
	}
	w.tokens[t.id] = t
	w.canvas.ensureMesh(t)
}

// RemoveToken deletes a token and its mesh.
func (w *World) RemoveToken(id string) bool {
	if _, ok := w.tokens[id]; !ok {
		return false
	}
	delete(w.tokens, id)
	delete(w.controlled, id)
	delete(w.flags, id)
	if w.hovered == id {
		w.hovered = ""
	}
	w.order = slices.DeleteFunc(w.order, func(s string) bool { return s == id })
	w.canvas.removeMesh(id)
	return true
}

// TokenState returns the mutable token for id.
func (w *World) TokenState(id string) (*TokenState, bool) {
	t, ok := w.tokens[id]
	return t, ok
}

// MoveToken sets a token's top-left position and syncs its mesh.
func (w *World) MoveToken(id string, x, y float64) bool {
	t, ok := w.tokens[id]
	if !ok {
		return false
	}
	t.X, t.Y = x, y
	w.canvas.syncMesh(t)
	return true
}

// RotateToken sets a token's facing in degrees.
func (w *World) RotateToken(id string, deg float64) bool {
	t, ok := w.tokens[id]
	if !ok {
		return false
	}
	t.Rot = deg
	return true
}

// SetControlled toggles the current user's control of a token.
func (w *World) SetControlled(id string, controlled bool) bool {
	if _, ok := w.tokens[id]; !ok {
		return false
	}
	if controlled {
		w.controlled[id] = true
	} else {
		delete(w.controlled, id)
	}
	return true
}

// ReleaseAll drops control of every token and returns the released ids.
func (w *World) ReleaseAll() []string {
	var released []string
	for _, id := range w.order {
		if w.controlled[id] {
			released = append(released, id)
		}
	}
	w.controlled = make(map[string]bool)
	return released
}

// SetHovered records the hovered token ("" for none).
func (w *World) SetHovered(id string) { w.hovered = id }

// Hovered returns the hovered token id, or "".
func (w *World) Hovered() string { return w.hovered }

// BeginPreview creates the drag clone for a token.
func (w *World) BeginPreview(id string) (*TokenState, error) {
	t, ok := w.tokens[id]
	if !ok {
		return nil, fmt.Errorf("host: preview of unknown token %q", id)
	}
	clone := *t
	clone.id = id + "-preview"
	clone.OwnerIDs = slices.Clone(t.OwnerIDs)
	clone.preview = true
	clone.world = w
	w.previews[clone.id] = &clone
	return &clone, nil
}

// MovePreview sets a preview token's top-left position.
func (w *World) MovePreview(previewID string, x, y float64) bool {
	p, ok := w.previews[previewID]
	if !ok {
		return false
	}
	p.X, p.Y = x, y
	return true
}

// EndPreview discards a preview clone.
func (w *World) EndPreview(previewID string) {
	delete(w.previews, previewID)
}

func (w *World) currentIsGM() bool {
	u, ok := w.users[w.current]
	return ok && u.gm
}

// Tokens returns placed tokens in creation order.
func (w *World) Tokens() []Token {
	out := make([]Token, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.tokens[id])
	}
	return out
}

func (w *World) Token(id string) (Token, bool) {
	t, ok := w.tokens[id]
	if !ok {
		return nil, false
	}
	return t, true
}

func (w *World) PreviewToken(id string) (Token, bool) {
	p, ok := w.previews[id]
	if !ok {
		return nil, false
	}
	return p, true
}

func (w *World) TokensForActor(actorID string) []Token {
	var out []Token
	for _, id := range w.order {
		if t := w.tokens[id]; t.ActorID == actorID {
			out = append(out, t)
		}
	}
	return out
}

func (w *World) CurrentUser() User {
	u, ok := w.users[w.current]
	if !ok {
		return nil
	}
	return u
}

func (w *World) Canvas() Canvas { return w.canvas }

// SceneCanvas returns the concrete canvas for hosts that drive its lifecycle.
func (w *World) SceneCanvas() *SceneCanvas { return w.canvas }

func (w *World) Flags() FlagStore { return w }

func (w *World) Flag(tokenID, scope, key string) (string, bool) {
	v, ok := w.flags[tokenID][scope+"."+key]
	return v, ok
}

func (w *World) SetFlag(tokenID, scope, key, value string) error {
	if _, ok := w.tokens[tokenID]; !ok {
		return fmt.Errorf("host: set flag %s.%s on unknown token %q", scope, key, tokenID)
	}
	if w.flags[tokenID] == nil {
		w.flags[tokenID] = make(map[string]string)
	}
	w.flags[tokenID][scope+"."+key] = value
	return nil
}
