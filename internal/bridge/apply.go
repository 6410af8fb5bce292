package bridge

import (
	"errors"
	"fmt"
	"image/color"
	"slices"

	"github.com/Garsondee/tactical-overlays/internal/config"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

var (
	ErrUnknownToken = errors.New("bridge: unknown token")
	ErrNoDrag       = errors.New("bridge: no drag in progress for token")
)

var dispositions = map[string]host.Disposition{
	"":         host.DispositionNeutral,
	"friendly": host.DispositionFriendly,
	"neutral":  host.DispositionNeutral,
	"hostile":  host.DispositionHostile,
	"secret":   host.DispositionSecret,
}

var grids = map[string]host.GridType{
	"":           host.GridSquare,
	"square":     host.GridSquare,
	"gridless":   host.GridGridless,
	"hexRows":    host.GridHexRows,
	"hexColumns": host.GridHexColumns,
}

// Applier mirrors remote state into a World and posts the matching bus
// events. Events are queued with Post; the owner drains the bus afterwards.
//
// Thread-Safety: owner goroutine only.
type Applier struct {
	world *host.World
	bus   *event.Bus
	log   *logging.Logger

	// previews maps a dragged token to its preview clone.
	previews map[string]string
}

// NewApplier creates an applier over w.
func NewApplier(w *host.World, bus *event.Bus, log *logging.Logger) *Applier {
	return &Applier{
		world:    w,
		bus:      bus,
		log:      log.With("bridge"),
		previews: make(map[string]string),
	}
}

func (a *Applier) post(t event.Type, payload any) {
	a.bus.Post(event.Event{Type: t, Payload: payload})
}

// Apply handles one decoded message.
func (a *Applier) Apply(typ string, msg any) error {
	a.log.Debugf("apply %s", typ)
	switch m := msg.(type) {
	case UserMessage:
		return a.user(m)
	case CanvasReadyMessage:
		return a.canvasReady(m)
	case TokenMessage:
		return a.upsertToken(m)
	case TokenRefMessage:
		return a.deleteToken(m.ID)
	case ControlMessage:
		if !a.world.SetControlled(m.ID, m.Controlled) {
			return fmt.Errorf("%w %q", ErrUnknownToken, m.ID)
		}
		a.post(event.TokenControlled, event.ControlPayload{TokenID: m.ID, Controlled: m.Controlled})
	case HoverMessage:
		return a.hover(m)
	case ActorMessage:
		a.actor(m)
	case DragMessage:
		return a.drag(typ, m)
	case KeyMessage:
		p := event.KeyPayload{
			Key:       m.Key,
			Modifiers: event.Modifiers{Shift: m.Shift, Ctrl: m.Ctrl, Alt: m.Alt, Meta: m.Meta},
			Repeat:    m.Repeat,
		}
		if typ == TypeKeyUp {
			a.post(event.KeyUp, p)
		} else {
			a.post(event.KeyDown, p)
		}
	case nil:
		if typ != TypeCanvasTeardown {
			return fmt.Errorf("bridge: %s without payload", typ)
		}
		a.endAllDrags()
		a.world.SceneCanvas().Teardown()
		a.post(event.CanvasTeardown, nil)
	default:
		return fmt.Errorf("bridge: unhandled payload %T", msg)
	}
	return nil
}

func (a *Applier) user(m UserMessage) error {
	if m.ID == "" {
		return errors.New("bridge: user id required")
	}
	var c color.RGBA
	if m.Colour != "" {
		var err error
		if c, err = config.ParseColour(m.Colour); err != nil {
			return fmt.Errorf("bridge: user %q: %w", m.ID, err)
		}
	}
	a.world.AddUser(host.NewUser(m.ID, m.Name, m.GM, c))
	if m.Current {
		return a.world.SetCurrentUser(m.ID)
	}
	return nil
}

func (a *Applier) canvasReady(m CanvasReadyMessage) error {
	g, ok := grids[m.Grid]
	if !ok {
		return fmt.Errorf("bridge: unknown grid %q", m.Grid)
	}
	c := a.world.SceneCanvas()
	c.SetGridType(g)
	c.Rebuild(a.world)
	c.MarkReady()
	a.post(event.CanvasReady, nil)
	return nil
}

func (a *Applier) upsertToken(m TokenMessage) error {
	if m.ID == "" {
		return errors.New("bridge: token id required")
	}
	disp, ok := dispositions[m.Disposition]
	if !ok {
		return fmt.Errorf("bridge: token %q: unknown disposition %q", m.ID, m.Disposition)
	}

	t, exists := a.world.TokenState(m.ID)
	if !exists {
		t = host.NewToken(m.ID, m.Name, m.X, m.Y, 0)
	}
	moved := exists && (t.X != m.X || t.Y != m.Y || t.W != m.Width || t.H != m.Height)
	rotated := exists && t.Rot != m.Rotation

	t.TokenName = m.Name
	t.W, t.H = m.Width, m.Height
	t.Rot = m.Rotation
	t.Disp = disp
	t.IsHidden = m.Hidden
	t.Invisible = m.Invisible
	t.OwnerIDs = slices.Clone(m.Owners)
	t.ActorID = m.ActorID
	if m.MovementMode != "" {
		t.Mode = m.MovementMode
	}
	if m.VisionRange > 0 {
		t.Vision = m.VisionRange
	}

	if !exists {
		a.world.AddToken(t)
		a.post(event.TokenCreated, event.TokenPayload{TokenID: m.ID})
		return nil
	}
	a.world.MoveToken(m.ID, m.X, m.Y)
	if moved || rotated {
		a.post(event.TokenUpdated, event.TokenUpdatePayload{TokenID: m.ID, Moved: moved, Rotated: rotated})
	}
	return nil
}

func (a *Applier) deleteToken(id string) error {
	if previewID, ok := a.previews[id]; ok {
		a.post(event.TokenDragCancel, event.DragPayload{TokenID: id, PreviewID: previewID})
		a.world.EndPreview(previewID)
		delete(a.previews, id)
	}
	if !a.world.RemoveToken(id) {
		return fmt.Errorf("%w %q", ErrUnknownToken, id)
	}
	a.post(event.TokenDeleted, event.TokenPayload{TokenID: id})
	return nil
}

func (a *Applier) hover(m HoverMessage) error {
	if _, ok := a.world.TokenState(m.ID); !ok {
		return fmt.Errorf("%w %q", ErrUnknownToken, m.ID)
	}
	if m.Hovered {
		a.world.SetHovered(m.ID)
	} else if a.world.Hovered() == m.ID {
		a.world.SetHovered("")
	}
	a.post(event.TokenHovered, event.HoverPayload{TokenID: m.ID, Hovered: m.Hovered})
	return nil
}

func (a *Applier) actor(m ActorMessage) {
	hp := host.HitPoints{Value: m.HP, Max: m.MaxHP, Temp: m.TempHP}
	st, ok := a.world.ActorState(m.ID)
	if !ok {
		perception := 0
		if m.Perception != nil {
			perception = *m.Perception
		}
		st = host.NewActor(m.ID, hp, perception)
		st.HasPerception = m.Perception != nil
		a.world.AddActor(st)
		a.post(event.ActorUpdated, event.ActorPayload{ActorID: m.ID, HealthChanged: true})
		return
	}
	changed := st.HP != hp
	st.HP = hp
	if m.Perception != nil {
		st.Perception = *m.Perception
		st.HasPerception = true
	}
	a.post(event.ActorUpdated, event.ActorPayload{ActorID: m.ID, HealthChanged: changed})
}

func (a *Applier) drag(typ string, m DragMessage) error {
	tok, ok := a.world.TokenState(m.TokenID)
	if !ok {
		return fmt.Errorf("%w %q", ErrUnknownToken, m.TokenID)
	}
	previewID, dragging := a.previews[m.TokenID]

	switch typ {
	case TypeDragStart:
		if dragging {
			a.world.EndPreview(previewID)
		}
		p, err := a.world.BeginPreview(m.TokenID)
		if err != nil {
			return err
		}
		previewID = p.ID()
		a.previews[m.TokenID] = previewID
		a.movePreview(previewID, tok, m)
		a.post(event.TokenDragStart, event.DragPayload{TokenID: m.TokenID, PreviewID: previewID})

	case TypeDragMove:
		if !dragging {
			return fmt.Errorf("%w %q", ErrNoDrag, m.TokenID)
		}
		a.movePreview(previewID, tok, m)
		a.post(event.TokenDragMove, event.DragPayload{TokenID: m.TokenID, PreviewID: previewID})

	case TypeDragEnd:
		if !dragging {
			return fmt.Errorf("%w %q", ErrNoDrag, m.TokenID)
		}
		moved := false
		if m.Commit {
			x, y := tok.X, tok.Y
			if p, ok := a.world.PreviewToken(previewID); ok {
				x, y = p.Position()
			}
			if m.X != nil {
				x = *m.X
			}
			if m.Y != nil {
				y = *m.Y
			}
			moved = x != tok.X || y != tok.Y
			a.world.MoveToken(m.TokenID, x, y)
		}
		a.post(event.TokenDragEnd, event.DragPayload{TokenID: m.TokenID, PreviewID: previewID})
		a.world.EndPreview(previewID)
		delete(a.previews, m.TokenID)
		if moved {
			a.post(event.TokenUpdated, event.TokenUpdatePayload{TokenID: m.TokenID, Moved: true})
		}

	case TypeDragCancel:
		if !dragging {
			return fmt.Errorf("%w %q", ErrNoDrag, m.TokenID)
		}
		a.post(event.TokenDragCancel, event.DragPayload{TokenID: m.TokenID, PreviewID: previewID})
		a.world.EndPreview(previewID)
		delete(a.previews, m.TokenID)
	}
	return nil
}

func (a *Applier) movePreview(previewID string, tok *host.TokenState, m DragMessage) {
	x, y := tok.X, tok.Y
	if p, ok := a.world.PreviewToken(previewID); ok {
		x, y = p.Position()
	}
	if m.X != nil {
		x = *m.X
	}
	if m.Y != nil {
		y = *m.Y
	}
	a.world.MovePreview(previewID, x, y)
}

func (a *Applier) endAllDrags() {
	for id, previewID := range a.previews {
		a.post(event.TokenDragCancel, event.DragPayload{TokenID: id, PreviewID: previewID})
		a.world.EndPreview(previewID)
		delete(a.previews, id)
	}
}

// Dragging reports the preview id for a dragged token.
func (a *Applier) Dragging(tokenID string) (string, bool) {
	id, ok := a.previews[tokenID]
	return id, ok
}
