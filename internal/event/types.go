package event

// Type identifies an event kind on the bus.
type Type int

const (
	CanvasReady Type = iota + 1
	CanvasTeardown
	TokenCreated
	TokenUpdated
	TokenDeleted
	TokenControlled
	TokenHovered
	TokenDragStart
	TokenDragMove
	TokenDragEnd
	TokenDragCancel
	ActorUpdated
	KeyDown
	KeyUp
)

var typeNames = map[Type]string{
	CanvasReady:     "canvasReady",
	CanvasTeardown:  "canvasTeardown",
	TokenCreated:    "tokenCreated",
	TokenUpdated:    "tokenUpdated",
	TokenDeleted:    "tokenDeleted",
	TokenControlled: "tokenControlled",
	TokenHovered:    "tokenHovered",
	TokenDragStart:  "tokenDragStart",
	TokenDragMove:   "tokenDragMove",
	TokenDragEnd:    "tokenDragEnd",
	TokenDragCancel: "tokenDragCancel",
	ActorUpdated:    "actorUpdated",
	KeyDown:         "keyDown",
	KeyUp:           "keyUp",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "unknown"
}

// Event is a single bus message. Payload holds one of the payload structs
// below, matching Type.
type Event struct {
	Type    Type
	Payload any
}

// TokenPayload accompanies TokenCreated and TokenDeleted.
type TokenPayload struct {
	TokenID string
}

// TokenUpdatePayload accompanies TokenUpdated.
type TokenUpdatePayload struct {
	TokenID string
	Moved   bool
	Rotated bool
}

// ControlPayload accompanies TokenControlled.
type ControlPayload struct {
	TokenID    string
	Controlled bool
}

// HoverPayload accompanies TokenHovered.
type HoverPayload struct {
	TokenID string
	Hovered bool
}

// DragPayload accompanies all four drag events. PreviewID names the host's
// transient drag clone; it is empty for end/cancel when the host has already
// discarded it.
type DragPayload struct {
	TokenID   string
	PreviewID string
}

// ActorPayload accompanies ActorUpdated.
type ActorPayload struct {
	ActorID       string
	HealthChanged bool
}

// Modifiers is the modifier-key state at the time of a key event.
type Modifiers struct {
	Shift bool
	Ctrl  bool
	Alt   bool
	Meta  bool
}

// KeyPayload accompanies KeyDown and KeyUp. Hosts repeat KeyDown while a key
// is held; Repeat is set when the host knows it is a repeat.
type KeyPayload struct {
	Key       string
	Modifiers Modifiers
	Repeat    bool
}
