// Package bridge lets a remote tabletop drive the overlay engine over a
// websocket. The remote side reports users, tokens, actors and input; the
// bridge answers with overlay frames.
package bridge

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	"github.com/Garsondee/tactical-overlays/internal/render"
)

// ProtocolVersion is sent in the hello message.
const ProtocolVersion = 1

// Inbound message types.
const (
	TypeUser           = "user"
	TypeCanvasReady    = "canvasReady"
	TypeCanvasTeardown = "canvasTeardown"
	TypeTokenUpsert    = "tokenUpsert"
	TypeTokenDelete    = "tokenDelete"
	TypeTokenControl   = "tokenControl"
	TypeTokenHover     = "tokenHover"
	TypeActorUpdate    = "actorUpdate"
	TypeDragStart      = "dragStart"
	TypeDragMove       = "dragMove"
	TypeDragEnd        = "dragEnd"
	TypeDragCancel     = "dragCancel"
	TypeKeyDown        = "keyDown"
	TypeKeyUp          = "keyUp"
)

// Outbound message types.
const (
	TypeHello        = "hello"
	TypeOverlayFrame = "overlayFrame"
	TypeError        = "error"
)

// Envelope is the wire form of every message.
type Envelope struct {
	Type    string          `json:"type" jsonschema:"required"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// UserMessage registers a user. Current makes it the local viewer.
type UserMessage struct {
	ID      string `json:"id" jsonschema:"required"`
	Name    string `json:"name"`
	GM      bool   `json:"gm,omitempty"`
	Colour  string `json:"colour,omitempty" jsonschema:"description=#rrggbb or #rrggbbaa"`
	Current bool   `json:"current,omitempty"`
}

// CanvasReadyMessage announces a drawable scene.
type CanvasReadyMessage struct {
	Grid string `json:"grid,omitempty" jsonschema:"enum=gridless,enum=square,enum=hexRows,enum=hexColumns"`
}

// TokenMessage creates or replaces a token.
type TokenMessage struct {
	ID           string   `json:"id" jsonschema:"required"`
	Name         string   `json:"name"`
	X            float64  `json:"x"`
	Y            float64  `json:"y"`
	Width        float64  `json:"width" jsonschema:"minimum=1"`
	Height       float64  `json:"height" jsonschema:"minimum=1"`
	Rotation     float64  `json:"rotation,omitempty"`
	Disposition  string   `json:"disposition,omitempty" jsonschema:"enum=friendly,enum=neutral,enum=hostile,enum=secret"`
	Hidden       bool     `json:"hidden,omitempty"`
	Invisible    bool     `json:"invisible,omitempty"`
	Owners       []string `json:"owners,omitempty"`
	ActorID      string   `json:"actorId,omitempty"`
	MovementMode string   `json:"movementMode,omitempty"`
	VisionRange  float64  `json:"visionRange,omitempty"`
}

// TokenRefMessage names a token, for deletes.
type TokenRefMessage struct {
	ID string `json:"id" jsonschema:"required"`
}

// ControlMessage changes the local user's control of a token.
type ControlMessage struct {
	ID         string `json:"id" jsonschema:"required"`
	Controlled bool   `json:"controlled"`
}

// HoverMessage reports the pointer entering or leaving a token.
type HoverMessage struct {
	ID      string `json:"id" jsonschema:"required"`
	Hovered bool   `json:"hovered"`
}

// ActorMessage creates or updates an actor's health block.
type ActorMessage struct {
	ID         string `json:"id" jsonschema:"required"`
	HP         int    `json:"hp"`
	MaxHP      int    `json:"maxHp"`
	TempHP     int    `json:"tempHp,omitempty"`
	Perception *int   `json:"perception,omitempty"`
}

// DragMessage drives the drag preview. X and Y are the preview's top-left;
// Commit on dragEnd moves the token there.
type DragMessage struct {
	TokenID string   `json:"tokenId" jsonschema:"required"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	Commit  bool     `json:"commit,omitempty"`
}

// KeyMessage is a key transition with modifier state.
type KeyMessage struct {
	Key    string `json:"key" jsonschema:"required"`
	Shift  bool   `json:"shift,omitempty"`
	Ctrl   bool   `json:"ctrl,omitempty"`
	Alt    bool   `json:"alt,omitempty"`
	Meta   bool   `json:"meta,omitempty"`
	Repeat bool   `json:"repeat,omitempty"`
}

// HelloMessage greets a new session.
type HelloMessage struct {
	Version int `json:"version"`
}

// FrameMessage carries every visible overlay drawable.
type FrameMessage struct {
	Seq       uint64            `json:"seq"`
	User      string            `json:"user,omitempty"`
	Drawables []render.Drawable `json:"drawables"`
}

// ErrorMessage reports a rejected inbound message.
type ErrorMessage struct {
	Request string `json:"request,omitempty"`
	Message string `json:"message"`
}

var payloadTypes = map[string]any{
	TypeUser:           UserMessage{},
	TypeCanvasReady:    CanvasReadyMessage{},
	TypeCanvasTeardown: struct{}{},
	TypeTokenUpsert:    TokenMessage{},
	TypeTokenDelete:    TokenRefMessage{},
	TypeTokenControl:   ControlMessage{},
	TypeTokenHover:     HoverMessage{},
	TypeActorUpdate:    ActorMessage{},
	TypeDragStart:      DragMessage{},
	TypeDragMove:       DragMessage{},
	TypeDragEnd:        DragMessage{},
	TypeDragCancel:     DragMessage{},
	TypeKeyDown:        KeyMessage{},
	TypeKeyUp:          KeyMessage{},
}

// Decode parses an envelope and its typed payload. The returned value is one
// of the message structs above (by value), or nil for canvasTeardown.
func Decode(data []byte) (string, any, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return "", nil, fmt.Errorf("bridge: malformed envelope: %w", err)
	}
	sample, ok := payloadTypes[env.Type]
	if !ok {
		return env.Type, nil, fmt.Errorf("bridge: unknown message type %q", env.Type)
	}
	if env.Type == TypeCanvasTeardown {
		return env.Type, nil, nil
	}

	ptr := reflect.New(reflect.TypeOf(sample))
	if len(env.Payload) > 0 {
		if err := json.Unmarshal(env.Payload, ptr.Interface()); err != nil {
			return env.Type, nil, fmt.Errorf("bridge: %s payload: %w", env.Type, err)
		}
	}
	return env.Type, ptr.Elem().Interface(), nil
}

// Encode wraps payload in an envelope.
func Encode(typ string, payload any) ([]byte, error) {
	env := Envelope{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("bridge: encode %s: %w", typ, err)
		}
		env.Payload = raw
	}
	return json.Marshal(env)
}

// Schema describes the inbound protocol: one definition per message type.
func Schema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		DoNotReference:             true,
	}

	root := &jsonschema.Schema{
		Version:     jsonschema.Version,
		Title:       "Tactical Overlays Bridge",
		Description: "Messages a remote tabletop sends to the overlay bridge. Each message is an envelope whose payload matches the definition named by its type.",
		Definitions: jsonschema.Definitions{},
	}
	for _, typ := range messageOrder {
		sample := payloadTypes[typ]
		s := reflector.ReflectFromType(reflect.TypeOf(sample))
		s.Version = ""
		s.Title = typ
		root.Definitions[typ] = s
	}
	env := reflector.ReflectFromType(reflect.TypeOf(Envelope{}))
	env.Version = ""
	root.Definitions["envelope"] = env
	root.Ref = "#/$defs/envelope"
	return root
}

var messageOrder = []string{
	TypeUser, TypeCanvasReady, TypeCanvasTeardown,
	TypeTokenUpsert, TypeTokenDelete, TypeTokenControl, TypeTokenHover,
	TypeActorUpdate,
	TypeDragStart, TypeDragMove, TypeDragEnd, TypeDragCancel,
	TypeKeyDown, TypeKeyUp,
}
