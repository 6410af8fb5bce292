// Package host describes the virtual tabletop the overlay engine runs inside.
// The engine only ever sees these interfaces; World is an in-memory
// implementation shared by the ebiten tabletop and the websocket bridge.
package host

import (
	"image/color"

	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// Disposition is a token's attitude toward the players.
type Disposition int

const (
	DispositionSecret   Disposition = -2
	DispositionHostile  Disposition = -1
	DispositionNeutral  Disposition = 0
	DispositionFriendly Disposition = 1
)

func (d Disposition) String() string {
	switch d {
	case DispositionSecret:
		return "secret"
	case DispositionHostile:
		return "hostile"
	case DispositionNeutral:
		return "neutral"
	case DispositionFriendly:
		return "friendly"
	default:
		return "unknown"
	}
}

// HitPoints is an actor's raw health block.
type HitPoints struct {
	Value int
	Max   int
	Temp  int
}

// Actor is the character sheet behind a token.
type Actor interface {
	ID() string
	HitPoints() HitPoints
	// PassivePerception reports false when the system has no such stat.
	PassivePerception() (int, bool)
}

// Token is a placeable on the canvas. Controlled and Owned are relative to
// the current user.
type Token interface {
	ID() string
	Name() string
	// Position is the top-left corner in canvas pixels.
	Position() (x, y float64)
	Size() (w, h float64)
	Centre() (x, y float64)
	// Rotation is in degrees, 0 = facing down the canvas.
	Rotation() float64
	Disposition() Disposition
	Hidden() bool
	Visible() bool
	Controlled() bool
	Owned() bool
	Hovered() bool
	Actor() (Actor, bool)
	MovementMode() string
	VisionRange() float64
}

// User is a connected player or GM.
type User interface {
	ID() string
	Name() string
	IsGM() bool
	Colour() color.RGBA
}

// Canvas exposes the host scene graph.
type Canvas interface {
	Ready() bool
	Root() *scene.Node
	Layer(l scene.Layer) (*scene.Node, bool)
	// TokenMesh is the token's own visual; overlays may attach to it.
	TokenMesh(tokenID string) (*scene.Node, bool)
	GridType() GridType
}

// GridType is the canvas grid geometry.
type GridType int

const (
	GridGridless GridType = iota
	GridSquare
	GridHexRows
	GridHexColumns
)

// FlagStore persists small token-scoped values.
type FlagStore interface {
	Flag(tokenID, scope, key string) (string, bool)
	SetFlag(tokenID, scope, key, value string) error
}

// Platform is the host as a whole.
type Platform interface {
	Tokens() []Token
	Token(id string) (Token, bool)
	// PreviewToken resolves a transient drag clone.
	PreviewToken(id string) (Token, bool)
	// TokensForActor returns every placed token representing the actor.
	TokensForActor(actorID string) []Token
	CurrentUser() User
	Canvas() Canvas
	Flags() FlagStore
}

// MovementStatus is the outcome of validating a proposed move.
type MovementStatus int

const (
	MovementClear MovementStatus = iota
	MovementBlocked
	// MovementIgnored means the validator had nothing to say about this move.
	MovementIgnored
)

func (s MovementStatus) String() string {
	switch s {
	case MovementClear:
		return "clear"
	case MovementBlocked:
		return "blocked"
	case MovementIgnored:
		return "ignored"
	default:
		return "unknown"
	}
}

// MovementResult reports whether a drag is blocked and by whom.
type MovementResult struct {
	Status  MovementStatus
	Blocker Token
}

// MovementValidator checks a drag from mover to preview against obstacles.
type MovementValidator interface {
	Validate(mover, preview Token, obstacles []Token) MovementResult
}
