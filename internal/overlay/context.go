package overlay

import (
	"image/color"

	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// Point is a canvas position in pixels.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// TokenSnapshot is the token data copied into a render context.
type TokenSnapshot struct {
	ID           string
	Name         string
	Position     Point
	Width        float64
	Height       float64
	Radius       float64
	MovementMode string
}

// ArcSpan is an arc from StartDeg to EndDeg in degrees.
type ArcSpan struct {
	StartDeg      float64
	EndDeg        float64
	Anticlockwise bool
}

// HealthInfo drives the health-arc overlay.
type HealthInfo struct {
	Health         int
	MaxHealth      int
	TempHealth     int
	Accuracy       float64
	Percentage     float64
	TempPercentage float64

	Colour           color.RGBA
	BackgroundColour color.RGBA
	TempColour       color.RGBA

	HealthArc     ArcSpan
	BackgroundArc ArcSpan
	TempArc       ArcSpan
	Radius        float64
	Width         float64
}

// TokenInfo drives text overlays.
type TokenInfo struct {
	Text           string
	Disposition    host.Disposition
	TrackingNumber string
	FontSize       float64
	Colour         color.RGBA
	OffsetY        float64
}

// RotationInfo drives the facing overlay.
type RotationInfo struct {
	FacingDeg float64
	ArcDeg    float64
	Radius    float64
	Colour    color.RGBA
}

// BoundaryInfo drives the footprint overlay.
type BoundaryInfo struct {
	Width     float64
	Height    float64
	Radius    float64
	LineWidth float64
	Colour    color.RGBA
}

// ObstacleInfo drives the obstacle indicator on the blocking token.
type ObstacleInfo struct {
	BlockerID string
	MoverID   string
	Radius    float64
	Colour    color.RGBA
}

// MovementInfo drives the drag path overlay. Points are relative to the
// drawable origin (the target's centre).
type MovementInfo struct {
	Origin      Point
	Destination Point
	Distance    float64
	Colour      color.RGBA
}

// VisibilityInfo drives the vision-range overlay.
type VisibilityInfo struct {
	Range   float64
	Hidden  bool
	Visible bool
	Colour  color.RGBA
}

// UserInfo identifies the user an overlay is drawn for.
type UserInfo struct {
	ID     string
	Name   string
	IsGM   bool
	Colour color.RGBA
}

// RenderContext is everything a painter needs for one render call. Angles
// are degrees; painters convert to radians.
type RenderContext struct {
	OverlayID         string
	Centre            Point
	RenderLayer       scene.Layer
	RenderOnTokenMesh bool
	ZIndex            int
	Token             TokenSnapshot

	Health     *HealthInfo
	TokenInfo  *TokenInfo
	Rotation   *RotationInfo
	Boundary   *BoundaryInfo
	Obstacle   *ObstacleInfo
	Movement   *MovementInfo
	Visibility *VisibilityInfo
	User       *UserInfo
}

// BaseContext fills the fields shared by every overlay.
func BaseContext(target host.Token, def *Definition) *RenderContext {
	cx, cy := target.Centre()
	x, y := target.Position()
	w, h := target.Size()
	r := w
	if h > r {
		r = h
	}
	return &RenderContext{
		OverlayID:         def.ID,
		Centre:            Point{X: cx, Y: cy},
		RenderLayer:       def.RenderLayer,
		RenderOnTokenMesh: def.RenderOnTokenMesh,
		ZIndex:            def.ZIndex,
		Token: TokenSnapshot{
			ID:           target.ID(),
			Name:         target.Name(),
			Position:     Point{X: x, Y: y},
			Width:        w,
			Height:       h,
			Radius:       r / 2,
			MovementMode: target.MovementMode(),
		},
	}
}
