package render

import (
	"fmt"
	"image/color"
	"math"

	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// Movement path dash pattern, in pixels.
const (
	dashLen = 8.0
	gapLen  = 6.0
)

var labelBackdrop = color.RGBA{R: 10, G: 10, B: 14, A: 170}

// DefaultPainters returns the paint strategies for the built-in overlays.
func DefaultPainters() map[string]Painter {
	return map[string]Painter{
		overlay.IDHealthArc:         PaintHealthArc,
		overlay.IDTokenInfo:         PaintTokenInfo,
		overlay.IDFacingArc:         PaintFacingArc,
		overlay.IDVisionRange:       PaintVisionRange,
		overlay.IDTokenBoundary:     PaintBoundary,
		overlay.IDMovementPath:      PaintMovementPath,
		overlay.IDObstacleIndicator: PaintObstacle,
		overlay.IDHoverName:         PaintHoverName,
		overlay.IDControlledMarker:  PaintControlledMarker,
	}
}

// RegisterDefaultPainters installs DefaultPainters on s.
func RegisterDefaultPainters(s *Service) {
	for id, p := range DefaultPainters() {
		s.RegisterPainter(id, p)
	}
}

func rad(deg float64) float64 { return deg * math.Pi / 180 }

func arc(d *scene.Node, r, width float64, span overlay.ArcSpan, c color.RGBA) {
	d.Arc(0, 0, r, rad(span.StartDeg), rad(span.EndDeg), span.Anticlockwise, width, c)
}

// PaintHealthArc draws the missing-health track, then current health, then
// temporary health.
func PaintHealthArc(d *scene.Node, ctx *overlay.RenderContext) {
	h := ctx.Health
	if h == nil {
		return
	}
	arc(d, h.Radius, h.Width, h.BackgroundArc, h.BackgroundColour)
	if h.Percentage > 0 {
		arc(d, h.Radius, h.Width, h.HealthArc, h.Colour)
	}
	if h.TempPercentage > 0 {
		arc(d, h.Radius, h.Width, h.TempArc, h.TempColour)
	}
}

// PaintTokenInfo draws the contact tag above the token. Empty text paints
// nothing.
func PaintTokenInfo(d *scene.Node, ctx *overlay.RenderContext) {
	info := ctx.TokenInfo
	if info == nil || info.Text == "" {
		return
	}
	label(d, info)
}

func label(d *scene.Node, info *overlay.TokenInfo) {
	// Rough width: the label font averages ~0.6em per glyph.
	w := float64(len(info.Text))*info.FontSize*0.6 + 8
	h := info.FontSize + 4
	d.Rect(-w/2, info.OffsetY-h/2, w, h, 0, labelBackdrop)
	d.Text(0, info.OffsetY, info.Text, info.FontSize, info.Colour)
}

// PaintFacingArc draws a wedge centred on the facing direction.
func PaintFacingArc(d *scene.Node, ctx *overlay.RenderContext) {
	r := ctx.Rotation
	if r == nil {
		return
	}
	from := rad(r.FacingDeg - r.ArcDeg/2)
	to := rad(r.FacingDeg + r.ArcDeg/2)
	d.Line(0, 0, r.Radius*math.Cos(from), r.Radius*math.Sin(from), 2, r.Colour)
	d.Line(0, 0, r.Radius*math.Cos(to), r.Radius*math.Sin(to), 2, r.Colour)
	d.Arc(0, 0, r.Radius, from, to, false, 2, r.Colour)
}

// PaintVisionRange draws a ring at the vision distance.
func PaintVisionRange(d *scene.Node, ctx *overlay.RenderContext) {
	v := ctx.Visibility
	if v == nil || v.Range <= 0 {
		return
	}
	d.Circle(0, 0, v.Range, 2, v.Colour)
}

// PaintBoundary outlines the token footprint.
func PaintBoundary(d *scene.Node, ctx *overlay.RenderContext) {
	b := ctx.Boundary
	if b == nil {
		return
	}
	d.Rect(-b.Width/2, -b.Height/2, b.Width, b.Height, b.LineWidth, b.Colour)
}

// PaintMovementPath draws a dashed line from the drag origin to the drop
// point with a ring on the destination and the distance halfway along.
func PaintMovementPath(d *scene.Node, ctx *overlay.RenderContext) {
	m := ctx.Movement
	if m == nil || m.Distance < 1 {
		return
	}
	dx := (m.Destination.X - m.Origin.X) / m.Distance
	dy := (m.Destination.Y - m.Origin.Y) / m.Distance
	for drawn := 0.0; drawn < m.Distance; drawn += dashLen + gapLen {
		end := math.Min(drawn+dashLen, m.Distance)
		d.Line(m.Origin.X+dx*drawn, m.Origin.Y+dy*drawn, m.Origin.X+dx*end, m.Origin.Y+dy*end, 2, m.Colour)
	}
	d.Circle(m.Destination.X, m.Destination.Y, 4, 1, m.Colour)

	midX := (m.Origin.X + m.Destination.X) / 2
	midY := (m.Origin.Y + m.Destination.Y) / 2
	d.Text(midX, midY-10, fmt.Sprintf("%.0f px", m.Distance), 12, m.Colour)
}

// PaintObstacle rings the blocking token and crosses it out.
func PaintObstacle(d *scene.Node, ctx *overlay.RenderContext) {
	o := ctx.Obstacle
	if o == nil {
		return
	}
	d.Circle(0, 0, o.Radius, 3, o.Colour)
	k := o.Radius * math.Sqrt2 / 2
	d.Line(-k, -k, k, k, 3, o.Colour)
	d.Line(-k, k, k, -k, 3, o.Colour)
}

// PaintHoverName draws the token name below it.
func PaintHoverName(d *scene.Node, ctx *overlay.RenderContext) {
	info := ctx.TokenInfo
	if info == nil || info.Text == "" {
		return
	}
	label(d, &overlay.TokenInfo{
		Text:     info.Text,
		FontSize: info.FontSize,
		Colour:   info.Colour,
		OffsetY:  info.OffsetY + info.FontSize/2,
	})
}

// PaintControlledMarker rings a controlled token in the user's colour.
func PaintControlledMarker(d *scene.Node, ctx *overlay.RenderContext) {
	b := ctx.Boundary
	if b == nil {
		return
	}
	d.Circle(0, 0, b.Radius, b.LineWidth, b.Colour)
}
