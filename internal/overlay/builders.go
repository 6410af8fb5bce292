package overlay

import (
	"fmt"
	"math"

	"github.com/Garsondee/tactical-overlays/internal/host"
)

// Health arc geometry, in degrees. The gauge occupies the 49° span below
// 359° on the token's right-hand side; temporary health runs on below it.
const (
	HealthArcStart   = 359.0
	HealthArcSweep   = 49.0
	HealthArcTrackTo = HealthArcStart - HealthArcSweep
)

// Facing wedge defaults.
const (
	FacingArcDeg  = 60.0
	facingPadding = 10.0
	healthPadding = 6.0
)

// RegisterDefaults binds the built-in context builders.
func RegisterDefaults(r *BuilderRegistry) {
	r.Register(IDHealthArc, BuilderFunc(buildHealthArc))
	r.Register(IDTokenInfo, BuilderFunc(buildTokenInfo))
	r.Register(IDFacingArc, BuilderFunc(buildFacingArc))
	r.Register(IDVisionRange, BuilderFunc(buildVisionRange))
	r.Register(IDTokenBoundary, BuilderFunc(buildBoundary))
	r.Register(IDMovementPath, BuilderFunc(buildMovementPath))
	r.Register(IDObstacleIndicator, BuilderFunc(buildObstacle))
	r.Register(IDHoverName, BuilderFunc(buildHoverName))
	r.Register(IDControlledMarker, BuilderFunc(buildControlledMarker))
}

// HealthArcs returns the health, missing-health and temp arcs for the given
// fractions. All three run anticlockwise from their start.
func HealthArcs(pct, tempPct float64) (hp, missing, temp ArcSpan) {
	pct = clamp01(pct)
	tempPct = clamp01(tempPct)
	end := HealthArcStart - HealthArcSweep*pct
	hp = ArcSpan{StartDeg: HealthArcStart, EndDeg: end, Anticlockwise: true}
	missing = ArcSpan{StartDeg: end, EndDeg: HealthArcTrackTo, Anticlockwise: true}
	temp = ArcSpan{StartDeg: HealthArcTrackTo, EndDeg: HealthArcTrackTo - HealthArcSweep*tempPct, Anticlockwise: true}
	return hp, missing, temp
}

// expects HealthOptions; anything else renders an empty gauge.
func buildHealthArc(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	var r HealthOptions
	if o, ok := opts.(HealthOptions); ok {
		r = o
	}

	var pct, tempPct float64
	if r.Result.MaxHealth > 0 {
		pct = clamp01(float64(r.Result.Health) / float64(r.Result.MaxHealth))
		tempPct = clamp01(float64(r.Result.TempHealth) / float64(r.Result.MaxHealth))
	}

	high := def.Style("healthHigh", Style{Colour: ColourHealthHigh}).Colour
	low := def.Style("healthLow", Style{Colour: ColourHealthLow}).Colour
	arc := def.Style("arc", Style{LineWidth: 5})

	hp, missing, temp := HealthArcs(pct, tempPct)
	ctx.Health = &HealthInfo{
		Health:           r.Result.Health,
		MaxHealth:        r.Result.MaxHealth,
		TempHealth:       r.Result.TempHealth,
		Accuracy:         r.Result.Accuracy,
		Percentage:       pct,
		TempPercentage:   tempPct,
		Colour:           LerpRGBA(high, low, 1-pct),
		BackgroundColour: def.Style("background", Style{Colour: ColourArcTrack}).Colour,
		TempColour:       def.Style("temp", Style{Colour: ColourTempHealth}).Colour,
		HealthArc:        hp,
		BackgroundArc:    missing,
		TempArc:          temp,
		Radius:           ctx.Token.Radius + healthPadding,
		Width:            arc.LineWidth,
	}
	return ctx, nil
}

// ContactLabel is the designation shown for a token of the given
// disposition. Friendly tokens get no label.
func ContactLabel(d host.Disposition, trackingNumber string) string {
	var prefix string
	switch d {
	case host.DispositionFriendly:
		return ""
	case host.DispositionSecret:
		prefix = "Contact"
	case host.DispositionNeutral:
		prefix = "Bogey"
	case host.DispositionHostile:
		prefix = "Bandit"
	default:
		prefix = "Contact"
	}
	if trackingNumber == "" {
		return prefix
	}
	return prefix + " " + trackingNumber
}

// expects TokenInfoOptions.
func buildTokenInfo(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	var trn string
	if o, ok := opts.(TokenInfoOptions); ok {
		trn = o.TrackingNumber
	}
	st := def.Style("text", Style{Colour: ColourInfoText, FontSize: 13})
	ctx.TokenInfo = &TokenInfo{
		Text:           ContactLabel(target.Disposition(), trn),
		Disposition:    target.Disposition(),
		TrackingNumber: trn,
		FontSize:       st.FontSize,
		Colour:         st.Colour,
		OffsetY:        -(ctx.Token.Radius + st.FontSize),
	}
	return ctx, nil
}

func buildFacingArc(target host.Token, def *Definition, _ Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	st := def.Style("wedge", Style{Colour: ColourFacing, LineWidth: 2})
	ctx.Rotation = &RotationInfo{
		// Token rotation 0 faces down the screen, which is +90° on the canvas.
		FacingDeg: math.Mod(target.Rotation()+90, 360),
		ArcDeg:    FacingArcDeg,
		Radius:    ctx.Token.Radius + facingPadding,
		Colour:    st.Colour,
	}
	return ctx, nil
}

func buildVisionRange(target host.Token, def *Definition, _ Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	st := def.Style("ring", Style{Colour: ColourVision, LineWidth: 2})
	ctx.Visibility = &VisibilityInfo{
		Range:   target.VisionRange(),
		Hidden:  target.Hidden(),
		Visible: target.Visible(),
		Colour:  st.Colour,
	}
	return ctx, nil
}

func buildBoundary(target host.Token, def *Definition, _ Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	st := def.Style("outline", Style{Colour: ColourBoundary, LineWidth: 1})
	ctx.Boundary = &BoundaryInfo{
		Width:     ctx.Token.Width,
		Height:    ctx.Token.Height,
		Radius:    ctx.Token.Radius,
		LineWidth: st.LineWidth,
		Colour:    st.Colour,
	}
	return ctx, nil
}

// expects DragOptions; target is the drag preview.
func buildMovementPath(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	o, ok := opts.(DragOptions)
	if !ok || o.Origin == nil {
		return nil, fmt.Errorf("overlay %s: drag origin required", def.ID)
	}
	ctx := BaseContext(target, def)
	ox, oy := o.Origin.Centre()
	dx, dy := ox-ctx.Centre.X, oy-ctx.Centre.Y
	st := def.Style("path", Style{Colour: ColourMovement, LineWidth: 2})
	ctx.Movement = &MovementInfo{
		Origin:      Point{X: dx, Y: dy},
		Destination: Point{},
		Distance:    math.Hypot(dx, dy),
		Colour:      st.Colour,
	}
	return ctx, nil
}

// expects ObstacleOptions; target is the blocking token.
func buildObstacle(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	var mover string
	if o, ok := opts.(ObstacleOptions); ok && o.Mover != nil {
		mover = o.Mover.ID()
	}
	st := def.Style("mark", Style{Colour: ColourObstacle, LineWidth: 3})
	ctx.Obstacle = &ObstacleInfo{
		BlockerID: target.ID(),
		MoverID:   mover,
		Radius:    ctx.Token.Radius + 4,
		Colour:    st.Colour,
	}
	return ctx, nil
}

func buildHoverName(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	st := def.Style("text", Style{Colour: ColourHoverName, FontSize: 12})
	ctx.TokenInfo = &TokenInfo{
		Text:        target.Name(),
		Disposition: target.Disposition(),
		FontSize:    st.FontSize,
		Colour:      st.Colour,
		OffsetY:     ctx.Token.Radius + 4,
	}
	ctx.User = userInfo(opts)
	return ctx, nil
}

// expects UserOptions; the ring takes the user's colour.
func buildControlledMarker(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	ctx := BaseContext(target, def)
	ctx.User = userInfo(opts)
	st := def.Style("ring", Style{Colour: ColourControlMark, LineWidth: 2})
	colour := st.Colour
	if ctx.User != nil && ctx.User.Colour.A != 0 {
		colour = ctx.User.Colour
	}
	ctx.Boundary = &BoundaryInfo{
		Width:     ctx.Token.Width,
		Height:    ctx.Token.Height,
		Radius:    ctx.Token.Radius + 2,
		LineWidth: st.LineWidth,
		Colour:    colour,
	}
	return ctx, nil
}

func userInfo(opts Options) *UserInfo {
	o, ok := opts.(UserOptions)
	if !ok || o.User == nil {
		return nil
	}
	return &UserInfo{ID: o.User.ID(), Name: o.User.Name(), IsGM: o.User.IsGM(), Colour: o.User.Colour()}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
