package host

import (
	"math"
	"slices"
)

// ObstacleValidator blocks a drag when the straight path from the mover's
// centre to the preview's centre crosses another token's footprint.
type ObstacleValidator struct {
	// Inset shrinks each obstacle's footprint so grazing an edge is allowed.
	Inset float64
	// PassThrough lists movement modes that ignore token obstacles.
	PassThrough []string
}

// NewObstacleValidator returns a validator with a small inset and flying
// tokens passing over others.
func NewObstacleValidator() *ObstacleValidator {
	return &ObstacleValidator{Inset: 4, PassThrough: []string{"fly"}}
}

// Validate returns Blocked with the nearest obstacle along the path, Clear
// when nothing is hit, and Ignored when there is no path to check.
func (v *ObstacleValidator) Validate(mover, preview Token, obstacles []Token) MovementResult {
	if mover == nil || preview == nil {
		return MovementResult{Status: MovementIgnored}
	}
	ax, ay := mover.Centre()
	bx, by := preview.Centre()
	if math.Hypot(bx-ax, by-ay) < 1e-6 {
		return MovementResult{Status: MovementIgnored}
	}
	if slices.Contains(v.PassThrough, mover.MovementMode()) {
		return MovementResult{Status: MovementClear}
	}

	a, b := [2]float64{ax, ay}, [2]float64{bx, by}
	bestT := math.MaxFloat64
	var blocker Token
	for _, o := range obstacles {
		if o == nil || o.ID() == mover.ID() || o.ID() == preview.ID() {
			continue
		}
		f, ok := v.footprint(o)
		if !ok {
			continue
		}
		if t, hit := f.entry(a, b); hit && t < bestT {
			bestT = t
			blocker = o
		}
	}
	if blocker == nil {
		return MovementResult{Status: MovementClear}
	}
	return MovementResult{Status: MovementBlocked, Blocker: blocker}
}

// footprint is a token's box shrunk by the validator inset, indexed by axis.
type footprint struct {
	min, max [2]float64
}

// footprint reports false when the inset swallows the whole token.
func (v *ObstacleValidator) footprint(o Token) (footprint, bool) {
	x, y := o.Position()
	w, h := o.Size()
	f := footprint{
		min: [2]float64{x + v.Inset, y + v.Inset},
		max: [2]float64{x + w - v.Inset, y + h - v.Inset},
	}
	return f, f.max[0] > f.min[0] && f.max[1] > f.min[1]
}

// entry returns the fraction of the path a->b travelled before it first
// touches f. A path starting inside f enters at 0.
func (f footprint) entry(a, b [2]float64) (float64, bool) {
	enter, leave := 0.0, 1.0
	for axis := range 2 {
		d := b[axis] - a[axis]
		if d == 0 {
			if a[axis] < f.min[axis] || a[axis] > f.max[axis] {
				return 0, false
			}
			continue
		}
		near := (f.min[axis] - a[axis]) / d
		far := (f.max[axis] - a[axis]) / d
		if near > far {
			near, far = far, near
		}
		enter = max(enter, near)
		leave = min(leave, far)
		if enter > leave {
			return 0, false
		}
	}
	return enter, true
}
