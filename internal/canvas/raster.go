// Package canvas rasterises a scene graph onto an ebiten image.
package canvas

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// Camera maps world coordinates to screen pixels.
type Camera struct {
	OffX, OffY float64
	Zoom       float64
}

// Project converts a world point to screen space.
func (c Camera) Project(x, y float64) (float64, float64) {
	z := c.zoom()
	return x*z + c.OffX, y*z + c.OffY
}

// Unproject converts a screen point to world space.
func (c Camera) Unproject(sx, sy float64) (float64, float64) {
	z := c.zoom()
	return (sx - c.OffX) / z, (sy - c.OffY) / z
}

func (c Camera) zoom() float64 {
	if c.Zoom <= 0 {
		return 1
	}
	return c.Zoom
}

// Rasteriser draws retained paint commands. Not safe for concurrent use.
type Rasteriser struct {
	Camera Camera

	source *text.GoTextFaceSource
	faces  map[float64]*text.GoTextFace
}

// New loads the embedded label font.
func New() (*Rasteriser, error) {
	src, err := text.NewGoTextFaceSource(bytes.NewReader(goregular.TTF))
	if err != nil {
		return nil, fmt.Errorf("canvas: load font: %w", err)
	}
	return &Rasteriser{
		Camera: Camera{Zoom: 1},
		source: src,
		faces:  make(map[float64]*text.GoTextFace),
	}, nil
}

// Draw walks root and rasterises every visible node's commands in tree
// order.
func (r *Rasteriser) Draw(dst *ebiten.Image, root *scene.Node) {
	if root == nil {
		return
	}
	root.Walk(func(n *scene.Node, wx, wy, alpha float64) {
		for _, c := range n.Commands() {
			r.command(dst, c, wx, wy, alpha)
		}
	})
}

func (r *Rasteriser) command(dst *ebiten.Image, c scene.Command, ox, oy, alpha float64) {
	z := r.Camera.zoom()
	clr := Fade(c.Colour, alpha)
	width := float32(c.Width * z)
	x, y := r.Camera.Project(ox+c.X, oy+c.Y)

	switch c.Kind {
	case scene.CmdArc:
		pts := ArcPoints(c.X, c.Y, c.Radius, c.Start, c.End, c.Anticlockwise)
		for i := 1; i < len(pts); i++ {
			x1, y1 := r.Camera.Project(ox+pts[i-1][0], oy+pts[i-1][1])
			x2, y2 := r.Camera.Project(ox+pts[i][0], oy+pts[i][1])
			vector.StrokeLine(dst, float32(x1), float32(y1), float32(x2), float32(y2), width, clr, true)
		}
	case scene.CmdCircle:
		rad := float32(c.Radius * z)
		if c.Width == 0 {
			vector.FillCircle(dst, float32(x), float32(y), rad, clr, true)
		} else {
			vector.StrokeCircle(dst, float32(x), float32(y), rad, width, clr, true)
		}
	case scene.CmdLine:
		x2, y2 := r.Camera.Project(ox+c.X2, oy+c.Y2)
		vector.StrokeLine(dst, float32(x), float32(y), float32(x2), float32(y2), width, clr, true)
	case scene.CmdRect:
		w := float32((c.X2 - c.X) * z)
		h := float32((c.Y2 - c.Y) * z)
		if c.Width == 0 {
			vector.FillRect(dst, float32(x), float32(y), w, h, clr, false)
		} else {
			vector.StrokeRect(dst, float32(x), float32(y), w, h, width, clr, false)
		}
	case scene.CmdText:
		if c.Text == "" {
			return
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(x, y)
		op.ColorScale.ScaleWithColor(clr)
		op.PrimaryAlign = text.AlignCenter
		op.SecondaryAlign = text.AlignCenter
		text.Draw(dst, c.Text, r.face(c.Size*z), op)
	}
}

func (r *Rasteriser) face(size float64) *text.GoTextFace {
	if size <= 0 {
		size = 12
	}
	size = math.Round(size)
	f, ok := r.faces[size]
	if !ok {
		f = &text.GoTextFace{Source: r.source, Size: size}
		r.faces[size] = f
	}
	return f
}

// Fade scales c's alpha by alpha. Colours are straight (not premultiplied).
func Fade(c color.RGBA, alpha float64) color.NRGBA {
	if alpha >= 1 {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}
	}
	if alpha < 0 {
		alpha = 0
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(math.Round(float64(c.A) * alpha))}
}

// arcStep is the target segment length in world pixels.
const arcStep = 4.0

// ArcPoints approximates an arc with a polyline. Angles are radians measured
// clockwise from +x on a y-down canvas; anticlockwise arcs run towards
// decreasing angles. Equal start and end yield no points.
func ArcPoints(cx, cy, radius, start, end float64, anticlockwise bool) [][2]float64 {
	sweep := end - start
	if anticlockwise {
		sweep = start - end
	}
	sweep = math.Mod(sweep, 2*math.Pi)
	if sweep < 0 {
		sweep += 2 * math.Pi
	}
	if sweep == 0 {
		if start == end {
			return nil
		}
		sweep = 2 * math.Pi
	}
	dir := 1.0
	if anticlockwise {
		dir = -1
	}

	n := int(math.Ceil(sweep * radius / arcStep))
	if n < 4 {
		n = 4
	}
	pts := make([][2]float64, n+1)
	for i := 0; i <= n; i++ {
		a := start + dir*sweep*float64(i)/float64(n)
		pts[i] = [2]float64{cx + radius*math.Cos(a), cy + radius*math.Sin(a)}
	}
	return pts
}
