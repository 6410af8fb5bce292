package scene

import (
	"image/color"
	"sort"
)

// CommandKind selects how a Command is rasterised.
type CommandKind int

const (
	CmdArc CommandKind = iota
	CmdCircle
	CmdLine
	CmdRect
	CmdText
)

// Command is one retained paint instruction, in the node's local space.
// Angles are radians. Width 0 on circles and rects means filled.
type Command struct {
	Kind          CommandKind `json:"kind"`
	X             float64     `json:"x"`
	Y             float64     `json:"y"`
	X2            float64     `json:"x2,omitempty"`
	Y2            float64     `json:"y2,omitempty"`
	Radius        float64     `json:"radius,omitempty"`
	Start         float64     `json:"start,omitempty"`
	End           float64     `json:"end,omitempty"`
	Anticlockwise bool        `json:"anticlockwise,omitempty"`
	Width         float64     `json:"width,omitempty"`
	Colour        color.RGBA  `json:"colour"`
	Text          string      `json:"text,omitempty"`
	Size          float64     `json:"size,omitempty"`
}

// Node is a scene-graph element: a container, a drawable, or both. Children
// inherit their parent's offset and visibility.
type Node struct {
	Name    string
	X, Y    float64
	ZIndex  int
	Visible bool
	Alpha   float64

	parent    *Node
	children  []*Node
	commands  []Command
	destroyed bool
}

// NewNode creates a visible, empty node.
func NewNode(name string) *Node {
	return &Node{Name: name, Visible: true, Alpha: 1}
}

// Parent returns the current parent, or nil when detached.
func (n *Node) Parent() *Node { return n.parent }

// Children returns the child slice. Callers must not modify it.
func (n *Node) Children() []*Node { return n.children }

// Destroyed reports whether Destroy has run.
func (n *Node) Destroyed() bool { return n.destroyed }

// AddChild attaches c to n, detaching it from any previous parent first.
// Re-adding an existing child is a no-op.
func (n *Node) AddChild(c *Node) {
	if c == nil || c == n || c.parent == n {
		return
	}
	if c.parent != nil {
		c.parent.RemoveChild(c)
	}
	c.parent = n
	n.children = append(n.children, c)
}

// RemoveChild detaches c. Returns false if c was not a child of n.
func (n *Node) RemoveChild(c *Node) bool {
	for i, child := range n.children {
		if child == c {
			n.children = append(n.children[:i], n.children[i+1:]...)
			c.parent = nil
			return true
		}
	}
	return false
}

// Detach removes n from its parent, if any.
func (n *Node) Detach() {
	if n.parent != nil {
		n.parent.RemoveChild(n)
	}
}

// SortChildren orders children by ZIndex, keeping insertion order for ties.
func (n *Node) SortChildren() {
	sort.SliceStable(n.children, func(i, j int) bool {
		return n.children[i].ZIndex < n.children[j].ZIndex
	})
}

// Destroy detaches n and destroys its whole subtree. Safe to call twice.
func (n *Node) Destroy() {
	if n.destroyed {
		return
	}
	n.Detach()
	for _, c := range n.children {
		c.parent = nil
		c.Destroy()
	}
	n.children = nil
	n.commands = nil
	n.destroyed = true
}

// WorldPosition sums offsets up to the root.
func (n *Node) WorldPosition() (float64, float64) {
	x, y := 0.0, 0.0
	for p := n; p != nil; p = p.parent {
		x += p.X
		y += p.Y
	}
	return x, y
}

// Walk visits n and every visible descendant depth-first, passing the
// accumulated world offset and alpha. Invisible subtrees are skipped.
func (n *Node) Walk(fn func(node *Node, wx, wy, alpha float64)) {
	n.walk(0, 0, 1, fn)
}

func (n *Node) walk(ox, oy, alpha float64, fn func(*Node, float64, float64, float64)) {
	if !n.Visible || n.destroyed {
		return
	}
	wx, wy := ox+n.X, oy+n.Y
	a := alpha * n.Alpha
	fn(n, wx, wy, a)
	for _, c := range n.children {
		c.walk(wx, wy, a, fn)
	}
}

// Commands returns the retained paint list.
func (n *Node) Commands() []Command { return n.commands }

// Clear drops all paint commands.
func (n *Node) Clear() { n.commands = n.commands[:0] }

// Arc strokes a circular arc from start to end (radians).
func (n *Node) Arc(cx, cy, radius, start, end float64, anticlockwise bool, width float64, c color.RGBA) {
	n.commands = append(n.commands, Command{
		Kind: CmdArc, X: cx, Y: cy, Radius: radius,
		Start: start, End: end, Anticlockwise: anticlockwise,
		Width: width, Colour: c,
	})
}

// Circle strokes a circle, or fills it when width is 0.
func (n *Node) Circle(cx, cy, radius, width float64, c color.RGBA) {
	n.commands = append(n.commands, Command{Kind: CmdCircle, X: cx, Y: cy, Radius: radius, Width: width, Colour: c})
}

// Line strokes a segment.
func (n *Node) Line(x1, y1, x2, y2, width float64, c color.RGBA) {
	n.commands = append(n.commands, Command{Kind: CmdLine, X: x1, Y: y1, X2: x2, Y2: y2, Width: width, Colour: c})
}

// Rect strokes a rectangle, or fills it when width is 0.
func (n *Node) Rect(x, y, w, h, width float64, c color.RGBA) {
	n.commands = append(n.commands, Command{Kind: CmdRect, X: x, Y: y, X2: x + w, Y2: y + h, Width: width, Colour: c})
}

// Text draws s horizontally centred on (x, y).
func (n *Node) Text(x, y float64, s string, size float64, c color.RGBA) {
	n.commands = append(n.commands, Command{Kind: CmdText, X: x, Y: y, Text: s, Size: size, Colour: c})
}
