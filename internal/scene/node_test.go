package scene

import (
	"image/color"
	"testing"
)

func TestNode_AddChildReparentsAtomically(t *testing.T) {
	a := NewNode("a")
	b := NewNode("b")
	c := NewNode("c")

	a.AddChild(c)
	b.AddChild(c)

	if c.Parent() != b {
		t.Fatal("child should now belong to b")
	}
	if len(a.Children()) != 0 {
		t.Fatalf("a should have no children, has %d", len(a.Children()))
	}
	if len(b.Children()) != 1 {
		t.Fatalf("b should have one child, has %d", len(b.Children()))
	}

	// Re-adding to the same parent must not duplicate.
	b.AddChild(c)
	if len(b.Children()) != 1 {
		t.Fatal("re-adding a child duplicated it")
	}
}

func TestNode_SortChildrenByZIndexStable(t *testing.T) {
	root := NewNode("root")
	for i, z := range []int{5, 1, 5, 0} {
		n := NewNode(string(rune('a' + i)))
		n.ZIndex = z
		root.AddChild(n)
	}
	root.SortChildren()
	var got string
	for _, c := range root.Children() {
		got += c.Name
	}
	if got != "dbac" {
		t.Fatalf("expected dbac, got %s", got)
	}
}

func TestNode_DestroyIsRecursiveAndIdempotent(t *testing.T) {
	root := NewNode("root")
	mid := NewNode("mid")
	leaf := NewNode("leaf")
	root.AddChild(mid)
	mid.AddChild(leaf)
	leaf.Circle(0, 0, 4, 0, color.RGBA{A: 255})

	mid.Destroy()
	mid.Destroy()

	if len(root.Children()) != 0 {
		t.Fatal("destroyed node should be detached")
	}
	if !leaf.Destroyed() || leaf.Parent() != nil || len(leaf.Commands()) != 0 {
		t.Fatal("descendants should be destroyed too")
	}
}

func TestNode_WalkSkipsInvisibleSubtrees(t *testing.T) {
	root := NewNode("root")
	root.X, root.Y = 10, 20
	shown := NewNode("shown")
	shown.X = 5
	hidden := NewNode("hidden")
	hidden.Visible = false
	hidden.AddChild(NewNode("under-hidden"))
	root.AddChild(shown)
	root.AddChild(hidden)

	seen := map[string][2]float64{}
	root.Walk(func(n *Node, wx, wy, _ float64) {
		seen[n.Name] = [2]float64{wx, wy}
	})
	if _, ok := seen["hidden"]; ok {
		t.Fatal("hidden node should be skipped")
	}
	if _, ok := seen["under-hidden"]; ok {
		t.Fatal("children of hidden node should be skipped")
	}
	if seen["shown"] != [2]float64{15, 20} {
		t.Fatalf("unexpected world position %v", seen["shown"])
	}
}

func TestNode_ClearKeepsNodeReusable(t *testing.T) {
	n := NewNode("n")
	n.Line(0, 0, 1, 1, 1, color.RGBA{})
	n.Text(0, 0, "Bandit 042", 12, color.RGBA{})
	n.Clear()
	if len(n.Commands()) != 0 {
		t.Fatal("Clear should drop commands")
	}
	n.Rect(0, 0, 2, 2, 0, color.RGBA{})
	if len(n.Commands()) != 1 || n.Commands()[0].X2 != 2 {
		t.Fatalf("unexpected commands %+v", n.Commands())
	}
}

func TestParseLayer(t *testing.T) {
	for _, l := range Layers() {
		got, ok := ParseLayer(l.String())
		if !ok || got != l {
			t.Errorf("ParseLayer(%q) = %v, %v", l.String(), got, ok)
		}
	}
	if _, ok := ParseLayer("nope"); ok {
		t.Error("expected unknown layer to fail")
	}
}
