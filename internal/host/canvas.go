package host

import "github.com/Garsondee/tactical-overlays/internal/scene"

// SceneCanvas is an in-memory Canvas: a root node with one child per render
// layer and a mesh node per token on the tokens layer. Meshes sit at the
// token centre.
type SceneCanvas struct {
	root   *scene.Node
	layers map[scene.Layer]*scene.Node
	meshes map[string]*scene.Node
	ready  bool
	grid   GridType
}

// NewSceneCanvas builds the layer stack. The canvas starts unready.
func NewSceneCanvas() *SceneCanvas {
	c := &SceneCanvas{
		meshes: make(map[string]*scene.Node),
		grid:   GridSquare,
	}
	c.build()
	return c
}

func (c *SceneCanvas) build() {
	c.root = scene.NewNode("canvas")
	c.layers = make(map[scene.Layer]*scene.Node)
	for _, l := range scene.Layers() {
		n := scene.NewNode(l.String())
		n.ZIndex = int(l)
		c.root.AddChild(n)
		c.layers[l] = n
	}
}

// MarkReady flags the canvas as drawable.
func (c *SceneCanvas) MarkReady() { c.ready = true }

// Teardown destroys the scene and rebuilds an empty, unready layer stack.
// Token meshes are recreated by syncing tokens again.
func (c *SceneCanvas) Teardown() {
	c.root.Destroy()
	c.meshes = make(map[string]*scene.Node)
	c.ready = false
	c.build()
}

// Rebuild recreates meshes for every token in w, e.g. after Teardown.
func (c *SceneCanvas) Rebuild(w *World) {
	for _, id := range w.order {
		c.ensureMesh(w.tokens[id])
	}
}

// SetGridType changes the reported grid geometry.
func (c *SceneCanvas) SetGridType(g GridType) { c.grid = g }

// RemoveLayer drops a host layer, e.g. to simulate systems without one.
func (c *SceneCanvas) RemoveLayer(l scene.Layer) {
	if n, ok := c.layers[l]; ok {
		n.Destroy()
		delete(c.layers, l)
	}
}

func (c *SceneCanvas) Ready() bool        { return c.ready }
func (c *SceneCanvas) Root() *scene.Node  { return c.root }
func (c *SceneCanvas) GridType() GridType { return c.grid }

func (c *SceneCanvas) Layer(l scene.Layer) (*scene.Node, bool) {
	n, ok := c.layers[l]
	return n, ok
}

func (c *SceneCanvas) TokenMesh(tokenID string) (*scene.Node, bool) {
	n, ok := c.meshes[tokenID]
	return n, ok
}

func (c *SceneCanvas) ensureMesh(t *TokenState) {
	mesh, ok := c.meshes[t.id]
	if !ok {
		mesh = scene.NewNode("token:" + t.id)
		c.meshes[t.id] = mesh
		if layer, ok := c.layers[scene.LayerTokens]; ok {
			layer.AddChild(mesh)
		} else {
			c.root.AddChild(mesh)
		}
	}
	mesh.X, mesh.Y = t.Centre()
}

func (c *SceneCanvas) syncMesh(t *TokenState) {
	if mesh, ok := c.meshes[t.id]; ok {
		mesh.X, mesh.Y = t.Centre()
	}
}

func (c *SceneCanvas) removeMesh(id string) {
	if mesh, ok := c.meshes[id]; ok {
		mesh.Destroy()
		delete(c.meshes, id)
	}
}
