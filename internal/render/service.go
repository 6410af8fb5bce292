// Package render owns every overlay drawable on the canvas. Callers address
// drawables by (token id, overlay id); node handles never leave the package.
package render

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/scene"
)

var (
	ErrNotInitialised = errors.New("render: service not initialised")
	ErrUnknownOverlay = errors.New("render: unknown overlay type")
	ErrNoPainter      = errors.New("render: no paint strategy")
)

const keySep = ":"

// InstanceKey is the identity of one rendered overlay.
func InstanceKey(tokenID, overlayID string) string {
	return tokenID + keySep + overlayID
}

// Painter draws an overlay into its drawable. The drawable is cleared before
// each call and its origin is the token centre.
type Painter func(d *scene.Node, ctx *overlay.RenderContext)

type instance struct {
	node      *scene.Node
	tokenID   string
	overlayID string
	layer     scene.Layer
}

// Service is the overlay rendering service.
//
// Thread-Safety: owner goroutine only.
type Service struct {
	canvas   host.Canvas
	registry *overlay.Registry
	bus      *event.Bus
	log      *logging.Logger

	painters  map[string]Painter
	layers    map[scene.Layer]*scene.Node
	types     map[string]*scene.Node
	instances map[string]*instance
	fallback  *scene.Node

	ready   bool
	waiting bool
	onReady event.Subscription
}

// NewService creates an uninitialised service.
func NewService(canvas host.Canvas, registry *overlay.Registry, bus *event.Bus, log *logging.Logger) *Service {
	return &Service{
		canvas:    canvas,
		registry:  registry,
		bus:       bus,
		log:       log.With("render"),
		painters:  make(map[string]Painter),
		layers:    make(map[scene.Layer]*scene.Node),
		types:     make(map[string]*scene.Node),
		instances: make(map[string]*instance),
	}
}

// RegisterPainter sets the paint strategy for an overlay type.
func (s *Service) RegisterPainter(overlayID string, p Painter) {
	s.painters[overlayID] = p
}

// HasPainter reports whether overlayID can be drawn.
func (s *Service) HasPainter(overlayID string) bool {
	_, ok := s.painters[overlayID]
	return ok
}

// Ready reports whether Initialise has completed.
func (s *Service) Ready() bool { return s.ready }

// Initialise prepares the layer containers. If the canvas is not ready yet it
// waits for the next CanvasReady event and reports false.
func (s *Service) Initialise() bool {
	if s.ready {
		return true
	}
	if !s.canvas.Ready() {
		if !s.waiting && s.bus != nil {
			s.waiting = true
			s.onReady = s.bus.Once(event.CanvasReady, func(event.Event) {
				s.waiting = false
				s.Initialise()
			})
			s.log.Debugf("canvas not ready; deferring initialisation")
		}
		return false
	}

	parent, ok := s.canvas.Layer(scene.LayerInterface)
	if !ok {
		parent = s.canvas.Root()
	}
	s.fallback = scene.NewNode("overlays:fallback")
	parent.AddChild(s.fallback)
	s.ready = true
	s.log.Infof("initialised")
	return true
}

// Teardown destroys every drawable and container and returns the service to
// its uninitialised state. Safe to call repeatedly.
func (s *Service) Teardown() {
	if s.waiting && s.bus != nil {
		s.bus.Unsubscribe(s.onReady)
		s.waiting = false
	}
	for key, inst := range s.instances {
		inst.node.Destroy()
		delete(s.instances, key)
	}
	for id, n := range s.types {
		n.Destroy()
		delete(s.types, id)
	}
	for l, n := range s.layers {
		n.Destroy()
		delete(s.layers, l)
	}
	if s.fallback != nil {
		s.fallback.Destroy()
		s.fallback = nil
	}
	if s.ready {
		s.log.Infof("torn down")
	}
	s.ready = false
}

// RenderTokenOverlay draws ctx into the drawable for (token, overlay),
// creating or moving it as needed, and makes it visible.
func (s *Service) RenderTokenOverlay(ctx *overlay.RenderContext) error {
	if !s.ready {
		s.log.Errorf("render %s requested before initialisation", ctx.OverlayID)
		return ErrNotInitialised
	}
	def, ok := s.registry.Get(ctx.OverlayID)
	if !ok {
		return fmt.Errorf("render %q: %w", ctx.OverlayID, ErrUnknownOverlay)
	}
	paint, ok := s.painters[ctx.OverlayID]
	if !ok {
		return fmt.Errorf("render %q: %w", ctx.OverlayID, ErrNoPainter)
	}

	key := InstanceKey(ctx.Token.ID, ctx.OverlayID)
	parent, x, y := s.parentFor(def, ctx)

	inst, ok := s.instances[key]
	if ok && inst.node.Destroyed() {
		// The host destroyed the mesh it hung from.
		delete(s.instances, key)
		ok = false
	}
	if !ok {
		inst = &instance{node: scene.NewNode(key), tokenID: ctx.Token.ID, overlayID: ctx.OverlayID}
		s.instances[key] = inst
	}
	inst.layer = def.RenderLayer

	d := inst.node
	d.ZIndex = def.ZIndex
	if d.Parent() != parent {
		parent.AddChild(d)
		parent.SortChildren()
	}
	d.X, d.Y = x, y
	d.Clear()
	paint(d, ctx)
	d.Visible = true
	return nil
}

// parentFor picks the token mesh when asked for and available, else the
// overlay type container with the drawable at the world centre.
func (s *Service) parentFor(def *overlay.Definition, ctx *overlay.RenderContext) (*scene.Node, float64, float64) {
	if ctx.RenderOnTokenMesh {
		if mesh, ok := s.canvas.TokenMesh(ctx.Token.ID); ok && !mesh.Destroyed() {
			return mesh, 0, 0
		}
		s.log.Debugf("no mesh for token %s; %s falls back to layer", ctx.Token.ID, ctx.OverlayID)
	}
	return s.typeContainer(def), ctx.Centre.X, ctx.Centre.Y
}

func (s *Service) typeContainer(def *overlay.Definition) *scene.Node {
	if n, ok := s.types[def.ID]; ok && !n.Destroyed() {
		return n
	}
	n := scene.NewNode("overlay:" + def.ID)
	n.ZIndex = def.ZIndex
	layer := s.layerContainer(def.RenderLayer)
	layer.AddChild(n)
	layer.SortChildren()
	s.types[def.ID] = n
	return n
}

func (s *Service) layerContainer(l scene.Layer) *scene.Node {
	if n, ok := s.layers[l]; ok && !n.Destroyed() {
		return n
	}
	hostLayer, ok := s.canvas.Layer(l)
	if !ok || hostLayer.Destroyed() {
		s.log.Debugf("canvas has no %s layer; using fallback", l)
		return s.fallback
	}
	n := scene.NewNode("overlays:" + l.String())
	hostLayer.AddChild(n)
	s.layers[l] = n
	return n
}

// ClearTokenOverlay destroys one drawable.
func (s *Service) ClearTokenOverlay(tokenID, overlayID string) bool {
	key := InstanceKey(tokenID, overlayID)
	inst, ok := s.instances[key]
	if !ok {
		return false
	}
	inst.node.Destroy()
	delete(s.instances, key)
	return true
}

// ClearAllTokenOverlays destroys every drawable of a token.
func (s *Service) ClearAllTokenOverlays(tokenID string) int {
	return s.destroyWhere(func(inst *instance) bool { return inst.tokenID == tokenID })
}

// ClearOverlayType destroys every drawable of an overlay type.
func (s *Service) ClearOverlayType(overlayID string) int {
	return s.destroyWhere(func(inst *instance) bool { return inst.overlayID == overlayID })
}

// destroyWhere matches on the stored ids; keys are ambiguous once an id
// contains keySep.
func (s *Service) destroyWhere(match func(*instance) bool) int {
	n := 0
	for key, inst := range s.instances {
		if match(inst) {
			inst.node.Destroy()
			delete(s.instances, key)
			n++
		}
	}
	return n
}

// HideTokenOverlay hides one drawable without destroying it.
func (s *Service) HideTokenOverlay(tokenID, overlayID string) bool {
	inst, ok := s.instances[InstanceKey(tokenID, overlayID)]
	if !ok {
		return false
	}
	inst.node.Visible = false
	return true
}

// HideAllOverlaysOfType hides every drawable of an overlay type.
func (s *Service) HideAllOverlaysOfType(overlayID string) int {
	n := 0
	for _, inst := range s.instances {
		if inst.overlayID == overlayID {
			inst.node.Visible = false
			n++
		}
	}
	return n
}

// IsVisible reports whether (token, overlay) has a visible drawable.
func (s *Service) IsVisible(tokenID, overlayID string) bool {
	inst, ok := s.instances[InstanceKey(tokenID, overlayID)]
	return ok && inst.node.Visible && !inst.node.Destroyed()
}

// Instances returns the live instance keys, sorted.
func (s *Service) Instances() []string {
	keys := make([]string, 0, len(s.instances))
	for k := range s.instances {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Drawable is a serialisable snapshot of one visible overlay. X and Y are
// the drawable origin in canvas space; commands are relative to it.
type Drawable struct {
	Key       string          `json:"key"`
	TokenID   string          `json:"tokenId"`
	OverlayID string          `json:"overlayId"`
	Layer     string          `json:"layer"`
	ZIndex    int             `json:"zIndex"`
	X         float64         `json:"x"`
	Y         float64         `json:"y"`
	Commands  []scene.Command `json:"commands"`
}

// Frame snapshots every visible drawable in layer then z order.
func (s *Service) Frame() []Drawable {
	var out []Drawable
	for key, inst := range s.instances {
		d := inst.node
		if !d.Visible || d.Destroyed() {
			continue
		}
		x, y := d.WorldPosition()
		out = append(out, Drawable{
			Key:       key,
			TokenID:   inst.tokenID,
			OverlayID: inst.overlayID,
			Layer:     inst.layer.String(),
			ZIndex:    d.ZIndex,
			X:         x,
			Y:         y,
			Commands:  append([]scene.Command(nil), d.Commands()...),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		li, _ := scene.ParseLayer(out[i].Layer)
		lj, _ := scene.ParseLayer(out[j].Layer)
		if li != lj {
			return li < lj
		}
		if out[i].ZIndex != out[j].ZIndex {
			return out[i].ZIndex < out[j].ZIndex
		}
		return out[i].Key < out[j].Key
	})
	return out
}
