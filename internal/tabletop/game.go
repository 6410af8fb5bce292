// Package tabletop is a small ebiten virtual tabletop that hosts the overlay
// engine: it owns the world, turns input into bus events and draws tokens
// with their overlays.
package tabletop

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/tactical-overlays/internal/canvas"
	"github.com/Garsondee/tactical-overlays/internal/engine"
	"github.com/Garsondee/tactical-overlays/internal/event"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

const (
	tableCols     = 22
	tableRows     = 16
	statusTicks   = 180
	rotationStep  = 45.0
	zoomMin       = 0.5
	zoomMax       = 3.0
	hiddenAlpha   = 0.45
	previewAlpha  = 0.5
	healthStep    = 3
	panSpeed      = 6.0
	wheelZoomBase = 1.12
)

var dispositionColours = map[host.Disposition]color.RGBA{
	host.DispositionFriendly: {R: 60, G: 140, B: 220, A: 255},
	host.DispositionNeutral:  {R: 200, G: 190, B: 90, A: 255},
	host.DispositionHostile:  {R: 200, G: 60, B: 50, A: 255},
	host.DispositionSecret:   {R: 140, G: 90, B: 180, A: 255},
}

// Options configure a Game.
type Options struct {
	World  *host.World
	Bus    *event.Bus
	Engine *engine.Engine
	Logger *logging.Logger
	Width  int
	Height int
}

// Game implements ebiten.Game.
type Game struct {
	world  *host.World
	bus    *event.Bus
	eng    *engine.Engine
	log    *logging.Logger
	raster *canvas.Rasteriser
	events *EventLog
	subs   []event.Subscription

	width  int
	height int
	tableW int

	camX, camY, camZoom float64

	tick       int
	started    bool
	showHUD    bool
	status     string
	statusTill int

	keys          []ebiten.Key
	held          []ebiten.Key
	prevMouseLeft bool
	hovered       string
	dragID        string
	previewID     string
	grabDX        float64
	grabDY        float64
}

// New creates the game and subscribes the event log panel to the bus.
func New(o Options) (*Game, error) {
	r, err := canvas.New()
	if err != nil {
		return nil, err
	}
	g := &Game{
		world:   o.World,
		bus:     o.Bus,
		eng:     o.Engine,
		log:     o.Logger.With("tabletop"),
		raster:  r,
		events:  NewEventLog(),
		width:   o.Width,
		height:  o.Height,
		tableW:  o.Width - logPanelWidth,
		camX:    tableCols * GridSize / 2,
		camY:    tableRows * GridSize / 2,
		camZoom: 1,
		showHUD: true,
	}
	for t := event.CanvasReady; t <= event.KeyUp; t++ {
		g.subs = append(g.subs, g.bus.Subscribe(t, func(e event.Event) {
			g.events.Add(g.tick, e.Type.String(), Describe(e))
		}))
	}
	return g, nil
}

// Close detaches the game from the bus.
func (g *Game) Close() {
	for _, s := range g.subs {
		g.bus.Unsubscribe(s)
	}
	g.subs = nil
}

func (g *Game) Update() error {
	if !g.started {
		g.world.SceneCanvas().MarkReady()
		g.bus.Publish(event.Event{Type: event.CanvasReady})
		g.started = true
	}
	g.bus.Drain()
	g.handleInput()
	g.tick++
	return nil
}

func (g *Game) publish(t event.Type, payload any) {
	g.bus.Publish(event.Event{Type: t, Payload: payload})
}

func (g *Game) setStatus(format string, args ...any) {
	g.status = fmt.Sprintf(format, args...)
	g.statusTill = g.tick + statusTicks
}

func (g *Game) handleInput() {
	mods := event.Modifiers{
		Shift: ebiten.IsKeyPressed(ebiten.KeyShift),
		Ctrl:  ebiten.IsKeyPressed(ebiten.KeyControl),
		Alt:   ebiten.IsKeyPressed(ebiten.KeyAlt),
		Meta:  ebiten.IsKeyPressed(ebiten.KeyMeta),
	}

	g.keys = inpututil.AppendJustPressedKeys(g.keys[:0])
	for _, k := range g.keys {
		switch k {
		case ebiten.KeyTab:
			g.switchUser()
		case ebiten.KeyC:
			g.copyReport()
		case ebiten.KeyH:
			g.showHUD = !g.showHUD
		case ebiten.KeyEscape:
			g.cancelDrag()
		case ebiten.KeyQ:
			g.adjustHealth(-healthStep)
		case ebiten.KeyE:
			g.adjustHealth(healthStep)
		case ebiten.KeyR:
			g.rotateHovered()
		}
		g.publish(event.KeyDown, event.KeyPayload{Key: KeyName(k), Modifiers: mods})
	}
	g.held = inpututil.AppendPressedKeys(g.held[:0])
	g.keys = inpututil.AppendJustReleasedKeys(g.keys[:0])
	for _, k := range g.keys {
		if SharesHeldName(k, g.held) {
			continue
		}
		g.publish(event.KeyUp, event.KeyPayload{Key: KeyName(k), Modifiers: mods})
	}

	// Camera pan: arrow keys. Zoom: wheel or =/-.
	step := panSpeed / g.camZoom
	if ebiten.IsKeyPressed(ebiten.KeyArrowUp) {
		g.camY -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowDown) {
		g.camY += step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.camX -= step
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.camX += step
	}
	if _, wy := ebiten.Wheel(); wy != 0 {
		g.camZoom *= math.Pow(wheelZoomBase, wy)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEqual) {
		g.camZoom *= 1.25
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyMinus) {
		g.camZoom /= 1.25
	}
	g.camZoom = math.Max(zoomMin, math.Min(zoomMax, g.camZoom))
	g.raster.Camera = canvas.Camera{
		OffX: float64(g.tableW)/2 - g.camX*g.camZoom,
		OffY: float64(g.height)/2 - g.camY*g.camZoom,
		Zoom: g.camZoom,
	}

	mx, my := ebiten.CursorPosition()
	wx, wy := g.raster.Camera.Unproject(float64(mx), float64(my))
	inTable := mx < g.tableW

	if g.dragID == "" {
		under := ""
		if inTable {
			under = TokenAt(g.world, wx, wy)
		}
		g.setHovered(under)
	}

	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case left && !g.prevMouseLeft && inTable:
		g.press(wx, wy, mods.Shift)
	case left && g.dragID != "":
		g.dragTo(wx, wy)
	case !left && g.prevMouseLeft && g.dragID != "":
		g.drop()
	}
	g.prevMouseLeft = left
}

func (g *Game) setHovered(id string) {
	if id == g.hovered {
		return
	}
	if g.hovered != "" {
		prev := g.hovered
		g.world.SetHovered("")
		g.hovered = ""
		g.publish(event.TokenHovered, event.HoverPayload{TokenID: prev, Hovered: false})
	}
	if id != "" {
		g.world.SetHovered(id)
		g.hovered = id
		g.publish(event.TokenHovered, event.HoverPayload{TokenID: id, Hovered: true})
	}
}

// press selects the token under the cursor and starts dragging it. Clicking
// empty space releases control.
func (g *Game) press(wx, wy float64, additive bool) {
	id := TokenAt(g.world, wx, wy)
	if id == "" {
		for _, released := range g.world.ReleaseAll() {
			g.publish(event.TokenControlled, event.ControlPayload{TokenID: released, Controlled: false})
		}
		return
	}
	tok, _ := g.world.TokenState(id)
	if !tok.Owned() {
		g.setStatus("%s is not yours to move", tok.Name())
		return
	}
	if !additive {
		for _, released := range g.world.ReleaseAll() {
			if released != id {
				g.publish(event.TokenControlled, event.ControlPayload{TokenID: released, Controlled: false})
			}
		}
	}
	g.world.SetControlled(id, true)
	g.publish(event.TokenControlled, event.ControlPayload{TokenID: id, Controlled: true})

	preview, err := g.world.BeginPreview(id)
	if err != nil {
		g.log.Warnf("begin drag: %v", err)
		return
	}
	g.dragID = id
	g.previewID = preview.ID()
	g.grabDX, g.grabDY = wx-tok.X, wy-tok.Y
	g.publish(event.TokenDragStart, event.DragPayload{TokenID: id, PreviewID: g.previewID})
}

func (g *Game) dragTo(wx, wy float64) {
	p, ok := g.world.PreviewToken(g.previewID)
	if !ok {
		return
	}
	x, y := wx-g.grabDX, wy-g.grabDY
	if px, py := p.Position(); px == x && py == y {
		return
	}
	g.world.MovePreview(g.previewID, x, y)
	g.publish(event.TokenDragMove, event.DragPayload{TokenID: g.dragID, PreviewID: g.previewID})
}

func (g *Game) drop() {
	id, previewID := g.dragID, g.previewID
	p, ok := g.world.PreviewToken(previewID)
	moved := false
	if ok {
		px, py := p.Position()
		x, y := Snap(px), Snap(py)
		if tok, _ := g.world.TokenState(id); tok != nil && (tok.X != x || tok.Y != y) {
			g.world.MoveToken(id, x, y)
			moved = true
		}
	}
	g.publish(event.TokenDragEnd, event.DragPayload{TokenID: id, PreviewID: previewID})
	g.world.EndPreview(previewID)
	g.dragID, g.previewID = "", ""
	if moved {
		g.publish(event.TokenUpdated, event.TokenUpdatePayload{TokenID: id, Moved: true})
	}
}

func (g *Game) cancelDrag() {
	if g.dragID == "" {
		return
	}
	g.publish(event.TokenDragCancel, event.DragPayload{TokenID: g.dragID, PreviewID: g.previewID})
	g.world.EndPreview(g.previewID)
	g.dragID, g.previewID = "", ""
}

func (g *Game) rotateHovered() {
	tok, ok := g.world.TokenState(g.hovered)
	if !ok || !tok.Owned() {
		return
	}
	g.world.RotateToken(tok.ID(), math.Mod(tok.Rot+rotationStep, 360))
	g.publish(event.TokenUpdated, event.TokenUpdatePayload{TokenID: tok.ID(), Rotated: true})
}

// adjustHealth changes the hovered token's actor health. GM only.
func (g *Game) adjustHealth(delta int) {
	if u := g.world.CurrentUser(); u == nil || !u.IsGM() {
		g.setStatus("only the GM can change health")
		return
	}
	tok, ok := g.world.TokenState(g.hovered)
	if !ok || tok.ActorID == "" {
		return
	}
	a, ok := g.world.ActorState(tok.ActorID)
	if !ok {
		return
	}
	a.HP.Value = max(0, min(a.HP.Max, a.HP.Value+delta))
	g.publish(event.ActorUpdated, event.ActorPayload{ActorID: a.ID(), HealthChanged: true})
	g.setStatus("%s: %d/%d", tok.Name(), a.HP.Value, a.HP.Max)
}

// switchUser cycles the local user. Visibility and ownership change with the
// user, so the canvas is rebuilt the way a host reloads its scene.
func (g *Game) switchUser() {
	g.cancelDrag()
	g.setHovered("")

	var ids []string
	for _, u := range g.world.Users() {
		ids = append(ids, u.ID())
	}
	sort.Strings(ids)
	cur := ""
	if u := g.world.CurrentUser(); u != nil {
		cur = u.ID()
	}
	next := ids[0]
	for i, id := range ids {
		if id == cur {
			next = ids[(i+1)%len(ids)]
		}
	}

	c := g.world.SceneCanvas()
	c.Teardown()
	g.publish(event.CanvasTeardown, nil)
	if err := g.world.SetCurrentUser(next); err != nil {
		g.log.Errorf("switch user: %v", err)
	}
	c.Rebuild(g.world)
	c.MarkReady()
	g.publish(event.CanvasReady, nil)
	g.setStatus("now viewing as %s", g.world.CurrentUser().Name())
}

func (g *Game) copyReport() {
	report := FormatReport(ContactReport(g.world, g.eng.Tracker(), g.eng.Health()))
	if err := clipboard.WriteAll(report); err != nil {
		g.log.Warnf("copy contact report: %v", err)
		g.setStatus("clipboard unavailable")
		return
	}
	g.setStatus("contact report copied")
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(color.RGBA{R: 14, G: 16, B: 20, A: 255})
	g.drawGrid(screen)

	for _, t := range g.world.Tokens() {
		if !t.Visible() {
			continue
		}
		alpha := 1.0
		if t.Hidden() {
			alpha = hiddenAlpha
		}
		g.drawToken(screen, t, alpha)
	}
	if p, ok := g.world.PreviewToken(g.previewID); ok {
		g.drawToken(screen, p, previewAlpha)
	}

	g.raster.Draw(screen, g.world.SceneCanvas().Root())

	g.events.Draw(screen, g.tableW, g.height)
	if g.showHUD {
		g.drawHUD(screen)
	}
}

func (g *Game) drawGrid(screen *ebiten.Image) {
	c := color.RGBA{R: 40, G: 46, B: 56, A: 255}
	cam := g.raster.Camera
	for col := 0; col <= tableCols; col++ {
		x1, y1 := cam.Project(float64(col*GridSize), 0)
		x2, y2 := cam.Project(float64(col*GridSize), tableRows*GridSize)
		vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1, c, false)
	}
	for row := 0; row <= tableRows; row++ {
		x1, y1 := cam.Project(0, float64(row*GridSize))
		x2, y2 := cam.Project(tableCols*GridSize, float64(row*GridSize))
		vector.StrokeLine(screen, float32(x1), float32(y1), float32(x2), float32(y2), 1, c, false)
	}
}

func (g *Game) drawToken(screen *ebiten.Image, t host.Token, alpha float64) {
	cam := g.raster.Camera
	cx, cy := t.Centre()
	w, _ := t.Size()
	sx, sy := cam.Project(cx, cy)
	r := w / 2 * cam.Zoom

	fill := canvas.Fade(dispositionColours[t.Disposition()], alpha)
	vector.FillCircle(screen, float32(sx), float32(sy), float32(r-2), fill, true)
	edge := canvas.Fade(color.RGBA{R: 20, G: 20, B: 24, A: 255}, alpha)
	if t.Controlled() {
		edge = canvas.Fade(color.RGBA{R: 250, G: 250, B: 250, A: 255}, alpha)
	}
	vector.StrokeCircle(screen, float32(sx), float32(sy), float32(r-2), 2, edge, true)

	a := (t.Rotation() + 90) * math.Pi / 180
	vector.StrokeLine(screen, float32(sx), float32(sy),
		float32(sx+math.Cos(a)*(r-2)), float32(sy+math.Sin(a)*(r-2)), 2, edge, true)

	ebitenutil.DebugPrintAt(screen, t.Name(), int(sx)-len(t.Name())*3, int(sy+r))
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	user := "nobody"
	if u := g.world.CurrentUser(); u != nil {
		user = u.Name()
		if u.IsGM() {
			user += " (GM)"
		}
	}
	lines := []string{
		"viewing as " + user + "   [Tab] switch user",
		"[Alt] health+labels  [Shift] facing  [V] vision  drag: boundaries+path",
		"[R] rotate  [Q/E] damage/heal (GM)  [C] copy contacts  [H] hide help",
	}
	if g.tick < g.statusTill {
		lines = append(lines, g.status)
	}
	if g.camZoom != 1 {
		lines = append(lines, fmt.Sprintf("zoom: %.1fx", g.camZoom))
	}
	ebitenutil.DebugPrintAt(screen, strings.Join(lines, "\n"), 6, 6)
}

func (g *Game) Layout(_, _ int) (int, int) {
	return g.width, g.height
}

// TokenAt returns the topmost visible token whose bounds contain (x, y).
func TokenAt(p host.Platform, x, y float64) string {
	tokens := p.Tokens()
	for i := len(tokens) - 1; i >= 0; i-- {
		t := tokens[i]
		if !t.Visible() {
			continue
		}
		tx, ty := t.Position()
		w, h := t.Size()
		if x >= tx && x < tx+w && y >= ty && y < ty+h {
			return t.ID()
		}
	}
	return ""
}

// Snap rounds a coordinate to the nearest grid line.
func Snap(v float64) float64 {
	return math.Round(v/GridSize) * GridSize
}

// KeyName maps an ebiten key to the lower-case name overlay triggers use.
// Left and right modifier keys share one name.
func KeyName(k ebiten.Key) string {
	switch k {
	case ebiten.KeyAlt, ebiten.KeyAltLeft, ebiten.KeyAltRight:
		return "alt"
	case ebiten.KeyShift, ebiten.KeyShiftLeft, ebiten.KeyShiftRight:
		return "shift"
	case ebiten.KeyControl, ebiten.KeyControlLeft, ebiten.KeyControlRight:
		return "control"
	case ebiten.KeyMeta, ebiten.KeyMetaLeft, ebiten.KeyMetaRight:
		return "meta"
	}
	return strings.ToLower(k.String())
}

// SharesHeldName reports whether a held key other than k maps to k's name.
func SharesHeldName(k ebiten.Key, held []ebiten.Key) bool {
	name := KeyName(k)
	for _, h := range held {
		if h != k && KeyName(h) == name {
			return true
		}
	}
	return false
}
