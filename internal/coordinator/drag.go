package coordinator

import (
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
)

// Drag shows drag-scoped overlays and keeps the obstacle indicator on
// whichever token currently blocks the dragged token's path.
type Drag struct {
	helper    *Helper
	registry  *overlay.Registry
	platform  host.Platform
	renderer  Renderer
	validator host.MovementValidator
	log       *logging.Logger

	tokenID   string
	previewID string
	blocker   string
	shown     Shown
}

// NewDrag creates a drag coordinator. validator may be nil to skip obstacle
// checks.
func NewDrag(h *Helper, reg *overlay.Registry, p host.Platform, r Renderer, v host.MovementValidator, log *logging.Logger) *Drag {
	return &Drag{
		helper:    h,
		registry:  reg,
		platform:  p,
		renderer:  r,
		validator: v,
		log:       log.With("drag"),
		shown:     make(Shown),
	}
}

// Start begins a drag of tokenID with its preview clone.
func (d *Drag) Start(tokenID, previewID string) {
	d.update(overlay.TriggerTokenDragStart, tokenID, previewID)
}

// Move updates the drag after the preview moved.
func (d *Drag) Move(tokenID, previewID string) {
	d.update(overlay.TriggerTokenDragMove, tokenID, previewID)
}

// End finishes the drag: the obstacle indicator is cleared and everything
// the gesture showed is hidden.
func (d *Drag) End(tokenID string) {
	if d.tokenID != "" && tokenID != "" && tokenID != d.tokenID {
		d.log.Debugf("end for %s while dragging %s", tokenID, d.tokenID)
	}
	d.renderer.ClearOverlayType(overlay.IDObstacleIndicator)
	if d.blocker != "" {
		d.helper.Forget(d.blocker, overlay.IDObstacleIndicator)
	}
	d.helper.HideShown(d.shown)
	if d.previewID != "" {
		// The clone is gone; its drawables would never be reused.
		d.renderer.ClearAllTokenOverlays(d.previewID)
		d.helper.ForgetToken(d.previewID)
	}
	d.shown = make(Shown)
	d.blocker = ""
	d.tokenID = ""
	d.previewID = ""
}

// Cancel is End.
func (d *Drag) Cancel(tokenID string) { d.End(tokenID) }

// Active reports the dragged token id, or "".
func (d *Drag) Active() string { return d.tokenID }

// Blocker reports the remembered blocking token id, or "".
func (d *Drag) Blocker() string { return d.blocker }

// ShownOverlayIDs returns the drag-scoped overlay ids shown so far.
func (d *Drag) ShownOverlayIDs() []string { return d.shown.OverlayIDs() }

func (d *Drag) update(kind overlay.TriggerKind, tokenID, previewID string) {
	mover, ok := d.platform.Token(tokenID)
	if !ok {
		d.log.Warnf("%s for unknown token %s", kind, tokenID)
		return
	}
	d.tokenID = tokenID
	d.previewID = previewID

	var preview host.Token
	if previewID != "" {
		if p, ok := d.platform.PreviewToken(previewID); ok {
			preview = p
		}
	}

	if d.validator != nil {
		d.checkObstacles(mover, preview)
	}

	groups := d.helper.Process(d.registry.FilterByTrigger(kind), Request{Kind: kind, Preview: preview, Origin: mover})
	d.shown.Add(groups)
}

func (d *Drag) checkObstacles(mover, preview host.Token) {
	var obstacles []host.Token
	for _, t := range d.platform.Tokens() {
		if t.ID() == mover.ID() || t.Hidden() || !t.Visible() {
			continue
		}
		obstacles = append(obstacles, t)
	}

	res := d.validator.Validate(mover, preview, obstacles)
	switch res.Status {
	case host.MovementBlocked:
		if res.Blocker == nil || res.Blocker.ID() == d.blocker {
			return
		}
		d.clearObstacle()
		def, ok := d.registry.Get(overlay.IDObstacleIndicator)
		if !ok || !d.renderer.HasPainter(def.ID) {
			return
		}
		if err := d.helper.RenderOverlay(res.Blocker, def, overlay.ObstacleOptions{Mover: mover}); err != nil {
			return
		}
		d.blocker = res.Blocker.ID()
		d.log.Debugf("%s blocked by %s", mover.ID(), d.blocker)
	case host.MovementClear:
		d.clearObstacle()
	case host.MovementIgnored:
		// No new information; keep any indicator already shown.
	}
}

func (d *Drag) clearObstacle() {
	if d.blocker == "" {
		return
	}
	d.renderer.ClearTokenOverlay(d.blocker, overlay.IDObstacleIndicator)
	d.helper.Forget(d.blocker, overlay.IDObstacleIndicator)
	d.blocker = ""
}
