package overlay

import (
	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
)

// Options is the per-render input a builder receives beyond the target
// token. The set of variants is closed; each builder accepts the variant it
// documents and treats anything else as NoOptions.
type Options interface {
	isOptions()
}

// NoOptions is passed when an overlay needs nothing beyond the target.
type NoOptions struct{}

// HealthOptions carries the (possibly obfuscated) health figures.
type HealthOptions struct {
	Result health.Result
}

// TokenInfoOptions carries the target's tracking number.
type TokenInfoOptions struct {
	TrackingNumber string
}

// DragOptions carries the drag clone and the original token during a drag.
type DragOptions struct {
	Origin  host.Token
	Preview host.Token
}

// ObstacleOptions names the dragged token that ran into the target.
type ObstacleOptions struct {
	Mover host.Token
}

// UserOptions carries the user the overlay is drawn for.
type UserOptions struct {
	User host.User
}

func (NoOptions) isOptions()        {}
func (HealthOptions) isOptions()    {}
func (TokenInfoOptions) isOptions() {}
func (DragOptions) isOptions()      {}
func (ObstacleOptions) isOptions()  {}
func (UserOptions) isOptions()      {}
