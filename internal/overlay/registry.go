package overlay

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Garsondee/tactical-overlays/internal/logging"
)

// ErrInvalidDefinition is returned for nil definitions or empty ids.
var ErrInvalidDefinition = errors.New("overlay: invalid definition")

// Registry is the catalogue of overlay definitions, keyed by id and kept in
// registration order.
type Registry struct {
	defs  map[string]*Definition
	order []string
	log   *logging.Logger
}

// NewRegistry creates an empty registry. log may be nil.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		defs: make(map[string]*Definition),
		log:  log.With("overlay-registry"),
	}
}

// Register inserts def, or replaces the definition with the same id.
func (r *Registry) Register(def *Definition) error {
	if def == nil || def.ID == "" {
		return ErrInvalidDefinition
	}
	if _, exists := r.defs[def.ID]; exists {
		r.log.Infof("replaced overlay %q", def.ID)
	} else {
		r.order = append(r.order, def.ID)
		r.log.Debugf("registered overlay %q", def.ID)
	}
	r.defs[def.ID] = def
	return nil
}

// MustRegister is Register for static startup tables.
func (r *Registry) MustRegister(defs ...*Definition) {
	for _, d := range defs {
		if err := r.Register(d); err != nil {
			panic(fmt.Sprintf("overlay: register %v: %v", d, err))
		}
	}
}

// Unregister removes id and reports whether it existed.
func (r *Registry) Unregister(id string) bool {
	if _, ok := r.defs[id]; !ok {
		return false
	}
	delete(r.defs, id)
	r.order = slices.DeleteFunc(r.order, func(s string) bool { return s == id })
	return true
}

func (r *Registry) Get(id string) (*Definition, bool) {
	d, ok := r.defs[id]
	return d, ok
}

func (r *Registry) Has(id string) bool {
	_, ok := r.defs[id]
	return ok
}

// GetAll returns every definition in registration order.
func (r *Registry) GetAll() []*Definition {
	out := make([]*Definition, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.defs[id])
	}
	return out
}

// GetAllIDs returns every id in registration order.
func (r *Registry) GetAllIDs() []string {
	return slices.Clone(r.order)
}

// FilterByTrigger returns the definitions whose trigger for kind is active.
func (r *Registry) FilterByTrigger(kind TriggerKind) []*Definition {
	var out []*Definition
	for _, id := range r.order {
		d := r.defs[id]
		if d.Trigger(kind).Active() {
			out = append(out, d)
		}
	}
	return out
}

// FilterByKeyTrigger returns the keyPress overlays bound to key (any case).
func (r *Registry) FilterByKeyTrigger(key string) []*Definition {
	var out []*Definition
	for _, d := range r.FilterByTrigger(TriggerKeyPress) {
		if d.Trigger(TriggerKeyPress).HasKey(key) {
			out = append(out, d)
		}
	}
	return out
}

// StartupOverlays returns the definitions flagged VisibleOnStart.
func (r *Registry) StartupOverlays() []*Definition {
	var out []*Definition
	for _, id := range r.order {
		if d := r.defs[id]; d.VisibleOnStart {
			out = append(out, d)
		}
	}
	return out
}
