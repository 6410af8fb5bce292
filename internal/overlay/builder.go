package overlay

import (
	"errors"

	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

// ErrNoBuilder is returned when neither the definition nor the registry
// supplies a context builder.
var ErrNoBuilder = errors.New("overlay: no context builder")

// ContextBuilder turns a target token and options into a render context.
type ContextBuilder interface {
	BuildContext(target host.Token, def *Definition, opts Options) (*RenderContext, error)
}

// BuilderFunc adapts a function to ContextBuilder.
type BuilderFunc func(target host.Token, def *Definition, opts Options) (*RenderContext, error)

func (f BuilderFunc) BuildContext(target host.Token, def *Definition, opts Options) (*RenderContext, error) {
	return f(target, def, opts)
}

// BuilderRegistry maps overlay ids to context builders.
type BuilderRegistry struct {
	builders map[string]ContextBuilder
	log      *logging.Logger
}

// NewBuilderRegistry creates an empty registry. log may be nil.
func NewBuilderRegistry(log *logging.Logger) *BuilderRegistry {
	return &BuilderRegistry{
		builders: make(map[string]ContextBuilder),
		log:      log.With("builder-registry"),
	}
}

// Register binds b to id, replacing any previous builder.
func (r *BuilderRegistry) Register(id string, b ContextBuilder) {
	if _, ok := r.builders[id]; ok {
		r.log.Debugf("replaced context builder for %q", id)
	}
	r.builders[id] = b
}

func (r *BuilderRegistry) Get(id string) (ContextBuilder, bool) {
	b, ok := r.builders[id]
	return b, ok
}

func (r *BuilderRegistry) Has(id string) bool {
	_, ok := r.builders[id]
	return ok
}

// Unregister removes the builder for id.
func (r *BuilderRegistry) Unregister(id string) bool {
	if _, ok := r.builders[id]; !ok {
		return false
	}
	delete(r.builders, id)
	return true
}

// Resolve returns the definition's inline builder if it has one, otherwise
// the registered builder. A missing builder is logged and reported as
// ErrNoBuilder so the caller can skip the overlay.
func (r *BuilderRegistry) Resolve(def *Definition) (ContextBuilder, error) {
	if def.ContextBuilder != nil {
		return def.ContextBuilder, nil
	}
	if r != nil {
		if b, ok := r.builders[def.ID]; ok {
			return b, nil
		}
		r.log.Warnf("no context builder for overlay %q", def.ID)
	}
	return nil, ErrNoBuilder
}
