package coordinator

import (
	"sort"
	"strings"

	"github.com/Garsondee/tactical-overlays/internal/logging"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
)

// Keyboard turns repeated raw key-downs into one show per press and hides
// the overlay types that press showed on key-up. Keys are independent of
// each other.
type Keyboard struct {
	helper   *Helper
	registry *overlay.Registry
	log      *logging.Logger

	pressed map[string]bool
	cache   map[string]Shown
}

func NewKeyboard(h *Helper, reg *overlay.Registry, log *logging.Logger) *Keyboard {
	return &Keyboard{
		helper:   h,
		registry: reg,
		log:      log.With("keyboard"),
		pressed:  make(map[string]bool),
		cache:    make(map[string]Shown),
	}
}

func normaliseKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// IsTracked reports whether any overlay listens for key.
func (k *Keyboard) IsTracked(key string) bool {
	return len(k.registry.FilterByKeyTrigger(normaliseKey(key))) > 0
}

// KeyDown handles a raw key-down and reports whether it started a press.
// Repeats while held and untracked keys are ignored.
func (k *Keyboard) KeyDown(key string) bool {
	key = normaliseKey(key)
	defs := k.registry.FilterByKeyTrigger(key)
	if len(defs) == 0 || k.pressed[key] {
		return false
	}
	k.pressed[key] = true

	shown := make(Shown)
	shown.Add(k.helper.ProcessOverlaysByScope(defs, overlay.TriggerKeyPress, nil))
	k.cache[key] = shown
	k.log.Debugf("%s down: %d overlays shown", key, shown.Len())
	return true
}

// KeyUp ends a press and hides every drawable of the overlay types the press
// showed. A key-up without a matching press is ignored.
func (k *Keyboard) KeyUp(key string) bool {
	key = normaliseKey(key)
	if !k.pressed[key] {
		return false
	}
	delete(k.pressed, key)
	k.helper.HideOverlayTypes(k.cache[key].OverlayIDs())
	delete(k.cache, key)
	return true
}

// ClearAllKeys releases every held key.
func (k *Keyboard) ClearAllKeys() {
	for key := range k.pressed {
		k.KeyUp(key)
	}
	k.pressed = make(map[string]bool)
	k.cache = make(map[string]Shown)
}

// Pressed returns the keys currently held, sorted.
func (k *Keyboard) Pressed() []string {
	keys := make([]string, 0, len(k.pressed))
	for key := range k.pressed {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// ShownFor returns the overlay ids shown by the press of key.
func (k *Keyboard) ShownFor(key string) []string {
	return k.cache[normaliseKey(key)].OverlayIDs()
}
