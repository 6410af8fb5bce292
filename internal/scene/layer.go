package scene

import "strings"

// Layer is a canvas render layer, bottom to top.
type Layer int

const (
	LayerBackground Layer = iota
	LayerGrid
	LayerDrawings
	LayerWalls
	LayerTiles
	LayerTokens
	LayerLighting
	LayerWeather
	LayerForeground
	LayerInterface
	LayerControls
	layerCount
)

var layerNames = [layerCount]string{
	LayerBackground: "background",
	LayerGrid:       "grid",
	LayerDrawings:   "drawings",
	LayerWalls:      "walls",
	LayerTiles:      "tiles",
	LayerTokens:     "tokens",
	LayerLighting:   "lighting",
	LayerWeather:    "weather",
	LayerForeground: "foreground",
	LayerInterface:  "interface",
	LayerControls:   "controls",
}

func (l Layer) String() string {
	if l < 0 || l >= layerCount {
		return "unknown"
	}
	return layerNames[l]
}

// Layers returns every layer in draw order.
func Layers() []Layer {
	out := make([]Layer, layerCount)
	for i := range out {
		out[i] = Layer(i)
	}
	return out
}

// ParseLayer is the inverse of Layer.String.
func ParseLayer(s string) (Layer, bool) {
	for i, name := range layerNames {
		if strings.EqualFold(name, s) {
			return Layer(i), true
		}
	}
	return 0, false
}
