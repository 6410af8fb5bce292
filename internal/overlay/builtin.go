package overlay

import (
	"image/color"

	"github.com/Garsondee/tactical-overlays/internal/scene"
)

// Built-in overlay ids.
const (
	IDHealthArc         = "health-arc"
	IDTokenInfo         = "token-info"
	IDFacingArc         = "facing-arc"
	IDVisionRange       = "vision-range"
	IDTokenBoundary     = "token-boundary"
	IDMovementPath      = "movement-path"
	IDObstacleIndicator = "obstacle-indicator"
	IDHoverName         = "hover-name"
	IDControlledMarker  = "controlled-marker"
)

// Default colours, overridable per definition through Styling.
var (
	ColourHealthHigh  = color.RGBA{R: 40, G: 200, B: 70, A: 230}
	ColourHealthLow   = color.RGBA{R: 220, G: 40, B: 30, A: 230}
	ColourArcTrack    = color.RGBA{R: 30, G: 30, B: 30, A: 160}
	ColourTempHealth  = color.RGBA{R: 60, G: 140, B: 255, A: 230}
	ColourInfoText    = color.RGBA{R: 255, G: 240, B: 200, A: 255}
	ColourFacing      = color.RGBA{R: 255, G: 220, B: 60, A: 180}
	ColourVision      = color.RGBA{R: 120, G: 200, B: 255, A: 90}
	ColourBoundary    = color.RGBA{R: 255, G: 255, B: 255, A: 140}
	ColourMovement    = color.RGBA{R: 255, G: 240, B: 60, A: 200}
	ColourObstacle    = color.RGBA{R: 255, G: 60, B: 40, A: 230}
	ColourHoverName   = color.RGBA{R: 255, G: 255, B: 255, A: 230}
	ColourControlMark = color.RGBA{R: 255, G: 255, B: 255, A: 200}
)

// Defaults returns fresh copies of the built-in overlay definitions.
func Defaults() []*Definition {
	return []*Definition{
		{
			ID:                IDHealthArc,
			Name:              "Health arc",
			Description:       "Arc gauge of current, missing and temporary health.",
			RenderLayer:       scene.LayerTokens,
			RenderOnTokenMesh: true,
			ZIndex:            20,
			DisplayOn:         AllGrids,
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerKeyPress: {Keys: []string{"alt"}, Scope: ScopeVisible},
			},
			UpdateOn: UpdateOn{Health: true},
			Styling: map[string]Style{
				"healthHigh": {Colour: ColourHealthHigh},
				"healthLow":  {Colour: ColourHealthLow},
				"background": {Colour: ColourArcTrack},
				"temp":       {Colour: ColourTempHealth},
				"arc":        {LineWidth: 5},
			},
		},
		{
			ID:          IDTokenInfo,
			Name:        "Contact tag",
			Description: "Tracking designation for non-friendly tokens.",
			RenderLayer: scene.LayerInterface,
			ZIndex:      30,
			DisplayOn:   AllGrids,
			Permissions: Permissions{RequireLOS: true},
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerKeyPress: {Keys: []string{"alt"}, Scope: ScopeNonControlled},
			},
			Styling: map[string]Style{
				"text": {Colour: ColourInfoText, FontSize: 13},
			},
		},
		{
			ID:                IDFacingArc,
			Name:              "Facing",
			Description:       "Wedge showing which way a controlled token faces.",
			RenderLayer:       scene.LayerTokens,
			RenderOnTokenMesh: true,
			ZIndex:            10,
			DisplayOn:         AllGrids,
			Permissions:       Permissions{RequireControl: true},
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerKeyPress: {Keys: []string{"shift"}, Scope: ScopeControlled},
			},
			UpdateOn: UpdateOn{Rotation: true},
			Styling: map[string]Style{
				"wedge": {Colour: ColourFacing, LineWidth: 2},
			},
		},
		{
			ID:          IDVisionRange,
			Name:        "Vision range",
			Description: "Ring at the edge of an owned token's sight.",
			RenderLayer: scene.LayerLighting,
			ZIndex:      0,
			DisplayOn:   AllGrids,
			Permissions: Permissions{RequireOwnership: true},
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerKeyPress: {Keys: []string{"v"}, Scope: ScopeOwned},
			},
			UpdateOn: UpdateOn{Movement: true},
			Styling: map[string]Style{
				"ring": {Colour: ColourVision, LineWidth: 2},
			},
		},
		{
			ID:          IDTokenBoundary,
			Name:        "Footprint",
			Description: "Outline of every token's footprint while dragging.",
			RenderLayer: scene.LayerDrawings,
			ZIndex:      0,
			DisplayOn:   DisplayOn{Square: true, Gridless: true},
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerTokenDragStart: {Scope: ScopeVisibleAndNotHidden},
				TriggerTokenDragMove:  {Scope: ScopeVisibleAndNotHidden},
			},
			UpdateOn: UpdateOn{Movement: true},
			Styling: map[string]Style{
				"outline": {Colour: ColourBoundary, LineWidth: 1},
			},
		},
		{
			ID:          IDMovementPath,
			Name:        "Movement path",
			Description: "Dashed line from a dragged token to its drop point.",
			RenderLayer: scene.LayerControls,
			ZIndex:      0,
			DisplayOn:   AllGrids,
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerTokenDragMove: {Scope: ScopePreview},
			},
			Styling: map[string]Style{
				"path": {Colour: ColourMovement, LineWidth: 2},
				"text": {Colour: ColourMovement, FontSize: 12},
			},
		},
		{
			ID:          IDObstacleIndicator,
			Name:        "Obstacle",
			Description: "Warning drawn on the token blocking a drag.",
			RenderLayer: scene.LayerControls,
			ZIndex:      10,
			DisplayOn:   AllGrids,
			Styling: map[string]Style{
				"mark": {Colour: ColourObstacle, LineWidth: 3},
			},
		},
		{
			ID:          IDHoverName,
			Name:        "Hover name",
			Description: "Token name under the cursor.",
			RenderLayer: scene.LayerInterface,
			ZIndex:      40,
			DisplayOn:   AllGrids,
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerTokenHover: {Scope: ScopeHovered},
			},
			Styling: map[string]Style{
				"text": {Colour: ColourHoverName, FontSize: 12},
			},
		},
		{
			ID:                IDControlledMarker,
			Name:              "Selection ring",
			Description:       "Ring in the user's colour around controlled tokens.",
			RenderLayer:       scene.LayerTokens,
			RenderOnTokenMesh: true,
			ZIndex:            0,
			VisibleOnStart:    true,
			DisplayOn:         AllGrids,
			Triggers: map[TriggerKind]*TriggerConfig{
				TriggerStartup: {Scope: ScopeControlled},
			},
			UpdateOn: UpdateOn{Control: true},
			Styling: map[string]Style{
				"ring": {Colour: ColourControlMark, LineWidth: 2},
			},
		},
	}
}
