package tabletop

import (
	"fmt"
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"

	"github.com/Garsondee/tactical-overlays/internal/event"
)

const (
	logPanelWidth = 320
	logMaxEntries = 60
	logLineHeight = 11
)

// LogEntry is a single line in the event log.
type LogEntry struct {
	Tick    int
	Label   string // event type, e.g. "keyDown"
	Message string
}

// EventLog is a ring buffer of bus events rendered beside the table.
type EventLog struct {
	entries []LogEntry
	head    int
	count   int
}

// NewEventLog creates an event log with a fixed capacity.
func NewEventLog() *EventLog {
	return &EventLog{
		entries: make([]LogEntry, logMaxEntries),
	}
}

// Add appends an entry, overwriting the oldest when full.
func (l *EventLog) Add(tick int, label, msg string) {
	l.entries[l.head] = LogEntry{Tick: tick, Label: label, Message: msg}
	l.head = (l.head + 1) % logMaxEntries
	if l.count < logMaxEntries {
		l.count++
	}
}

// Recent returns entries oldest first.
func (l *EventLog) Recent() []LogEntry {
	result := make([]LogEntry, l.count)
	for i := 0; i < l.count; i++ {
		idx := (l.head - l.count + i + logMaxEntries) % logMaxEntries
		result[i] = l.entries[idx]
	}
	return result
}

// Describe renders an event payload as one log line.
func Describe(e event.Event) string {
	switch p := e.Payload.(type) {
	case event.TokenPayload:
		return p.TokenID
	case event.TokenUpdatePayload:
		return fmt.Sprintf("%s moved=%t rotated=%t", p.TokenID, p.Moved, p.Rotated)
	case event.ControlPayload:
		return fmt.Sprintf("%s controlled=%t", p.TokenID, p.Controlled)
	case event.HoverPayload:
		return fmt.Sprintf("%s hovered=%t", p.TokenID, p.Hovered)
	case event.DragPayload:
		if p.PreviewID == "" {
			return p.TokenID
		}
		return p.TokenID + " via " + p.PreviewID
	case event.ActorPayload:
		return fmt.Sprintf("%s health=%t", p.ActorID, p.HealthChanged)
	case event.KeyPayload:
		return p.Key
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", p)
	}
}

// Draw renders the log panel at the right edge of the window.
func (l *EventLog) Draw(screen *ebiten.Image, panelX int, panelH int) {
	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), float32(panelH), color.RGBA{R: 10, G: 12, B: 14, A: 248}, false)
	vector.StrokeLine(screen, float32(panelX), 0, float32(panelX), float32(panelH), 1.0, color.RGBA{R: 50, G: 60, B: 80, A: 255}, false)

	vector.FillRect(screen, float32(panelX), 0, float32(logPanelWidth), 16, color.RGBA{R: 20, G: 26, B: 36, A: 255}, false)
	ebitenutil.DebugPrintAt(screen, "EVENT LOG", panelX+8, 2)
	vector.StrokeLine(screen, float32(panelX), 16, float32(panelX+logPanelWidth), 16, 1.0, color.RGBA{R: 50, G: 60, B: 90, A: 200}, false)

	entries := l.Recent()
	maxVisible := (panelH - 24) / logLineHeight
	if len(entries) > maxVisible {
		entries = entries[len(entries)-maxVisible:]
	}

	const recent = 3
	y := 20
	for i, e := range entries {
		if i >= len(entries)-recent {
			vector.FillRect(screen, float32(panelX+2), float32(y), float32(logPanelWidth-4), float32(logLineHeight), color.RGBA{R: 30, G: 36, B: 50, A: 160}, false)
		}
		ebitenutil.DebugPrintAt(screen, fmt.Sprintf("%5d %-15s %s", e.Tick, e.Label, e.Message), panelX+6, y)
		y += logLineHeight
	}
}
