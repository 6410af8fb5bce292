package tabletop

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/overlay"
	"github.com/Garsondee/tactical-overlays/internal/tracking"
)

// GridSize is the square grid spacing of the demo table.
const GridSize = 50

// DemoWorld builds a small encounter: two players with their characters, a
// GM, and a mixed group of contacts. The first player is the current user.
func DemoWorld() *host.World {
	w := host.NewWorld()
	w.AddUser(host.NewUser("p1", "Avery", false, color.RGBA{R: 80, G: 170, B: 255, A: 255}))
	w.AddUser(host.NewUser("p2", "Rook", false, color.RGBA{R: 240, G: 190, B: 60, A: 255}))
	w.AddUser(host.NewUser("gm", "Game Master", true, color.RGBA{R: 200, G: 80, B: 200, A: 255}))

	actors := []struct {
		id         string
		hp         host.HitPoints
		perception int
	}{
		{"a-ranger", host.HitPoints{Value: 31, Max: 38, Temp: 5}, 16},
		{"a-cleric", host.HitPoints{Value: 22, Max: 30}, 13},
		{"a-raider", host.HitPoints{Value: 9, Max: 22}, 10},
		{"a-raider-2", host.HitPoints{Value: 20, Max: 22}, 10},
		{"a-captain", host.HitPoints{Value: 52, Max: 65}, 12},
		{"a-merchant", host.HitPoints{Value: 6, Max: 6}, 11},
		{"a-stalker", host.HitPoints{Value: 18, Max: 40}, 14},
	}
	for _, a := range actors {
		w.AddActor(host.NewActor(a.id, a.hp, a.perception))
	}

	tokens := []struct {
		id, name, actor string
		col, row        int
		size            float64
		disp            host.Disposition
		owners          []string
		hidden          bool
		rot             float64
	}{
		{"ranger", "Ranger", "a-ranger", 3, 8, 1, host.DispositionFriendly, []string{"p1"}, false, 180},
		{"cleric", "Cleric", "a-cleric", 4, 10, 1, host.DispositionFriendly, []string{"p2"}, false, 180},
		{"raider-1", "Raider", "a-raider", 12, 5, 1, host.DispositionHostile, nil, false, 0},
		{"raider-2", "Raider", "a-raider-2", 14, 7, 1, host.DispositionHostile, nil, false, 0},
		{"captain", "Raider Captain", "a-captain", 16, 4, 2, host.DispositionHostile, nil, false, 0},
		{"merchant", "Merchant", "a-merchant", 8, 13, 1, host.DispositionNeutral, nil, false, 90},
		{"stalker", "Stalker", "a-stalker", 18, 11, 1, host.DispositionSecret, nil, true, 270},
	}
	for _, t := range tokens {
		size := t.size * GridSize
		tok := host.NewToken(t.id, t.name, float64(t.col*GridSize), float64(t.row*GridSize), size)
		tok.ActorID = t.actor
		tok.Disp = t.disp
		tok.OwnerIDs = t.owners
		tok.IsHidden = t.hidden
		tok.Rot = t.rot
		w.AddToken(tok)
	}

	return w
}

// Contact is one line of a contact report.
type Contact struct {
	TokenID  string
	Label    string
	Estimate int // percent of max health, rounded
	Accuracy float64
	Distance float64 // grid squares from the observer, 0 without one
}

// ContactReport lists every visible non-friendly token as the current user
// sees it, nearest first.
func ContactReport(p host.Platform, tr *tracking.Tracker, ob *health.Obfuscator) []Contact {
	var ox, oy float64
	observer := false
	for _, t := range p.Tokens() {
		if t.Controlled() {
			ox, oy = t.Centre()
			observer = true
			break
		}
	}

	var out []Contact
	for _, t := range p.Tokens() {
		if !t.Visible() || t.Disposition() == host.DispositionFriendly {
			continue
		}
		r := ob.ObfuscateFor(t)
		c := Contact{
			TokenID:  t.ID(),
			Label:    overlay.ContactLabel(t.Disposition(), tr.Number(t.ID())),
			Accuracy: r.Accuracy,
		}
		if r.MaxHealth > 0 {
			c.Estimate = int(math.Round(float64(r.Health) / float64(r.MaxHealth) * 100))
		}
		if observer {
			x, y := t.Centre()
			c.Distance = math.Hypot(x-ox, y-oy) / GridSize
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// FormatReport renders contacts as plain text for the clipboard.
func FormatReport(contacts []Contact) string {
	if len(contacts) == 0 {
		return "No contacts.\n"
	}
	var b strings.Builder
	for _, c := range contacts {
		fmt.Fprintf(&b, "%-12s %3d%% (accuracy %.0f%%)", c.Label, c.Estimate, c.Accuracy*100)
		if c.Distance > 0 {
			fmt.Fprintf(&b, "  %.1f sq", c.Distance)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
