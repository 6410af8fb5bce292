// Package tracking hands out the three-digit designations shown on contact
// tags. A token keeps its number for life; numbers are stored as token flags
// so they survive reloads.
package tracking

import (
	"fmt"
	"math/rand"
	"strconv"

	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

// Flag location of a token's tracking number.
const (
	FlagScope = "tactical-overlays"
	FlagKey   = "trackingNumber"
)

const maxNumber = 999

// Tracker assigns unique tracking numbers.
type Tracker struct {
	flags   host.FlagStore
	rng     *rand.Rand
	byToken map[string]string
	inUse   map[string]string
	log     *logging.Logger
}

// NewTracker creates a tracker drawing numbers from a seeded source.
func NewTracker(flags host.FlagStore, seed int64, log *logging.Logger) *Tracker {
	return &Tracker{
		flags:   flags,
		rng:     rand.New(rand.NewSource(seed)),
		byToken: make(map[string]string),
		inUse:   make(map[string]string),
		log:     log.With("tracking"),
	}
}

// Load reserves the numbers already persisted on tokens.
func (t *Tracker) Load(tokens []host.Token) {
	for _, tok := range tokens {
		if v, ok := t.flags.Flag(tok.ID(), FlagScope, FlagKey); ok && Valid(v) {
			t.reserve(tok.ID(), v)
		}
	}
}

// Number returns the token's tracking number, assigning and persisting one on
// first use. A failed write is logged; the number is still used this session.
func (t *Tracker) Number(tokenID string) string {
	if n, ok := t.byToken[tokenID]; ok {
		return n
	}
	if v, ok := t.flags.Flag(tokenID, FlagScope, FlagKey); ok && Valid(v) {
		t.reserve(tokenID, v)
		return v
	}

	n := t.pick()
	t.reserve(tokenID, n)
	if err := t.flags.SetFlag(tokenID, FlagScope, FlagKey, n); err != nil {
		t.log.Warnf("persist tracking number for %s: %v", tokenID, err)
	}
	return n
}

// Forget releases a deleted token's number for reuse.
func (t *Tracker) Forget(tokenID string) {
	if n, ok := t.byToken[tokenID]; ok {
		delete(t.byToken, tokenID)
		if t.inUse[n] == tokenID {
			delete(t.inUse, n)
		}
	}
}

// Assigned reports how many numbers are currently held.
func (t *Tracker) Assigned() int { return len(t.inUse) }

func (t *Tracker) reserve(tokenID, n string) {
	if owner, ok := t.inUse[n]; ok && owner != tokenID {
		t.log.Warnf("tracking number %s shared by %s and %s", n, owner, tokenID)
	}
	t.byToken[tokenID] = n
	t.inUse[n] = tokenID
}

// pick draws an unused number. Once all 999 are taken duplicates are allowed.
func (t *Tracker) pick() string {
	if len(t.inUse) < maxNumber {
		for {
			n := Format(1 + t.rng.Intn(maxNumber))
			if _, taken := t.inUse[n]; !taken {
				return n
			}
		}
	}
	t.log.Warnf("all %d tracking numbers in use; reusing", maxNumber)
	return Format(1 + t.rng.Intn(maxNumber))
}

// Format renders n as a zero-padded three-digit designation.
func Format(n int) string {
	return fmt.Sprintf("%03d", n)
}

// Valid reports whether s is a three-digit number in 001..999.
func Valid(s string) bool {
	if len(s) != 3 {
		return false
	}
	n, err := strconv.Atoi(s)
	return err == nil && n >= 1 && n <= maxNumber
}
