package health

import (
	"math"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/host"
	"github.com/Garsondee/tactical-overlays/internal/logging"
)

// Variance model constants.
const (
	BaseVariance      = 0.30
	PerceptionStep    = 0.02
	DefaultPerception = 10
	MaxVariance       = 2.0
	JitterRange       = 0.05
)

// Result is a health reading as shown to a viewer. Accuracy is 1 for exact
// figures and lower the more the figures may have been degraded.
type Result struct {
	Health     int     `json:"health"`
	MaxHealth  int     `json:"maxHealth"`
	TempHealth int     `json:"tempHealth"`
	Accuracy   float64 `json:"accuracy"`
}

// Obfuscator degrades health readings for viewers who should only be able
// to estimate them.
type Obfuscator struct {
	platform host.Platform
	now      func() time.Time
	log      *logging.Logger
}

// NewObfuscator creates an obfuscator. now defaults to time.Now.
func NewObfuscator(p host.Platform, now func() time.Time, log *logging.Logger) *Obfuscator {
	if now == nil {
		now = time.Now
	}
	return &Obfuscator{platform: p, now: now, log: log.With("health")}
}

// IsPrivileged reports whether the current user sees exact health for
// target: GMs and the target's owners do.
func (o *Obfuscator) IsPrivileged(target host.Token) bool {
	if u := o.platform.CurrentUser(); u != nil && u.IsGM() {
		return true
	}
	return target != nil && target.Owned()
}

// ObfuscateFor resolves privilege for the current user and obfuscates.
func (o *Obfuscator) ObfuscateFor(target host.Token) Result {
	return o.Obfuscate(target, o.IsPrivileged(target))
}

// Obfuscate returns exact figures for privileged callers, otherwise figures
// degraded according to the observer's passive perception.
func (o *Obfuscator) Obfuscate(target host.Token, privileged bool) Result {
	hp, ok := hitPoints(target)
	if !ok {
		o.log.Warnf("token %s has no actor; reporting zero health", tokenID(target))
		return Result{Accuracy: 1}
	}
	if privileged {
		return exact(hp)
	}

	observer, ok := o.observer()
	if !ok {
		o.log.Warnf("no observer token for current user; showing exact health for %s", target.ID())
		return exact(hp)
	}

	v := Variance(passivePerception(observer))
	return Degrade(hp, v, Seed(o.now(), target.ID()))
}

// observer is the first token the current user controls, else the first
// token they own.
func (o *Obfuscator) observer() (host.Token, bool) {
	tokens := o.platform.Tokens()
	for _, t := range tokens {
		if t.Controlled() {
			return t, true
		}
	}
	for _, t := range tokens {
		if t.Owned() {
			return t, true
		}
	}
	return nil, false
}

// Variance maps passive perception to the half-width of the multiplier range.
func Variance(perception int) float64 {
	v := BaseVariance - float64(perception-DefaultPerception)*PerceptionStep
	return math.Max(0, math.Min(MaxVariance, v))
}

// Accuracy is 1 - variance, kept within [0, 1].
func Accuracy(variance float64) float64 {
	return math.Max(0, math.Min(1, 1-variance))
}

// Degrade applies seeded multipliers to hp. Three base streams pick a
// multiplier in [1-v, 1+v] per figure and three more add ±JitterRange.
func Degrade(hp host.HitPoints, variance float64, seed int64) Result {
	mul := func(base, jitter int64) float64 {
		b := 1 - variance + Random(seed+base)*2*variance
		j := (Random(seed+jitter)*2 - 1) * JitterRange
		return b + j
	}

	h := roundHalfUp(float64(hp.Value) * mul(streamHealthBase, streamHealthJitter))
	m := roundHalfUp(float64(hp.Max) * mul(streamMaxBase, streamMaxJitter))
	t := roundHalfUp(float64(hp.Temp) * mul(streamTempBase, streamTempJitter))

	if h < 0 {
		h = 0
	}
	if t < 0 {
		t = 0
	}
	if m < 1 {
		m = 1
	}
	if m < h {
		m = h
	}
	return Result{Health: h, MaxHealth: m, TempHealth: t, Accuracy: Accuracy(variance)}
}

func exact(hp host.HitPoints) Result {
	return Result{Health: hp.Value, MaxHealth: hp.Max, TempHealth: hp.Temp, Accuracy: 1}
}

func hitPoints(t host.Token) (host.HitPoints, bool) {
	if t == nil {
		return host.HitPoints{}, false
	}
	a, ok := t.Actor()
	if !ok || a == nil {
		return host.HitPoints{}, false
	}
	return a.HitPoints(), true
}

func passivePerception(t host.Token) int {
	if a, ok := t.Actor(); ok && a != nil {
		if pp, ok := a.PassivePerception(); ok {
			return pp
		}
	}
	return DefaultPerception
}

func tokenID(t host.Token) string {
	if t == nil {
		return "<nil>"
	}
	return t.ID()
}
