package health

import (
	"math"
	"time"
)

// BucketWidth is how long an obfuscated reading stays stable before it
// silently re-rolls.
const BucketWidth = 60 * time.Second

// Stream offsets added to the seed; each figure draws from its own stream.
const (
	streamHealthBase = iota
	streamMaxBase
	streamTempBase
	streamHealthJitter
	streamMaxJitter
	streamTempJitter
)

// Random is a splitmix64 hash of seed mapped to [0, 1). Equal seeds give
// equal values; adjacent seeds are uncorrelated.
func Random(seed int64) float64 {
	z := uint64(seed) + 0x9E3779B97F4A7C15
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	return float64(z>>11) / (1 << 53)
}

// HashString is the 31-multiplier string hash with int32 wraparound.
func HashString(s string) int32 {
	var h int32
	for _, r := range s {
		h = h*31 + int32(r)
	}
	return h
}

// TimeBucket returns floor(now in ms / bucket width in ms).
func TimeBucket(now time.Time) int64 {
	ms := now.UnixMilli()
	width := BucketWidth.Milliseconds()
	b := ms / width
	if ms < 0 && ms%width != 0 {
		b--
	}
	return b
}

// Seed combines the time bucket with the token id hash.
func Seed(now time.Time, tokenID string) int64 {
	return TimeBucket(now) + int64(HashString(tokenID))
}

// roundHalfUp rounds .5 toward +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
