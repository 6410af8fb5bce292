package main

import (
	"testing"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/host"
)

func TestParsePerceptions(t *testing.T) {
	got, err := parsePerceptions(" 20,5, ,10")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != 5 || got[2] != 20 {
		t.Fatalf("got %v", got)
	}
	if _, err := parsePerceptions("5,keen"); err == nil {
		t.Fatal("non-numeric value should fail")
	}
	if _, err := parsePerceptions(" , "); err == nil {
		t.Fatal("empty list should fail")
	}
}

func TestMeasure_SharperObserversEstimateCloser(t *testing.T) {
	truth := host.HitPoints{Value: 23, Max: 40}
	from := time.Unix(0, 0)

	dull := measure(5, truth, "orc", from, 120)
	keen := measure(25, truth, "orc", from, 120)

	if dull.samples != 120 || keen.samples != 120 {
		t.Fatalf("samples dull=%d keen=%d", dull.samples, keen.samples)
	}
	if keen.variance != 0 || keen.accuracy != 1 {
		t.Fatalf("perception 25 should have no variance, got %.2f", keen.variance)
	}
	if dull.health.meanAbsErr() <= keen.health.meanAbsErr() {
		t.Fatalf("dull err %.2f should exceed keen err %.2f",
			dull.health.meanAbsErr(), keen.health.meanAbsErr())
	}
	// Jitter alone moves 23 by at most 5%.
	if keen.health.min < 22 || keen.health.max > 24 {
		t.Fatalf("keen range %d..%d", keen.health.min, keen.health.max)
	}
}

func TestMeasure_ReadingsStableWithinBucket(t *testing.T) {
	ls := measure(8, host.HitPoints{Value: 31, Max: 38, Temp: 5}, "raider-1", time.Unix(600, 0), 60)
	if ls.unstable != 0 {
		t.Fatalf("%d buckets changed reading mid-bucket", ls.unstable)
	}
	if ls.max.min < ls.health.min {
		t.Fatal("max estimate below health estimate")
	}
}

func TestExactFloor(t *testing.T) {
	all := []levelStats{{perception: 10, variance: 0.3}, {perception: 25, variance: 0}, {perception: 30, variance: 0}}
	if p, ok := exactFloor(all); !ok || p != 25 {
		t.Fatalf("got %d, %v", p, ok)
	}
	if _, ok := exactFloor(all[:1]); ok {
		t.Fatal("no zero-variance level sampled")
	}
}
