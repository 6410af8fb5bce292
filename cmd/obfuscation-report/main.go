package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/Garsondee/tactical-overlays/internal/health"
	"github.com/Garsondee/tactical-overlays/internal/host"
)

type figureStats struct {
	n        int
	min, max int
	sum      int
	absErr   int
	exact    int
}

func (f *figureStats) add(estimate, truth int) {
	if f.n == 0 {
		f.min, f.max = estimate, estimate
	}
	f.n++
	f.min = min(f.min, estimate)
	f.max = max(f.max, estimate)
	f.sum += estimate
	d := estimate - truth
	if d < 0 {
		d = -d
	}
	f.absErr += d
	if d == 0 {
		f.exact++
	}
}

type levelStats struct {
	perception int
	variance   float64
	accuracy   float64
	samples    int

	health figureStats
	max    figureStats
	temp   figureStats

	// unstable counts buckets whose first and last second disagreed.
	unstable int
}

func main() {
	var perceptions string
	var hp, maxHP, temp int
	var buckets int
	var start int64
	var tokenID string

	flag.StringVar(&perceptions, "perception", "0,5,10,15,20,25", "comma-separated observer passive perception values")
	flag.IntVar(&hp, "hp", 23, "true current hit points")
	flag.IntVar(&maxHP, "max", 40, "true maximum hit points")
	flag.IntVar(&temp, "temp", 0, "true temporary hit points")
	flag.IntVar(&buckets, "buckets", 120, "time buckets sampled per perception value")
	flag.Int64Var(&start, "start", 0, "unix seconds of the first sample")
	flag.StringVar(&tokenID, "token", "orc", "target token id mixed into the seed")
	flag.Parse()

	levels, err := parsePerceptions(perceptions)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if buckets <= 0 {
		fmt.Fprintln(os.Stderr, "error: -buckets must be > 0")
		os.Exit(2)
	}
	if maxHP <= 0 || hp < 0 || temp < 0 {
		fmt.Fprintln(os.Stderr, "error: -max must be > 0 and -hp, -temp >= 0")
		os.Exit(2)
	}

	truth := host.HitPoints{Value: hp, Max: maxHP, Temp: temp}
	from := time.Unix(start, 0)

	fmt.Printf("=== Health Obfuscation Report ===\n")
	fmt.Printf("token=%s hp=%d/%d temp=%d buckets=%d bucket_width=%s start=%s\n\n",
		tokenID, hp, maxHP, temp, buckets, health.BucketWidth, from.UTC().Format(time.RFC3339))

	all := make([]levelStats, 0, len(levels))
	for _, p := range levels {
		ls := measure(p, truth, tokenID, from, buckets)
		all = append(all, ls)
		printLevel(ls, truth)
	}
	printAggregate(all)
}

func parsePerceptions(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("bad perception %q: %w", part, err)
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		return nil, errors.New("no perception values given")
	}
	sort.Ints(out)
	return out, nil
}

// measure samples one reading per bucket at the bucket's first second and
// compares it with a reading at its last second.
func measure(perception int, truth host.HitPoints, tokenID string, from time.Time, buckets int) levelStats {
	v := health.Variance(perception)
	ls := levelStats{
		perception: perception,
		variance:   v,
		accuracy:   health.Accuracy(v),
	}
	for i := 0; i < buckets; i++ {
		at := from.Add(time.Duration(i) * health.BucketWidth)
		r := health.Degrade(truth, v, health.Seed(at, tokenID))
		late := health.Degrade(truth, v, health.Seed(at.Add(health.BucketWidth-time.Second), tokenID))
		if health.TimeBucket(at) == health.TimeBucket(at.Add(health.BucketWidth-time.Second)) && r != late {
			ls.unstable++
		}
		ls.health.add(r.Health, truth.Value)
		ls.max.add(r.MaxHealth, truth.Max)
		ls.temp.add(r.TempHealth, truth.Temp)
		ls.samples++
	}
	return ls
}

func (f figureStats) mean() float64 {
	if f.n == 0 {
		return 0
	}
	return float64(f.sum) / float64(f.n)
}

func (f figureStats) meanAbsErr() float64 {
	if f.n == 0 {
		return 0
	}
	return float64(f.absErr) / float64(f.n)
}

func printLevel(ls levelStats, truth host.HitPoints) {
	fmt.Printf("--- Perception %d ---\n", ls.perception)
	fmt.Printf("model: variance=%.2f accuracy=%.2f samples=%d unstable_buckets=%d\n",
		ls.variance, ls.accuracy, ls.samples, ls.unstable)
	printFigure("health", ls.health, truth.Value)
	printFigure("max", ls.max, truth.Max)
	if truth.Temp > 0 {
		printFigure("temp", ls.temp, truth.Temp)
	}
	fmt.Println()
}

func printFigure(name string, f figureStats, truth int) {
	fmt.Printf("%s: true=%d range=%d..%d mean=%.1f mean_abs_err=%.2f exact=%.0f%%\n",
		name, truth, f.min, f.max, f.mean(), f.meanAbsErr(), pct(f.exact, f.n))
}

func printAggregate(all []levelStats) {
	fmt.Println("=== Aggregate ===")
	fmt.Printf("levels=%d\n", len(all))
	if len(all) == 0 {
		return
	}

	unstable := 0
	best, worst := all[0], all[0]
	for _, ls := range all {
		unstable += ls.unstable
		if ls.health.meanAbsErr() < best.health.meanAbsErr() {
			best = ls
		}
		if ls.health.meanAbsErr() > worst.health.meanAbsErr() {
			worst = ls
		}
	}
	fmt.Printf("sharpest: perception=%d health_mean_abs_err=%.2f\n", best.perception, best.health.meanAbsErr())
	fmt.Printf("bluntest: perception=%d health_mean_abs_err=%.2f\n", worst.perception, worst.health.meanAbsErr())
	fmt.Printf("unstable_buckets_total=%d\n", unstable)
	if p, ok := exactFloor(all); ok {
		fmt.Printf("zero_variance_from_perception=%d\n", p)
	} else {
		fmt.Println("zero_variance_from_perception=n/a")
	}
}

// exactFloor is the lowest sampled perception whose variance is zero.
func exactFloor(all []levelStats) (int, bool) {
	for _, ls := range all {
		if ls.variance == 0 {
			return ls.perception, true
		}
	}
	return 0, false
}

func pct(n, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(n) / float64(total) * 100)
}
