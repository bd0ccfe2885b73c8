// Package cohort fabricates synthetic patient cohorts and their descriptive
// summaries from a stable seed. Generation is pure given its inputs: the
// same (variables, mapping, size, seed, dataset) tuple yields the same
// summary field for field, modulo the wall-clock CreatedAt.
package cohort

import (
	"fmt"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/rng"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
)

const bucketWidth = 10

// ageBounds is the inclusive age range drawn for a dataset.
type ageBounds struct {
	lo, hi int
}

// datasetAgeBounds carries per-dataset conventions; anything unlisted uses
// the default adult range.
var datasetAgeBounds = map[string]ageBounds{
	"mimic-iv": {18, 90},
	"eicu":     {18, 89},
}

var defaultBounds = ageBounds{18, 90}

// Synthesizer draws patient records from a seeded generator and summarises
// them. Zero value is not usable; construct with NewSynthesizer.
type Synthesizer struct {
	maleProbability float64
	now             func() core.Timestamp
}

// NewSynthesizer returns a synthesizer with the default 50/50 sex split.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{
		maleProbability: 0.5,
		now:             core.Now,
	}
}

// Generate fabricates a cohort of the given size and returns its summary
// artifact. A negative size is a caller error; a zero size is tolerated and
// yields zeroed statistics with an empty histogram.
func (s *Synthesizer) Generate(vars []schema.Variable, mapping map[string]string, size int, seed, datasetID string) (Result, error) {
	if size < 0 {
		return Result{}, fmt.Errorf("%w: %d", core.ErrInvalidCohortSize, size)
	}

	bounds, ok := datasetAgeBounds[datasetID]
	if !ok {
		bounds = defaultBounds
	}

	g := rng.New(seed)
	patients := make([]PatientRecord, 0, size)
	for i := 0; i < size; i++ {
		p := PatientRecord{
			ID:  fmt.Sprintf("pt_%s_%05d", datasetID, i+1),
			Age: g.NextInt(bounds.lo, bounds.hi),
		}
		if g.Boolean(s.maleProbability) {
			p.Sex = "M"
		} else {
			p.Sex = "F"
		}
		p.Fields = drawVariableFields(g, vars, mapping)
		patients = append(patients, p)
	}

	return Result{
		Summary:     summarise(patients),
		Seed:        seed,
		DatasetID:   datasetID,
		CreatedAt:   s.now(),
		Fingerprint: core.CohortFingerprint(datasetID, seed, size),
	}, nil
}

// drawVariableFields fabricates one value per mapped numeric variable. Draw
// order follows the variable list so the stream stays reproducible.
func drawVariableFields(g *rng.Generator, vars []schema.Variable, mapping map[string]string) map[string]float64 {
	var fields map[string]float64
	for _, v := range vars {
		if v.Type != schema.VariableNumeric {
			continue
		}
		if _, mapped := mapping[v.Name]; !mapped {
			continue
		}
		if fields == nil {
			fields = make(map[string]float64)
		}
		fields[v.Name] = round1(g.NextFloat(0, 100))
	}
	return fields
}

// summarise computes the descriptive summary. Empty cohorts default every
// aggregate to zero rather than dividing by zero.
func summarise(patients []PatientRecord) Summary {
	summary := Summary{Size: len(patients)}
	if len(patients) == 0 {
		summary.Age.Histogram = []AgeBucket{}
		return summary
	}

	ages := make([]float64, len(patients))
	males := 0
	for i, p := range patients {
		ages[i] = float64(p.Age)
		if p.Sex == "M" {
			males++
		}
	}

	mean, _ := stats.Mean(ages)
	median, _ := stats.Median(ages)
	min, _ := stats.Min(ages)
	max, _ := stats.Max(ages)
	stdDev, _ := stats.StandardDeviation(ages)

	// Skewness is undefined for tiny or constant samples; report 0 so the
	// summary stays JSON-encodable.
	skew := 0.0
	if len(ages) >= 3 && stdDev > 0 {
		skew = round3(stat.Skew(ages, nil))
	}

	summary.Age = AgeStats{
		Mean:      round2(mean),
		Median:    median,
		Min:       int(min),
		Max:       int(max),
		StdDev:    round2(stdDev),
		Skewness:  skew,
		Histogram: buildHistogram(patients, int(min), int(max)),
	}

	females := len(patients) - males
	summary.Sex = SexStats{
		Counts: SexCounts{M: males, F: females},
		Proportions: SexProportions{
			M: round2(float64(males) / float64(len(patients))),
			F: round2(float64(females) / float64(len(patients))),
		},
	}
	return summary
}

// buildHistogram buckets ages into fixed 10-unit bands starting at the
// minimum observed age. Out-of-range indices clamp to the edge buckets.
func buildHistogram(patients []PatientRecord, min, max int) []AgeBucket {
	bucketCount := int(math.Ceil(float64(max-min) / bucketWidth))
	if bucketCount < 4 {
		bucketCount = 4
	}

	buckets := make([]AgeBucket, bucketCount)
	for i := range buckets {
		start := min + i*bucketWidth
		buckets[i] = AgeBucket{Start: start, End: start + bucketWidth - 1}
	}

	for _, p := range patients {
		idx := (p.Age - min) / bucketWidth
		if idx < 0 {
			idx = 0
		}
		if idx >= bucketCount {
			idx = bucketCount - 1
		}
		buckets[idx].Count++
	}
	return buckets
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
