// Package analysis fabricates template-shaped statistical tables and charts
// for an analysis run. A combined seed of runId|templateId|cohortSeed keys
// the generator, so the (template, cohort seed, run id) triple fully
// determines every table cell and chart point.
package analysis

import (
	"fmt"
	"math"
	"time"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/cohort"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/rng"
)

// seedSeparator joins the combined-seed fields. Wire-level contract: any
// alternate implementation must use the same separator and field order to
// stay interchangeable.
const seedSeparator = "|"

// survivalTimeGrid is the fixed follow-up grid (days) for Kaplan-Meier
// shaped charts.
var survivalTimeGrid = []float64{0, 30, 60, 120, 180, 240, 360}

// balanceCovariates are the tracked covariates of the propensity-score
// balance table.
var balanceCovariates = []string{"age", "sex", "bmi", "comorbidity_index", "baseline_severity"}

const psDomainPoints = 20

// Synthesizer produces RunResults from a cohort and a template choice.
type Synthesizer struct{}

// NewSynthesizer creates an analysis synthesizer.
func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// CombineSeed builds the generator seed for a run.
func CombineSeed(runID, templateID, cohortSeed string) string {
	return runID + seedSeparator + templateID + seedSeparator + cohortSeed
}

// Run executes the recipe selected by template.ID. An unknown template id
// is not an error: it falls through to the difference-in-means recipe with
// UsedFallback set on the result so callers can observe the degradation.
func (s *Synthesizer) Run(template TemplateMeta, c cohort.Result, runID string, startedAt time.Time) RunResult {
	g := rng.New(CombineSeed(runID, template.ID, c.Seed))

	result := RunResult{
		RunID:       runID,
		TemplateID:  template.ID,
		StartedAt:   core.NewTimestamp(startedAt),
		Fingerprint: core.RunFingerprint(runID, template.ID, c.Seed),
	}

	switch template.ID {
	case TemplatePropensityScore:
		result.Tables, result.Charts = propensityScoreRecipe(g)
	case TemplateHazardRatio:
		result.Tables, result.Charts = hazardRatioRecipe(g)
	case TemplateDifferenceInMeans:
		result.Tables, result.Charts = differenceInMeansRecipe(g, c.Summary.Size)
	default:
		result.Tables, result.Charts = differenceInMeansRecipe(g, c.Summary.Size)
		result.UsedFallback = true
	}

	result.DurationMs = g.NextInt(1400, 2600)
	result.FinishedAt = core.NewTimestamp(startedAt.Add(time.Duration(result.DurationMs) * time.Millisecond))
	return result
}

// propensityScoreRecipe emits a covariate-balance table and the treated vs
// control propensity-score density over a fixed 20-point domain.
func propensityScoreRecipe(g *rng.Generator) ([]Table, []Chart) {
	rows := make([]BalanceRow, 0, len(balanceCovariates))
	for _, cov := range balanceCovariates {
		treated := round2(g.NextFloat(0.2, 0.8))
		control := round2(treated + g.NextFloat(-0.08, 0.08))
		rows = append(rows, BalanceRow{
			Covariate: cov,
			Treated:   treated,
			Control:   control,
			StdDiff:   round3(g.NextFloat(-0.1, 0.1)),
		})
	}
	table := Table{
		ID:      "balance-table",
		Title:   "Covariate Balance After Matching",
		Kind:    TableBalance,
		Columns: []string{"covariate", "treated", "control", "stdDiff"},
		Balance: rows,
	}

	treatedMu := g.NextFloat(0.5, 0.62)
	controlMu := g.NextFloat(0.38, 0.5)
	sigma := g.NextFloat(0.1, 0.16)
	chart := Chart{
		ID:     "ps-distribution",
		Type:   ChartLine,
		Title:  "Propensity Score Distribution",
		XLabel: "Propensity score",
		YLabel: "Density",
		Series: []Series{
			densitySeries(g, "Treated", treatedMu, sigma),
			densitySeries(g, "Control", controlMu, sigma),
		},
	}
	return []Table{table}, []Chart{chart}
}

// densitySeries traces a slightly noisy Gaussian bump over [0,1].
func densitySeries(g *rng.Generator, name string, mu, sigma float64) Series {
	points := make([]Point, psDomainPoints)
	for i := 0; i < psDomainPoints; i++ {
		x := float64(i) / float64(psDomainPoints-1)
		base := math.Exp(-((x - mu) * (x - mu)) / (2 * sigma * sigma))
		points[i] = Point{
			X: round3(x),
			Y: round3(base + g.NextFloat(0, 0.04)),
		}
	}
	return Series{Name: name, Points: points}
}

// hazardRatioRecipe emits a Cox-style hazard table (control fixed at HR=1)
// and a Kaplan-Meier shaped survival chart with confidence bands.
func hazardRatioRecipe(g *rng.Generator) ([]Table, []Chart) {
	hr := round2(g.NextFloat(0.7, 1.4))
	ciLower := round2(hr - g.NextFloat(0.08, 0.2))
	ciUpper := round2(hr + g.NextFloat(0.08, 0.25))
	p := round3(g.NextFloat(0.01, 0.2))

	table := Table{
		ID:      "hazard-table",
		Title:   "Cox Proportional Hazards",
		Kind:    TableHazard,
		Columns: []string{"group", "hazardRatio", "ciLower", "ciUpper", "pValue"},
		Hazard: []HazardRow{
			{Group: GroupControl, HazardRatio: 1, CILower: 1, CIUpper: 1},
			{Group: GroupTreatment, HazardRatio: hr, CILower: ciLower, CIUpper: ciUpper, PValue: &p},
		},
	}

	controlRate := g.NextFloat(0.0012, 0.0024)
	treatmentRate := controlRate * hr
	band := g.NextFloat(0.02, 0.05)

	chart := Chart{
		ID:     "survival-chart",
		Type:   ChartLine,
		Title:  "Kaplan-Meier Survival Estimate",
		XLabel: "Days since index",
		YLabel: "Survival probability",
		Series: append(
			survivalSeries(GroupTreatment, treatmentRate, band),
			survivalSeries(GroupControl, controlRate, band)...,
		),
	}
	return []Table{table}, []Chart{chart}
}

// survivalSeries returns the estimate plus its upper/lower confidence band
// over the fixed time grid.
func survivalSeries(group string, rate, band float64) []Series {
	estimate := make([]Point, len(survivalTimeGrid))
	upper := make([]Point, len(survivalTimeGrid))
	lower := make([]Point, len(survivalTimeGrid))
	for i, t := range survivalTimeGrid {
		surv := math.Exp(-rate * t)
		estimate[i] = Point{X: t, Y: round3(surv)}
		upper[i] = Point{X: t, Y: round3(math.Min(1, surv+band))}
		lower[i] = Point{X: t, Y: round3(math.Max(0, surv-band))}
	}
	return []Series{
		{Name: group, Points: estimate},
		{Name: fmt.Sprintf("%s (upper 95%% CI)", group), Points: upper},
		{Name: fmt.Sprintf("%s (lower 95%% CI)", group), Points: lower},
	}
}

// differenceInMeansRecipe emits the default outcome table and treatment
// effect bar chart with a fixed ±0.05 confidence band.
func differenceInMeansRecipe(g *rng.Generator, cohortSize int) ([]Table, []Chart) {
	half := cohortSize / 2
	treatN := half + g.NextInt(-cohortSize/20-1, cohortSize/20+1)
	if treatN < 0 {
		treatN = 0
	}
	if treatN > cohortSize {
		treatN = cohortSize
	}

	treatMean := round2(g.NextFloat(0.4, 0.7))
	controlMean := round2(g.NextFloat(0.35, 0.65))

	table := Table{
		ID:      "outcome-table",
		Title:   "Outcome by Group",
		Kind:    TableOutcome,
		Columns: []string{"group", "mean", "stdDev", "n"},
		Outcome: []OutcomeRow{
			{Group: GroupTreatment, Mean: treatMean, StdDev: round2(g.NextFloat(0.05, 0.2)), N: treatN},
			{Group: GroupControl, Mean: controlMean, StdDev: round2(g.NextFloat(0.05, 0.2)), N: cohortSize - treatN},
		},
	}

	effect := round2(treatMean - controlMean)
	chart := Chart{
		ID:     "effect-chart",
		Type:   ChartBar,
		Title:  "Treatment Effect",
		XLabel: "Contrast",
		YLabel: "Difference in means",
		Series: []Series{
			{Name: "Effect", Points: []Point{{X: 0, Y: effect}}},
			{Name: "Upper band", Points: []Point{{X: 0, Y: round2(effect + 0.05)}}},
			{Name: "Lower band", Points: []Point{{X: 0, Y: round2(effect - 0.05)}}},
		},
	}
	return []Table{table}, []Chart{chart}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
