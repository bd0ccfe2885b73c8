package cohort

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
)

func TestGenerate_Deterministic(t *testing.T) {
	s := NewSynthesizer()
	vars := []schema.Variable{
		{Name: "sofa", Type: schema.VariableNumeric},
		{Name: "sex", Type: schema.VariableCategorical},
	}
	mapping := map[string]string{"sofa": "sofa_score"}

	r1, err := s.Generate(vars, mapping, 100, "seed-A", "mimic-iv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	r2, err := s.Generate(vars, mapping, 100, "seed-A", "mimic-iv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// CreatedAt is wall clock; everything else must match field for field.
	if !reflect.DeepEqual(r1.Summary, r2.Summary) {
		t.Errorf("summaries diverged:\n%+v\n%+v", r1.Summary, r2.Summary)
	}
	if r1.Fingerprint != r2.Fingerprint {
		t.Errorf("fingerprints diverged: %s vs %s", r1.Fingerprint, r2.Fingerprint)
	}
}

func TestGenerate_SeedChangesOutput(t *testing.T) {
	s := NewSynthesizer()
	r1, _ := s.Generate(nil, nil, 200, "seed-A", "mimic-iv")
	r2, _ := s.Generate(nil, nil, 200, "seed-B", "mimic-iv")
	if reflect.DeepEqual(r1.Summary.Age, r2.Summary.Age) {
		t.Error("different seeds should produce different age distributions")
	}
}

func TestGenerate_HistogramConservation(t *testing.T) {
	s := NewSynthesizer()
	cases := []struct {
		size int
		seed string
	}{
		{1, "one"},
		{13, "thirteen"},
		{100, "seed-A"},
		{500, "big"},
	}
	for _, tc := range cases {
		r, err := s.Generate(nil, nil, tc.size, tc.seed, "mimic-iv")
		if err != nil {
			t.Fatalf("size %d: %v", tc.size, err)
		}
		total := 0
		for _, b := range r.Summary.Age.Histogram {
			total += b.Count
		}
		if total != r.Summary.Size {
			t.Errorf("size %d seed %s: histogram total %d != size %d", tc.size, tc.seed, total, r.Summary.Size)
		}
		if len(r.Summary.Age.Histogram) < 4 {
			t.Errorf("size %d: bucket count %d < 4", tc.size, len(r.Summary.Age.Histogram))
		}
	}
}

func TestGenerate_ProportionClosure(t *testing.T) {
	s := NewSynthesizer()
	for _, seed := range []string{"a", "b", "c", "d"} {
		r, err := s.Generate(nil, nil, 157, seed, "mimic-iv")
		if err != nil {
			t.Fatalf("seed %s: %v", seed, err)
		}
		sum := r.Summary.Sex.Proportions.M + r.Summary.Sex.Proportions.F
		if math.Abs(sum-1.0) > 0.01 {
			t.Errorf("seed %s: proportions sum to %v", seed, sum)
		}
		if r.Summary.Sex.Counts.M+r.Summary.Sex.Counts.F != 157 {
			t.Errorf("seed %s: counts do not cover the cohort", seed)
		}
	}
}

func TestGenerate_EmptyCohort(t *testing.T) {
	s := NewSynthesizer()
	r, err := s.Generate([]schema.Variable{}, map[string]string{}, 0, "x", "mimic-iv")
	if err != nil {
		t.Fatalf("zero-size cohort must be tolerated: %v", err)
	}
	if r.Summary.Size != 0 {
		t.Errorf("size = %d", r.Summary.Size)
	}
	if r.Summary.Age.Mean != 0 || r.Summary.Age.Median != 0 {
		t.Errorf("aggregates must default to 0: %+v", r.Summary.Age)
	}
	if len(r.Summary.Age.Histogram) != 0 {
		t.Errorf("histogram must be empty, got %d buckets", len(r.Summary.Age.Histogram))
	}
	if r.Summary.Sex.Proportions.M != 0 || r.Summary.Sex.Proportions.F != 0 {
		t.Errorf("proportions must default to 0: %+v", r.Summary.Sex)
	}
}

func TestGenerate_NegativeSize(t *testing.T) {
	s := NewSynthesizer()
	_, err := s.Generate(nil, nil, -1, "x", "mimic-iv")
	if !errors.Is(err, core.ErrInvalidCohortSize) {
		t.Errorf("expected ErrInvalidCohortSize, got %v", err)
	}
}

func TestGenerate_AgesWithinDatasetBounds(t *testing.T) {
	s := NewSynthesizer()
	r, err := s.Generate(nil, nil, 400, "bounds", "mimic-iv")
	if err != nil {
		t.Fatal(err)
	}
	if r.Summary.Age.Min < 18 || r.Summary.Age.Max > 90 {
		t.Errorf("ages outside [18,90]: min=%d max=%d", r.Summary.Age.Min, r.Summary.Age.Max)
	}
}

func TestBuildHistogram_ClampsEdges(t *testing.T) {
	patients := []PatientRecord{
		{Age: 20}, {Age: 20}, {Age: 20}, {Age: 21},
	}
	// Constant ages still produce the minimum 4 buckets, all mass in the first.
	buckets := buildHistogram(patients, 20, 21)
	if len(buckets) != 4 {
		t.Fatalf("bucket count = %d, want 4", len(buckets))
	}
	if buckets[0].Count != 4 {
		t.Errorf("first bucket count = %d, want 4", buckets[0].Count)
	}
}
