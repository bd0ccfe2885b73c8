package app

import (
	"context"

	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/analysis"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/core"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/flow"
	"github.com/SNUH-NSTRI/kcd2025-sub001/domain/schema"
)

// demoSeed keys every synthetic artifact of a demo session, so demo
// content is identical across restarts.
const demoSeed = "demo"

var demoArticles = []schema.Article{
	{ID: "pmid-demo-1", Title: "Vasopressin versus Norepinephrine Infusion in Patients with Septic Shock", LeadAuthor: "Russell", Journal: "N Engl J Med", Year: 2008},
	{ID: "pmid-demo-2", Title: "Early Use of Norepinephrine in Septic Shock Resuscitation", LeadAuthor: "Permpikul", Journal: "Am J Respir Crit Care Med", Year: 2019},
	{ID: "pmid-demo-3", Title: "Timing of Vasopressor Initiation in Sepsis", LeadAuthor: "Ospina-Tascón", Journal: "Crit Care", Year: 2020},
}

func demoSchema(now core.Timestamp) schema.TrialSchema {
	return schema.TrialSchema{
		Population: "adult ICU patients with septic shock",
		Objective:  "early vasopressin initiation versus norepinephrine monotherapy",
		InclusionCriteria: []string{
			"age >= 18 years",
			"sepsis-3 septic shock criteria",
			"vasopressor support within 6h of admission",
		},
		ExclusionCriteria: []string{
			"pregnancy",
			"comfort-care directive on admission",
		},
		Variables: []schema.Variable{
			{Name: "age", Label: "Age", Type: schema.VariableNumeric, Unit: "years", Required: true},
			{Name: "sex", Label: "Sex", Type: schema.VariableCategorical, Required: true},
			{Name: "sofa", Label: "SOFA score", Type: schema.VariableNumeric},
			{Name: "lactate", Label: "Serum lactate", Type: schema.VariableNumeric, Unit: "mmol/L"},
		},
		Outcomes: []string{"28-day mortality", "ICU-free days"},
		Version:  schema.Version{Author: "demo", Timestamp: now},
	}
}

// SeedDemo pre-populates every pipeline stage from the fixed demo seed and
// switches the session to demo mode, which bypasses step gating.
func (s *Service) SeedDemo(datasetID string, cohortSize int) error {
	templates := []analysis.TemplateMeta{
		{ID: analysis.TemplatePropensityScore, Name: "Propensity score matching"},
		{ID: analysis.TemplateHazardRatio, Name: "Cox hazard ratio"},
		{ID: analysis.TemplateDifferenceInMeans, Name: "Difference in means"},
	}
	return s.SeedSession(context.Background(), demoSeed, cohortSize, datasetID, templates)
}

// SeedSession runs every pipeline stage from the given seed: fixed demo
// articles and schema, a synthesized cohort, one analysis run per template,
// and a report. The session ends up in demo mode with all steps done.
func (s *Service) SeedSession(ctx context.Context, seed string, cohortSize int, datasetID string, templates []analysis.TemplateMeta) error {
	now := core.NewTimestamp(s.now())

	s.SetMode(flow.ModeDemo)
	s.SetArticles(demoArticles)
	for _, a := range demoArticles {
		s.SelectArticle(a.ID)
	}
	s.SetSchema(demoSchema(now))

	mapping := map[string]string{"age": "anchor_age", "sofa": "sofa_score", "lactate": "lactate_max"}
	if _, err := s.GenerateCohort(mapping, cohortSize, seed, datasetID); err != nil {
		return err
	}

	for _, template := range templates {
		runID := seed + "-run-" + template.ID
		if _, err := s.RunAnalysis(ctx, template, runID, RunCallbacks{}); err != nil {
			return err
		}
	}

	for _, step := range flow.Order {
		s.MarkStepDone(step)
	}
	s.Report()
	s.logger.Info("session seeded from %q against %s", seed, datasetID)
	return nil
}
