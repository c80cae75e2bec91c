package workflow

import (
	"testing"
)

func loadFixture(t *testing.T, core string) *Workflow {
	t.Helper()
	dir := writeConfigDir(t, map[string]string{
		CoreFile:            core,
		SuccessCriteriaFile: scText,
	})
	wf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return wf
}

func TestExtractSteps_OrderAndIDs(t *testing.T) {
	wf := loadFixture(t, `@agents
  researcher:
    name: "Researcher"
    steps:
      - "Plan the investigation"
      - "Document the findings"
  builder:
    name: "Builder"
    steps:
      - "Implement the solution"
`)

	steps := ExtractSteps(wf)
	if len(steps) != 3 {
		t.Fatalf("Expected 3 steps, got %d", len(steps))
	}

	wantIDs := []string{"researcher_step_0", "researcher_step_1", "builder_step_0"}
	for i, want := range wantIDs {
		if steps[i].ID != want {
			t.Errorf("steps[%d].ID = %q, want %q", i, steps[i].ID, want)
		}
		if steps[i].Index != i {
			t.Errorf("steps[%d].Index = %d, want %d", i, steps[i].Index, i)
		}
	}
	if steps[2].Agent != "builder" {
		t.Errorf("steps[2].Agent = %q, want builder", steps[2].Agent)
	}
}

func TestExtractSteps_StructuredEntries(t *testing.T) {
	wf := loadFixture(t, `@agents
  worker:
    steps:
      - description: "Build the data layer"
      - model: "some-model"
`)

	steps := ExtractSteps(wf)
	if len(steps) != 2 {
		t.Fatalf("Expected 2 steps, got %d", len(steps))
	}
	if steps[0].Description != "Build the data layer" {
		t.Errorf("steps[0].Description = %q", steps[0].Description)
	}
	// Entry without a description falls back to its position.
	if steps[1].Description != "Step 2" {
		t.Errorf("steps[1].Description = %q, want \"Step 2\"", steps[1].Description)
	}
}

func TestExtractSteps_DefaultStep(t *testing.T) {
	cases := []string{
		"@workflow \"No agents at all\"\n",
		"@agents\n  idle:\n    name: \"Idle\"\n",
	}

	for _, core := range cases {
		steps := ExtractSteps(loadFixture(t, core))
		if len(steps) != 1 {
			t.Fatalf("Expected synthetic default step, got %d steps", len(steps))
		}
		s := steps[0]
		if s.ID != "default_step_0" || s.Category != CategoryImplement || s.Description != "Complete the task" {
			t.Errorf("Default step = %+v", s)
		}
	}
}

func TestInferCategory(t *testing.T) {
	tests := []struct {
		description string
		want        StepCategory
	}{
		{"Implement the login form", CategoryImplement},
		{"Develop the API client", CategoryImplement},
		{"Write code for the parser", CategoryImplement},
		{"Build the deployment pipeline", CategoryImplement},
		{"Format the final report", CategoryStyle},
		{"Design the landing page", CategoryStyle},
		{"Plan the migration", CategoryPlan},
		{"Architect the storage layer", CategoryPlan},
		{"Test the edge cases", CategoryTest},
		{"Validate the results", CategoryTest},
		{"Report on the outcomes", CategoryDocument},
		{"Understand the requirements", CategoryImplement}, // default
		{"IMPLEMENT IN UPPERCASE", CategoryImplement},
	}

	for _, tc := range tests {
		if got := InferCategory(tc.description); got != tc.want {
			t.Errorf("InferCategory(%q) = %q, want %q", tc.description, got, tc.want)
		}
	}
}

func TestInferCategory_FirstMatchWins(t *testing.T) {
	// "design" sits in the style group, which is checked before the plan
	// group, so a description containing both resolves to style.
	if got := InferCategory("Design the plan for rollout"); got != CategoryStyle {
		t.Errorf("InferCategory = %q, want %q", got, CategoryStyle)
	}
	// The implement group is checked first of all.
	if got := InferCategory("Build the style guide"); got != CategoryImplement {
		t.Errorf("InferCategory = %q, want %q", got, CategoryImplement)
	}
}
