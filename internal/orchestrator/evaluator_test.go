package orchestrator

import "testing"

func TestCriteriaEvaluator(t *testing.T) {
	eval := CriteriaEvaluator{}
	criteria := []string{"Identify bugs", "Suggest improvements"}

	ev := eval.Evaluate(criteria, "review complete, two issues found")
	if !ev.Success {
		t.Error("Non-empty result should evaluate as success")
	}
	if len(ev.Criteria) != 2 {
		t.Fatalf("Criteria count = %d, want 2", len(ev.Criteria))
	}
	for _, c := range ev.Criteria {
		if !c.Satisfied {
			t.Errorf("Criterion %q not marked satisfied", c.Criterion)
		}
	}
	if ev.Feedback == "" {
		t.Error("Feedback missing")
	}
}

func TestCriteriaEvaluator_EmptyResult(t *testing.T) {
	eval := CriteriaEvaluator{}

	for _, result := range []string{"", "   ", "\n"} {
		ev := eval.Evaluate(nil, result)
		if ev.Success {
			t.Errorf("Empty result %q should not succeed", result)
		}
		if len(ev.Criteria) != 0 {
			t.Errorf("No criteria should yield no criterion results, got %v", ev.Criteria)
		}
	}
}
