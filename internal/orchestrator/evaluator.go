package orchestrator

import "strings"

// CriterionResult is the judgment for one success criterion.
type CriterionResult struct {
	Criterion string `json:"criterion"`
	Satisfied bool   `json:"satisfied"`
}

// Evaluation is the shape every evaluator must produce: an overall flag,
// a per-criterion list, and feedback text.
type Evaluation struct {
	Success  bool              `json:"success"`
	Criteria []CriterionResult `json:"criteria"`
	Feedback string            `json:"feedback"`
}

// Evaluator scores a step result against the workflow's success
// criteria. It is an injected strategy so real grading can replace the
// default without touching the state machine.
type Evaluator interface {
	Evaluate(criteria []string, result string) *Evaluation
}

// CriteriaEvaluator is the default structural pass-through: any
// non-empty result counts as success and every criterion is marked
// satisfied. It validates the protocol, not the content.
type CriteriaEvaluator struct{}

func (CriteriaEvaluator) Evaluate(criteria []string, result string) *Evaluation {
	success := strings.TrimSpace(result) != ""

	results := make([]CriterionResult, 0, len(criteria))
	for _, c := range criteria {
		results = append(results, CriterionResult{Criterion: c, Satisfied: true})
	}

	feedback := "Success: task completed without explicit failure indicators"
	if !success {
		feedback = "No result provided for evaluation"
	}

	return &Evaluation{
		Success:  success,
		Criteria: results,
		Feedback: feedback,
	}
}
