// Package orchestrator drives step-by-step workflow execution with
// progressive revelation of the optional configuration documents.
package orchestrator

import (
	"fmt"
	"log"
	"math"
	"strings"

	"github.com/google/uuid"

	"github.com/paradiselabs/mco-server/internal/config"
	"github.com/paradiselabs/mco-server/internal/workflow"
)

// Progress thresholds for the fallback injection tier: features are
// revealed once a third of the steps are done, styles at two thirds.
const (
	featuresThreshold = 0.33
	stylesThreshold   = 0.66
)

// Engine implements the orchestration operations over a run store. All
// per-run mutation happens under the run's lock; no operation blocks on
// another run's progress.
type Engine struct {
	store            *Store
	evaluator        Evaluator
	defaultConfigDir string
}

// NewEngine wires an engine to its run store. A nil evaluator falls back
// to the structural CriteriaEvaluator.
func NewEngine(store *Store, evaluator Evaluator, defaultConfigDir string) *Engine {
	if evaluator == nil {
		evaluator = CriteriaEvaluator{}
	}
	return &Engine{
		store:            store,
		evaluator:        evaluator,
		defaultConfigDir: defaultConfigDir,
	}
}

// StartResult summarizes a freshly started run.
type StartResult struct {
	OrchestrationID string `json:"orchestration_id"`
	WorkflowName    string `json:"workflow_name,omitempty"`
	TotalSteps      int    `json:"total_steps"`
	FirstStepID     string `json:"first_step_id"`
}

// Start assembles the workflow from the resolved configuration directory
// and registers a new run positioned on the first step.
func (e *Engine) Start(configDir string) (*StartResult, error) {
	dir, err := config.Resolve(configDir, e.defaultConfigDir)
	if err != nil {
		return nil, &ConfigurationError{Reason: err.Error()}
	}

	wf, err := workflow.Load(dir)
	if err != nil {
		return nil, err
	}

	steps := workflow.ExtractSteps(wf)
	run := newRun(uuid.NewString(), wf, steps)
	e.store.add(run)

	log.Printf("orchestrator: started run %s from %s with %d steps", run.ID, dir, len(steps))

	return &StartResult{
		OrchestrationID: run.ID,
		WorkflowName:    wf.PersistentContext().WorkflowName,
		TotalSteps:      len(steps),
		FirstStepID:     steps[0].ID,
	}, nil
}

// Directive tells the driving agent what to do next.
type Directive struct {
	Type              string                      `json:"type"` // "execute" or "complete"
	StepID            string                      `json:"step_id,omitempty"`
	Instruction       string                      `json:"instruction,omitempty"`
	StepIndex         int                         `json:"step_index"`
	TotalSteps        int                         `json:"total_steps"`
	Message           string                      `json:"message,omitempty"`
	PersistentContext *workflow.PersistentContext `json:"persistent_context"`
	InjectedContext   *workflow.InjectedContext   `json:"injected_context,omitempty"`
	Guidance          string                      `json:"guidance,omitempty"`
}

// NextDirective returns the directive for the run's current step, or a
// terminal directive once every step is complete. Injection decisions
// are made here, at most one per call.
func (e *Engine) NextDirective(runID string) (*Directive, error) {
	run, err := e.store.Get(runID)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	pc := run.Workflow.PersistentContext()

	step := run.currentStep()
	if step == nil {
		return &Directive{
			Type:              "complete",
			Message:           "All steps complete",
			StepIndex:         run.currentStepIndex,
			TotalSteps:        len(run.Steps),
			PersistentContext: pc,
		}, nil
	}

	injected := e.injectContext(run, step)

	return &Directive{
		Type:              "execute",
		StepID:            step.ID,
		Instruction:       substituteVariables(step.Description, run.variables),
		StepIndex:         run.currentStepIndex,
		TotalSteps:        len(run.Steps),
		PersistentContext: pc,
		InjectedContext:   injected,
		Guidance:          buildGuidance(step, pc),
	}, nil
}

// injectContext applies the three-tier injection policy. The tiers are
// exclusive branches, so a single call injects features or styles, never
// both, and each document is revealed at most once per run. Caller holds
// the run lock.
func (e *Engine) injectContext(run *Run, step *workflow.Step) *workflow.InjectedContext {
	wf := run.Workflow
	fraction := run.completedFraction()

	switch {
	// Tier A: the step's own category asks for the document.
	case !run.featuresInjected && step.Category == workflow.CategoryImplement && wf.Features != nil:
		run.featuresInjected = true
		log.Printf("orchestrator: run %s injecting features at step %s (category match)", run.ID, step.ID)
		return wf.InjectableContext(string(step.Category))

	case !run.stylesInjected && step.Category == workflow.CategoryStyle && wf.Styles != nil:
		run.stylesInjected = true
		log.Printf("orchestrator: run %s injecting styles at step %s (category match)", run.ID, step.ID)
		return wf.InjectableContext(string(step.Category))

	// Tier B: progress fallback, so the documents are revealed even when
	// no step category ever matches.
	case !run.featuresInjected && fraction >= featuresThreshold && wf.Features != nil:
		run.featuresInjected = true
		log.Printf("orchestrator: run %s injecting features at step %s (progress %.0f%%)", run.ID, step.ID, fraction*100)
		return &workflow.InjectedContext{Features: wf.Features.Declarations}

	case !run.stylesInjected && fraction >= stylesThreshold && wf.Styles != nil:
		run.stylesInjected = true
		log.Printf("orchestrator: run %s injecting styles at step %s (progress %.0f%%)", run.ID, step.ID, fraction*100)
		return &workflow.InjectedContext{Styles: wf.Styles.Declarations}
	}
	return nil
}

// CompletionResult reports the outcome of a completeStep call.
type CompletionResult struct {
	Status           string      `json:"status"`
	CompletedStepID  string      `json:"completed_step_id"`
	NextStepID       string      `json:"next_step_id,omitempty"`
	WorkflowComplete bool        `json:"workflow_complete"`
	Evaluation       *Evaluation `json:"evaluation"`
}

// CompleteStep records the current step as done and advances the run by
// exactly one step. The protocol is strictly sequential: a stepID that
// is not the current step's id is rejected without mutating anything.
func (e *Engine) CompleteStep(runID, stepID, result string) (*CompletionResult, error) {
	run, err := e.store.Get(runID)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	step := run.currentStep()
	if step == nil {
		return nil, &StepMismatchError{RunID: runID, Received: stepID}
	}
	if stepID != step.ID {
		return nil, &StepMismatchError{RunID: runID, Expected: step.ID, Received: stepID}
	}

	run.completedSteps = append(run.completedSteps, *step)
	run.currentStepIndex++
	run.touch()

	evaluation := e.evaluator.Evaluate(run.Workflow.PersistentContext().Criteria, result)

	res := &CompletionResult{
		Status:           "success",
		CompletedStepID:  step.ID,
		WorkflowComplete: run.state() == StateComplete,
		Evaluation:       evaluation,
	}
	if next := run.currentStep(); next != nil {
		res.NextStepID = next.ID
	}
	return res, nil
}

// Status is a point-in-time snapshot of a run.
type Status struct {
	OrchestrationID string          `json:"orchestration_id"`
	State           RunState        `json:"state"`
	Progress        int             `json:"progress"`
	CurrentStep     *workflow.Step  `json:"current_step,omitempty"`
	CompletedSteps  []workflow.Step `json:"completed_steps"`
	RemainingSteps  []workflow.Step `json:"remaining_steps"`
	TotalSteps      int             `json:"total_steps"`
}

// WorkflowStatus reports lifecycle state, integer progress percentage,
// and the completed and remaining step lists.
func (e *Engine) WorkflowStatus(runID string) (*Status, error) {
	run, err := e.store.Get(runID)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	completed := make([]workflow.Step, len(run.completedSteps))
	copy(completed, run.completedSteps)

	var remaining []workflow.Step
	if run.currentStepIndex < len(run.Steps) {
		remaining = make([]workflow.Step, len(run.Steps)-run.currentStepIndex)
		copy(remaining, run.Steps[run.currentStepIndex:])
	}

	return &Status{
		OrchestrationID: run.ID,
		State:           run.state(),
		Progress:        progressPercent(len(run.completedSteps), len(run.Steps)),
		CurrentStep:     run.currentStep(),
		CompletedSteps:  completed,
		RemainingSteps:  remaining,
		TotalSteps:      len(run.Steps),
	}, nil
}

func progressPercent(completed, total int) int {
	if total == 0 {
		return 100
	}
	p := int(math.Round(100 * float64(completed) / float64(total)))
	if p > 100 {
		p = 100
	}
	return p
}

// EvaluateAgainstCriteria runs the evaluator outside the completion
// path, against the run's success criteria.
func (e *Engine) EvaluateAgainstCriteria(runID, result string) (*Evaluation, error) {
	run, err := e.store.Get(runID)
	if err != nil {
		return nil, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	return e.evaluator.Evaluate(run.Workflow.PersistentContext().Criteria, result), nil
}

// SetVariable writes a run variable. Values are caller-controlled and
// unconstrained.
func (e *Engine) SetVariable(runID, key string, value any) error {
	run, err := e.store.Get(runID)
	if err != nil {
		return err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	run.variables[key] = value
	run.touch()
	return nil
}

// GetVariable reads a run variable. An absent key reports found=false
// rather than an error.
func (e *Engine) GetVariable(runID, key string) (any, bool, error) {
	run, err := e.store.Get(runID)
	if err != nil {
		return nil, false, err
	}
	run.mu.Lock()
	defer run.mu.Unlock()

	v, ok := run.variables[key]
	return v, ok, nil
}

// substituteVariables replaces {name} placeholders in the instruction
// text with the run's variable values.
func substituteVariables(text string, variables map[string]any) string {
	for name, value := range variables {
		placeholder := "{" + name + "}"
		text = strings.ReplaceAll(text, placeholder, fmt.Sprintf("%v", value))
	}
	return text
}

// Canned guidance per step category, extended with whatever the success
// criteria documents provide.
var guidanceByCategory = map[workflow.StepCategory]string{
	workflow.CategoryPlan:      "Break the work into concrete, ordered sub-tasks before producing anything else. Keep the plan small enough to execute without revision.",
	workflow.CategoryImplement: "Produce working output for this step, building directly on the results of previous steps. Prefer complete, verifiable work over sketches.",
	workflow.CategoryStyle:     "Focus on presentation and consistency. Apply the workflow's style direction to everything produced so far.",
	workflow.CategoryTest:      "Verify the work done in earlier steps. Exercise edge cases and report exactly what was checked and what the outcome was.",
	workflow.CategoryDocument:  "Summarize and document the results so far in a form the target audience can act on.",
}

const genericGuidance = "Complete this step thoroughly before moving on, building on the work of previous steps."

func buildGuidance(step *workflow.Step, pc *workflow.PersistentContext) string {
	parts := []string{}

	if g, ok := guidanceByCategory[step.Category]; ok {
		parts = append(parts, g)
	} else {
		parts = append(parts, genericGuidance)
	}

	if pc.Goal != "" {
		parts = append(parts, "Goal: "+pc.Goal)
	}
	if pc.TargetAudience != "" {
		parts = append(parts, "Target Audience: "+pc.TargetAudience)
	}
	if pc.DeveloperVision != "" {
		parts = append(parts, "Developer Vision: "+pc.DeveloperVision)
	}
	if len(pc.Criteria) > 0 {
		var sb strings.Builder
		sb.WriteString("Success Criteria:")
		for _, c := range pc.Criteria {
			sb.WriteString("\n- ")
			sb.WriteString(c)
		}
		parts = append(parts, sb.String())
	}

	return strings.Join(parts, "\n\n")
}
