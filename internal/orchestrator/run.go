package orchestrator

import (
	"sync"
	"time"

	"github.com/paradiselabs/mco-server/internal/workflow"
)

// RunState is the lifecycle state of an orchestration run.
type RunState string

const (
	StateInProgress RunState = "in_progress"
	StateComplete   RunState = "complete"
)

// Run is one stateful execution of an assembled workflow. The workflow
// and step list are immutable after creation; everything else is guarded
// by mu, which the engine holds for the duration of each operation.
type Run struct {
	ID       string
	Workflow *workflow.Workflow
	Steps    []workflow.Step

	mu               sync.Mutex
	currentStepIndex int
	completedSteps   []workflow.Step
	variables        map[string]any
	featuresInjected bool
	stylesInjected   bool
	createdAt        time.Time
	updatedAt        time.Time
}

func newRun(id string, wf *workflow.Workflow, steps []workflow.Step) *Run {
	now := time.Now()
	return &Run{
		ID:        id,
		Workflow:  wf,
		Steps:     steps,
		variables: make(map[string]any),
		createdAt: now,
		updatedAt: now,
	}
}

// touch records a mutation time. Callers must hold mu.
func (r *Run) touch() {
	r.updatedAt = time.Now()
}

// state is the derived lifecycle state. Callers must hold mu.
func (r *Run) state() RunState {
	if r.currentStepIndex >= len(r.Steps) {
		return StateComplete
	}
	return StateInProgress
}

// currentStep returns the step the run is positioned on, or nil when
// complete. Callers must hold mu.
func (r *Run) currentStep() *workflow.Step {
	if r.currentStepIndex >= len(r.Steps) {
		return nil
	}
	return &r.Steps[r.currentStepIndex]
}

// completedFraction is the share of steps already completed. Callers
// must hold mu.
func (r *Run) completedFraction() float64 {
	if len(r.Steps) == 0 {
		return 1
	}
	return float64(len(r.completedSteps)) / float64(len(r.Steps))
}

// Store is the run registry: the only shared mutable resource in the
// system. It is passed explicitly to the engine so tests can create
// isolated instances.
type Store struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

func NewStore() *Store {
	return &Store{runs: make(map[string]*Run)}
}

func (s *Store) add(r *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[r.ID] = r
}

// Get looks up a run by id.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runs[id]
	if !ok {
		return nil, &RunNotFoundError{RunID: id}
	}
	return r, nil
}

// Len reports the number of registered runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}
