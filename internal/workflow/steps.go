package workflow

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// StepCategory classifies a step for guidance lookup and context
// injection.
type StepCategory string

const (
	CategoryPlan      StepCategory = "plan"
	CategoryImplement StepCategory = "implement"
	CategoryStyle     StepCategory = "style"
	CategoryTest      StepCategory = "test"
	CategoryDocument  StepCategory = "document"
)

// Step is one unit of orchestrated work, derived from the core document's
// agent declarations.
type Step struct {
	ID          string       `json:"id"`
	Agent       string       `json:"agent"`
	Description string       `json:"description"`
	Category    StepCategory `json:"category"`
	Index       int          `json:"index"`
}

// Fallback when no agent declares any steps, so every workflow has at
// least one unit of work.
var defaultStep = Step{
	ID:          "default_step_0",
	Agent:       "default",
	Description: "Complete the task",
	Category:    CategoryImplement,
}

// categoryKeywords is checked in this fixed order with first match
// winning. The order is part of the contract: a description matching
// several groups resolves by position, not by best match.
var categoryKeywords = []struct {
	category StepCategory
	words    []string
}{
	{CategoryImplement, []string{"implement", "develop", "code", "build"}},
	{CategoryStyle, []string{"style", "format", "design", "present"}},
	{CategoryPlan, []string{"plan", "architect"}},
	{CategoryTest, []string{"test", "validate", "verify"}},
	{CategoryDocument, []string{"document", "report"}},
}

// InferCategory matches description keywords case-insensitively,
// defaulting to implement.
func InferCategory(description string) StepCategory {
	lower := strings.ToLower(description)
	for _, group := range categoryKeywords {
		for _, word := range group.words {
			if strings.Contains(lower, word) {
				return group.category
			}
		}
	}
	return CategoryImplement
}

// ExtractSteps derives the ordered step list from the workflow's agent
// declarations. Agents and their step lists are walked in document order,
// which is why this iterates the YAML mapping nodes instead of a decoded
// Go map.
func ExtractSteps(wf *Workflow) []Step {
	var steps []Step

	agents, ok := wf.Core.Declarations["agents"]
	if ok {
		if node := agents.Node(); node != nil && node.Kind == yaml.MappingNode {
			for i := 0; i+1 < len(node.Content); i += 2 {
				agentName := node.Content[i].Value
				steps = append(steps, agentSteps(agentName, node.Content[i+1], len(steps))...)
			}
		}
	}

	if len(steps) == 0 {
		return []Step{defaultStep}
	}
	return steps
}

// agentSteps extracts one agent's declared steps. A bare string entry is
// its own description; a mapping entry uses its description field, with a
// positional fallback.
func agentSteps(agent string, spec *yaml.Node, offset int) []Step {
	if spec.Kind != yaml.MappingNode {
		return nil
	}
	list := mappingValue(spec, "steps")
	if list == nil || list.Kind != yaml.SequenceNode {
		return nil
	}

	steps := make([]Step, 0, len(list.Content))
	for i, entry := range list.Content {
		desc := ""
		switch entry.Kind {
		case yaml.ScalarNode:
			desc = entry.Value
		case yaml.MappingNode:
			if d := mappingValue(entry, "description"); d != nil && d.Kind == yaml.ScalarNode {
				desc = d.Value
			}
		}
		if desc == "" {
			desc = fmt.Sprintf("Step %d", i+1)
		}

		steps = append(steps, Step{
			ID:          fmt.Sprintf("%s_step_%d", agent, i),
			Agent:       agent,
			Description: desc,
			Category:    InferCategory(desc),
			Index:       offset + i,
		})
	}
	return steps
}

// mappingValue returns the value node for key in a YAML mapping, or nil.
func mappingValue(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}
