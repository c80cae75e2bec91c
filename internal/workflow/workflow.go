// Package workflow assembles the four-document MCO configuration into a
// single workflow model and derives the executable step list from it.
package workflow

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/paradiselabs/mco-server/internal/snlp"
)

// The four recognized document names inside a configuration directory.
// Core and success criteria are mandatory; features and styles are the
// progressively revealed optional pair.
const (
	CoreFile            = "mco.core"
	SuccessCriteriaFile = "mco.sc"
	FeaturesFile        = "mco.features"
	StylesFile          = "mco.styles"
)

// Workflow is the assembled unit for one configuration directory. Absent
// optional documents stay nil: "not provided" is distinct from "empty".
type Workflow struct {
	Dir             string
	Core            *snlp.Document
	SuccessCriteria *snlp.Document
	Features        *snlp.Document
	Styles          *snlp.Document
}

// MissingRequiredDocumentError reports which mandatory documents a
// directory scan failed to produce.
type MissingRequiredDocumentError struct {
	Dir     string
	Missing []string
}

func (e *MissingRequiredDocumentError) Error() string {
	return fmt.Sprintf("configuration directory %s is missing required documents: %s",
		e.Dir, strings.Join(e.Missing, ", "))
}

// Load parses the recognized documents in dir and assembles a Workflow.
// Per-file failures on optional documents are logged and the slot left
// empty; a missing core or success-criteria document fails the whole
// assembly. Every call reparses from disk.
func Load(dir string) (*Workflow, error) {
	wf := &Workflow{Dir: dir}

	slots := []struct {
		file     string
		required bool
		doc      **snlp.Document
	}{
		{CoreFile, true, &wf.Core},
		{SuccessCriteriaFile, true, &wf.SuccessCriteria},
		{FeaturesFile, false, &wf.Features},
		{StylesFile, false, &wf.Styles},
	}

	var missing []string
	for _, slot := range slots {
		path := filepath.Join(dir, slot.file)
		doc, err := snlp.ParseFile(path)
		if err != nil {
			if slot.required {
				missing = append(missing, slot.file)
			} else {
				log.Printf("workflow: skipping optional document %s: %v", path, err)
			}
			continue
		}
		*slot.doc = doc
	}

	if len(missing) > 0 {
		return nil, &MissingRequiredDocumentError{Dir: dir, Missing: missing}
	}
	return wf, nil
}

// PersistentContext is the always-visible portion of a workflow: the core
// and success-criteria declarations plus flattened convenience fields.
// The flattened fields are omitted entirely when the source declaration
// does not exist.
type PersistentContext struct {
	Core            map[string]snlp.Value `json:"core"`
	SuccessCriteria map[string]snlp.Value `json:"success_criteria"`
	WorkflowName    string                `json:"workflow_name,omitempty"`
	Data            *snlp.Value           `json:"data,omitempty"`
	Goal            string                `json:"goal,omitempty"`
	Criteria        []string              `json:"criteria,omitempty"`
	TargetAudience  string                `json:"target_audience,omitempty"`
	DeveloperVision string                `json:"developer_vision,omitempty"`
}

// PersistentContext builds the persistent view. Computed on demand, never
// cached: the documents themselves are immutable after parsing.
func (w *Workflow) PersistentContext() *PersistentContext {
	pc := &PersistentContext{
		Core:            w.Core.Declarations,
		SuccessCriteria: w.SuccessCriteria.Declarations,
	}

	if v, ok := w.Core.Declarations["workflow"]; ok {
		pc.WorkflowName = v.Text()
	}
	if v, ok := w.Core.Declarations["data"]; ok {
		data := v
		pc.Data = &data
	}
	if v, ok := w.SuccessCriteria.Declarations["goal"]; ok {
		pc.Goal = v.Text()
	}
	if v, ok := w.SuccessCriteria.Declarations["success_criteria"]; ok {
		pc.Criteria = criteriaList(v)
	}
	if v, ok := w.SuccessCriteria.Declarations["target_audience"]; ok {
		pc.TargetAudience = v.Text()
	}
	if v, ok := w.SuccessCriteria.Declarations["developer_vision"]; ok {
		pc.DeveloperVision = v.Text()
	}

	return pc
}

// criteriaList extracts success criteria as individual strings. A raw or
// scalar criteria declaration still yields one usable entry.
func criteriaList(v snlp.Value) []string {
	if items := v.StringSlice(); items != nil {
		return items
	}
	if text := strings.TrimSpace(v.Text()); text != "" {
		return []string{text}
	}
	return nil
}

// InjectedContext is the conditionally revealed portion of a workflow.
// Exactly one of the two maps is populated per injection.
type InjectedContext struct {
	Features map[string]snlp.Value `json:"features,omitempty"`
	Styles   map[string]snlp.Value `json:"styles,omitempty"`
}

var implementationCategories = map[string]bool{
	"implement": true, "develop": true, "code": true, "build": true,
}

var presentationCategories = map[string]bool{
	"style": true, "format": true, "design": true, "present": true,
}

// InjectableContext returns the features declarations for
// implementation-like categories and the styles declarations for
// presentation-like ones. It returns nil, not an empty struct, when the
// category matches nothing or the relevant document was not provided:
// callers must be able to distinguish "nothing to inject" from an empty
// injection.
func (w *Workflow) InjectableContext(category string) *InjectedContext {
	switch {
	case implementationCategories[category] && w.Features != nil:
		return &InjectedContext{Features: w.Features.Declarations}
	case presentationCategories[category] && w.Styles != nil:
		return &InjectedContext{Styles: w.Styles.Declarations}
	}
	return nil
}
