package bundle

import (
	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/model"
	"github.com/manualsvc/bundler/store"
)

// Resolution is the outcome of resolving one BPMN node.
type Resolution struct {
	StepKey     string // External step key, empty when the node could not be matched.
	Description string
	References  []ReferenceEntry
}

// Resolver produces a step or service level description and a set of
// reference entries for one BPMN node. Descriptions live in more than one
// place, depending on how a service was authored, so resolution walks a
// fallback chain over the master data steps and the hand-edited description
// rows of the service.
type Resolver struct {
	service store.ServiceProcess
	logger  hclog.Logger

	stepsByName  map[string]store.MasterDataStep // normalized step name
	stepsByKey   map[string]store.MasterDataStep
	descriptions map[string]string // node id, "" addresses the service level description
	allRefs      []ReferenceEntry
}

func NewResolver(
	service store.ServiceProcess,
	steps []store.MasterDataStep,
	descriptions []store.StepDescription,
	logger hclog.Logger,
) *Resolver {
	r := Resolver{
		service: service,
		logger:  logger,

		stepsByName:  make(map[string]store.MasterDataStep, len(steps)),
		stepsByKey:   make(map[string]store.MasterDataStep, len(steps)),
		descriptions: make(map[string]string, len(descriptions)),
	}

	for _, step := range steps {
		r.stepsByName[NormalizeName(step.StepName)] = step
		r.stepsByKey[step.StepKey] = step
		r.allRefs = append(r.allRefs, ParseReferences(step)...)
	}
	r.allRefs = DedupeReferences(r.allRefs)

	for _, description := range descriptions {
		r.descriptions[description.NodeId] = description.Description
	}

	return &r
}

// Resolve determines the external step key, description and references of a
// BPMN node.
//
// A start event resolves the service level description - never a step level
// one. A call activity derives its step key from the called element
// reference, a user task by matching its display name against the master data
// steps of the service. A node without a node specific description stays
// blank; a node without node specific references falls back to the full
// deduplicated reference set of the service.
func (r *Resolver) Resolve(element model.Element) Resolution {
	var resolution Resolution

	switch element.Type {
	case model.ElementStartEvent:
		resolution.Description = r.descriptions[""]
	case model.ElementCallActivity:
		if stepKey, ok := model.ParseSubprocessKey(element.CalledElement); ok {
			resolution.StepKey = stepKey
		} else {
			r.logger.Warn("call activity has no subprocess reference",
				"serviceKey", r.service.Key,
				"nodeId", element.Id,
				"calledElement", element.CalledElement,
			)
		}
	case model.ElementUserTask:
		if step, ok := r.stepsByName[NormalizeName(element.Name)]; ok {
			resolution.StepKey = step.StepKey
		} else {
			r.logger.Warn("user task matches no master data step",
				"serviceKey", r.service.Key,
				"nodeId", element.Id,
				"nodeName", element.Name,
			)
		}
	}

	if element.Type != model.ElementStartEvent {
		step, stepOk := r.stepsByKey[resolution.StepKey]
		stepOk = stepOk && resolution.StepKey != ""

		if description, ok := r.descriptions[element.Id]; ok && element.Id != "" {
			resolution.Description = description
		} else if stepOk {
			resolution.Description = step.Description
		}

		if stepOk {
			resolution.References = ParseReferences(step)
		}
	}

	resolution.Description = ClampDescription(resolution.Description)

	if len(resolution.References) == 0 {
		resolution.References = r.allRefs
	}

	return resolution
}
