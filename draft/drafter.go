package draft

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/model"
	"github.com/manualsvc/bundler/store"
)

func NewDrafter(s store.Store, generator Generator, logger hclog.Logger) (*Drafter, error) {
	if s == nil {
		return nil, errors.New("store is nil")
	}
	if generator == nil {
		return nil, errors.New("generator is nil")
	}

	return &Drafter{
		store:     s,
		generator: generator,
		logger:    logger.Named("draft"),
	}, nil
}

// Drafter proposes step descriptions and persists them as hand-editable
// description rows. An empty node id addresses the service level description.
type Drafter struct {
	store     store.Store
	generator Generator
	logger    hclog.Logger
}

func (d *Drafter) Draft(ctx context.Context, serviceKey string, nodeId string) (store.StepDescription, error) {
	service, err := d.store.ServiceByKey(ctx, serviceKey)
	if err != nil {
		return store.StepDescription{}, err
	}

	doc, err := bundle.ParseServiceDocument(service, d.logger)
	if err != nil {
		return store.StepDescription{}, err
	}

	prompt, err := d.buildPrompt(service, doc, nodeId)
	if err != nil {
		return store.StepDescription{}, err
	}

	text, err := d.generator.Generate(ctx, instruction, prompt)
	if err != nil {
		return store.StepDescription{}, err
	}

	description := store.StepDescription{
		ServiceKey:  serviceKey,
		NodeId:      nodeId,
		Description: bundle.ClampDescription(text),
	}

	if description.Description == "" {
		return store.StepDescription{}, errors.New("model returned an empty description")
	}

	if err := d.store.UpsertDescription(ctx, description); err != nil {
		return store.StepDescription{}, err
	}

	d.logger.Info("description drafted", "service_key", serviceKey, "node_id", nodeId)

	return description, nil
}

// buildPrompt assembles the model context from the diagram: the service, the
// addressed node and its direct successors.
func (d *Drafter) buildPrompt(service store.ServiceProcess, doc *model.Document, nodeId string) (string, error) {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Service: %s (%s)\n", service.Name, service.Key)
	if service.Owner != "" {
		fmt.Fprintf(&sb, "Owner: %s\n", service.Owner)
	}

	if nodeId == "" {
		sb.WriteString("Describe the service as a whole. Its work steps are:\n")
		for _, element := range doc.ElementsOrdered(model.ElementUserTask, model.ElementCallActivity) {
			if element.Name != "" {
				fmt.Fprintf(&sb, "- %s\n", element.Name)
			}
		}
		return sb.String(), nil
	}

	element, ok := doc.ElementById(nodeId)
	if !ok {
		return "", bundle.Error{
			Type:   bundle.ErrorElementNotFound,
			Title:  "element not found",
			Detail: fmt.Sprintf("diagram of service %s contains no element %s", service.Key, nodeId),
		}
	}

	fmt.Fprintf(&sb, "Describe the work step: %s\n", element.Name)

	if nextTasks := doc.NextTaskNames(nodeId); len(nextTasks) != 0 {
		fmt.Fprintf(&sb, "Steps that follow: %s\n", strings.Join(nextTasks, ", "))
	}

	return sb.String(), nil
}
