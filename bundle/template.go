package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/manualsvc/bundler/blobstore"
	"github.com/manualsvc/bundler/model"
)

// Template skeletons are stored as blobs, one per form bearing element type.
const (
	StartTemplatePath = "templates/start-form.json"
	TaskTemplatePath  = "templates/task-form.json"
)

const (
	placeholderServiceName = "{{SERVICE_NAME}}"
	placeholderStepName    = "{{STEP_NAME}}"
	placeholderDescription = "{{STEP_DESCRIPTION}}"
	placeholderNextTasks   = "{{NEXT_TASKS}}"
	placeholderReferences  = "{{REFERENCES}}"
)

var placeholderPattern = regexp.MustCompile(`\{\{[A-Z0-9_]+\}\}`)

// TemplateSource provides template skeletons by path, typically a blob store.
type TemplateSource interface {
	Get(ctx context.Context, path string) ([]byte, error)
}

// NewBlobTemplateSource adapts a blob store into a template source.
func NewBlobTemplateSource(blobs blobstore.Store) TemplateSource {
	return blobTemplateSource{blobs: blobs}
}

type blobTemplateSource struct {
	blobs blobstore.Store
}

func (s blobTemplateSource) Get(ctx context.Context, path string) ([]byte, error) {
	return s.blobs.Get(ctx, path)
}

type Templates struct {
	Start string
	Task  string
}

func (t Templates) ForElement(elementType model.ElementType) string {
	if elementType == model.ElementStartEvent {
		return t.Start
	}
	return t.Task
}

// FormContext carries the resolved values substituted into a template.
type FormContext struct {
	ServiceName   string
	StepName      string
	Description   string
	NextTasks     []string
	ReferenceText string
	FormId        string
}

type TemplateEngine struct {
	source TemplateSource
}

func NewTemplateEngine(source TemplateSource) *TemplateEngine {
	return &TemplateEngine{source: source}
}

// Load fetches the start and task template skeletons. The fetches are
// independent and issued concurrently. If either template is missing or
// empty, an ErrorTemplatesUnavailable error is returned - callers degrade to
// the built-in templates instead of aborting.
func (e *TemplateEngine) Load(ctx context.Context) (Templates, error) {
	type result struct {
		path string
		text string
		err  error
	}

	results := make(chan result, 2)
	for _, path := range []string{StartTemplatePath, TaskTemplatePath} {
		go func(path string) {
			b, err := e.source.Get(ctx, path)
			results <- result{path: path, text: string(b), err: err}
		}(path)
	}

	var templates Templates
	var loadErr error
	for i := 0; i < 2; i++ {
		r := <-results

		if r.err == nil && strings.TrimSpace(r.text) == "" {
			r.err = fmt.Errorf("template %s is empty", r.path)
		}
		if r.err != nil {
			loadErr = r.err
			continue
		}

		switch r.path {
		case StartTemplatePath:
			templates.Start = r.text
		case TaskTemplatePath:
			templates.Task = r.text
		}
	}

	if loadErr != nil {
		return Templates{}, Error{
			Type:   ErrorTemplatesUnavailable,
			Title:  "failed to load form templates",
			Detail: loadErr.Error(),
		}
	}

	return templates, nil
}

// Instantiate substitutes the context into a template skeleton.
//
// Substitution is textual placeholder replacement over the serialized
// template, since templates are opaque third-party JSON shapes - only the
// presence of the named placeholder tokens is assumed. The result is parsed
// to confirm valid JSON, and the form id field is set explicitly: it is
// deterministic and caller supplied, not part of the template.
func (e *TemplateEngine) Instantiate(template string, formContext FormContext) (string, error) {
	replacer := strings.NewReplacer(
		placeholderServiceName, jsonEscape(formContext.ServiceName),
		placeholderStepName, jsonEscape(formContext.StepName),
		placeholderDescription, jsonEscape(formContext.Description),
		placeholderNextTasks, jsonEscape(strings.Join(formContext.NextTasks, ", ")),
		placeholderReferences, jsonEscape(formContext.ReferenceText),
	)

	s := replacer.Replace(template)

	var form map[string]any
	if err := json.Unmarshal([]byte(s), &form); err != nil {
		return "", Error{
			Type:   ErrorInvalidTemplateOutput,
			Title:  "template output is no valid JSON object",
			Detail: err.Error(),
		}
	}

	if token := placeholderPattern.FindString(s); token != "" {
		return "", Error{
			Type:   ErrorInvalidTemplateOutput,
			Title:  "template output contains an unresolved placeholder",
			Detail: fmt.Sprintf("token %s is not supported", token),
		}
	}

	form["id"] = formContext.FormId

	b, err := json.MarshalIndent(form, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal form: %v", err)
	}
	return string(b), nil
}

// jsonEscape escapes a value for embedding into a JSON string literal.
func jsonEscape(s string) string {
	b, _ := json.Marshal(s)
	return string(b[1 : len(b)-1])
}

// BuiltinTemplates returns minimal form skeletons carrying service name, step
// name, description, references and a notes field. They keep bundle delivery
// working when the configured templates are unavailable.
func BuiltinTemplates() Templates {
	return Templates{
		Start: `{
  "type": "default",
  "id": "Form_builtin_start",
  "schemaVersion": 18,
  "components": [
    { "type": "text", "text": "# {{SERVICE_NAME}}", "id": "Field_heading" },
    { "type": "text", "text": "{{STEP_DESCRIPTION}}", "id": "Field_description" },
    { "type": "text", "text": "{{REFERENCES}}", "id": "Field_references" },
    { "type": "text", "text": "**Next steps:** {{NEXT_TASKS}}", "id": "Field_next" },
    { "type": "textarea", "key": "notes", "label": "Notes", "id": "Field_notes" }
  ]
}`,
		Task: `{
  "type": "default",
  "id": "Form_builtin_task",
  "schemaVersion": 18,
  "components": [
    { "type": "text", "text": "# {{SERVICE_NAME}}", "id": "Field_heading" },
    { "type": "text", "text": "## {{STEP_NAME}}", "id": "Field_step" },
    { "type": "text", "text": "{{STEP_DESCRIPTION}}", "id": "Field_description" },
    { "type": "text", "text": "{{REFERENCES}}", "id": "Field_references" },
    { "type": "text", "text": "**Next steps:** {{NEXT_TASKS}}", "id": "Field_next" },
    { "type": "textarea", "key": "notes", "label": "Notes", "id": "Field_notes" }
  ]
}`,
	}
}
