// Package bundle implements the generation of transferable bundles: rewritten
// BPMN documents, instantiated forms and a manifest, produced for one manual
// service.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/model"
	"github.com/manualsvc/bundler/store"
)

// File is one named BPMN XML file of a bundle.
type File struct {
	Name string `json:"name"`
	Xml  string `json:"-"`
}

// FormArtifact is a materialized form definition for one BPMN node.
type FormArtifact struct {
	NodeId   string `json:"nodeId"`
	NodeName string `json:"nodeName"`
	FileName string `json:"fileName"`
	FormId   string `json:"formId"`
	Content  string `json:"-"`
}

// Manifest cross-references the files of a bundle with node ids and external
// step keys.
type Manifest struct {
	ServiceKey  string    `json:"serviceKey"`
	ServiceName string    `json:"serviceName"`
	MainFile    string    `json:"mainFile"`
	GeneratedAt time.Time `json:"generatedAt"`

	Subprocesses []ManifestSubprocess `json:"subprocesses"`
	Forms        []FormArtifact       `json:"forms"`
}

type ManifestSubprocess struct {
	FileName string `json:"fileName"`
	StepKey  string `json:"stepKey,omitempty"`
	TaskName string `json:"taskName"`
}

// Bundle is the unit of transfer and export for one service.
type Bundle struct {
	MainFileName string
	MainXml      string
	Subprocesses []File
	Forms        []FormArtifact
	Manifest     Manifest
}

// ManifestJson serializes the manifest as indented JSON.
func (b Bundle) ManifestJson() (string, error) {
	j, err := json.MarshalIndent(b.Manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal manifest: %v", err)
	}
	return string(j), nil
}

// Inputs carries everything a bundle is built from. Build performs no network
// or storage I/O over it.
type Inputs struct {
	Service      store.ServiceProcess
	Subprocesses []store.Subprocess
	Steps        []store.MasterDataStep
	Descriptions []store.StepDescription
	Templates    Templates
}

type Builder struct {
	store     store.Store
	templates *TemplateEngine
	logger    hclog.Logger
	now       func() time.Time
}

func NewBuilder(s store.Store, templateSource TemplateSource, logger hclog.Logger) *Builder {
	return &Builder{
		store:     s,
		templates: NewTemplateEngine(templateSource),
		logger:    logger,
		now:       time.Now,
	}
}

// GenerateBundle fetches the service's data and templates and builds the
// bundle. Template and store fetches are independent, so they are issued
// concurrently. A [store.ErrNotFound] is passed through when the service does
// not exist.
func (b *Builder) GenerateBundle(ctx context.Context, serviceKey string) (Bundle, error) {
	templatesC := make(chan Templates, 1)
	go func() {
		templates, err := b.templates.Load(ctx)
		if err != nil {
			b.logger.Warn("falling back to built-in form templates", "error", err)
			templates = BuiltinTemplates()
		}
		templatesC <- templates
	}()

	service, err := b.store.ServiceByKey(ctx, serviceKey)
	if err != nil {
		return Bundle{}, err
	}

	subprocesses, err := b.store.SubprocessesByService(ctx, serviceKey)
	if err != nil {
		return Bundle{}, err
	}

	steps, err := b.store.StepsByService(ctx, serviceKey)
	if err != nil {
		return Bundle{}, err
	}

	descriptions, err := b.store.DescriptionsByService(ctx, serviceKey)
	if err != nil {
		return Bundle{}, err
	}

	return b.Build(Inputs{
		Service:      service,
		Subprocesses: subprocesses,
		Steps:        steps,
		Descriptions: descriptions,
		Templates:    <-templatesC,
	})
}

// Build produces a complete, internally consistent bundle: the main process
// with rewritten identifiers and injected form bindings, the subprocess
// documents, a form for every form bearing node and the manifest.
//
// Nodes that cannot be bound to an external step key keep their diagram id -
// diagrams are hand-edited, so drift from upstream naming is expected and
// never a hard failure.
func (b *Builder) Build(inputs Inputs) (Bundle, error) {
	service := inputs.Service

	doc, err := b.parseMainDocument(service)
	if err != nil {
		return Bundle{}, err
	}

	if err := doc.RewriteElementId(doc.ProcessId(), MainProcessId(service.Key)); err != nil {
		return Bundle{}, Error{
			Type:   ErrorMalformedInput,
			Title:  "failed to rewrite main process id",
			Detail: err.Error(),
		}
	}

	resolver := NewResolver(service, inputs.Steps, inputs.Descriptions, b.logger)

	var (
		forms     []FormArtifact
		formIndex int
		callKeys  = map[string]string{} // step key -> call activity name
	)

	for _, element := range doc.ElementsOrdered(model.ElementStartEvent, model.ElementUserTask, model.ElementCallActivity) {
		resolution := resolver.Resolve(element)

		nodeId := element.Id
		switch element.Type {
		case model.ElementUserTask:
			if resolution.StepKey != "" {
				nodeId = b.rewriteNode(doc, element, UserTaskId(resolution.StepKey))
			}
		case model.ElementCallActivity:
			if resolution.StepKey != "" {
				nodeId = b.rewriteNode(doc, element, CallActivityId(resolution.StepKey))
				if err := doc.SetCalledElement(nodeId, resolution.StepKey); err != nil {
					b.logger.Warn("failed to set called element", "nodeId", nodeId, "error", err)
				}
				callKeys[resolution.StepKey] = element.Name
			}
		}

		if !element.Type.IsFormBearing() {
			continue
		}

		formIndex++

		displayName := element.Name
		if displayName == "" && element.Type == model.ElementStartEvent {
			displayName = service.Name
		}

		formId := FormId(displayName, formIndex)

		content, err := b.templates.Instantiate(inputs.Templates.ForElement(element.Type), FormContext{
			ServiceName:   service.Name,
			StepName:      displayName,
			Description:   resolution.Description,
			NextTasks:     doc.NextTaskNames(nodeId),
			ReferenceText: FormatReferences(resolution.References),
			FormId:        formId,
		})
		if err != nil {
			return Bundle{}, err
		}

		if err := doc.InjectFormBinding(nodeId, formId); err != nil {
			return Bundle{}, Error{
				Type:   ErrorElementNotFound,
				Title:  "failed to inject form binding",
				Detail: err.Error(),
			}
		}

		forms = append(forms, FormArtifact{
			NodeId:   nodeId,
			NodeName: displayName,
			FileName: FormFileName(displayName, formIndex),
			FormId:   formId,
			Content:  content,
		})
	}

	subprocessFiles, manifestSubprocesses := b.buildSubprocesses(inputs.Subprocesses, callKeys)

	for stepKey, taskName := range callKeys {
		found := false
		for _, manifestSubprocess := range manifestSubprocesses {
			if manifestSubprocess.StepKey == stepKey {
				found = true
				break
			}
		}
		if !found {
			b.logger.Warn("call activity references a subprocess without a document",
				"serviceKey", service.Key,
				"stepKey", stepKey,
				"taskName", taskName,
			)
		}
	}

	mainXml, err := doc.Serialize()
	if err != nil {
		return Bundle{}, err
	}

	bundle := Bundle{
		MainFileName: MainFileName(service.Name),
		MainXml:      mainXml,
		Subprocesses: subprocessFiles,
		Forms:        forms,
		Manifest: Manifest{
			ServiceKey:  service.Key,
			ServiceName: service.Name,
			MainFile:    MainFileName(service.Name),
			GeneratedAt: b.now().UTC(),

			Subprocesses: manifestSubprocesses,
			Forms:        forms,
		},
	}

	return bundle, nil
}

func (b *Builder) parseMainDocument(service store.ServiceProcess) (*model.Document, error) {
	return ParseServiceDocument(service, b.logger)
}

// ParseServiceDocument chooses the authoritative main process XML: the edited
// version when present and not detected as corrupted, else the originally
// generated one. An edited version without a usable payload falls back to the
// original instead of importing corrupted content.
func ParseServiceDocument(service store.ServiceProcess, logger hclog.Logger) (*model.Document, error) {
	var candidates []string
	if xml := strings.TrimSpace(service.EditedXml); xml != "" {
		if model.IsLikelyCorrupted(xml) {
			logger.Warn("edited XML is likely corrupted, falling back to original", "serviceKey", service.Key)
		} else {
			candidates = append(candidates, xml)
		}
	}
	if xml := strings.TrimSpace(service.OriginalXml); xml != "" {
		candidates = append(candidates, xml)
	}

	if len(candidates) == 0 {
		return nil, Error{
			Type:   ErrorNoDiagram,
			Title:  "service has no diagram",
			Detail: fmt.Sprintf("service %s has neither an edited nor an original main process XML", service.Key),
		}
	}

	var parseErr error
	for i, candidate := range candidates {
		doc, err := model.Parse(candidate)
		if err == nil {
			return doc, nil
		}

		parseErr = err
		if i < len(candidates)-1 {
			logger.Warn("failed to parse main process XML, falling back", "serviceKey", service.Key, "error", err)
		}
	}

	return nil, Error{
		Type:   ErrorMalformedInput,
		Title:  "failed to parse main process XML",
		Detail: parseErr.Error(),
	}
}

// rewriteNode rewrites one element id, warning and keeping the original id on
// failure - e.g. when two nodes resolve to the same step key.
func (b *Builder) rewriteNode(doc *model.Document, element model.Element, newId string) string {
	if err := doc.RewriteElementId(element.Id, newId); err != nil {
		b.logger.Warn("failed to rewrite element id",
			"nodeId", element.Id,
			"newId", newId,
			"error", err,
		)
		return element.Id
	}

	return newId
}

// buildSubprocesses serializes every subprocess with a rewritten root process
// id under a sanitized, collision resistant filename. Empty or unparsable
// subprocess documents are skipped, not fatal.
func (b *Builder) buildSubprocesses(subprocesses []store.Subprocess, callKeys map[string]string) ([]File, []ManifestSubprocess) {
	var (
		files                []File
		manifestSubprocesses []ManifestSubprocess
	)

	for _, subprocess := range subprocesses {
		xml := strings.TrimSpace(subprocess.EditedXml)
		if xml == "" || model.IsLikelyCorrupted(xml) {
			xml = strings.TrimSpace(subprocess.OriginalXml)
		}
		if xml == "" {
			b.logger.Warn("subprocess has no XML, skipping",
				"serviceKey", subprocess.ServiceKey,
				"subprocessId", subprocess.Id,
				"name", subprocess.Name,
			)
			continue
		}

		doc, err := model.Parse(xml)
		if err != nil {
			b.logger.Warn("failed to parse subprocess XML, skipping",
				"serviceKey", subprocess.ServiceKey,
				"subprocessId", subprocess.Id,
				"error", err,
			)
			continue
		}

		if subprocess.StepKey != "" {
			if err := doc.RewriteElementId(doc.ProcessId(), model.SubprocessProcessId(subprocess.StepKey)); err != nil {
				b.logger.Warn("failed to rewrite subprocess process id",
					"subprocessId", subprocess.Id,
					"stepKey", subprocess.StepKey,
					"error", err,
				)
			}
		}

		serialized, err := doc.Serialize()
		if err != nil {
			b.logger.Warn("failed to serialize subprocess XML, skipping", "subprocessId", subprocess.Id, "error", err)
			continue
		}

		taskName := callKeys[subprocess.StepKey]
		if taskName == "" {
			taskName = subprocess.Name
		}

		fileName := SubprocessFileName(subprocess.Name, subprocess.Id)

		files = append(files, File{Name: fileName, Xml: serialized})
		manifestSubprocesses = append(manifestSubprocesses, ManifestSubprocess{
			FileName: fileName,
			StepKey:  subprocess.StepKey,
			TaskName: taskName,
		})
	}

	return files, manifestSubprocesses
}
