// Package model provides parsing, querying and mutation of BPMN 2.0 XML
// documents. Mutations are structural and local, leaving the formatting of
// unrelated regions untouched, so that hand-edited diagrams survive a
// parse-mutate-serialize round trip.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

const (
	zeebeNamespaceUri = "http://camunda.org/schema/zeebe/1.0"

	// subprocessProcessIdPrefix binds a call activity to the root process id
	// of its subprocess document at deploy time.
	subprocessProcessIdPrefix = "Process_Sub_"
)

// ErrNoPayload indicates that a document contains no BPMN definitions -
// callers must treat the document as absent and fall back to another source.
var ErrNoPayload = errors.New("document contains no BPMN payload")

type ElementNotFoundError struct {
	Id string
}

func (e ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %s not found", e.Id)
}

// SubprocessProcessId returns the root process id of a subprocess document,
// derived from the subprocess's external step key.
func SubprocessProcessId(stepKey string) string {
	return subprocessProcessIdPrefix + stepKey
}

// ParseSubprocessKey extracts the external step key from a call activity's
// called element reference.
func ParseSubprocessKey(calledElement string) (string, bool) {
	key, ok := strings.CutPrefix(calledElement, subprocessProcessIdPrefix)
	if !ok || key == "" {
		return "", false
	}
	return key, true
}

// Element is a read view on one BPMN flow element.
type Element struct {
	Id            string
	Name          string
	Type          ElementType
	CalledElement string
}

// Document is a parsed BPMN 2.0 document.
//
// A document is created from stored XML, mutated in place during bundle
// generation and discarded afterwards - only its serialized XML is persisted.
type Document struct {
	doc         *etree.Document
	definitions *etree.Element
	process     *etree.Element
}

// Parse reads a BPMN 2.0 document.
//
// A known corruption mode is recovered: payload wrapped in foreign markup
// tags is unwrapped by structurally matching the inner definitions element.
// If no payload is found inside the wrapper, ErrNoPayload is returned.
func Parse(bpmnXml string) (*Document, error) {
	if strings.TrimSpace(bpmnXml) == "" {
		return nil, fmt.Errorf("BPMN XML is empty")
	}

	doc := etree.NewDocument()
	if err := doc.ReadFromString(bpmnXml); err != nil {
		return nil, fmt.Errorf("failed to parse BPMN XML: %v", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("BPMN XML has no root element")
	}

	definitions := root
	if root.Tag != "definitions" {
		definitions = findWrappedDefinitions(root)
		if definitions == nil {
			return nil, ErrNoPayload
		}

		definitions.Parent().RemoveChild(definitions)

		unwrapped := etree.NewDocument()
		unwrapped.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)
		unwrapped.AddChild(definitions)
		doc = unwrapped
	}

	process := definitions.SelectElement("process")
	if process == nil {
		return nil, fmt.Errorf("definitions element has no process")
	}

	return &Document{doc: doc, definitions: definitions, process: process}, nil
}

// findWrappedDefinitions looks for a definitions element that contains at
// least one process, somewhere below the foreign root.
func findWrappedDefinitions(el *etree.Element) *etree.Element {
	for _, child := range el.ChildElements() {
		if child.Tag == "definitions" && child.SelectElement("process") != nil {
			return child
		}
		if found := findWrappedDefinitions(child); found != nil {
			return found
		}
	}
	return nil
}

func (d *Document) ProcessId() string {
	return d.process.SelectAttrValue("id", "")
}

func (d *Document) ProcessName() string {
	return d.process.SelectAttrValue("name", "")
}

// ElementById finds a flow element, or the process itself, by id.
func (d *Document) ElementById(id string) (Element, bool) {
	el := d.findById(id)
	if el == nil {
		return Element{}, false
	}
	return newElement(el), true
}

// ElementsOrdered returns all flow elements of the requested types: types in
// the given order, elements in document order within each type. This fixed
// ordering drives deterministic form and file naming.
func (d *Document) ElementsOrdered(types ...ElementType) []Element {
	var elements []Element
	for _, elementType := range types {
		for _, el := range d.flowElements(elementType) {
			elements = append(elements, newElement(el))
		}
	}
	return elements
}

func (d *Document) flowElements(elementType ElementType) []*etree.Element {
	var elements []*etree.Element

	var walk func(container *etree.Element)
	walk = func(container *etree.Element) {
		for _, child := range container.ChildElements() {
			if mapElementTag(child.Tag) == elementType {
				elements = append(elements, child)
			}
			if child.Tag == "subProcess" {
				walk(child)
			}
		}
	}
	walk(d.process)

	return elements
}

// RewriteElementId changes one element's id in place and keeps every
// reference to it (sequence flows, diagram shapes, data associations)
// consistent. Rewriting to the current id is a no-op.
func (d *Document) RewriteElementId(elementId string, newId string) error {
	if newId == "" {
		return fmt.Errorf("new element id is empty")
	}

	el := d.findById(elementId)
	if el == nil {
		return ElementNotFoundError{Id: elementId}
	}
	if elementId == newId {
		return nil
	}
	if other := d.findById(newId); other != nil {
		return fmt.Errorf("element id %s is already in use", newId)
	}

	el.CreateAttr("id", newId)
	d.rewriteReferences(elementId, newId)
	return nil
}

func (d *Document) rewriteReferences(oldId string, newId string) {
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for i := range el.Attr {
			attr := &el.Attr[i]
			if attr.Space != "" {
				continue
			}
			switch attr.Key {
			case "sourceRef", "targetRef", "attachedToRef", "bpmnElement", "calledElement", "processRef":
				if attr.Value == oldId {
					attr.Value = newId
				}
			}
		}

		switch el.Tag {
		case "sourceRef", "targetRef", "incoming", "outgoing":
			if strings.TrimSpace(el.Text()) == oldId {
				el.SetText(newId)
			}
		}

		for _, child := range el.ChildElements() {
			walk(child)
		}
	}
	walk(d.definitions)
}

// SetCalledElement points a call activity at the subprocess keyed by the
// given external step key.
func (d *Document) SetCalledElement(callActivityId string, subprocessKey string) error {
	el := d.findById(callActivityId)
	if el == nil {
		return ElementNotFoundError{Id: callActivityId}
	}
	if mapElementTag(el.Tag) != ElementCallActivity {
		return fmt.Errorf("element %s is not a call activity", callActivityId)
	}

	el.CreateAttr("calledElement", SubprocessProcessId(subprocessKey))
	return nil
}

// InjectFormBinding ensures the element has exactly one form binding with the
// given form id and the "deployment" binding type. A pre-existing binding is
// replaced, so repeated generation never stacks bindings.
func (d *Document) InjectFormBinding(elementId string, formId string) error {
	el := d.findById(elementId)
	if el == nil {
		return ElementNotFoundError{Id: elementId}
	}
	if !mapElementTag(el.Tag).IsFormBearing() {
		return fmt.Errorf("element %s cannot carry a form binding", elementId)
	}

	extensionElements := el.SelectElement("extensionElements")
	if extensionElements == nil {
		tag := "extensionElements"
		if el.Space != "" {
			tag = el.Space + ":" + tag
		}

		// extension elements must precede incoming and outgoing elements
		insertAt := len(el.Child)
		for i, child := range el.Child {
			if _, ok := child.(*etree.Element); ok {
				insertAt = i
				break
			}
		}

		extensionElements = etree.NewElement(tag)
		el.InsertChildAt(insertAt, extensionElements)
	}

	for _, child := range extensionElements.ChildElements() {
		if child.Tag == "formDefinition" {
			extensionElements.RemoveChild(child)
		}
	}

	tag := "formDefinition"
	if prefix := d.ensureZeebeNamespace(); prefix != "" {
		tag = prefix + ":" + tag
	}

	formDefinition := extensionElements.CreateElement(tag)
	formDefinition.CreateAttr("formId", formId)
	formDefinition.CreateAttr("bindingType", "deployment")
	return nil
}

// ensureZeebeNamespace returns the prefix the zeebe namespace is declared
// under, declaring it on the definitions element first if needed.
func (d *Document) ensureZeebeNamespace() string {
	for _, attr := range d.definitions.Attr {
		if attr.Space == "xmlns" && attr.Value == zeebeNamespaceUri {
			return attr.Key
		}
		if attr.Space == "" && attr.Key == "xmlns" && attr.Value == zeebeNamespaceUri {
			return ""
		}
	}

	d.definitions.CreateAttr("xmlns:zeebe", zeebeNamespaceUri)
	return "zeebe"
}

// NextTaskNames returns the display names of the flow nodes directly
// following an element, traversing through gateways, so that a form can list
// the steps coming next. Unnamed tasks fall back to their id; unnamed events
// are skipped.
func (d *Document) NextTaskNames(elementId string) []string {
	outgoing := map[string][]string{}
	for _, flow := range d.flowElements(ElementSequenceFlow) {
		source := flow.SelectAttrValue("sourceRef", "")
		target := flow.SelectAttrValue("targetRef", "")
		if source == "" || target == "" {
			continue
		}
		outgoing[source] = append(outgoing[source], target)
	}

	var names []string
	visited := map[string]struct{}{elementId: {}}

	var follow func(id string)
	follow = func(id string) {
		for _, targetId := range outgoing[id] {
			if _, ok := visited[targetId]; ok {
				continue
			}
			visited[targetId] = struct{}{}

			target := d.findById(targetId)
			if target == nil {
				continue
			}

			targetType := mapElementTag(target.Tag)
			if targetType.IsGateway() {
				follow(targetId)
				continue
			}

			name := target.SelectAttrValue("name", "")
			switch {
			case name != "":
				names = append(names, name)
			case targetType == ElementUserTask || targetType == ElementServiceTask || targetType == ElementCallActivity:
				names = append(names, targetId)
			}
		}
	}
	follow(elementId)

	return names
}

// Serialize emits the document as XML, preserving its original namespace
// prefixes and the formatting of unmodified regions.
func (d *Document) Serialize() (string, error) {
	s, err := d.doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("failed to serialize BPMN XML: %v", err)
	}
	return s, nil
}

func (d *Document) findById(id string) *etree.Element {
	if id == "" {
		return nil
	}
	if d.process.SelectAttrValue("id", "") == id {
		return d.process
	}

	var found *etree.Element
	var walk func(el *etree.Element)
	walk = func(el *etree.Element) {
		for _, child := range el.ChildElements() {
			if found != nil {
				return
			}
			if child.SelectAttrValue("id", "") == id {
				found = child
				return
			}
			walk(child)
		}
	}
	walk(d.process)
	return found
}

func newElement(el *etree.Element) Element {
	return Element{
		Id:            el.SelectAttrValue("id", ""),
		Name:          el.SelectAttrValue("name", ""),
		Type:          mapElementTag(el.Tag),
		CalledElement: el.SelectAttrValue("calledElement", ""),
	}
}
