package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const taskWithBindingBpmnXml = `<?xml version="1.0" encoding="UTF-8"?>
<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" xmlns:zb="http://camunda.org/schema/zeebe/1.0" id="Definitions_1" targetNamespace="http://bpmn.io/schema/bpmn">
  <bpmn:process id="Process_1" isExecutable="true">
    <bpmn:userTask id="Activity_1" name="Do work">
      <bpmn:extensionElements>
        <zb:formDefinition formId="Form_old" bindingType="deployment"/>
      </bpmn:extensionElements>
    </bpmn:userTask>
  </bpmn:process>
</bpmn:definitions>`

func TestParse(t *testing.T) {
	assert := assert.New(t)

	// when
	document := mustParse(t, "service.bpmn")

	// then
	assert.Equal("Process_1", document.ProcessId())
	assert.Equal("Device Onboarding", document.ProcessName())
}

func TestParseInvalidXml(t *testing.T) {
	assert := assert.New(t)

	invalidXml := []string{
		"",
		"   \n ",
		"plain text",
		"<bpmn:definitions",
		`<?xml version="1.0"?>`,
	}

	for _, bpmnXml := range invalidXml {
		// when
		_, err := Parse(bpmnXml)

		// then
		assert.Errorf(err, "expected parse of %q to fail", bpmnXml)
	}
}

func TestParseNoProcess(t *testing.T) {
	assert := assert.New(t)

	// when
	_, err := Parse(`<bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL" id="Definitions_1"/>`)

	// then
	assert.Error(err)
	assert.NotErrorIs(err, ErrNoPayload)
}

func TestParseWrapped(t *testing.T) {
	assert := assert.New(t)

	// when
	document := mustParse(t, "wrapped.bpmn")

	// then
	assert.Equal("Process_1", document.ProcessId())

	s, err := document.Serialize()
	assert.Nil(err)
	assert.True(strings.HasPrefix(s, "<?xml"))
	assert.NotContains(s, "djs-container")
	assert.Contains(s, `<bpmn:userTask id="Activity_Register" name="Register device">`)
}

func TestParseWrappedWithoutPayload(t *testing.T) {
	assert := assert.New(t)

	wrapped := []string{
		`<div class="djs-container"><svg width="100%" height="100%"/></div>`,
		`<foo><bar/></foo>`,
		`<div><bpmn:definitions xmlns:bpmn="http://www.omg.org/spec/BPMN/20100524/MODEL"/></div>`,
	}

	for _, bpmnXml := range wrapped {
		// when
		_, err := Parse(bpmnXml)

		// then
		assert.ErrorIs(err, ErrNoPayload)
	}
}

func TestElementsOrdered(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	elements := document.ElementsOrdered(ElementStartEvent, ElementUserTask)

	// then
	assert.Len(elements, 3)
	assert.Equal("StartEvent_1", elements[0].Id)
	assert.Equal(ElementStartEvent, elements[0].Type)
	assert.Equal("Activity_Register", elements[1].Id)
	assert.Equal(ElementUserTask, elements[1].Type)
	assert.Equal("Activity_Approve", elements[2].Id)
}

func TestElementById(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	element, ok := document.ElementById("Activity_Check")

	// then
	assert.True(ok)
	assert.Equal("Compliance check", element.Name)
	assert.Equal(ElementCallActivity, element.Type)
	assert.Equal("Process_Sub_CHK-100", element.CalledElement)

	_, ok = document.ElementById("Activity_Unknown")
	assert.False(ok)
}

func TestSerializeRoundTrip(t *testing.T) {
	assert := assert.New(t)

	bpmnXml := mustReadBpmn(t, "service.bpmn")

	document, err := Parse(bpmnXml)
	assert.Nil(err)

	// when
	s, err := document.Serialize()

	// then
	assert.Nil(err)
	assert.Equal(bpmnXml, s)
}

func TestRewriteElementId(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.RewriteElementId("Activity_Register", "Task_REG-140")

	// then
	assert.Nil(err)

	element, ok := document.ElementById("Task_REG-140")
	assert.True(ok)
	assert.Equal("Register device", element.Name)

	s, err := document.Serialize()
	assert.Nil(err)
	assert.Contains(s, `<bpmn:userTask id="Task_REG-140" name="Register device">`)
	assert.Contains(s, `sourceRef="Task_REG-140"`)
	assert.Contains(s, `targetRef="Task_REG-140"`)
	assert.Contains(s, `bpmnElement="Task_REG-140"`)
	assert.NotContains(s, `"Activity_Register"`)
}

func TestRewriteElementIdProcess(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.RewriteElementId("Process_1", "Process_SVC-001")

	// then
	assert.Nil(err)
	assert.Equal("Process_SVC-001", document.ProcessId())

	s, err := document.Serialize()
	assert.Nil(err)
	assert.Contains(s, `<bpmn:process id="Process_SVC-001" name="Device Onboarding" isExecutable="true">`)
	assert.Contains(s, `<bpmndi:BPMNPlane id="BPMNPlane_1" bpmnElement="Process_SVC-001">`)
}

func TestRewriteElementIdNotFound(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.RewriteElementId("Activity_Unknown", "Task_X")

	// then
	var elementNotFoundError ElementNotFoundError
	assert.ErrorAs(err, &elementNotFoundError)
	assert.Equal("Activity_Unknown", elementNotFoundError.Id)
}

func TestRewriteElementIdConflict(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when id is already in use
	err := document.RewriteElementId("StartEvent_1", "Activity_Approve")

	// then
	assert.Error(err)

	// when id is unchanged
	err = document.RewriteElementId("StartEvent_1", "StartEvent_1")

	// then
	assert.Nil(err)
}

func TestSetCalledElement(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.SetCalledElement("Activity_Check", "CHK-200")

	// then
	assert.Nil(err)

	s, err := document.Serialize()
	assert.Nil(err)
	assert.Contains(s, `calledElement="Process_Sub_CHK-200"`)

	// when element is no call activity
	err = document.SetCalledElement("Activity_Register", "CHK-200")

	// then
	assert.Error(err)

	// when element does not exist
	err = document.SetCalledElement("Activity_Unknown", "CHK-200")

	// then
	var elementNotFoundError ElementNotFoundError
	assert.ErrorAs(err, &elementNotFoundError)
}

func TestInjectFormBinding(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.InjectFormBinding("Activity_Register", "Form_register-device_02")

	// then
	assert.Nil(err)

	s, err := document.Serialize()
	assert.Nil(err)
	assert.Contains(s, `xmlns:zeebe="http://camunda.org/schema/zeebe/1.0"`)
	assert.Contains(s, `<zeebe:formDefinition formId="Form_register-device_02" bindingType="deployment"/>`)

	// extension elements are inserted before incoming and outgoing elements
	extensionElementsAt := strings.Index(s, "<bpmn:extensionElements>")
	incomingAt := strings.Index(s, "<bpmn:incoming>Flow_1</bpmn:incoming>")
	assert.NotEqual(-1, extensionElementsAt)
	assert.Less(extensionElementsAt, incomingAt)
}

func TestInjectFormBindingReplacesExisting(t *testing.T) {
	assert := assert.New(t)

	document, err := Parse(taskWithBindingBpmnXml)
	assert.Nil(err)

	// when
	err = document.InjectFormBinding("Activity_1", "Form_new")

	// then
	assert.Nil(err)

	s, err := document.Serialize()
	assert.Nil(err)
	assert.NotContains(s, "Form_old")
	assert.NotContains(s, "xmlns:zeebe")

	// the declared prefix is reused and the binding is not duplicated
	assert.Contains(s, `<zb:formDefinition formId="Form_new" bindingType="deployment"/>`)
	assert.Equal(1, strings.Count(s, "formDefinition"))
}

func TestInjectFormBindingIdempotence(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when injected twice
	assert.Nil(document.InjectFormBinding("StartEvent_1", "Form_start_01"))
	assert.Nil(document.InjectFormBinding("StartEvent_1", "Form_start_01"))

	// then
	s, err := document.Serialize()
	assert.Nil(err)
	assert.Equal(1, strings.Count(s, `formId="Form_start_01"`))
	assert.Equal(1, strings.Count(s, "xmlns:zeebe"))
}

func TestInjectFormBindingNotFormBearing(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// when
	err := document.InjectFormBinding("Gateway_Decision", "Form_x")

	// then
	assert.Error(err)

	// when
	err = document.InjectFormBinding("Activity_Check", "Form_x")

	// then
	assert.Error(err)
}

func TestNextTaskNames(t *testing.T) {
	assert := assert.New(t)

	document := mustParse(t, "service.bpmn")

	// then
	assert.Equal([]string{"Register device"}, document.NextTaskNames("StartEvent_1"))

	// gateways are traversed transparently
	assert.Equal([]string{"Approve request", "Compliance check"}, document.NextTaskNames("Activity_Register"))

	// named end events are included
	assert.Equal([]string{"Device enrolled"}, document.NextTaskNames("Activity_Approve"))

	assert.Empty(document.NextTaskNames("EndEvent_1"))
}
