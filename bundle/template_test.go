package bundle

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadTemplates(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(fileTemplateSource{})

	// when
	templates, err := engine.Load(context.Background())

	// then
	assert.Nil(err)
	assert.Contains(templates.Start, "{{SERVICE_NAME}}")
	assert.Contains(templates.Task, "{{STEP_NAME}}")
}

func TestLoadTemplatesUnavailable(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(mapTemplateSource{
		StartTemplatePath: `{"components": []}`,
	})

	// when the task template is missing
	_, err := engine.Load(context.Background())

	// then
	var bundleErr Error
	assert.ErrorAs(err, &bundleErr)
	assert.Equal(ErrorTemplatesUnavailable, bundleErr.Type)
}

func TestLoadTemplatesEmpty(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(mapTemplateSource{
		StartTemplatePath: "  \n ",
		TaskTemplatePath:  `{"components": []}`,
	})

	// when
	_, err := engine.Load(context.Background())

	// then an empty template counts as unavailable
	var bundleErr Error
	assert.ErrorAs(err, &bundleErr)
	assert.Equal(ErrorTemplatesUnavailable, bundleErr.Type)
}

func TestInstantiate(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(nil)
	template := mustReadFile(t, TaskTemplatePath)

	// when
	content, err := engine.Instantiate(template, FormContext{
		ServiceName:   "Device Onboarding",
		StepName:      "Register device",
		Description:   `Fill in the "device" record.`,
		NextTasks:     []string{"Approve request", "Compliance check"},
		ReferenceText: "- [Handbook](https://docs.example.com/a)",
		FormId:        "Form_register-device_02",
	})

	// then
	assert.Nil(err)
	assert.NotContains(content, "{{")

	var form map[string]any
	assert.Nil(json.Unmarshal([]byte(content), &form))
	assert.Equal("Form_register-device_02", form["id"])

	assert.Contains(content, "Register device")
	assert.Contains(content, "Approve request, Compliance check")
	// values are escaped for JSON string embedding
	assert.Contains(content, `\"device\"`)
}

func TestInstantiateInvalidOutput(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(nil)

	// when the substituted text is no JSON object
	_, err := engine.Instantiate(`[1, 2, 3]`, FormContext{FormId: "Form_x"})

	// then
	var bundleErr Error
	assert.ErrorAs(err, &bundleErr)
	assert.Equal(ErrorInvalidTemplateOutput, bundleErr.Type)
}

func TestInstantiateUnresolvedPlaceholder(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(nil)

	// when the template carries an unsupported token
	_, err := engine.Instantiate(`{"text": "{{UNSUPPORTED_TOKEN}}"}`, FormContext{FormId: "Form_x"})

	// then an unresolved token is a defect, not a valid end state
	var bundleErr Error
	assert.ErrorAs(err, &bundleErr)
	assert.Equal(ErrorInvalidTemplateOutput, bundleErr.Type)
	assert.Contains(bundleErr.Detail, "UNSUPPORTED_TOKEN")
}

func TestBuiltinTemplates(t *testing.T) {
	assert := assert.New(t)

	engine := NewTemplateEngine(nil)
	templates := BuiltinTemplates()

	for _, template := range []string{templates.Start, templates.Task} {
		// when
		content, err := engine.Instantiate(template, FormContext{
			ServiceName: "Device Onboarding",
			StepName:    "Register device",
			FormId:      "Form_x_01",
		})

		// then the built-in skeletons instantiate without any context richness
		assert.Nil(err)
		assert.False(strings.Contains(content, "{{"))
	}
}
