package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiagramShow(t *testing.T) {
	assert := assert.New(t)

	c := fakeClient{}

	output := mustExecute(t, &c, []string{
		"diagram",
		"show",
		"--service-key",
		"SVC-001",
	})

	assert.Equal("<bpmn:definitions/>", output)
}

func TestDiagramSave(t *testing.T) {
	assert := assert.New(t)

	c := fakeClient{}

	bpmnFileName := filepath.Join(t.TempDir(), "edited.bpmn")
	if err := os.WriteFile(bpmnFileName, []byte("<bpmn:definitions/>"), 0o644); err != nil {
		t.Fatalf("failed to write BPMN file: %v", err)
	}

	mustExecute(t, &c, []string{
		"diagram",
		"save",
		"--service-key",
		"SVC-001",
		"--bpmn-file",
		bpmnFileName,
		"--origin",
		"editor-a",
	})

	if assert.Len(c.savedDiagrams, 1) {
		assert.Equal("<bpmn:definitions/>", c.savedDiagrams[0].EditedXml)
		assert.Equal("editor-a", c.savedDiagrams[0].Origin)
	}
}

func TestDescribeDraft(t *testing.T) {
	assert := assert.New(t)

	c := fakeClient{}

	output := mustExecute(t, &c, []string{
		"describe",
		"draft",
		"--service-key",
		"SVC-001",
		"--node-id",
		"Activity_Register",
	})

	assert.Equal("Enter the device data into the register.\n", output)
}
