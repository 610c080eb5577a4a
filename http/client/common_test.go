package client

import (
	"context"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/manualsvc/bundler/modeler"
)

func mustReadBpmnFile(t *testing.T, fileName string) string {
	bpmnFile, err := os.Open("../../test/bpmn/" + fileName)
	if err != nil {
		t.Fatalf("failed to open BPMN file: %v", err)
	}

	defer bpmnFile.Close()

	b, err := io.ReadAll(bpmnFile)
	if err != nil {
		t.Fatalf("failed to read BPMN XML: %v", err)
	}

	return string(b)
}

// fakeModelerAPI accepts every upload, keeping the test independent of a Web
// Modeler instance.
type fakeModelerAPI struct {
	projects []modeler.Project
	files    []modeler.CreateFileCmd
}

func (a *fakeModelerAPI) FindProject(_ context.Context, name string) (modeler.Project, error) {
	for _, project := range a.projects {
		if project.Name == name {
			return project, nil
		}
	}
	return modeler.Project{}, modeler.ErrNotFound
}

func (a *fakeModelerAPI) CreateProject(_ context.Context, name string) (modeler.Project, error) {
	project := modeler.Project{Id: fmt.Sprintf("p-%d", len(a.projects)+1), Name: name}
	a.projects = append(a.projects, project)
	return project, nil
}

func (a *fakeModelerAPI) CreateFolder(_ context.Context, cmd modeler.CreateFolderCmd) (modeler.Folder, error) {
	return modeler.Folder{Id: "f-1", Name: cmd.Name, ProjectId: cmd.ProjectId}, nil
}

func (a *fakeModelerAPI) CreateFile(_ context.Context, cmd modeler.CreateFileCmd) (modeler.File, error) {
	a.files = append(a.files, cmd)
	return modeler.File{Id: fmt.Sprintf("file-%d", len(a.files)), Name: cmd.Name}, nil
}

// stubGenerator answers every description draft with a fixed text.
type stubGenerator struct {
	text string
}

func (g stubGenerator) Generate(_ context.Context, _ string, _ string) (string, error) {
	return g.text, nil
}
