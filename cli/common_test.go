package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/manualsvc/bundler/export"
	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/store"
)

func mustExecute(t *testing.T, c *fakeClient, args []string) string {
	rootCmd := newRootCmd(&Cli{c: c})
	rootCmd.PersistentPostRun = nil

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs(args)

	if err := rootCmd.Execute(); err != nil {
		t.Fatalf("failed to execute %v: %v", args, err)
	}

	return buf.String()
}

// fakeClient serves canned responses, keeping the tests independent of a
// running HTTP server.
type fakeClient struct {
	savedDiagrams []common.SaveDiagramReq
}

func (c *fakeClient) GenerateBundle(_ context.Context, serviceKey string) (common.BundleRes, error) {
	return common.BundleRes{
		MainFileName: "device-onboarding.bpmn",
		MainXml:      "<bpmn:definitions/>",
		Subprocesses: []common.BundleFile{
			{Name: "compliance-check.bpmn", Content: "<bpmn:definitions/>"},
		},
		Forms: []common.BundleFile{
			{Name: "register-device.form", Content: "{}"},
		},
	}, nil
}

func (c *fakeClient) TransferBundle(_ context.Context, serviceKey string) (common.TransferRes, error) {
	return common.TransferRes{
		JobId:     1,
		ProjectId: "p-1",
		FolderId:  "f-1",
		Complete:  true,
		Succeeded: []common.TransferFile{
			{Name: "device-onboarding.bpmn", RemoteId: "file-1"},
		},
	}, nil
}

func (c *fakeClient) ExportBundle(_ context.Context, serviceKey string) (export.Export, error) {
	return export.Export{
		Id:          "01JX0000000000000000000000",
		ServiceKey:  serviceKey,
		ArchivePath: "exports/" + serviceKey + "/01JX0000000000000000000000/bundle.zip",
		ArchiveUrl:  "file:///tmp/bundle.zip",
		FileCount:   3,
	}, nil
}

func (c *fakeClient) GetDiagram(_ context.Context, serviceKey string) (string, error) {
	return "<bpmn:definitions/>", nil
}

func (c *fakeClient) SaveDiagram(_ context.Context, serviceKey string, cmd common.SaveDiagramReq) error {
	c.savedDiagrams = append(c.savedDiagrams, cmd)
	return nil
}

func (c *fakeClient) DraftDescription(_ context.Context, serviceKey string, cmd common.DraftDescriptionReq) (common.DescriptionRes, error) {
	return common.DescriptionRes{
		ServiceKey:  serviceKey,
		NodeId:      cmd.NodeId,
		Description: "Enter the device data into the register.",
	}, nil
}

func (c *fakeClient) ListTransferJobs(_ context.Context, serviceKey string) (common.TransferJobsRes, error) {
	return common.TransferJobsRes{
		Count: 1,
		Results: []common.TransferJobRes{
			{
				Id:         1,
				ServiceKey: serviceKey,
				State:      store.JobCompleted,
				ProjectId:  "p-1",
				FilesTotal: 3,
				CreatedAt:  time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC),
			},
		},
	}, nil
}

func (c *fakeClient) Shutdown() {
}
