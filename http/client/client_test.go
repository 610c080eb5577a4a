package client

import (
	"context"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/blobstore/dir"
	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/draft"
	"github.com/manualsvc/bundler/export"
	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/http/server"
	"github.com/manualsvc/bundler/notify"
	"github.com/manualsvc/bundler/store"
	"github.com/manualsvc/bundler/store/mem"
	"github.com/manualsvc/bundler/transfer"
	"github.com/stretchr/testify/assert"
)

func TestClientServer(t *testing.T) {
	assert := assert.New(t)

	logger := hclog.NewNullLogger()

	s := mem.New()
	s.PutService(store.ServiceProcess{
		Key:         "SVC-001",
		Name:        "Device Onboarding",
		Owner:       "IT Operations",
		OriginalXml: mustReadBpmnFile(t, "service.bpmn"),
	})
	s.PutSubprocess(store.Subprocess{
		Id:          1,
		ServiceKey:  "SVC-001",
		Name:        "Compliance check",
		StepKey:     "CHK-100",
		OriginalXml: mustReadBpmnFile(t, "subprocess.bpmn"),
	})
	s.PutStep(store.MasterDataStep{
		ServiceKey:  "SVC-001",
		StepKey:     "REG-140",
		StepName:    "Register device",
		Description: "Enter the device data.",
		LinkUrls:    "https://docs.example.com/register",
	})

	blobs, err := dir.New(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create blob store: %v", err)
	}

	builder := bundle.NewBuilder(s, bundle.NewBlobTemplateSource(blobs), logger)

	transferEngine, err := transfer.New(&fakeModelerAPI{}, s, logger, func(o *transfer.Options) {
		o.BackoffUnit = time.Millisecond
		o.PacingDelay = time.Millisecond
	})
	if err != nil {
		t.Fatalf("failed to create transfer engine: %v", err)
	}

	packager, err := export.NewPackager(blobs, logger)
	if err != nil {
		t.Fatalf("failed to create packager: %v", err)
	}

	drafter, err := draft.NewDrafter(s, stubGenerator{text: "Enter the device data into the register."}, logger)
	if err != nil {
		t.Fatalf("failed to create drafter: %v", err)
	}

	hub := notify.NewHub()

	saver, err := notify.NewSaver(s, hub, logger, func(o *notify.SaverOptions) {
		o.Debounce = 10 * time.Millisecond
	})
	if err != nil {
		t.Fatalf("failed to create saver: %v", err)
	}

	httpServer, err := server.New(server.Services{
		Store:    s,
		Builder:  builder,
		Transfer: transferEngine,
		Packager: packager,
		Drafter:  drafter,
		Hub:      hub,
		Saver:    saver,
	}, func(o *server.Options) {
		o.BindAddress = "127.0.0.1:18480"

		o.BasicAuthUsername = "test"
		o.BasicAuthPassword = "test"

		o.ShutdownDelay = 0
	})
	if err != nil {
		t.Fatalf("failed to create HTTP server: %v", err)
	}

	httpServer.ListenAndServe()
	defer httpServer.Shutdown()

	time.Sleep(time.Millisecond * 1000) // wait for server to start

	authorization := "Basic " + base64.StdEncoding.EncodeToString([]byte("test:test"))

	client, err := New("http://127.0.0.1:18480", authorization)
	if err != nil {
		t.Fatalf("failed to create HTTP client: %v", err)
	}

	defer client.Shutdown()

	ctx := context.Background()

	t.Run("generate bundle", func(t *testing.T) {
		bundleRes, err := client.GenerateBundle(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to generate bundle: %v", err)
		}

		assert.Equal("device-onboarding.bpmn", bundleRes.MainFileName)
		assert.Contains(bundleRes.MainXml, `id="Process_SVC-001"`)
		assert.Len(bundleRes.Subprocesses, 1)
		assert.Len(bundleRes.Forms, 3)
		assert.Equal("SVC-001", bundleRes.Manifest.ServiceKey)
	})

	t.Run("generate bundle of unknown service", func(t *testing.T) {
		_, err := client.GenerateBundle(ctx, "SVC-404")

		var problem common.Problem
		if assert.ErrorAs(err, &problem) {
			assert.Equal(404, problem.Status)
			assert.Equal(common.ProblemNotFound, problem.Type)
		}
	})

	t.Run("transfer bundle", func(t *testing.T) {
		transferRes, err := client.TransferBundle(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to transfer bundle: %v", err)
		}

		assert.True(transferRes.Complete)
		assert.NotEmpty(transferRes.ProjectId)
		assert.Len(transferRes.Succeeded, 5) // main, subprocess, 3 forms
		assert.Empty(transferRes.Failed)

		jobsRes, err := client.ListTransferJobs(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to list transfer jobs: %v", err)
		}

		assert.Equal(1, jobsRes.Count)
		assert.Equal(transferRes.JobId, jobsRes.Results[0].Id)
		assert.Equal(store.JobCompleted, jobsRes.Results[0].State)
	})

	t.Run("export bundle", func(t *testing.T) {
		exportRes, err := client.ExportBundle(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to export bundle: %v", err)
		}

		assert.Equal("SVC-001", exportRes.ServiceKey)
		assert.True(strings.HasPrefix(exportRes.ArchivePath, "exports/SVC-001/"), exportRes.ArchivePath)
		assert.NotEmpty(exportRes.ArchiveUrl)

		if _, err := blobs.Get(ctx, exportRes.ArchivePath); err != nil {
			t.Fatalf("failed to get exported archive: %v", err)
		}
	})

	t.Run("get and save diagram", func(t *testing.T) {
		bpmnXml, err := client.GetDiagram(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to get diagram: %v", err)
		}

		assert.Contains(bpmnXml, "Device Onboarding")

		editedXml := strings.Replace(bpmnXml, `name="Device Onboarding"`, `name="Device Onboarding v2"`, 1)

		if err := client.SaveDiagram(ctx, "SVC-001", common.SaveDiagramReq{EditedXml: editedXml, Origin: "editor-a"}); err != nil {
			t.Fatalf("failed to save diagram: %v", err)
		}

		time.Sleep(time.Millisecond * 100) // wait for the debounced save

		savedXml, err := client.GetDiagram(ctx, "SVC-001")
		if err != nil {
			t.Fatalf("failed to get diagram: %v", err)
		}

		assert.Contains(savedXml, "Device Onboarding v2")
	})

	t.Run("save diagram without XML", func(t *testing.T) {
		err := client.SaveDiagram(ctx, "SVC-001", common.SaveDiagramReq{Origin: "editor-a"})

		var problem common.Problem
		if assert.ErrorAs(err, &problem) {
			assert.Equal(common.ProblemHttpRequestBody, problem.Type)
		}
	})

	t.Run("draft description", func(t *testing.T) {
		descriptionRes, err := client.DraftDescription(ctx, "SVC-001", common.DraftDescriptionReq{NodeId: "Activity_Register"})
		if err != nil {
			t.Fatalf("failed to draft description: %v", err)
		}

		assert.Equal("SVC-001", descriptionRes.ServiceKey)
		assert.Equal("Activity_Register", descriptionRes.NodeId)
		assert.Equal("Enter the device data into the register.", descriptionRes.Description)
	})

	t.Run("unauthorized", func(t *testing.T) {
		unauthorized, err := New("http://127.0.0.1:18480", "Basic aW52YWxpZDppbnZhbGlk")
		if err != nil {
			t.Fatalf("failed to create HTTP client: %v", err)
		}

		defer unauthorized.Shutdown()

		_, err = unauthorized.GenerateBundle(ctx, "SVC-001")
		assert.NotNil(err)
	})
}
