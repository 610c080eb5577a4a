// Package transfer ships generated bundles to a Camunda Web Modeler
// workspace and records each run as a transfer job.
package transfer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/hashicorp/go-hclog"
	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/modeler"
	"github.com/manualsvc/bundler/store"
)

func New(api modeler.API, s store.Store, logger hclog.Logger, customizers ...func(*Options)) (*Engine, error) {
	if api == nil {
		return nil, errors.New("modeler API is nil")
	}
	if s == nil {
		return nil, errors.New("store is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	node, err := snowflake.NewNode(options.NodeId)
	if err != nil {
		return nil, fmt.Errorf("failed to create snowflake node: %v", err)
	}

	return &Engine{
		api:     api,
		store:   s,
		node:    node,
		logger:  logger.Named("transfer"),
		options: options,

		now:   time.Now,
		sleep: sleep,
	}, nil
}

func NewOptions() Options {
	return Options{
		Attempts:    3,
		BackoffUnit: 2 * time.Second,
		PacingDelay: 500 * time.Millisecond,
	}
}

type Options struct {
	// ProjectName overrides the target project name.
	// When empty, the service name is used.
	ProjectName string

	Attempts    int           // Upload attempts per file.
	BackoffUnit time.Duration // Wait between attempts grows linearly by this unit.
	PacingDelay time.Duration // Wait between consecutive file uploads.

	NodeId int64 // Snowflake node ID, used for job IDs.
}

func (o Options) Validate() error {
	if o.Attempts <= 0 {
		return errors.New("attempts must be positive")
	}
	if o.BackoffUnit < 0 || o.PacingDelay < 0 {
		return errors.New("delays must not be negative")
	}
	return nil
}

type Engine struct {
	api     modeler.API
	store   store.Store
	node    *snowflake.Node
	logger  hclog.Logger
	options Options

	now   func() time.Time
	sleep func(ctx context.Context, duration time.Duration) error
}

// Result describes the outcome of one transfer run.
type Result struct {
	JobId     int64
	ProjectId string
	FolderId  string
	Succeeded []UploadedFile
	Failed    []FailedFile
}

// Complete is true when every file of the bundle has been uploaded.
func (r Result) Complete() bool {
	return len(r.Failed) == 0
}

type UploadedFile struct {
	Name     string
	RemoteId string
}

type FailedFile struct {
	Name  string
	Error string
}

type file struct {
	name     string
	fileType string
	content  string
}

// Transfer uploads a bundle into a timestamped folder of the service's
// project. Files are uploaded sequentially, each with a bounded number of
// attempts, so that one unreachable file does not abort the batch.
func (e *Engine) Transfer(ctx context.Context, b bundle.Bundle) (Result, error) {
	files := bundleFiles(b)

	job := store.TransferJob{
		Id:         e.node.Generate().Int64(),
		ServiceKey: b.Manifest.ServiceKey,
		State:      store.JobCreated,
		FilesTotal: len(files),
		CreatedAt:  e.now(),
	}

	if err := e.store.CreateTransferJob(ctx, job); err != nil {
		return Result{}, fmt.Errorf("failed to create transfer job: %v", err)
	}

	e.logger.Info("transfer started", "job_id", job.Id, "service_key", job.ServiceKey, "files", len(files))

	job.State = store.JobRunning
	e.updateJob(ctx, job)

	project, err := e.resolveProject(ctx, b)
	if err != nil {
		return Result{}, e.fail(ctx, job, fmt.Errorf("failed to resolve project: %v", err))
	}

	folder, err := e.api.CreateFolder(ctx, modeler.CreateFolderCmd{
		Name:      e.folderName(b.Manifest.ServiceKey),
		ProjectId: project.Id,
	})
	if err != nil {
		return Result{}, e.fail(ctx, job, fmt.Errorf("failed to create folder: %v", err))
	}

	job.ProjectId = project.Id
	job.FolderId = folder.Id
	e.updateJob(ctx, job)

	result := Result{
		JobId:     job.Id,
		ProjectId: project.Id,
		FolderId:  folder.Id,
	}

	// pacing is applied after each successful upload - a failed file has
	// already waited out its retry backoffs
	var pace bool
	for _, f := range files {
		if pace && e.options.PacingDelay > 0 {
			if err := e.sleep(ctx, e.options.PacingDelay); err != nil {
				return result, e.fail(ctx, job, err)
			}
		}

		remoteId, err := e.upload(ctx, project.Id, folder.Id, f)
		if err != nil {
			e.logger.Warn("upload failed", "job_id", job.Id, "file", f.name, "error", err)
			result.Failed = append(result.Failed, FailedFile{Name: f.name, Error: err.Error()})
			pace = false
			continue
		}

		result.Succeeded = append(result.Succeeded, UploadedFile{Name: f.name, RemoteId: remoteId})
		pace = true
	}

	job.FilesFailed = len(result.Failed)

	switch {
	case len(result.Failed) == 0:
		job.State = store.JobCompleted
	case len(result.Succeeded) == 0:
		job.State = store.JobFailed
		job.Detail = failureDetail(result.Failed)
	default:
		job.State = store.JobPartiallyFailed
		job.Detail = failureDetail(result.Failed)
	}

	e.updateJob(ctx, job)

	e.logger.Info("transfer ended", "job_id", job.Id, "state", job.State.String(), "files_failed", job.FilesFailed)

	return result, nil
}

// upload tries a single file with linear backoff between attempts.
func (e *Engine) upload(ctx context.Context, projectId string, folderId string, f file) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= e.options.Attempts; attempt++ {
		if attempt > 1 {
			if err := e.sleep(ctx, time.Duration(attempt-1)*e.options.BackoffUnit); err != nil {
				return "", err
			}
		}

		created, err := e.api.CreateFile(ctx, modeler.CreateFileCmd{
			Name:      f.name,
			ProjectId: projectId,
			FolderId:  folderId,
			FileType:  f.fileType,
			Content:   f.content,
		})
		if err == nil {
			return created.Id, nil
		}

		lastErr = err

		// an authentication failure will not heal within the retry window
		var authErr modeler.AuthenticationError
		if errors.As(err, &authErr) {
			break
		}
	}
	return "", lastErr
}

func (e *Engine) resolveProject(ctx context.Context, b bundle.Bundle) (modeler.Project, error) {
	name := e.options.ProjectName
	if name == "" {
		name = b.Manifest.ServiceName
	}

	project, err := e.api.FindProject(ctx, name)
	if err == nil {
		return project, nil
	}
	if !errors.Is(err, modeler.ErrNotFound) {
		return modeler.Project{}, err
	}

	e.logger.Info("creating project", "name", name)
	return e.api.CreateProject(ctx, name)
}

func (e *Engine) folderName(serviceKey string) string {
	return fmt.Sprintf("%s-%s", serviceKey, e.now().UTC().Format("20060102-150405"))
}

// fail moves the job into its FAILED end state, preserving the causing error.
func (e *Engine) fail(ctx context.Context, job store.TransferJob, err error) error {
	job.State = store.JobFailed
	job.Detail = err.Error()
	e.updateJob(ctx, job)
	return err
}

func (e *Engine) updateJob(ctx context.Context, job store.TransferJob) {
	job.UpdatedAt = e.now()
	if err := e.store.UpdateTransferJob(ctx, job); err != nil {
		e.logger.Error("failed to update transfer job", "job_id", job.Id, "error", err)
	}
}

func bundleFiles(b bundle.Bundle) []file {
	files := make([]file, 0, 1+len(b.Subprocesses)+len(b.Forms))

	files = append(files, file{name: b.MainFileName, fileType: modeler.FileTypeBpmn, content: b.MainXml})

	for _, subprocess := range b.Subprocesses {
		files = append(files, file{name: subprocess.Name, fileType: modeler.FileTypeBpmn, content: subprocess.Xml})
	}
	for _, form := range b.Forms {
		files = append(files, file{name: form.FileName, fileType: modeler.FileTypeForm, content: form.Content})
	}

	return files
}

func failureDetail(failed []FailedFile) string {
	names := make([]string, len(failed))
	for i, f := range failed {
		names[i] = f.Name
	}
	return "failed to upload: " + strings.Join(names, ", ")
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
