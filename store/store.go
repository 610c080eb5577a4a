// Package store defines the persisted records of the manual service workflow
// and the operations a backing database must provide.
package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates that no record exists for a given key.
var ErrNotFound = errors.New("not found")

// ServiceProcess is the top-level business process of one manual service.
//
// EditedXml, if present and not detected as corrupted, is authoritative over
// OriginalXml.
type ServiceProcess struct {
	Key         string // External business key, shared with the upstream master data source.
	Name        string
	Owner       string // Organizational owner.
	OriginalXml string
	EditedXml   string
	UpdatedAt   time.Time
}

// Subprocess is a child process, invoked from one call activity of its
// service's main process.
type Subprocess struct {
	Id          int64
	ServiceKey  string
	Name        string
	StepKey     string // External step identifier, empty when not yet assigned.
	OriginalXml string
	EditedXml   string
}

// MasterDataStep is one step row of the upstream master data source.
// LinkUrls and LinkTitles are delimited lists, paired by position.
type MasterDataStep struct {
	ServiceKey  string
	StepKey     string
	StepName    string
	Description string
	LinkUrls    string
	LinkTitles  string
}

// StepDescription is a hand-edited description, keyed by service key and node
// id. An empty node id addresses the service level description singleton.
type StepDescription struct {
	ServiceKey  string
	NodeId      string
	Description string
	UpdatedAt   time.Time
}

// TransferJob records one transfer of a service's bundle.
type TransferJob struct {
	Id          int64
	ServiceKey  string
	State       JobState
	Detail      string
	ProjectId   string
	FolderId    string
	FilesTotal  int
	FilesFailed int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Store interface {
	// ServiceByKey returns the service with the given external business key.
	ServiceByKey(ctx context.Context, serviceKey string) (ServiceProcess, error)
	// SaveEditedXml persists the edited XML of a service's main process,
	// last write wins.
	SaveEditedXml(ctx context.Context, serviceKey string, editedXml string) error

	SubprocessesByService(ctx context.Context, serviceKey string) ([]Subprocess, error)
	StepsByService(ctx context.Context, serviceKey string) ([]MasterDataStep, error)

	DescriptionsByService(ctx context.Context, serviceKey string) ([]StepDescription, error)
	UpsertDescription(ctx context.Context, description StepDescription) error

	CreateTransferJob(ctx context.Context, job TransferJob) error
	UpdateTransferJob(ctx context.Context, job TransferJob) error
	TransferJobsByService(ctx context.Context, serviceKey string) ([]TransferJob, error)
}
