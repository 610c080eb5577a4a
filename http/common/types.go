package common

import (
	"time"

	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/store"
)

// Request for saving the edited main process XML of a service.
type SaveDiagramReq struct {
	EditedXml string `json:"editedXml" validate:"required"` // BPMN XML of the edited diagram.
	Origin    string `json:"origin,omitempty"`              // Editor session the change originates from.
}

// Request for drafting a step description.
type DraftDescriptionReq struct {
	NodeId string `json:"nodeId,omitempty"` // BPMN node to describe - empty for the service level description.
}

// Response of a bundle generation, carrying the complete bundle.
type BundleRes struct {
	MainFileName string          `json:"mainFileName" validate:"required"`
	MainXml      string          `json:"mainXml" validate:"required"`
	Subprocesses []BundleFile    `json:"subprocesses" validate:"required"`
	Forms        []BundleFile    `json:"forms" validate:"required"`
	Manifest     bundle.Manifest `json:"manifest" validate:"required"`
}

// One named file of a bundle.
type BundleFile struct {
	Name    string `json:"name" validate:"required"`
	Content string `json:"content" validate:"required"`
}

// Response of a bundle transfer.
type TransferRes struct {
	JobId     int64  `json:"jobId" validate:"required"`
	ProjectId string `json:"projectId" validate:"required"`
	FolderId  string `json:"folderId" validate:"required"`
	Complete  bool   `json:"complete"` // True, when every file has been uploaded.

	Succeeded []TransferFile    `json:"succeeded" validate:"required"`
	Failed    []TransferFailure `json:"failed"`
}

type TransferFile struct {
	Name     string `json:"name" validate:"required"`
	RemoteId string `json:"remoteId" validate:"required"`
}

type TransferFailure struct {
	Name  string `json:"name" validate:"required"`
	Error string `json:"error" validate:"required"`
}

// Response of a transfer job listing.
type TransferJobsRes struct {
	Count   int              `json:"count" validate:"required,gte=0"` // Number of results.
	Results []TransferJobRes `json:"results" validate:"required"`     // Query results.
}

type TransferJobRes struct {
	Id          int64          `json:"id" validate:"required"`
	ServiceKey  string         `json:"serviceKey" validate:"required"`
	State       store.JobState `json:"state" validate:"required"`
	Detail      string         `json:"detail,omitempty"`
	ProjectId   string         `json:"projectId,omitempty"`
	FolderId    string         `json:"folderId,omitempty"`
	FilesTotal  int            `json:"filesTotal" validate:"gte=0"`
	FilesFailed int            `json:"filesFailed" validate:"gte=0"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Response of a description draft.
type DescriptionRes struct {
	ServiceKey  string    `json:"serviceKey" validate:"required"`
	NodeId      string    `json:"nodeId,omitempty"`
	Description string    `json:"description" validate:"required"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
