// Package modeler provides a client for the Camunda Web Modeler REST API.
package modeler

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound indicates that no project with a given name exists.
var ErrNotFound = errors.New("not found")

const (
	FileTypeBpmn = "bpmn"
	FileTypeForm = "form"
)

// API is the subset of the Web Modeler REST API needed for bundle transfers.
type API interface {
	// FindProject looks up a project by its exact name.
	// It returns [ErrNotFound] when no project matches.
	FindProject(ctx context.Context, name string) (Project, error)
	CreateProject(ctx context.Context, name string) (Project, error)
	CreateFolder(ctx context.Context, cmd CreateFolderCmd) (Folder, error)
	CreateFile(ctx context.Context, cmd CreateFileCmd) (File, error)
}

type Project struct {
	Id   string `json:"id"`
	Name string `json:"name"`
}

type Folder struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	ProjectId string `json:"projectId"`
}

type File struct {
	Id        string `json:"id"`
	Name      string `json:"name"`
	FileType  string `json:"fileType"`
	ProjectId string `json:"projectId"`
	FolderId  string `json:"folderId,omitempty"`
}

type CreateFolderCmd struct {
	Name      string `json:"name"`
	ProjectId string `json:"projectId"`
}

type CreateFileCmd struct {
	Name      string `json:"name"`
	ProjectId string `json:"projectId"`
	FolderId  string `json:"folderId,omitempty"`
	FileType  string `json:"fileType"`
	Content   string `json:"content"`
}

// AuthenticationError indicates that no access token could be obtained.
type AuthenticationError struct {
	Detail string
}

func (e AuthenticationError) Error() string {
	return fmt.Sprintf("authentication failed: %s", e.Detail)
}

// RequestError indicates an API request that was rejected or failed.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
}

func (e RequestError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}
