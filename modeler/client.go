package modeler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	PathFiles          = "/api/v1/files"
	PathFolders        = "/api/v1/folders"
	PathProjects       = "/api/v1/projects"
	PathProjectsSearch = "/api/v1/projects/search"
)

func New(url string, auth AuthConfig, customizers ...func(*Options)) (API, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}
	if auth.TokenUrl == "" {
		return nil, errors.New("token URL is empty")
	}
	if auth.ClientId == "" || auth.ClientSecret == "" {
		return nil, errors.New("client credentials are incomplete")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	httpClient := http.Client{}

	if options.Configure != nil {
		options.Configure(&httpClient)
	}

	client := client{
		httpClient: &httpClient,
		url:        url,
		options:    options,
		tokens: &tokenSource{
			httpClient:   &httpClient,
			tokenUrl:     auth.TokenUrl,
			clientId:     auth.ClientId,
			clientSecret: auth.ClientSecret,
			audience:     auth.Audience,
			now:          options.now,
		},
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 40 * time.Second,

		now: time.Now,
	}
}

// AuthConfig holds the client credentials for the OAuth token endpoint.
type AuthConfig struct {
	TokenUrl     string
	ClientId     string
	ClientSecret string
	Audience     string
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client, utilized when no external context is provided.

	Configure func(*http.Client) // Optional function, used to configure the underlying HTTP client.

	now func() time.Time
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

type client struct {
	httpClient *http.Client
	url        string
	options    Options
	tokens     *tokenSource
}

func (c *client) FindProject(ctx context.Context, name string) (Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	reqBody := map[string]any{
		"filter": map[string]string{"name": name},
	}

	var resBody struct {
		Items []Project `json:"items"`
	}

	if err := c.doPost(ctx, PathProjectsSearch, reqBody, &resBody); err != nil {
		return Project{}, err
	}

	for _, project := range resBody.Items {
		if project.Name == name {
			return project, nil
		}
	}

	return Project{}, ErrNotFound
}

func (c *client) CreateProject(ctx context.Context, name string) (Project, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var project Project
	if err := c.doPost(ctx, PathProjects, map[string]string{"name": name}, &project); err != nil {
		return Project{}, err
	}
	return project, nil
}

func (c *client) CreateFolder(ctx context.Context, cmd CreateFolderCmd) (Folder, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var folder Folder
	if err := c.doPost(ctx, PathFolders, cmd, &folder); err != nil {
		return Folder{}, err
	}
	return folder, nil
}

func (c *client) CreateFile(ctx context.Context, cmd CreateFileCmd) (File, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var file File
	if err := c.doPost(ctx, PathFiles, cmd, &file); err != nil {
		return File{}, err
	}
	return file, nil
}

func (c *client) doPost(ctx context.Context, path string, reqBody any, resBody any) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	b, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to create JSON request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create POST request: %v", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute POST %s: %v", path, err)
	}

	defer res.Body.Close()

	if res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden {
		b, _ := io.ReadAll(res.Body)
		return AuthenticationError{Detail: fmt.Sprintf("HTTP %d: %s", res.StatusCode, string(b))}
	}
	if res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return RequestError{
			Method:     http.MethodPost,
			Path:       path,
			StatusCode: res.StatusCode,
			Detail:     string(b),
		}
	}

	if resBody == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(resBody); err != nil {
		return fmt.Errorf("failed to decode JSON response body: %v", err)
	}

	return nil
}
