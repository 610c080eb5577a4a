package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/manualsvc/bundler/export"
	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/http/server"
)

// Client is the typed API over the server's operations.
type Client interface {
	GenerateBundle(ctx context.Context, serviceKey string) (common.BundleRes, error)
	TransferBundle(ctx context.Context, serviceKey string) (common.TransferRes, error)
	ExportBundle(ctx context.Context, serviceKey string) (export.Export, error)

	GetDiagram(ctx context.Context, serviceKey string) (string, error)
	SaveDiagram(ctx context.Context, serviceKey string, cmd common.SaveDiagramReq) error

	DraftDescription(ctx context.Context, serviceKey string, cmd common.DraftDescriptionReq) (common.DescriptionRes, error)

	ListTransferJobs(ctx context.Context, serviceKey string) (common.TransferJobsRes, error)

	Shutdown()
}

func New(url string, authorization string, customizers ...func(*Options)) (Client, error) {
	if url == "" {
		return nil, errors.New("URL is empty")
	}
	if authorization == "" {
		return nil, errors.New("authorization is empty")
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
		httpClient:    &httpClient,
		url:           url,
		authorization: authorization,
		options:       options,
	}

	return &client, nil
}

func NewOptions() Options {
	return Options{
		Timeout: 120 * time.Second,
	}
}

type Options struct {
	Timeout time.Duration // Time limit for requests made by the HTTP client - transfers can take a while.

	Configure  func(*http.Client)         // Optional function, used to configure the underlying HTTP client.
	OnRequest  func(*http.Request) error  // Optional function, invoked before a request is sent.
	OnResponse func(*http.Response) error // Optional function, invoked after a response is received.
}

func (o Options) Validate() error {
	if o.Timeout <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

type client struct {
	httpClient    *http.Client
	url           string
	authorization string
	options       Options
}

func (c *client) GenerateBundle(ctx context.Context, serviceKey string) (common.BundleRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.BundleRes
	if err := c.doPost(ctx, resolve(server.PathServicesBundle, serviceKey), nil, &resBody); err != nil {
		return common.BundleRes{}, err
	}
	return resBody, nil
}

func (c *client) TransferBundle(ctx context.Context, serviceKey string) (common.TransferRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.TransferRes
	if err := c.doPost(ctx, resolve(server.PathServicesTransfer, serviceKey), nil, &resBody); err != nil {
		return common.TransferRes{}, err
	}
	return resBody, nil
}

func (c *client) ExportBundle(ctx context.Context, serviceKey string) (export.Export, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody export.Export
	if err := c.doPost(ctx, resolve(server.PathServicesExport, serviceKey), nil, &resBody); err != nil {
		return export.Export{}, err
	}
	return resBody, nil
}

func (c *client) GetDiagram(ctx context.Context, serviceKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	path := resolve(server.PathServicesDiagram, serviceKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create GET request: %v", err)
	}

	res, err := c.do(req)
	if err != nil {
		return "", err
	}

	contentType := res.Header.Get(server.HeaderContentType)
	if contentType != server.ContentTypeXml {
		return "", decodeJSONResponseBody(res, nil)
	}

	defer res.Body.Close()

	b, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %v", err)
	}

	return string(b), nil
}

func (c *client) SaveDiagram(ctx context.Context, serviceKey string, cmd common.SaveDiagramReq) error {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	return c.doPut(ctx, resolve(server.PathServicesDiagram, serviceKey), cmd)
}

func (c *client) DraftDescription(ctx context.Context, serviceKey string, cmd common.DraftDescriptionReq) (common.DescriptionRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.DescriptionRes
	if err := c.doPost(ctx, resolve(server.PathServicesDescriptionsDraft, serviceKey), cmd, &resBody); err != nil {
		return common.DescriptionRes{}, err
	}
	return resBody, nil
}

func (c *client) ListTransferJobs(ctx context.Context, serviceKey string) (common.TransferJobsRes, error) {
	ctx, cancel := context.WithTimeout(ctx, c.options.Timeout)
	defer cancel()

	var resBody common.TransferJobsRes
	if err := c.doGet(ctx, resolve(server.PathServicesTransfers, serviceKey), &resBody); err != nil {
		return common.TransferJobsRes{}, err
	}
	return resBody, nil
}

func (c *client) Shutdown() {
	c.httpClient.CloseIdleConnections()
}

func (c *client) doGet(ctx context.Context, path string, resBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create GET request: %v", err)
	}

	res, err := c.do(req)
	if err != nil {
		return err
	}

	return decodeJSONResponseBody(res, &resBody)
}

func (c *client) doPost(ctx context.Context, path string, reqBody any, resBody any) error {
	var body io.Reader
	if reqBody != nil {
		b, err := json.Marshal(reqBody)
		if err != nil {
			return fmt.Errorf("failed to create JSON request body: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+path, body)
	if err != nil {
		return fmt.Errorf("failed to create POST request: %v", err)
	}

	if reqBody != nil {
		req.Header.Add(server.HeaderContentType, server.ContentTypeJson)
	}

	res, err := c.do(req)
	if err != nil {
		return err
	}

	return decodeJSONResponseBody(res, &resBody)
}

func (c *client) doPut(ctx context.Context, path string, reqBody any) error {
	b, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to create JSON request body: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url+path, bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("failed to create PUT request: %v", err)
	}

	req.Header.Add(server.HeaderContentType, server.ContentTypeJson)

	res, err := c.do(req)
	if err != nil {
		return err
	}

	return decodeJSONResponseBody(res, nil)
}

func (c *client) do(req *http.Request) (*http.Response, error) {
	req.Header.Add(server.HeaderAuthorization, c.authorization)

	if c.options.OnRequest != nil {
		if err := c.options.OnRequest(req); err != nil {
			return nil, fmt.Errorf("failed to handle request: %v", err)
		}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s %s: %v", req.Method, req.URL, err)
	}

	if c.options.OnResponse != nil {
		if err := c.options.OnResponse(res); err != nil {
			return nil, fmt.Errorf("failed to handle response: %v", err)
		}
	}

	return res, nil
}

func resolve(path string, serviceKey string) string {
	return strings.Replace(path, "{serviceKey}", serviceKey, 1)
}
