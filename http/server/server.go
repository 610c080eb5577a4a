package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/draft"
	"github.com/manualsvc/bundler/export"
	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/model"
	"github.com/manualsvc/bundler/notify"
	"github.com/manualsvc/bundler/store"
	"github.com/manualsvc/bundler/transfer"
)

// Services bundles the components the server exposes.
type Services struct {
	Store    store.Store
	Builder  *bundle.Builder
	Transfer *transfer.Engine
	Packager *export.Packager
	Drafter  *draft.Drafter // Optional - without it, description drafting responds with HTTP 503.
	Hub      *notify.Hub
	Saver    *notify.Saver
}

func New(services Services, customizers ...func(*Options)) (*Server, error) {
	if services.Store == nil {
		return nil, errors.New("store is nil")
	}
	if services.Builder == nil {
		return nil, errors.New("builder is nil")
	}
	if services.Transfer == nil {
		return nil, errors.New("transfer engine is nil")
	}
	if services.Packager == nil {
		return nil, errors.New("packager is nil")
	}
	if services.Hub == nil {
		return nil, errors.New("hub is nil")
	}
	if services.Saver == nil {
		return nil, errors.New("saver is nil")
	}

	options := NewOptions()
	for _, customizer := range customizers {
		customizer(&options)
	}

	if err := options.Validate(); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()

	// the diagram event stream is long-lived, it must bypass the handler
	// timeout - a timeout handler's response writer cannot flush
	timeoutHandler := http.TimeoutHandler(mux, options.HandlerTimeout, "handler timed out")
	dispatchHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/diagram/events") {
			mux.ServeHTTP(w, r)
		} else {
			timeoutHandler.ServeHTTP(w, r)
		}
	})

	handler := &basicAuthHandler{
		username: options.BasicAuthUsername,
		password: options.BasicAuthPassword,
		handler:  dispatchHandler,
	}

	// server-wide context for incoming requests
	httpServerCtx, httpServerCancel := context.WithCancel(context.Background())

	httpServer := http.Server{
		Addr: options.BindAddress,
		BaseContext: func(_ net.Listener) context.Context {
			return httpServerCtx
		},
		Handler:     &recoveryHandler{handler: handler},
		IdleTimeout: options.IdleTimeout,
		ReadTimeout: options.ReadTimeout,
		// WriteTimeout is left unset - it would cut off diagram event streams
	}

	if options.Configure != nil {
		options.Configure(&httpServer)
	}

	server := Server{
		services:         services,
		httpServer:       &httpServer,
		httpServerCtx:    httpServerCtx,
		httpServerCancel: httpServerCancel,
		options:          options,
	}

	// operations:start
	mux.HandleFunc("POST "+PathServicesBundle, server.generateBundle)
	mux.HandleFunc("POST "+PathServicesTransfer, server.transferBundle)
	mux.HandleFunc("POST "+PathServicesExport, server.exportBundle)

	mux.HandleFunc("GET "+PathServicesDiagram, server.getDiagram)
	mux.HandleFunc("PUT "+PathServicesDiagram, server.saveDiagram)
	mux.HandleFunc("GET "+PathServicesDiagramEvents, server.streamDiagramEvents)

	mux.HandleFunc("POST "+PathServicesDescriptionsDraft, server.draftDescription)

	mux.HandleFunc("GET "+PathServicesTransfers, server.listTransferJobs)

	mux.HandleFunc("GET "+PathReadiness, server.checkReadiness)
	// operations:end

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	return &server, nil
}

func NewOptions() Options {
	return Options{
		BindAddress: "127.0.0.1:8080",

		HandlerTimeout: 30 * time.Second,
		IdleTimeout:    60 * time.Second,
		ReadTimeout:    15 * time.Second,

		ShutdownDelay:       5 * time.Second,
		ShutdownPeriod:      30 * time.Second,
		ShutdownForcePeriod: 5 * time.Second,
	}
}

type Options struct {
	BindAddress string // TCP address for the server to listen on.

	HandlerTimeout time.Duration // Time limit for HTTP handler - when reached, the handler responds with HTTP 503.
	IdleTimeout    time.Duration // Maximum amount of time to wait for the next request, when keep-alives are enabled - see http.Server#IdleTimeout
	ReadTimeout    time.Duration // Maximum duration for reading the entire request - see http.Server#ReadTimeout

	ShutdownDelay       time.Duration // Delay between the shutdown signal and the actual shutdown, used to propagate readiness.
	ShutdownPeriod      time.Duration // Period for a graceful shutdown without interrupting ongoing requests.
	ShutdownForcePeriod time.Duration // Period for a forced shutdown, where ongoing requests are canceled.

	BasicAuthUsername string
	BasicAuthPassword string

	Configure func(*http.Server) // Optional function, used to configure the underlying HTTP server if needed.
}

func (o Options) Validate() error {
	if o.BasicAuthUsername == "" || o.BasicAuthPassword == "" {
		return errors.New("basic auth username and password must be provided")
	}

	return nil
}

type Server struct {
	services         Services
	httpServer       *http.Server
	httpServerCtx    context.Context    // server-wide base context for incoming requests
	httpServerCancel context.CancelFunc // invoked after server shutdown to cancel ongoing requests
	isShuttingDown   atomic.Bool
	options          Options
}

func (s *Server) ListenAndServe() {
	go func() {
		log.Printf("server listening on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("failed to listen and serve HTTP: %v", err)
		}
	}()
}

func (s *Server) Shutdown() {
	s.isShuttingDown.Store(true)
	log.Println("server is shutting down")

	time.Sleep(s.options.ShutdownDelay)
	log.Println("server is shutting down gracefully")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), s.options.ShutdownPeriod)
	defer shutdownCancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.httpServerCancel()
	if err != nil {
		log.Printf("failed to shutdown HTTP server: %v", err)
		time.Sleep(s.options.ShutdownForcePeriod)
	}

	s.services.Saver.Flush(context.Background())
	log.Println("server shut down")
}

// command handler

func (s *Server) generateBundle(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	b, err := s.services.Builder.GenerateBundle(r.Context(), serviceKey)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	encodeJSONResponseBody(w, r, newBundleRes(b), http.StatusOK)
}

func (s *Server) transferBundle(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	b, err := s.services.Builder.GenerateBundle(r.Context(), serviceKey)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	result, err := s.services.Transfer.Transfer(r.Context(), b)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := newTransferRes(result)

	statusCode := http.StatusOK
	if !result.Complete() {
		statusCode = http.StatusMultiStatus
	}

	encodeJSONResponseBody(w, r, resBody, statusCode)
}

func (s *Server) exportBundle(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	b, err := s.services.Builder.GenerateBundle(r.Context(), serviceKey)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	exported, err := s.services.Packager.Package(r.Context(), b)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	encodeJSONResponseBody(w, r, exported, http.StatusCreated)
}

func (s *Server) getDiagram(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	service, err := s.services.Store.ServiceByKey(r.Context(), serviceKey)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	// edited version, unless it is detected as corrupted
	bpmnXml := service.EditedXml
	if strings.TrimSpace(bpmnXml) == "" || model.IsLikelyCorrupted(bpmnXml) {
		bpmnXml = service.OriginalXml
	}

	if strings.TrimSpace(bpmnXml) == "" {
		encodeJSONProblemResponseBody(w, r, bundle.Error{
			Type:   bundle.ErrorNoDiagram,
			Title:  "service has no diagram",
			Detail: fmt.Sprintf("service %s has neither an edited nor an original main process XML", serviceKey),
		})
		return
	}

	w.Header().Set(HeaderContentType, ContentTypeXml)
	w.Write([]byte(bpmnXml))
}

func (s *Server) saveDiagram(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	// the service must exist before an edit is accepted for it
	if _, err := s.services.Store.ServiceByKey(r.Context(), serviceKey); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	var reqBody common.SaveDiagramReq
	if err := decodeJSONRequestBody(w, r, &reqBody); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	s.services.Saver.Save(serviceKey, reqBody.EditedXml, reqBody.Origin)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) streamDiagramEvents(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		encodeJSONProblemResponseBody(w, r, errors.New("response writer does not support flushing"))
		return
	}

	events, cancel := s.services.Hub.Subscribe(serviceKey, r.URL.Query().Get(QueryOrigin))
	defer cancel()

	w.Header().Set(HeaderContentType, ContentTypeEventStream)
	w.Header().Set(HeaderCacheControl, "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case event, ok := <-events:
			if !ok {
				return
			}
			if err := writeEvent(w, EventDiagramSaved, event); err != nil {
				log.Printf("%s %s: failed to write event: %v", r.Method, r.RequestURI, err)
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) draftDescription(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	if s.services.Drafter == nil {
		encodeJSONProblemResponseBody(w, r, common.Problem{
			Status: http.StatusServiceUnavailable,
			Type:   common.ProblemDraftingUnavailable,
			Title:  "description drafting is not configured",
			Detail: "no language model is configured for this server",
		})
		return
	}

	var reqBody common.DraftDescriptionReq
	if err := decodeJSONRequestBody(w, r, &reqBody); err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	description, err := s.services.Drafter.Draft(r.Context(), serviceKey, reqBody.NodeId)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := common.DescriptionRes{
		ServiceKey:  description.ServiceKey,
		NodeId:      description.NodeId,
		Description: description.Description,
		UpdatedAt:   description.UpdatedAt,
	}

	encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

// query handler

func (s *Server) listTransferJobs(w http.ResponseWriter, r *http.Request) {
	serviceKey, err := parseServiceKey(r)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	jobs, err := s.services.Store.TransferJobsByService(r.Context(), serviceKey)
	if err != nil {
		encodeJSONProblemResponseBody(w, r, err)
		return
	}

	resBody := common.TransferJobsRes{
		Count:   len(jobs),
		Results: make([]common.TransferJobRes, len(jobs)),
	}

	for i, job := range jobs {
		resBody.Results[i] = common.TransferJobRes{
			Id:          job.Id,
			ServiceKey:  job.ServiceKey,
			State:       job.State,
			Detail:      job.Detail,
			ProjectId:   job.ProjectId,
			FolderId:    job.FolderId,
			FilesTotal:  job.FilesTotal,
			FilesFailed: job.FilesFailed,
			CreatedAt:   job.CreatedAt,
			UpdatedAt:   job.UpdatedAt,
		}
	}

	encodeJSONResponseBody(w, r, resBody, http.StatusOK)
}

func (s *Server) checkReadiness(w http.ResponseWriter, r *http.Request) {
	if s.isShuttingDown.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func newBundleRes(b bundle.Bundle) common.BundleRes {
	resBody := common.BundleRes{
		MainFileName: b.MainFileName,
		MainXml:      b.MainXml,
		Subprocesses: make([]common.BundleFile, len(b.Subprocesses)),
		Forms:        make([]common.BundleFile, len(b.Forms)),
		Manifest:     b.Manifest,
	}

	for i, subprocess := range b.Subprocesses {
		resBody.Subprocesses[i] = common.BundleFile{Name: subprocess.Name, Content: subprocess.Xml}
	}
	for i, form := range b.Forms {
		resBody.Forms[i] = common.BundleFile{Name: form.FileName, Content: form.Content}
	}

	return resBody
}

// newTransferRes converts a transfer result, keeping both file lists non-nil
// so that the wire shape is stable.
func newTransferRes(result transfer.Result) common.TransferRes {
	resBody := common.TransferRes{
		JobId:     result.JobId,
		ProjectId: result.ProjectId,
		FolderId:  result.FolderId,
		Complete:  result.Complete(),
		Succeeded: make([]common.TransferFile, 0, len(result.Succeeded)),
		Failed:    make([]common.TransferFailure, 0, len(result.Failed)),
	}

	for _, uploaded := range result.Succeeded {
		resBody.Succeeded = append(resBody.Succeeded, common.TransferFile{Name: uploaded.Name, RemoteId: uploaded.RemoteId})
	}
	for _, failed := range result.Failed {
		resBody.Failed = append(resBody.Failed, common.TransferFailure{Name: failed.Name, Error: failed.Error})
	}

	return resBody
}

func writeEvent(w http.ResponseWriter, eventName string, v any) error {
	if _, err := fmt.Fprintf(w, "event: %s\ndata: ", eventName); err != nil {
		return err
	}

	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if _, err := w.Write(b); err != nil {
		return err
	}

	_, err = w.Write([]byte("\n\n"))
	return err
}
