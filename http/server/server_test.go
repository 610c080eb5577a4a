package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/transfer"
	"github.com/stretchr/testify/assert"
)

func TestRecoveryHandler(t *testing.T) {
	assert := assert.New(t)

	handler := recoveryHandler{handler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("store is gone")
	})}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/services/SVC-001/bundle", nil)

	// when the wrapped handler panics
	handler.ServeHTTP(w, r)

	// then the response is a problem, not a severed connection
	assert.Equal(http.StatusInternalServerError, w.Code)
	assert.Equal(ContentTypeProblemJson, w.Header().Get(HeaderContentType))

	var problem common.Problem
	if err := json.NewDecoder(w.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode JSON problem response body: %v", err)
	}

	assert.Equal(http.StatusInternalServerError, problem.Status)
	assert.Equal("unexpected error occurred", problem.Title)
	assert.Equal("see server logs", problem.Detail)
}

func TestRecoveryHandlerRethrowsAbort(t *testing.T) {
	assert := assert.New(t)

	handler := recoveryHandler{handler: http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic(http.ErrAbortHandler)
	})}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/services/SVC-001/diagram/events", nil)

	// the abort sentinel must reach the HTTP server
	assert.PanicsWithValue(http.ErrAbortHandler, func() {
		handler.ServeHTTP(w, r)
	})
}

func TestNewTransferRes(t *testing.T) {
	assert := assert.New(t)

	resBody := newTransferRes(transfer.Result{
		JobId:     1,
		ProjectId: "p-1",
		FolderId:  "f-1",
		Succeeded: []transfer.UploadedFile{{Name: "device-onboarding.bpmn", RemoteId: "file-1"}},
	})

	assert.True(resBody.Complete)
	assert.NotNil(resBody.Failed, "failed list must be non-nil for a stable wire shape")

	b, err := json.Marshal(resBody)
	if err != nil {
		t.Fatalf("failed to marshal transfer response body: %v", err)
	}

	assert.Contains(string(b), `"failed":[]`)
	assert.NotContains(string(b), `"failed":null`)

	// and the failure list carries name and error
	resBody = newTransferRes(transfer.Result{
		Failed: []transfer.FailedFile{{Name: "device-onboarding-02.form", Error: "HTTP 502"}},
	})

	assert.False(resBody.Complete)
	assert.Empty(resBody.Succeeded)
	assert.Len(resBody.Failed, 1)
}
