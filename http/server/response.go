package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/manualsvc/bundler/bundle"
	"github.com/manualsvc/bundler/http/common"
	"github.com/manualsvc/bundler/store"
)

func encodeJSONProblemResponseBody(w http.ResponseWriter, r *http.Request, err error) {
	problem, ok := err.(common.Problem)
	if !ok {
		bundleErr, isBundleErr := err.(bundle.Error)
		switch {
		case isBundleErr && bundleErr.Type == bundle.ErrorMalformedInput:
			problem = common.Problem{
				Status: http.StatusBadRequest,
				Type:   common.ProblemMalformedInput,
				Title:  bundleErr.Title,
				Detail: bundleErr.Detail,
			}
		case isBundleErr && bundleErr.Type == bundle.ErrorNoDiagram:
			problem = common.Problem{
				Status: http.StatusNotFound,
				Type:   common.ProblemNoDiagram,
				Title:  bundleErr.Title,
				Detail: bundleErr.Detail,
			}
		case isBundleErr && bundleErr.Type == bundle.ErrorElementNotFound:
			problem = common.Problem{
				Status: http.StatusNotFound,
				Type:   common.ProblemNotFound,
				Title:  bundleErr.Title,
				Detail: bundleErr.Detail,
			}
		case errors.Is(err, store.ErrNotFound):
			problem = common.Problem{
				Status: http.StatusNotFound,
				Type:   common.ProblemNotFound,
				Title:  "not found",
				Detail: err.Error(),
			}
		default:
			log.Printf("%s %s: unexpected error occurred: %v", r.Method, r.RequestURI, err)

			problem = common.Problem{
				Status: http.StatusInternalServerError,
				Title:  "unexpected error occurred",
				Detail: "see server logs",
			}
		}
	}

	w.Header().Set(HeaderContentType, ContentTypeProblemJson)
	w.WriteHeader(problem.Status)

	if err := json.NewEncoder(w).Encode(problem); err != nil {
		log.Printf("%s %s: failed to create JSON problem response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see server logs", http.StatusInternalServerError)
	}
}

func encodeJSONResponseBody(w http.ResponseWriter, r *http.Request, v any, statusCode int) {
	w.Header().Set(HeaderContentType, ContentTypeJson)
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("%s %s: failed to create JSON response body: %v", r.Method, r.RequestURI, err)
		http.Error(w, "unexpected error occurred - see logs", http.StatusInternalServerError)
	}
}
