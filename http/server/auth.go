package server

import (
	"crypto/subtle"
	"log"
	"net/http"
	"runtime/debug"

	"github.com/manualsvc/bundler/http/common"
)

type basicAuthHandler struct {
	username string
	password string
	handler  http.Handler
}

func (h *basicAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == PathReadiness {
		h.handler.ServeHTTP(w, r)
		return
	}

	username, password, ok := r.BasicAuth()
	if !ok ||
		subtle.ConstantTimeCompare([]byte(username), []byte(h.username)) == 0 ||
		subtle.ConstantTimeCompare([]byte(password), []byte(h.password)) == 0 {
		log.Printf("%s %s: authentication failed for %s", r.Method, r.RequestURI, r.RemoteAddr)
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	h.handler.ServeHTTP(w, r)
}

// recoveryHandler is the outermost handler. It turns handler panics into
// logged 500 problems instead of tearing down the connection.
type recoveryHandler struct {
	handler http.Handler
}

func (h *recoveryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		if v == http.ErrAbortHandler { // sentinel for deliberately aborted responses
			panic(v)
		}

		log.Printf("%s %s: handler panic: %v\n%s", r.Method, r.RequestURI, v, debug.Stack())

		encodeJSONProblemResponseBody(w, r, common.Problem{
			Status: http.StatusInternalServerError,
			Title:  "unexpected error occurred",
			Detail: "see server logs",
		})
	}()

	h.handler.ServeHTTP(w, r)
}
