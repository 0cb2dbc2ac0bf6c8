package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

// muxSetVars stamps mux path variables onto a request built by
// httptest.NewRequest, for handler tests that call a handler method
// directly instead of going through a mounted mux.Router.
func muxSetVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}
