// Package httpapi exposes the HTTP surface of spec §6: client-facing
// search/select/status/apply/drafts/events endpoints, and the network's
// webhook callbacks, routed the way the teacher's ingest package routes
// its own handlers (go/ingest/apis.go's gorilla/mux wiring).
package httpapi

import (
	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/adapter"
	"github.com/dhiway/jobstack-bap/internal/apply"
	"github.com/dhiway/jobstack-bap/internal/catalogue"
	"github.com/dhiway/jobstack-bap/internal/correlator"
	"github.com/dhiway/jobstack-bap/internal/payload"
	"github.com/dhiway/jobstack-bap/internal/search"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

// Deps bundles every collaborator a handler needs. The server holds
// exactly one of these; handlers are methods on *Server so table tests can
// construct a Server around fakes.
type Deps struct {
	Search     *search.Coordinator
	Apply      *apply.Coordinator
	Drafts     *apply.Drafts
	Store      catalogue.Store
	Transient  *transient.Store
	Correlator *correlator.Correlator
	Adapter    *adapter.Client

	ProfileIdentity payload.Identity

	XAPIKey string

	Log *logrus.Entry
}

// Server holds the routing dependencies and implements every handler as a
// method, mirroring the teacher's args-struct-plus-closures shape
// (go/ingest/apis.go's `args`) but as a named receiver for readability.
type Server struct {
	d Deps
}

func NewServer(d Deps) *Server {
	return &Server{d: d}
}
