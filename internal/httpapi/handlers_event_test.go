package httpapi

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandleEventRequiresEventType(t *testing.T) {
	srv := NewServer(Deps{Log: testLog()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/event", bytes.NewReader([]byte(`{"payload":{}}`)))
	w := httptest.NewRecorder()

	srv.handleEvent(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleEventRejectsMalformedBody(t *testing.T) {
	srv := NewServer(Deps{Log: testLog()})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/event", bytes.NewReader([]byte("not json")))
	w := httptest.NewRecorder()

	srv.handleEvent(w, req)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
