package httpapi

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/nsf/jsondiff"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/dhiway/jobstack-bap/internal/errs"
)

func testLog() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func assertJSONMatches(t *testing.T, got []byte, want string) {
	t.Helper()
	opts := jsondiff.DefaultConsoleOptions()
	mode, diff := jsondiff.Compare(got, []byte(want), &opts)
	require.Equal(t, jsondiff.FullMatch, mode, "json mismatch: %s", diff)
}

func TestWriteJSONSetsContentTypeAndBody(t *testing.T) {
	w := httptest.NewRecorder()
	writeJSON(w, 201, map[string]any{"id": "abc"})

	require.Equal(t, 201, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assertJSONMatches(t, w.Body.Bytes(), `{"id":"abc"}`)
}

func TestWriteErrorMapsValidationToBadRequest(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(testLog(), w, "handleApply", errs.Validation("handleApply", errors.New("job_id required")))

	require.Equal(t, 400, w.Code)
	assertJSONMatches(t, w.Body.Bytes(), `{"error":"validation","message":"handleApply: job_id required"}`)
}

func TestWriteErrorMapsConflictToOK(t *testing.T) {
	w := httptest.NewRecorder()
	writeError(testLog(), w, "handleApply", errs.Conflict("handleApply", errors.New("already applied")))

	require.Equal(t, 200, w.Code)
	assertJSONMatches(t, w.Body.Bytes(), `{"error":"conflict","message":"handleApply: already applied"}`)
}

func TestWriteAckSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	writeAck(w, true)

	require.Equal(t, 200, w.Code)
	assertJSONMatches(t, w.Body.Bytes(), `{"message":{"ack":{"status":"ACK"}}}`)
}

func TestWriteAckFailure(t *testing.T) {
	w := httptest.NewRecorder()
	writeAck(w, false)

	require.Equal(t, 400, w.Code)
	assertJSONMatches(t, w.Body.Bytes(), `{"message":{"ack":{"status":"NACK"}}}`)
}

func TestKindLabelCoversAllKinds(t *testing.T) {
	cases := map[errs.Kind]string{
		errs.KindConfigInvalid:    "config_invalid",
		errs.KindStoreUnavailable: "store_unavailable",
		errs.KindExternalService:  "external_service",
		errs.KindTimeout:          "timeout",
		errs.KindValidation:       "validation",
		errs.KindUnauthorized:     "unauthorized",
		errs.KindConflict:         "conflict",
		errs.KindNotFound:         "not_found",
		errs.KindUnknown:          "unknown",
	}
	for kind, want := range cases {
		require.Equal(t, want, kindLabel(kind))
	}
}
