package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/dhiway/jobstack-bap/internal/becknctx"
	"github.com/dhiway/jobstack-bap/internal/errs"
)

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError maps err to the status prescribed by errs.HTTPStatus and
// writes the {error, message} body of spec §7.
func writeError(log *logrus.Entry, w http.ResponseWriter, op string, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)
	log.WithError(err).WithField("op", op).Warn("request failed")
	writeJSON(w, status, errorBody{Error: kindLabel(kind), Message: err.Error()})
}

func kindLabel(k errs.Kind) string {
	switch k {
	case errs.KindConfigInvalid:
		return "config_invalid"
	case errs.KindStoreUnavailable:
		return "store_unavailable"
	case errs.KindExternalService:
		return "external_service"
	case errs.KindTimeout:
		return "timeout"
	case errs.KindValidation:
		return "validation"
	case errs.KindUnauthorized:
		return "unauthorized"
	case errs.KindConflict:
		return "conflict"
	case errs.KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// writeAck writes the canonical {message:{ack:{status}}} envelope used on
// every webhook path (spec §6).
func writeAck(w http.ResponseWriter, ok bool) {
	if ok {
		writeJSON(w, http.StatusOK, becknctx.ACK())
		return
	}
	writeJSON(w, http.StatusBadRequest, becknctx.NACK())
}
