package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dhiway/jobstack-bap/internal/errs"
	"github.com/dhiway/jobstack-bap/internal/events"
	"github.com/dhiway/jobstack-bap/internal/transient"
)

type eventRequest struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

// handleEvent implements POST /api/v1/event: admits a client-raised event
// onto the app_events stream for the event worker to pick up (spec §4.10
// step 0, the producer side of the consumer documented there).
func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(s.d.Log, w, "event", errs.Validation("decode request", err))
		return
	}
	if req.EventType == "" {
		writeError(s.d.Log, w, "event", errs.Validation("event_type is required", nil))
		return
	}

	evt := events.AppEvent{
		ID:        uuid.New().String(),
		EventType: req.EventType,
		Payload:   req.Payload,
		CreatedAt: time.Now().UTC(),
	}
	body, err := json.Marshal(evt)
	if err != nil {
		writeError(s.d.Log, w, "event", errs.ExternalService("marshal event", err))
		return
	}

	_, err = s.d.Transient.Publish(r.Context(), transient.EventStream, map[string]any{"event": string(body)})
	if err != nil {
		writeError(s.d.Log, w, "event", errs.StoreUnavailable("publish event", err))
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"event_id":   evt.ID,
		"status":     "ok",
		"stream":     transient.EventStream,
		"created_at": evt.CreatedAt,
	})
}
