package admin

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/pubsink/pubsink/journal"
	"github.com/pubsink/pubsink/sink"
)

// Handlers serves the admin API endpoints
type Handlers struct {
	task    *sink.Task
	journal *journal.Journal
}

// NewHandlers creates a Handlers instance. The journal may be nil when
// checkpoint persistence is disabled.
func NewHandlers(task *sink.Task, j *journal.Journal) *Handlers {
	return &Handlers{task: task, journal: j}
}

// statusResponse is the /status payload
type statusResponse struct {
	Stats               sink.StatsSnapshot `json:"stats"`
	BufferedRecords     int                `json:"buffered_records"`
	OutstandingRequests int                `json:"outstanding_requests"`
}

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, map[string]string{"status": "ok"})
}

func (h *Handlers) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, statusResponse{
		Stats:               h.task.Stats().Snapshot(),
		BufferedRecords:     h.task.Buffered(),
		OutstandingRequests: h.task.OutstandingPublishes(),
	})
}

func (h *Handlers) handleCheckpoints(w http.ResponseWriter, r *http.Request) {
	if h.journal == nil {
		writeJSONResponse(w, []journal.Entry{})
		return
	}

	entries, err := h.journal.All()
	if err != nil {
		writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []journal.Entry{}
	}
	writeJSONResponse(w, entries)
}

// writeJSONResponse writes a successful JSON response
func writeJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"data": data}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error JSON response
func writeErrorResponse(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]interface{}{"error": message}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}
