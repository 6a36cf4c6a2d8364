package gateway

import (
	"fmt"
	"net/http"

	"github.com/manthysbr/connectorseed/internal/core/services"
)

// handleBatchEvents streams progress of the batch started with the same
// X-Request-ID. Subscribe before posting the batch; events are not replayed.
// GET /api/batches/{id}/events
func (s *Server) handleBatchEvents(w http.ResponseWriter, r *http.Request) {
	batchID := r.PathValue("id")
	if batchID == "" {
		http.Error(w, "missing batch id", http.StatusBadRequest)
		return
	}
	if s.events == nil {
		http.Error(w, "event stream disabled", http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	ch, unsub := s.events.Subscribe(batchID)
	defer unsub()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", evt.Type, evt.Data)
			flusher.Flush()
			if evt.Type == services.EventBatchFinished {
				return
			}
		}
	}
}
