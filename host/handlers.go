package host

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/jonwraymond/offlinecache/notify"
	"github.com/jonwraymond/offlinecache/observe"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// handleMessage accepts a control message and hands it to the worker.
func (h *Host) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg notify.Message
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid message body"})
		return
	}

	if err := h.worker.HandleMessage(r.Context(), msg); err != nil {
		if errors.Is(err, notify.ErrUnknownType) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		h.logger.Error(r.Context(), "control message failed",
			observe.Field{Key: "type", Value: string(msg.Type)},
			observe.Field{Key: "error", Value: err.Error()})
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

// handleVersion reports the installed cache version.
func (h *Host) handleVersion(w http.ResponseWriter, r *http.Request) {
	version, installed, err := h.worker.CurrentVersion(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	body := map[string]any{"installed": installed}
	if installed {
		body["version"] = version
	}
	if last := h.worker.LastCheck(); !last.IsZero() {
		body["last_update_check"] = last.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, body)
}

// handleEvents streams update notifications as server-sent events
// until the client disconnects.
func (h *Host) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	msgs, cancel := h.hub.Subscribe()
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	enc := json.NewEncoder(w)
	for {
		select {
		case <-r.Context().Done():
			return
		case msg, open := <-msgs:
			if !open {
				return
			}
			if _, err := w.Write([]byte("data: ")); err != nil {
				return
			}
			if err := enc.Encode(msg); err != nil {
				return
			}
			if _, err := w.Write([]byte("\n")); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
