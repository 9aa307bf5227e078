package health

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"
)

// SnapshotSource is implemented by Scheduler.
type SnapshotSource interface {
	Snapshot(ctx context.Context) *Snapshot
}

// Updater is implemented by Scheduler and Registry.
type Updater interface {
	Update(key string, value any)
}

// maxUpdateBody bounds the request body accepted by UpdateHandler.
const maxUpdateBody = 1 << 20

// LivenessHandler returns an HTTP handler for liveness probes.
// This is a simple check that the service is running.
func LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}
}

// SnapshotHandler serves the current snapshot as a JSON object with sorted
// keys. A lazy refresh triggered by the request is bounded by the request
// context and a 5 second limit.
func SnapshotHandler(src SnapshotSource) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		body, err := json.Marshal(src.Snapshot(ctx))
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// UpdateHandler stores the JSON request body under the {key} path value.
// Reserved keys are rejected.
func UpdateHandler(u Updater) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := r.PathValue("key")
		if key == "" || IsReserved(key) {
			writeError(w, http.StatusBadRequest, "invalid key")
			return
		}

		var value any
		if err := json.NewDecoder(io.LimitReader(r.Body, maxUpdateBody)).Decode(&value); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}

		u.Update(key, value)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// RegisterHandlers registers the health handlers on mux:
// GET /healthz, GET /health and PUT /health/{key}.
func RegisterHandlers(mux *http.ServeMux, s *Scheduler) {
	mux.HandleFunc("GET /healthz", LivenessHandler())
	mux.HandleFunc("GET /health", SnapshotHandler(s))
	mux.HandleFunc("PUT /health/{key}", UpdateHandler(s))
}
