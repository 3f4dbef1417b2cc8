package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"ecodefill-backend/internal/domain"
	"ecodefill-backend/internal/logger"
	"ecodefill-backend/internal/roster"
)

const streamHeartbeat = 25 * time.Second

func (s *Server) handleListMembers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.Members(r.Context()))
}

type setStatusRequest struct {
	Status string `json:"status"`
}

func (s *Server) handleSetStatus(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]
	var req setStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	status := domain.RegistrationStatus(req.Status)
	if err := s.admin.SetRegistrationStatus(r.Context(), uid, status); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"uid": uid, "status": status})
}

func (s *Server) handleMachineStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.admin.MachineStats(r.Context()))
}

// handleStreamMembers pushes the roster state as server-sent events. Only the
// newest state is kept when the client reads slower than the roster changes.
func (s *Server) handleStreamMembers(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, fmt.Errorf("streaming unsupported"))
		return
	}

	updates := make(chan roster.State, 1)
	cancel := s.admin.WatchMembers(func(st roster.State) {
		select {
		case <-updates:
		default:
		}
		updates <- st
	})
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamHeartbeat)
	defer ticker.Stop()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()
		case st := <-updates:
			data, err := json.Marshal(st)
			if err != nil {
				logger.Error("Failed to marshal roster state", "error", err)
				continue
			}
			fmt.Fprintf(w, "id: %d\nevent: members\ndata: %s\n\n", st.Version, data)
			flusher.Flush()
		}
	}
}
