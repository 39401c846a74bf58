package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rook-computer/photoframe/internal/buttons"
	"github.com/rook-computer/photoframe/internal/state"
)

type apiError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type okResponse struct {
	OK bool `json:"ok"`
}

// StatusSource provides the published frame state.
type StatusSource interface {
	Snapshot() state.State
}

type APIV1Deps struct {
	Status   StatusSource
	Controls buttons.Pusher
}

func apiV1Router(deps APIV1Deps) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/status", func(w http.ResponseWriter, r *http.Request) { handleStatus(w, r, deps) })
	mux.HandleFunc("/control/", func(w http.ResponseWriter, r *http.Request) { handleControl(w, r, deps) })
	return mux
}

func handleStatus(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodGet {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Status == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "status not configured")
		return
	}
	writeJSON(w, http.StatusOK, deps.Status.Snapshot())
}

// handleControl feeds POST /control/{action} into the frame loop's input queue.
func handleControl(w http.ResponseWriter, r *http.Request, deps APIV1Deps) {
	if r.Method != http.MethodPost {
		writeAPIError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
		return
	}
	if deps.Controls == nil {
		writeAPIError(w, http.StatusNotImplemented, "not_implemented", "controls not configured")
		return
	}
	action := strings.Trim(strings.TrimPrefix(r.URL.Path, "/control/"), "/")
	ev, ok := buttons.ParseEvent(action)
	if !ok {
		writeAPIError(w, http.StatusNotFound, "unknown_action", "unknown action "+action)
		return
	}
	if !deps.Controls.Push(ev) {
		writeAPIError(w, http.StatusServiceUnavailable, "queue_full", "input queue is full")
		return
	}
	writeJSON(w, http.StatusAccepted, okResponse{OK: true})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeAPIError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, apiError{Error: code, Message: message})
}
