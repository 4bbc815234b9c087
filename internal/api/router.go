package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"attendance.agent/internal/api/handler"
)

// NewRouter sets up the gorilla/mux router for the local facade the
// presentation layer talks to.
func NewRouter(h *handler.AttendanceHandler) *mux.Router {

	r := mux.NewRouter()

	api := r.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	api.HandleFunc("/shifts", h.Shifts).Methods(http.MethodGet)
	api.HandleFunc("/late-check", h.LateCheck).Methods(http.MethodGet)
	api.HandleFunc("/clock-in", h.ClockIn).Methods(http.MethodPost)
	api.HandleFunc("/clock-out", h.ClockOut).Methods(http.MethodPost)
	api.HandleFunc("/qr-scan", h.QRScan).Methods(http.MethodPost)
	api.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Agent is operational."))
	}).Methods(http.MethodGet)

	return r
}
