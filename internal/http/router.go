package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
)

// HealthChecker reports whether the backing store is usable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	Users        *UserHandler
	Devices      *DeviceHandler
	Reservations *ReservationHandler
	Maintenance  *MaintenanceHandler
	Health       HealthChecker
	Logger       *slog.Logger
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()
	responder := newResponder(cfg.Logger, newTimeCodec(nil))

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: msgNotFound})
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		responder.writeJSON(r.Context(), w, http.StatusMethodNotAllowed, errorResponse{Message: localizedStatusMessage(http.StatusMethodNotAllowed)})
	})

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Health != nil {
			if err := cfg.Health.Ping(r.Context()); err != nil {
				responder.writeError(r.Context(), w, http.StatusServiceUnavailable, err)
				return
			}
		}
		responder.writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	if cfg.Users != nil {
		router.HandleFunc("/users", cfg.Users.List).Methods(http.MethodGet)
		router.HandleFunc("/users", cfg.Users.Create).Methods(http.MethodPost)
		router.HandleFunc("/users/{id}", cfg.Users.Delete).Methods(http.MethodDelete)
	}

	if cfg.Devices != nil {
		router.HandleFunc("/devices", cfg.Devices.List).Methods(http.MethodGet)
		router.HandleFunc("/devices", cfg.Devices.Create).Methods(http.MethodPost)
		router.HandleFunc("/devices/{id}", cfg.Devices.Get).Methods(http.MethodGet)
		router.HandleFunc("/devices/{id}", cfg.Devices.Update).Methods(http.MethodPut)
		router.HandleFunc("/devices/{id}", cfg.Devices.Delete).Methods(http.MethodDelete)
	}

	if cfg.Reservations != nil {
		router.HandleFunc("/devices/{id}/availability", cfg.Reservations.Availability).Methods(http.MethodGet)
		router.HandleFunc("/reservations", cfg.Reservations.List).Methods(http.MethodGet)
		router.HandleFunc("/reservations", cfg.Reservations.Create).Methods(http.MethodPost)
	}

	if cfg.Maintenance != nil {
		router.HandleFunc("/devices/{id}/maintenance", cfg.Maintenance.Get).Methods(http.MethodGet)
		router.HandleFunc("/devices/{id}/maintenance", cfg.Maintenance.Save).Methods(http.MethodPut)
		router.HandleFunc("/maintenance/overview", cfg.Maintenance.Overview).Methods(http.MethodGet)
		router.HandleFunc("/maintenance/quarter-cost", cfg.Maintenance.QuarterCost).Methods(http.MethodGet)
	}

	// Middleware wraps the whole router so unmatched routes are logged too.
	var handler http.Handler = router
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}
