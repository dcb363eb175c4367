package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/device-scheduler/internal/application"
)

type reservationService interface {
	CheckAvailability(ctx context.Context, deviceID string, start, end time.Time) (application.Availability, error)
	CreateReservation(ctx context.Context, input application.ReservationInput) (application.Reservation, error)
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.ReservationView, error)
}

type ReservationHandler struct {
	service   reservationService
	responder responder
	times     timeCodec
	logger    *slog.Logger
}

// NewReservationHandler builds the reservation handler. Instants without an
// offset are interpreted in loc.
func NewReservationHandler(service reservationService, loc *time.Location, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	times := newTimeCodec(loc)
	return &ReservationHandler{service: service, responder: newResponder(base, times), times: times, logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	params := application.ListReservationsParams{DeviceID: strings.TrimSpace(r.URL.Query().Get("device_id"))}
	logger := h.log(r.Context(), "List", "device_id", params.DeviceID)

	views, err := h.service.ListReservations(r.Context(), params)
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(views)).InfoContext(r.Context(), "reservations listed")
	out := make([]reservationDTO, 0, len(views))
	for _, v := range views {
		out = append(out, h.toReservationDTO(v))
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listReservationsResponse{Reservations: out})
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req reservationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode reservation request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	start, end, fieldErrs := h.parseWindow(req.Start, req.End)
	if len(fieldErrs) > 0 {
		h.responder.writeFieldErrors(r.Context(), w, fieldErrs)
		return
	}

	logger := h.log(r.Context(), "Create", "device_id", req.DeviceID, "user_id", req.UserID)
	reservation, err := h.service.CreateReservation(r.Context(), application.ReservationInput{
		DeviceID: strings.TrimSpace(req.DeviceID),
		UserID:   strings.TrimSpace(req.UserID),
		Start:    start,
		End:      end,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "reservation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("reservation_id", reservation.ID).InfoContext(r.Context(), "reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, reservationResponse{
		Reservation: h.toReservationDTO(application.ReservationView{Reservation: reservation}),
	})
}

// Availability answers GET /devices/{id}/availability?start=&end=.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	query := r.URL.Query()
	start, end, fieldErrs := h.parseWindow(query.Get("start"), query.Get("end"))
	if len(fieldErrs) > 0 {
		h.responder.writeFieldErrors(r.Context(), w, fieldErrs)
		return
	}

	availability, err := h.service.CheckAvailability(r.Context(), deviceID, start, end)
	if err != nil {
		h.log(r.Context(), "Availability", "device_id", deviceID).ErrorContext(r.Context(), "availability check failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, availabilityResponse{
		DeviceID:  availability.DeviceID,
		Start:     h.times.formatInstant(availability.Start),
		End:       h.times.formatInstant(availability.End),
		Available: availability.Available,
		Conflicts: toConflictDTOs(h.times, &application.ConflictError{DeviceID: deviceID, Conflicts: availability.Conflicts}),
	})
}

func (h *ReservationHandler) parseWindow(rawStart, rawEnd string) (time.Time, time.Time, map[string]string) {
	fields := make(map[string]string)
	start, err := h.times.parseInstant(rawStart)
	if err != nil {
		fields["start"] = msgInvalidTime
	}
	end, err := h.times.parseInstant(rawEnd)
	if err != nil {
		fields["end"] = msgInvalidTime
	}
	return start, end, fields
}

func (h *ReservationHandler) toReservationDTO(v application.ReservationView) reservationDTO {
	return reservationDTO{
		ID:         v.ID,
		DeviceID:   v.DeviceID,
		DeviceName: v.DeviceName,
		UserID:     v.UserID,
		UserName:   v.UserName,
		Start:      h.times.formatInstant(v.Start),
		End:        h.times.formatInstant(v.End),
	}
}

type reservationRequest struct {
	DeviceID string `json:"device_id"`
	UserID   string `json:"user_id"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type reservationResponse struct {
	Reservation reservationDTO `json:"reservation"`
}

type listReservationsResponse struct {
	Reservations []reservationDTO `json:"reservations"`
}

type reservationDTO struct {
	ID         string `json:"id"`
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name,omitempty"`
	UserID     string `json:"user_id"`
	UserName   string `json:"user_name,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
}

type availabilityResponse struct {
	DeviceID  string        `json:"device_id"`
	Start     string        `json:"start"`
	End       string        `json:"end"`
	Available bool          `json:"available"`
	Conflicts []conflictDTO `json:"conflicts,omitempty"`
}
