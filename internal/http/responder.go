package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/application"
)

var (
	errBadRequestBody  = errors.New("Ungültiges Anfrageformat.")
	errMissingDeviceID = errors.New("Geräte-ID fehlt.")
	errMissingUserID   = errors.New("Benutzer-ID fehlt.")
)

const (
	msgInvalidInput   = "Eingaben sind fehlerhaft."
	msgInvalidTime    = "Ungültiges Datum oder Uhrzeit (erwartet JJJJ-MM-TTTHH:MM)."
	msgInvalidDate    = "Ungültiges Datum (erwartet JJJJ-MM-TT)."
	msgInvalidWindow  = "Startzeit muss vor der Endzeit liegen."
	msgUnavailable    = "Gerät ist in diesem Zeitraum bereits reserviert."
	msgNotFound       = "Die angeforderte Ressource wurde nicht gefunden."
	msgAlreadyExists  = "Ein Eintrag mit dieser ID existiert bereits."
	msgInternalFailed = "Interner Serverfehler."
)

type responder struct {
	logger *slog.Logger
	times  timeCodec
}

func newResponder(logger *slog.Logger, times timeCodec) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger, times: times}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := localizedStatusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

// writeFieldErrors reports request level format problems the same way
// service validation errors are reported.
func (r responder) writeFieldErrors(ctx context.Context, w http.ResponseWriter, fields map[string]string) {
	r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
		ErrorCode: "VALIDATION_FAILED",
		Message:   msgInvalidInput,
		Errors:    fields,
	})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	var conflict *application.ConflictError
	var vErr *application.ValidationError
	switch {
	case errors.As(err, &conflict):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{
			ErrorCode: "DEVICE_UNAVAILABLE",
			Message:   msgUnavailable,
			Conflicts: toConflictDTOs(r.times, conflict),
		})
	case errors.Is(err, application.ErrDeviceUnavailable):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "DEVICE_UNAVAILABLE", Message: msgUnavailable})
	case errors.Is(err, application.ErrInvalidWindow):
		r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
			ErrorCode: "INVALID_WINDOW",
			Message:   msgInvalidWindow,
			Errors:    map[string]string{"end": msgInvalidWindow},
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{ErrorCode: "NOT_FOUND", Message: msgNotFound})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{ErrorCode: "ALREADY_EXISTS", Message: msgAlreadyExists})
	case errors.As(err, &vErr):
		r.writeFieldErrors(ctx, w, vErr.FieldErrors)
	default:
		r.loggerFor(ctx).ErrorContext(ctx, "unexpected service error", "error", err)
		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: msgInternalFailed})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func localizedStatusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return errBadRequestBody.Error()
	case http.StatusNotFound:
		return msgNotFound
	case http.StatusMethodNotAllowed:
		return "Methode nicht erlaubt."
	case http.StatusConflict:
		return "Die Anfrage steht im Konflikt mit dem aktuellen Zustand."
	case http.StatusUnprocessableEntity:
		return msgInvalidInput
	default:
		return msgInternalFailed
	}
}

// decodeJSON reads a single JSON object from the request body. Unknown
// fields are rejected.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
	Conflicts []conflictDTO     `json:"conflicts,omitempty"`
}

type conflictDTO struct {
	ReservationID string `json:"reservation_id"`
	UserID        string `json:"user_id"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

func toConflictDTOs(times timeCodec, conflict *application.ConflictError) []conflictDTO {
	if conflict == nil || len(conflict.Conflicts) == 0 {
		return nil
	}
	out := make([]conflictDTO, 0, len(conflict.Conflicts))
	for _, c := range conflict.Conflicts {
		out = append(out, conflictDTO{
			ReservationID: c.WithReservationID,
			UserID:        c.UserID,
			Start:         times.formatInstant(c.Start),
			End:           times.formatInstant(c.End),
		})
	}
	return out
}
