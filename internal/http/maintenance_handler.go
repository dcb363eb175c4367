package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"

	"github.com/example/device-scheduler/internal/application"
)

type maintenanceService interface {
	GetMaintenance(ctx context.Context, deviceID string) (application.MaintenanceStatus, error)
	SaveMaintenance(ctx context.Context, deviceID string, input application.MaintenanceInput) (application.MaintenanceStatus, error)
	Upcoming(ctx context.Context, deviceID string, from, to time.Time) ([]time.Time, error)
	QuarterCost(ctx context.Context, now time.Time) (application.QuarterCost, error)
	Overview(ctx context.Context, now time.Time) (application.MaintenanceOverview, error)
}

type MaintenanceHandler struct {
	service   maintenanceService
	responder responder
	times     timeCodec
	now       func() time.Time
	logger    *slog.Logger
}

// NewMaintenanceHandler builds the maintenance handler. Dates are exchanged
// as calendar days in loc; now supplies the reference instant for projections.
func NewMaintenanceHandler(service maintenanceService, loc *time.Location, now func() time.Time, logger *slog.Logger) *MaintenanceHandler {
	base := defaultLogger(logger)
	times := newTimeCodec(loc)
	if now == nil {
		now = time.Now
	}
	return &MaintenanceHandler{service: service, responder: newResponder(base, times), times: times, now: now, logger: base}
}

func (h *MaintenanceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "MaintenanceHandler", operation, attrs...)
}

// Get returns the maintenance record of a device. With ?until=YYYY-MM-DD the
// response also lists the scheduled dates from now until that day.
func (h *MaintenanceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	logger := h.log(r.Context(), "Get", "device_id", deviceID)

	var until *time.Time
	if raw := r.URL.Query().Get("until"); raw != "" {
		parsed, err := h.times.parseDate(&raw)
		if err != nil {
			h.responder.writeFieldErrors(r.Context(), w, map[string]string{"until": msgInvalidDate})
			return
		}
		until = parsed
	}

	status, err := h.service.GetMaintenance(r.Context(), deviceID)
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	dto := h.toMaintenanceDTO(status)
	if until != nil {
		// until is inclusive; the day ends just before the next midnight.
		dates, err := h.service.Upcoming(r.Context(), deviceID, h.now(), until.AddDate(0, 0, 1).Add(-time.Nanosecond))
		if err != nil {
			logger.ErrorContext(r.Context(), "maintenance preview failed", "error", err, "error_kind", application.ErrorKind(err))
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		dto.Upcoming = make([]string, 0, len(dates))
		for i := range dates {
			dto.Upcoming = append(dto.Upcoming, *h.times.formatDate(&dates[i]))
		}
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceResponse{Maintenance: dto})
}

func (h *MaintenanceHandler) Save(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	var req maintenanceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Save", "device_id", deviceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode maintenance request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	input, fieldErrs := h.toInput(req)
	if len(fieldErrs) > 0 {
		h.responder.writeFieldErrors(r.Context(), w, fieldErrs)
		return
	}

	logger := h.log(r.Context(), "Save", "device_id", deviceID)
	status, err := h.service.SaveMaintenance(r.Context(), deviceID, input)
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance save failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "maintenance saved")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, maintenanceResponse{Maintenance: h.toMaintenanceDTO(status)})
}

func (h *MaintenanceHandler) Overview(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Overview")
	overview, err := h.service.Overview(r.Context(), h.now())
	if err != nil {
		logger.ErrorContext(r.Context(), "maintenance overview failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := overviewResponse{
		Devices: make([]deviceMaintenanceDTO, 0, len(overview.Devices)),
		Quarter: h.toQuarterDTO(overview.Quarter),
	}
	for _, d := range overview.Devices {
		resp.Devices = append(resp.Devices, deviceMaintenanceDTO{
			Device:      toDeviceDTO(d.Device),
			Maintenance: h.toMaintenanceDTO(d.MaintenanceStatus),
		})
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *MaintenanceHandler) QuarterCost(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	cost, err := h.service.QuarterCost(r.Context(), h.now())
	if err != nil {
		h.log(r.Context(), "QuarterCost").ErrorContext(r.Context(), "quarter cost failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, h.toQuarterDTO(cost))
}

func (h *MaintenanceHandler) toInput(req maintenanceRequest) (application.MaintenanceInput, map[string]string) {
	fields := make(map[string]string)
	var input application.MaintenanceInput

	first, err := h.times.parseDate(req.FirstMaintenance)
	if err != nil {
		fields["first_maintenance"] = msgInvalidDate
	}
	input.FirstMaintenance = first

	eol, err := h.times.parseDate(req.EndOfLife)
	if err != nil {
		fields["end_of_life"] = msgInvalidDate
	}
	input.EndOfLife = eol

	if req.IntervalDays != nil {
		input.IntervalDays = *req.IntervalDays
	}
	if req.Cost != nil {
		input.Cost = *req.Cost
	}
	return input, fields
}

func (h *MaintenanceHandler) toMaintenanceDTO(status application.MaintenanceStatus) maintenanceDTO {
	record := status.Record
	dto := maintenanceDTO{
		DeviceID:         record.DeviceID,
		FirstMaintenance: h.times.formatDate(record.FirstMaintenance),
		Cost:             record.Cost.StringFixed(2),
		EndOfLife:        h.times.formatDate(record.EndOfLife),
		NextMaintenance:  h.times.formatDate(status.NextDate),
		State:            string(status.State),
	}
	if record.IntervalDays > 0 {
		interval := record.IntervalDays
		dto.IntervalDays = &interval
	}
	return dto
}

func (h *MaintenanceHandler) toQuarterDTO(cost application.QuarterCost) quarterDTO {
	return quarterDTO{
		QuarterStart: *h.times.formatDate(&cost.QuarterStart),
		QuarterEnd:   *h.times.formatDate(&cost.QuarterEnd),
		Total:        cost.Total.StringFixed(2),
	}
}

// maintenanceRequest replaces the schedule of a device. Cost accepts a JSON
// number or a decimal string.
type maintenanceRequest struct {
	FirstMaintenance *string          `json:"first_maintenance"`
	IntervalDays     *int             `json:"maintenance_interval_days"`
	Cost             *decimal.Decimal `json:"maintenance_cost"`
	EndOfLife        *string          `json:"end_of_life"`
}

type maintenanceResponse struct {
	Maintenance maintenanceDTO `json:"maintenance"`
}

type maintenanceDTO struct {
	DeviceID         string   `json:"device_id"`
	FirstMaintenance *string  `json:"first_maintenance"`
	IntervalDays     *int     `json:"maintenance_interval_days"`
	Cost             string   `json:"maintenance_cost"`
	EndOfLife        *string  `json:"end_of_life"`
	NextMaintenance  *string  `json:"next_maintenance"`
	State            string   `json:"state"`
	Upcoming         []string `json:"upcoming,omitempty"`
}

type deviceMaintenanceDTO struct {
	Device      deviceDTO      `json:"device"`
	Maintenance maintenanceDTO `json:"maintenance"`
}

type quarterDTO struct {
	QuarterStart string `json:"quarter_start"`
	QuarterEnd   string `json:"quarter_end"`
	Total        string `json:"total"`
}

type overviewResponse struct {
	Devices []deviceMaintenanceDTO `json:"devices"`
	Quarter quarterDTO             `json:"quarter"`
}
