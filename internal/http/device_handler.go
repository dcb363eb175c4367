package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/device-scheduler/internal/application"
)

type deviceService interface {
	AddDevice(ctx context.Context, input application.DeviceInput) (application.Device, error)
	UpdateDevice(ctx context.Context, id string, update application.DeviceUpdate) (application.Device, error)
	GetDevice(ctx context.Context, id string) (application.Device, error)
	ListDevices(ctx context.Context) ([]application.Device, error)
	DeleteDevice(ctx context.Context, id string) error
}

type DeviceHandler struct {
	service   deviceService
	responder responder
	logger    *slog.Logger
}

func NewDeviceHandler(service deviceService, logger *slog.Logger) *DeviceHandler {
	base := defaultLogger(logger)
	return &DeviceHandler{service: service, responder: newResponder(base, newTimeCodec(nil)), logger: base}
}

func (h *DeviceHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "DeviceHandler", operation, attrs...)
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	devices, err := h.service.ListDevices(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "device list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(devices)).InfoContext(r.Context(), "devices listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listDevicesResponse{Devices: toDeviceDTOs(devices)})
}

func (h *DeviceHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var req createDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode device request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create")
	device, err := h.service.AddDevice(r.Context(), application.DeviceInput{
		Name:            req.Name,
		ManagedByUserID: req.ManagedByUserID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "device creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("device_id", device.ID).InfoContext(r.Context(), "device created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, deviceResponse{Device: toDeviceDTO(device)})
}

func (h *DeviceHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	device, err := h.service.GetDevice(r.Context(), deviceID)
	if err != nil {
		h.log(r.Context(), "Get", "device_id", deviceID).ErrorContext(r.Context(), "device lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, deviceResponse{Device: toDeviceDTO(device)})
}

func (h *DeviceHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	if deviceID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDeviceID)
		return
	}

	var req updateDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.log(r.Context(), "Update", "device_id", deviceID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode device update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "device_id", deviceID)
	device, err := h.service.UpdateDevice(r.Context(), deviceID, application.DeviceUpdate{
		Name:            req.Name,
		ManagedByUserID: req.ManagedByUserID,
		IsActive:        req.IsActive,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "device update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "device updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, deviceResponse{Device: toDeviceDTO(device)})
}

func (h *DeviceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deviceID := strings.TrimSpace(mux.Vars(r)["id"])
	logger := h.log(r.Context(), "Delete", "device_id", deviceID)
	if err := h.service.DeleteDevice(r.Context(), deviceID); err != nil {
		logger.ErrorContext(r.Context(), "device delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "device deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type createDeviceRequest struct {
	Name            string `json:"name"`
	ManagedByUserID string `json:"managed_by_user_id"`
	IsActive        *bool  `json:"is_active"`
}

type updateDeviceRequest struct {
	Name            *string `json:"name"`
	ManagedByUserID *string `json:"managed_by_user_id"`
	IsActive        *bool   `json:"is_active"`
}

type deviceResponse struct {
	Device deviceDTO `json:"device"`
}

type listDevicesResponse struct {
	Devices []deviceDTO `json:"devices"`
}

type deviceDTO struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	ManagedByUserID string `json:"managed_by_user_id"`
	IsActive        bool   `json:"is_active"`
}

func toDeviceDTO(device application.Device) deviceDTO {
	return deviceDTO{
		ID:              device.ID,
		Name:            device.Name,
		ManagedByUserID: device.ManagedByUserID,
		IsActive:        device.IsActive,
	}
}

func toDeviceDTOs(devices []application.Device) []deviceDTO {
	out := make([]deviceDTO, 0, len(devices))
	for _, device := range devices {
		out = append(out, toDeviceDTO(device))
	}
	return out
}
