package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/example/device-scheduler/internal/maintenance"
)

// MaintenanceRepository captures the persistence operations needed by the
// maintenance service.
type MaintenanceRepository interface {
	GetOrCreateMaintenance(ctx context.Context, deviceID string) (MaintenanceRecord, error)
	SaveMaintenance(ctx context.Context, record MaintenanceRecord) (MaintenanceRecord, error)
	ListMaintenance(ctx context.Context) ([]MaintenanceRecord, error)
}

// MaintenanceService manages maintenance schedules and projects due dates and
// quarterly costs.
type MaintenanceService struct {
	records   MaintenanceRepository
	devices   DeviceCatalog
	projector *maintenance.Projector
	now       func() time.Time
	logger    *slog.Logger
}

// NewMaintenanceService constructs a maintenance service with the provided dependencies.
func NewMaintenanceService(records MaintenanceRepository, devices DeviceCatalog, projector *maintenance.Projector, now func() time.Time) *MaintenanceService {
	return NewMaintenanceServiceWithLogger(records, devices, projector, now, nil)
}

// NewMaintenanceServiceWithLogger constructs a maintenance service with a specified logger.
func NewMaintenanceServiceWithLogger(records MaintenanceRepository, devices DeviceCatalog, projector *maintenance.Projector, now func() time.Time, logger *slog.Logger) *MaintenanceService {
	if projector == nil {
		projector = maintenance.NewProjector(time.UTC)
	}
	if now == nil {
		now = time.Now
	}
	return &MaintenanceService{
		records:   records,
		devices:   devices,
		projector: projector,
		now:       now,
		logger:    defaultLogger(logger),
	}
}

func (s *MaintenanceService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "MaintenanceService", operation, attrs...)
}

// GetMaintenance returns the maintenance record of a device, creating an empty
// one on first access.
func (s *MaintenanceService) GetMaintenance(ctx context.Context, deviceID string) (MaintenanceStatus, error) {
	if s == nil {
		return MaintenanceStatus{}, errors.New("MaintenanceService is nil")
	}
	if s.records == nil {
		return MaintenanceStatus{}, errors.New("maintenance repository not configured")
	}
	if err := s.requireDevice(ctx, deviceID); err != nil {
		return MaintenanceStatus{}, err
	}

	record, err := s.records.GetOrCreateMaintenance(ctx, deviceID)
	if err != nil {
		return MaintenanceStatus{}, mapRepoError(err)
	}
	return s.status(record, s.now()), nil
}

// SaveMaintenance validates and stores the maintenance schedule of a device,
// replacing the previous one.
func (s *MaintenanceService) SaveMaintenance(ctx context.Context, deviceID string, input MaintenanceInput) (status MaintenanceStatus, err error) {
	if s == nil {
		err = errors.New("MaintenanceService is nil")
		return
	}
	if s.records == nil {
		err = errors.New("maintenance repository not configured")
		return
	}

	logger := s.loggerWith(ctx, "SaveMaintenance", "device_id", deviceID)
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to save maintenance", failureAttrs(err)...)
			return
		}
		logger.InfoContext(ctx, "maintenance saved", "state", string(status.State))
	}()

	if err = s.requireDevice(ctx, deviceID); err != nil {
		return
	}

	normalized := s.normalizeInput(input)
	if vErr := validateMaintenanceInput(normalized); vErr.HasErrors() {
		err = vErr
		return
	}

	record := MaintenanceRecord{
		ID:               deviceID,
		DeviceID:         deviceID,
		FirstMaintenance: normalized.FirstMaintenance,
		IntervalDays:     normalized.IntervalDays,
		Cost:             normalized.Cost,
		EndOfLife:        normalized.EndOfLife,
	}

	var saved MaintenanceRecord
	saved, err = s.records.SaveMaintenance(ctx, record)
	if err != nil {
		err = mapRepoError(err)
		return
	}
	status = s.status(saved, s.now())
	return
}

// NextMaintenance returns the next maintenance date of a device. The boolean
// is false when no date can be determined or the device is retired.
func (s *MaintenanceService) NextMaintenance(ctx context.Context, deviceID string) (time.Time, bool, error) {
	status, err := s.GetMaintenance(ctx, deviceID)
	if err != nil {
		return time.Time{}, false, err
	}
	if status.NextDate == nil {
		return time.Time{}, false, nil
	}
	return *status.NextDate, true, nil
}

// Upcoming lists the scheduled maintenance dates of a device within the
// inclusive window [from, to]. Dates after end-of-life are dropped.
func (s *MaintenanceService) Upcoming(ctx context.Context, deviceID string, from, to time.Time) ([]time.Time, error) {
	status, err := s.GetMaintenance(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	record := status.Record
	dates := s.projector.Occurrences(record, from, to)
	if record.EndOfLife == nil || record.EndOfLife.IsZero() {
		return dates, nil
	}
	out := dates[:0]
	for _, d := range dates {
		if d.After(*record.EndOfLife) {
			break
		}
		out = append(out, d)
	}
	return out, nil
}

// QuarterCost sums the maintenance cost due in the calendar quarter that
// contains now.
func (s *MaintenanceService) QuarterCost(ctx context.Context, now time.Time) (QuarterCost, error) {
	if s == nil {
		return QuarterCost{}, errors.New("MaintenanceService is nil")
	}
	records, err := s.listRecords(ctx)
	if err != nil {
		return QuarterCost{}, err
	}
	return s.quarterCost(records, now), nil
}

// Overview lists every device with its maintenance status as of now together
// with the cost of the quarter containing now. Devices without a stored
// record are reported as undetermined; no record is created for them.
func (s *MaintenanceService) Overview(ctx context.Context, now time.Time) (overview MaintenanceOverview, err error) {
	if s == nil {
		err = errors.New("MaintenanceService is nil")
		return
	}

	logger := s.loggerWith(ctx, "Overview")
	defer func() {
		if err != nil {
			logger.ErrorContext(ctx, "failed to build maintenance overview", failureAttrs(err)...)
		}
	}()

	var records []MaintenanceRecord
	records, err = s.listRecords(ctx)
	if err != nil {
		return
	}
	byDevice := make(map[string]MaintenanceRecord, len(records))
	for _, r := range records {
		byDevice[r.DeviceID] = r
	}

	var devices []Device
	if s.devices != nil {
		devices, err = s.devices.ListDevices(ctx)
		if err != nil {
			err = mapRepoError(err)
			return
		}
	}

	overview.Devices = make([]DeviceMaintenance, 0, len(devices))
	for _, d := range devices {
		record, ok := byDevice[d.ID]
		if !ok {
			record = MaintenanceRecord{ID: d.ID, DeviceID: d.ID}
		}
		overview.Devices = append(overview.Devices, DeviceMaintenance{Device: d, MaintenanceStatus: s.status(record, now)})
	}
	overview.Quarter = s.quarterCost(records, now)
	return
}

func (s *MaintenanceService) status(record MaintenanceRecord, now time.Time) MaintenanceStatus {
	status := MaintenanceStatus{Record: record, State: MaintenanceUndetermined}
	if !record.HasSchedule() {
		return status
	}
	next, ok := s.projector.NextDate(record, now)
	if !ok {
		status.State = MaintenanceRetired
		return status
	}
	status.NextDate = &next
	status.State = MaintenanceScheduled
	return status
}

func (s *MaintenanceService) quarterCost(records []MaintenanceRecord, now time.Time) QuarterCost {
	start, end := s.projector.QuarterBounds(now)
	return QuarterCost{
		QuarterStart: start,
		QuarterEnd:   end,
		Total:        s.projector.CostForQuarter(records, now),
	}
}

func (s *MaintenanceService) listRecords(ctx context.Context) ([]MaintenanceRecord, error) {
	if s.records == nil {
		return nil, nil
	}
	records, err := s.records.ListMaintenance(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return records, nil
}

func (s *MaintenanceService) requireDevice(ctx context.Context, id string) error {
	if s.devices == nil {
		return nil
	}
	if _, err := s.devices.GetDevice(ctx, id); err != nil {
		return errors.Wrapf(mapRepoError(err), "device %s", id)
	}
	return nil
}

// normalizeInput moves dates to midnight in the projector location.
func (s *MaintenanceService) normalizeInput(input MaintenanceInput) MaintenanceInput {
	loc := s.projector.Location()
	input.FirstMaintenance = midnight(input.FirstMaintenance, loc)
	input.EndOfLife = midnight(input.EndOfLife, loc)
	return input
}

func midnight(t *time.Time, loc *time.Location) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	local := t.In(loc)
	d := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return &d
}

func validateMaintenanceInput(input MaintenanceInput) *ValidationError {
	vErr := &ValidationError{}

	if input.IntervalDays < 0 {
		vErr.add("maintenance_interval_days", "Intervall muss mindestens 1 Tag betragen.")
	}
	if input.FirstMaintenance != nil && input.IntervalDays == 0 {
		vErr.add("maintenance_interval_days", "Intervall muss mindestens 1 Tag betragen.")
	}
	if input.Cost.IsNegative() {
		vErr.add("maintenance_cost", "Kosten dürfen nicht negativ sein.")
	}
	if input.FirstMaintenance != nil && input.EndOfLife != nil && input.EndOfLife.Before(*input.FirstMaintenance) {
		vErr.add("end_of_life", "End of Life darf nicht vor der ersten Wartung liegen.")
	}

	return vErr
}
