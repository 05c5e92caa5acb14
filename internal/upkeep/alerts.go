package upkeep

import (
	"fmt"
	"sync"
	"time"

	"upkeep/internal/model"
)

// Defaults used when a setting has never been written.
const (
	DefaultAlertDayOfMonth = 1
	DefaultPreWarningDays  = 5
)

// AlertKind distinguishes the two scheduled messages.
type AlertKind string

const (
	AlertReminder   AlertKind = "reminder"
	AlertPreWarning AlertKind = "pre-warning"
)

// Alert is a message to show the operator.
type Alert struct {
	Kind    AlertKind
	Message string
}

// AlertSummary describes this month's trigger dates and the current gap.
type AlertSummary struct {
	AlertDate      time.Time
	PreWarnDate    time.Time
	PreWarningDays int
	Gap            int
}

// AlertResult is the outcome of one Check.
type AlertResult struct {
	Today time.Time
	// Skipped is set when today was already checked and the check was not forced.
	Skipped bool
	Alerts  []Alert
	// Summary is only set for a forced check that produced no alerts.
	Summary *AlertSummary
}

// AlertStatus is a read-only view of the alert configuration.
type AlertStatus struct {
	AlertDayOfMonth int
	PreWarningDays  int
	LastCheck       string
	AlertSummary
}

// AlertScheduler decides, at most once per calendar day, whether the monthly
// reminder or the month-end pre-warning is due.
type AlertScheduler struct {
	settings  *SettingsStore
	equipment *EquipmentRegistry
	db        Database
	logger    Logger
	clock     Clock

	// mu serialises the check-then-set on lastAlertCheckDate.
	mu sync.Mutex
}

func NewAlertScheduler(settings *SettingsStore, equipment *EquipmentRegistry, db Database, logger Logger, clock Clock) *AlertScheduler {
	return &AlertScheduler{
		settings:  settings,
		equipment: equipment,
		db:        db,
		logger:    logger,
		clock:     clock,
	}
}

// Check evaluates today's alerts. A non-forced check on a day that was already
// checked returns Skipped and writes nothing. Every other path ends with
// lastAlertCheckDate = today.
func (s *AlertScheduler) Check(forced bool) (*AlertResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	today := model.DateOf(s.clock.Now())
	todayStr := today.Format(model.ISODate)
	result := &AlertResult{Today: today}

	last, err := s.settings.Get(KeyLastAlertCheckDate, "")
	if err != nil {
		return nil, err
	}
	if last == todayStr && !forced {
		result.Skipped = true
		return result, nil
	}

	day, preWarning, err := s.readConfig()
	if err != nil {
		return nil, err
	}
	alertDate, preWarnDate := triggerDates(today, day, preWarning)

	if today.Equal(alertDate) {
		result.Alerts = append(result.Alerts, Alert{
			Kind:    AlertReminder,
			Message: "Maintenance month has started. Carry out and record the scheduled services.",
		})
	}
	if today.Equal(preWarnDate) {
		gap, err := s.Gap(today)
		if err != nil {
			return nil, err
		}
		result.Alerts = append(result.Alerts, Alert{
			Kind: AlertPreWarning,
			Message: fmt.Sprintf("%d days left to close the month. Equipment without maintenance recorded this month: %d.",
				preWarning, gap),
		})
	}

	if len(result.Alerts) == 0 && forced {
		gap, err := s.Gap(today)
		if err != nil {
			return nil, err
		}
		result.Summary = &AlertSummary{
			AlertDate:      alertDate,
			PreWarnDate:    preWarnDate,
			PreWarningDays: preWarning,
			Gap:            gap,
		}
	}

	if err := s.settings.Set(KeyLastAlertCheckDate, todayStr); err != nil {
		return nil, err
	}

	s.logger.Info("alert check",
		"today", todayStr,
		"forced", forced,
		"alerts", len(result.Alerts),
	)
	return result, nil
}

// Configure validates and stores the alert day and the pre-warning window.
func (s *AlertScheduler) Configure(alertDayOfMonth, preWarningDays int) error {
	if alertDayOfMonth < 1 || alertDayOfMonth > 28 {
		return &ValidationError{Field: "alert day of month", Reason: fmt.Sprintf("must be between 1 and 28, got %d", alertDayOfMonth)}
	}
	if preWarningDays < 1 || preWarningDays > 27 {
		return &ValidationError{Field: "pre-warning days", Reason: fmt.Sprintf("must be between 1 and 27, got %d", preWarningDays)}
	}

	if err := s.settings.SetInt(KeyAlertDayOfMonth, alertDayOfMonth); err != nil {
		return err
	}
	if err := s.settings.SetInt(KeyPreWarningDays, preWarningDays); err != nil {
		return err
	}

	s.logger.Info("alerts configured", "day", alertDayOfMonth, "pre_warning_days", preWarningDays)
	return nil
}

// Status reports the configuration and this month's trigger dates without
// touching lastAlertCheckDate.
func (s *AlertScheduler) Status() (*AlertStatus, error) {
	today := model.DateOf(s.clock.Now())

	day, preWarning, err := s.readConfig()
	if err != nil {
		return nil, err
	}
	last, err := s.settings.Get(KeyLastAlertCheckDate, "")
	if err != nil {
		return nil, err
	}
	gap, err := s.Gap(today)
	if err != nil {
		return nil, err
	}

	alertDate, preWarnDate := triggerDates(today, day, preWarning)
	return &AlertStatus{
		AlertDayOfMonth: day,
		PreWarningDays:  preWarning,
		LastCheck:       last,
		AlertSummary: AlertSummary{
			AlertDate:      alertDate,
			PreWarnDate:    preWarnDate,
			PreWarningDays: preWarning,
			Gap:            gap,
		},
	}, nil
}

// Gap returns how many equipment have no maintenance record dated in
// today's month. It is never negative.
func (s *AlertScheduler) Gap(today time.Time) (int, error) {
	total, err := s.equipment.Count()
	if err != nil {
		return 0, err
	}
	from := model.FirstOfMonth(today)
	maintained, err := s.db.CountEquipmentMaintainedBetween(from, from.AddDate(0, 1, 0))
	if err != nil {
		return 0, fmt.Errorf("counting maintained equipment: %w", err)
	}
	return max(total-maintained, 0), nil
}

// readConfig loads and range-checks the two alert settings.
func (s *AlertScheduler) readConfig() (day, preWarning int, err error) {
	day, err = s.settings.GetInt(KeyAlertDayOfMonth, DefaultAlertDayOfMonth)
	if err != nil {
		return 0, 0, err
	}
	if day < 1 || day > 28 {
		return 0, 0, &ConfigError{Key: KeyAlertDayOfMonth, Value: fmt.Sprint(day), Reason: "must be between 1 and 28"}
	}

	preWarning, err = s.settings.GetInt(KeyPreWarningDays, DefaultPreWarningDays)
	if err != nil {
		return 0, 0, err
	}
	if preWarning < 1 || preWarning > 27 {
		return 0, 0, &ConfigError{Key: KeyPreWarningDays, Value: fmt.Sprint(preWarning), Reason: "must be between 1 and 27"}
	}
	return day, preWarning, nil
}

// triggerDates returns the reminder date and the pre-warning date for today's month.
func triggerDates(today time.Time, alertDayOfMonth, preWarningDays int) (alertDate, preWarnDate time.Time) {
	alertDate = time.Date(today.Year(), today.Month(), min(alertDayOfMonth, 28), 0, 0, 0, 0, time.UTC)
	preWarnDate = model.LastOfMonth(today).AddDate(0, 0, -preWarningDays)
	return alertDate, preWarnDate
}
