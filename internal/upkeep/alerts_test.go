package upkeep_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upkeep/internal/upkeep"
)

func at(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 8, 15, 0, 0, time.UTC)
}

func TestAlertScheduler_ReminderOnAlertDay(t *testing.T) {
	f := newFixture(t, at(2024, 7, 1))
	require.NoError(t, f.svc.Settings.Set(upkeep.KeyLastAlertCheckDate, "2024-06-01"))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, upkeep.AlertReminder, res.Alerts[0].Kind)
	assert.Contains(t, res.Alerts[0].Message, "Maintenance month has started")
	assert.Nil(t, res.Summary)
	assert.Equal(t, "2024-07-01", f.setting(t, upkeep.KeyLastAlertCheckDate))
}

func TestAlertScheduler_SameDayIsSkipped(t *testing.T) {
	f := newFixture(t, at(2024, 7, 1))
	require.NoError(t, f.svc.Settings.Set(upkeep.KeyLastAlertCheckDate, "2024-07-01"))
	// A broken setting would fail the check if it were read.
	require.NoError(t, f.svc.Settings.Set(upkeep.KeyAlertDayOfMonth, "not-a-number"))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	assert.True(t, res.Skipped)
	assert.Empty(t, res.Alerts)
	assert.Nil(t, res.Summary)
	assert.Equal(t, "2024-07-01", f.setting(t, upkeep.KeyLastAlertCheckDate))
}

func TestAlertScheduler_Idempotent(t *testing.T) {
	f := newFixture(t, at(2024, 7, 1))

	first, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)
	assert.Len(t, first.Alerts, 1)

	f.clock.Advance(6 * time.Hour)
	second, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)
	assert.True(t, second.Skipped)
	assert.Empty(t, second.Alerts)
}

func TestAlertScheduler_PreWarningGap(t *testing.T) {
	f := newFixture(t, at(2024, 6, 25))
	require.NoError(t, f.svc.Alerts.Configure(1, 5))

	for i := range 10 {
		f.addEquipment(t, fmt.Sprintf("E%d", i))
	}
	for i := range 3 {
		f.addRecord(t, fmt.Sprintf("E%d", i), date(2024, 6, 3+i))
	}
	// Maintained last month only: still part of the gap.
	f.addRecord(t, "E5", date(2024, 5, 30))
	// Dated next month: not this month either.
	f.addRecord(t, "E6", date(2024, 7, 1))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	require.Len(t, res.Alerts, 1)
	assert.Equal(t, upkeep.AlertPreWarning, res.Alerts[0].Kind)
	assert.Equal(t,
		"5 days left to close the month. Equipment without maintenance recorded this month: 7.",
		res.Alerts[0].Message)

	gap, err := f.svc.Alerts.Gap(date(2024, 6, 25))
	require.NoError(t, err)
	assert.Equal(t, 7, gap)
}

func TestAlertScheduler_BothAlertsSameDay(t *testing.T) {
	f := newFixture(t, at(2024, 6, 25))
	require.NoError(t, f.svc.Alerts.Configure(25, 5))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	require.Len(t, res.Alerts, 2)
	assert.Equal(t, upkeep.AlertReminder, res.Alerts[0].Kind)
	assert.Equal(t, upkeep.AlertPreWarning, res.Alerts[1].Kind)
}

func TestAlertScheduler_Forced(t *testing.T) {
	t.Run("summary when nothing is due", func(t *testing.T) {
		f := newFixture(t, at(2024, 6, 10))
		f.addEquipment(t, "E1", "E2")
		f.addRecord(t, "E1", date(2024, 6, 4))
		require.NoError(t, f.svc.Settings.Set(upkeep.KeyLastAlertCheckDate, "2024-06-10"))

		res, err := f.svc.Alerts.Check(true)
		require.NoError(t, err)

		assert.False(t, res.Skipped)
		assert.Empty(t, res.Alerts)
		require.NotNil(t, res.Summary)
		assert.Equal(t, "2024-06-01", res.Summary.AlertDate.Format("2006-01-02"))
		assert.Equal(t, "2024-06-25", res.Summary.PreWarnDate.Format("2006-01-02"))
		assert.Equal(t, 5, res.Summary.PreWarningDays)
		assert.Equal(t, 1, res.Summary.Gap)
		assert.Equal(t, "2024-06-10", f.setting(t, upkeep.KeyLastAlertCheckDate))
	})

	t.Run("re-evaluates an already checked day", func(t *testing.T) {
		f := newFixture(t, at(2024, 7, 1))
		_, err := f.svc.Alerts.Check(false)
		require.NoError(t, err)

		res, err := f.svc.Alerts.Check(true)
		require.NoError(t, err)
		require.Len(t, res.Alerts, 1)
		assert.Nil(t, res.Summary, "no summary when an alert fired")
	})

	t.Run("updates the marker from an older date", func(t *testing.T) {
		f := newFixture(t, at(2024, 7, 9))
		require.NoError(t, f.svc.Settings.Set(upkeep.KeyLastAlertCheckDate, "2024-07-02"))

		_, err := f.svc.Alerts.Check(true)
		require.NoError(t, err)
		assert.Equal(t, "2024-07-09", f.setting(t, upkeep.KeyLastAlertCheckDate))
	})
}

func TestAlertScheduler_QuietDayRecordsCheck(t *testing.T) {
	f := newFixture(t, at(2024, 6, 10))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	assert.False(t, res.Skipped)
	assert.Empty(t, res.Alerts)
	assert.Nil(t, res.Summary)
	assert.Equal(t, "2024-06-10", f.setting(t, upkeep.KeyLastAlertCheckDate))
}

func TestAlertScheduler_TodayIsLocalCalendarDate(t *testing.T) {
	// 00:30 on July 1st two hours east of UTC is still June 30th in UTC.
	east := time.FixedZone("UTC+2", 2*60*60)
	f := newFixture(t, time.Date(2024, 7, 1, 0, 30, 0, 0, east))

	res, err := f.svc.Alerts.Check(false)
	require.NoError(t, err)

	assert.Equal(t, "2024-07-01", res.Today.Format("2006-01-02"))
	assert.Len(t, res.Alerts, 1)
}

func TestAlertScheduler_MalformedSettings(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{upkeep.KeyAlertDayOfMonth, "first"},
		{upkeep.KeyAlertDayOfMonth, "0"},
		{upkeep.KeyAlertDayOfMonth, "31"},
		{upkeep.KeyPreWarningDays, "five"},
		{upkeep.KeyPreWarningDays, "28"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			f := newFixture(t, at(2024, 6, 10))
			require.NoError(t, f.svc.Settings.Set(tt.key, tt.value))

			_, err := f.svc.Alerts.Check(true)
			var ce *upkeep.ConfigError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.key, ce.Key)
			assert.Empty(t, f.setting(t, upkeep.KeyLastAlertCheckDate), "failed check must not mark the day")
		})
	}
}

func TestAlertScheduler_EmptySettingsUseDefaults(t *testing.T) {
	f := newFixture(t, at(2024, 6, 25))
	require.NoError(t, f.svc.Settings.Set(upkeep.KeyAlertDayOfMonth, ""))
	require.NoError(t, f.svc.Settings.Set(upkeep.KeyPreWarningDays, ""))

	st, err := f.svc.Alerts.Status()
	require.NoError(t, err)
	assert.Equal(t, upkeep.DefaultAlertDayOfMonth, st.AlertDayOfMonth)
	assert.Equal(t, upkeep.DefaultPreWarningDays, st.PreWarningDays)
}

func TestAlertScheduler_Configure(t *testing.T) {
	tests := []struct {
		day, pre int
		wantErr  bool
	}{
		{1, 1, false},
		{28, 27, false},
		{0, 5, true},
		{29, 5, true},
		{1, 0, true},
		{1, 28, true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.day, tt.pre), func(t *testing.T) {
			f := newFixture(t, at(2024, 6, 10))

			err := f.svc.Alerts.Configure(tt.day, tt.pre)
			if tt.wantErr {
				var ve *upkeep.ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, "1", f.setting(t, upkeep.KeyAlertDayOfMonth))
				assert.Equal(t, "5", f.setting(t, upkeep.KeyPreWarningDays))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, fmt.Sprint(tt.day), f.setting(t, upkeep.KeyAlertDayOfMonth))
			assert.Equal(t, fmt.Sprint(tt.pre), f.setting(t, upkeep.KeyPreWarningDays))
		})
	}
}

func TestAlertScheduler_Status(t *testing.T) {
	f := newFixture(t, at(2024, 2, 10))
	require.NoError(t, f.svc.Alerts.Configure(15, 27))
	f.addEquipment(t, "E1")

	st, err := f.svc.Alerts.Status()
	require.NoError(t, err)

	assert.Equal(t, 15, st.AlertDayOfMonth)
	assert.Equal(t, 27, st.PreWarningDays)
	assert.Equal(t, "2024-02-15", st.AlertDate.Format("2006-01-02"))
	// 2024 is a leap year: 29 - 27.
	assert.Equal(t, "2024-02-02", st.PreWarnDate.Format("2006-01-02"))
	assert.Equal(t, 1, st.Gap)
	assert.Empty(t, st.LastCheck)
	assert.Empty(t, f.setting(t, upkeep.KeyLastAlertCheckDate), "status must not mark the day")
}

func TestAlertScheduler_GapWithoutEquipment(t *testing.T) {
	f := newFixture(t, at(2024, 6, 10))

	gap, err := f.svc.Alerts.Gap(date(2024, 6, 10))
	require.NoError(t, err)
	assert.Equal(t, 0, gap)
}
