package upkeep_test

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"upkeep/internal/model"
	"upkeep/internal/upkeep"
)

func TestMaintenanceLedger_AddRecord_FirstRecord(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	f.addEquipment(t, "E1")

	id, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: "E1",
		Date:        date(2024, 5, 1),
		Type:        model.TypePreventive,
		Status:      model.StatusPending,
		Cost:        decimal.Zero,
	})
	require.NoError(t, err)
	assert.Equal(t, "id-1", id)

	current, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{EquipmentID: "E1"})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, id, current[0].ID)
	assert.True(t, current[0].RecordedAt.Equal(f.clock.Now()))

	history, err := f.svc.History.ListForEquipment("E1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMaintenanceLedger_AddRecord_SupersedesCurrent(t *testing.T) {
	f := newFixture(t, time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	f.addEquipment(t, "E1")

	firstID, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: "E1",
		Date:        date(2024, 5, 1),
		Type:        model.TypePreventive,
		Status:      model.StatusPending,
		Provider:    "In-house",
		Cost:        decimal.Zero,
		Notes:       "first service",
	})
	require.NoError(t, err)
	first, err := f.svc.Ledger.Get(firstID)
	require.NoError(t, err)

	f.clock.Set(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	secondID, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: "E1",
		Date:        date(2024, 6, 1),
		Type:        model.TypeCorrective,
		Status:      model.StatusPending,
		Cost:        decimal.NewFromInt(150),
	})
	require.NoError(t, err)

	current, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{EquipmentID: "E1"})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, secondID, current[0].ID)
	assert.Equal(t, "2024-06-01", current[0].Date.Format(model.ISODate))
	assert.True(t, current[0].Cost.Equal(decimal.NewFromInt(150)))

	history, err := f.svc.History.ListForEquipment("E1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	snap := history[0]
	assert.NotEqual(t, firstID, snap.HistoryID)
	assert.Equal(t, first.ID, snap.OriginalID)
	assert.Equal(t, first.EquipmentID, snap.EquipmentID)
	assert.True(t, first.Date.Equal(snap.Date))
	assert.Equal(t, first.Type, snap.Type)
	assert.Equal(t, first.Status, snap.Status)
	assert.Equal(t, first.Provider, snap.Provider)
	assert.True(t, first.Cost.Equal(snap.Cost))
	assert.Equal(t, first.Notes, snap.Notes)
	assert.True(t, first.RecordedAt.Equal(snap.RecordedAt))

	_, err = f.svc.Ledger.Get(firstID)
	var nf *upkeep.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestMaintenanceLedger_AddRecord_Rejections(t *testing.T) {
	valid := func() *model.MaintenanceRecord {
		return &model.MaintenanceRecord{EquipmentID: "E1", Date: date(2024, 5, 1), Type: model.TypePreventive}
	}

	tests := []struct {
		name   string
		mutate func(r *model.MaintenanceRecord)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing equipment id",
			mutate: func(r *model.MaintenanceRecord) { r.EquipmentID = "  " },
			check:  assertValidation("equipment_id"),
		},
		{
			name:   "missing date",
			mutate: func(r *model.MaintenanceRecord) { r.Date = time.Time{} },
			check:  assertValidation("date"),
		},
		{
			name:   "bad type",
			mutate: func(r *model.MaintenanceRecord) { r.Type = "Cosmetic" },
			check:  assertValidation("type"),
		},
		{
			name:   "bad status",
			mutate: func(r *model.MaintenanceRecord) { r.Status = "Done" },
			check:  assertValidation("status"),
		},
		{
			name:   "negative cost",
			mutate: func(r *model.MaintenanceRecord) { r.Cost = decimal.NewFromInt(-1) },
			check:  assertValidation("cost"),
		},
		{
			name:   "unknown equipment",
			mutate: func(r *model.MaintenanceRecord) { r.EquipmentID = "ghost" },
			check: func(t *testing.T, err error) {
				var fe *upkeep.ForeignKeyError
				require.ErrorAs(t, err, &fe)
				assert.Equal(t, "ghost", fe.EquipmentID)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, date(2024, 5, 1))
			f.addEquipment(t, "E1")

			r := valid()
			tt.mutate(r)
			_, err := f.svc.Ledger.AddRecord(r)
			tt.check(t, err)

			current, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{})
			require.NoError(t, err)
			assert.Empty(t, current, "rejected record must not be stored")
		})
	}
}

func assertValidation(field string) func(t *testing.T, err error) {
	return func(t *testing.T, err error) {
		t.Helper()
		var ve *upkeep.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, field, ve.Field)
	}
}

func TestMaintenanceLedger_AddRecord_DuplicateIDLeavesStateAlone(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1", "E2")

	_, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{ID: "M1", EquipmentID: "E1", Date: date(2024, 5, 1), Type: model.TypePreventive})
	require.NoError(t, err)
	_, err = f.svc.Ledger.AddRecord(&model.MaintenanceRecord{ID: "M2", EquipmentID: "E2", Date: date(2024, 5, 1), Type: model.TypePreventive})
	require.NoError(t, err)

	_, err = f.svc.Ledger.AddRecord(&model.MaintenanceRecord{ID: "M1", EquipmentID: "E2", Date: date(2024, 5, 2), Type: model.TypePreventive})
	var ce *upkeep.ConflictError
	require.ErrorAs(t, err, &ce)

	_, err = f.svc.Ledger.Get("M2")
	assert.NoError(t, err, "M2 must not be archived by a rejected insert")
	history, err := f.svc.History.List()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMaintenanceLedger_AddRecord_NormalisesDate(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1")

	id, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: "E1",
		Date:        time.Date(2024, 5, 3, 17, 45, 0, 0, time.UTC),
		Type:        model.TypePreventive,
	})
	require.NoError(t, err)

	r, err := f.svc.Ledger.Get(id)
	require.NoError(t, err)
	assert.True(t, r.Date.Equal(date(2024, 5, 3)))
	assert.Equal(t, model.StatusPending, r.Status)
}

func TestMaintenanceLedger_AddRecord_LeavesCallerRecordAlone(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1")

	in := &model.MaintenanceRecord{
		EquipmentID: " E1 ",
		Date:        time.Date(2024, 5, 3, 17, 45, 0, 0, time.UTC),
		Type:        model.TypePreventive,
	}
	before := *in

	id, err := f.svc.Ledger.AddRecord(in)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, before.ID, in.ID)
	assert.Equal(t, before.EquipmentID, in.EquipmentID)
	assert.Equal(t, before.Status, in.Status)
	assert.True(t, in.Date.Equal(before.Date))
	assert.True(t, in.RecordedAt.IsZero())

	rejected := &model.MaintenanceRecord{EquipmentID: "E1", Type: model.TypePreventive}
	_, err = f.svc.Ledger.AddRecord(rejected)
	require.Error(t, err)
	assert.Empty(t, rejected.ID)
	assert.Empty(t, rejected.Status)
}

func TestMaintenanceLedger_AddRecord_UnknownCreatorRollsBack(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1")
	firstID := f.addRecord(t, "E1", date(2024, 5, 1))

	_, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: "E1",
		Date:        date(2024, 6, 1),
		Type:        model.TypeCorrective,
		CreatedBy:   sql.NullInt64{Int64: 999, Valid: true},
	})
	var fe *upkeep.ForeignKeyError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, int64(999), fe.UserID)
	assert.True(t, upkeep.IsRejection(err))

	current, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{EquipmentID: "E1"})
	require.NoError(t, err)
	require.Len(t, current, 1)
	assert.Equal(t, firstID, current[0].ID)

	history, err := f.svc.History.List()
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMaintenanceLedger_EditRecord(t *testing.T) {
	t.Run("updates in place without archiving", func(t *testing.T) {
		f := newFixture(t, date(2024, 5, 1))
		f.addEquipment(t, "E1")
		id := f.addRecord(t, "E1", date(2024, 5, 1))

		provider := "ACME"
		cost := decimal.RequireFromString("89.90")
		newDate := date(2024, 5, 7)
		edited, err := f.svc.Ledger.EditRecord(id, upkeep.RecordPatch{Provider: &provider, Cost: &cost, Date: &newDate})
		require.NoError(t, err)
		assert.Equal(t, "ACME", edited.Provider)

		got, err := f.svc.Ledger.Get(id)
		require.NoError(t, err)
		assert.Equal(t, "ACME", got.Provider)
		assert.True(t, got.Cost.Equal(cost))
		assert.True(t, got.Date.Equal(newDate))

		history, err := f.svc.History.List()
		require.NoError(t, err)
		assert.Empty(t, history)
	})

	t.Run("errors", func(t *testing.T) {
		f := newFixture(t, date(2024, 5, 1))
		f.addEquipment(t, "E1", "E2")
		id := f.addRecord(t, "E1", date(2024, 5, 1))
		f.addRecord(t, "E2", date(2024, 5, 1))

		var nf *upkeep.NotFoundError
		_, err := f.svc.Ledger.EditRecord("ghost", upkeep.RecordPatch{})
		assert.ErrorAs(t, err, &nf)

		ghost := "ghost"
		var fe *upkeep.ForeignKeyError
		_, err = f.svc.Ledger.EditRecord(id, upkeep.RecordPatch{EquipmentID: &ghost})
		assert.ErrorAs(t, err, &fe)

		occupied := "E2"
		var ce *upkeep.ConflictError
		_, err = f.svc.Ledger.EditRecord(id, upkeep.RecordPatch{EquipmentID: &occupied})
		assert.ErrorAs(t, err, &ce)

		bad := model.MaintenanceType("Cosmetic")
		var ve *upkeep.ValidationError
		_, err = f.svc.Ledger.EditRecord(id, upkeep.RecordPatch{Type: &bad})
		assert.ErrorAs(t, err, &ve)
	})
}

func TestMaintenanceLedger_SetStatus(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1")
	id := f.addRecord(t, "E1", date(2024, 5, 1))

	require.NoError(t, f.svc.Ledger.SetStatus(id, model.StatusCompleted))
	got, err := f.svc.Ledger.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	var nf *upkeep.NotFoundError
	assert.ErrorAs(t, f.svc.Ledger.SetStatus("ghost", model.StatusCompleted), &nf)

	var ve *upkeep.ValidationError
	assert.ErrorAs(t, f.svc.Ledger.SetStatus(id, "Done"), &ve)
}

func TestMaintenanceLedger_ListCurrent(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))

	// More than one page, with many records sharing each date.
	const n = 250
	for i := range n {
		eq := fmt.Sprintf("E%03d", i)
		f.addEquipment(t, eq)
		_, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
			ID:          fmt.Sprintf("M%03d", i),
			EquipmentID: eq,
			Date:        date(2024, 1, 1+i%7),
			Type:        model.TypePreventive,
		})
		require.NoError(t, err)
	}

	t.Run("ordered by date desc then id desc across pages", func(t *testing.T) {
		all, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{})
		require.NoError(t, err)
		require.Len(t, all, n)

		seen := make(map[string]bool, n)
		for i, r := range all {
			assert.False(t, seen[r.ID], "duplicate %s", r.ID)
			seen[r.ID] = true
			if i == 0 {
				continue
			}
			prev := all[i-1]
			ordered := prev.Date.After(r.Date) || (prev.Date.Equal(r.Date) && prev.ID > r.ID)
			assert.True(t, ordered, "%s (%s) before %s (%s)", prev.ID, prev.Date, r.ID, r.Date)
		}
	})

	t.Run("restartable and stoppable", func(t *testing.T) {
		seq := f.svc.Ledger.ListCurrent(model.RecordFilter{})

		var firstPass []string
		for r, err := range seq {
			require.NoError(t, err)
			firstPass = append(firstPass, r.ID)
			if len(firstPass) == 3 {
				break
			}
		}

		var secondPass []string
		for r, err := range seq {
			require.NoError(t, err)
			secondPass = append(secondPass, r.ID)
		}

		require.Len(t, firstPass, 3)
		require.Len(t, secondPass, n)
		assert.Equal(t, firstPass, secondPass[:3])
	})

	t.Run("filter", func(t *testing.T) {
		got, err := f.svc.Ledger.CollectCurrent(model.RecordFilter{From: date(2024, 1, 7), To: date(2024, 1, 8)})
		require.NoError(t, err)
		for _, r := range got {
			assert.Equal(t, "2024-01-07", r.Date.Format(model.ISODate))
		}
		assert.Len(t, got, 35)
	})
}

func TestHistoryArchive_StableAcrossUnrelatedOperations(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1", "E2")
	f.addRecord(t, "E1", date(2024, 4, 1))
	f.addRecord(t, "E1", date(2024, 5, 1))

	before, err := f.svc.History.List()
	require.NoError(t, err)
	require.Len(t, before, 1)

	e2 := f.addRecord(t, "E2", date(2024, 5, 2))
	provider := "Other"
	_, err = f.svc.Ledger.EditRecord(e2, upkeep.RecordPatch{Provider: &provider})
	require.NoError(t, err)
	require.NoError(t, f.svc.Ledger.SetStatus(e2, model.StatusCompleted))
	f.addRecord(t, "E2", date(2024, 5, 20))

	after, err := f.svc.History.ListForEquipment("E1")
	require.NoError(t, err)
	require.Len(t, after, 1)
	b, a := before[0], after[0]
	assert.Equal(t, b.HistoryID, a.HistoryID)
	assert.Equal(t, b.OriginalID, a.OriginalID)
	assert.True(t, b.Date.Equal(a.Date))
	assert.Equal(t, b.Status, a.Status)
	assert.Equal(t, b.Provider, a.Provider)
	assert.True(t, b.RecordedAt.Equal(a.RecordedAt))

	all, err := f.svc.History.List()
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "E2", all[0].EquipmentID, "newest snapshot date first")
}

func TestHistoryArchive_KeptWhenEquipmentRemoved(t *testing.T) {
	f := newFixture(t, date(2024, 5, 1))
	f.addEquipment(t, "E1")
	f.addRecord(t, "E1", date(2024, 4, 1))
	current := f.addRecord(t, "E1", date(2024, 5, 1))

	require.NoError(t, f.svc.Equipment.Remove("E1"))

	_, err := f.svc.Ledger.Get(current)
	assert.True(t, errors.As(err, new(*upkeep.NotFoundError)))

	history, err := f.svc.History.ListForEquipment("E1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}
