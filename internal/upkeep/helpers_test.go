package upkeep_test

import (
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"upkeep/internal/database"
	"upkeep/internal/encryption"
	"upkeep/internal/model"
	"upkeep/internal/testutil"
	"upkeep/internal/upkeep"
	"upkeep/internal/vault"
)

type fixture struct {
	db        *database.SQLiteDatabase
	clock     *testutil.StubClock
	ids       *testutil.StubIDGenerator
	vault     *vault.MemoryVault
	encryptor *encryption.TestEncryptor
	svc       *upkeep.Service
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		db:        testutil.NewTestDatabase(t),
		clock:     testutil.NewStubClock(now),
		ids:       testutil.NewStubIDGenerator(),
		vault:     testutil.NewTestVault(),
		encryptor: testutil.NewTestEncryptor(),
	}
	f.svc = upkeep.NewService(f.db, f.vault, f.encryptor, upkeep.NewNopLogger(), f.clock, f.ids)
	return f
}

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (f *fixture) addEquipment(t *testing.T, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.svc.Equipment.Add(&model.Equipment{ID: id, Name: "Equipment " + id}, sql.NullInt64{}))
	}
}

func (f *fixture) addRecord(t *testing.T, equipmentID string, d time.Time) string {
	t.Helper()
	id, err := f.svc.Ledger.AddRecord(&model.MaintenanceRecord{
		EquipmentID: equipmentID,
		Date:        d,
		Type:        model.TypePreventive,
		Cost:        decimal.Zero,
	})
	require.NoError(t, err)
	return id
}

func (f *fixture) setting(t *testing.T, key string) string {
	t.Helper()
	v, _, err := f.db.GetSetting(key)
	require.NoError(t, err)
	return v
}
