package upkeep

// Service bundles the core components built over one database handle.
type Service struct {
	Settings  *SettingsStore
	Equipment *EquipmentRegistry
	Ledger    *MaintenanceLedger
	History   *HistoryArchive
	Alerts    *AlertScheduler
	Operators *Operators
	Importer  *Importer
	Backups   *Backups
}

// NewService wires every component to the same database, clock and ID source.
func NewService(db Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock, idgen IDGenerator) *Service {
	settings := NewSettingsStore(db, logger)
	equipment := NewEquipmentRegistry(db, logger, clock)
	ledger := NewMaintenanceLedger(db, logger, clock, idgen)

	return &Service{
		Settings:  settings,
		Equipment: equipment,
		Ledger:    ledger,
		History:   NewHistoryArchive(db),
		Alerts:    NewAlertScheduler(settings, equipment, db, logger, clock),
		Operators: NewOperators(db, logger),
		Importer:  NewImporter(equipment, ledger, idgen, logger),
		Backups:   NewBackups(db, vault, encryptor, logger, clock),
	}
}
