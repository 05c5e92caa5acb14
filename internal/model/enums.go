package model

// MaintenanceType classifies a maintenance entry.
type MaintenanceType string

const (
	TypePreventive MaintenanceType = "Preventive"
	TypeCorrective MaintenanceType = "Corrective"
)

// Valid reports whether t is a known maintenance type.
func (t MaintenanceType) Valid() bool {
	return t == TypePreventive || t == TypeCorrective
}

// MaintenanceStatus tracks whether scheduled work has been carried out.
type MaintenanceStatus string

const (
	StatusPending   MaintenanceStatus = "Pending"
	StatusCompleted MaintenanceStatus = "Completed"
)

// Valid reports whether s is a known maintenance status.
func (s MaintenanceStatus) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Role is an operator's role.
type Role string

const (
	RoleAdministrator Role = "administrator"
	RoleTechnician    Role = "technician"
)

func (r Role) Valid() bool {
	return r == RoleAdministrator || r == RoleTechnician
}
