package upkeep

import "io"

// Vault stores encrypted database snapshots.
type Vault interface {
	// PutSnapshot stores a snapshot under name. size is the number of bytes
	// that will be read from r.
	PutSnapshot(name string, r io.Reader, size int64) error

	// GetSnapshot writes the named snapshot to w.
	GetSnapshot(name string, w io.Writer) error

	// ListSnapshots returns stored snapshot names, oldest first.
	ListSnapshots() ([]string, error)

	// ValidateSetup verifies that the vault is accessible and properly configured.
	ValidateSetup() error
}
