package upkeep

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const snapshotSuffix = ".db.age"

// Backups writes encrypted database snapshots to a vault and restores them.
type Backups struct {
	db        Database
	vault     Vault
	encryptor Encryptor
	logger    Logger
	clock     Clock
}

func NewBackups(db Database, vault Vault, encryptor Encryptor, logger Logger, clock Clock) *Backups {
	return &Backups{db: db, vault: vault, encryptor: encryptor, logger: logger, clock: clock}
}

// Create snapshots the database, encrypts it with the public key and stores
// it in the vault. Returns the snapshot name.
func (b *Backups) Create() (string, error) {
	if !b.encryptor.IsConfigured() {
		return "", fmt.Errorf("encryption keys are not configured: run `upkeep config init`")
	}

	tmpDir, err := os.MkdirTemp("", "upkeep-backup-*")
	if err != nil {
		return "", fmt.Errorf("creating temp directory: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	plainPath := filepath.Join(tmpDir, "snapshot.db")
	if err := b.db.BackupTo(plainPath); err != nil {
		return "", fmt.Errorf("snapshotting database: %w", err)
	}

	encPath := filepath.Join(tmpDir, "snapshot.db.age")
	if err := b.encryptFile(plainPath, encPath); err != nil {
		return "", err
	}

	enc, err := os.Open(encPath)
	if err != nil {
		return "", fmt.Errorf("opening encrypted snapshot: %w", err)
	}
	defer enc.Close()

	info, err := enc.Stat()
	if err != nil {
		return "", fmt.Errorf("stat encrypted snapshot: %w", err)
	}

	name := "upkeep-" + b.clock.Now().UTC().Format("20060102T150405Z") + snapshotSuffix
	if err := b.vault.PutSnapshot(name, enc, info.Size()); err != nil {
		return "", fmt.Errorf("storing snapshot: %w", err)
	}

	b.logger.Info("backup written", "name", name, "size", info.Size())
	return name, nil
}

// List returns the stored snapshot names, oldest first.
func (b *Backups) List() ([]string, error) {
	names, err := b.vault.ListSnapshots()
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	return names, nil
}

// Restore decrypts the named snapshot into destPath. destPath must not exist.
func (b *Backups) Restore(name, passphrase, destPath string) error {
	if !strings.HasSuffix(name, snapshotSuffix) {
		return &ValidationError{Field: "snapshot", Reason: "unknown snapshot name " + name}
	}
	if _, err := os.Stat(destPath); err == nil {
		return &ConflictError{Entity: "file", ID: destPath}
	}

	dc, err := b.encryptor.Unlock(passphrase)
	if err != nil {
		return fmt.Errorf("unlocking private key: %w", err)
	}

	tmp, err := os.CreateTemp("", "upkeep-restore-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	if err := b.vault.GetSnapshot(name, tmp); err != nil {
		return fmt.Errorf("fetching snapshot: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		return fmt.Errorf("rewinding snapshot: %w", err)
	}

	out, err := os.OpenFile(destPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0600)
	if err != nil {
		return fmt.Errorf("creating %s: %w", destPath, err)
	}
	if err := dc.Decrypt(tmp, out); err != nil {
		out.Close()
		os.Remove(destPath)
		return fmt.Errorf("decrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", destPath, err)
	}

	b.logger.Info("backup restored", "name", name, "dest", destPath)
	return nil
}

func (b *Backups) encryptFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening snapshot: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("creating encrypted snapshot: %w", err)
	}
	if err := b.encryptor.Encrypt(in, out); err != nil {
		out.Close()
		return fmt.Errorf("encrypting snapshot: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing encrypted snapshot: %w", err)
	}
	return nil
}
