package testutil

import (
	"upkeep/internal/encryption"
	"upkeep/internal/vault"
)

// NewTestEncryptor returns a passphrase-checking encryptor that writes
// readable ciphertext. Call Setup before Unlock to arm the passphrase check.
func NewTestEncryptor() *encryption.TestEncryptor {
	return encryption.NewTestEncryptor()
}

// NewTestVault returns an empty in-memory snapshot store.
func NewTestVault() *vault.MemoryVault {
	return vault.NewMemoryVault("test-vault")
}
