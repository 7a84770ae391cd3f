package testutil

import (
	"mediabox/internal/encryption"
	"mediabox/internal/mb"
)

// TestPassphrase unlocks encryptors made by NewTestEncryptor.
const TestPassphrase = "test-passphrase"

// NewTestEncryptor creates the deterministic header-prefixing encryptor,
// already set up with TestPassphrase.
func NewTestEncryptor() mb.Encryptor {
	e := encryption.NewTestEncryptor()
	if err := e.Setup(TestPassphrase); err != nil {
		panic(err)
	}
	return e
}
