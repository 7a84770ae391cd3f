package encryption

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"mediabox/internal/mb"
)

// testHeader marks output of TestEncryptor so ciphertext never equals plaintext.
var testHeader = []byte("MBENC\x00\x00\x00")

// TestEncryptor is a deterministic, reversible stand-in for AgeEncryptor.
// It prepends a fixed 8-byte header instead of encrypting, keeps its
// "key" in memory, and otherwise follows the AgeEncryptor rules: Setup runs
// once with a non-empty passphrase and Unlock checks the passphrase.
type TestEncryptor struct {
	mu         sync.Mutex
	passphrase string
}

var _ mb.Encryptor = (*TestEncryptor)(nil)

func NewTestEncryptor() *TestEncryptor {
	return &TestEncryptor{}
}

func (e *TestEncryptor) Setup(passphrase string) error {
	if passphrase == "" {
		return &mb.ValidationError{Field: "passphrase", Message: "must not be empty"}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.passphrase != "" {
		return ErrKeysExist
	}
	e.passphrase = passphrase
	return nil
}

// Encrypt works before Setup, as AgeEncryptor does once a public key exists.
func (e *TestEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := w.Write(testHeader); err != nil {
		return fmt.Errorf("writing test header: %w", err)
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (e *TestEncryptor) Unlock(passphrase string) (mb.DecryptionContext, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch {
	case e.passphrase == "":
		return nil, ErrNotSetUp
	case passphrase != e.passphrase:
		return nil, ErrWrongPassphrase
	}
	return &TestDecryptionContext{}, nil
}

func (e *TestEncryptor) IsConfigured() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.passphrase != ""
}

// TestDecryptionContext strips the header added by TestEncryptor.
type TestDecryptionContext struct{}

var _ mb.DecryptionContext = (*TestDecryptionContext)(nil)

func (c *TestDecryptionContext) Decrypt(r io.Reader, w io.Writer) error {
	header := make([]byte, len(testHeader))
	if _, err := io.ReadFull(r, header); err != nil {
		return fmt.Errorf("reading test header: %w", err)
	}
	if !bytes.Equal(header, testHeader) {
		return fmt.Errorf("invalid test encryption header")
	}
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
