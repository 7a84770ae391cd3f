package encryption

import (
	"fmt"

	"mediabox/internal/config"
	"mediabox/internal/mb"
)

// NewEncryptorFromConfig creates an Encryptor based on the configuration type.
// Type "none" (or empty) returns a nil Encryptor: uploads are stored as-is.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (mb.Encryptor, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "age":
		return NewAgeEncryptor(cfg), nil
	case "test":
		return NewTestEncryptor(), nil
	default:
		return nil, fmt.Errorf("unknown encryption type: %q", cfg.Type)
	}
}
