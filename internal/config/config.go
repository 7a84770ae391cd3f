package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultRemoteDrainTimeout bounds how long the CLI waits for in-flight
// favorite writes before exiting.
const DefaultRemoteDrainTimeout = 5 * time.Second

// Config represents the main configuration for mb.
type Config struct {
	BaseDir  string `toml:"base_dir"`
	LogDir   string `toml:"log_dir"`
	StateDir string `toml:"state_dir"`

	// RecentLimit is how many files "mb recent" lists; 0 means the default.
	RecentLimit int `toml:"recent_limit,omitempty"`

	// RemoteDrainTimeout is a duration string such as "5s".
	RemoteDrainTimeout string `toml:"remote_drain_timeout,omitempty"`

	RecordStore RecordStoreConfig `toml:"record_store"`
	BlobStore   BlobStoreConfig   `toml:"blob_store"`
	Encryption  EncryptionConfig  `toml:"encryption"`
	Import      ImportConfig      `toml:"import"`
}

// RecordStoreConfig represents configuration for the record store.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type RecordStoreConfig struct {
	Type string `toml:"type"` // "sqlite", "memory" or "postgres"

	// SQLite-specific fields (only used when Type == "sqlite")
	DataDir string `toml:"data_dir,omitempty"`

	// Postgres-specific fields (only used when Type == "postgres")
	DSN string `toml:"dsn,omitempty"`
}

// BlobStoreConfig represents configuration for the store of uploaded objects.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BlobStoreConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "s3" or "minio"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSRoot string `toml:"fs_root,omitempty"`

	// S3 fields (used when Type == "s3" or "minio")
	S3Bucket          string `toml:"s3_bucket,omitempty"`
	S3Prefix          string `toml:"s3_prefix,omitempty"`
	S3Region          string `toml:"s3_region,omitempty"`
	S3Endpoint        string `toml:"s3_endpoint,omitempty"`
	S3AccessKeyID     string `toml:"s3_access_key_id,omitempty"`
	S3SecretAccessKey string `toml:"s3_secret_access_key,omitempty"`
	S3UsePathStyle    bool   `toml:"s3_use_path_style,omitempty"`
	S3PublicBaseURL   string `toml:"s3_public_base_url,omitempty"`

	// MinIO-specific fields (only used when Type == "minio")
	MinioUseSSL bool `toml:"minio_use_ssl,omitempty"`
}

// EncryptionConfig selects how uploaded objects are protected at rest.
type EncryptionConfig struct {
	Type           string `toml:"type"` // "none" (default), "age" or "test"
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// ImportConfig holds settings for "mb file import".
type ImportConfig struct {
	Ignore []string `toml:"ignore"`
}

// NewConfig creates a new Config rooted at baseDir with local defaults:
// a SQLite record store, a filesystem blob store and no encryption.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir:            baseDir,
		LogDir:             filepath.Join(baseDir, "log"),
		StateDir:           filepath.Join(baseDir, "state"),
		RemoteDrainTimeout: DefaultRemoteDrainTimeout.String(),
		RecordStore: RecordStoreConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		BlobStore: BlobStoreConfig{
			Type:   "filesystem",
			FSRoot: filepath.Join(baseDir, "uploads"),
		},
		Encryption: EncryptionConfig{
			Type:           "none",
			PublicKeyPath:  filepath.Join(baseDir, "keys", "mb.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "mb.key"),
		},
		Import: ImportConfig{
			Ignore: []string{".git", ".DS_Store", "*.tmp"},
		},
	}
}

// DrainTimeout parses RemoteDrainTimeout, falling back to the default when
// it is unset.
func (c *Config) DrainTimeout() (time.Duration, error) {
	if c.RemoteDrainTimeout == "" {
		return DefaultRemoteDrainTimeout, nil
	}
	d, err := time.ParseDuration(c.RemoteDrainTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid remote_drain_timeout %q: %w", c.RemoteDrainTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid remote_drain_timeout %q: must not be negative", c.RemoteDrainTimeout)
	}
	return d, nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// The file may hold S3 credentials or a Postgres password.
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
