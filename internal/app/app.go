package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"mediabox/internal/config"
	"mediabox/internal/database"
	"mediabox/internal/encryption"
	"mediabox/internal/fs"
	"mediabox/internal/localstore"
	"mediabox/internal/mb"
	"mediabox/internal/storage"
)

// ErrEncryptionNotConfigured is returned by key operations when the config
// selects no encryption.
var ErrEncryptionNotConfigured = errors.New("encryption is not configured (set encryption.type in the config)")

// MBApp is the application layer between the CLI and MBService.
// It constructs all dependencies from config and, on Close, waits for
// in-flight favorite writes before releasing the record store.
type MBApp struct {
	cfg          *config.Config
	records      *database.SQLStore
	blobs        mb.BlobStore
	local        *localstore.FileStore
	encryptor    mb.Encryptor
	auth         *mb.AuthService
	service      *mb.MBService
	session      *Session
	logger       *slogAdapter
	logFile      *os.File
	logClosed    chan struct{}
	drainTimeout time.Duration
}

// Options tunes how NewMBApp wires the application.
type Options struct {
	// Command names the CLI command being run (e.g. "fav toggle").
	Command string

	// Stderr, when non-nil, receives a copy of every log line.
	Stderr io.Writer
}

// NewMBApp creates a fully wired MBApp from the given config.
// The caller must call Close when done.
func NewMBApp(ctx context.Context, cfg *config.Config, opts Options) (*MBApp, error) {
	drain, err := cfg.DrainTimeout()
	if err != nil {
		return nil, err
	}

	session := NewSession(opts.Command, time.Now())
	logger, logFile, err := newLogger(cfg.LogDir, session.ID, opts.Stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	log := &slogAdapter{l: logger}

	a := &MBApp{
		cfg:          cfg,
		session:      session,
		logger:       log,
		logFile:      logFile,
		logClosed:    make(chan struct{}),
		drainTimeout: drain,
	}
	if err := a.wire(ctx); err != nil {
		a.release()
		return nil, err
	}

	log.Debug("session started", "command", session.Command)
	return a, nil
}

func (a *MBApp) wire(ctx context.Context) error {
	records, err := database.NewRecordStoreFromConfig(ctx, a.cfg.RecordStore)
	if err != nil {
		return fmt.Errorf("creating record store: %w", err)
	}
	a.records = records

	blobs, err := storage.NewBlobStoreFromConfig(ctx, a.cfg.BlobStore)
	if err != nil {
		return fmt.Errorf("creating blob store: %w", err)
	}
	a.blobs = blobs

	enc, err := encryption.NewEncryptorFromConfig(a.cfg.Encryption)
	if err != nil {
		return fmt.Errorf("creating encryptor: %w", err)
	}
	a.encryptor = enc

	local, err := localstore.NewFileStore(a.cfg.StateDir)
	if err != nil {
		return fmt.Errorf("creating local store: %w", err)
	}
	a.local = local

	state, err := mb.NewAppState(local)
	if err != nil {
		return fmt.Errorf("loading app state: %w", err)
	}

	clock := mb.RealClock{}
	idgen := mb.UUIDGenerator{}
	favorites := mb.NewFavoritesCache(local, records, clock, a.logger)
	fsmgr := fs.NewOSFilesystemManager(a.cfg.Import.Ignore)

	a.auth = mb.NewAuthService(records, state, a.logger, clock, idgen)
	a.service = mb.NewMBService(records, blobs, state, favorites, fsmgr, enc, a.logger, clock, idgen)
	a.service.SetRecentLimit(a.cfg.RecentLimit)
	return nil
}

// Service returns the organizer service.
func (a *MBApp) Service() *mb.MBService { return a.service }

// Auth returns the account service.
func (a *MBApp) Auth() *mb.AuthService { return a.auth }

// Session returns the session of this invocation.
func (a *MBApp) Session() *Session { return a.session }

// Config returns the config the app was built from.
func (a *MBApp) Config() *config.Config { return a.cfg }

// EncryptionEnabled reports whether uploads are encrypted.
func (a *MBApp) EncryptionEnabled() bool { return a.encryptor != nil }

// SetupEncryption generates the key pair used for uploads.
func (a *MBApp) SetupEncryption(passphrase string) error {
	if a.encryptor == nil {
		return ErrEncryptionNotConfigured
	}
	if err := a.encryptor.Setup(passphrase); err != nil {
		return err
	}
	a.logger.Info("encryption keys created", "public_key", a.cfg.Encryption.PublicKeyPath)
	return nil
}

// Unlock opens the private key for downloading encrypted files.
func (a *MBApp) Unlock(passphrase string) (mb.DecryptionContext, error) {
	if a.encryptor == nil {
		return nil, ErrEncryptionNotConfigured
	}
	return a.encryptor.Unlock(passphrase)
}

// ValidateSetup checks that the configured stores are usable.
func (a *MBApp) ValidateSetup(ctx context.Context) error {
	if err := a.records.CheckMigrations(); err != nil {
		return fmt.Errorf("record store: %w", err)
	}
	if err := a.blobs.ValidateSetup(ctx); err != nil {
		return fmt.Errorf("blob store: %w", err)
	}
	if a.encryptor != nil && !a.encryptor.IsConfigured() {
		return fmt.Errorf("encryption: keys not found (run \"mb encryption setup\")")
	}
	return nil
}

// Finish records the outcome of the command for the closing log line.
func (a *MBApp) Finish(err error) {
	a.session.Finish(err)
	if err != nil {
		a.logger.Error("command failed", "command", a.session.Command, "error", err)
	}
}

// Close waits up to the drain timeout for favorite writes still in flight,
// then closes the record store. Writes that miss the deadline are
// abandoned; the next refresh reconciles the cache. The log file stays open
// until they finish so their failures are still logged.
func (a *MBApp) Close() error {
	drained := false
	if a.drainTimeout > 0 {
		ctx, cancel := context.WithTimeout(context.Background(), a.drainTimeout)
		if err := a.service.WaitForSync(ctx); err != nil {
			a.logger.Warn("abandoning favorite writes", "timeout", a.drainTimeout, "error", err)
		} else {
			drained = true
		}
		cancel()
	}

	a.logger.Info("session finished",
		"command", a.session.Command,
		"status", a.session.Status,
		"elapsed", a.session.Elapsed(time.Now()).Round(time.Millisecond))

	err := a.closeRecords()
	if !drained {
		go func() {
			_ = a.service.WaitForSync(context.Background())
			a.closeLog()
		}()
		return err
	}
	if lerr := a.closeLog(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

func (a *MBApp) release() error {
	err := a.closeRecords()
	if lerr := a.closeLog(); lerr != nil && err == nil {
		err = lerr
	}
	return err
}

func (a *MBApp) closeRecords() error {
	if a.records == nil {
		return nil
	}
	if err := a.records.Close(); err != nil {
		return fmt.Errorf("closing record store: %w", err)
	}
	return nil
}

func (a *MBApp) closeLog() error {
	defer close(a.logClosed)
	if a.logFile == nil {
		return nil
	}
	if err := a.logFile.Close(); err != nil {
		return fmt.Errorf("closing log file: %w", err)
	}
	return nil
}
