package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"mediabox/internal/app"
	"mediabox/internal/config"
	"mediabox/internal/encryption"
	"mediabox/internal/mb"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

// exitCode maps user errors to 2 so scripts can tell them from failures.
func exitCode(err error) int {
	var verr *mb.ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, mb.ErrNotSignedIn), errors.Is(err, mb.ErrNotFound),
		errors.Is(err, mb.ErrInvalidCredentials), errors.Is(err, encryption.ErrWrongPassphrase):
		return 2
	default:
		return 1
	}
}

func loadConfig() (*config.Config, error) {
	defaults, err := app.GetDefaults()
	if err != nil {
		return nil, fmt.Errorf("getting defaults: %w", err)
	}

	cfg, err := config.ReadFromFile(defaults["config_path"])
	if err != nil {
		return nil, fmt.Errorf("reading config (run \"mb config init\" first): %w", err)
	}
	return cfg, nil
}

// withApp reads the config, creates an MBApp for command, runs fn and
// closes the app. Close waits for favorite writes still in flight.
func withApp(cmd *cobra.Command, command string, fn func(ctx context.Context, a *app.MBApp) error) (err error) {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	opts := app.Options{Command: command}
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		opts.Stderr = os.Stderr
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewMBApp(ctx, cfg, opts)
	if err != nil {
		return fmt.Errorf("initializing app: %w", err)
	}
	defer func() {
		a.Finish(err)
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return fn(ctx, a)
}

var rootCmd = &cobra.Command{
	Use:          "mb",
	Short:        "Personal media organizer",
	SilenceUsage: true,
}

// config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg := config.NewConfig(defaults["base_dir"])
		cfg.LogDir = defaults["log_dir"]
		cfg.StateDir = defaults["state_dir"]

		if err := config.Init(defaults["config_path"], cfg); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		fmt.Printf("Configuration initialized at %s\n", defaults["config_path"])
		fmt.Printf("Base Dir: %s\n", defaults["base_dir"])
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "View configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		defaults, err := app.GetDefaults()
		if err != nil {
			return fmt.Errorf("failed to get defaults: %w", err)
		}

		cfg, err := config.ReadFromFile(defaults["config_path"])
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		fmt.Printf("Configuration from %s:\n\n", defaults["config_path"])
		fmt.Printf("Base Dir:     %s\n", cfg.BaseDir)
		fmt.Printf("Log Dir:      %s\n", cfg.LogDir)
		fmt.Printf("State Dir:    %s\n", cfg.StateDir)
		fmt.Printf("Record Store: %s\n", cfg.RecordStore.Type)
		fmt.Printf("Blob Store:   %s\n", cfg.BlobStore.Type)
		fmt.Printf("Encryption:   %s\n", cfg.Encryption.Type)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the configured stores are reachable",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "config check", func(ctx context.Context, a *app.MBApp) error {
			if err := a.ValidateSetup(ctx); err != nil {
				return err
			}
			fmt.Println("Configuration OK")
			return nil
		})
	},
}

// encryption command
var encryptionCmd = &cobra.Command{
	Use:   "encryption",
	Short: "Manage upload encryption",
}

var encryptionSetupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Generate the encryption key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, "encryption setup", func(ctx context.Context, a *app.MBApp) error {
			passphrase, err := promptNewSecret("Passphrase")
			if err != nil {
				return err
			}
			if err := a.SetupEncryption(passphrase); err != nil {
				return err
			}
			fmt.Printf("Keys written to %s\n", a.Config().Encryption.PublicKeyPath)
			return nil
		})
	},
}

func init() {
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Mirror log output to stderr")

	// config subcommands
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configCheckCmd)

	encryptionCmd.AddCommand(encryptionSetupCmd)

	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(encryptionCmd)
}
