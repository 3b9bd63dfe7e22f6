// Command backup exports and imports Aura accounts as JSON.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/TheRajesh1612/Aura-ChatBot/internal/config"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/logging"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/service"
	"github.com/TheRajesh1612/Aura-ChatBot/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var dbURI string

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Aura account backup tool",
		Long: `Export accounts to a JSON file or import them back. Works against any
backend DB_URI selects (sqlite, postgres, mysql or mongodb). Imports merge:
accounts whose email already exists are skipped.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&dbURI, "db", "", "database URI (overrides DB_URI)")

	open := func(ctx context.Context) (*service.BackupService, func(), error) {
		cfg := config.Load()
		if dbURI != "" {
			cfg.DatabaseURI = dbURI
		}
		logger := logging.Setup("aura-backup", "", "text", cfg.Debug, os.Stderr)

		stores, err := storage.Open(ctx, cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		// Schema must exist before reading or writing accounts
		if err := stores.Migrate(ctx); err != nil {
			_ = stores.Close(context.Background())
			return nil, nil, err
		}
		closeFn := func() { _ = stores.Close(context.Background()) }
		return service.NewBackupService(stores.Users, stores.Backend, logger), closeFn, nil
	}

	cmd.AddCommand(newExportCmd(open), newImportCmd(open))
	return cmd
}

type openFunc func(ctx context.Context) (*service.BackupService, func(), error)

func newExportCmd(open openFunc) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export accounts to a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			backupService, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()
			return handleExport(cmd, backupService, output)
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: backup_YYYYMMDD_HHMMSS.json)")
	return cmd
}

func newImportCmd(open openFunc) *cobra.Command {
	var input string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import accounts from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := os.Stat(input); os.IsNotExist(err) {
				return fmt.Errorf("input file does not exist: %s", input)
			}
			backupService, closeFn, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			stats, err := backupService.Import(cmd.Context(), input)
			if err != nil {
				return err
			}
			cmd.Printf("Import complete: %d imported, %d skipped\n", stats.Imported, stats.Skipped)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "input file path")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

func handleExport(cmd *cobra.Command, backupService *service.BackupService, outputPath string) error {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}

	dir := filepath.Dir(outputPath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	slog.Info("exporting accounts", "path", outputPath)
	if err := backupService.Export(cmd.Context(), outputPath); err != nil {
		return err
	}

	if info, err := os.Stat(outputPath); err == nil {
		cmd.Printf("Export complete: %s (%.2f KB)\n", outputPath, float64(info.Size())/1024)
	}
	return nil
}
