package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"medbook/internal/export"
	"medbook/internal/i18n"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export appointments to an Excel file",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			lang, _ := cmd.Flags().GetString("lang")

			ctx := context.Background()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.store.List(ctx)
			if err != nil {
				return err
			}

			now := a.service.Now()
			if out == "" {
				out = export.GenerateFilename(now)
			}
			if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
				return err
			}

			tag, err := language.Parse(lang)
			if err != nil {
				tag = i18n.English
			}

			w := export.NewExcelizeWriter()
			defer w.Close()
			if err := export.WriteAppointments(w, list, now, i18n.For(tag)); err != nil {
				return err
			}
			if err := w.SaveToFile(out); err != nil {
				return fmt.Errorf("save %s: %w", out, err)
			}

			a.logger.Info().Str("file", out).Int("appointments", len(list)).Msg("export written")
			return nil
		},
	}
	cmd.Flags().String("out", "", "Output file (default appointments_<date>.xlsx)")
	cmd.Flags().String("lang", "en", "Language for status labels (en, vi)")
	return cmd
}

func backupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Back up the appointment storage and prune old backups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			svc := a.backupService()
			if svc == nil {
				return fmt.Errorf("storage backend %q has no local file to back up", a.cfg.Storage.Backend)
			}
			path, err := svc.PerformBackup(ctx)
			if err != nil {
				return err
			}
			removed := svc.CleanupOldBackups()
			a.logger.Info().Str("file", path).Int("removed", removed).Msg("backup done")
			return nil
		},
	}
}
