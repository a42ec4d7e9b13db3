package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "medbook",
		Short: "Medical appointment booking service",
	}
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default $MEDBOOK_CONFIG_PATH or configs/config.yaml)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(backupCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
