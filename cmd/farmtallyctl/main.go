// Command farmtallyctl runs one-off operator tasks against the FarmTally
// database.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"farmtally/internal/config"
	"farmtally/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:           "farmtallyctl",
	Short:         "FarmTally operator tools",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		settings := config.Load()
		logger.Setup(settings.LogFile, settings.LogLevel)
	},
}

// openDB is swapped out in tests.
var openDB = func() (*gorm.DB, error) {
	return config.OpenDB(config.App)
}

func init() {
	rootCmd.AddCommand(migrateCmd, createAdminCmd, exportDeliveriesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
