package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashtrack/internal/cli"
	"github.com/theirongolddev/stashtrack/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	dataDir := flagDataDir
	if dataDir == "" {
		dataDir = config.DataDir(cfg)
	}
	fmt.Println("  [General]")
	fmt.Printf("    Data directory:  %s\n", dataDir)
	fmt.Printf("    Database:        %s\n", config.DBPath(dataDir))
	fmt.Printf("    Default person:  %s\n", cfg.General.DefaultPerson)
	if cfg.General.Timezone != "" {
		fmt.Printf("    Timezone:        %s\n", cfg.General.Timezone)
	} else {
		fmt.Println("    Timezone:        system local")
	}
	fmt.Println()

	fmt.Println("  [Seed]")
	for _, s := range cfg.Seed.Substances {
		fmt.Printf("    %-16s %s\n", s.Name, cli.FormatMass(s.AdvertisedMass))
	}
	fmt.Println()

	fmt.Println("  [Backup]")
	if cfg.Backup.Enabled() {
		fmt.Printf("    Bucket:   %s\n", cfg.Backup.S3Bucket)
		fmt.Printf("    Prefix:   %s\n", cfg.Backup.S3Prefix)
		if cfg.Backup.S3Region != "" {
			fmt.Printf("    Region:   %s\n", cfg.Backup.S3Region)
		}
		if cfg.Backup.S3Endpoint != "" {
			fmt.Printf("    Endpoint: %s (path style: %v)\n", cfg.Backup.S3Endpoint, cfg.Backup.S3PathStyle)
		}
	} else {
		fmt.Println("    S3 bucket: not configured")
	}
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:       %s\n", cfg.Server.Addr)
	fmt.Printf("    Events buffer: %d\n", cfg.Server.EventsBuffer)
	fmt.Println()

	fmt.Println("  Run `stashtrack setup` to reconfigure.")
	return nil
}
