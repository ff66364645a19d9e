package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/stashtrack/internal/config"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive configuration wizard",
	RunE:  runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	person := cfg.General.DefaultPerson
	tz := cfg.General.Timezone
	dataDir := cfg.General.DataDir
	bucket := cfg.Backup.S3Bucket
	region := cfg.Backup.S3Region
	endpoint := cfg.Backup.S3Endpoint

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Default person").
				Description("Entries are logged for this person unless --person is given.").
				Value(&person).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a person is required")
					}
					return nil
				}),
			huh.NewInput().
				Title("Timezone").
				Description("IANA name such as Europe/Berlin. Leave empty for the system zone.").
				Value(&tz).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					_, err := time.LoadLocation(s)
					return err
				}),
			huh.NewInput().
				Title("Data directory").
				Description("Leave empty for " + config.DataDir(config.DefaultConfig())).
				Value(&dataDir),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("S3 backup bucket").
				Description("Leave empty to disable remote backups.").
				Value(&bucket),
			huh.NewInput().
				Title("S3 region").
				Value(&region),
			huh.NewInput().
				Title("S3 endpoint").
				Description("Only for S3-compatible stores such as MinIO.").
				Value(&endpoint),
		),
	)
	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return errAborted
		}
		return fmt.Errorf("setup form: %w", err)
	}

	cfg.General.DefaultPerson = strings.TrimSpace(person)
	cfg.General.Timezone = strings.TrimSpace(tz)
	cfg.General.DataDir = strings.TrimSpace(dataDir)
	cfg.Backup.S3Bucket = strings.TrimSpace(bucket)
	cfg.Backup.S3Region = strings.TrimSpace(region)
	cfg.Backup.S3Endpoint = strings.TrimSpace(endpoint)
	if cfg.Backup.S3Endpoint != "" {
		cfg.Backup.S3PathStyle = true
	}

	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  Saved configuration to %s\n", config.ConfigPath())
	return nil
}
