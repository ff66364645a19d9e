package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/theirongolddev/stashtrack/internal/backup"
	"github.com/theirongolddev/stashtrack/internal/cli"
	"github.com/theirongolddev/stashtrack/internal/config"

	"github.com/spf13/cobra"
)

const backupTimeout = 60 * time.Second

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Copy exports to and from the configured S3 bucket",
}

var backupPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Upload JSON and CSV exports of the current dataset",
	RunE:  runBackupPush,
}

var backupListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored backups, newest first",
	RunE:  runBackupList,
}

var backupRestoreCmd = &cobra.Command{
	Use:   "restore [name]",
	Short: "Replace the dataset with a stored JSON backup (default: newest)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackupRestore,
}

func init() {
	backupCmd.AddCommand(backupPushCmd, backupListCmd, backupRestoreCmd)
	rootCmd.AddCommand(backupCmd)
}

// openUploader builds an uploader from the [backup] config section.
// Static credentials may come from STASHTRACK_S3_ACCESS_KEY_ID and
// STASHTRACK_S3_SECRET_ACCESS_KEY; otherwise the default AWS chain applies.
func openUploader(ctx context.Context, cfg config.Config) (*backup.Uploader, error) {
	if !cfg.Backup.Enabled() {
		return nil, backup.ErrNotConfigured
	}
	return backup.New(ctx, backup.Config{
		Bucket:          cfg.Backup.S3Bucket,
		Region:          cfg.Backup.S3Region,
		Endpoint:        cfg.Backup.S3Endpoint,
		Prefix:          cfg.Backup.S3Prefix,
		PathStyle:       cfg.Backup.S3PathStyle,
		AccessKeyID:     os.Getenv("STASHTRACK_S3_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("STASHTRACK_S3_SECRET_ACCESS_KEY"),
		SessionToken:    os.Getenv("STASHTRACK_S3_SESSION_TOKEN"),
	})
}

func backupSession() (*session, *backup.Uploader, context.Context, context.CancelFunc, error) {
	sess, err := openTracker()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), backupTimeout)
	u, err := openUploader(ctx, sess.cfg)
	if err != nil {
		cancel()
		sess.Close()
		if errors.Is(err, backup.ErrNotConfigured) {
			return nil, nil, nil, nil, errors.New("no backup bucket configured: set [backup] s3_bucket or run `stashtrack setup`")
		}
		return nil, nil, nil, nil, err
	}
	return sess, u, ctx, cancel, nil
}

func runBackupPush(_ *cobra.Command, _ []string) error {
	sess, u, ctx, cancel, err := backupSession()
	if err != nil {
		return err
	}
	defer cancel()
	defer sess.Close()

	progress("  Uploading to s3://%s ...\n", u.Bucket())
	objs, err := backup.Push(ctx, u, sess.tracker)
	if err != nil {
		return err
	}
	for _, o := range objs {
		fmt.Printf("  Uploaded %s (%s bytes)\n", o.Key, cli.FormatNumber(o.Size))
	}
	return nil
}

func runBackupList(_ *cobra.Command, _ []string) error {
	sess, u, ctx, cancel, err := backupSession()
	if err != nil {
		return err
	}
	defer cancel()
	defer sess.Close()

	objs, err := u.List(ctx)
	if err != nil {
		return err
	}
	if len(objs) == 0 {
		fmt.Printf("  No backups in s3://%s\n", u.Bucket())
		return nil
	}

	rows := make([][]string, 0, len(objs))
	for _, o := range objs {
		rows = append(rows, []string{
			o.Name,
			o.LastModified.Local().Format("2006-01-02 15:04"),
			cli.FormatNumber(o.Size),
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "s3://" + u.Bucket(),
		Headers: []string{"Name", "Uploaded", "Bytes"},
		Rows:    rows,
	}))
	return nil
}

func runBackupRestore(_ *cobra.Command, args []string) error {
	sess, u, ctx, cancel, err := backupSession()
	if err != nil {
		return err
	}
	defer cancel()
	defer sess.Close()

	name := ""
	if len(args) == 1 {
		name = args[0]
	} else {
		objs, err := u.List(ctx)
		if err != nil {
			return err
		}
		for _, o := range objs {
			if strings.HasSuffix(o.Name, ".json") {
				name = o.Name
				break
			}
		}
		if name == "" {
			return fmt.Errorf("no JSON backups in s3://%s", u.Bucket())
		}
	}
	if !strings.HasSuffix(name, ".json") {
		return fmt.Errorf("%s is not a JSON backup", name)
	}

	if err := confirm(fmt.Sprintf("Restore %s?", name), "Current substances and entries will be overwritten."); err != nil {
		return err
	}

	data, err := u.Fetch(ctx, name)
	if err != nil {
		return err
	}
	ds, err := sess.tracker.ImportJSON(bytes.NewReader(data))
	if err != nil {
		return err
	}
	fmt.Printf("  Restored %s: %d substances, %d entries\n", name, len(ds.Substances), len(ds.Entries))
	return nil
}
