package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/theirongolddev/stashtrack/internal/codec"

	"github.com/spf13/cobra"
)

var flagExportOut string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the dataset to a backup file",
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Export the full dataset as JSON (re-importable)",
	RunE:  func(_ *cobra.Command, _ []string) error { return runExport(codec.KindJSON) },
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Export entries as CSV for spreadsheets",
	RunE:  func(_ *cobra.Command, _ []string) error { return runExport(codec.KindCSV) },
}

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Replace the dataset with a JSON backup",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Delete every substance and entry",
	RunE:  runClear,
}

func init() {
	exportCmd.PersistentFlags().StringVarP(&flagExportOut, "out", "o", "", "Output path, or - for stdout (default tracker-<date>.<ext>)")
	exportCmd.AddCommand(exportJSONCmd, exportCSVCmd)
	rootCmd.AddCommand(exportCmd, importCmd, clearCmd)
}

func runExport(kind codec.Kind) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	var buf bytes.Buffer
	switch kind {
	case codec.KindJSON:
		data, err := sess.tracker.ExportJSON()
		if err != nil {
			return err
		}
		buf.Write(data)
	case codec.KindCSV:
		if err := sess.tracker.ExportCSV(&buf); err != nil {
			return err
		}
	}

	if flagExportOut == "-" {
		_, err := io.Copy(os.Stdout, &buf)
		return err
	}

	out := flagExportOut
	if out == "" {
		out = sess.tracker.ExportFilename(kind)
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("creating export dir: %w", err)
		}
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	fmt.Printf("  Exported %s to %s\n", kind, out)
	return nil
}

func runImport(_ *cobra.Command, args []string) error {
	//nolint:gosec // import path is given by the local user
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening backup: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := confirm("Replace all data with this backup?", "Current substances and entries will be overwritten."); err != nil {
		return err
	}

	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.ImportJSON(f)
	if err != nil {
		return err
	}
	fmt.Printf("  Imported %d substances and %d entries\n", len(ds.Substances), len(ds.Entries))
	return nil
}

func runClear(_ *cobra.Command, _ []string) error {
	if err := confirm("Delete all data?", "Every substance and entry is removed. Export a backup first."); err != nil {
		return err
	}

	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.tracker.ClearAll(); err != nil {
		return err
	}
	fmt.Println("  Cleared all data. Default substances are restored on next use.")
	return nil
}
