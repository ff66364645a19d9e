package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashtrack/internal/cli"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/stats"

	"github.com/spf13/cobra"
)

var (
	flagLogNotes       string
	flagHistoryLimit   int
	flagHistoryAll     bool
	flagHistorySubject string
)

var logCmd = &cobra.Command{
	Use:   "log <substance> <grams>",
	Short: "Record usage against an active substance",
	Args:  cobra.ExactArgs(2),
	RunE:  runLog,
}

var entryCmd = &cobra.Command{
	Use:   "entry",
	Short: "Correct or remove a recorded entry",
}

var entryEditCmd = &cobra.Command{
	Use:   "edit <entry> <grams>",
	Short: "Correct the recorded mass of an entry",
	Args:  cobra.ExactArgs(2),
	RunE:  runEntryEdit,
}

var entryDeleteCmd = &cobra.Command{
	Use:   "delete <entry>",
	Short: "Delete an entry",
	Args:  cobra.ExactArgs(1),
	RunE:  runEntryDelete,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent entries, newest first",
	RunE:  runHistory,
}

func init() {
	logCmd.Flags().StringVar(&flagLogNotes, "notes", "", "Free-text note (max 200 characters)")

	historyCmd.Flags().IntVarP(&flagHistoryLimit, "limit", "n", 20, "Number of entries to show (0 for all)")
	historyCmd.Flags().BoolVarP(&flagHistoryAll, "all", "a", false, "Show every person's entries")
	historyCmd.Flags().StringVarP(&flagHistorySubject, "substance", "s", "", "Only entries for this substance")

	entryCmd.AddCommand(entryEditCmd, entryDeleteCmd)
	rootCmd.AddCommand(logCmd, entryCmd, historyCmd)
}

func runLog(_ *cobra.Command, args []string) error {
	delta, err := model.ParseMass("delta", args[1])
	if err != nil {
		return err
	}

	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.LoadDataset()
	if err != nil {
		return err
	}
	s, err := resolveSubstance(ds, args[0])
	if err != nil {
		return err
	}

	e, err := sess.tracker.AddEntry(s.ID, sess.person(), delta, flagLogNotes)
	if err != nil {
		return err
	}
	remaining, err := sess.tracker.Remaining(s.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  Logged %s of %s for %s (%s)\n", cli.FormatMass(e.Delta), s.Name, e.Person, cli.ShortID(e.ID))
	fmt.Printf("  Remaining: %s\n", cli.FormatMass(remaining))
	return nil
}

func runEntryEdit(_ *cobra.Command, args []string) error {
	delta, err := model.ParseMass("delta", args[1])
	if err != nil {
		return err
	}

	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.LoadDataset()
	if err != nil {
		return err
	}
	e, err := resolveEntry(ds, args[0])
	if err != nil {
		return err
	}
	updated, err := sess.tracker.UpdateEntry(e.ID, delta)
	if err != nil {
		return err
	}
	fmt.Printf("  Entry %s: %s -> %s\n", cli.ShortID(e.ID), cli.FormatMass(e.Delta), cli.FormatMass(updated.Delta))
	return nil
}

func runEntryDelete(_ *cobra.Command, args []string) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.LoadDataset()
	if err != nil {
		return err
	}
	e, err := resolveEntry(ds, args[0])
	if err != nil {
		return err
	}

	title := fmt.Sprintf("Delete %s of %s from %s?",
		cli.FormatMass(e.Delta), ds.SubstanceName(e.SubstanceID), cli.FormatTimestamp(e.Timestamp))
	if err := confirm(title, "This cannot be undone."); err != nil {
		return err
	}
	if err := sess.tracker.DeleteEntry(e.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted entry %s\n", cli.ShortID(e.ID))
	return nil
}

func runHistory(_ *cobra.Command, _ []string) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.LoadDataset()
	if err != nil {
		return err
	}

	entries := ds.Entries
	if !flagHistoryAll {
		entries = stats.FilterByPerson(entries, sess.person())
	}
	if flagHistorySubject != "" {
		s, err := resolveSubstance(ds, flagHistorySubject)
		if err != nil {
			return err
		}
		entries = stats.FilterBySubstance(entries, s.ID)
	}
	if flagHistoryLimit > 0 && len(entries) > flagHistoryLimit {
		entries = entries[:flagHistoryLimit]
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("HISTORY"))
	fmt.Println()
	if len(entries) == 0 {
		fmt.Println("  No entries recorded.")
		return nil
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			cli.ShortID(e.ID),
			cli.FormatTimestamp(e.Timestamp),
			ds.SubstanceName(e.SubstanceID),
			e.Person,
			cli.FormatMass(e.Delta),
			e.Notes,
		})
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "When", "Substance", "Person", "Mass", "Notes"},
		Rows:    rows,
	}))
	return nil
}
