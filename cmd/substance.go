package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/theirongolddev/stashtrack/internal/cli"
	"github.com/theirongolddev/stashtrack/internal/model"
	"github.com/theirongolddev/stashtrack/internal/tracker"

	"github.com/spf13/cobra"
)

var (
	flagSubstanceAll   bool
	flagSubstanceMass  string
	flagSubstanceGross string
	flagSubstanceName  string
	flagSubstanceFinal string
)

var substancesCmd = &cobra.Command{
	Use:     "substances",
	Aliases: []string{"ls"},
	Short:   "List substances with remaining mass and projections",
	RunE:    runSubstances,
}

var substanceCmd = &cobra.Command{
	Use:   "substance",
	Short: "Add, edit, retire or inspect a substance",
}

var substanceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a new active substance",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceAdd,
}

var substanceShowCmd = &cobra.Command{
	Use:   "show <substance>",
	Short: "Show remaining mass, usage rate and distribution for one substance",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceShow,
}

var substanceEditCmd = &cobra.Command{
	Use:   "edit <substance>",
	Short: "Rename a substance or correct its masses",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceEdit,
}

var substanceFinishCmd = &cobra.Command{
	Use:   "finish <substance>",
	Short: "Mark a substance finished, optionally with its weighed final mass",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceFinish,
}

var substanceReactivateCmd = &cobra.Command{
	Use:   "reactivate <substance>",
	Short: "Return a finished substance to active use",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceReactivate,
}

var substanceDeleteCmd = &cobra.Command{
	Use:   "delete <substance>",
	Short: "Delete a substance (its entries are kept)",
	Args:  cobra.ExactArgs(1),
	RunE:  runSubstanceDelete,
}

func init() {
	substancesCmd.Flags().BoolVarP(&flagSubstanceAll, "all", "a", false, "Include finished substances")

	substanceAddCmd.Flags().StringVarP(&flagSubstanceMass, "mass", "m", "1", "Advertised mass in grams")
	substanceAddCmd.Flags().StringVar(&flagSubstanceGross, "gross", "", "Weighed gross initial mass in grams")

	substanceEditCmd.Flags().StringVar(&flagSubstanceName, "name", "", "New name")
	substanceEditCmd.Flags().StringVarP(&flagSubstanceMass, "mass", "m", "", "New advertised mass in grams")
	substanceEditCmd.Flags().StringVar(&flagSubstanceGross, "gross", "", "New gross initial mass in grams")

	substanceFinishCmd.Flags().StringVar(&flagSubstanceFinal, "final", "", "Weighed gross final mass in grams")

	substanceCmd.AddCommand(substanceAddCmd, substanceShowCmd, substanceEditCmd,
		substanceFinishCmd, substanceReactivateCmd, substanceDeleteCmd)
	rootCmd.AddCommand(substancesCmd, substanceCmd)
}

func runSubstances(_ *cobra.Command, _ []string) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	ds, err := sess.tracker.LoadDataset()
	if err != nil {
		return err
	}

	now := sess.tracker.Now()
	var rows [][]string
	for _, s := range ds.Substances {
		if !s.Active && !flagSubstanceAll {
			continue
		}
		rep := tracker.BuildSubstanceReport(s, ds.Entries, now)
		status := "active"
		if !s.Active {
			status = "finished"
		}
		rows = append(rows, []string{
			cli.ShortID(s.ID),
			s.Name,
			status,
			cli.FormatMass(s.AdvertisedMass),
			cli.FormatMass(rep.Remaining),
			cli.FormatRate(rep.UsageRate),
			cli.FormatDepletion(rep.Depletion),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("SUBSTANCES"))
	fmt.Println()
	if len(rows) == 0 {
		fmt.Println("  No substances found.")
		return nil
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"ID", "Name", "Status", "Advertised", "Remaining", "Rate", "Runs out"},
		Rows:    rows,
	}))
	return nil
}

func runSubstanceAdd(_ *cobra.Command, args []string) error {
	mass, err := model.ParseMass("advertisedMass", flagSubstanceMass)
	if err != nil {
		return err
	}
	gross, err := optionalMass("grossInitialMass", flagSubstanceGross)
	if err != nil {
		return err
	}

	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	s, err := sess.tracker.AddSubstance(args[0], mass, gross)
	if err != nil {
		return err
	}
	fmt.Printf("  Added %s (%s, %s)\n", s.Name, cli.ShortID(s.ID), cli.FormatMass(s.AdvertisedMass))
	return nil
}

func runSubstanceShow(_ *cobra.Command, args []string) error {
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
	rep, err := sess.tracker.SubstanceReport(s.ID)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(strings.ToUpper(s.Name)))
	fmt.Println()

	rows := [][]string{
		{"ID", s.ID},
		{"Advertised", cli.FormatMass(s.AdvertisedMass)},
	}
	if s.GrossInitialMass != nil {
		rows = append(rows, []string{"Gross initial", cli.FormatMass(*s.GrossInitialMass)})
	}
	if s.GrossFinalMass != nil {
		rows = append(rows, []string{"Gross final", cli.FormatMass(*s.GrossFinalMass)})
	}
	rows = append(rows,
		[]string{"---"},
		[]string{"Entries", cli.FormatNumber(int64(rep.Summary.TotalEntries))},
		[]string{"Used", cli.FormatMass(rep.Summary.TotalUsed)},
		[]string{"Remaining", cli.RenderRemainingBar(rep.Remaining, s.AdvertisedMass, 20)},
		[]string{"Average entry", cli.FormatMass(rep.Summary.AverageUsage)},
		[]string{"Usage rate", cli.FormatRate(rep.UsageRate)},
		[]string{"Runs out", cli.FormatDepletion(rep.Depletion)},
	)
	if rep.Summary.LastEntry != nil {
		last := rep.Summary.LastEntry
		rows = append(rows, []string{"Last entry",
			fmt.Sprintf("%s  %s by %s", cli.FormatTimestamp(last.Timestamp), cli.FormatMass(last.Delta), last.Person)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	fmt.Println()
	fmt.Println("  Distribution")
	fmt.Print(cli.RenderDistribution(rep.Distribution, 30))
	return nil
}

func runSubstanceEdit(cmd *cobra.Command, args []string) error {
	var patch tracker.SubstancePatch
	if cmd.Flags().Changed("name") {
		name := flagSubstanceName
		patch.Name = &name
	}
	if cmd.Flags().Changed("mass") {
		mass, err := model.ParseMass("advertisedMass", flagSubstanceMass)
		if err != nil {
			return err
		}
		patch.AdvertisedMass = &mass
	}
	if cmd.Flags().Changed("gross") {
		gross, err := model.ParseMass("grossInitialMass", flagSubstanceGross)
		if err != nil {
			return err
		}
		patch.GrossInitialMass = &gross
	}
	if patch == (tracker.SubstancePatch{}) {
		return errors.New("nothing to change: pass --name, --mass or --gross")
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
	updated, err := sess.tracker.UpdateSubstance(s.ID, patch)
	if err != nil {
		return err
	}
	fmt.Printf("  Updated %s (%s)\n", updated.Name, cli.ShortID(updated.ID))
	return nil
}

func runSubstanceFinish(_ *cobra.Command, args []string) error {
	final, err := optionalMass("grossFinalMass", flagSubstanceFinal)
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
	done, err := sess.tracker.DeactivateSubstance(s.ID, final)
	if err != nil {
		return err
	}
	fmt.Printf("  Finished %s\n", done.Name)
	if done.GrossFinalMass != nil {
		fmt.Printf("  Final mass: %s\n", cli.FormatMass(*done.GrossFinalMass))
	}
	return nil
}

func runSubstanceReactivate(_ *cobra.Command, args []string) error {
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
	back, err := sess.tracker.ReactivateSubstance(s.ID)
	if err != nil {
		return err
	}
	fmt.Printf("  Reactivated %s\n", back.Name)
	return nil
}

func runSubstanceDelete(_ *cobra.Command, args []string) error {
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

	n := len(model.EntriesFor(ds.Entries, s.ID))
	desc := "This cannot be undone."
	if n > 0 {
		desc = fmt.Sprintf("Its %d entries are kept and will show as %q.", n, model.UnknownSubstance)
	}
	if err := confirm(fmt.Sprintf("Delete %s?", s.Name), desc); err != nil {
		return err
	}

	if err := sess.tracker.DeleteSubstance(s.ID); err != nil {
		return err
	}
	fmt.Printf("  Deleted %s\n", s.Name)
	return nil
}
