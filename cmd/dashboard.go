package cmd

import (
	"fmt"

	"github.com/theirongolddev/stashtrack/internal/cli"
	"github.com/theirongolddev/stashtrack/internal/tracker"

	"github.com/spf13/cobra"
)

func runDashboard(_ *cobra.Command, _ []string) error {
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
	rows := [][]string{}
	for _, s := range ds.Substances {
		if !s.Active {
			continue
		}
		rep := tracker.BuildSubstanceReport(s, ds.Entries, now)
		rows = append(rows, []string{
			s.Name,
			cli.RenderRemainingBar(rep.Remaining, s.AdvertisedMass, 12),
			cli.FormatMass(rep.Remaining),
			cli.RenderRate(rep.UsageRate),
			cli.FormatDepletion(rep.Depletion),
		})
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("STASH  Active substances"))
	fmt.Println()
	if len(rows) == 0 {
		fmt.Println("  No active substances. Add one with `stashtrack substance add`.")
		return nil
	}
	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Substance", "Level", "Remaining", "Rate", "Runs out"},
		Rows:    rows,
	}))

	person := sess.person()
	weekly, err := sess.tracker.WeeklyComparison(person)
	if err != nil {
		return err
	}
	fmt.Println()
	fmt.Printf("  %s this week: %s over %d sessions  %s\n",
		person,
		cli.FormatMass(weekly.Current.Mass),
		weekly.Current.Sessions,
		cli.RenderChange(weekly.MassChange))
	return nil
}
