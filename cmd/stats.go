package cmd

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/stashtrack/internal/cli"

	"github.com/spf13/cobra"
)

var flagStatsInactive bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Per-person usage statistics",
	RunE:  runStats,
}

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "List everyone who has recorded entries",
	RunE:  runPeople,
}

func init() {
	statsCmd.Flags().BoolVarP(&flagStatsInactive, "inactive", "i", false, "Include finished substances in the breakdown")
	rootCmd.AddCommand(statsCmd, peopleCmd)
}

func runStats(_ *cobra.Command, _ []string) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	person := sess.person()
	rep, err := sess.tracker.PersonReport(person, flagStatsInactive)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("STATS  " + strings.ToUpper(person)))
	fmt.Println()

	o := rep.Overall
	if o.TotalSessions == 0 {
		fmt.Printf("  No entries recorded for %s.\n", person)
		return nil
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total mass", cli.FormatMass(o.TotalMass)},
			{"Sessions", cli.FormatNumber(int64(o.TotalSessions))},
			{"First entry", cli.FormatDate(o.First)},
			{"Last entry", cli.FormatDate(o.Last)},
			{"Span", fmt.Sprintf("%d days (%d active)", o.SpanDays, o.ActiveDays)},
			{"---"},
			{"Mass/day", cli.FormatRate(o.MassPerDay)},
			{"Sessions/day", cli.FormatRate(o.SessionsPerDay)},
			{"Mass/active day", cli.FormatRate(o.MassPerActiveDay)},
			{"Sessions/active day", cli.FormatRate(o.SessionsPerActiveDay)},
		},
	}))

	w := rep.Weekly
	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:   "This week vs last",
		Headers: []string{"", "This week", "Last week", "Change"},
		Rows: [][]string{
			{"Mass", cli.FormatMass(w.Current.Mass), cli.FormatMass(w.Previous.Mass), cli.RenderChange(w.MassChange)},
			{"Sessions", fmt.Sprintf("%d", w.Current.Sessions), fmt.Sprintf("%d", w.Previous.Sessions), cli.RenderChange(w.SessionsChange)},
		},
	}))

	if len(rep.Substances) > 0 {
		rows := make([][]string, 0, len(rep.Substances))
		for _, s := range rep.Substances {
			actual := "-"
			if s.HasFinalMass {
				actual = fmt.Sprintf("%s (logged %s)", cli.FormatMass(s.ActualMassUsed), cli.FormatMass(s.UsedFromEntries))
			}
			rows = append(rows, []string{
				s.Substance.Name,
				cli.FormatMass(s.TotalMass),
				fmt.Sprintf("%d", s.Sessions),
				cli.FormatRate(s.MassPerDay),
				actual,
				cli.FormatMass(s.AvgSessionMass),
			})
		}
		fmt.Println()
		fmt.Print(cli.RenderTable(cli.Table{
			Title:   "By substance",
			Headers: []string{"Substance", "Mass", "Sessions", "Mass/day", "Actual used", "Avg/session"},
			Rows:    rows,
		}))
	}

	values := make([]float64, len(rep.DayOfWeek))
	labels := make([]string, len(rep.DayOfWeek))
	for i, d := range rep.DayOfWeek {
		values[i] = d.AvgMass
		labels[i] = d.Day[:1]
	}
	fmt.Println()
	fmt.Printf("  Avg mass by weekday  %s  %s\n", cli.RenderSparkline(values), cli.Muted(strings.Join(labels, "")))
	return nil
}

func runPeople(_ *cobra.Command, _ []string) error {
	sess, err := openTracker()
	if err != nil {
		return err
	}
	defer sess.Close()

	people, err := sess.tracker.People()
	if err != nil {
		return err
	}
	if len(people) == 0 {
		fmt.Println("  No entries recorded.")
		return nil
	}
	for _, p := range people {
		marker := " "
		if p == sess.person() {
			marker = "*"
		}
		fmt.Printf("  %s %s\n", marker, p)
	}
	return nil
}
