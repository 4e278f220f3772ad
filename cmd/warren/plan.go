package main

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/napolitain/warren/internal/ledger"
	"github.com/napolitain/warren/internal/models"
	"github.com/napolitain/warren/internal/solver"
)

func newPlanCmd() *cobra.Command {
	var (
		targets map[string]int
		next    bool
	)
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan the fastest build order towards target building levels",
		Long: `Plays a copy of the saved game forward under several greedy strategies
and prints the fastest build order. The save slot is left untouched.`,
		Example: `  warren plan --target castle=3,farm=2
  warren plan --target castle=3 --next`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(targets) == 0 {
				return errors.New("at least one --target is required")
			}
			goal := make(map[models.BuildingID]int, len(targets))
			for id, level := range targets {
				goal[models.BuildingID(id)] = level
			}

			s, err := openSession(cmd.Context())
			if err != nil {
				return err
			}
			defer s.close()

			w := cmd.OutOrStdout()
			best, all, err := solver.SolveAllStrategies(s.engine.Catalog(), s.engine.Snapshot(), goal)
			if errors.Is(err, solver.ErrNoTargets) {
				if next {
					fmt.Fprintln(w, "none")
					return nil
				}
				successColor.Fprintln(w, "✓ Targets already reached")
				return nil
			}
			if err != nil {
				return err
			}

			if next {
				printNextAction(w, best)
				return nil
			}
			if !quiet {
				fmt.Fprintln(w, "\n📊 Strategies:")
				printStrategies(w, all)
			}
			fmt.Fprintf(w, "\n📋 Build order (%s):\n", best.Strategy)
			printPlan(w, best)
			if best.Reached {
				successColor.Fprintf(w, "\n✓ Targets reached in %s\n", formatTime(best.TotalTime))
			} else {
				errorColor.Fprintf(w, "\n✗ Targets not reached within %s\n", formatTime(best.TotalTime))
			}
			return nil
		},
	}
	cmd.Flags().StringToIntVarP(&targets, "target", "t", nil, "Target levels, e.g. castle=3,farm=2")
	cmd.Flags().BoolVar(&next, "next", false, "Only print the next action")
	return cmd
}

func printStrategies(w io.Writer, plans []*solver.Plan) {
	sorted := append([]*solver.Plan(nil), plans...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Reached != sorted[j].Reached {
			return sorted[i].Reached
		}
		return sorted[i].TotalTime < sorted[j].TotalTime
	})

	table := tablewriter.NewTable(w, tablewriter.WithHeader([]string{"Strategy", "Actions", "Total Time", "Reached"}))
	for _, p := range sorted {
		reached := "✗"
		if p.Reached {
			reached = "✓"
		}
		_ = table.Append([]string{p.Strategy.String(), fmt.Sprintf("%d", len(p.Actions)), formatTime(p.TotalTime), reached})
	}
	_ = table.Render()
}

func printPlan(w io.Writer, p *solver.Plan) {
	table := tablewriter.NewTable(w,
		tablewriter.WithHeader([]string{"#", "Action", "Target", "Upgrade", "Start", "End", "Duration", "Costs"}),
	)
	for i, a := range p.Actions {
		upgrade := "-"
		if a.Kind == solver.ActionBuilding {
			upgrade = fmt.Sprintf("%d → %d", a.FromLevel, a.ToLevel)
		}
		costs := "-"
		if !a.Cost.IsZero() {
			costs = ledger.FormatBundle(a.Cost)
		}
		_ = table.Append([]string{
			fmt.Sprintf("%d", i+1),
			string(a.Kind),
			formatName(a.ID),
			upgrade,
			formatTime(a.Start),
			formatTime(a.End),
			formatTime(a.End - a.Start),
			costs,
		})
	}
	_ = table.Render()
}

// printNextAction prints the first action in a script friendly form
func printNextAction(w io.Writer, p *solver.Plan) {
	a, ok := p.Next()
	if !ok {
		fmt.Fprintln(w, "none")
		return
	}
	switch a.Kind {
	case solver.ActionBuilding:
		fmt.Fprintf(w, "building:%s:%d\n", a.ID, a.ToLevel)
	default:
		fmt.Fprintf(w, "%s:%s\n", a.Kind, a.ID)
	}
}
