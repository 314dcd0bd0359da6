package main

import (
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"torrup/internal/activity"
	"torrup/internal/logging"
	"torrup/internal/notifications"
	"torrup/internal/queue"
)

func newActivityCommand(ctx *commandContext) *cobra.Command {
	var historyMonths int

	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show monthly upload quota and pace",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *queue.Store) error {
				monitor := activity.NewMonitor(store, notifications.NewNop(), logging.NewNop())

				health, err := monitor.Health(cmd.Context())
				if err != nil {
					return err
				}
				history, err := monitor.MonthlyHistory(cmd.Context(), historyMonths)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()

				pace := "n/a"
				if health.Pace != nil {
					pace = fmt.Sprintf("%.2f/day", *health.Pace)
				}
				state := "ok"
				if health.Critical {
					state = "critical"
					if isTerminal(out) {
						state = text.FgRed.Sprint(state)
					}
				}

				rows := [][]string{
					{"Uploads this month", strconv.Itoa(health.Uploads)},
					{"Queued", strconv.Itoa(health.Queued)},
					{"Projected", strconv.Itoa(health.Projected)},
					{"Minimum", strconv.Itoa(health.Minimum)},
					{"Still needed", strconv.Itoa(health.Needed)},
					{"Days remaining", strconv.Itoa(health.DaysRemaining)},
					{"Pace (7-day)", pace},
					{"Enforcement", strconv.FormatBool(health.Enforce)},
					{"State", state},
				}
				fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))

				historyRows := make([][]string, 0, len(history))
				for _, month := range history {
					historyRows = append(historyRows, []string{month.Month, strconv.Itoa(month.Uploads)})
				}
				fmt.Fprintln(out, renderTable([]string{"Month", "Uploads"}, historyRows, []columnAlignment{alignLeft, alignRight}))
				return nil
			})
		},
	}

	cmd.Flags().IntVar(&historyMonths, "months", 6, "Months of history to show")
	return cmd
}
