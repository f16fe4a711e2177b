package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyqa/internal/app"
	usageuc "github.com/kailas-cloud/policyqa/internal/usecase/usage"
)

var usagePeriod string

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Show token budget consumption",
	Long:  "Show persisted token counters for every provider with a configured budget.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		period, err := usageuc.ParsePeriod(usagePeriod)
		if err != nil {
			return err
		}

		a, err := app.Build(cmd.Context(), cfg, logger, app.Overrides{})
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		defer a.Close()

		return renderUsage(cmd.OutOrStdout(), a.Usage.GetReport(cmd.Context(), period))
	},
}

func init() {
	rootCmd.AddCommand(usageCmd)
	usageCmd.Flags().StringVar(&usagePeriod, "period", string(usageuc.PeriodDay), "day or month")
}

func renderUsage(w io.Writer, r usageuc.Report) error {
	fmt.Fprintf(w, "Period: %s (%s - %s UTC)\n\n", r.Period,
		r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"))
	if len(r.Providers) == 0 {
		fmt.Fprintln(w, "no token budgets configured")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROVIDER\tUSED\tLIMIT\tREMAINING\tACTION")
	for _, p := range r.Providers {
		limit, rem := "unlimited", "-"
		if p.Limit > 0 {
			limit = fmt.Sprint(p.Limit)
			rem = fmt.Sprint(p.Remaining)
		}
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\n", p.Provider, p.Used, limit, rem, p.Action)
	}
	return tw.Flush()
}
