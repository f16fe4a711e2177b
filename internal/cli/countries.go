package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/policyqa/internal/app"
)

var countriesCmd = &cobra.Command{
	Use:   "countries",
	Short: "List the country menu",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := app.Build(cmd.Context(), cfg, logger, app.Overrides{})
		if err != nil {
			return fmt.Errorf("build app: %w", err)
		}
		defer a.Close()

		menu, err := a.QA.Countries(cmd.Context())
		if err != nil {
			return err
		}
		renderCountries(cmd.OutOrStdout(), menu)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(countriesCmd)
}

func renderCountries(w io.Writer, menu []string) {
	for _, c := range menu {
		fmt.Fprintln(w, c)
	}
}
