package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/alexanderramin/pistemind/internal/tactics"
)

func newContextCmd(app *App) *cobra.Command {
	var seed uint64
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "context",
		Short: "Sample and print a scenario context without generating anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			sampler := app.Sampler
			if cmd.Flags().Changed("seed") {
				sampler = tactics.NewSeededSampler(seed)
			} else if sampler == nil {
				sampler = tactics.NewSampler()
			}
			sc := sampler.Sample()
			if jsonOut {
				return printJSON(cmd, sc)
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), tactics.Format(sc))
			return err
		},
	}

	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible sample")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the raw selections as JSON")

	return cmd
}
