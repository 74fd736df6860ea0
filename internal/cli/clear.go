package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newClearCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the applied colours",
		Long: `Remove every colour key themetree may have written from the workspace
settings. Other colour customizations and settings are left untouched.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, err := openWorkspace(cmd, opts)
			if err != nil {
				return err
			}
			defer ws.close()

			if err := ws.applier.ClearColors(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared colours in %s\n", ws.store.Path())
			return nil
		},
	}
}
