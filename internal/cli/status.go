package cli

import (
	"github.com/spf13/cobra"
)

func newStatusCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the current status of the setup",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.Status(cmd.Context())
		},
	}
}
