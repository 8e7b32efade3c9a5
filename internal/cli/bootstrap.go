package cli

import (
	"github.com/spf13/cobra"
)

func newBootstrapCommand(opts *globalOptions) *cobra.Command {
	var iamAccount string

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Installs dependencies needed by the admin tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.Bootstrap(cmd.Context(), iamAccount)
		},
	}

	cmd.Flags().StringVar(&iamAccount, "iam_account", "", "The service account in the form <service-account-id>@<project-id>.iam.gserviceaccount.com")
	markRequired(cmd, "iam_account")

	return cmd
}
