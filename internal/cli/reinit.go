package cli

import (
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vexxhost/dbadmin/internal/dbadmin"
)

func newReinitStandbyCommand(opts *globalOptions) *cobra.Command {
	reinit := dbadmin.ReinitOptions{}

	cmd := &cobra.Command{
		Use:   "reinit-standby",
		Short: "Brings down a failed instance and adds it back as a standby to the current configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exe, err := executable()
			if err != nil {
				log.Warn("Failed to locate executable", "error", err)
				exe = "dbadmin"
			}
			reinit.Executable = exe

			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.ReinitStandby(cmd.Context(), reinit)
		},
	}

	cmd.Flags().StringVar(&reinit.MasterHostname, "master_hostname", "", "Hostname of the current master")
	cmd.Flags().StringVar(&reinit.InstanceHostname, "instance_hostname", "", "Hostname of the failed instance to be added back as a standby")
	cmd.Flags().StringVar(&reinit.GCSBucket, "gcs_bucket", "", "Optional bucket to backup the failed instance's data directory before recreating it")
	markRequired(cmd, "master_hostname", "instance_hostname")

	return cmd
}
