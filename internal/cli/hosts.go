package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newGenerateHostsCommand(opts *globalOptions) *cobra.Command {
	var masterHostname string

	cmd := &cobra.Command{
		Use:   "generate-hosts",
		Short: "Generates a hosts file in the .dbadmin directory based upon the current tfstate",
		Long: `Generates a hosts file in the .dbadmin directory based upon the current
tfstate. Useful for running ansible commands.

The resulting topology is printed as YAML.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := opts.admin()
			if err != nil {
				return err
			}

			topo, err := admin.GenerateHosts(cmd.Context(), masterHostname)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(topo)
			if err != nil {
				return fmt.Errorf("failed to print topology: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	}

	cmd.Flags().StringVar(&masterHostname, "master_hostname", "", "Hostname of the replica to be configured as the master")
	markRequired(cmd, "master_hostname")

	return cmd
}
