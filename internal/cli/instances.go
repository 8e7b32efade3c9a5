package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vexxhost/dbadmin/internal/dbadmin"
)

func newTerraformInstancesCommand(opts *globalOptions) *cobra.Command {
	provision := dbadmin.ProvisionOptions{}

	cmd := &cobra.Command{
		Use:   "terraform-instances",
		Short: "Only create instances. No configuration is done",
		Long: `Only create instances. No configuration is done.

Renders the terraform definitions of the barman host and of
--num_replicas replicas named <replica_hostname_prefix><n>, then applies
them with the terraform_instances playbook on this host.

Examples:
  # Create three replicas and the barman host
  dbadmin terraform-instances --project_id kolibri-demo --region us-central1 \
    --zone us-central1-a --disk_type pd-ssd --disk_size 50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			provision.ReplicaHostnamePrefix = opts.replicaHostnamePrefix
			provision.NumReplicas = opts.numReplicas

			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.ProvisionInstances(cmd.Context(), provision)
		},
	}

	cmd.Flags().StringVar(&provision.ProjectID, "project_id", "", "The GCE project id")
	cmd.Flags().StringVar(&provision.Zone, "zone", "", "The GCE zone")
	cmd.Flags().StringVar(&provision.Region, "region", "", "The GCE region")
	cmd.Flags().StringVar(&provision.DiskType, "disk_type", "", fmt.Sprintf("The type of the disk. One of: (%s)", strings.Join(dbadmin.DiskTypes, ", ")))
	cmd.Flags().StringVar(&provision.DiskSize, "disk_size", "", "The size of the disk")
	cmd.Flags().StringVar(&provision.MachineType, "machine_type", dbadmin.DefaultMachineType, "The machine type")
	markRequired(cmd, "project_id", "zone", "region", "disk_type", "disk_size")

	return cmd
}

func newConfigureInstancesCommand(opts *globalOptions) *cobra.Command {
	configure := dbadmin.ConfigureOptions{}

	cmd := &cobra.Command{
		Use:   "configure-instances",
		Short: "Configure instances. Assumes instances have already been created, and a tfstate file exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.ConfigureInstances(cmd.Context(), configure)
		},
	}

	cmd.Flags().StringVar(&configure.MasterHostname, "master_hostname", "", "Hostname of the replica to be configured as the master")
	cmd.Flags().StringVar(&configure.AppServerInternalIP, "appserver_internalip", "", "Internal IP address of the app server that will talk to the replicas")
	markRequired(cmd, "master_hostname")

	return cmd
}
