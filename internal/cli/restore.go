package cli

import (
	"github.com/spf13/cobra"

	"github.com/vexxhost/dbadmin/internal/dbadmin"
)

func newRestoreDatabaseCommand(opts *globalOptions) *cobra.Command {
	restore := dbadmin.RestoreOptions{}

	cmd := &cobra.Command{
		Use:   "restore-database",
		Short: "Restores the master from a sqldump stored in a Google Cloud Storage bucket",
		Long: `Restores the master from a sqldump stored in a Google Cloud Storage bucket.

Examples:
  # Import gs://dumps/kolibri.sql into a new database
  dbadmin restore-database --master_hostname replica1 --database_name kolibri \
    --database_user learningequality --sqldump_location dumps:kolibri.sql`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := dbadmin.ParseDumpLocation(restore.SQLDumpLocation); err != nil {
				return err
			}

			admin, err := opts.admin()
			if err != nil {
				return err
			}
			return admin.RestoreDatabase(cmd.Context(), restore)
		},
	}

	cmd.Flags().StringVar(&restore.MasterHostname, "master_hostname", "", "Hostname of the current master")
	cmd.Flags().StringVar(&restore.DatabaseName, "database_name", "", "Name of the database to be created")
	cmd.Flags().StringVar(&restore.DatabaseUser, "database_user", "", "Name of the user to be created to access postgres")
	cmd.Flags().StringVar(&restore.BarmanSourceServer, "barman_source_server", "", "The host from which to restore, as registered on Barman")
	cmd.Flags().StringVar(&restore.BarmanBackupID, "barman_backup_id", "", "The backup id for the specified host. If you want to use the latest backup, use 'latest'")
	cmd.Flags().StringVar(&restore.BarmanTargetTime, "barman_target_time", "", "The point in time to recover. Make sure this is between the begin_time and end_time of the backup specified")
	cmd.Flags().StringVar(&restore.SQLDumpLocation, "sqldump_location", "", "Location of sqldump on Google Cloud Storage for initializing the database, in the form [storage-bucket]:[path/to/sql/file]")
	markRequired(cmd, "master_hostname", "database_name", "database_user")

	return cmd
}
