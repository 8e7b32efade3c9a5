/*
Dbadmin provisions and operates a replicated PostgreSQL cluster on Google
Compute Engine. Instances are created with terraform and configured with
ansible playbooks rendered from the templates shipped in the binary.

Usage:

	dbadmin [command]

Available Commands:

	bootstrap            Install the tools dbadmin needs on this host
	terraform-instances  Create the master, standby and barman instances
	generate-hosts       Write the ansible inventory from the terraform state
	configure-instances  Configure replication and backups on the instances
	restore-database     Restore the master from a sqldump or a barman backup
	reinit-standby       Add a failed instance back as a standby
	status               Show the replication status of the cluster

Examples:

	# Prepare a fresh admin host
	dbadmin bootstrap --iam_account dbadmin@kolibri-demo.iam.gserviceaccount.com

	# Create and configure three replicas
	dbadmin terraform-instances --project_id kolibri-demo --region us-central1 \
	  --zone us-central1-a --disk_type pd-ssd --disk_size 50
	dbadmin configure-instances --master_hostname replica1

Configuration is read from ~/.dbadmin/dbadmin.yaml when present. The
LOG_LEVEL environment variable (DEBUG, INFO, ERROR) sets the log level; it defaults to DEBUG.
*/
package main
