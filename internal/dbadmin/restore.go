package dbadmin

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
)

// ErrInvalidDumpLocation is returned when the sqldump location is not of the
// form bucket:path.
var ErrInvalidDumpLocation = errors.New("location of sqldump on Google Cloud Storage for initializing the database must be in the form [storage-bucket]:[path/to/sql/file]")

// RestoreOptions are the inputs of the restore-database command.
type RestoreOptions struct {
	MasterHostname string
	DatabaseName   string
	DatabaseUser   string

	// SQLDumpLocation is bucket:path of the dump on Google Cloud Storage.
	SQLDumpLocation string

	BarmanSourceServer string
	BarmanBackupID     string
	BarmanTargetTime   string
}

// ParseDumpLocation splits a bucket:path location.
func ParseDumpLocation(location string) (bucket, path string, err error) {
	bucket, path, ok := strings.Cut(location, ":")
	if !ok || bucket == "" || path == "" {
		return "", "", fmt.Errorf("%w, got %q", ErrInvalidDumpLocation, location)
	}
	return bucket, path, nil
}

// RestoreDatabase imports a sqldump into the master. The dump location is
// validated first; nothing runs when it is malformed.
func (a *Admin) RestoreDatabase(ctx context.Context, opts RestoreOptions) error {
	bucket, dumpPath, err := ParseDumpLocation(opts.SQLDumpLocation)
	if err != nil {
		return err
	}

	return a.dispatch(ctx, playbook.Request{
		Playbook: "restore_database",
		Vars: render.Vars{
			"dbname":           opts.DatabaseName,
			"dbuser":           opts.DatabaseUser,
			"db_import_bucket": bucket,
			"db_import_path":   dumpPath,
			"master": map[string]interface{}{
				"hostname": opts.MasterHostname,
			},
			"barman": map[string]interface{}{
				"source_server": opts.BarmanSourceServer,
				"backup_id":     opts.BarmanBackupID,
				"target_time":   opts.BarmanTargetTime,
			},
		},
		Inventory: a.Config.HostsFile(),
	})
}
