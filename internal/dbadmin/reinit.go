package dbadmin

import (
	"context"

	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/internal/workflows"
)

// ReinitOptions are the inputs of the reinit-standby command.
type ReinitOptions struct {
	MasterHostname   string
	InstanceHostname string

	// GCSBucket, when set, receives a copy of the failed instance's data
	// directory before it is recreated.
	GCSBucket string

	// Executable is the dbadmin binary the playbooks call back into.
	Executable string
}

// ReinitStandby brings down a failed instance and adds it back as a standby.
// Each step is a separate playbook run; a failed step leaves the earlier ones
// in place.
func (a *Admin) ReinitStandby(ctx context.Context, opts ReinitOptions) error {
	vars := render.Vars{
		"replica": map[string]interface{}{
			"hostname": opts.InstanceHostname,
		},
		"master": map[string]interface{}{
			"hostname": opts.MasterHostname,
		},
		"gcs_bucket":     opts.GCSBucket,
		"dbadmin_script": opts.Executable,
	}

	step := func(name string) workflows.StepFunc {
		return func(ctx context.Context) error {
			return a.dispatch(ctx, playbook.Request{
				Playbook:  "reinit_standby",
				Step:      name,
				Vars:      vars,
				Inventory: a.Config.HostsFile(),
			})
		}
	}

	return workflows.NewPipeline(ctx, "reinit-standby").
		StepIf(opts.GCSBucket != "", "backup_data_directory", step("backup_data_directory")).
		Step("delete_and_recreate", step("delete_and_recreate")).
		Step("setup_standby", step("setup_standby")).
		Run()
}
