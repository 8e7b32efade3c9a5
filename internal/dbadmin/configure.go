package dbadmin

import (
	"context"
	"os"
	"path"

	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/internal/topology"
	"github.com/vexxhost/dbadmin/internal/workflows"
)

// ConfigureOptions are the inputs of the configure-instances command.
type ConfigureOptions struct {
	MasterHostname      string
	AppServerInternalIP string
}

type hostFile struct {
	template string
	// dir is relative to the working root.
	dir  string
	name string
	// shared files are rendered without any variables.
	shared bool
	perm   os.FileMode
}

// hostFiles returns the files rendered for a replica.
func hostFiles(hostname string) []hostFile {
	configDir := path.Join("config", hostname)
	scriptDir := path.Join("scripts", hostname)

	return []hostFile{
		{template: "config/barman/barman.conf", dir: "config/barman", name: "barman.conf", shared: true, perm: 0o644},
		{template: "config/barman/replica.conf", dir: "config/barman", name: hostname + ".conf", perm: 0o644},
		{template: "config/replica/pg_hba.conf", dir: configDir, name: "pg_hba.conf", perm: 0o644},
		{template: "config/replica/postgresql.conf", dir: configDir, name: "postgresql.conf", perm: 0o644},
		{template: "config/replica/repmgr.conf", dir: configDir, name: "repmgr.conf", perm: 0o644},
		{template: "scripts/follow.sh", dir: scriptDir, name: "follow.sh", shared: true, perm: 0o755},
		{template: "scripts/promote.sh", dir: scriptDir, name: "promote.sh", perm: 0o755},
		{template: "scripts/restore.py", dir: scriptDir, name: "restore.py", perm: 0o755},
	}
}

// replicaVars returns the variables of the per-host templates.
func replicaVars(topo *topology.Topology, host topology.Host, appServerInternalIP string) render.Vars {
	return render.Vars{
		"host":   host.Vars(),
		"barman": topo.Barman.Vars(),
		"app_server": map[string]interface{}{
			"internal_ip": appServerInternalIP,
		},
		"master": topo.Master.Vars(),
	}
}

// ConfigureInstances generates the inventory, renders the configuration and
// scripts of every replica, then configures all instances with the
// configure_instances playbook. Instances must already exist.
func (a *Admin) ConfigureInstances(ctx context.Context, opts ConfigureOptions) error {
	topo, err := a.GenerateHosts(ctx, opts.MasterHostname)
	if err != nil {
		return err
	}

	p := workflows.NewPipeline(ctx, "configure-instances")

	for _, host := range topo.Replicas {
		host := host
		vars := replicaVars(topo, host, opts.AppServerInternalIP)

		p.Step("render-files-"+host.Hostname, func(context.Context) error {
			for _, f := range hostFiles(host.Hostname) {
				v := vars
				if f.shared {
					v = render.Vars{}
				}
				if err := a.renderFile(f.template, v, path.Join(f.dir, f.name), f.perm); err != nil {
					return err
				}
			}
			return nil
		})
	}

	p.Step("run-configure-instances", func(ctx context.Context) error {
		return a.dispatch(ctx, playbook.Request{
			Playbook:  "configure_instances",
			Vars:      render.Vars(topo.Vars()),
			Inventory: a.Config.HostsFile(),
		})
	})

	return p.Run()
}
