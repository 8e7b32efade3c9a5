package dbadmin

import (
	"context"
	"path/filepath"

	"github.com/vexxhost/dbadmin/internal/command"
	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/internal/workflows"
)

// BootstrapCommands returns the commands preparing this host to run dbadmin.
func (a *Admin) BootstrapCommands() []command.Command {
	cfg := a.Config

	aptInstall := command.Command{"sudo", "apt-get", "install", "-y"}
	aptInstall = append(aptInstall, cfg.Bootstrap.Packages...)

	pipInstall := command.Command{"sudo", "pip", "install"}
	pipInstall = append(pipInstall, cfg.Bootstrap.PipPackages...)

	cmds := []command.Command{
		command.MustParse("sudo apt-get update"),
	}
	if len(cfg.Bootstrap.Packages) > 0 {
		cmds = append(cmds, aptInstall)
	}
	cmds = append(cmds, command.MustParse("sudo pip install --upgrade pip"))
	if len(cfg.Bootstrap.PipPackages) > 0 {
		cmds = append(cmds, pipInstall)
	}

	return append(cmds,
		command.Command{"mkdir", "-p", filepath.Join(cfg.WorkingRoot, "playbooks")},
		command.Command{"cp", filepath.Join(cfg.ScriptRoot, "ip.j2"), filepath.Join(cfg.WorkingRoot, "ip.j2")},
	)
}

// Bootstrap installs the dependencies of the admin host and runs the local
// bootstrap_admin playbook granting it the service account.
func (a *Admin) Bootstrap(ctx context.Context, iamAccount string) error {
	return workflows.NewPipeline(ctx, "bootstrap").
		Step("install-local-files", func(context.Context) error {
			return a.installLocalFiles()
		}).
		Step("install-dependencies", func(ctx context.Context) error {
			return a.Runner.Run(ctx, a.BootstrapCommands()...)
		}).
		Step("run-bootstrap-admin", func(ctx context.Context) error {
			return a.dispatch(ctx, playbook.Request{
				Playbook:  "bootstrap_admin",
				Vars:      render.Vars{"service_account": iamAccount},
				Inventory: a.Config.LocalInventory,
				Local:     true,
			})
		}).
		Run()
}
