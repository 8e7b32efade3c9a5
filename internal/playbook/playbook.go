// Package playbook renders ansible playbooks and runs them.
package playbook

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/vexxhost/dbadmin/internal/command"
	"github.com/vexxhost/dbadmin/internal/render"
)

const (
	playbooksDir = "playbooks"
	extension    = ".yml"
)

// Runner executes a batch of external commands
type Runner interface {
	Run(ctx context.Context, cmds ...command.Command) error
}

// Request describes a single playbook run.
type Request struct {
	// Playbook is the name of the playbook.
	Playbook string

	// Step optionally selects one step of a multi-step playbook.
	Step string

	// Vars are the variables rendered into the playbook template.
	Vars render.Vars

	// Inventory is the path of the hosts file to run against.
	Inventory string

	// Local runs the playbook with a local connection.
	Local bool
}

// Path returns the playbook path relative to the template and working roots.
func (r Request) Path() string {
	if r.Step != "" {
		return filepath.Join(playbooksDir, r.Playbook, r.Step+extension)
	}
	return filepath.Join(playbooksDir, r.Playbook+extension)
}

func (r Request) name() string {
	if r.Step != "" {
		return r.Playbook + "/" + r.Step
	}
	return r.Playbook
}

// Dispatcher renders playbook templates into the working root and runs them
// with ansible-playbook.
type Dispatcher struct {
	Renderer    *render.Renderer
	Runner      Runner
	WorkingRoot string

	// Binary is the ansible-playbook executable.
	Binary string

	// Debug runs ansible-playbook with maximum verbosity.
	Debug bool
}

// Command returns the ansible-playbook invocation for a rendered playbook.
func (d *Dispatcher) Command(inventory string, local bool, playbookPath string) command.Command {
	cmd := command.Command{d.Binary}
	if d.Debug {
		cmd = append(cmd, "-vvvv")
	}
	cmd = append(cmd, "-i", inventory)
	if local {
		cmd = append(cmd, "-c", "local")
	}
	return append(cmd, playbookPath)
}

// Dispatch renders the requested playbook and runs it. Nothing is executed
// when rendering fails.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) error {
	rel := req.Path()
	dest := filepath.Join(d.WorkingRoot, rel)

	if err := d.Renderer.RenderFile(rel, req.Vars, dest, 0o644); err != nil {
		return fmt.Errorf("failed to render playbook %s: %w", req.name(), err)
	}

	log.Info("Running playbook", "playbook", req.name(), "inventory", req.Inventory)

	if err := d.Runner.Run(ctx, d.Command(req.Inventory, req.Local, dest)); err != nil {
		return fmt.Errorf("playbook %s failed: %w", req.name(), err)
	}

	log.Info("Playbook completed", "playbook", req.name())
	return nil
}
