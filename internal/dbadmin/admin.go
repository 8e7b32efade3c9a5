package dbadmin

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"dario.cat/mergo"

	"github.com/vexxhost/dbadmin/internal/command"
	"github.com/vexxhost/dbadmin/internal/config"
	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/internal/terraform"
)

// Runner executes a batch of external commands
type Runner interface {
	Run(ctx context.Context, cmds ...command.Command) error
}

// Dispatcher runs a rendered playbook
type Dispatcher interface {
	Dispatch(ctx context.Context, req playbook.Request) error
}

// StateReader returns the terraform outputs as JSON
type StateReader interface {
	Output(ctx context.Context) ([]byte, error)
}

// Admin implements the dbadmin commands on top of the renderer, the command
// runner and the playbook dispatcher.
type Admin struct {
	Config     *config.Config
	Renderer   *render.Renderer
	Runner     Runner
	Dispatcher Dispatcher
	Terraform  StateReader
}

// New wires an Admin for cfg using templates from templates unless the
// configuration points at a template root on disk.
func New(cfg *config.Config, templates fs.FS, debug bool) *Admin {
	if cfg.TemplateRoot != "" {
		templates = os.DirFS(cfg.TemplateRoot)
	}

	renderer := render.New(templates)
	runner := command.NewRunner(cfg.CommandTimeout)

	return &Admin{
		Config:   cfg,
		Renderer: renderer,
		Runner:   runner,
		Dispatcher: &playbook.Dispatcher{
			Renderer:    renderer,
			Runner:      runner,
			WorkingRoot: cfg.WorkingRoot,
			Binary:      cfg.Ansible.Binary,
			Debug:       debug,
		},
		Terraform: &terraform.Client{
			Runner:    runner,
			Binary:    cfg.Terraform.Binary,
			StateFile: cfg.Terraform.StateFile,
		},
	}
}

// vars returns v on top of the configured extra variables and the paths every
// template may refer to. Top-level keys set by the handler always win, even
// when their value is empty.
func (a *Admin) vars(v render.Vars) (render.Vars, error) {
	out := render.Vars{}
	if err := mergo.Merge(&out, render.Vars(a.Config.Variables)); err != nil {
		return nil, fmt.Errorf("failed to merge template variables: %w", err)
	}

	out["working_root"] = a.Config.WorkingRoot
	out["terraform_binary"] = a.Config.Terraform.Binary
	out["terraform_state"] = a.Config.Terraform.StateFile

	for key, value := range v {
		out[key] = value
	}

	return out, nil
}

// renderFile renders the named template to a path relative to the working
// root.
func (a *Admin) renderFile(name string, v render.Vars, rel string, perm os.FileMode) error {
	v, err := a.vars(v)
	if err != nil {
		return err
	}
	return a.Renderer.RenderFile(name, v, filepath.Join(a.Config.WorkingRoot, rel), perm)
}

func (a *Admin) dispatch(ctx context.Context, req playbook.Request) error {
	v, err := a.vars(req.Vars)
	if err != nil {
		return err
	}
	req.Vars = v
	return a.Dispatcher.Dispatch(ctx, req)
}
