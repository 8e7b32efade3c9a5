package dbadmin

import (
	"context"
	"fmt"
	"path"
	"slices"
	"strconv"

	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/internal/workflows"
)

// DiskTypes are the GCE disk types accepted for the instances.
var DiskTypes = []string{"pd-ssd", "pd-standard", "local-ssd"}

// DefaultMachineType is the GCE machine type used when none is given.
const DefaultMachineType = "f1-micro"

var terraformFiles = []string{"main.tf", "output.tf", "variables.tf"}

// ProvisionOptions are the inputs of the terraform-instances command.
type ProvisionOptions struct {
	ProjectID   string
	Zone        string
	Region      string
	DiskType    string
	DiskSize    string
	MachineType string

	ReplicaHostnamePrefix string
	NumReplicas           int
}

// Validate checks the options before anything is rendered
func (o ProvisionOptions) Validate() error {
	if !slices.Contains(DiskTypes, o.DiskType) {
		return fmt.Errorf("invalid disk type %q, must be one of %v", o.DiskType, DiskTypes)
	}
	if o.NumReplicas < 1 {
		return fmt.Errorf("number of replicas must be at least 1, got %d", o.NumReplicas)
	}
	if o.ReplicaHostnamePrefix == "" {
		return fmt.Errorf("replica hostname prefix must not be empty")
	}
	return nil
}

// ReplicaHostnames returns the hostnames of the replicas to create.
func (o ProvisionOptions) ReplicaHostnames() []string {
	hostnames := make([]string, 0, o.NumReplicas)
	for i := 1; i <= o.NumReplicas; i++ {
		hostnames = append(hostnames, o.ReplicaHostnamePrefix+strconv.Itoa(i))
	}
	return hostnames
}

// Vars returns the variables of the terraform definition templates.
func (o ProvisionOptions) Vars() render.Vars {
	machineType := o.MachineType
	if machineType == "" {
		machineType = DefaultMachineType
	}

	replicas := make([]map[string]interface{}, 0, o.NumReplicas)
	for _, hostname := range o.ReplicaHostnames() {
		replicas = append(replicas, map[string]interface{}{"hostname": hostname})
	}

	return render.Vars{
		"project_id":   o.ProjectID,
		"zone":         o.Zone,
		"region":       o.Region,
		"disk_type":    o.DiskType,
		"disk_size":    o.DiskSize,
		"machine_type": machineType,
		"replicas":     replicas,
	}
}

// ProvisionInstances renders the terraform definitions and runs the local
// playbook applying them. Instances are created but not configured.
func (a *Admin) ProvisionInstances(ctx context.Context, opts ProvisionOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}

	vars := opts.Vars()
	p := workflows.NewPipeline(ctx, "terraform-instances")
	p.Step("install-local-files", func(context.Context) error {
		return a.installLocalFiles()
	})

	for _, name := range terraformFiles {
		rel := path.Join("terraform", name)
		p.Step("render-"+name, func(context.Context) error {
			return a.renderFile(rel, vars, rel, 0o644)
		})
	}

	p.Step("run-terraform-instances", func(ctx context.Context) error {
		return a.dispatch(ctx, playbook.Request{
			Playbook:  "terraform_instances",
			Vars:      vars,
			Inventory: a.Config.LocalInventory,
			Local:     true,
		})
	})

	return p.Run()
}
