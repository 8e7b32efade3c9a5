package dbadmin

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"

	"github.com/vexxhost/dbadmin/internal/topology"
)

// GenerateHosts reads the terraform state, builds the topology with
// masterHostname as master and renders the inventory into the working root.
func (a *Admin) GenerateHosts(ctx context.Context, masterHostname string) (*topology.Topology, error) {
	state, err := a.Terraform.Output(ctx)
	if err != nil {
		return nil, err
	}

	topo, err := topology.Build(state, masterHostname)
	if err != nil {
		return nil, err
	}

	if err := a.renderFile("hosts", topo.Vars(), "hosts", 0o644); err != nil {
		return nil, fmt.Errorf("failed to generate hosts file: %w", err)
	}

	log.Info("Generated hosts file", "path", a.Config.HostsFile(), "master", topo.Master.Hostname, "replicas", len(topo.Replicas))
	return topo, nil
}
