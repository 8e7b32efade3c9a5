package dbadmin

import (
	"context"

	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
)

// Status shows the state of the cluster. It changes nothing.
func (a *Admin) Status(ctx context.Context) error {
	return a.dispatch(ctx, playbook.Request{
		Playbook:  "status",
		Vars:      render.Vars{},
		Inventory: a.Config.HostsFile(),
	})
}
