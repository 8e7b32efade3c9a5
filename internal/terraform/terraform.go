// Package terraform reads state back from the terraform binary.
package terraform

import (
	"context"
	"fmt"

	"github.com/vexxhost/dbadmin/internal/command"
)

// OutputRunner runs a command and captures its stdout
type OutputRunner interface {
	Output(ctx context.Context, cmd command.Command) ([]byte, error)
}

// Client invokes terraform against a single state file.
type Client struct {
	Runner    OutputRunner
	Binary    string
	StateFile string
}

// OutputCommand returns the command printing every output of the state as JSON.
func (c *Client) OutputCommand() command.Command {
	return command.Command{c.Binary, "output", "-json", "-state=" + c.StateFile}
}

// Output returns the outputs of the state file in the `{key: {value: ...}}`
// JSON form.
func (c *Client) Output(ctx context.Context) ([]byte, error) {
	out, err := c.Runner.Output(ctx, c.OutputCommand())
	if err != nil {
		return nil, fmt.Errorf("failed to read terraform output: %w", err)
	}
	return out, nil
}
