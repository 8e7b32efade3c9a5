package terraform

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vexxhost/dbadmin/internal/command"
)

type fakeRunner struct {
	cmds []command.Command
	out  []byte
	err  error
}

func (f *fakeRunner) Output(_ context.Context, cmd command.Command) ([]byte, error) {
	f.cmds = append(f.cmds, cmd)
	return f.out, f.err
}

func TestOutput(t *testing.T) {
	runner := &fakeRunner{out: []byte(`{"barman_external_ip":{"value":"1.1.1.1"}}`)}
	client := &Client{
		Runner:    runner,
		Binary:    "/root/.dbadmin/bin/terraform",
		StateFile: "/root/.dbadmin/terraform.tfstate",
	}

	out, err := client.Output(context.Background())
	require.NoError(t, err)
	assert.Equal(t, runner.out, out)

	require.Len(t, runner.cmds, 1)
	assert.Equal(t, command.Command{
		"/root/.dbadmin/bin/terraform", "output", "-json", "-state=/root/.dbadmin/terraform.tfstate",
	}, runner.cmds[0])
}

func TestOutputError(t *testing.T) {
	boom := errors.New("boom")
	client := &Client{Runner: &fakeRunner{err: boom}, Binary: "terraform", StateFile: "x"}

	_, err := client.Output(context.Background())
	assert.ErrorIs(t, err, boom)
}
