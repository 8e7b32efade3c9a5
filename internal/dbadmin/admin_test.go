package dbadmin

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/vexxhost/dbadmin/internal/command"
	"github.com/vexxhost/dbadmin/internal/config"
	"github.com/vexxhost/dbadmin/internal/playbook"
	"github.com/vexxhost/dbadmin/internal/render"
	"github.com/vexxhost/dbadmin/templates"
)

const testState = `{
	"barman_external_ip": {"value": "35.0.0.1"},
	"barman_internal_ip": {"value": "10.0.0.1"},
	"replica1_external_ip": {"value": "35.0.0.2"},
	"replica1_internal_ip": {"value": "10.0.0.2"},
	"replica2_external_ip": {"value": "35.0.0.3"},
	"replica2_internal_ip": {"value": "10.0.0.3"}
}`

type fakeRunner struct {
	cmds   []command.Command
	failAt int
}

func (f *fakeRunner) Run(_ context.Context, cmds ...command.Command) error {
	for _, cmd := range cmds {
		f.cmds = append(f.cmds, cmd)
		if f.failAt > 0 && len(f.cmds) == f.failAt {
			return &command.Error{Command: cmd, Err: errors.New("exit status 1")}
		}
	}
	return nil
}

type fakeDispatcher struct {
	requests []playbook.Request
	err      error
}

func (f *fakeDispatcher) Dispatch(_ context.Context, req playbook.Request) error {
	f.requests = append(f.requests, req)
	return f.err
}

func (f *fakeDispatcher) steps() []string {
	steps := make([]string, 0, len(f.requests))
	for _, req := range f.requests {
		steps = append(steps, req.Step)
	}
	return steps
}

type fakeState struct {
	state string
	err   error
}

func (f *fakeState) Output(context.Context) ([]byte, error) {
	return []byte(f.state), f.err
}

type AdminTestSuite struct {
	suite.Suite
	cfg        *config.Config
	runner     *fakeRunner
	dispatcher *fakeDispatcher
	admin      *Admin
}

func (s *AdminTestSuite) SetupTest() {
	s.cfg = config.Default(s.T().TempDir(), "")
	s.cfg.SetDerivedDefaults()

	s.runner = &fakeRunner{}
	s.dispatcher = &fakeDispatcher{}
	s.admin = &Admin{
		Config:     s.cfg,
		Renderer:   render.New(templates.FS),
		Runner:     s.runner,
		Dispatcher: s.dispatcher,
		Terraform:  &fakeState{state: testState},
	}
}

func (s *AdminTestSuite) workingFile(parts ...string) string {
	return filepath.Join(append([]string{s.cfg.WorkingRoot}, parts...)...)
}

func (s *AdminTestSuite) readWorkingFile(parts ...string) string {
	content, err := os.ReadFile(s.workingFile(parts...))
	require.NoError(s.T(), err)
	return string(content)
}

func (s *AdminTestSuite) TestProvisionInstances() {
	err := s.admin.ProvisionInstances(context.Background(), ProvisionOptions{
		ProjectID:             "kolibri-demo",
		Zone:                  "us-central1-a",
		Region:                "us-central1",
		DiskType:              "pd-ssd",
		DiskSize:              "50",
		ReplicaHostnamePrefix: "replica",
		NumReplicas:           3,
	})
	require.NoError(s.T(), err)

	main := s.readWorkingFile("terraform", "main.tf")
	for _, hostname := range []string{"replica1", "replica2", "replica3"} {
		assert.Contains(s.T(), main, `resource "google_compute_instance" "`+hostname+`"`)
	}
	assert.Contains(s.T(), main, `machine_type = "${var.machine_type}"`)

	output := s.readWorkingFile("terraform", "output.tf")
	assert.Contains(s.T(), output, `output "replica3_internal_ip"`)

	variables := s.readWorkingFile("terraform", "variables.tf")
	assert.Contains(s.T(), variables, `default = "f1-micro"`)
	assert.Contains(s.T(), variables, `default = "kolibri-demo"`)

	require.Len(s.T(), s.dispatcher.requests, 1)
	req := s.dispatcher.requests[0]
	assert.Equal(s.T(), "terraform_instances", req.Playbook)
	assert.True(s.T(), req.Local)
	assert.Equal(s.T(), s.workingFile("local", "hosts"), req.Inventory)
	assert.Equal(s.T(), s.cfg.WorkingRoot, req.Vars["working_root"])

	inventory := s.readWorkingFile("local", "hosts")
	assert.Equal(s.T(), "localhost ansible_connection=local\n", inventory)
}

func (s *AdminTestSuite) TestProvisionInstancesValidation() {
	err := s.admin.ProvisionInstances(context.Background(), ProvisionOptions{
		DiskType:              "nvme",
		ReplicaHostnamePrefix: "replica",
		NumReplicas:           3,
	})
	assert.ErrorContains(s.T(), err, "invalid disk type")

	err = s.admin.ProvisionInstances(context.Background(), ProvisionOptions{
		DiskType:              "pd-ssd",
		ReplicaHostnamePrefix: "replica",
	})
	assert.ErrorContains(s.T(), err, "number of replicas")

	assert.Empty(s.T(), s.dispatcher.requests)
	assert.NoDirExists(s.T(), s.workingFile("terraform"))
}

func (s *AdminTestSuite) TestGenerateHosts() {
	topo, err := s.admin.GenerateHosts(context.Background(), "replica2")
	require.NoError(s.T(), err)

	assert.Equal(s.T(), "replica2", topo.Master.Hostname)
	require.Len(s.T(), topo.Standby, 1)
	assert.Equal(s.T(), "replica1", topo.Standby[0].Hostname)

	assert.Equal(s.T(), `[master]
replica2 ansible_host=35.0.0.3 internal_ip=10.0.0.3 node_id=2

[standby]
replica1 ansible_host=35.0.0.2 internal_ip=10.0.0.2 node_id=1

[replicas:children]
master
standby

[barman]
barman ansible_host=35.0.0.1 internal_ip=10.0.0.1

[all:vars]
ansible_user=dbadmin
ansible_python_interpreter=/usr/bin/python3
`, s.readWorkingFile("hosts"))
}

func (s *AdminTestSuite) TestGenerateHostsUnknownMaster() {
	_, err := s.admin.GenerateHosts(context.Background(), "replica9")
	assert.ErrorContains(s.T(), err, "master not found")
	assert.NoFileExists(s.T(), s.workingFile("hosts"))
}

func (s *AdminTestSuite) TestConfigureInstances() {
	err := s.admin.ConfigureInstances(context.Background(), ConfigureOptions{
		MasterHostname:      "replica1",
		AppServerInternalIP: "10.0.0.50",
	})
	require.NoError(s.T(), err)

	assert.FileExists(s.T(), s.workingFile("config", "barman", "barman.conf"))
	for _, hostname := range []string{"replica1", "replica2"} {
		assert.FileExists(s.T(), s.workingFile("config", "barman", hostname+".conf"))
		for _, name := range []string{"pg_hba.conf", "postgresql.conf", "repmgr.conf"} {
			assert.FileExists(s.T(), s.workingFile("config", hostname, name))
		}
		for _, name := range []string{"follow.sh", "promote.sh", "restore.py"} {
			info, err := os.Stat(s.workingFile("scripts", hostname, name))
			require.NoError(s.T(), err)
			assert.Equal(s.T(), os.FileMode(0o755), info.Mode().Perm())
		}
	}

	repmgr := s.readWorkingFile("config", "replica2", "repmgr.conf")
	assert.Contains(s.T(), repmgr, "node=2\n")
	assert.Contains(s.T(), repmgr, "conninfo='host=10.0.0.3 user=repmgr dbname=repmgr'")

	pgHba := s.readWorkingFile("config", "replica2", "pg_hba.conf")
	assert.Contains(s.T(), pgHba, "10.0.0.50/32")
	assert.Contains(s.T(), pgHba, "10.0.0.2/32")

	require.Len(s.T(), s.dispatcher.requests, 1)
	req := s.dispatcher.requests[0]
	assert.Equal(s.T(), "configure_instances", req.Playbook)
	assert.Equal(s.T(), s.cfg.HostsFile(), req.Inventory)
	assert.False(s.T(), req.Local)
}

func (s *AdminTestSuite) TestConfigureInstancesWithoutAppServer() {
	err := s.admin.ConfigureInstances(context.Background(), ConfigureOptions{MasterHostname: "replica1"})
	require.NoError(s.T(), err)

	pgHba := s.readWorkingFile("config", "replica1", "pg_hba.conf")
	assert.NotContains(s.T(), pgHba, "# app server")
}

func (s *AdminTestSuite) TestConfigureInstancesStateFailure() {
	s.admin.Terraform = &fakeState{err: errors.New("no state")}

	err := s.admin.ConfigureInstances(context.Background(), ConfigureOptions{MasterHostname: "replica1"})
	assert.ErrorContains(s.T(), err, "no state")
	assert.Empty(s.T(), s.dispatcher.requests)
}

func (s *AdminTestSuite) TestRestoreDatabase() {
	err := s.admin.RestoreDatabase(context.Background(), RestoreOptions{
		MasterHostname:  "replica1",
		DatabaseName:    "kolibri",
		DatabaseUser:    "learningequality",
		SQLDumpLocation: "dumps:2018/kolibri.sql",
	})
	require.NoError(s.T(), err)

	require.Len(s.T(), s.dispatcher.requests, 1)
	req := s.dispatcher.requests[0]
	assert.Equal(s.T(), "restore_database", req.Playbook)
	assert.Equal(s.T(), "dumps", req.Vars["db_import_bucket"])
	assert.Equal(s.T(), "2018/kolibri.sql", req.Vars["db_import_path"])
	assert.Equal(s.T(), map[string]interface{}{"hostname": "replica1"}, req.Vars["master"])
}

func (s *AdminTestSuite) TestRestoreDatabaseInvalidLocation() {
	for _, location := range []string{"", "dumps", ":kolibri.sql", "dumps:"} {
		err := s.admin.RestoreDatabase(context.Background(), RestoreOptions{
			MasterHostname:  "replica1",
			DatabaseName:    "kolibri",
			DatabaseUser:    "learningequality",
			SQLDumpLocation: location,
		})
		assert.ErrorIs(s.T(), err, ErrInvalidDumpLocation, location)
	}

	assert.Empty(s.T(), s.dispatcher.requests)
}

func (s *AdminTestSuite) TestReinitStandbyWithoutBucket() {
	err := s.admin.ReinitStandby(context.Background(), ReinitOptions{
		MasterHostname:   "replica1",
		InstanceHostname: "replica2",
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"delete_and_recreate", "setup_standby"}, s.dispatcher.steps())
	for _, req := range s.dispatcher.requests {
		assert.Equal(s.T(), "reinit_standby", req.Playbook)
	}
}

func (s *AdminTestSuite) TestReinitStandbyWithBucket() {
	err := s.admin.ReinitStandby(context.Background(), ReinitOptions{
		MasterHostname:   "replica1",
		InstanceHostname: "replica2",
		GCSBucket:        "standby-backups",
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(),
		[]string{"backup_data_directory", "delete_and_recreate", "setup_standby"},
		s.dispatcher.steps(),
	)
	assert.Equal(s.T(), "standby-backups", s.dispatcher.requests[0].Vars["gcs_bucket"])
}

func (s *AdminTestSuite) TestReinitStandbyStopsAtFailure() {
	s.dispatcher.err = errors.New("unreachable")

	err := s.admin.ReinitStandby(context.Background(), ReinitOptions{
		MasterHostname:   "replica1",
		InstanceHostname: "replica2",
		GCSBucket:        "standby-backups",
	})
	assert.ErrorContains(s.T(), err, "unreachable")
	assert.Equal(s.T(), []string{"backup_data_directory"}, s.dispatcher.steps())
}

func (s *AdminTestSuite) TestStatus() {
	require.NoError(s.T(), s.admin.Status(context.Background()))

	require.Len(s.T(), s.dispatcher.requests, 1)
	assert.Equal(s.T(), "status", s.dispatcher.requests[0].Playbook)
	assert.Equal(s.T(), s.cfg.HostsFile(), s.dispatcher.requests[0].Inventory)
}

func (s *AdminTestSuite) TestBootstrap() {
	require.NoError(s.T(), s.admin.Bootstrap(context.Background(), "dbadmin@kolibri-demo.iam.gserviceaccount.com"))

	cmds := s.runner.cmds
	require.Len(s.T(), cmds, 6)
	assert.Equal(s.T(), command.Command{"sudo", "apt-get", "update"}, cmds[0])
	assert.Equal(s.T(), command.Command{"sudo", "pip", "install", "ansible"}, cmds[3])
	assert.Equal(s.T(), command.Command{"mkdir", "-p", s.workingFile("playbooks")}, cmds[4])
	assert.Equal(s.T(), command.Command{"cp", s.workingFile("local", "ip.j2"), s.workingFile("ip.j2")}, cmds[5])

	ipTemplate := s.readWorkingFile("local", "ip.j2")
	assert.Contains(s.T(), ipTemplate, "{{ hostvars[inventory_hostname]['ansible_default_ipv4']['address'] }}")

	require.Len(s.T(), s.dispatcher.requests, 1)
	req := s.dispatcher.requests[0]
	assert.Equal(s.T(), "bootstrap_admin", req.Playbook)
	assert.True(s.T(), req.Local)
	assert.Equal(s.T(), "dbadmin@kolibri-demo.iam.gserviceaccount.com", req.Vars["service_account"])
}

func (s *AdminTestSuite) TestBootstrapCommandFailure() {
	s.runner.failAt = 2

	err := s.admin.Bootstrap(context.Background(), "dbadmin@kolibri-demo.iam.gserviceaccount.com")

	var cmdErr *command.Error
	require.True(s.T(), errors.As(err, &cmdErr))
	assert.Equal(s.T(), "apt-get", cmdErr.Command[1])
	assert.Empty(s.T(), s.dispatcher.requests)
}

func (s *AdminTestSuite) TestConfigVariablesAreDefaults() {
	s.cfg.Variables = map[string]interface{}{
		"service_account":  "ignored",
		"postgres_version": "9.6",
	}

	require.NoError(s.T(), s.admin.Bootstrap(context.Background(), "dbadmin@kolibri-demo.iam.gserviceaccount.com"))

	req := s.dispatcher.requests[0]
	assert.Equal(s.T(), "dbadmin@kolibri-demo.iam.gserviceaccount.com", req.Vars["service_account"])
	assert.Equal(s.T(), "9.6", req.Vars["postgres_version"])
}

func (s *AdminTestSuite) TestLocalFilesAreKept() {
	require.NoError(s.T(), os.MkdirAll(s.cfg.ScriptRoot, 0o755))
	inventory := filepath.Join(s.cfg.ScriptRoot, "hosts")
	require.NoError(s.T(), os.WriteFile(inventory, []byte("admin ansible_connection=local\n"), 0o644))

	require.NoError(s.T(), s.admin.Bootstrap(context.Background(), "dbadmin@kolibri-demo.iam.gserviceaccount.com"))

	assert.Equal(s.T(), "admin ansible_connection=local\n", s.readWorkingFile("local", "hosts"))
	assert.FileExists(s.T(), s.workingFile("local", "ip.j2"))
}

func (s *AdminTestSuite) TestEmptyHandlerVariablesWinOverConfig() {
	s.cfg.Variables = map[string]interface{}{
		"gcs_bucket": "from-config",
		"app_server": map[string]interface{}{"internal_ip": "9.9.9.9"},
	}

	err := s.admin.ReinitStandby(context.Background(), ReinitOptions{
		MasterHostname:   "replica1",
		InstanceHostname: "replica2",
	})
	require.NoError(s.T(), err)

	assert.Equal(s.T(), []string{"delete_and_recreate", "setup_standby"}, s.dispatcher.steps())
	for _, req := range s.dispatcher.requests {
		assert.Equal(s.T(), "", req.Vars["gcs_bucket"])
	}

	err = s.admin.ConfigureInstances(context.Background(), ConfigureOptions{MasterHostname: "replica1"})
	require.NoError(s.T(), err)

	pgHba := s.readWorkingFile("config", "replica1", "pg_hba.conf")
	assert.NotContains(s.T(), pgHba, "9.9.9.9")
	assert.NotContains(s.T(), pgHba, "# app server")
}

func TestAdminSuite(t *testing.T) {
	suite.Run(t, new(AdminTestSuite))
}
