package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vexxhost/dbadmin/internal/config"
	"github.com/vexxhost/dbadmin/internal/dbadmin"
)

// Versions are the accepted values of --version.
var Versions = []string{"alpha", "stable"}

// ErrInvalidVersion is returned for a --version outside of Versions
var ErrInvalidVersion = errors.New("invalid version")

// globalOptions holds the flags shared by every command
type globalOptions struct {
	templates fs.FS

	// admin builds the command handlers; replaced in tests.
	admin func() (*dbadmin.Admin, error)

	configFile            string
	replicaHostnamePrefix string
	numReplicas           int
	version               string
	debug                 bool
}

func (o *globalOptions) validate() error {
	if !slices.Contains(Versions, o.version) {
		return fmt.Errorf("%w %q, must be one of %v", ErrInvalidVersion, o.version, Versions)
	}
	return nil
}

// newAdmin loads the configuration and wires the command handlers.
func (o *globalOptions) newAdmin() (*dbadmin.Admin, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to determine home directory: %w", err)
	}

	cfg, err := config.New(home, "", o.configFile)
	if err != nil {
		return nil, err
	}

	return dbadmin.New(cfg, o.templates, o.debug), nil
}

func executable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(exe)
}

// NewRootCommand creates the dbadmin command tree. templates holds the
// templates shipped with the binary.
func NewRootCommand(templates fs.FS) *cobra.Command {
	opts := &globalOptions{templates: templates}
	opts.admin = opts.newAdmin

	return newRootCommand(opts)
}

func newRootCommand(opts *globalOptions) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbadmin",
		Short: "Database administration tool",
		Long: `dbadmin provisions and configures a replicated PostgreSQL cluster
(one master, several standbys and a barman backup host) on Google Compute
Engine using terraform and ansible.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				log.SetLevel(log.DebugLevel)
			}
			return opts.validate()
		},
		Run: func(cmd *cobra.Command, args []string) {
			if err := cmd.Help(); err != nil {
				fmt.Fprintf(os.Stderr, "Error showing help: %v\n", err)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to the config file (default: ~/.dbadmin/dbadmin.yaml)")
	flags.StringVar(&opts.replicaHostnamePrefix, "replica_hostname_prefix", "replica", "Hostname prefix for the instances")
	flags.IntVar(&opts.numReplicas, "num_replicas", 3, "Number of replicas")
	flags.StringVar(&opts.version, "version", "stable", "Version of dbadmin behavior. One of: (alpha, stable)")
	flags.BoolVar(&opts.debug, "debug", false, "Show debug info")

	rootCmd.AddCommand(newBootstrapCommand(opts))
	rootCmd.AddCommand(newTerraformInstancesCommand(opts))
	rootCmd.AddCommand(newGenerateHostsCommand(opts))
	rootCmd.AddCommand(newConfigureInstancesCommand(opts))
	rootCmd.AddCommand(newRestoreDatabaseCommand(opts))
	rootCmd.AddCommand(newReinitStandbyCommand(opts))
	rootCmd.AddCommand(newStatusCommand(opts))

	return rootCmd
}

func markRequired(cmd *cobra.Command, names ...string) {
	for _, name := range names {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}
