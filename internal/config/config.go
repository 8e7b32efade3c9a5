package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/charmbracelet/log"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// DefaultFileName is the name of the config file looked up in the working root
const DefaultFileName = "dbadmin.yaml"

var parserMap = map[string]koanf.Parser{
	".yaml": yaml.Parser(),
	".yml":  yaml.Parser(),
	".toml": toml.Parser(),
	".json": json.Parser(),
}

// TerraformConfig contains the settings for the terraform binary
type TerraformConfig struct {
	// Binary is the path of the terraform executable.
	Binary string `koanf:"binary"`

	// StateFile is the terraform state file read by generate-hosts.
	StateFile string `koanf:"state_file"`
}

// AnsibleConfig contains the settings for ansible
type AnsibleConfig struct {
	// Binary is the path of the ansible-playbook executable.
	Binary string `koanf:"binary"`
}

// BootstrapConfig lists what the bootstrap command installs
type BootstrapConfig struct {
	Packages    []string `koanf:"packages"`
	PipPackages []string `koanf:"pip_packages"`
}

// Config is the configuration of dbadmin. It is built once per invocation and
// handed to every component that needs a path or a tool.
type Config struct {
	// WorkingRoot holds everything rendered by dbadmin.
	WorkingRoot string `koanf:"working_root"`

	// TemplateRoot overrides the templates shipped in the binary.
	TemplateRoot string `koanf:"template_root"`

	// ScriptRoot holds the local inventory and ip.j2. It defaults to a
	// directory below the working root, filled from the shipped copies.
	ScriptRoot string `koanf:"script_root"`

	// LocalInventory is the inventory used for playbooks run on this host.
	LocalInventory string `koanf:"local_inventory"`

	// CommandTimeout bounds every external command. Zero disables it.
	CommandTimeout time.Duration `koanf:"command_timeout"`

	Terraform TerraformConfig `koanf:"terraform"`
	Ansible   AnsibleConfig   `koanf:"ansible"`
	Bootstrap BootstrapConfig `koanf:"bootstrap"`

	// Variables are extra template variables available to every template.
	Variables map[string]interface{} `koanf:"variables"`
}

// Default returns the configuration used when no config file overrides it.
// An empty scriptRoot is derived from the working root.
func Default(home, scriptRoot string) *Config {
	return &Config{
		WorkingRoot: filepath.Join(home, ".dbadmin"),
		ScriptRoot:  scriptRoot,
		Ansible: AnsibleConfig{
			Binary: "ansible-playbook",
		},
		Bootstrap: BootstrapConfig{
			Packages: []string{
				"curl",
				"python3-pip",
				"build-essential",
				"libssl-dev",
				"libffi-dev",
				"python3-dev",
			},
			PipPackages: []string{
				"ansible",
			},
		},
		Variables: map[string]interface{}{},
	}
}

// New returns the defaults, overridden by configFile when it exists, with
// the paths derived from the working and script roots filled in.
func New(home, scriptRoot, configFile string) (*Config, error) {
	cfg := Default(home, scriptRoot)
	if configFile == "" {
		configFile = filepath.Join(cfg.WorkingRoot, DefaultFileName)
	}

	if err := Load(configFile, cfg); err != nil {
		return nil, err
	}

	cfg.SetDerivedDefaults()
	return cfg, nil
}

// SetDerivedDefaults fills the paths that default to a location below the
// working or script root.
func (c *Config) SetDerivedDefaults() {
	if c.ScriptRoot == "" {
		c.ScriptRoot = filepath.Join(c.WorkingRoot, "local")
	}
	if c.LocalInventory == "" {
		c.LocalInventory = filepath.Join(c.ScriptRoot, "hosts")
	}
	if c.Terraform.Binary == "" {
		c.Terraform.Binary = filepath.Join(c.WorkingRoot, "bin", "terraform")
	}
	if c.Terraform.StateFile == "" {
		c.Terraform.StateFile = filepath.Join(c.WorkingRoot, "terraform.tfstate")
	}
	if c.Variables == nil {
		c.Variables = map[string]interface{}{}
	}
}

// HostsFile is the inventory generated from the terraform state.
func (c *Config) HostsFile() string {
	return filepath.Join(c.WorkingRoot, "hosts")
}

// Load reads configFile and merges it over cfg. A missing file leaves cfg
// untouched.
func Load(configFile string, cfg *Config) error {
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		log.Debug("config file does not exist", "path", configFile)
		return nil
	} else if err != nil {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(configFile))
	parser, ok := parserMap[ext]
	if !ok {
		return fmt.Errorf("unsupported config file format: %s", configFile)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(configFile), parser); err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configFile, err)
	}

	override := &Config{}
	if err := k.Unmarshal("", override); err != nil {
		return fmt.Errorf("failed to unmarshal config file %s: %w", configFile, err)
	}

	if err := mergo.Merge(cfg, override, mergo.WithOverride); err != nil {
		return fmt.Errorf("failed to merge config file %s: %w", configFile, err)
	}

	log.Info("loaded config file", "path", configFile)
	return nil
}
