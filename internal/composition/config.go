package composition

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultPort is used when the config file omits the port.
	DefaultPort = 8080

	// DefaultConfigPath is where the coordinator looks for its config
	// when no path is given on the command line.
	DefaultConfigPath = "/etc/dockhand/config.yaml"
)

// Load reads and validates the configuration from a YAML file. It
// returns either a fully initialized config or an error; there is no
// partially loaded state.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	// Initialize the map if the file declared no compositions
	if config.Compositions == nil {
		config.Compositions = make(map[string]Composition)
	}

	if config.Port == 0 {
		config.Port = DefaultPort
	}

	if errors := ValidateConfig(&config); len(errors) > 0 {
		return nil, fmt.Errorf("invalid configuration in '%s':\n%s",
			configPath, strings.Join(errors, "\n"))
	}

	return &config, nil
}

// ValidateConfig checks the structural constraints on a parsed config
// and returns one message per violation. Work directories are not
// required to exist at load time; a missing directory surfaces later
// as a spawn failure when the redeploy command runs.
func ValidateConfig(config *Config) []string {
	var errors []string

	if config.Token == "" {
		errors = append(errors, "  - missing required 'token' field")
	}

	if config.Port < 0 || config.Port > 65535 {
		errors = append(errors, fmt.Sprintf("  - port must be between 1 and 65535, got %d", config.Port))
	}

	if config.ForceUpdateInterval < 0 {
		errors = append(errors, fmt.Sprintf("  - force_update_interval must be a positive number of seconds, got %d", config.ForceUpdateInterval))
	}

	if config.PruneInterval < 0 {
		errors = append(errors, fmt.Sprintf("  - prune_interval must be a positive number of seconds, got %d", config.PruneInterval))
	}

	names := make([]string, 0, len(config.Compositions))
	for name := range config.Compositions {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if config.Compositions[name].Work == "" {
			errors = append(errors, fmt.Sprintf("  - composition '%s': missing required 'work' field", name))
		}
	}

	return errors
}
