package composition

import "time"

// Composition represents one managed workload: a named entry whose
// work directory contains the deployment descriptor the container
// tool runs against.
type Composition struct {
	// Work is the directory the redeploy command is executed in.
	Work string `yaml:"work"`
}

// Config represents the root configuration structure. The named fields
// below are the only reserved keys; every other top-level key in the
// document is parsed as a composition entry.
type Config struct {
	Port                int    `yaml:"port"`
	Token               string `yaml:"token"`
	ForceUpdateInterval int    `yaml:"force_update_interval"`
	PruneInterval       int    `yaml:"prune_interval"`

	Compositions map[string]Composition `yaml:",inline"`
}

// ForceUpdateEvery returns the periodic redeploy interval. Zero means
// the sweep is disabled.
func (c *Config) ForceUpdateEvery() time.Duration {
	return time.Duration(c.ForceUpdateInterval) * time.Second
}

// PruneEvery returns the periodic prune interval. Zero means pruning
// is disabled.
func (c *Config) PruneEvery() time.Duration {
	return time.Duration(c.PruneInterval) * time.Second
}
