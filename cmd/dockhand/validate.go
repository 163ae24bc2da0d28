package main

import (
	"fmt"
	"os"
	"time"

	"dockhand/internal/composition"

	"github.com/spf13/cobra"
)

var validateConfigFile string

var validateCmd = &cobra.Command{
	Use:   "validate [config]",
	Short: "Validate a configuration file",
	Long: `Load and validate a configuration file, then print the compositions it
declares. A work directory that does not exist yet is reported as a warning:
it only has to be present once the composition is triggered.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVarP(&validateConfigFile, "config", "c", getEnvOrDefault("DOCKHAND_CONFIG_FILE", composition.DefaultConfigPath), "Path to the configuration file")
}

func runValidate(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		validateConfigFile = args[0]
	}

	config, err := composition.Load(validateConfigFile)
	if err != nil {
		return err
	}

	registry := composition.NewRegistry(config.Compositions)

	fmt.Printf("Configuration OK: %s\n", validateConfigFile)
	fmt.Printf("  Port:                  %d\n", config.Port)
	fmt.Printf("  Force update interval: %s\n", formatInterval(config.ForceUpdateEvery()))
	fmt.Printf("  Prune interval:        %s\n", formatInterval(config.PruneEvery()))
	fmt.Printf("  Compositions:          %d\n", registry.Count())

	for _, name := range registry.Names() {
		comp, _ := registry.Get(name)
		fmt.Printf("    %s -> %s\n", name, comp.Work)
		if info, err := os.Stat(comp.Work); err != nil {
			fmt.Printf("      warning: work directory not accessible: %v\n", err)
		} else if !info.IsDir() {
			fmt.Printf("      warning: work path is not a directory\n")
		}
	}

	return nil
}

func formatInterval(d time.Duration) string {
	if d <= 0 {
		return "disabled"
	}
	return d.String()
}
