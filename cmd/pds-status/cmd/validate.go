package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pds-status/internal/config"
)

var printConfig bool // Print the effective configuration after validation

// validateCmd represents the validate command.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration",
	Long: `Load the configuration file and PDSSTATUS_* environment overrides, then check
required fields, value ranges and cross-field constraints. With --print the
effective configuration is written to stdout as YAML.`,
	Run: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().BoolVar(&printConfig, "print", false, "print the effective configuration as YAML")
}

// runValidate executes the validate command logic.
func runValidate(cmd *cobra.Command, args []string) {
	configPath := GetConfigFile()

	// Load calls Validate
	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration invalid: %v\n", err)
		os.Exit(1)
	}

	if printConfig {
		if err := config.Dump(cfg, os.Stdout); err != nil {
			fmt.Fprintf(os.Stderr, "failed to print configuration: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if configPath == "" {
		configPath = "(defaults)"
	}
	fmt.Printf("configuration valid: %s\n", configPath)
}
