package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Artzzx/buildlore/internal/model"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage buildlore configuration",
	Long: `Manage buildlore configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (BUILDLORE_*)
3. Config file (~/.buildlore/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after applying the config file and environment overrides.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfgFileUsed != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", cfgFileUsed)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		fmt.Println(banner)
		fmt.Println("  Current Configuration")
		fmt.Println(banner)
		fmt.Println()

		yamlData, err := yaml.Marshal(cfg)
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}
		fmt.Println(string(yamlData))

		fmt.Println(banner)
		fmt.Println()
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (BUILDLORE_*)")
		fmt.Println("  3. Config file (~/.buildlore/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.buildlore/config.yaml with the shipped defaults.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return eris.Wrap(err, "find home directory")
		}

		configDir := filepath.Join(home, ".buildlore")
		configPath := filepath.Join(configDir, "config.yaml")

		if _, err := os.Stat(configPath); err == nil {
			return eris.Errorf("config file already exists: %s\nUse 'buildlore config show' to view it, or delete it first to recreate", configPath)
		}

		if err := os.MkdirAll(configDir, 0755); err != nil {
			return eris.Wrap(err, "create config directory")
		}

		yamlData, err := yaml.Marshal(model.DefaultConfig())
		if err != nil {
			return eris.Wrap(err, "marshal config")
		}

		var buf bytes.Buffer
		buf.WriteString("# Buildlore configuration file\n")
		buf.WriteString("#\n")
		buf.WriteString("# Configuration hierarchy (highest to lowest priority):\n")
		buf.WriteString("#   1. CLI flags\n")
		buf.WriteString("#   2. Environment variables (BUILDLORE_*)\n")
		buf.WriteString("#   3. This config file\n")
		buf.WriteString("#   4. Built-in defaults\n\n")
		buf.Write(yamlData)

		if err := os.WriteFile(configPath, buf.Bytes(), 0644); err != nil {
			return eris.Wrap(err, "write config file")
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  buildlore config show\n")
		fmt.Printf("\nTo customize, edit the file with your preferred editor:\n")
		fmt.Printf("  $EDITOR %s\n", configPath)
		fmt.Printf("\n")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
