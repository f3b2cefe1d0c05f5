package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

//go:embed templates/claritymark.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = ".claritymark"

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new claritymark configuration file",
		Long: `Initialize creates a new .claritymark configuration file in the current
directory.

The generated file includes:
- The default verdict color palette, ready to customize
- Fetch settings (user agent, timeout, body size limit)
- History database settings

Examples:
  # Create .claritymark in current directory
  claritymark init

  # Create config file at a specific path
  claritymark init -o myconfig.yaml

  # Force overwrite existing file
  claritymark init -f`,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/claritymark.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	fmt.Printf("Created configuration file: %s\n", outputPath)
	fmt.Println("\nEdit this file to configure:")
	fmt.Println("  - Verdict marker colors")
	fmt.Println("  - Fetch settings (user agent, timeout, body size limit)")
	fmt.Println("  - History database location")

	return nil
}
