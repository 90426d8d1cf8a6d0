package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/panbanda/decay/pkg/config"
	"github.com/pelletier/go-toml"
	"github.com/urfave/cli/v2"
)

func configCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Subcommands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a configuration file",
				Description: `Validates a decay configuration file against the schema and the value
ranges.

Examples:
  decay config validate                    # Validates default config locations
  decay config validate -c decay.toml      # Validates specific file
  decay config validate -c .decay/decay.yaml`,
				Action: runConfigValidateCmd,
			},
			{
				Name:  "show",
				Usage: "Show the effective configuration",
				Description: `Shows the merged configuration from defaults and config file as TOML.

Examples:
  decay config show               # Show effective config
  decay config show -c decay.toml # Show config from specific file`,
				Action: runConfigShowCmd,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON Schema config files are checked against",
				Action: runConfigSchemaCmd,
			},
		},
	}
}

// resolveConfig loads --config or the config found in the working directory
// and returns it with its source path, empty for defaults.
func resolveConfig(c *cli.Context) (*config.Config, string, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.Load(path)
		return cfg, path, err
	}
	return config.LoadOrDefault()
}

func runConfigValidateCmd(c *cli.Context) error {
	_, source, err := resolveConfig(c)
	if err != nil {
		fmt.Fprintln(c.App.ErrWriter, color.RedString("Configuration validation failed:"))
		fmt.Fprintf(c.App.ErrWriter, "  - %s\n", err)
		return err
	}

	if source != "" {
		fmt.Fprintln(c.App.Writer, color.GreenString("Configuration valid: %s", source))
	} else {
		fmt.Fprintln(c.App.Writer, color.YellowString("No config file found. Default configuration is valid."))
	}
	return nil
}

func runConfigShowCmd(c *cli.Context) error {
	cfg, source, err := resolveConfig(c)
	if err != nil {
		return err
	}

	if source != "" {
		fmt.Fprintf(c.App.Writer, "# Configuration from: %s\n\n", source)
	} else {
		fmt.Fprintln(c.App.Writer, "# Default configuration (no config file found)")
	}

	content, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	fmt.Fprint(c.App.Writer, string(content))
	return nil
}

func runConfigSchemaCmd(c *cli.Context) error {
	_, err := c.App.Writer.Write(config.Schema())
	return err
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize a new decay configuration file",
		Description: `Creates a new decay.toml configuration file in the current directory
with the default thresholds. Use --output to specify a different location.

Examples:
  decay init                      # Creates decay.toml in current directory
  decay init -o .decay/decay.toml # Creates config in .decay directory
  decay init --force              # Overwrite existing config file`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Value:   "decay.toml",
				Usage:   "Output file path",
			},
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite existing config file",
			},
		},
		Action: runInitCmd,
	}
}

func runInitCmd(c *cli.Context) error {
	outputPath := c.String("output")

	if _, err := os.Stat(outputPath); err == nil && !c.Bool("force") {
		return fmt.Errorf("config file %q already exists (use --force to overwrite)", outputPath)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", dir, err)
		}
	}

	content, err := generateDefaultConfig()
	if err != nil {
		return err
	}

	if err := os.WriteFile(outputPath, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintln(c.App.Writer, color.GreenString("Created %s", outputPath))
	fmt.Fprintln(c.App.Writer, "Edit this file to tune thresholds and add rules.")
	return nil
}

func generateDefaultConfig() (string, error) {
	content, err := toml.Marshal(config.DefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# decay configuration\n")
	buf.WriteString("# Rules: [[rules]] name, priority, description, condition (e.g. \"churn > 20 && lcom4 > 3\")\n\n")
	buf.Write(content)
	return buf.String(), nil
}
