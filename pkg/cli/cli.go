// Package cli provides the command-line interface for uipilot.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uipilot/pkg/config"
	"github.com/devicelab-dev/uipilot/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (defaults to the working directory)",
		EnvVars: []string{"UIPILOT_CONFIG"},
	},
	&cli.StringFlag{
		Name:    "appium-url",
		Usage:   "Appium server URL",
		EnvVars: []string{"APPIUM_URL"},
	},
	&cli.StringFlag{
		Name:    "provider",
		Usage:   "LLM provider (openai, anthropic, gemini, ollama)",
		EnvVars: []string{"UIPILOT_PROVIDER"},
	},
	&cli.StringFlag{
		Name:    "model",
		Aliases: []string{"m"},
		Usage:   "Model id for the provider",
		EnvVars: []string{"UIPILOT_MODEL"},
	},
	&cli.StringFlag{
		Name:    "artifacts-dir",
		Usage:   "Directory for step screenshots and session records",
		EnvVars: []string{"UIPILOT_ARTIFACTS_DIR"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Log file path (stderr when unset)",
		EnvVars: []string{"UIPILOT_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Enable debug logging",
		EnvVars: []string{"UIPILOT_VERBOSE"},
	},
}

// Execute runs the CLI.
func Execute() {
	app := &cli.App{
		Name:    "uipilot",
		Usage:   "LLM-driven mobile UI automation agent",
		Version: Version,
		Description: `uipilot drives a mobile device through natural-language instructions,
deciding each action with a cascading hierarchy/vision pipeline.

Examples:
  uipilot serve --appium-url http://127.0.0.1:4723
  uipilot run -i "tap the login button" -i "type alice into the email field"
  uipilot run -i "open settings" --assert "the settings screen is shown"`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			serveCommand,
			runCommand,
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig merges file configuration with command-line overrides and
// initializes logging.
func loadConfig(c *cli.Context) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path := c.String("config"); path != "" {
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadFromDir(".")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if v := c.String("appium-url"); v != "" {
		cfg.AppiumURL = v
	}
	if v := c.String("provider"); v != "" {
		cfg.LLMProvider = v
	}
	if v := c.String("model"); v != "" {
		cfg.Model = v
	}
	if v := c.String("artifacts-dir"); v != "" {
		cfg.ArtifactsDir = v
	}
	if v := c.String("log-file"); v != "" {
		cfg.LogFile = v
	}
	if c.Bool("verbose") {
		cfg.Verbose = true
	}
	if cfg.AppiumURL == "" {
		cfg.AppiumURL = "http://127.0.0.1:4723"
	}

	if err := logger.Init(cfg.LogFile, cfg.Verbose); err != nil {
		return nil, err
	}
	return cfg, nil
}
