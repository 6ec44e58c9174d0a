package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/uipilot/pkg/config"
	"github.com/devicelab-dev/uipilot/pkg/driver/appium"
	"github.com/devicelab-dev/uipilot/pkg/llm"
	"github.com/devicelab-dev/uipilot/pkg/logger"
	"github.com/devicelab-dev/uipilot/pkg/mcp"
	"github.com/devicelab-dev/uipilot/pkg/session"
)

var serveCommand = &cli.Command{
	Name:  "serve",
	Usage: "Run the MCP stdio server over a connected device",
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		defer logger.Close()

		controller, disconnect, err := buildController(cfg)
		if err != nil {
			return err
		}
		defer disconnect()

		srv := mcp.NewServer(mcp.ServerOptions{
			ServerName:    "uipilot",
			ServerVersion: Version,
		}, controller)
		return srv.ServeStdio()
	},
}

// buildController connects the device and wires the session controller.
// The returned func closes the device session.
func buildController(cfg *config.Config) (*session.Controller, func(), error) {
	provider, err := llm.New(llm.Options{
		Provider: cfg.LLMProvider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	})
	if err != nil {
		return nil, nil, err
	}

	client := appium.NewClient(cfg.AppiumURL)
	caps := cfg.Capabilities
	if caps == nil {
		caps = map[string]interface{}{"platformName": "Android"}
	}
	if err := client.Connect(caps); err != nil {
		return nil, nil, fmt.Errorf("failed to connect to appium: %w", err)
	}

	controller, err := session.NewController(client, provider, cfg)
	if err != nil {
		client.Disconnect()
		return nil, nil, err
	}

	disconnect := func() {
		if err := client.Disconnect(); err != nil {
			logger.Warn("appium disconnect failed: %v", err)
		}
	}
	return controller, disconnect, nil
}
