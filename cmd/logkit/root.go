package main

import (
	"fmt"

	"github.com/HorseArcher567/logkit/pkg/app"
	"github.com/HorseArcher567/logkit/pkg/config"
	"github.com/spf13/cobra"
)

var version = "1.0.0"

type commandContext struct {
	configPath string
	base       string
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "logkit",
		Short:         "Per-level log file configurator",
		Long:          `Configure console and per-level file logging, inspect the resulting sinks and serve the admin API`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Config file (.yaml, .json or .toml)")
	rootCmd.PersistentFlags().StringVarP(&ctx.base, "base", "b", "", "Log base path (overrides logging.base)")

	rootCmd.AddCommand(
		newEmitCommand(ctx),
		newCheckCommand(ctx),
		newInitCommand(),
		newServeCommand(ctx),
		newVersionCommand(),
	)
	return rootCmd
}

// loadFramework 读取配置文件（可选）并应用 --base
func (c *commandContext) loadFramework() (*app.Framework, error) {
	framework := app.DefaultFramework()
	if c.configPath != "" {
		if err := config.Load(c.configPath, &framework); err != nil {
			return nil, err
		}
	}
	if c.base != "" {
		framework.Logging.Base = c.base
	}
	if framework.Logging.Base == "" {
		return nil, fmt.Errorf("log base path is required (use --base or logging.base)")
	}
	return &framework, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logkit version %s\n", version)
		},
	}
}
