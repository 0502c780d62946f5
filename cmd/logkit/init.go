package main

import (
	"fmt"
	"os"

	"github.com/HorseArcher567/logkit/pkg/api"
	"github.com/HorseArcher567/logkit/pkg/app"
	"github.com/HorseArcher567/logkit/pkg/config"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a sample config file",
		Long:  `Write a sample config file; the format follows the extension (.yaml, .json or .toml)`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !force {
				if _, err := os.Stat(path); err == nil {
					return fmt.Errorf("%s already exists (use --force to overwrite)", path)
				}
			}

			if err := config.Write(path, sampleFramework()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Config written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}

func sampleFramework() app.Framework {
	framework := app.DefaultFramework()
	framework.Logging.Base = "./logs/run"
	framework.Logging.FilteredSourcesInfoOnly = []string{"http"}
	framework.Logging.FilteredSourcesAll = []string{}
	framework.ApiServer = &api.ServerConfig{
		Name: "logkit",
		Host: "127.0.0.1",
		Port: 9090,
		Mode: "release",
	}
	return framework
}
