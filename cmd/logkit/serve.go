package main

import (
	"github.com/HorseArcher567/logkit/pkg/app"
	"github.com/spf13/cobra"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the admin API and etcd watcher until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			framework, err := ctx.loadFramework()
			if err != nil {
				return err
			}

			a, err := app.New(framework)
			if err != nil {
				return err
			}
			return a.Run(cmd.Context())
		},
	}
}
