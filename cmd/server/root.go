package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"idgraph/internal/platform/config"
	"idgraph/internal/platform/logger"
)

type rootOptions struct {
	envFiles []string
	cfg      config.Config
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:           "idgraph",
		Short:         "Visitor identity resolution service",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotEnv(opts.envFiles...); err != nil {
				return err
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			opts.cfg = cfg
			opts.logger = logger.New(cfg.Log)
			slog.SetDefault(opts.logger)
			return nil
		},
	}
	cmd.PersistentFlags().StringSliceVar(&opts.envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newMigrateCmd(opts))
	cmd.AddCommand(newTokenCmd(opts))
	return cmd
}
