package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/plotbook/internal/paths"
)

func newInitCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long:  "Write config.yaml if it is missing, then create the storage layout of the configured backend.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, err := paths.ResolveConfigDir(opts.configDir)
			if err != nil {
				return sysError(err)
			}
			cfg, err := opts.resolveConfig()
			if err != nil {
				return err
			}
			written, err := writeConfigIfMissing(filepath.Join(configDir, configFileExt), cfg)
			if err != nil {
				return sysError(err)
			}
			if written {
				opts.logger.Info("wrote default configuration", "dir", configDir)
			}

			return opts.withSession(cmd, func(s *session) error {
				fmt.Fprintf(cmd.OutOrStdout(), "plotbook initialized (%s backend, data in %s)\n", s.cfg.Backend, s.cfg.DataDir)
				return nil
			})
		},
	}
}
