package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arthur-debert/modsync/pkg/config"
)

func newConfigCmd(global *globalOptions) *cobra.Command {
	var defaults, path bool

	cmd := &cobra.Command{
		Use:   "config",
		Short: MsgConfigShort,
		Long:  MsgConfigLong,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch {
			case path:
				_, err := fmt.Fprintln(out, config.DefaultConfigPath())
				return err
			case defaults:
				_, err := fmt.Fprint(out, config.GenerateConfigContent())
				return err
			}

			cfg, err := config.Load(config.LoadOptions{ConfigFile: global.configFile})
			if err != nil {
				return err
			}
			data, err := config.Dump(cfg)
			if err != nil {
				return err
			}
			_, err = out.Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&defaults, "defaults", false, MsgFlagDefaults)
	cmd.Flags().BoolVar(&path, "path", false, MsgFlagConfigPath)

	return cmd
}
