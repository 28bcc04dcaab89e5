package cmd

import (
	"fmt"

	"github.com/compozy/releasepipe/internal/pipeline"
	"github.com/compozy/releasepipe/internal/plugin"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newVerifyConfigCmd() *cobra.Command {
	var path string
	var printYAML bool
	cmd := &cobra.Command{
		Use:   "verify-config",
		Short: "Validate the release configuration and print the pipeline",
		RunE: func(cmd *cobra.Command, _ []string) error {
			fs := afero.NewOsFs()
			registry := plugin.NewRegistry()
			cfg, source, err := pipeline.Load(fs, path)
			if err != nil {
				return err
			}
			if err := pipeline.Validate(cfg, registry.Has); err != nil {
				return fmt.Errorf("invalid release configuration %s: %w", source, err)
			}
			if _, err := registry.Resolve(cfg); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if printYAML {
				data, err := pipeline.Marshal(cfg)
				if err != nil {
					return err
				}
				_, err = out.Write(data)
				return err
			}
			fmt.Fprintf(out, "Configuration:\t%s\n", source)
			fmt.Fprintf(out, "Branches:\t%v\n", cfg.Branches)
			fmt.Fprintf(out, "Tag format:\t%s\n", cfg.TagFormat)
			fmt.Fprintln(out, "Plugins:")
			for i, step := range cfg.Plugins {
				fmt.Fprintf(out, "  %d. %s\n", i+1, step.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "config", "", "Release configuration file (discovered when empty)")
	cmd.Flags().BoolVar(&printYAML, "yaml", false, "Print the normalized configuration as YAML")
	return cmd
}
