package cmd

import (
	"github.com/compozy/releasepipe/pkg/version"
	"github.com/spf13/cobra"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "releasepipe",
	Short: "Run a declarative release pipeline",
	Long: `releasepipe reads a release pipeline configuration (branches, tag format and
an ordered list of plugins) and runs it against the current git repository:
it analyzes commits, computes the next version, rewrites files, tags and
publishes the release.`,
	Version:      version.Summary(),
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}
