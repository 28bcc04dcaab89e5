package cmd

import (
	"errors"

	"github.com/compozy/releasepipe/internal/orchestrator"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newReleaseCmd creates the release command
func newReleaseCmd(build func() (*container, error)) *cobra.Command {
	var cfg orchestrator.ReleaseConfig
	cmd := &cobra.Command{
		Use:   "release",
		Short: "Run the release pipeline",
		Long: `Run the release pipeline for the current branch.

The configured plugins run in order through each lifecycle phase:
verify conditions, analyze commits, verify release, generate notes,
prepare, tag, publish and finally success or fail.

With rollback support enabled (--enable-rollback) every step is recorded
in .release-state and completed steps are compensated when a later one
fails. A persisted session can be rolled back later with --rollback.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := build()
			if err != nil {
				return err
			}
			defer func() { _ = c.logger.Sync() }()
			if cfg.InitialVersion == "" {
				cfg.InitialVersion = c.cfg.InitialVersion
			}
			_, err = c.releaseOrchestrator().Execute(cmd.Context(), cfg)
			if errors.Is(err, orchestrator.ErrBranchNotAllowed) {
				c.logger.Info("Skipping release", zap.Error(err))
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&cfg.ConfigPath, "config", "", "Release configuration file (discovered when empty)")
	cmd.Flags().StringVar(&cfg.Branch, "branch", "", "Branch to release (defaults to the checked out branch)")
	cmd.Flags().BoolVar(&cfg.DryRun, "dry-run", false, "Run without making actual changes")
	cmd.Flags().BoolVar(&cfg.CIOutput, "ci-output", false, "Output in CI-friendly format")
	cmd.Flags().BoolVar(&cfg.NoCI, "no-ci", false, "Publish even when not running in CI")
	cmd.Flags().BoolVar(&cfg.EnableRollback, "enable-rollback", false, "Enable automatic rollback on failure")
	cmd.Flags().BoolVar(&cfg.Rollback, "rollback", false, "Rollback a failed release session")
	cmd.Flags().
		StringVar(&cfg.SessionID, "session-id", "", "Session ID to rollback (uses latest if not specified)")
	cmd.Flags().StringVar(&cfg.InitialVersion, "initial-version", "", "Version of the first release")
	return cmd
}
