package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and project",
		Long: `Create the SQLite database if needed and register the configured
project with the configured actor as its owner.

Running init again is harmless: an existing project keeps its owner and
members, and the actor is added as a member.

Examples:
  docsql init --db ./shop.db --project shop --actor alice`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer e.close()

			project, actor := e.cfg.Project.ID, e.cfg.Project.Actor
			if err := e.store.EnsureProject(cmd.Context(), project, actor); err != nil {
				return WrapExitError(ExitCommandError, "failed to initialize project", err)
			}
			e.logger.Info("project ready", "project", project, "owner", actor, "database", e.cfg.Database.Path)

			f := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			if rootOpts.Format == "json" {
				return f.Success(map[string]string{"project": project, "owner": actor})
			}
			return f.Success(fmt.Sprintf("Project '%s' ready (owner %s).", project, actor))
		},
	}
}
