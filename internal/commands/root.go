package commands

import (
	"log/slog"

	"github.com/spf13/cobra"
)

// NewRootCmd builds the parley command tree around app. level is raised to
// debug when --verbose is given.
func NewRootCmd(app *App, level *slog.LevelVar) *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "parley",
		Short: "Terminal client for the parley chat service",
		Long: `parley talks to the chat backend over its HTTP API and realtime socket:
sign in, list and open conversations, manage friends and read notifications.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if verbose && level != nil {
				level.Set(slog.LevelDebug)
			}
			return app.loadSession()
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.SetOut(app.Out)

	root.AddCommand(
		newSignupCmd(app),
		newLoginCmd(app),
		newLogoutCmd(app),
		newProfileCmd(app),
		newChatsCmd(app),
		newChatCmd(app),
		newExportCmd(app),
		newFriendsCmd(app),
		newRequestsCmd(app),
		newUsersCmd(app),
		newNotificationsCmd(app),
		newStatsCmd(app),
	)

	return root
}
