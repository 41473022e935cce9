package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"parley/internal/api"
	"parley/internal/contacts"
	"parley/internal/session"
	"parley/internal/view"
)

func newFriendsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "friends",
		Short: "List accepted friends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.Friends(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}
			buckets := contacts.Split(sess.User.ID, res.Data)
			if len(buckets.Friends) == 0 {
				app.printf("No friends yet\n")
				return nil
			}
			return view.Relations(app.Out, buckets.Friends)
		},
	}
}

func newRequestsCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List pending friend requests",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.FriendRequests(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}

			buckets := contacts.Split(sess.User.ID, res.Data)
			app.printf("Received\n")
			if err := view.Relations(app.Out, buckets.Incoming); err != nil {
				return err
			}
			app.printf("Sent\n")
			return view.Relations(app.Out, buckets.Outgoing)
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "send <userId>",
			Short: "Send a friend request",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				sess, err := app.requireSession()
				if err != nil {
					return err
				}
				res := app.API.SendFriendRequest(cmd.Context(), sess.Token, args[0])
				if err := res.Err(); err != nil {
					return err
				}
				app.printf("Friend request sent\n")
				return nil
			},
		},
		&cobra.Command{
			Use:       "respond <requestId> accept|reject",
			Short:     "Accept or reject a received friend request",
			Args:      cobra.ExactArgs(2),
			ValidArgs: []string{string(api.FriendAccept), string(api.FriendReject)},
			RunE: func(cmd *cobra.Command, args []string) error {
				action := api.FriendResponse(args[1])
				if action != api.FriendAccept && action != api.FriendReject {
					return fmt.Errorf("unknown response %q: use accept or reject", args[1])
				}
				sess, err := app.requireSession()
				if err != nil {
					return err
				}
				if err := app.checkRespondable(cmd.Context(), sess, args[0]); err != nil {
					return err
				}
				res := app.API.RespondFriendRequest(cmd.Context(), sess.Token, args[0], action)
				if err := res.Err(); err != nil {
					return err
				}
				app.printf("Request %sed\n", action)
				return nil
			},
		},
	)

	return cmd
}

// checkRespondable refuses requests the user sent or that are no longer
// pending, so only the addressee's own pending requests reach the backend.
func (a *App) checkRespondable(ctx context.Context, sess session.Session, id string) error {
	res := a.API.FriendRequests(ctx, sess.Token)
	if err := res.Err(); err != nil {
		return err
	}
	for _, f := range res.Data {
		if f.ID != id {
			continue
		}
		rel := contacts.Derive(sess.User.ID, f)
		if rel.CanRespond() {
			return nil
		}
		if rel.IsRequester {
			return fmt.Errorf("request %s was sent by you, only %s can respond", id, rel.Other.Username)
		}
		return fmt.Errorf("request %s is %s", id, rel.Status)
	}
	return fmt.Errorf("no pending request %s", id)
}

func newUsersCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List people you can befriend or message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.Users(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}
			return view.People(app.Out, res.Data)
		},
	}
}

func newNotificationsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "notifications",
		Short: "Show recent notifications",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.Notifications(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}
			return view.Notifications(app.Out, res.Data, app.now())
		},
	}
}

func newStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the dashboard summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.DashboardStats(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}
			return view.Stats(app.Out, res.Data)
		},
	}
}
