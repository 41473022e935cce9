package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"parley/internal/api"
	"parley/internal/content"
	"parley/internal/session"
	"parley/internal/view"
)

func (a *App) startSession(res api.Result[api.AuthPayload]) error {
	if err := res.Err(); err != nil {
		return err
	}
	if err := a.Sessions.Save(session.Session{Token: res.Data.Token, User: res.Data.User}); err != nil {
		return err
	}
	a.printf("Signed in as %s\n", res.Data.User.Username)
	return nil
}

func newSignupCmd(app *App) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and sign in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if username, err = app.readLine("Username", username); err != nil {
				return err
			}
			if email, err = app.readLine("Email", email); err != nil {
				return err
			}
			if password, err = app.readPassword(password); err != nil {
				return err
			}
			if err := content.ValidateSignup(username, email, password); err != nil {
				return err
			}

			return app.startSession(app.API.Signup(cmd.Context(), api.SignupRequest{
				Username: username,
				Email:    email,
				Password: password,
			}))
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLoginCmd(app *App) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if email, err = app.readLine("Email", email); err != nil {
				return err
			}
			if password, err = app.readPassword(password); err != nil {
				return err
			}
			if err := content.ValidateLogin(email, password); err != nil {
				return err
			}

			return app.startSession(app.API.Login(cmd.Context(), api.LoginRequest{Email: email, Password: password}))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Sessions.Clear(); err != nil {
				return err
			}
			app.printf("Signed out\n")
			return nil
		},
	}
}

func newProfileCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			res := app.API.Profile(cmd.Context(), sess.Token)
			if err := res.Err(); err != nil {
				return err
			}
			if err := app.Sessions.UpdateUser(res.Data); err != nil {
				return err
			}
			return view.Profile(app.Out, res.Data)
		},
	}

	cmd.AddCommand(newProfileUpdateCmd(app))
	return cmd
}

func newProfileUpdateCmd(app *App) *cobra.Command {
	var update api.ProfileUpdate

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change username, bio or location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := app.requireSession()
			if err != nil {
				return err
			}
			if update == (api.ProfileUpdate{}) {
				return errors.New("nothing to update: pass --username, --bio or --location")
			}
			if update.Username != "" {
				if err := content.ValidateUsername(update.Username); err != nil {
					return err
				}
			}
			update.Bio = content.PlainText(update.Bio)
			update.Location = content.PlainText(update.Location)

			res := app.API.UpdateProfile(cmd.Context(), sess.Token, update)
			if err := res.Err(); err != nil {
				return err
			}
			if err := app.Sessions.UpdateUser(res.Data); err != nil {
				return err
			}
			app.printf("Profile updated\n")
			return view.Profile(app.Out, res.Data)
		},
	}

	cmd.Flags().StringVar(&update.Username, "username", "", "new username")
	cmd.Flags().StringVar(&update.Bio, "bio", "", "new bio")
	cmd.Flags().StringVar(&update.Location, "location", "", "new location")
	return cmd
}
