package main

import (
	"fmt"
	"time"

	"github.com/Rishi-0007/tm-assignment/client"
	"github.com/spf13/cobra"
)

func (a *app) registerCommand() *cobra.Command {
	var email, password, name string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := a.credentials(email, password)
			if err != nil {
				return err
			}
			var namePtr *string
			if name != "" {
				namePtr = &name
			}

			userID, err := a.api.Register(cmd.Context(), email, password, namePtr)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Account created (id %s). Run `taskctl login` to sign in.\n", userID)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			email, password, err := a.credentials(email, password)
			if err != nil {
				return err
			}

			res, err := a.api.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Logged in as %s\n", displayName(res.User.Email, res.User.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted when omitted)")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the session and forget it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.session.State() == client.LoggedOut {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			if err := a.api.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Logged out")
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	var remote bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show who the stored session belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if remote {
				me, err := a.api.Me(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "%s (%s)\n", displayName(me.Email, me.Name), me.ID)
				return nil
			}

			tokens := a.session.Tokens()
			if tokens == nil {
				fmt.Fprintln(a.out, "Not logged in")
				return nil
			}
			id, err := client.DecodeClaims(tokens.AccessToken)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%s)\n", displayName(id.Email, id.Name), id.UserID)
			if id.Expired(time.Now()) {
				fmt.Fprintln(a.out, "access token expired; it will be refreshed on the next request")
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&remote, "remote", false, "ask the server instead of reading the stored token")
	return cmd
}

func displayName(email string, name *string) string {
	if name == nil || *name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", *name, email)
}
