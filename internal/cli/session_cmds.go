package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	apperrors "github.com/jrsteele09/hr-gateway/internal/errors"
	"github.com/jrsteele09/hr-gateway/sessions"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newLoginCommand(a *app) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Log in and store the session",
		Long: `Log in with a username and password. The password is read from --password
or the HRCTL_PASSWORD environment variable.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				password = passwordFromEnv()
			}
			rec, err := a.manager.Login(cmd.Context(), args[0], password)
			if err != nil {
				var blocked *sessions.BlockedError
				var creds *sessions.CredentialError
				switch {
				case errors.As(err, &blocked):
					return errors.New(blocked.Error())
				case errors.As(err, &creds):
					return errors.New(creds.Error())
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Hoş geldiniz, %s (%s)\n", rec.DisplayName, rec.TenantName)
			fmt.Fprintf(cmd.OutOrStdout(), "Area: %s, session expires %s\n", rec.Home(), rec.ExpiresAt.Local().Format(time.Kitchen))
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "password")
	return cmd
}

func newLogoutCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.manager.Logout()
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if rec.SessionToken != "" {
				if err := a.gateway.Logout(cmd.Context(), rec.TenantName, rec.SessionToken); err != nil {
					log.Warn().Err(err).Msg("Failed to revoke session token on the gateway")
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", rec.Username)
			return nil
		},
	}
}

func newStatusCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			state, rec, err := a.manager.Status()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "State:   %s\n", state)
			if rec == nil {
				return nil
			}
			fmt.Fprintf(out, "User:    %s\n", rec.Username)
			fmt.Fprintf(out, "Tenant:  %s\n", rec.TenantName)
			fmt.Fprintf(out, "Area:    %s\n", rec.Home())
			fmt.Fprintf(out, "Expires: %s\n", time.Until(rec.ExpiresAt).Round(time.Second))
			return nil
		},
	}
}

func newWhoamiCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the stored session record as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := a.manager.Restore()
			if err != nil {
				return notLoggedIn(err)
			}
			view := *rec
			view.SessionToken = ""
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(view)
		},
	}
}

func newRouteCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show where the UI would send a request for path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			redirect, err := a.manager.Guard(args[0])
			if err != nil {
				return err
			}
			if redirect == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: allowed\n", args[0])
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: redirect to %s\n", args[0], redirect)
			return nil
		},
	}
}

func newWatchCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run the periodic session expiry check until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := a.manager.Restore(); err != nil {
				return notLoggedIn(err)
			}
			return a.manager.Watch(cmd.Context(), func(rec *sessions.Record) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n", sessions.MsgSessionExpired, rec.Username)
			})
		},
	}
}

func notLoggedIn(err error) error {
	if errors.Is(err, apperrors.ErrSessionExpired) {
		return errors.New(sessions.MsgSessionExpired)
	}
	if errors.Is(err, apperrors.ErrSessionNotFound) {
		return errors.New("not logged in")
	}
	return err
}
