package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vitalnotes/internal/domain"
)

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the remote API and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			identity, err := c.app.auth.Login(ctx, email, password)
			if err != nil {
				return err
			}
			if err := c.app.records.List(ctx); err != nil {
				c.app.logger.Warn(ctx, "patient list not loaded after login", "error", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s)\n", displayName(identity), identity.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c.app.auth.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity and its permissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			session, ok := c.app.sessions.Session()
			if !ok {
				return &domain.DeniedError{Decision: domain.DenyNotLoggedIn}
			}
			out := cmd.OutOrStdout()
			identity := session.Identity
			fmt.Fprintf(out, "%s <%s>\nrole: %s\n", displayName(identity), identity.Email, identity.Role)
			if info, err := c.app.inspector.Inspect(session.Token); err == nil && !info.ExpiresAt.IsZero() {
				state := "valid"
				if info.Expired(time.Now()) {
					state = "expired"
				}
				fmt.Fprintf(out, "token: %s until %s\n", state, info.ExpiresAt.Format(time.RFC3339))
			}
			perms := c.app.policy.Permissions(&identity)
			for _, action := range c.app.policy.Actions() {
				if perms[action] {
					fmt.Fprintf(out, "  can %s\n", action)
				}
			}
			return nil
		},
	}
}

func (c *cli) canCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "can <action>",
		Short: "Check whether the current session may perform an action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			decision := c.app.guard.DecideAction(domain.Action(args[0]))
			if decision != domain.Allow {
				return &domain.DeniedError{Decision: decision}
			}
			fmt.Fprintln(cmd.OutOrStdout(), "allowed")
			return nil
		},
	}
}

func displayName(identity domain.Identity) string {
	if identity.Name != "" {
		return identity.Name
	}
	return identity.Email
}
