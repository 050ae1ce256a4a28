package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcrm/internal/crm/session"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in to the CRM",
		Long: `Start the OAuth authorization code flow. The sign-in URL is printed;
open it in a browser and approve access. The redirect is captured on the
configured redirect_uri, which must be a loopback http address.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			s, err := a.flow.BeginAuthorization(cmd.Context(), a.opener(a.cfg.RedirectURI, cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in to %s\n", s.InstanceURL)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and remove the stored CRM session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			if err := a.flow.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
			return nil
		},
	}
}

// sessionStatus is the output of the status command.
type sessionStatus struct {
	State       string `json:"state"`
	InstanceURL string `json:"instance_url,omitempty"`
	IssuedAt    string `json:"issued_at,omitempty"`
	Expired     bool   `json:"expired"`
	CanRefresh  bool   `json:"can_refresh"`
	SessionFile string `json:"session_file"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the CRM session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), describeSession(a, time.Now()))
		},
	}
}

func describeSession(a *app, now time.Time) sessionStatus {
	st := sessionStatus{
		State:       a.flow.State().String(),
		SessionFile: a.store.Path(),
	}
	s := a.store.Load()
	if s == nil {
		return st
	}
	st.InstanceURL = s.InstanceURL
	if t, ok := s.IssuedTime(); ok {
		st.IssuedAt = t.UTC().Format(time.RFC3339)
	}
	st.Expired = session.IsExpired(s, now, a.cfg.ValidityWindow)
	st.CanRefresh = s.RefreshToken != ""
	return st
}

func newGmailLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gmail-login",
		Short: "Grant read-only Gmail access for reading mail items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			g, err := a.googleAuth()
			if err != nil {
				return err
			}
			if g == nil {
				return fmt.Errorf("google_client_id is not configured")
			}
			if err := g.Login(cmd.Context(), a.opener(a.cfg.GoogleRedirectURI, cmd.ErrOrStderr())); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Gmail token stored in %s\n", g.TokenPath())
			return nil
		},
	}
}

func newGmailLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gmail-logout",
		Short: "Remove the stored Gmail token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			g, err := a.googleAuth()
			if err != nil || g == nil {
				return err
			}
			return g.Logout()
		},
	}
}
