package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcrm/internal/crm/api"
	"github.com/teemow/inboxcrm/internal/crm/auth"
)

// rootCmd represents the base command for the inboxcrm application
var rootCmd = newRootCmd()

// version will be set by main
var version = "dev"

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	logLevel   string
	logFormat  string
}

var flags globalFlags

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inboxcrm",
		Short: "Connects your mailbox to your CRM",
		Long: `inboxcrm links email to CRM records. It finds the contacts, leads,
accounts and opportunities behind a message, logs emails and creates tasks.

It can run as:
  - A standalone CLI tool
  - An MCP (Model Context Protocol) server for AI assistants`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "Config file (default: $XDG_CONFIG_HOME/inboxcrm/config.yaml)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
	cmd.PersistentFlags().StringVar(&flags.logFormat, "log-format", "", "Log format: text or json (overrides log_format)")

	cmd.AddCommand(
		newLoginCmd(),
		newLogoutCmd(),
		newStatusCmd(),
		newGmailLoginCmd(),
		newGmailLogoutCmd(),
		newSearchCmd(),
		newRelatedCmd(),
		newGetCmd(),
		newTestConnectionCmd(),
		newLogEmailCmd(),
		newCreateTaskCmd(),
		newCreateContactCmd(),
		newCreateLeadCmd(),
		newServeCmd(),
		newGenerateDocsCmd(),
		newVersionCmd(),
	)
	return cmd
}

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "inboxcrm version %s\n" .Version}}`)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cancel()
		fmt.Fprintln(os.Stderr, "Error:", userMessage(err))
		os.Exit(1)
	}
}

// userMessage replaces session failures with a sign-in hint.
func userMessage(err error) string {
	switch {
	case api.IsReauthRequired(err):
		return "you are not signed in to the CRM or your session has expired; run 'inboxcrm login'"
	case errors.Is(err, auth.ErrAuthCancelled):
		return "sign-in was cancelled"
	}
	return err.Error()
}
