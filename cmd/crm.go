package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/mailitem"
)

func newSearchCmd() *cobra.Command {
	var types string

	cmd := &cobra.Command{
		Use:   "search TERM",
		Short: "Search contacts and leads",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			results, err := a.client.Search(cmd.Context(), strings.Join(args, " "), parseCommaSeparatedList(types))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results)
		},
	}

	cmd.Flags().StringVar(&types, "types", "", "Comma-separated object types (default: Contact,Lead)")
	return cmd
}

func newRelatedCmd() *cobra.Command {
	var mf mailFlags

	cmd := &cobra.Command{
		Use:   "related [EMAIL...]",
		Short: "Find CRM records related to email addresses or a mail item",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			emails := args
			if len(emails) == 0 {
				email, err := mf.resolve(cmd, a)
				if err != nil {
					return err
				}
				emails = email.Addresses()
			}
			return printJSON(cmd.OutOrStdout(), a.client.FindRelatedRecords(cmd.Context(), emails))
		},
	}

	mf.register(cmd)
	return cmd
}

func newGetCmd() *cobra.Command {
	var fields string

	cmd := &cobra.Command{
		Use:   "get OBJECT ID",
		Short: "Get a CRM record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			rec, err := a.client.GetRecord(cmd.Context(), args[0], args[1], parseCommaSeparatedList(fields))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), rec)
		},
	}

	cmd.Flags().StringVar(&fields, "fields", "", "Comma-separated fields (default: all)")
	return cmd
}

func newTestConnectionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test-connection",
		Short: "Check the CRM connection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			res := a.client.TestConnection(cmd.Context())
			if err := printJSON(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("connection test failed: %s", res.Error)
			}
			return nil
		},
	}
}

func newLogEmailCmd() *cobra.Command {
	var (
		mf        mailFlags
		relatedTo string
	)

	cmd := &cobra.Command{
		Use:   "log-email",
		Short: "Log a mail item as an EmailMessage record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			email, err := mf.resolve(cmd, a)
			if err != nil {
				return err
			}
			res, err := a.client.LogEmail(cmd.Context(), email, relatedTo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	mf.register(cmd)
	cmd.Flags().StringVar(&relatedTo, "related-to", "", "Id of the record the email relates to")
	return cmd
}

func newCreateTaskCmd() *cobra.Command {
	var (
		mf       mailFlags
		activity crm.ActivityData
		dueDate  string
	)

	cmd := &cobra.Command{
		Use:   "create-task",
		Short: "Create a task from a mail item",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dueDate != "" {
				t, err := time.Parse(time.DateOnly, dueDate)
				if err != nil {
					return fmt.Errorf("--due must be YYYY-MM-DD: %w", err)
				}
				activity.DueDate = &t
			}
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			email, err := mf.resolve(cmd, a)
			if err != nil {
				return err
			}
			res, err := a.client.CreateActivityFromEmail(cmd.Context(), email, activity)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	mf.register(cmd)
	f := cmd.Flags()
	f.StringVar(&activity.Subject, "task-subject", "", "Task subject (default: 'Email: <subject>')")
	f.StringVar(&activity.Description, "description", "", "Task description (default: email summary)")
	f.StringVar(&activity.Status, "status", "", "Task status (default: Completed)")
	f.StringVar(&activity.Priority, "priority", "", "Task priority (default: Normal)")
	f.StringVar(&dueDate, "due", "", "Due date YYYY-MM-DD (default: the email date)")
	f.StringVar(&activity.OwnerID, "owner", "", "Owner user id")
	f.StringVar(&activity.RelatedRecordID, "related-to", "", "Id of the related contact, lead, account or opportunity")
	f.StringVar(&activity.RelatedRecordType, "related-type", "", "Type of --related-to (inferred from the id when omitted)")
	return cmd
}

func newCreateContactCmd() *cobra.Command {
	var in crm.ContactInput

	cmd := &cobra.Command{
		Use:   "create-contact",
		Short: "Create a contact",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			res, err := a.client.CreateContact(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "First name")
	f.StringVar(&in.LastName, "last-name", "", "Last name")
	f.StringVar(&in.Email, "email", "", "Email address")
	f.StringVar(&in.Phone, "phone", "", "Phone number")
	f.StringVar(&in.Title, "title", "", "Job title")
	f.StringVar(&in.AccountID, "account", "", "Account id")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func newCreateLeadCmd() *cobra.Command {
	var in crm.LeadInput

	cmd := &cobra.Command{
		Use:   "create-lead",
		Short: "Create a lead",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(nil)
			if err != nil {
				return err
			}
			res, err := a.client.CreateLead(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.FirstName, "first-name", "", "First name")
	f.StringVar(&in.LastName, "last-name", "", "Last name")
	f.StringVar(&in.Email, "email", "", "Email address")
	f.StringVar(&in.Company, "company", "", "Company")
	f.StringVar(&in.Phone, "phone", "", "Phone number")
	f.StringVar(&in.Title, "title", "", "Job title")
	_ = cmd.MarkFlagRequired("last-name")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

// mailFlags selects the mail item: a Gmail message or explicit fields.
type mailFlags struct {
	messageID string
	subject   string
	from      string
	fromName  string
	to        string
	cc        string
	body      string
	htmlBody  string
	date      string
	outgoing  bool
}

func (m *mailFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&m.messageID, "message-id", "", "Gmail message id (requires gmail-login)")
	f.StringVar(&m.subject, "subject", "", "Email subject")
	f.StringVar(&m.from, "from", "", "Sender address")
	f.StringVar(&m.fromName, "from-name", "", "Sender display name")
	f.StringVar(&m.to, "to", "", "Comma-separated recipients")
	f.StringVar(&m.cc, "cc", "", "Comma-separated cc recipients")
	f.StringVar(&m.body, "body", "", "Plain text body")
	f.StringVar(&m.htmlBody, "html-body", "", "HTML body")
	f.StringVar(&m.date, "date", "", "Message date, RFC 3339 (default: now)")
	f.BoolVar(&m.outgoing, "outgoing", false, "The email was sent rather than received")
	cmd.MarkFlagsMutuallyExclusive("message-id", "subject")
}

// source returns the mail item source for the flags.
func (m *mailFlags) source(a *app) (mailitem.Source, error) {
	if m.messageID != "" {
		g, err := a.googleAuth()
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, fmt.Errorf("--message-id needs google_client_id to be configured")
		}
		return &lazyGmailSource{auth: g, messageID: m.messageID}, nil
	}

	email := crm.EmailData{
		Subject:  m.subject,
		From:     m.from,
		FromName: m.fromName,
		To:       parseCommaSeparatedList(m.to),
		CC:       parseCommaSeparatedList(m.cc),
		Body:     m.body,
		HTMLBody: m.htmlBody,
		Incoming: !m.outgoing,
		Date:     time.Now().UTC(),
	}
	if m.date != "" {
		t, err := time.Parse(time.RFC3339, m.date)
		if err != nil {
			return nil, fmt.Errorf("--date must be RFC 3339: %w", err)
		}
		email.Date = t
	}
	return mailitem.StaticSource{Email: email}, nil
}

func (m *mailFlags) resolve(cmd *cobra.Command, a *app) (crm.EmailData, error) {
	src, err := m.source(a)
	if err != nil {
		return crm.EmailData{}, err
	}
	email, err := src.Current(cmd.Context())
	if err != nil {
		return crm.EmailData{}, fmt.Errorf("no mail item: pass --message-id or --subject, --from and --body: %w", err)
	}
	return email, nil
}

// parseCommaSeparatedList parses a comma-separated string into a slice,
// trimming whitespace from each element and filtering out empty strings.
// Returns nil if the input is empty or contains only whitespace/commas.
func parseCommaSeparatedList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
