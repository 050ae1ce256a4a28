package crm_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/mailitem"
	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/common"
)

type handler func(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error)

func bind(sc *server.ServerContext, h handler) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return h(ctx, request.GetArguments(), sc)
	}
}

// withEmailParams appends the mail item parameters to extra.
func withEmailParams(extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithString("messageId", mcp.Description("Gmail message id of the mail item. Takes precedence over the fields below.")),
		mcp.WithString("subject", mcp.Description("Email subject")),
		mcp.WithString("from", mcp.Description("Sender address")),
		mcp.WithString("fromName", mcp.Description("Sender display name")),
		mcp.WithString("to", mcp.Description("Comma-separated recipient addresses")),
		mcp.WithString("cc", mcp.Description("Comma-separated cc addresses")),
		mcp.WithString("body", mcp.Description("Plain text body")),
		mcp.WithString("htmlBody", mcp.Description("HTML body")),
		mcp.WithString("date", mcp.Description("Message date, RFC 3339 (default: now)")),
		mcp.WithBoolean("incoming", mcp.Description("Whether the email was received rather than sent (default: true)")),
	}
	return append(opts, extra...)
}

// emailFromArgs resolves the mail item named by the arguments.
func emailFromArgs(ctx context.Context, args map[string]any, sc *server.ServerContext) (crm.EmailData, error) {
	var src mailitem.Source
	if id := common.StringArg(args, "messageId"); id != "" {
		s, err := sc.MailSource(id)
		if err != nil {
			return crm.EmailData{}, err
		}
		src = s
	} else {
		date, err := common.TimeArg(args, "date")
		if err != nil {
			return crm.EmailData{}, err
		}
		email := crm.EmailData{
			Subject:  common.StringArg(args, "subject"),
			From:     common.StringArg(args, "from"),
			FromName: common.StringArg(args, "fromName"),
			To:       common.ListArg(args, "to"),
			CC:       common.ListArg(args, "cc"),
			Body:     common.StringArg(args, "body"),
			HTMLBody: common.StringArg(args, "htmlBody"),
			Incoming: common.BoolArg(args, "incoming", true),
		}
		if date != nil {
			email.Date = *date
		} else {
			email.Date = time.Now().UTC()
		}
		src = mailitem.StaticSource{Email: email}
	}

	email, err := src.Current(ctx)
	if err != nil {
		return crm.EmailData{}, fmt.Errorf("no mail item: pass messageId or subject, from and body: %w", err)
	}
	return email, nil
}
