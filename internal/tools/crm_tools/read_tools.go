package crm_tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/batch"
	"github.com/teemow/inboxcrm/internal/tools/common"
)

func handleSearch(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	term, err := common.RequireString(args, "term")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results, err := sc.CRM().Search(ctx, term, common.ListArg(args, "types"))
	if err != nil {
		return common.ErrorResult("search", err), nil
	}
	if results == nil {
		results = []crm.SearchResult{}
	}
	return common.JSONResult(results)
}

func handleFindRelated(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	emails := common.ListArg(args, "emails")
	if len(emails) == 0 {
		email, err := emailFromArgs(ctx, args, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		emails = email.Addresses()
	}
	if len(emails) == 0 {
		return mcp.NewToolResultError("emails is required when the mail item has no participants"), nil
	}

	related := sc.CRM().FindRelatedRecords(ctx, emails)
	return common.JSONResult(related)
}

func handleGetRecord(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	objectType, err := common.RequireString(args, "objectType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := batch.ParseIDs(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields := common.ListArg(args, "fields")

	if len(ids) == 1 {
		rec, err := sc.CRM().GetRecord(ctx, objectType, ids[0], fields)
		if err != nil {
			return common.ErrorResult("get record", err), nil
		}
		return common.JSONResult(rec)
	}

	summary := batch.Process(ctx, ids, func(ctx context.Context, id string) (any, error) {
		return sc.CRM().GetRecord(ctx, objectType, id, fields)
	})
	return common.JSONResult(summary)
}

func handleTestConnection(ctx context.Context, _ map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	res := sc.CRM().TestConnection(ctx)
	out, err := common.JSONResult(res)
	if out != nil && !res.Success {
		out.IsError = true
	}
	return out, err
}
