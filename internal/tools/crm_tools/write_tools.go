package crm_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/batch"
	"github.com/teemow/inboxcrm/internal/tools/common"
)

func handleLogEmail(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	email, err := emailFromArgs(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := sc.CRM().LogEmail(ctx, email, common.StringArg(args, "relatedRecordId"))
	if err != nil {
		return common.ErrorResult("log email", err), nil
	}
	return common.JSONResult(res)
}

func handleCreateTask(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	email, err := emailFromArgs(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	due, err := common.TimeArg(args, "dueDate")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	activity := crm.ActivityData{
		Subject:           common.StringArg(args, "taskSubject"),
		Description:       common.StringArg(args, "description"),
		Status:            common.StringArg(args, "status"),
		Priority:          common.StringArg(args, "priority"),
		DueDate:           due,
		OwnerID:           common.StringArg(args, "ownerId"),
		RelatedRecordID:   common.StringArg(args, "relatedRecordId"),
		RelatedRecordType: common.StringArg(args, "relatedRecordType"),
	}

	res, err := sc.CRM().CreateActivityFromEmail(ctx, email, activity)
	if err != nil {
		return common.ErrorResult("create task", err), nil
	}
	return common.JSONResult(res)
}

func handleCreateContact(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	in := crm.ContactInput{
		FirstName: common.StringArg(args, "firstName"),
		LastName:  common.StringArg(args, "lastName"),
		Email:     common.StringArg(args, "email"),
		Phone:     common.StringArg(args, "phone"),
		Title:     common.StringArg(args, "title"),
		AccountID: common.StringArg(args, "accountId"),
	}
	if in.LastName == "" {
		return mcp.NewToolResultError("lastName is required"), nil
	}

	res, err := sc.CRM().CreateContact(ctx, in)
	if err != nil {
		return common.ErrorResult("create contact", err), nil
	}
	return common.JSONResult(res)
}

func handleCreateLead(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	in := crm.LeadInput{
		FirstName: common.StringArg(args, "firstName"),
		LastName:  common.StringArg(args, "lastName"),
		Email:     common.StringArg(args, "email"),
		Company:   common.StringArg(args, "company"),
		Phone:     common.StringArg(args, "phone"),
		Title:     common.StringArg(args, "title"),
	}
	if in.LastName == "" || in.Company == "" {
		return mcp.NewToolResultError("lastName and company are required"), nil
	}

	res, err := sc.CRM().CreateLead(ctx, in)
	if err != nil {
		return common.ErrorResult("create lead", err), nil
	}
	return common.JSONResult(res)
}

func handleUpdateRecord(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	objectType, err := common.RequireString(args, "objectType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	id, err := common.RequireString(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fields, err := common.ObjectArg(args, "fields")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := sc.CRM().UpdateRecord(ctx, objectType, id, fields); err != nil {
		return common.ErrorResult("update record", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Updated %s %s", objectType, id)), nil
}

func handleDeleteRecord(ctx context.Context, args map[string]any, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	objectType, err := common.RequireString(args, "objectType")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := batch.ParseIDs(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary := batch.Process(ctx, ids, func(ctx context.Context, id string) (any, error) {
		if err := sc.CRM().DeleteRecord(ctx, objectType, id); err != nil {
			return nil, err
		}
		return "deleted", nil
	})
	if summary.Successful == 0 {
		return common.ErrorResult("delete records", summary.FirstError()), nil
	}
	return common.JSONResult(summary)
}
