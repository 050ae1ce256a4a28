package crm_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/common"
)

// RegisterCRMTools registers all CRM tools with the MCP server
func RegisterCRMTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerReadTools(s, sc)
	if !readOnly {
		registerWriteTools(s, sc)
	}
	return nil
}

func add(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, readOnly bool, h handler) {
	s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, readOnly, sc, bind(sc, h)))
}

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	add(s, sc, mcp.NewTool("crm_search",
		mcp.WithDescription("Search CRM contacts and leads by name, email, phone or company"),
		mcp.WithString("term",
			mcp.Required(),
			mcp.Description("Free-text search term"),
		),
		mcp.WithString("types",
			mcp.Description("Comma-separated object types to search (default: Contact,Lead)"),
		),
	), true, handleSearch)

	add(s, sc, mcp.NewTool("crm_find_related",
		withEmailParams(
			mcp.WithDescription("Find contacts, leads, accounts and open opportunities related to email addresses or a mail item"),
			mcp.WithString("emails",
				mcp.Description("Comma-separated email addresses. When omitted the mail item's participants are used."),
			),
		)...,
	), true, handleFindRelated)

	add(s, sc, mcp.NewTool("crm_get_record",
		mcp.WithDescription("Get one or more CRM records by id"),
		mcp.WithString("objectType",
			mcp.Required(),
			mcp.Description("Object type, e.g. Contact, Lead, Account"),
		),
		mcp.WithArray("ids",
			mcp.Required(),
			mcp.Description("Record id or array of record ids"),
		),
		mcp.WithString("fields",
			mcp.Description("Comma-separated fields to return (default: all)"),
		),
	), true, handleGetRecord)

	add(s, sc, mcp.NewTool("crm_test_connection",
		mcp.WithDescription("Check the CRM connection and report the signed-in user and organization"),
	), true, handleTestConnection)
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	add(s, sc, mcp.NewTool("crm_log_email",
		withEmailParams(
			mcp.WithDescription("Log a mail item as an EmailMessage record, optionally related to a CRM record"),
			mcp.WithString("relatedRecordId",
				mcp.Description("Id of the record the email relates to"),
			),
		)...,
	), false, handleLogEmail)

	add(s, sc, mcp.NewTool("crm_create_task",
		withEmailParams(
			mcp.WithDescription("Create a task (activity) from a mail item"),
			mcp.WithString("taskSubject", mcp.Description("Task subject (default: 'Email: <subject>')")),
			mcp.WithString("description", mcp.Description("Task description (default: summary of the email)")),
			mcp.WithString("status", mcp.Description("Task status (default: Completed)")),
			mcp.WithString("priority", mcp.Description("Task priority (default: Normal)")),
			mcp.WithString("dueDate", mcp.Description("Due date, YYYY-MM-DD or RFC 3339 (default: the email date)")),
			mcp.WithString("ownerId", mcp.Description("Owner user id")),
			mcp.WithString("relatedRecordId", mcp.Description("Id of the contact, lead, account or opportunity")),
			mcp.WithString("relatedRecordType", mcp.Description("Type of relatedRecordId; inferred from the id when omitted")),
		)...,
	), false, handleCreateTask)

	add(s, sc, mcp.NewTool("crm_create_contact",
		mcp.WithDescription("Create a CRM contact"),
		mcp.WithString("lastName", mcp.Required(), mcp.Description("Last name")),
		mcp.WithString("firstName", mcp.Description("First name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number")),
		mcp.WithString("title", mcp.Description("Job title")),
		mcp.WithString("accountId", mcp.Description("Account id")),
	), false, handleCreateContact)

	add(s, sc, mcp.NewTool("crm_create_lead",
		mcp.WithDescription("Create a CRM lead"),
		mcp.WithString("lastName", mcp.Required(), mcp.Description("Last name")),
		mcp.WithString("company", mcp.Required(), mcp.Description("Company")),
		mcp.WithString("firstName", mcp.Description("First name")),
		mcp.WithString("email", mcp.Description("Email address")),
		mcp.WithString("phone", mcp.Description("Phone number")),
		mcp.WithString("title", mcp.Description("Job title")),
	), false, handleCreateLead)

	add(s, sc, mcp.NewTool("crm_update_record",
		mcp.WithDescription("Update fields on a CRM record"),
		mcp.WithString("objectType", mcp.Required(), mcp.Description("Object type")),
		mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
		mcp.WithObject("fields", mcp.Required(), mcp.Description("Field names and new values")),
	), false, handleUpdateRecord)

	add(s, sc, mcp.NewTool("crm_delete_record",
		mcp.WithDescription("Delete one or more CRM records"),
		mcp.WithString("objectType", mcp.Required(), mcp.Description("Object type")),
		mcp.WithArray("ids", mcp.Required(), mcp.Description("Record id or array of record ids")),
	), false, handleDeleteRecord)
}
