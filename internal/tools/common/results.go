package common

import (
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxcrm/internal/crm/api"
)

// ReauthMessage is shown whenever the CRM session is missing or can no longer
// be renewed.
const ReauthMessage = "Your CRM session has expired or you are not signed in. Run 'inboxcrm login' and try again."

// ErrorResult reports err as a tool error. Errors that need a new sign-in
// produce ReauthMessage instead of the underlying detail.
func ErrorResult(action string, err error) *mcp.CallToolResult {
	if api.IsReauthRequired(err) {
		return mcp.NewToolResultError(ReauthMessage)
	}
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

// JSONResult renders v as indented JSON text.
func JSONResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
