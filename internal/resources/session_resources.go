package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcrm/internal/server"
)

const (
	SessionURI    = "crm://session"
	ConnectionURI = "crm://connection"
)

// sessionInfo is the crm://session payload.
type sessionInfo struct {
	State           string `json:"state"`
	GmailConfigured bool   `json:"gmail_configured"`
	Description     string `json:"description"`
}

// RegisterSessionResources registers the CRM session resources.
func RegisterSessionResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sessionResource := mcp.NewResource(
		SessionURI,
		"CRM Session",
		mcp.WithResourceDescription("Sign-in state of the CRM session used by the tools"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(sessionResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSession(ctx, request, sc)
	})

	connectionResource := mcp.NewResource(
		ConnectionURI,
		"CRM Connection",
		mcp.WithResourceDescription("The CRM user and organization behind the current session"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(connectionResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleConnection(ctx, request, sc)
	})

	return nil
}

func handleSession(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sessionInfo{
		State:           sc.AuthState().String(),
		GmailConfigured: sc.GmailConfigured(),
		Description:     "Run 'inboxcrm login' when the state is unauthenticated",
	})
}

// handleConnection calls the CRM; a failed check is reported in the payload.
func handleConnection(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, sc.CRM().TestConnection(ctx))
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonData),
		},
	}, nil
}
