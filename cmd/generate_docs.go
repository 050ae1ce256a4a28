package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxcrm/internal/crm"
	"github.com/teemow/inboxcrm/internal/server"
	"github.com/teemow/inboxcrm/internal/tools/crm_tools"
)

func newGenerateDocsCmd() *cobra.Command {
	var (
		outputFile string
	)

	cmd := &cobra.Command{
		Use:   "generate-docs",
		Short: "Generate MCP tool documentation",
		Long: `Generate markdown documentation for all available MCP tools.
This command introspects the registered tools and outputs their documentation
in markdown format, ensuring the documentation is always accurate and in sync
with the actual tool implementations.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerateDocs(cmd.OutOrStdout(), outputFile)
		},
	}

	cmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file (default: stdout)")

	return cmd
}

// offlineDoer rejects every request; documentation never calls the CRM.
type offlineDoer struct{}

func (offlineDoer) Do(context.Context, string, string, any, any) error {
	return errors.New("the CRM is not available while generating documentation")
}

// registeredTools returns the tools a server exposes in the given mode.
func registeredTools(readOnly bool) ([]mcp.Tool, error) {
	serverContext, err := server.NewServerContext(context.Background(), server.Options{
		Client: crm.NewClient(offlineDoer{}, slog.Default()),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	defer func() {
		_ = serverContext.Shutdown()
	}()

	mcpSrv := mcpserver.NewMCPServer("inboxcrm", version,
		mcpserver.WithToolCapabilities(true),
	)
	if err := crm_tools.RegisterCRMTools(mcpSrv, serverContext, readOnly); err != nil {
		return nil, fmt.Errorf("failed to register CRM tools: %w", err)
	}

	serverTools := mcpSrv.ListTools()
	tools := make([]mcp.Tool, 0, len(serverTools))
	for _, serverTool := range serverTools {
		tools = append(tools, serverTool.Tool)
	}
	return tools, nil
}

func runGenerateDocs(w io.Writer, outputFile string) error {
	tools, err := registeredTools(false)
	if err != nil {
		return err
	}
	readTools, err := registeredTools(true)
	if err != nil {
		return err
	}
	readOnly := make(map[string]bool, len(readTools))
	for _, t := range readTools {
		readOnly[t.Name] = true
	}

	markdown := generateToolsMarkdown(tools, readOnly)

	if outputFile != "" {
		if err := os.WriteFile(outputFile, []byte(markdown), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Documentation written to: %s\n", outputFile)
		return nil
	}
	_, err = io.WriteString(w, markdown)
	return err
}

func generateToolsMarkdown(tools []mcp.Tool, readOnly map[string]bool) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# MCP Tools Reference\n\n")
	sb.WriteString("This document provides a complete reference of all tools available when running inboxcrm as an MCP server.\n\n")
	sb.WriteString("**Note:** This documentation is automatically generated from the tool definitions.\n\n")

	// Group tools by category
	toolsByCategory := groupToolsByCategory(tools)

	// Table of contents
	sb.WriteString("## Table of Contents\n\n")
	categories := make([]string, 0, len(toolsByCategory))
	for category := range toolsByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		anchor := strings.ToLower(strings.ReplaceAll(category, " ", "-"))
		sb.WriteString(fmt.Sprintf("- [%s](#%s)\n", category, anchor))
	}
	sb.WriteString("\n")

	sb.WriteString("## Safety Mode\n\n")
	sb.WriteString("The server starts in read-only mode. Tools marked **write** are only registered with `inboxcrm serve --yolo`.\n\n")
	sb.WriteString("Every tool uses the CRM session stored by `inboxcrm login`. When the session is missing or expires, tools answer with a sign-in hint instead of CRM data.\n\n")

	// Generate documentation for each category
	for _, category := range categories {
		categoryTools := toolsByCategory[category]
		sort.Slice(categoryTools, func(i, j int) bool {
			return categoryTools[i].Name < categoryTools[j].Name
		})

		sb.WriteString(fmt.Sprintf("## %s\n\n", category))

		for _, tool := range categoryTools {
			sb.WriteString(generateToolMarkdown(tool, readOnly[tool.Name]))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}

func groupToolsByCategory(tools []mcp.Tool) map[string][]mcp.Tool {
	categories := make(map[string][]mcp.Tool)

	for _, tool := range tools {
		category := getCategoryFromToolName(tool.Name)
		categories[category] = append(categories[category], tool)
	}

	return categories
}

func getCategoryFromToolName(name string) string {
	parts := strings.Split(name, "_")
	if len(parts) == 0 {
		return "Other"
	}

	prefix := parts[0]
	switch prefix {
	case "crm":
		return "CRM Tools"
	default:
		return "Other"
	}
}

// generateToolMarkdown renders one tool with its arguments as a table,
// required arguments first.
func generateToolMarkdown(tool mcp.Tool, readOnly bool) string {
	var sb strings.Builder

	mode := "read"
	if !readOnly {
		mode = "write"
	}
	fmt.Fprintf(&sb, "### %s (%s)\n\n", tool.Name, mode)
	if tool.Description != "" {
		fmt.Fprintf(&sb, "%s\n\n", tool.Description)
	}

	args := toolArguments(tool)
	if len(args) == 0 {
		return sb.String()
	}

	sb.WriteString("| Argument | Type | Required | Description |\n")
	sb.WriteString("|----------|------|----------|-------------|\n")
	for _, a := range args {
		required := "no"
		if a.required {
			required = "yes"
		}
		fmt.Fprintf(&sb, "| `%s` | %s | %s | %s |\n", a.name, a.typ, required, a.description)
	}
	sb.WriteString("\n")
	return sb.String()
}

type toolArgument struct {
	name        string
	typ         string
	required    bool
	description string
}

func toolArguments(tool mcp.Tool) []toolArgument {
	args := make([]toolArgument, 0, len(tool.InputSchema.Properties))
	for name, prop := range tool.InputSchema.Properties {
		propMap, ok := prop.(map[string]any)
		if !ok {
			continue
		}
		a := toolArgument{
			name:     name,
			typ:      getPropertyType(propMap),
			required: slices.Contains(tool.InputSchema.Required, name),
		}
		if desc, ok := propMap["description"].(string); ok {
			a.description = strings.ReplaceAll(desc, "|", "\\|")
		}
		args = append(args, a)
	}
	sort.Slice(args, func(i, j int) bool {
		if args[i].required != args[j].required {
			return args[i].required
		}
		return args[i].name < args[j].name
	})
	return args
}

func getPropertyType(prop map[string]any) string {
	if t, ok := prop["type"].(string); ok {
		return t
	}
	return "any"
}
