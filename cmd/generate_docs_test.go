package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateToolMarkdownWithoutArguments(t *testing.T) {
	md := generateToolMarkdown(mcp.NewTool("crm_test_connection", mcp.WithDescription("Check")), false)

	assert.Equal(t, "### crm_test_connection (write)\n\nCheck\n\n", md)
}

func TestGetCategoryFromToolName(t *testing.T) {
	assert.Equal(t, "CRM Tools", getCategoryFromToolName("crm_search"))
	assert.Equal(t, "Other", getCategoryFromToolName("ping"))
}

func TestGenerateToolMarkdown(t *testing.T) {
	tool := mcp.NewTool("crm_get_record",
		mcp.WithDescription("Get a record"),
		mcp.WithString("objectType", mcp.Required(), mcp.Description("Object type")),
		mcp.WithString("fields", mcp.Description("Fields a|b")),
		mcp.WithArray("ids"),
	)

	md := generateToolMarkdown(tool, true)

	assert.Contains(t, md, "### crm_get_record (read)")
	assert.Contains(t, md, "Get a record")
	assert.Contains(t, md, "| `objectType` | string | yes | Object type |")
	assert.Contains(t, md, "| `fields` | string | no | Fields a\\|b |")
	assert.Contains(t, md, "| `ids` | array | no |  |")
	assert.Less(t, strings.Index(md, "`objectType`"), strings.Index(md, "`fields`"), "required arguments come first")
	assert.Less(t, strings.Index(md, "`fields`"), strings.Index(md, "`ids`"))
}

func TestRunGenerateDocs(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runGenerateDocs(&buf, ""))

	md := buf.String()
	assert.Contains(t, md, "# MCP Tools Reference")
	assert.Contains(t, md, "- [CRM Tools](#crm-tools)")
	assert.Contains(t, md, "### crm_search (read)")
	assert.Contains(t, md, "### crm_find_related (read)")
	assert.Contains(t, md, "### crm_log_email (write)")
	assert.Contains(t, md, "### crm_delete_record (write)")
	assert.NotContains(t, md, "Multi-Account")
}
