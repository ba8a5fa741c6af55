package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

func importTool() mcp.Tool {
	return mcp.NewTool("import",
		mcp.WithDescription("Resolve the variable under the cursor to a single JS/TS module and inject an import statement for it"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path to the file being edited")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Current full content of the file")),
		mcp.WithString("word", mcp.Required(), mcp.Description("The variable name under the cursor")),
		mcp.WithNumber("row", mcp.Description("1-based cursor row, used to compute the post-edit cursor position")),
		mcp.WithNumber("col", mcp.Description("0-based cursor column, passed through unchanged")),
	)
}

func gotoTool() mcp.Tool {
	return mcp.NewTool("goto_module",
		mcp.WithDescription("Resolve the variable under the cursor to its backing module and return the file to open"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path to the file being edited")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Current full content of the file")),
		mcp.WithString("word", mcp.Required(), mcp.Description("The variable name under the cursor")),
	)
}

func fixImportsTool() mcp.Tool {
	return mcp.NewTool("fix_imports",
		mcp.WithDescription("Run the configured linter over the file, remove unused imports, and inject imports for undefined variables"),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Absolute path to the file being edited")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Current full content of the file")),
		mcp.WithNumber("row", mcp.Description("1-based cursor row, used to compute the post-edit cursor position")),
		mcp.WithNumber("col", mcp.Description("0-based cursor column, passed through unchanged")),
	)
}
