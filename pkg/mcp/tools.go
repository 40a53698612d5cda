package mcp

import "github.com/mark3labs/mcp-go/mcp"

// rootParam lets a call analyze a project other than the server's default.
func rootParam() mcp.ToolOption {
	return mcp.WithString("root",
		mcp.Description("Project root directory. Defaults to the directory the server was started in."),
	)
}

func discoverRoutesTool() mcp.Tool {
	return mcp.NewTool("discover_routes",
		mcp.WithDescription("List page, layout and middleware files of the App and Pages routers with their URLs, dynamic segments and route groups. Reads no file content."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func discoverStrategiesTool() mcp.Tool {
	return mcp.NewTool("discover_strategies",
		mcp.WithDescription("Classify every route file as SSG, ISR or SSR with the rationale and detected features behind each decision. Files that fail to parse are listed as skipped."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func discoverAPIRoutesTool() mcp.Tool {
	return mcp.NewTool("discover_api_routes",
		mcp.WithDescription("List API handlers (app route.ts files and pages/api) with their endpoint and exported HTTP methods."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func discoverAssetsTool() mcp.Tool {
	return mcp.NewTool("discover_assets",
		mcp.WithDescription("List public files and app metadata files (icons, sitemap, robots, Open Graph images) with their served URL."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func discoverEnvTool() mcp.Tool {
	return mcp.NewTool("discover_env",
		mcp.WithDescription("Read the .env files at the project root and in src/."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func updateEnvTool() mcp.Tool {
	return mcp.NewTool("update_env",
		mcp.WithDescription("Merge key/value pairs into an existing .env file. Existing keys not named are kept."),
		mcp.WithString("file",
			mcp.Required(),
			mcp.Description("Env file path relative to the project root, e.g. .env.local"),
		),
		mcp.WithObject("updates",
			mcp.Required(),
			mcp.Description("Map of variable names to new values"),
		),
		rootParam(),
	)
}

func analyzeFileTool() mcp.Tool {
	return mcp.NewTool("analyze_file",
		mcp.WithDescription("Analyze a single file: strategy, rationale, detected features, route info or handler methods, and imports."),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("File path, relative to the project root or absolute"),
		),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func readPackageJSONTool() mcp.Tool {
	return mcp.NewTool("read_package_json",
		mcp.WithDescription("Return the project's package.json."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

func projectSnapshotTool() mcp.Tool {
	return mcp.NewTool("project_snapshot",
		mcp.WithDescription("Run every discovery at once: routes, strategies, API routes, assets, env files and package.json."),
		rootParam(),
		mcp.WithReadOnlyHintAnnotation(true),
	)
}

// RegisteredTools returns the MCP tool definitions.
func RegisteredTools() []mcp.Tool {
	return []mcp.Tool{
		discoverRoutesTool(),
		discoverStrategiesTool(),
		discoverAPIRoutesTool(),
		discoverAssetsTool(),
		discoverEnvTool(),
		updateEnvTool(),
		analyzeFileTool(),
		readPackageJSONTool(),
		projectSnapshotTool(),
	}
}
