package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("history_list",
	mcp.WithDescription("List detection history, pinned records first, then newest first. Returns summaries; use history_fetch for full records."),
	mcp.WithString("kind", mcp.Description("Only list this kind of detection"), mcp.Enum("growth", "disease")),
	mcp.WithNumber("limit", mcp.Description("Maximum records to return (default 20, max 100)")),
	mcp.WithNumber("offset", mcp.Description("Number of records to skip")),
)

var fetchToolDef = mcp.NewTool("history_fetch",
	mcp.WithDescription("Fetch one detection record by id, with its display title and days until harvest."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	mcp.WithBoolean("include_care", mcp.Description("Also return the rendered care sheet")),
)

var labelToolDef = mcp.NewTool("history_label",
	mcp.WithDescription("Set the user label of a record. A blank label resets it to \"No Label\"."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
	mcp.WithString("label", mcp.Description("New label")),
)

var pinToolDef = mcp.NewTool("history_pin",
	mcp.WithDescription("Toggle the pin state of a record. Pinned records list first, most recently pinned on top."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
)

var deleteToolDef = mcp.NewTool("history_delete",
	mcp.WithDescription("Delete one record. Deleting an unknown id is not an error."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Record id")),
)

var bulkDeleteToolDef = mcp.NewTool("history_bulk_delete",
	mcp.WithDescription("Delete several records by id. Unknown ids are ignored."),
	mcp.WithArray("ids", mcp.Required(), mcp.Description("Record ids"), mcp.Items(map[string]any{"type": "string"})),
)

var cleanupToolDef = mcp.NewTool("history_cleanup",
	mcp.WithDescription("Remove records older than the retention window."),
	mcp.WithString("retention", mcp.Description("Window such as 3m, 90d, 12w or 1y (default: configured retention)")),
)

var exportToolDef = mcp.NewTool("history_export",
	mcp.WithDescription("Export history to a JSONL file."),
	mcp.WithString("path", mcp.Description("Output file (default: <home>/exports/history-<timestamp>.jsonl)")),
	mcp.WithString("kind", mcp.Description("Only export this kind"), mcp.Enum("growth", "disease")),
)

var importToolDef = mcp.NewTool("history_import",
	mcp.WithDescription("Import records from a JSONL export file."),
	mcp.WithString("path", mcp.Required(), mcp.Description("Export file to read")),
	mcp.WithString("mode", mcp.Description("Id collision handling (default: error)"), mcp.Enum("error", "replace", "skip")),
)

var detectToolDef = mcp.NewTool("history_detect",
	mcp.WithDescription("Classify a lettuce photo and save the result to history."),
	mcp.WithString("kind", mcp.Required(), mcp.Description("Detection kind"), mcp.Enum("growth", "disease")),
	mcp.WithString("image_path", mcp.Required(), mcp.Description("Local image file")),
	mcp.WithString("label", mcp.Description("Optional label for the new record")),
)

var articlesToolDef = mcp.NewTool("articles_list",
	mcp.WithDescription("List lettuce care articles with plain-text summaries."),
	mcp.WithNumber("limit", mcp.Description("Maximum articles to return")),
)
