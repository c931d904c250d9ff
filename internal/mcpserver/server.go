// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the knowledge base and bookmark actions for LLM integration
// via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/kbhost/internal/host"
)

const contractURI = "kbhost://bookmark-format"

// Server wraps the MCP server. Every tool is answered by the same dispatcher
// the native host uses.
type Server struct {
	mcp  *server.MCPServer
	host *host.Server
}

// New creates a new MCP server with all tools registered.
func New(h *host.Server, version string) *Server {
	s := &Server{host: h}

	s.mcp = server.NewMCPServer(
		"kbhost",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("read_kb",
		mcp.WithDescription("Read the YAML knowledge base and return it as JSON. A missing file yields an empty skeleton."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the knowledge base YAML file (~ is expanded)")),
	), s.readKB)

	s.mcp.AddTool(mcp.NewTool("test_kb",
		mcp.WithDescription("Check whether the knowledge base file and its directory exist and are readable and writable."),
		mcp.WithString("file_path", mcp.Required(), mcp.Description("Path to the knowledge base YAML file")),
	), s.testKB)

	s.mcp.AddTool(mcp.NewTool("create_bookmark",
		mcp.WithDescription("Create a bookmark folder with meta.yaml, assets/content.md and the retrieval symlink. "+
			"Read the contract first via the get_bookmark_contract tool or the "+contractURI+" resource."),
		mcp.WithString("base_dir", mcp.Required(), mcp.Description("Directory that holds bookmark folders")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Folder name for the new bookmark")),
		mcp.WithString("meta_yaml", mcp.Required(), mcp.Description("meta.yaml text; SHA256_PLACEHOLDER is replaced by the content digest")),
		mcp.WithString("content_md", mcp.Required(), mcp.Description("Markdown content of the bookmark")),
	), s.createBookmark)

	s.mcp.AddTool(mcp.NewTool("check_bookmark",
		mcp.WithDescription("Report whether a bookmark folder already exists."),
		mcp.WithString("base_dir", mcp.Required(), mcp.Description("Directory that holds bookmark folders")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Bookmark folder name")),
	), s.checkBookmark)

	s.mcp.AddTool(mcp.NewTool("verify_bookmark",
		mcp.WithDescription("Recompute a bookmark's content digest and compare it with meta.yaml; check the retrieval symlink."),
		mcp.WithString("base_dir", mcp.Required(), mcp.Description("Directory that holds bookmark folders")),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Bookmark folder name")),
	), s.verifyBookmark)

	s.mcp.AddTool(mcp.NewTool("search_bookmarks",
		mcp.WithDescription("Full-text search through catalogued bookmarks."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of results (default 20)")),
	), s.searchBookmarks)

	s.mcp.AddTool(mcp.NewTool("list_bookmarks",
		mcp.WithDescription("List catalogued bookmarks, newest first."),
		mcp.WithString("base_dir", mcp.Description("Optional base directory to restrict the listing")),
		mcp.WithNumber("limit", mcp.Description("Page size (default 20)")),
		mcp.WithNumber("offset", mcp.Description("Number of bookmarks to skip")),
	), s.listBookmarks)

	s.mcp.AddTool(mcp.NewTool("citing_bookmarks",
		mcp.WithDescription("List catalogued bookmarks whose content links to a URL."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Link target to look up")),
	), s.citingBookmarks)

	s.mcp.AddTool(mcp.NewTool("get_bookmark_contract",
		mcp.WithDescription("Returns the bookmark document format contract. "+
			"Call this before creating bookmarks to ensure correct structure."),
	), s.getBookmarkContract)

	// Resource: bookmark format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Bookmark Format Contract",
			mcp.WithResourceDescription("Folder layout and meta.yaml conventions every bookmark follows."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBookmarkFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// dispatch runs req through the host dispatcher and renders the outcome.
func (s *Server) dispatch(ctx context.Context, req *host.Request) *mcp.CallToolResult {
	resp := s.host.Handle(ctx, req)
	if !resp.Success && resp.Error != "" {
		return mcp.NewToolResultError(resp.Error)
	}
	var body any = resp
	if req.Action == host.ActionRead {
		body = resp.Data
	}
	out, err := json.MarshalIndent(body, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) readKB(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, &host.Request{Action: host.ActionRead, FilePath: path}), nil
}

func (s *Server) testKB(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, &host.Request{Action: host.ActionTest, FilePath: path}), nil
}

func (s *Server) createBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, &host.Request{
		Action:    host.ActionCreateBookmark,
		BaseDir:   req.GetString("base_dir", ""),
		Slug:      req.GetString("slug", ""),
		MetaYAML:  req.GetString("meta_yaml", ""),
		ContentMD: req.GetString("content_md", ""),
	}), nil
}

func (s *Server) checkBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, &host.Request{
		Action:  host.ActionCheckExists,
		BaseDir: req.GetString("base_dir", ""),
		Slug:    req.GetString("slug", ""),
	}), nil
}

func (s *Server) verifyBookmark(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, &host.Request{
		Action:  host.ActionVerifyBookmark,
		BaseDir: req.GetString("base_dir", ""),
		Slug:    req.GetString("slug", ""),
	}), nil
}

func (s *Server) searchBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, &host.Request{
		Action: host.ActionSearchBookmarks,
		Query:  query,
		Limit:  req.GetInt("limit", 0),
	}), nil
}

func (s *Server) listBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.dispatch(ctx, &host.Request{
		Action:  host.ActionListBookmarks,
		BaseDir: req.GetString("base_dir", ""),
		Limit:   req.GetInt("limit", 0),
		Offset:  req.GetInt("offset", 0),
	}), nil
}

func (s *Server) citingBookmarks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return s.dispatch(ctx, &host.Request{Action: host.ActionCitingBookmarks, URL: url}), nil
}

func (s *Server) getBookmarkContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(BookmarkFormatContract), nil
}

func (s *Server) readBookmarkFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     BookmarkFormatContract,
		},
	}, nil
}
