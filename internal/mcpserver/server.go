// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes Folio documents and the block editor as tools for LLM
// integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/folio/internal/apperr"
	"github.com/starford/folio/internal/block"
	"github.com/starford/folio/internal/docservice"
	"github.com/starford/folio/internal/editor"
	"github.com/starford/folio/internal/index"
	"github.com/starford/folio/internal/models"
)

const contractURI = "folio://block-format"

// Server wraps the MCP server with Folio tools.
type Server struct {
	mcp *server.MCPServer
	svc *docservice.Service
}

// New creates a new MCP server with all Folio tools registered.
func New(svc *docservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"Folio",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_projects",
		mcp.WithDescription("List projects, newest first."),
		mcp.WithBoolean("featured", mcp.Description("Only featured projects")),
		mcp.WithNumber("limit", mcp.Description("Maximum number of projects (default 50)")),
	), mcp.NewTypedToolHandler(s.listProjects))

	s.mcp.AddTool(mcp.NewTool("read_project",
		mcp.WithDescription("Read a project with its block document and checksum."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug")),
	), s.readProject)

	s.mcp.AddTool(mcp.NewTool("render_project",
		mcp.WithDescription("Render a project to HTML with its table of contents and reading time."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug")),
	), s.renderProject)

	s.mcp.AddTool(mcp.NewTool("get_toc",
		mcp.WithDescription("Table of contents of a project: heading anchors, titles and levels."),
		mcp.WithString("slug", mcp.Required(), mcp.Description("Project slug")),
	), s.getTOC)

	s.mcp.AddTool(mcp.NewTool("search_projects",
		mcp.WithDescription("Full-text search through project titles and block text."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchProjects)

	s.mcp.AddTool(mcp.NewTool("find_references",
		mcp.WithDescription("Find the blocks in any project that point at a url or asset."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Referenced url, e.g. /assets/cover-1700000000000.png")),
	), s.findReferences)

	s.mcp.AddTool(mcp.NewTool("create_project",
		mcp.WithDescription("Create an empty project. Add content with add_block. "+
			"Read the block contract first via get_block_contract or the "+contractURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Project title")),
		mcp.WithString("slug", mcp.Description("Slug; derived from the title when empty")),
		mcp.WithString("excerpt", mcp.Description("Short summary shown in listings")),
	), s.createProject)

	s.registerEditTools()

	s.mcp.AddTool(mcp.NewTool("upload_asset",
		mcp.WithDescription("Download an image from an http(s) URL or decode a base64 data URI and store it. "+
			"Returns the url to use in an image block."),
		mcp.WithString("url", mcp.Required(), mcp.Description("http(s) URL or data:image/...;base64,... URI")),
		mcp.WithString("filename", mcp.Description("Optional file name or stem, e.g. the project slug")),
	), s.uploadAsset)

	s.mcp.AddTool(mcp.NewTool("get_block_contract",
		mcp.WithDescription("Returns the Folio block format contract. "+
			"Call this before editing documents to ensure correct structure."),
	), s.getBlockContract)

	// Resource: block format contract.
	s.mcp.AddResource(
		mcp.NewResource(contractURI, "Block Format Contract",
			mcp.WithResourceDescription("Stored JSON format of project blocks and the editing rules."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readBlockFormatResource,
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

func toolError(err error) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError("not found: " + err.Error())
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError("checksum mismatch, re-read the project: " + err.Error())
	}
	return mcp.NewToolResultError(err.Error())
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

type listArgs struct {
	Featured bool `json:"featured"`
	Limit    int  `json:"limit"`
}

func (s *Server) listProjects(ctx context.Context, _ mcp.CallToolRequest, args listArgs) (*mcp.CallToolResult, error) {
	if args.Limit <= 0 {
		args.Limit = 50
	}
	items, total, err := s.svc.ListDocuments(ctx, index.ListOptions{FeaturedOnly: args.Featured, Limit: args.Limit})
	if err != nil {
		return toolError(err), nil
	}
	if items == nil {
		items = []models.ProjectSummary{}
	}
	return jsonResult(map[string]any{"projects": items, "total": total})
}

type projectView struct {
	*models.Project
	Checksum    string `json:"checksum"`
	ReadingTime int    `json:"reading_time"`
}

func view(p *models.Project) projectView {
	return projectView{Project: p, Checksum: p.Checksum, ReadingTime: p.Minutes()}
}

func (s *Server) readProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.LoadDocument(ctx, slug)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(view(p))
}

func (s *Server) renderProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	a, err := s.svc.Article(ctx, slug)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(a)
}

func (s *Server) getTOC(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	slug, err := req.RequireString("slug")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items, err := s.svc.TOC(ctx, slug)
	if err != nil {
		return toolError(err), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no headings"), nil
	}
	return jsonResult(items)
}

func (s *Server) searchProjects(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(results)
}

func (s *Server) findReferences(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	u, err := req.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	refs, err := s.svc.References(ctx, u)
	if err != nil {
		return toolError(err), nil
	}
	if len(refs) == 0 {
		return mcp.NewToolResultText("no references found"), nil
	}
	return jsonResult(refs)
}

func (s *Server) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := s.svc.CreateDocument(ctx, models.Project{
		Slug:    req.GetString("slug", ""),
		Title:   title,
		Excerpt: req.GetString("excerpt", ""),
		Content: block.Document{},
	})
	if err != nil {
		return toolError(err), nil
	}
	return jsonResult(view(p))
}

// getBlockContract returns the contract text followed by the editor's option
// lists as JSON.
func (s *Server) getBlockContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	opts, err := json.MarshalIndent(catalog(), "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return &mcp.CallToolResult{Content: []mcp.Content{
		mcp.NewTextContent(BlockFormatContract),
		mcp.NewTextContent(string(opts)),
	}}, nil
}

func (s *Server) readBlockFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      contractURI,
			MIMEType: "text/markdown",
			Text:     BlockFormatContract,
		},
	}, nil
}

func catalog() map[string]any {
	return map[string]any{
		"blockTypes": editor.BlockTypes(),
		"languages":  editor.Languages,
		"listKinds":  editor.ListKinds,
	}
}
