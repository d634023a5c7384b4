// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes PlanInsta tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/parser"
	"github.com/starford/planinsta/internal/planservice"
	"github.com/starford/planinsta/internal/seed"
)

const sectionFormatURI = "planinsta://section-format"

// Server wraps the MCP server with PlanInsta tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *planservice.Service
	tier access.Tier
}

// New creates a new MCP server with all PlanInsta tools registered. Tool
// calls run with the given access tier.
func New(svc *planservice.Service, tier access.Tier) *Server {
	s := &Server{svc: svc, tier: tier}

	s.mcp = server.NewMCPServer(
		"PlanInsta",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_plans",
		mcp.WithDescription("List stored business plans, most recently updated first."),
		mcp.WithString("query", mcp.Description("Optional filter on plan or company name")),
	), s.listPlans)

	s.mcp.AddTool(mcp.NewTool("get_plan",
		mcp.WithDescription("Read a business plan with its sections."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
	), s.getPlan)

	s.mcp.AddTool(mcp.NewTool("import_plan",
		mcp.WithDescription("Store a new business plan from Markdown. "+
			"Content MUST follow the section format; read it first via the "+
			"get_section_format tool or the planinsta://section-format resource."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Plan Markdown, optionally with YAML frontmatter")),
		mcp.WithString("name", mcp.Description("Plan name (overrides frontmatter)")),
	), s.importPlan)

	s.mcp.AddTool(mcp.NewTool("parse_markdown",
		mcp.WithDescription("Split Markdown into plan sections without storing anything."),
		mcp.WithString("markdown", mcp.Required(), mcp.Description("Markdown text")),
	), s.parseMarkdown)

	s.mcp.AddTool(mcp.NewTool("export_plan",
		mcp.WithDescription("Render a plan as markdown, html, or json."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Plan ID")),
		mcp.WithString("format", mcp.Description("markdown (default), html, or json")),
	), s.exportPlan)

	s.mcp.AddTool(mcp.NewTool("list_industries",
		mcp.WithDescription("List industry templates with their suggested form inputs."),
	), s.listIndustries)

	s.mcp.AddTool(mcp.NewTool("list_languages",
		mcp.WithDescription("List languages a plan can be translated into."),
	), s.listLanguages)

	s.mcp.AddTool(mcp.NewTool("get_section_format",
		mcp.WithDescription("Returns the plan section format contract. "+
			"Call this before writing plan Markdown for import."),
	), s.getSectionFormat)

	// Resource: section format contract.
	s.mcp.AddResource(
		mcp.NewResource(sectionFormatURI, "Section Format Contract",
			mcp.WithResourceDescription("How plan Markdown is split into sections."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSectionFormatResource,
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

func (s *Server) ctx(ctx context.Context) context.Context {
	return access.WithTier(ctx, s.tier)
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func (s *Server) listPlans(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := ""
	if q, err := req.RequireString("query"); err == nil {
		query = q
	}
	plans, err := s.svc.List(s.ctx(ctx), query)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(plans) == 0 {
		return mcp.NewToolResultText("no plans found"), nil
	}
	lines := make([]string, len(plans))
	for i, p := range plans {
		lines[i] = fmt.Sprintf("%s\t%s\t%s", p.ID, p.Name, p.Language)
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) getPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := s.svc.Open(s.ctx(ctx), id)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("not found: %s", id)), nil
	}
	return jsonResult(v), nil
}

func (s *Server) importPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in := planservice.ImportInput{Markdown: markdown}
	if name, err := req.RequireString("name"); err == nil {
		in.Name = name
	}
	p, err := s.svc.Import(s.ctx(ctx), in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s (%d sections)", p.ID, len(p.Sections))), nil
}

func (s *Server) parseMarkdown(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	markdown, err := req.RequireString("markdown")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(parser.ParseSections(markdown)), nil
}

func (s *Server) exportPlan(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	format := ""
	if f, err := req.RequireString("format"); err == nil {
		format = f
	}
	a, err := s.svc.Export(s.ctx(ctx), id, format)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(a.Body)), nil
}

func (s *Server) listIndustries(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(seed.Industries()), nil
}

func (s *Server) listLanguages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(seed.Languages()), nil
}

func (s *Server) getSectionFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SectionFormatContract), nil
}

func (s *Server) readSectionFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      sectionFormatURI,
			MIMEType: "text/markdown",
			Text:     SectionFormatContract,
		},
	}, nil
}
