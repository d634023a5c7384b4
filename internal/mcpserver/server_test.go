package mcpserver

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/planinsta/internal/access"
	"github.com/starford/planinsta/internal/gateway"
	"github.com/starford/planinsta/internal/models"
	"github.com/starford/planinsta/internal/planservice"
	"github.com/starford/planinsta/internal/testutil"
)

func testServer(t *testing.T, tier access.Tier) *Server {
	t.Helper()
	enf, err := access.NewEnforcer()
	if err != nil {
		t.Fatal(err)
	}
	svc := planservice.New(testutil.TestStore(t), gateway.New(gateway.Config{}, nil), enf, nil, nil)
	return New(svc, tier)
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so we call the handlers.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_plans":
		result, err = srv.listPlans(ctx, req)
	case "get_plan":
		result, err = srv.getPlan(ctx, req)
	case "import_plan":
		result, err = srv.importPlan(ctx, req)
	case "parse_markdown":
		result, err = srv.parseMarkdown(ctx, req)
	case "export_plan":
		result, err = srv.exportPlan(ctx, req)
	case "list_industries":
		result, err = srv.listIndustries(ctx, req)
	case "list_languages":
		result, err = srv.listLanguages(ctx, req)
	case "get_section_format":
		result, err = srv.getSectionFormat(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func TestImportListAndGetPlan(t *testing.T) {
	srv := testServer(t, access.TierPaid)

	r := callTool(t, srv, "import_plan", map[string]interface{}{
		"markdown": "---\nname: Rocket Plan\n---\n\n## Summary\n\nTo the moon.\n\n## Market\n\nEveryone.",
	})
	text := resultText(r)
	if r.IsError || !strings.HasPrefix(text, "created: ") || !strings.Contains(text, "(2 sections)") {
		t.Fatalf("import result = %q", text)
	}
	id := strings.Fields(strings.TrimPrefix(text, "created: "))[0]

	r = callTool(t, srv, "list_plans", map[string]interface{}{})
	if !strings.Contains(resultText(r), "Rocket Plan") {
		t.Errorf("list = %q", resultText(r))
	}

	r = callTool(t, srv, "get_plan", map[string]interface{}{"id": id})
	var view planservice.View
	if err := json.Unmarshal([]byte(resultText(r)), &view); err != nil {
		t.Fatal(err)
	}
	if view.Plan.Name != "Rocket Plan" || len(view.Plan.Sections) != 2 {
		t.Errorf("plan = %+v", view.Plan)
	}
}

func TestGetPlanMissing(t *testing.T) {
	srv := testServer(t, access.TierPaid)
	r := callTool(t, srv, "get_plan", map[string]interface{}{"id": "nope"})
	if !r.IsError {
		t.Error("expected error for missing plan")
	}
}

func TestListPlansEmpty(t *testing.T) {
	srv := testServer(t, access.TierPaid)
	r := callTool(t, srv, "list_plans", map[string]interface{}{"query": "zzz"})
	if resultText(r) != "no plans found" {
		t.Errorf("list = %q", resultText(r))
	}
}

func TestParseMarkdown(t *testing.T) {
	srv := testServer(t, access.TierFree)
	r := callTool(t, srv, "parse_markdown", map[string]interface{}{"markdown": "just text"})
	var sections []models.PlanSection
	if err := json.Unmarshal([]byte(resultText(r)), &sections); err != nil {
		t.Fatal(err)
	}
	if len(sections) != 1 || sections[0].Title != "Business Plan Overview" {
		t.Errorf("sections = %+v", sections)
	}
}

func TestExportPlan_TierGated(t *testing.T) {
	paid := testServer(t, access.TierPaid)
	r := callTool(t, paid, "import_plan", map[string]interface{}{"markdown": "## A\n\nb", "name": "Export Me"})
	id := strings.Fields(strings.TrimPrefix(resultText(r), "created: "))[0]

	r = callTool(t, paid, "export_plan", map[string]interface{}{"id": id, "format": "markdown"})
	if r.IsError || !strings.Contains(resultText(r), "name: Export Me") {
		t.Errorf("export = %q", resultText(r))
	}

	free := New(paid.svc, access.TierFree)
	r = callTool(t, free, "export_plan", map[string]interface{}{"id": id})
	if !r.IsError {
		t.Error("free tier export should fail")
	}
}

func TestSeedTools(t *testing.T) {
	srv := testServer(t, access.TierFree)
	if !strings.Contains(resultText(callTool(t, srv, "list_industries", nil)), "tech_startup") {
		t.Error("industries missing tech_startup")
	}
	if !strings.Contains(resultText(callTool(t, srv, "list_languages", nil)), `"code": "ja"`) {
		t.Error("languages missing ja")
	}
	if !strings.Contains(resultText(callTool(t, srv, "get_section_format", nil)), "Business Plan Overview") {
		t.Error("section format contract incomplete")
	}
}
