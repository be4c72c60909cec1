package mcpserver

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/testutil"
)

func testServer(t *testing.T) *Server {
	t.Helper()
	_, store := testutil.TestLibrary(t)
	svc := scoreservice.NewService(store, testutil.TestDB(t))
	return New(svc, geometry.Default())
}

func callTool(t *testing.T, srv *Server, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so handlers are called directly.
	handlers := map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"list_scores":      srv.listScores,
		"read_score":       srv.readScore,
		"search_scores":    srv.searchScores,
		"create_score":     srv.createScore,
		"encode_part":      srv.encodePart,
		"decode_path":      srv.decodePath,
		"get_geometry":     srv.getGeometry,
		"get_score_format": srv.getScoreFormat,
	}
	h, ok := handlers[name]
	if !ok {
		t.Fatalf("unknown tool: %s", name)
	}
	result, err := h(ctx, req)
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

func createEtude(t *testing.T, srv *Server, p string) {
	t.Helper()
	r := callTool(t, srv, "create_score", map[string]any{"path": p, "content": testutil.Etude})
	if r.IsError {
		t.Fatalf("create %s: %s", p, resultText(r))
	}
}

func TestCreateAndReadScore(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "create_score", map[string]any{"path": "etude.yaml", "content": testutil.Etude})
	if text := resultText(r); text != "created: etude.yaml" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_score", map[string]any{"path": "etude.yaml"})
	if text := resultText(r); text != testutil.Etude {
		t.Errorf("read result = %q", text)
	}

	r = callTool(t, srv, "create_score", map[string]any{"path": "etude.yaml", "content": testutil.Etude})
	if !r.IsError {
		t.Error("expected error for duplicate score")
	}
}

func TestCreateScoreInvalid(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "create_score", map[string]any{"path": "bad.yaml", "content": "parts: [{name: A, bogus: 1}]"})
	if !r.IsError {
		t.Error("expected error for unknown key")
	}
}

func TestListAndSearchScores(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "list_scores", map[string]any{})); text != "no scores found" {
		t.Errorf("empty list = %q", text)
	}

	createEtude(t, srv, "b.yaml")
	createEtude(t, srv, "a.yaml")

	text := resultText(callTool(t, srv, "list_scores", map[string]any{}))
	lines := strings.Split(text, "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "a.yaml\tEtude\t2 measures\tMelody, Bass") {
		t.Errorf("list = %q", text)
	}

	text = resultText(callTool(t, srv, "search_scores", map[string]any{"query": "Bass"}))
	if !strings.Contains(text, `"a.yaml"`) || !strings.Contains(text, `"b.yaml"`) {
		t.Errorf("search = %q", text)
	}
}

func TestReadScoreMissing(t *testing.T) {
	srv := testServer(t)
	r := callTool(t, srv, "read_score", map[string]any{"path": "nope.yaml"})
	if !r.IsError {
		t.Error("expected error for missing score")
	}
}

func TestEncodePart(t *testing.T) {
	srv := testServer(t)
	createEtude(t, srv, "etude.yaml")

	r := callTool(t, srv, "encode_part", map[string]any{"path": "etude.yaml", "part": 0, "measures": 1})
	if text := resultText(r); text != "M 87.5 650 H 332.5 M 337.5 900 H 457.5" {
		t.Errorf("encode = %q", text)
	}

	r = callTool(t, srv, "encode_part", map[string]any{"path": "etude.yaml", "part": 2})
	if !r.IsError {
		t.Error("expected error for missing part")
	}
}

func TestDecodePath(t *testing.T) {
	srv := testServer(t)

	r := callTool(t, srv, "decode_path", map[string]any{"d": "M 87.5 650 H 337.5"})
	if r.IsError {
		t.Fatalf("decode: %s", resultText(r))
	}
	text := resultText(r)
	for _, want := range []string{"kind: pitched", "duration: whole", "pitch: Bb4"} {
		if !strings.Contains(text, want) {
			t.Errorf("decode output missing %q:\n%s", want, text)
		}
	}

	r = callTool(t, srv, "decode_path", map[string]any{"d": "M 87.5 660 H 243.75 M 600 650 H 610"})
	if !r.IsError {
		t.Fatal("expected errors")
	}
	text = resultText(r)
	if n := len(strings.Split(text, "\n")); n != 3 {
		t.Errorf("errors = %d, want 3:\n%s", n, text)
	}

	r = callTool(t, srv, "decode_path", map[string]any{"d": "M 87.5 650 Z"})
	if !r.IsError {
		t.Error("expected error for close path")
	}
}

func TestGeometryAndFormat(t *testing.T) {
	srv := testServer(t)
	if text := resultText(callTool(t, srv, "get_geometry", nil)); !strings.Contains(text, `"measure_width": 500`) {
		t.Errorf("geometry = %q", text)
	}
	if text := resultText(callTool(t, srv, "get_score_format", nil)); text != ScoreFormat {
		t.Error("format text mismatch")
	}

	contents, err := srv.readScoreFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(contents) != 1 {
		t.Fatalf("resource = %v, %v", contents, err)
	}
	if tc, ok := contents[0].(mcp.TextResourceContents); !ok || tc.URI != formatURI {
		t.Errorf("resource contents = %+v", contents[0])
	}
}
