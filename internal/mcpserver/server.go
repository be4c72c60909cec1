// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes staffline tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/staffline/internal/codec"
	"github.com/starford/staffline/internal/geometry"
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/scorefile"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/validation"
)

const formatURI = "staffline://score-format"

// Server wraps the MCP server with staffline tools.
type Server struct {
	mcp  *server.MCPServer
	svc  *scoreservice.Service
	geom geometry.Config
}

// New creates a new MCP server with all staffline tools registered.
func New(svc *scoreservice.Service, geom geometry.Config) *Server {
	s := &Server{svc: svc, geom: geom}

	s.mcp = server.NewMCPServer(
		"Staffline",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_scores",
		mcp.WithDescription("List the scores in the library with their parts and measure counts."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of scores (default 50)")),
	), s.listScores)

	s.mcp.AddTool(mcp.NewTool("read_score",
		mcp.WithDescription("Read the YAML source of a score."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path to the score (e.g. etudes/first.yaml)")),
	), s.readScore)

	s.mcp.AddTool(mcp.NewTool("search_scores",
		mcp.WithDescription("Full-text search through score titles, part names and notes."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchScores)

	s.mcp.AddTool(mcp.NewTool("create_score",
		mcp.WithDescription("Create a new score at the specified path. "+
			"Content MUST follow the score format; read it first via get_score_format "+
			"or the "+formatURI+" resource."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Relative path for the new score (must end with .yaml)")),
		mcp.WithString("content", mcp.Required(), mcp.Description("YAML score document")),
	), s.createScore)

	s.mcp.AddTool(mcp.NewTool("encode_part",
		mcp.WithDescription("Draw the leading measures of one part as SVG path data, "+
			"one M/H pair per note on the staff layout returned by get_geometry."),
		mcp.WithString("path", mcp.Required(), mcp.Description("Score path")),
		mcp.WithNumber("part", mcp.Description("Zero-based part index (default 0)")),
		mcp.WithNumber("measures", mcp.Description("Number of measures to draw (default: visible measures)")),
	), s.encodePart)

	s.mcp.AddTool(mcp.NewTool("decode_path",
		mcp.WithDescription("Read SVG path data back into measures. Returns YAML measures, "+
			"or every located error when a note has no valid duration or pitch."),
		mcp.WithString("d", mcp.Required(), mcp.Description("SVG path data made of absolute M and H commands")),
	), s.decodePath)

	s.mcp.AddTool(mcp.NewTool("get_geometry",
		mcp.WithDescription("Returns the staff layout (pixel offsets, measure width, step heights) used by encode_part and decode_path."),
	), s.getGeometry)

	s.mcp.AddTool(mcp.NewTool("get_score_format",
		mcp.WithDescription("Returns the score file format. "+
			"Call this before creating scores to ensure correct structure."),
	), s.getScoreFormat)

	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Score Format",
			mcp.WithResourceDescription("YAML score file format and the path drawing convention."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readScoreFormatResource,
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

func (s *Server) listScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, _, err := s.svc.ListScores(ctx, req.GetInt("limit", 0), 0, "path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(items) == 0 {
		return mcp.NewToolResultText("no scores found"), nil
	}
	lines := make([]string, len(items))
	for i, it := range items {
		lines[i] = fmt.Sprintf("%s\t%s\t%d measures\t%s", it.Path, it.Title, it.Measures, strings.Join(it.Parts, ", "))
	}
	return mcp.NewToolResultText(strings.Join(lines, "\n")), nil
}

func (s *Server) readScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	sc, err := s.svc.GetScore(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", p, err)), nil
	}
	return mcp.NewToolResultText(sc.Content), nil
}

func (s *Server) searchScores(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(results, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) createScore(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.svc.CreateScore(ctx, p, []byte(content)); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %s", p)), nil
}

func (s *Server) encodePart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p, err := req.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	part := req.GetInt("part", 0)
	visible := req.GetInt("measures", s.geom.VisibleMeasures)

	sc, _, err := s.svc.LoadScore(ctx, p)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("read %s: %v", p, err)), nil
	}
	if part < 0 || part >= len(sc.Parts) {
		return mcp.NewToolResultError(fmt.Sprintf("%s has %d parts, no part %d", p, len(sc.Parts), part)), nil
	}
	segs := codec.ToPathSegments(sc.Parts[part].Measures, s.geom, visible)
	return mcp.NewToolResultText(path.Format(segs)), nil
}

func (s *Server) decodePath(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	d, err := req.RequireString("d")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	segs, err := path.Parse(d)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	measures, err := codec.ToMeasures(segs, s.geom)
	if err != nil {
		var errs validation.Errors
		if !errors.As(err, &errs) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		lines := make([]string, len(errs))
		for i, e := range errs {
			lines[i] = e.Error()
		}
		return mcp.NewToolResultError(strings.Join(lines, "\n")), nil
	}
	out, err := scorefile.MarshalMeasures(measures)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getGeometry(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	out, _ := json.MarshalIndent(s.geom, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getScoreFormat(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ScoreFormat), nil
}

func (s *Server) readScoreFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     ScoreFormat,
		},
	}, nil
}
