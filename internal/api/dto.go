package api

import (
	"github.com/starford/staffline/internal/path"
	"github.com/starford/staffline/internal/scorefile"
	"github.com/starford/staffline/internal/scoreservice"
	"github.com/starford/staffline/internal/session"
)

// CreateScoreRequest is the request body for creating a score.
type CreateScoreRequest struct {
	Path    string `json:"path" example:"etudes/first.yaml" validate:"required"`
	Content string `json:"content" example:"title: Etude\nparts: []" validate:"required"`
}

// UpdateScoreRequest is the request body for updating a score.
type UpdateScoreRequest struct {
	Content string `json:"content" validate:"required"`
}

// MoveScoreRequest is the body of PATCH /api/scores/{path}.
type MoveScoreRequest struct {
	Path string `json:"path" example:"etudes/final.yaml" validate:"required"`
}

// ScoreDetail is the full score response type (aliased from the domain layer).
type ScoreDetail = scoreservice.ScoreDetail

// ScoreListItem is a lightweight item in a list response.
type ScoreListItem = scoreservice.ScoreListItem

// ScoreListResponse wraps paginated score listings.
type ScoreListResponse struct {
	Scores []ScoreListItem `json:"scores" validate:"required"`
	Total  int             `json:"total" example:"42" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult struct {
	Path    string `json:"path" example:"etudes/first.yaml" validate:"required"`
	Title   string `json:"title" example:"Etude" validate:"required"`
	Snippet string `json:"snippet" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// OpenSessionRequest opens a drawing session on one part of a score.
type OpenSessionRequest struct {
	Path string `json:"path" example:"etudes/first.yaml" validate:"required"`
	Part int    `json:"part" example:"0"`
}

// SessionView is the session state returned by every session endpoint.
type SessionView = session.View

// SessionListResponse wraps open sessions.
type SessionListResponse struct {
	Sessions []SessionView `json:"sessions" validate:"required"`
}

// SegmentsRequest carries path input either as segments or as SVG path
// data in D. Segments wins when both are set.
type SegmentsRequest struct {
	Segments []path.Segment `json:"segments,omitempty"`
	D        string         `json:"d,omitempty" example:"M 87.5 650 H 337.5"`
}

// EncodeRequest asks for the path drawing of a list of measures.
type EncodeRequest struct {
	Measures []scorefile.MeasureDocument `json:"measures" validate:"required"`
	// Visible caps the measures drawn; zero means the configured count.
	Visible int `json:"visible,omitempty" example:"4"`
}

// PathResponse holds segments and their SVG path data.
type PathResponse struct {
	Segments []path.Segment `json:"segments" validate:"required"`
	D        string         `json:"d" validate:"required"`
}

// DecodeResponse holds decoded measures in score file form.
type DecodeResponse struct {
	Measures []scorefile.MeasureDocument `json:"measures" validate:"required"`
}

// ValidationError is one located decode failure.
type ValidationError struct {
	Code     string `json:"code" example:"invalid_pitch_height"`
	Tag      string `json:"tag" example:"pitch"`
	Message  string `json:"message"`
	Location string `json:"location" example:"part[0]/measure[1]/note[0]"`
	Measure  string `json:"measure,omitempty" example:"measure-2"`
}

// ValidationResponse is returned with 422 when decoding fails.
type ValidationResponse struct {
	Error   string            `json:"error"`
	Errors  []ValidationError `json:"errors"`
	Overlay []path.Segment    `json:"overlay"`
	D       string            `json:"d"`
}
