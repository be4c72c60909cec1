//go:build sqlite_fts5

package index

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestFTS5_Search(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	rows := []struct {
		row  ScoreRow
		body string
	}{
		{ScoreRow{Path: "cadenza.yaml", Title: "Cadenza", Checksum: "1", Parts: []string{"Cello"}, UpdatedAt: now}, "title: Cadenza\n# a powerful ending\n"},
		{ScoreRow{Path: "gone.yaml", Title: "Gone", Checksum: "2", UpdatedAt: now}, "vanishing content"},
		{ScoreRow{Path: "evo.yaml", Title: "Old", Checksum: "3", UpdatedAt: now}, "original text"},
		{ScoreRow{Path: "evo.yaml", Title: "New", Checksum: "4", UpdatedAt: now}, "replacement text"},
	}
	for _, r := range rows {
		if err := db.UpsertScore(r.row, r.body); err != nil {
			t.Fatalf("UpsertScore %s: %v", r.row.Path, err)
		}
	}
	if err := db.DeleteScore("gone.yaml"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"powerful", []string{"cadenza.yaml"}},
		{"cello", []string{"cadenza.yaml"}},
		{"vanishing", nil},
		{"original", nil},
		{"replacement", []string{"evo.yaml"}},
	}
	for _, tt := range tests {
		results, err := db.Search(tt.query, 10)
		if err != nil {
			t.Fatalf("Search(%q): %v", tt.query, err)
		}
		var got []string
		for _, r := range results {
			got = append(got, r.Path)
		}
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Search(%q) (-want +got):\n%s", tt.query, diff)
		}
	}
}

func TestFTS5_SnippetHighlights(t *testing.T) {
	db := testDB(t)
	_ = db.UpsertScore(ScoreRow{Path: "s.yaml", Title: "S", Checksum: "1", UpdatedAt: time.Now()}, "a powerful cadenza")

	results, err := db.Search("powerful", 10)
	if err != nil || len(results) != 1 {
		t.Fatalf("results = %+v, err = %v", results, err)
	}
	if !strings.Contains(results[0].Snippet, "<b>powerful</b>") {
		t.Errorf("snippet = %q", results[0].Snippet)
	}
}
