package excerpt

import (
	"testing"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

func TestSpanTermOrPhrase_SingleToken(t *testing.T) {
	got := spanTermOrPhrase([]string{"educacao"})
	term, ok := got["span_term"].(map[string]any)
	if !ok {
		t.Fatalf("expected a span_term clause, got %v", got)
	}
	if term[highlightField] != "educacao" {
		t.Fatalf("span_term field = %v", term)
	}
}

func TestSpanTermOrPhrase_MultiTokenBuildsInOrderSpanNear(t *testing.T) {
	got := spanTermOrPhrase([]string{"pregao", "eletronico"})
	near, ok := got["span_near"].(map[string]any)
	if !ok {
		t.Fatalf("expected a span_near clause, got %v", got)
	}
	if near["slop"] != 0 || near["in_order"] != true {
		t.Fatalf("span_near options = %v", near)
	}
	clauses, ok := near["clauses"].([]any)
	if !ok || len(clauses) != 2 {
		t.Fatalf("span_near clauses = %v", near["clauses"])
	}
}

func TestParseTime(t *testing.T) {
	if got := parseTime(nil); !got.IsZero() {
		t.Fatalf("parseTime(nil) = %v, want zero", got)
	}
	if got := parseTime("not-a-time"); !got.IsZero() {
		t.Fatalf("parseTime(garbage) = %v, want zero", got)
	}
	want := time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	got := parseTime(want.Format(time.RFC3339))
	if !got.Equal(want) {
		t.Fatalf("parseTime = %v, want %v", got, want)
	}
}

func TestAsStringAndAsBool(t *testing.T) {
	if asString("foo") != "foo" {
		t.Fatal("asString should pass through a string")
	}
	if asString(42) != "" {
		t.Fatal("asString should zero-value a non-string")
	}
	if !asBool(true) {
		t.Fatal("asBool should pass through true")
	}
	if asBool("true") {
		t.Fatal("asBool should zero-value a non-bool")
	}
}

func TestExcerptFromHit_BuildsIDFromHitAndFragmentChecksum(t *testing.T) {
	hit := searchindex.Hit{
		ID: "gazette-1",
		Source: map[string]any{
			"territory_id":   "2704302",
			"file_checksum":  "abc123",
			"processed":      true,
			"edition_number": "45",
		},
	}
	ex := excerptFromHit(hit, "a qualifying fragment of highlighted text", "Licitações")
	if ex.SourceIndexID != "gazette-1" {
		t.Fatalf("SourceIndexID = %q", ex.SourceIndexID)
	}
	if ex.SourceTerritoryID != "2704302" {
		t.Fatalf("SourceTerritoryID = %q", ex.SourceTerritoryID)
	}
	if !ex.SourceProcessed {
		t.Fatal("SourceProcessed should be true")
	}
	if ex.ExcerptSubthemes[0] != "Licitações" {
		t.Fatalf("ExcerptSubthemes = %v", ex.ExcerptSubthemes)
	}
	if ex.ExcerptID == "" || ex.ExcerptID[:len("gazette-1_")] != "gazette-1_" {
		t.Fatalf("ExcerptID = %q, want prefix gazette-1_", ex.ExcerptID)
	}
}

func TestChunk(t *testing.T) {
	ids := []string{"1", "2", "3"}
	got := chunk(ids, 2)
	if len(got) != 2 || len(got[0]) != 2 || len(got[1]) != 1 {
		t.Fatalf("chunk = %v", got)
	}
}
