package searchindex

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestIndexDocument_Upserts(t *testing.T) {
	var gotMethod, gotPath string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	err := c.IndexDocument(context.Background(), "gazettes", "doc-1", map[string]any{"text": "hello"}, true)
	if err != nil {
		t.Fatalf("IndexDocument: %v", err)
	}
	if gotMethod != http.MethodPut {
		t.Fatalf("method = %q, want PUT", gotMethod)
	}
	if gotPath != "/gazettes/_doc/doc-1?refresh=true" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotBody["text"] != "hello" {
		t.Fatalf("body = %v", gotBody)
	}
}

func TestUpdateDocument_SendsDocAsUpsert(t *testing.T) {
	var gotBody map[string]any
	var gotPath string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	err := c.UpdateDocument(context.Background(), "theme-index", "excerpt-1", map[string]any{"excerpt_embedding_score": 0.42}, false)
	if err != nil {
		t.Fatalf("UpdateDocument: %v", err)
	}
	if gotPath != "/theme-index/_update/excerpt-1" {
		t.Fatalf("path = %q", gotPath)
	}
	doc, ok := gotBody["doc"].(map[string]any)
	if !ok {
		t.Fatalf("expected doc field in request body, got %v", gotBody)
	}
	if doc["excerpt_embedding_score"] != 0.42 {
		t.Fatalf("doc = %v", doc)
	}
	if gotBody["doc_as_upsert"] != true {
		t.Fatalf("expected doc_as_upsert=true, got %v", gotBody["doc_as_upsert"])
	}
}

func TestCreateIndex_TreatsAlreadyExistsAsSuccess(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "resource_already_exists_exception"})
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	if err := c.CreateIndex(context.Background(), "gazettes", map[string]any{}); err != nil {
		t.Fatalf("CreateIndex: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected a GET then a PUT, got %d calls", calls)
	}
}

func TestAnalyze_ReturnsTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"tokens": []map[string]any{{"token": "educacao"}, {"token": "saude"}},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, testLogger(t))
	tokens, err := c.Analyze(context.Background(), "gazettes", "source_text.with_stopwords", "educação e saúde")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if len(tokens) != 2 || tokens[0] != "educacao" || tokens[1] != "saude" {
		t.Fatalf("tokens = %v", tokens)
	}
}
