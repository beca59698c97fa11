package themeconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

func TestLoad_ParsesThemes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.yaml")
	yaml := `
- index: theme_licitacoes
  queries:
    - title: Licitações
      term_sets:
        - - - licitação
            - pregão
  entities:
    categories: ["entidadecnpj"]
    cases:
      - category: entidadecnpj
        title: CNPJ
        values: ["cnpj"]
  stopwords: ["de", "da"]
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write themes file: %v", err)
	}

	themes, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(themes) != 1 {
		t.Fatalf("len(themes) = %d, want 1", len(themes))
	}
	if themes[0].Index != "theme_licitacoes" {
		t.Fatalf("Index = %q", themes[0].Index)
	}
	if len(themes[0].Queries) != 1 || themes[0].Queries[0].Title != "Licitações" {
		t.Fatalf("Queries = %v", themes[0].Queries)
	}

	byTitle := ByTitle(themes)
	if _, ok := byTitle["Licitações"]; !ok {
		t.Fatalf("ByTitle missing Licitações, got %v", byTitle)
	}
}

func TestLoad_EmptyPathIsFatalConfig(t *testing.T) {
	_, err := Load("")
	if !errors.Is(err, gazetteerrors.ErrFatalConfig) {
		t.Fatalf("err = %v, want ErrFatalConfig", err)
	}
}

func TestLoad_MissingIndexIsFatalConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("- queries: []\n"), 0o644); err != nil {
		t.Fatalf("write themes file: %v", err)
	}
	_, err := Load(path)
	if !errors.Is(err, gazetteerrors.ErrFatalConfig) {
		t.Fatalf("err = %v, want ErrFatalConfig", err)
	}
}

func TestLoad_UnreadableFileIsFatalConfig(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if !errors.Is(err, gazetteerrors.ErrFatalConfig) {
		t.Fatalf("err = %v, want ErrFatalConfig", err)
	}
}
