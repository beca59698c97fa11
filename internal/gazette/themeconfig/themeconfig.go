// Package themeconfig loads the theme-definitions YAML file read once at
// startup by the excerpt/enrich stages.
package themeconfig

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

// Load reads and parses the YAML file at path into a slice of themes. An
// unreadable or unparsable file, or a theme without an index or without
// queries, is a fatal-config error: the run aborts rather than limping
// along with no themes.
func Load(path string) ([]gazette.Theme, error) {
	if path == "" {
		return nil, gazetteerrors.FatalConfig("THEMES_CONFIG_PATH not set", nil)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, gazetteerrors.FatalConfig(fmt.Sprintf("read themes config %q", path), err)
	}
	var themes []gazette.Theme
	if err := yaml.Unmarshal(raw, &themes); err != nil {
		return nil, gazetteerrors.FatalConfig(fmt.Sprintf("parse themes config %q", path), err)
	}
	for i, t := range themes {
		if t.Index == "" {
			return nil, gazetteerrors.FatalConfig(fmt.Sprintf("theme %d missing index name", i), nil)
		}
		if len(t.Queries) == 0 {
			return nil, gazetteerrors.FatalConfig(fmt.Sprintf("theme %d (%s) has no queries", i, t.Index), nil)
		}
	}
	return themes, nil
}

// ByTitle indexes themes by each of their query titles, the handle used by
// cmd/backfill_excerpts --theme flags; when two themes share a query
// title, the later theme wins.
func ByTitle(themes []gazette.Theme) map[string]gazette.Theme {
	out := make(map[string]gazette.Theme, len(themes))
	for _, t := range themes {
		for _, q := range t.Queries {
			out[q.Title] = t
		}
	}
	return out
}
