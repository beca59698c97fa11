// Command backfill_excerpts re-runs excerpt extraction and enrichment
// (C7/C8) over already-indexed gazettes without re-extracting their
// text, mirroring the teacher's backfill_file_signatures pattern.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/yungbote/neurobridge-backend/internal/app"
	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
)

type themeList []string

func (l *themeList) String() string { return strings.Join(*l, ",") }
func (l *themeList) Set(v string) error {
	v = strings.TrimSpace(v)
	if v != "" {
		*l = append(*l, v)
	}
	return nil
}

func main() {
	var themes themeList
	var dryRun bool
	var limit int
	flag.Var(&themes, "theme", "theme query title to backfill (repeatable); default is all configured themes")
	flag.BoolVar(&dryRun, "dry-run", false, "print planned work without writing to the search index")
	flag.IntVar(&limit, "limit", 0, "limit number of gazette ids processed")
	flag.Parse()

	application, err := app.New()
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	ctx := context.Background()

	ids, err := application.Repo.ProcessedFileChecksums(ctx, limit)
	if err != nil {
		fmt.Printf("load processed gazette ids: %v\n", err)
		os.Exit(1)
	}
	if len(ids) == 0 {
		fmt.Println("no processed gazettes to backfill")
		return
	}

	selected := selectThemes(application, themes)
	if len(selected) == 0 {
		fmt.Println("no themes configured or matched --theme filters")
		return
	}

	for _, theme := range selected {
		if dryRun {
			fmt.Printf("[dry-run] would extract+enrich theme index=%s over %d gazette ids\n", theme.Index, len(ids))
			continue
		}

		excerpts, err := application.Excerpt.Extract(ctx, theme, ids)
		if err != nil {
			fmt.Printf("extract theme index=%s: %v\n", theme.Index, err)
			os.Exit(1)
		}
		if len(excerpts) == 0 {
			fmt.Printf("theme index=%s: no excerpts produced\n", theme.Index)
			continue
		}

		excerptIDs := make([]string, len(excerpts))
		for i, e := range excerpts {
			excerptIDs[i] = e.ExcerptID
		}
		if err := application.Enricher.Enrich(ctx, theme, excerptIDs); err != nil {
			fmt.Printf("enrich theme index=%s: %v\n", theme.Index, err)
			os.Exit(1)
		}
		fmt.Printf("theme index=%s: produced and enriched %d excerpts\n", theme.Index, len(excerpts))
	}
}

func selectThemes(a *app.App, filter themeList) []gazette.Theme {
	out := make([]gazette.Theme, 0, len(a.Themes))
	if len(filter) == 0 {
		for _, t := range a.Themes {
			out = append(out, t)
		}
		return out
	}
	seen := map[string]bool{}
	for _, title := range filter {
		t, ok := a.ThemesByTitle[title]
		if !ok || seen[t.Index] {
			continue
		}
		seen[t.Index] = true
		out = append(out, t)
	}
	return out
}
