// Package excerpt implements the ExcerptExtractor (C7): for one theme and
// a batch of already-indexed gazette ids, run a span-proximity search
// against the gazette index and turn the highlighted spans into themed
// excerpt documents.
package excerpt

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/gazette/checksum"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

const (
	batchSize        = 500
	hitsPerBatch     = 10
	minFragmentChars = 200
	highlightField   = "source_text.with_stopwords"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type Extractor struct {
	index        *searchindex.Client
	gazetteIndex string
	log          *logger.Logger
}

func New(index *searchindex.Client, gazetteIndex string, log *logger.Logger) *Extractor {
	return &Extractor{index: index, gazetteIndex: gazetteIndex, log: log}
}

// Extract runs every query of theme against gazetteIDs (batched at
// batchSize) and writes the resulting excerpts to theme.Index with
// refresh=true so the enricher can read them immediately.
func (e *Extractor) Extract(ctx context.Context, theme gazette.Theme, gazetteIDs []string) ([]gazette.Excerpt, error) {
	var produced []gazette.Excerpt

	for _, q := range theme.Queries {
		spanQuery, err := e.buildSpanQuery(ctx, q)
		if err != nil {
			return produced, fmt.Errorf("build span query %q: %w", q.Title, err)
		}
		if spanQuery == nil {
			continue
		}

		for _, batch := range chunk(gazetteIDs, batchSize) {
			body := map[string]any{
				"query": map[string]any{
					"bool": map[string]any{
						"must":   []any{spanQuery},
						"filter": map[string]any{"ids": map[string]any{"values": batch}},
					},
				},
				"size": hitsPerBatch,
				"highlight": map[string]any{
					"fields": map[string]any{
						highlightField: map[string]any{
							"type":                "unified",
							"fragment_size":       2000,
							"number_of_fragments": 10,
							"pre_tags":            []string{""},
							"post_tags":           []string{""},
						},
					},
				},
			}

			result, err := e.index.Search(ctx, e.gazetteIndex, body)
			if err != nil {
				return produced, err
			}

			for _, hit := range result.Hits {
				for _, frag := range hit.Highlights[highlightField] {
					collapsed := strings.TrimSpace(whitespaceRun.ReplaceAllString(frag, " "))
					if utf8.RuneCountInString(collapsed) < minFragmentChars {
						continue
					}
					ex := excerptFromHit(hit, collapsed, q.Title)
					if err := e.index.IndexDocument(ctx, theme.Index, ex.ExcerptID, excerptBody(ex), true); err != nil {
						return produced, err
					}
					produced = append(produced, ex)
				}
			}
		}
	}

	return produced, nil
}

// buildSpanQuery compiles the three-level term_sets structure into a
// nested span_or/span_near query: macro level OR, group level
// span_near(slop=20, any order), term level OR over synonyms, each
// synonym itself an in-order span_near(slop=0) over its tokens.
func (e *Extractor) buildSpanQuery(ctx context.Context, q gazette.ThemeQuery) (map[string]any, error) {
	var macroClauses []any
	for _, macro := range q.TermSets {
		var groupClauses []any
		for _, group := range macro {
			var termClauses []any
			for _, term := range group {
				tokens, err := e.index.Analyze(ctx, e.gazetteIndex, highlightField, term)
				if err != nil {
					return nil, err
				}
				if len(tokens) == 0 {
					continue
				}
				termClauses = append(termClauses, spanTermOrPhrase(tokens))
			}
			if len(termClauses) == 0 {
				continue
			}
			groupClauses = append(groupClauses, map[string]any{
				"span_or": map[string]any{"clauses": termClauses},
			})
		}
		if len(groupClauses) == 0 {
			continue
		}
		macroClauses = append(macroClauses, map[string]any{
			"span_near": map[string]any{
				"clauses":  groupClauses,
				"slop":     20,
				"in_order": false,
			},
		})
	}
	if len(macroClauses) == 0 {
		return nil, nil
	}
	return map[string]any{
		"span_or": map[string]any{"clauses": macroClauses},
	}, nil
}

func spanTermOrPhrase(tokens []string) map[string]any {
	if len(tokens) == 1 {
		return map[string]any{"span_term": map[string]any{highlightField: tokens[0]}}
	}
	clauses := make([]any, len(tokens))
	for i, t := range tokens {
		clauses[i] = map[string]any{"span_term": map[string]any{highlightField: t}}
	}
	return map[string]any{
		"span_near": map[string]any{
			"clauses":  clauses,
			"slop":     0,
			"in_order": true,
		},
	}
}

func excerptFromHit(hit searchindex.Hit, fragment, queryTitle string) gazette.Excerpt {
	src := hit.Source

	return gazette.Excerpt{
		ExcerptID:        hit.ID + "_" + checksum.Of(fragment),
		Excerpt:          fragment,
		ExcerptSubthemes: []string{queryTitle},

		SourceIndexID:        hit.ID,
		SourceDate:           parseTime(src["date"]),
		SourceEditionNumber:  asString(src["edition_number"]),
		SourceIsExtraEdition: asBool(src["is_extra_edition"]),
		SourcePower:          gazette.Power(asString(src["power"])),
		SourceFileChecksum:   asString(src["file_checksum"]),
		SourceFilePath:       asString(src["file_path"]),
		SourceFileURL:        asString(src["file_url"]),
		SourceScrapedAt:      parseTime(src["scraped_at"]),
		SourceCreatedAt:      parseTime(src["created_at"]),
		SourceTerritoryID:    asString(src["territory_id"]),
		SourceProcessed:      asBool(src["processed"]),
	}
}

func excerptBody(ex gazette.Excerpt) map[string]any {
	body := map[string]any{
		"excerpt_id":              ex.ExcerptID,
		"excerpt":                 ex.Excerpt,
		"excerpt_subthemes":       ex.ExcerptSubthemes,
		"excerpt_entities":        ex.ExcerptEntities,
		"source_index_id":         ex.SourceIndexID,
		"source_date":             ex.SourceDate,
		"source_edition_number":   ex.SourceEditionNumber,
		"source_is_extra_edition": ex.SourceIsExtraEdition,
		"source_power":            ex.SourcePower,
		"source_file_checksum":    ex.SourceFileChecksum,
		"source_file_path":        ex.SourceFilePath,
		"source_file_url":         ex.SourceFileURL,
		"source_scraped_at":       ex.SourceScrapedAt,
		"source_created_at":       ex.SourceCreatedAt,
		"source_territory_id":     ex.SourceTerritoryID,
		"source_processed":        ex.SourceProcessed,
	}
	// excerpt_embedding_score is mapped rank_feature, which rejects zero
	// and negative values; at extraction time no rerank has run yet, so
	// leave it unset rather than index a 0 the enricher would have to
	// overwrite anyway.
	if ex.ExcerptEmbeddingScore > 0 {
		body["excerpt_embedding_score"] = ex.ExcerptEmbeddingScore
	}
	return body
}

func chunk(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	var out [][]string
	for i := 0; i < len(ids); i += size {
		end := i + size
		if end > len(ids) {
			end = len(ids)
		}
		out = append(out, ids[i:end])
	}
	return out
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func parseTime(v any) time.Time {
	s, ok := v.(string)
	if !ok || s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
