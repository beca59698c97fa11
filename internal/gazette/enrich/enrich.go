// Package enrich implements the ExcerptEnricher (C8): an embedding
// rerank pass and an entity-tagging pass, applied in order to the
// excerpts one theme's extraction run just produced.
package enrich

import (
	"context"
	"fmt"
	"regexp"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/embedder"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

const (
	fetchBatchSize       = 500
	minEmbeddingScore    = 1e-6
	excerptField         = "excerpt"
	excerptAnalyzedField = "excerpt.with_stopwords"
)

// cnpjPattern mirrors the original source's validation regex: optional
// punctuation between digit groups, tolerant of unpunctuated CNPJs.
var cnpjPattern = regexp.MustCompile(`(^|[^\d])(\d\.?\d\.?\d\.?\d\.?\d\.?\d\.?\d\.?\d/?\d{4}-?\d{2})($|[^\d])`)

type Enricher struct {
	index *searchindex.Client
	embed embedder.Client
	log   *logger.Logger
}

func New(index *searchindex.Client, embed embedder.Client, log *logger.Logger) *Enricher {
	return &Enricher{index: index, embed: embed, log: log}
}

// Enrich runs the embedding rerank followed by both entity-tagging
// phases over excerptIDs, all scoped to theme.Index.
func (e *Enricher) Enrich(ctx context.Context, theme gazette.Theme, excerptIDs []string) error {
	if err := e.rerank(ctx, theme, excerptIDs); err != nil {
		return fmt.Errorf("embedding rerank: %w", err)
	}
	if err := e.tagThemeCases(ctx, theme, excerptIDs); err != nil {
		return fmt.Errorf("theme case tagging: %w", err)
	}
	if err := e.tagCNPJs(ctx, theme.Index, excerptIDs); err != nil {
		return fmt.Errorf("cnpj tagging: %w", err)
	}
	return nil
}

// rerank encodes the theme's query titles once, then for every excerpt
// takes the max cosine similarity against that set and stores it as
// excerpt_embedding_score (floored at minEmbeddingScore so it stays
// usable as a rank_feature, which requires a strictly positive value).
func (e *Enricher) rerank(ctx context.Context, theme gazette.Theme, excerptIDs []string) error {
	titles := make([]string, len(theme.Queries))
	for i, q := range theme.Queries {
		titles[i] = q.Title
	}
	queryVecs, err := e.embed.Embed(ctx, titles)
	if err != nil {
		return err
	}

	for _, batch := range chunk(excerptIDs, fetchBatchSize) {
		hits, err := e.fetchByIDs(ctx, theme.Index, batch)
		if err != nil {
			return err
		}
		texts := make([]string, len(hits))
		for i, h := range hits {
			texts[i] = asString(h.Source[excerptField])
		}
		vecs, err := e.embed.Embed(ctx, texts)
		if err != nil {
			return err
		}
		for i, h := range hits {
			score := embedder.CosineMaxTopK(vecs[i], queryVecs)
			if score <= 0 {
				score = minEmbeddingScore
			}
			if err := e.index.UpdateDocument(ctx, theme.Index, h.ID, map[string]any{
				"excerpt_embedding_score": score,
			}, true); err != nil {
				return err
			}
		}
	}
	return nil
}

// tagThemeCases runs one paginated phrase-match search per case; any hit
// that produced a highlight has its excerpt text replaced by the
// highlighted string and the case's title added to excerpt_entities.
func (e *Enricher) tagThemeCases(ctx context.Context, theme gazette.Theme, excerptIDs []string) error {
	for _, c := range theme.Entities.Cases {
		should := make([]any, 0, len(c.Values))
		for _, v := range c.Values {
			should = append(should, map[string]any{
				"match_phrase": map[string]any{excerptAnalyzedField: v},
			})
		}
		if len(should) == 0 {
			continue
		}

		for _, batch := range chunk(excerptIDs, fetchBatchSize) {
			body := map[string]any{
				"query": map[string]any{
					"bool": map[string]any{
						"should":               should,
						"minimum_should_match": 1,
						"filter":               map[string]any{"ids": map[string]any{"values": batch}},
					},
				},
				"size": len(batch),
				"highlight": map[string]any{
					"fields": map[string]any{
						excerptAnalyzedField: map[string]any{
							"type":                "fvh",
							"matched_fields":      []string{excerptField, excerptAnalyzedField},
							"fragment_size":       10000,
							"number_of_fragments": 1,
							"pre_tags":            []string{"<" + c.Category + ">"},
							"post_tags":           []string{"</" + c.Category + ">"},
						},
					},
				},
			}
			result, err := e.index.Search(ctx, theme.Index, body)
			if err != nil {
				return err
			}
			for _, hit := range result.Hits {
				frags := hit.Highlights[excerptAnalyzedField]
				if len(frags) == 0 {
					continue
				}
				entities := appendUnique(asStringSlice(hit.Source["excerpt_entities"]), c.Title)
				if err := e.index.UpdateDocument(ctx, theme.Index, hit.ID, map[string]any{
					"excerpt":          frags[0],
					"excerpt_entities": entities,
				}, true); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// tagCNPJs scans every excerpt's text for CNPJ-shaped numbers and wraps
// each distinct match in an <entidadecnpj> tag, adding "CNPJ" to
// excerpt_entities whenever at least one match is found.
func (e *Enricher) tagCNPJs(ctx context.Context, index string, excerptIDs []string) error {
	for _, batch := range chunk(excerptIDs, fetchBatchSize) {
		hits, err := e.fetchByIDs(ctx, index, batch)
		if err != nil {
			return err
		}
		for _, hit := range hits {
			text := asString(hit.Source[excerptField])
			tagged, matched := tagCNPJsInText(text)
			if !matched {
				continue
			}
			entities := appendUnique(asStringSlice(hit.Source["excerpt_entities"]), "CNPJ")
			if err := e.index.UpdateDocument(ctx, index, hit.ID, map[string]any{
				"excerpt":          tagged,
				"excerpt_entities": entities,
			}, true); err != nil {
				return err
			}
		}
	}
	return nil
}

func tagCNPJsInText(text string) (string, bool) {
	matched := false
	out := cnpjPattern.ReplaceAllStringFunc(text, func(m string) string {
		sub := cnpjPattern.FindStringSubmatch(m)
		if len(sub) != 4 {
			return m
		}
		matched = true
		return sub[1] + "<entidadecnpj>" + sub[2] + "</entidadecnpj>" + sub[3]
	})
	return out, matched
}

func (e *Enricher) fetchByIDs(ctx context.Context, index string, ids []string) ([]searchindex.Hit, error) {
	body := map[string]any{
		"query": map[string]any{"ids": map[string]any{"values": ids}},
		"size":  len(ids),
	}
	result, err := e.index.Search(ctx, index, body)
	if err != nil {
		return nil, err
	}
	return result.Hits, nil
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

func asStringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func appendUnique(existing []string, v string) []string {
	for _, e := range existing {
		if e == v {
			return existing
		}
	}
	return append(existing, v)
}
