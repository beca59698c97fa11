package searchindex

// The gazette and themed-excerpt indices share one analyzer triple:
// `default` (brazilian stemmer, stopwords stripped), `with_stopwords`
// (brazilian stemmer, stopwords kept, for phrase-proximity span
// queries), and `exact` (lowercased only, no stemming). All three carry
// offsets and positional term vectors so the fast-vector-highlighter can
// run against any of them.
var analysisSettings = map[string]any{
	"filter": map[string]any{
		"brazilian_stemmer": map[string]any{
			"type":     "stemmer",
			"language": "brazilian",
		},
	},
	"analyzer": map[string]any{
		"brazilian_with_stopwords": map[string]any{
			"tokenizer": "standard",
			"filter":    []string{"lowercase", "brazilian_stemmer"},
		},
		"exact": map[string]any{
			"tokenizer": "standard",
			"filter":    []string{"lowercase"},
		},
	},
}

func textFieldWithAnalyzerTriple(field string) map[string]any {
	return map[string]any{
		"type":          "text",
		"analyzer":      "brazilian",
		"index_options": "offsets",
		"term_vector":   "with_positions_offsets",
		"fields": map[string]any{
			"with_stopwords": map[string]any{
				"type":          "text",
				"analyzer":      "brazilian_with_stopwords",
				"index_options": "offsets",
				"term_vector":   "with_positions_offsets",
			},
			"exact": map[string]any{
				"type":          "text",
				"analyzer":      "exact",
				"index_options": "offsets",
				"term_vector":   "with_positions_offsets",
			},
		},
	}
}

// GazetteIndexMapping builds the create-index body for the main gazette
// index: source_text under the analyzer triple, sorted by
// (territory_id asc, date desc) so a paginated scan reads newest-first
// per territory without an extra sort pass.
func GazetteIndexMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"created_at":       map[string]any{"type": "date"},
				"date":             map[string]any{"type": "date"},
				"edition_number":   keywordSubfield(),
				"file_checksum":    map[string]any{"type": "keyword"},
				"file_path":        map[string]any{"type": "keyword"},
				"file_url":         map[string]any{"type": "keyword"},
				"id":               map[string]any{"type": "keyword"},
				"is_extra_edition": map[string]any{"type": "boolean"},
				"power":            map[string]any{"type": "keyword"},
				"processed":        map[string]any{"type": "boolean"},
				"scraped_at":       map[string]any{"type": "date"},
				"source_text":      textFieldWithAnalyzerTriple("source_text"),
				"state_code":       map[string]any{"type": "keyword"},
				"territory_id":     map[string]any{"type": "keyword"},
				"territory_name":   keywordSubfield(),
				"url":              map[string]any{"type": "keyword"},
			},
		},
		"settings": map[string]any{
			"index": map[string]any{
				"sort.field": []string{"territory_id", "date"},
				"sort.order": []string{"asc", "desc"},
			},
			"analysis": analysisSettings,
		},
	}
}

// ThemedExcerptIndexMapping builds the create-index body for one theme's
// excerpt index: excerpt under the analyzer triple, the two rerank
// signals typed rank_feature (strictly-positive floats only — the
// caller must never index a literal 0 into either), and the denormalized
// source_* gazette metadata, sorted the same way as the gazette index
// but keyed off the source fields.
func ThemedExcerptIndexMapping() map[string]any {
	return map[string]any{
		"mappings": map[string]any{
			"properties": map[string]any{
				"excerpt_embedding_score": map[string]any{"type": "rank_feature"},
				"excerpt_tfidf_score":     map[string]any{"type": "rank_feature"},
				"excerpt_subthemes":       map[string]any{"type": "keyword"},
				"excerpt_entities":        map[string]any{"type": "keyword"},
				"excerpt":                 textFieldWithAnalyzerTriple("excerpt"),
				"excerpt_id":              map[string]any{"type": "keyword"},
				"source_database_id":      map[string]any{"type": "long"},
				"source_index_id":         map[string]any{"type": "keyword"},
				"source_created_at":       map[string]any{"type": "date"},
				"source_date":             map[string]any{"type": "date"},
				"source_edition_number":   map[string]any{"type": "keyword"},
				"source_file_checksum":    map[string]any{"type": "keyword"},
				"source_file_path":        map[string]any{"type": "keyword"},
				"source_file_raw_txt":     map[string]any{"type": "keyword"},
				"source_file_url":         map[string]any{"type": "keyword"},
				"source_is_extra_edition": map[string]any{"type": "boolean"},
				"source_power":            map[string]any{"type": "keyword"},
				"source_processed":        map[string]any{"type": "boolean"},
				"source_scraped_at":       map[string]any{"type": "date"},
				"source_state_code":       map[string]any{"type": "keyword"},
				"source_territory_id":     map[string]any{"type": "keyword"},
				"source_territory_name":   map[string]any{"type": "keyword"},
				"source_url":              map[string]any{"type": "keyword"},
			},
		},
		"settings": map[string]any{
			"index": map[string]any{
				"sort.field": []string{"source_territory_id", "source_date"},
				"sort.order": []string{"asc", "desc"},
			},
			"analysis": analysisSettings,
		},
	}
}

func keywordSubfield() map[string]any {
	return map[string]any{
		"type": "text",
		"fields": map[string]any{
			"keyword": map[string]any{"type": "keyword", "ignore_above": 256},
		},
	}
}
