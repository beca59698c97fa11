// Package gazette holds the core entities of the text-extraction and
// themed-excerpt pipeline: gazettes, territories, segments, themes and
// excerpts. Shapes mirror the relational schema in use by the pipeline
// and the denormalized documents written to the search index.
package gazette

import (
	"time"

	"gorm.io/datatypes"
)

// Power enumerates the branch of government that issued a gazette.
type Power string

const (
	PowerExecutive            Power = "executive"
	PowerLegislative          Power = "legislative"
	PowerExecutiveLegislative Power = "executive_legislative"
)

// AssociationSuffix is the territory-id suffix that marks a publisher as an
// association of municipalities rather than a single municipality.
const AssociationSuffix = "00000"

// IsAssociation reports whether a territory id denotes an association
// gazette, which must be segmented before indexing.
func IsAssociation(territoryID string) bool {
	return len(territoryID) >= len(AssociationSuffix) &&
		territoryID[len(territoryID)-len(AssociationSuffix):] == AssociationSuffix
}

// Gazette is the `gazettes` table row: a single published issue, pending or
// already processed.
type Gazette struct {
	ID             int64     `gorm:"primaryKey;column:id" json:"id"`
	SourceText     string    `gorm:"column:source_text" json:"source_text"`
	Date           time.Time `gorm:"column:date" json:"date"`
	EditionNumber  string    `gorm:"column:edition_number" json:"edition_number"`
	IsExtraEdition bool      `gorm:"column:is_extra_edition" json:"is_extra_edition"`
	Power          Power     `gorm:"column:power" json:"power"`
	FileChecksum   string    `gorm:"column:file_checksum" json:"file_checksum"`
	FilePath       string    `gorm:"column:file_path" json:"file_path"`
	FileURL        string    `gorm:"column:file_url" json:"file_url"`
	ScrapedAt      time.Time `gorm:"column:scraped_at" json:"scraped_at"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	TerritoryID    string    `gorm:"column:territory_id;size:7" json:"territory_id"`
	Processed      bool      `gorm:"column:processed" json:"processed"`

	// Not persisted columns of `gazettes` itself. The pipeline sets
	// FileRawTxt after text extraction to the public URL of the uploaded
	// text artifact; the source query joins no territory, and nothing fills
	// TerritoryName, StateCode or URL.
	TerritoryName string `gorm:"-" json:"territory_name,omitempty"`
	StateCode     string `gorm:"-" json:"state_code,omitempty"`
	URL           string `gorm:"-" json:"url,omitempty"`
	FileRawTxt    string `gorm:"-" json:"file_raw_txt,omitempty"`
}

func (Gazette) TableName() string { return "gazettes" }

// Territory is the static `territories` lookup table.
type Territory struct {
	ID        string `gorm:"primaryKey;column:id;size:7" json:"id"`
	Name      string `gorm:"column:territory_name" json:"territory_name"`
	StateCode string `gorm:"column:state_code;size:2" json:"state_code"`
	State     string `gorm:"column:state" json:"state"`
}

func (Territory) TableName() string { return "territories" }

// Aggregate is a row of the ZIP-packager's `aggregates` table. This module
// owns the read/write surface of the table (created with IF NOT EXISTS) but
// does not implement the packaging job itself.
type Aggregate struct {
	ID          int64     `gorm:"primaryKey;autoIncrement;column:id" json:"id"`
	TerritoryID string    `gorm:"column:territory_id;size:7" json:"territory_id"`
	StateCode   string    `gorm:"column:state_code;size:2;not null" json:"state_code"`
	Year        int       `gorm:"column:year" json:"year"`
	FilePath    string    `gorm:"column:file_path;unique" json:"file_path"`
	FileSizeMB  float64   `gorm:"column:file_size_mb" json:"file_size_mb"`
	HashInfo    string    `gorm:"column:hash_info" json:"hash_info"`
	LastUpdated time.Time `gorm:"column:last_updated" json:"last_updated"`
}

func (Aggregate) TableName() string { return "aggregates" }

// IndexableDocument is the capability shared by a plain Gazette and a
// Segment: each knows its territory, checksum, date and source text. The
// pipeline's indexer does not take it; it takes a Gazette value and
// converts each Segment to one first.
type IndexableDocument interface {
	DocumentID() string
	TerritoryCode() string
	PublicationDate() time.Time
	Text() string
}

// Segment is a Gazette-shaped record produced by the Segmenter out of an
// aggregated gazette. It carries its own (recomputed) checksum and resolved
// child territory, and is indexed exactly like a simple Gazette.
type Segment struct {
	ParentGazetteID int64
	TerritoryID     string
	TerritoryName   string
	StateCode       string
	SourceText      string
	Date            time.Time
	EditionNumber   string
	IsExtraEdition  bool
	Power           Power
	FileChecksum    string
	FilePath        string
	FileURL         string
	ScrapedAt       time.Time
	CreatedAt       time.Time
	Processed       bool
	FileRawTxt      string
	URL             string
}

func (s Segment) DocumentID() string         { return s.FileChecksum }
func (s Segment) TerritoryCode() string      { return s.TerritoryID }
func (s Segment) PublicationDate() time.Time { return s.Date }
func (s Segment) Text() string               { return s.SourceText }

func (g Gazette) DocumentID() string         { return g.FileChecksum }
func (g Gazette) TerritoryCode() string      { return g.TerritoryID }
func (g Gazette) PublicationDate() time.Time { return g.Date }
func (g Gazette) Text() string               { return g.SourceText }

// Theme is a named bundle of proximity queries and entity cases, decoded
// once at startup from a YAML config file.
type Theme struct {
	Index     string        `yaml:"index" json:"index"`
	Queries   []ThemeQuery  `yaml:"queries" json:"queries"`
	Entities  ThemeEntities `yaml:"entities" json:"entities"`
	Stopwords []string      `yaml:"stopwords" json:"stopwords"`
}

// ThemeQuery carries a title and the three-level `term_sets[macro][group][term]`
// nested structure described in the proximity-search design.
type ThemeQuery struct {
	Title    string       `yaml:"title" json:"title"`
	TermSets [][][]string `yaml:"term_sets" json:"term_sets"`
}

// ThemeEntities bundles the named-entity categories and phrase cases used
// by the enricher's entity-tagging pass.
type ThemeEntities struct {
	Categories []string    `yaml:"categories" json:"categories"`
	Cases      []ThemeCase `yaml:"cases" json:"cases"`
}

// ThemeCase is one phrase-matching rule: any of Values found in an excerpt
// tags it with Title under the highlight Category.
type ThemeCase struct {
	Title    string   `yaml:"title" json:"title"`
	Category string   `yaml:"category" json:"category"`
	Values   []string `yaml:"values" json:"values"`
}

// Excerpt is a derived, themed-index document: a highlighted fragment of a
// gazette's text plus the reranking/tagging signals the enricher attaches.
type Excerpt struct {
	ExcerptID             string   `json:"excerpt_id"`
	Excerpt               string   `json:"excerpt"`
	ExcerptSubthemes      []string `json:"excerpt_subthemes"`
	ExcerptEntities       []string `json:"excerpt_entities"`
	ExcerptEmbeddingScore float64  `json:"excerpt_embedding_score,omitempty"`
	ExcerptTFIDFScore     *float64 `json:"excerpt_tfidf_score,omitempty"`

	SourceIndexID        string    `json:"source_index_id"`
	SourceDatabaseID     int64     `json:"source_database_id"`
	SourceDate           time.Time `json:"source_date"`
	SourceEditionNumber  string    `json:"source_edition_number"`
	SourceIsExtraEdition bool      `json:"source_is_extra_edition"`
	SourcePower          Power     `json:"source_power"`
	SourceFileChecksum   string    `json:"source_file_checksum"`
	SourceFilePath       string    `json:"source_file_path"`
	SourceFileURL        string    `json:"source_file_url"`
	SourceScrapedAt      time.Time `json:"source_scraped_at"`
	SourceCreatedAt      time.Time `json:"source_created_at"`
	SourceTerritoryID    string    `json:"source_territory_id"`
	SourceProcessed      bool      `json:"source_processed"`
	SourceTerritoryName  string    `json:"source_territory_name"`
	SourceStateCode      string    `json:"source_state_code"`
	SourceURL            string    `json:"source_url"`
	SourceFileRawTxt     string    `json:"source_file_raw_txt"`
}

// ThemeConfigRow is used only when themes are mirrored into the relational
// store for operational inspection (e.g. a `/themes` debug endpoint); the
// authoritative source remains the YAML file.
type ThemeConfigRow struct {
	Name      string         `gorm:"primaryKey;column:name"`
	Raw       datatypes.JSON `gorm:"column:raw"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (ThemeConfigRow) TableName() string { return "theme_configs" }
