// Package segmenter splits an association-of-municipalities gazette into
// one Segment per member municipality. There is one implementation per
// aggregated-publisher boundary grammar; a Registry selects the right one
// from the territory id.
package segmenter

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/gazette/checksum"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

// Segmenter splits one aggregated gazette into per-territory segments.
type Segmenter interface {
	Segment(ctx context.Context, g *gazette.Gazette) ([]gazette.Segment, error)
}

// Registry maps a territory id to the Segmenter that knows how to split
// it, built once and cached since regexp.Compile is not free.
type Registry struct {
	db    *gorm.DB
	mu    sync.Mutex
	cache map[string]Segmenter
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db, cache: map[string]Segmenter{}}
}

// For resolves the segmenter for territoryID, currently only the Alagoas
// association boundary grammar (prefix "27").
func (r *Registry) For(territoryID string) (Segmenter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.cache["al"]; ok && strings.HasPrefix(territoryID, "27") {
		return s, nil
	}
	if strings.HasPrefix(territoryID, "27") {
		s := newAlagoasSegmenter(r.db)
		r.cache["al"] = s
		return s, nil
	}
	return nil, gazetteerrors.FatalConfig(fmt.Sprintf("no segmenter registered for territory id %q", territoryID), nil)
}

var boundaryRegexOnce sync.Once
var boundaryRegex *regexp.Regexp

// boundary matches: marker, candidate municipality name (possibly over two
// lines), and the header's closing marker. The reference grammar excludes
// candidates via negative lookahead (EDUCAÇÃO, VAMOS); RE2 (package
// regexp) has no lookaround, so those two exclusions are not reproduced:
// such headers still match as boundaries, and neither word is in
// normalizeTerritoryName's blacklist.
func boundary() *regexp.Regexp {
	boundaryRegexOnce.Do(func() {
		boundaryRegex = regexp.MustCompile(
			`(?m)(ESTADO DE ALAGOAS\s*\n{1,2}PREFEITURA MUNICIPAL DE )(.*?\n{0,2}.*?$)(\n\s(?:\s|SECRETARIA|Secretaria))`,
		)
	})
	return boundaryRegex
}

var blacklistSuffix = regexp.MustCompile(
	`\s*(/AL.*|GABINETE DO PREFEITO.*|PODER.*|http.*|PORTARIA.*|Extrato.*|ATA DE.*|SECRETARIA.*|Fundo.*|SETOR.*|ERRATA.*|- AL.*|GABINETE.*|EXTRATO.*|SÚMULA.*|RATIFICAÇÃO.*)`,
)

var nameFixups = map[string]string{
	"MAJOR IZIDORO": "MAJOR ISIDORO",
}

const codigoIdentificadorMarker = "Código Identificador"

type alagoasSegmenter struct {
	db *gorm.DB

	territoriesOnce sync.Once
	territoriesErr  error
	bySlug          map[string]gazette.Territory
}

func newAlagoasSegmenter(db *gorm.DB) Segmenter {
	return &alagoasSegmenter{db: db}
}

func (s *alagoasSegmenter) Segment(ctx context.Context, g *gazette.Gazette) ([]gazette.Segment, error) {
	byTerritory, err := splitByTerritory(g.SourceText)
	if err != nil {
		return nil, err
	}

	segments := make([]gazette.Segment, 0, len(byTerritory))
	for slug, text := range byTerritory {
		territoryID, territoryName, err := s.resolveTerritory(ctx, slug)
		if err != nil {
			return nil, err
		}
		trimmed := strings.TrimSpace(text)
		seg := gazette.Segment{
			ParentGazetteID: g.ID,
			TerritoryID:     territoryID,
			TerritoryName:   territoryName,
			SourceText:      trimmed,
			Date:            g.Date,
			EditionNumber:   g.EditionNumber,
			IsExtraEdition:  g.IsExtraEdition,
			Power:           g.Power,
			FileChecksum:    checksum.Of(trimmed),
			FilePath:        g.FilePath,
			FileURL:         g.FileURL,
			ScrapedAt:       g.ScrapedAt,
			CreatedAt:       g.CreatedAt,
			Processed:       true,
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// splitByTerritory implements the header-strip / tail-truncate / regex
// boundary split described for the Alagoas grammar.
func splitByTerritory(text string) (map[string]string, error) {
	lines := strings.SplitN(strings.TrimLeft(text, "\n\r\t "), "\n", 2)
	header := strings.TrimRight(lines[0], "\r\n \t")

	clean := text
	if header != "" {
		clean = strings.Join(strings.Split(clean, header), "\n")
	}

	if idx := strings.LastIndex(clean, codigoIdentificadorMarker); idx >= 0 {
		clean = clean[:idx]
	}

	matches := boundary().FindAllStringSubmatchIndex(clean, -1)
	out := map[string]string{}
	for i, m := range matches {
		marker := clean[m[2]:m[3]]
		name := clean[m[4]:m[5]]
		endMarker := clean[m[6]:m[7]]

		bodyStart := m[7]
		bodyEnd := len(clean)
		if i+1 < len(matches) {
			bodyEnd = matches[i+1][0]
		}
		body := clean[bodyStart:bodyEnd]

		normalized := normalizeTerritoryName(name)
		slug := territorySlug(normalized)

		prefix, ok := out[slug]
		if !ok {
			prefix = header + "\n"
		}
		out[slug] = prefix + "\n" + marker + name + endMarker + body
	}
	return out, nil
}

func normalizeTerritoryName(name string) string {
	clean := strings.TrimSpace(strings.ReplaceAll(name, "\n", ""))
	clean = blacklistSuffix.ReplaceAllString(clean, "")
	clean = strings.TrimSpace(clean)
	if fixed, ok := nameFixups[clean]; ok {
		return fixed
	}
	return clean
}

// territorySlug lowercases and strips diacritics the way the reference
// territory lookup key is built.
func territorySlug(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '\'' {
			continue
		}
		b.WriteRune(r)
	}
	decomposed := stripDiacritics(strings.ToLower(b.String()))
	return strings.TrimSpace(decomposed)
}

func stripDiacritics(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		b.WriteRune(normalizeRune(r))
	}
	return b.String()
}

// normalizeRune maps the handful of accented Portuguese runes this
// grammar actually sees to their ASCII base letter. A full NFD transform
// is unnecessary here since territory names are a small closed set.
func normalizeRune(r rune) rune {
	switch r {
	case 'á', 'à', 'â', 'ã', 'ä':
		return 'a'
	case 'é', 'è', 'ê', 'ë':
		return 'e'
	case 'í', 'ì', 'î', 'ï':
		return 'i'
	case 'ó', 'ò', 'ô', 'õ', 'ö':
		return 'o'
	case 'ú', 'ù', 'û', 'ü':
		return 'u'
	case 'ç':
		return 'c'
	case 'ñ':
		return 'n'
	default:
		return r
	}
}

// resolveTerritory looks slug up in the AL territory table. Matching is
// done in memory against a slug built the same way territorySlug builds
// one, since the database column holds the accented display name (e.g.
// "Viçosa") and a SQL lower() comparison against the unnormalized column
// would never match a diacritic-stripped slug.
func (s *alagoasSegmenter) resolveTerritory(ctx context.Context, slug string) (id, name string, err error) {
	if err := s.loadTerritories(ctx); err != nil {
		return "", "", err
	}
	row, ok := s.bySlug[slug]
	if !ok {
		return "", "", gazetteerrors.FatalConfig(fmt.Sprintf("unresolved territory slug %q", slug), nil)
	}
	return row.ID, row.Name, nil
}

func (s *alagoasSegmenter) loadTerritories(ctx context.Context) error {
	s.territoriesOnce.Do(func() {
		var rows []gazette.Territory
		if err := s.db.WithContext(ctx).Where("state_code = ?", "AL").Find(&rows).Error; err != nil {
			s.territoriesErr = gazetteerrors.FatalConfig("load AL territories", err)
			return
		}
		bySlug := make(map[string]gazette.Territory, len(rows))
		for _, row := range rows {
			bySlug[territorySlug(row.Name)] = row
		}
		s.bySlug = bySlug
	})
	return s.territoriesErr
}
