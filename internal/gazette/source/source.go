// Package source is the paginated iterator (C1) over gazette rows the
// relational store has not yet finished processing, or that match a
// selection window. It never materializes the full result set: pages are
// fetched one at a time with a literal LIMIT/OFFSET embedded in the SQL
// text (no bound parameters for pagination), and the cursor is abandonable
// at any point.
package source

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

type Mode string

const (
	ModeDaily       Mode = "daily"
	ModeAll         Mode = "all"
	ModeUnprocessed Mode = "unprocessed"
)

const defaultPageSize = 1000

type Cursor struct {
	db        *gorm.DB
	mode      Mode
	pageSize  int
	offset    int
	buf       []gazette.Gazette
	idx       int
	exhausted bool
}

// Source exposes the single `iterate(mode)` operation over the gazettes
// table.
type Source struct {
	db       *gorm.DB
	pageSize int
}

func New(db *gorm.DB, pageSize int) (*Source, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &Source{db: db, pageSize: pageSize}, nil
}

func (s *Source) Iterate(ctx context.Context, mode Mode) (*Cursor, error) {
	switch mode {
	case ModeDaily, ModeAll, ModeUnprocessed:
	default:
		return nil, gazetteerrors.FatalConfig(fmt.Sprintf("unknown source mode %q", mode), nil)
	}
	return &Cursor{db: s.db, mode: mode, pageSize: s.pageSize}, nil
}

// Next yields the next gazette row, fetching a new page when the current
// one is exhausted. ok is false once no more rows remain.
func (c *Cursor) Next(ctx context.Context) (*gazette.Gazette, bool, error) {
	if c.idx >= len(c.buf) {
		if c.exhausted {
			return nil, false, nil
		}
		if err := c.fetchPage(ctx); err != nil {
			return nil, false, err
		}
		if len(c.buf) == 0 {
			return nil, false, nil
		}
	}
	row := c.buf[c.idx]
	c.idx++
	return &row, true, nil
}

func (c *Cursor) fetchPage(ctx context.Context) error {
	limit := c.pageSize
	if limit < 0 {
		return gazetteerrors.FatalConfig("page size must be non-negative", nil)
	}

	query := fmt.Sprintf(`
		SELECT g.*
		FROM gazettes g
		%s
		ORDER BY g.id ASC
		LIMIT %d OFFSET %d`, c.whereClause(), limit, c.offset)

	var page []gazette.Gazette
	if err := c.db.WithContext(ctx).Raw(query).Scan(&page).Error; err != nil {
		return gazetteerrors.Transient("fetch gazette page", err)
	}

	c.buf = page
	c.idx = 0
	c.offset += limit
	if len(page) < limit {
		c.exhausted = true
	}
	return nil
}

func (c *Cursor) whereClause() string {
	switch c.mode {
	case ModeDaily:
		return "WHERE g.scraped_at >= now() - interval '24 hours'"
	case ModeUnprocessed:
		return "WHERE g.processed = false"
	default:
		return ""
	}
}
