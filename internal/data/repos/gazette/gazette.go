// Package gazette holds the relational repositories the pipeline uses
// alongside the paginated C1 source: marking rows processed, and the
// territory/aggregate bookkeeping shared with the sibling packaging job.
package gazette

import (
	"context"
	"time"

	"gorm.io/gorm"

	domain "github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// MarkProcessed flips processed=true for the row matching (id,
// file_checksum), the last step of the per-gazette sequence.
func (r *Repo) MarkProcessed(ctx context.Context, id int64, fileChecksum string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.Gazette{}).
		Where("id = ? AND file_checksum = ?", id, fileChecksum).
		Update("processed", true)
	if res.Error != nil {
		return gazetteerrors.Transient("mark gazette processed", res.Error)
	}
	if res.RowsAffected == 0 {
		return gazetteerrors.NotFound("gazette row for processed update", nil)
	}
	return nil
}

// ProcessedFileChecksums returns the document ids (gazette file checksums)
// of already-processed gazettes, for a backfill run over the search
// index rather than the raw binaries. limit<=0 means no limit.
func (r *Repo) ProcessedFileChecksums(ctx context.Context, limit int) ([]string, error) {
	q := r.db.WithContext(ctx).
		Model(&domain.Gazette{}).
		Where("processed = ?", true).
		Order("id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ids []string
	if err := q.Pluck("file_checksum", &ids).Error; err != nil {
		return nil, gazetteerrors.Transient("list processed file checksums", err)
	}
	return ids, nil
}

func (r *Repo) TerritoryByID(ctx context.Context, id string) (*domain.Territory, error) {
	var t domain.Territory
	if err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error; err != nil {
		return nil, gazetteerrors.NotFound("territory by id", err)
	}
	return &t, nil
}

// TouchAggregateLastUpdated updates the bookkeeping field this pipeline
// incidentally touches on the packager's aggregates table when resolving
// territory-to-state mappings; it does not build the archive itself.
func (r *Repo) TouchAggregateLastUpdated(ctx context.Context, territoryID string, year int, when time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Aggregate{}).
		Where("territory_id = ? AND year = ?", territoryID, year).
		Update("last_updated", when).Error
}
