package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/gazette/checksum"
)

func SeedTerritory(tb testing.TB, ctx context.Context, tx *gorm.DB, id, name, stateCode string) *gazette.Territory {
	tb.Helper()
	t := &gazette.Territory{ID: id, Name: name, StateCode: stateCode, State: "Alagoas"}
	if err := tx.WithContext(ctx).Create(t).Error; err != nil {
		tb.Fatalf("seed territory: %v", err)
	}
	return t
}

func SeedGazette(tb testing.TB, ctx context.Context, tx *gorm.DB, territoryID, sourceText string, processed bool) *gazette.Gazette {
	tb.Helper()
	g := &gazette.Gazette{
		SourceText:   sourceText,
		Date:         time.Now().UTC(),
		TerritoryID:  territoryID,
		FileChecksum: checksum.Of(sourceText),
		FilePath:     "gazettes/" + territoryID + "/file.pdf",
		FileURL:      "https://example.org/gazettes/" + territoryID + "/file.pdf",
		ScrapedAt:    time.Now().UTC(),
		CreatedAt:    time.Now().UTC(),
		Power:        gazette.PowerExecutive,
		Processed:    processed,
	}
	if err := tx.WithContext(ctx).Create(g).Error; err != nil {
		tb.Fatalf("seed gazette: %v", err)
	}
	return g
}
