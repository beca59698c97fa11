package gazette_test

import (
	"context"
	"errors"
	"testing"

	gazetterepo "github.com/yungbote/neurobridge-backend/internal/data/repos/gazette"
	"github.com/yungbote/neurobridge-backend/internal/data/repos/testutil"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
)

func TestMarkProcessed(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	testutil.SeedTerritory(t, ctx, tx, "2704302", "Maceió", "AL")
	g := testutil.SeedGazette(t, ctx, tx, "2704302", "texto do diario", false)

	repo := gazetterepo.NewRepo(tx)
	if err := repo.MarkProcessed(ctx, g.ID, g.FileChecksum); err != nil {
		t.Fatalf("MarkProcessed: %v", err)
	}

	ids, err := repo.ProcessedFileChecksums(ctx, 0)
	if err != nil {
		t.Fatalf("ProcessedFileChecksums: %v", err)
	}
	if len(ids) != 1 || ids[0] != g.FileChecksum {
		t.Fatalf("ProcessedFileChecksums = %v, want [%s]", ids, g.FileChecksum)
	}
}

func TestMarkProcessed_NoMatchingRowIsNotFound(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	repo := gazetterepo.NewRepo(tx)
	err := repo.MarkProcessed(ctx, 9999, "does-not-exist")
	if !errors.Is(err, gazetteerrors.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestProcessedFileChecksums_ExcludesUnprocessed(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	testutil.SeedTerritory(t, ctx, tx, "2704302", "Maceió", "AL")
	testutil.SeedGazette(t, ctx, tx, "2704302", "processed gazette", true)
	testutil.SeedGazette(t, ctx, tx, "2704302", "unprocessed gazette", false)

	repo := gazetterepo.NewRepo(tx)
	ids, err := repo.ProcessedFileChecksums(ctx, 0)
	if err != nil {
		t.Fatalf("ProcessedFileChecksums: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("ProcessedFileChecksums = %v, want exactly 1 processed row", ids)
	}
}

func TestProcessedFileChecksums_RespectsLimit(t *testing.T) {
	ctx := context.Background()
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	testutil.SeedTerritory(t, ctx, tx, "2704302", "Maceió", "AL")
	for i := 0; i < 3; i++ {
		testutil.SeedGazette(t, ctx, tx, "2704302", "gazette body", true)
	}

	repo := gazetterepo.NewRepo(tx)
	ids, err := repo.ProcessedFileChecksums(ctx, 2)
	if err != nil {
		t.Fatalf("ProcessedFileChecksums: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("len(ids) = %d, want 2", len(ids))
	}
}
