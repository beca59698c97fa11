// Package pipeline is the text-extraction + indexing orchestrator (C6):
// for every gazette the source yields, download, extract, upload,
// segment-or-index, and mark processed, catching per-document failures
// without aborting the run.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path"
	"runtime"
	"runtime/debug"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/gazette/extractor"
	"github.com/yungbote/neurobridge-backend/internal/gazette/segmenter"
	"github.com/yungbote/neurobridge-backend/internal/gazette/source"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	gazetteerrors "github.com/yungbote/neurobridge-backend/internal/pkg/errors"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/binarystore"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

const (
	defaultMaxFileBytes = 500 * 1024 * 1024
	gcEveryNGazettes    = 10
)

// ProcessedRepo is the narrow repository surface the orchestrator needs:
// flipping a row's processed flag once its full sequence completes.
type ProcessedRepo interface {
	MarkProcessed(ctx context.Context, id int64, fileChecksum string) error
}

type Config struct {
	FilesEndpoint string
	GazetteIndex  string
	MaxFileBytes  int64
	WorkerLimit   int
}

type Pipeline struct {
	cfg        Config
	store      binarystore.Store
	extract    extractor.Extractor
	index      *searchindex.Client
	segmenters *segmenter.Registry
	repo       ProcessedRepo
	log        *logger.Logger
	summary    *observability.RunSummary

	processedSinceGC int
}

func New(cfg Config, store binarystore.Store, ext extractor.Extractor, idx *searchindex.Client, segs *segmenter.Registry, repo ProcessedRepo, log *logger.Logger, summary *observability.RunSummary) *Pipeline {
	if cfg.MaxFileBytes <= 0 {
		cfg.MaxFileBytes = defaultMaxFileBytes
	}
	if cfg.WorkerLimit <= 0 {
		cfg.WorkerLimit = 1
	}
	return &Pipeline{cfg: cfg, store: store, extract: ext, index: idx, segmenters: segs, repo: repo, log: log, summary: summary}
}

// Run drains cur. With cfg.WorkerLimit <= 1 it processes one gazette at a
// time, and the cursor's Next is only called again once the previous
// gazette's whole sequence has completed. With a larger limit it hands
// rows to a worker pool of that size, so Next runs while earlier gazettes
// are still in flight; a fatal-config error from any worker stops the
// pull loop and is returned.
func (p *Pipeline) Run(ctx context.Context, cur *source.Cursor) error {
	if p.cfg.WorkerLimit <= 1 {
		return p.runSequential(ctx, cur)
	}
	return p.runPooled(ctx, cur)
}

func (p *Pipeline) runSequential(ctx context.Context, cur *source.Cursor) error {
	for ctx.Err() == nil {
		row, ok, err := cur.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := p.processOne(ctx, row); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (p *Pipeline) runPooled(ctx context.Context, cur *source.Cursor) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.WorkerLimit)

	for gctx.Err() == nil {
		row, ok, err := cur.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			break
		}
		g.Go(func() error {
			return p.processOne(gctx, row)
		})
	}
	return g.Wait()
}

// processOne runs one gazette's full sequence, catching every failure
// category except CategoryFatalConfig at this boundary; a fatal
// configuration error (e.g. an unresolved territory slug) is returned so
// the caller aborts the whole run instead of silently skipping gazettes
// indefinitely.
func (p *Pipeline) processOne(ctx context.Context, g *gazette.Gazette) error {
	if p.summary != nil {
		p.summary.IncSeen()
	}
	if err := p.process(ctx, g); err != nil {
		if p.log != nil {
			p.log.Warn("gazette processing failed", "gazette_id", g.ID, "file_path", g.FilePath, "error", err)
		}
		category := gazetteerrors.Classify(err)
		if category == gazetteerrors.CategoryFatalConfig {
			return err
		}
		if p.summary != nil {
			if category == gazetteerrors.CategorySkip {
				p.summary.IncSkipped()
			} else {
				p.summary.IncFailed()
			}
		}
		return nil
	}
	if p.summary != nil {
		p.summary.IncProcessed()
	}
	p.maybeGC()
	return nil
}

func (p *Pipeline) process(ctx context.Context, g *gazette.Gazette) error {
	ctx, span := observability.Tracer().Start(ctx, "pipeline.process_gazette",
		trace.WithAttributes(
			attribute.Int64("gazette.id", g.ID),
			attribute.String("gazette.territory_id", g.TerritoryID),
		),
	)
	defer span.End()

	log := p.log
	if log != nil {
		log = log.With("gazette_id", g.ID, "file_checksum", g.FileChecksum)
	}

	err := p.doProcess(ctx, g)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (p *Pipeline) doProcess(ctx context.Context, g *gazette.Gazette) error {
	log := p.log
	if log != nil {
		log = log.With("gazette_id", g.ID, "file_checksum", g.FileChecksum)
	}

	tmp, err := os.CreateTemp("", "gazette-*.bin")
	if err != nil {
		return gazetteerrors.Wrap("create temp file", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if err := p.store.Download(ctx, g.FilePath, tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return gazetteerrors.Wrap("close temp file", err)
	}

	info, err := os.Stat(tmpPath)
	if err != nil {
		return gazetteerrors.Wrap("stat downloaded file", err)
	}
	if info.Size() > p.cfg.MaxFileBytes {
		if log != nil {
			log.Warn("gazette exceeds max file size, skipping", "size_bytes", info.Size(), "max_bytes", p.cfg.MaxFileBytes)
		}
		return gazetteerrors.Wrap("file too large", gazetteerrors.ErrInvalidInput)
	}

	text, err := p.extract.ExtractText(ctx, tmpPath)
	if err != nil {
		return err
	}
	os.Remove(tmpPath)
	g.SourceText = text

	textPath := textArtifactPath(g.FilePath)
	g.FileRawTxt = p.cfg.FilesEndpoint + "/" + textPath
	if err := p.store.Upload(ctx, textPath, strings.NewReader(text), int64(len(text)), "public-read"); err != nil {
		return err
	}

	var indexedIDs []string
	if gazette.IsAssociation(g.TerritoryID) {
		ids, err := p.segmentAndUpload(ctx, g)
		if err != nil {
			return err
		}
		indexedIDs = ids
	} else {
		if err := p.indexDoc(ctx, *g); err != nil {
			return err
		}
		indexedIDs = []string{g.FileChecksum}
	}

	if err := p.repo.MarkProcessed(ctx, g.ID, g.FileChecksum); err != nil {
		return err
	}

	if log != nil {
		log.Info("gazette indexed", "document_ids", indexedIDs)
	}
	return nil
}

func (p *Pipeline) segmentAndUpload(ctx context.Context, g *gazette.Gazette) ([]string, error) {
	seg, err := p.segmenters.For(g.TerritoryID)
	if err != nil {
		return nil, err
	}
	segments, err := seg.Segment(ctx, g)
	if err != nil {
		return nil, err
	}
	if p.summary != nil {
		p.summary.AddSegments(len(segments))
	}

	ids := make([]string, 0, len(segments))
	for _, s := range segments {
		segPath := fmt.Sprintf("%s/%s/%s.txt", s.TerritoryID, s.Date.Format("2006-01-02"), s.FileChecksum)
		if err := p.store.Upload(ctx, segPath, strings.NewReader(s.SourceText), int64(len(s.SourceText)), "public-read"); err != nil {
			return nil, err
		}
		if err := p.indexDoc(ctx, asGazette(s)); err != nil {
			return nil, err
		}
		ids = append(ids, s.FileChecksum)
	}
	return ids, nil
}

func (p *Pipeline) indexDoc(ctx context.Context, g gazette.Gazette) error {
	body := map[string]any{
		"source_text":      g.SourceText,
		"date":             g.Date,
		"edition_number":   g.EditionNumber,
		"is_extra_edition": g.IsExtraEdition,
		"power":            g.Power,
		"file_checksum":    g.FileChecksum,
		"file_path":        g.FilePath,
		"file_url":         g.FileURL,
		"scraped_at":       g.ScrapedAt,
		"created_at":       g.CreatedAt,
		"territory_id":     g.TerritoryID,
		"processed":        true,
	}
	start := time.Now()
	err := p.index.IndexDocument(ctx, p.cfg.GazetteIndex, g.FileChecksum, body, false)
	if p.summary != nil {
		errType := ""
		if err != nil {
			errType = "index_document"
		}
		p.summary.ObserveOpenSearch(time.Since(start), errType)
	}
	return err
}

func (p *Pipeline) maybeGC() {
	p.processedSinceGC++
	if p.processedSinceGC < gcEveryNGazettes {
		return
	}
	p.processedSinceGC = 0
	runtime.GC()
}

// SetMemoryLimit applies the optional soft memory ceiling from
// MAX_RUNTIME_MEMORY_MB.
func SetMemoryLimit(mb int) {
	if mb <= 0 {
		return
	}
	debug.SetMemoryLimit(int64(mb) * 1024 * 1024)
}

func textArtifactPath(filePath string) string {
	dir := path.Dir(filePath)
	base := path.Base(filePath)
	ext := path.Ext(base)
	return path.Join(dir, base[:len(base)-len(ext)]+".txt")
}

func asGazette(s gazette.Segment) gazette.Gazette {
	return gazette.Gazette{
		SourceText:     s.SourceText,
		Date:           s.Date,
		EditionNumber:  s.EditionNumber,
		IsExtraEdition: s.IsExtraEdition,
		Power:          s.Power,
		FileChecksum:   s.FileChecksum,
		FilePath:       s.FilePath,
		FileURL:        s.FileURL,
		ScrapedAt:      s.ScrapedAt,
		CreatedAt:      s.CreatedAt,
		TerritoryID:    s.TerritoryID,
		Processed:      s.Processed,
	}
}
