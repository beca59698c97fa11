// Package app wires every collaborator the gazette text-extraction and
// indexing pipeline needs into one object: config, clients, repositories,
// the orchestrator itself, and the minimal operational HTTP surface.
package app

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/neurobridge-backend/internal/data/db"
	gazetterepo "github.com/yungbote/neurobridge-backend/internal/data/repos/gazette"
	"github.com/yungbote/neurobridge-backend/internal/domain/gazette"
	"github.com/yungbote/neurobridge-backend/internal/gazette/enrich"
	"github.com/yungbote/neurobridge-backend/internal/gazette/excerpt"
	"github.com/yungbote/neurobridge-backend/internal/gazette/pipeline"
	"github.com/yungbote/neurobridge-backend/internal/gazette/segmenter"
	"github.com/yungbote/neurobridge-backend/internal/gazette/source"
	"github.com/yungbote/neurobridge-backend/internal/gazette/themeconfig"
	gazettehttp "github.com/yungbote/neurobridge-backend/internal/http"
	"github.com/yungbote/neurobridge-backend/internal/http/handlers"
	"github.com/yungbote/neurobridge-backend/internal/observability"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
	"github.com/yungbote/neurobridge-backend/internal/temporalx"
	"github.com/yungbote/neurobridge-backend/internal/temporalx/temporalworker"

	temporalsdkclient "go.temporal.io/sdk/client"
)

type App struct {
	Log    *logger.Logger
	DB     *gorm.DB
	Router *gin.Engine
	Cfg    Config

	Repo          *gazetterepo.Repo
	Source        *source.Source
	Pipeline      *pipeline.Pipeline
	Excerpt       *excerpt.Extractor
	Enricher      *enrich.Enricher
	Themes        []gazette.Theme
	ThemesByTitle map[string]gazette.Theme
	Summary       *observability.RunSummary

	clients *clients

	temporalClient temporalsdkclient.Client
	temporalWorker *temporalworker.Runner

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

func New() (*App, error) {
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	cfg := LoadConfig()
	log.Info("loaded configuration", "execution_mode", cfg.ExecutionMode, "search_index_name", cfg.SearchIndexName)

	otelShutdown := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "gazette-pipeline",
	})

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if err := dbAutoMigrate(pg.DB()); err != nil {
		log.Sync()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	theDB := pg.DB()

	cl, err := wireClients(cfg, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init clients: %w", err)
	}

	var themes []gazette.Theme
	if cfg.ThemesConfigPath != "" {
		themes, err = themeconfig.Load(cfg.ThemesConfigPath)
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("load themes: %w", err)
		}
	}

	repo := gazetterepo.NewRepo(theDB)
	src, err := source.New(theDB, cfg.GazetteQueryPageSize)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init gazette source: %w", err)
	}
	segs := segmenter.NewRegistry(theDB)
	summary := observability.NewRunSummary()

	if err := ensureIndexes(context.Background(), cl.index, cfg.SearchIndexName, themes, log); err != nil {
		log.Sync()
		return nil, fmt.Errorf("ensure search indexes: %w", err)
	}

	pl := pipeline.New(pipeline.Config{
		FilesEndpoint: cfg.FilesEndpoint,
		GazetteIndex:  cfg.SearchIndexName,
		MaxFileBytes:  int64(cfg.MaxGazetteFileSizeMB) * 1024 * 1024,
		WorkerLimit:   cfg.WorkerLimit,
	}, cl.store, cl.extract, cl.index, segs, repo, log.With("component", "pipeline"), summary)

	excerptExtractor := excerpt.New(cl.index, cfg.SearchIndexName, log.With("component", "excerpt"))
	enricher := enrich.New(cl.index, cl.embed, log.With("component", "enrich"))

	pipeline.SetMemoryLimit(cfg.MaxRuntimeMemoryMB)

	healthHandler := handlers.NewHealthHandler(summary)
	router := gazettehttp.NewRouter(gazettehttp.RouterConfig{
		HealthHandler: healthHandler,
		Logger:        log,
	})

	a := &App{
		Log:           log,
		DB:            theDB,
		Router:        router,
		Cfg:           cfg,
		Repo:          repo,
		Source:        src,
		Pipeline:      pl,
		Excerpt:       excerptExtractor,
		Enricher:      enricher,
		Themes:        themes,
		ThemesByTitle: themeconfig.ByTitle(themes),
		Summary:       summary,
		clients:       cl,
		otelShutdown:  otelShutdown,
	}

	if cfg.TemporalAddress != "" {
		tc, err := temporalx.NewClient(log.With("client", "temporal"))
		if err != nil {
			log.Sync()
			return nil, fmt.Errorf("init temporal client: %w", err)
		}
		if tc != nil {
			worker, err := temporalworker.NewRunner(log.With("component", "temporal_worker"), tc, a.RunPipeline)
			if err != nil {
				log.Sync()
				return nil, fmt.Errorf("init temporal worker: %w", err)
			}
			a.temporalClient = tc
			a.temporalWorker = worker
		}
	}

	return a, nil
}

func dbAutoMigrate(gdb *gorm.DB) error {
	return db.AutoMigrateAll(gdb)
}

// ensureIndexes creates the gazette index and every configured theme's
// excerpt index on first run; CreateIndex itself is idempotent, so a
// restart against an already-provisioned cluster is a no-op.
func ensureIndexes(ctx context.Context, idx *searchindex.Client, gazetteIndex string, themes []gazette.Theme, log *logger.Logger) error {
	if err := idx.CreateIndex(ctx, gazetteIndex, searchindex.GazetteIndexMapping()); err != nil {
		return fmt.Errorf("create gazette index %q: %w", gazetteIndex, err)
	}
	log.Info("gazette index ready", "index", gazetteIndex)

	seen := map[string]bool{}
	for _, theme := range themes {
		if theme.Index == "" || seen[theme.Index] {
			continue
		}
		seen[theme.Index] = true
		if err := idx.CreateIndex(ctx, theme.Index, searchindex.ThemedExcerptIndexMapping()); err != nil {
			return fmt.Errorf("create themed excerpt index %q: %w", theme.Index, err)
		}
		log.Info("themed excerpt index ready", "index", theme.Index)
	}
	return nil
}

// Start launches the background Temporal worker, if configured.
func (a *App) Start(ctx context.Context) {
	if a == nil {
		return
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	if a.temporalWorker != nil {
		if err := a.temporalWorker.Start(runCtx); err != nil && a.Log != nil {
			a.Log.Warn("temporal worker failed to start", "error", err)
		}
	}
}

// RunPipeline drains the gazette source for mode (falling back to the
// configured default, matched case-insensitively) under the
// cross-instance run lock.
func (a *App) RunPipeline(ctx context.Context, mode string) error {
	if mode == "" {
		mode = a.Cfg.ExecutionMode
	}

	release, ok, err := a.clients.runLock.Acquire(ctx, mode)
	if err != nil {
		return fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		a.Log.Info("another run holds the lock, skipping", "mode", mode)
		return nil
	}
	defer release(context.Background())

	cur, err := a.Source.Iterate(ctx, source.Mode(strings.ToLower(mode)))
	if err != nil {
		return fmt.Errorf("start gazette source: %w", err)
	}
	return a.Pipeline.Run(ctx, cur)
}

func (a *App) Run(addr string) error {
	if a == nil || a.Router == nil {
		return fmt.Errorf("app not initialized")
	}
	return a.Router.Run(addr)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.clients != nil && a.clients.runLock != nil {
		_ = a.clients.runLock.Close()
	}
	if a.otelShutdown != nil {
		_ = a.otelShutdown(context.Background())
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
