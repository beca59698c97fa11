package app

import (
	"net/http"
	"time"

	"github.com/yungbote/neurobridge-backend/internal/gazette/extractor"
	"github.com/yungbote/neurobridge-backend/internal/pkg/logger"
	"github.com/yungbote/neurobridge-backend/internal/platform/binarystore"
	"github.com/yungbote/neurobridge-backend/internal/platform/embedder"
	"github.com/yungbote/neurobridge-backend/internal/platform/runlock"
	"github.com/yungbote/neurobridge-backend/internal/platform/searchindex"
)

type clients struct {
	store   binarystore.Store
	extract extractor.Extractor
	index   *searchindex.Client
	embed   embedder.Client
	runLock *runlock.Lock
}

func wireClients(cfg Config, log *logger.Logger) (*clients, error) {
	store, err := binarystore.New(binarystore.Config{
		Endpoint:  cfg.ObjectStoreEndpoint,
		Region:    cfg.ObjectStoreRegion,
		Bucket:    cfg.ObjectStoreBucket,
		AccessKey: cfg.ObjectStoreAccessKey,
		SecretKey: cfg.ObjectStoreSecretKey,
		UseSSL:    cfg.ObjectStoreUseSSL,
	}, log.With("client", "binarystore"))
	if err != nil {
		return nil, err
	}

	extract := extractor.New(cfg.TikaURL, log.With("client", "extractor"))
	index := searchindex.New(cfg.SearchIndexURL, log.With("client", "searchindex"))
	embed := embedder.New(cfg.EmbeddingServiceURL, cfg.EmbeddingModel, &http.Client{Timeout: 30 * time.Second}, log.With("client", "embedder"))

	lock, err := runlock.New(log.With("client", "runlock"), 6*time.Hour)
	if err != nil {
		return nil, err
	}

	return &clients{store: store, extract: extract, index: index, embed: embed, runLock: lock}, nil
}
