package bootstrap

import (
	"context"
	"fmt"

	"github.com/aleksworks/docintel/internal/config"
	"github.com/aleksworks/docintel/internal/core/ports"
	"github.com/aleksworks/docintel/internal/core/usecase"
	"github.com/aleksworks/docintel/internal/infrastructure/chunking"
	"github.com/aleksworks/docintel/internal/infrastructure/extractor"
	"github.com/aleksworks/docintel/internal/infrastructure/keyword"
	"github.com/aleksworks/docintel/internal/infrastructure/llm/ollama"
	"github.com/aleksworks/docintel/internal/infrastructure/queue/nats"
	"github.com/aleksworks/docintel/internal/infrastructure/repository/postgres"
	"github.com/aleksworks/docintel/internal/infrastructure/resilience"
	"github.com/aleksworks/docintel/internal/infrastructure/storage/localfs"
	"github.com/aleksworks/docintel/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue ports.MessageQueue
	Repo  ports.DocumentRepository

	IngestUC  ports.DocumentIngestor
	ProcessUC ports.DocumentProcessor
	DeleteUC  ports.DocumentDeleter
	SearchUC  *usecase.SearchUseCase
	RebuildUC ports.IndexRebuilder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	chunkRepo := postgres.NewChunkRepository(db)

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Subjects{
		Ingested: cfg.NATSSubjectIngested,
		Indexed:  cfg.NATSSubjectIndexed,
	}, nats.Options{ResilienceExecutor: executor})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)

	vectorDB := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)
	keywordDB := keyword.NewEngine(keyword.DefaultParameters())
	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.New(storage)

	searchUC := usecase.NewSearchUseCase(embedder, vectorDB, keywordDB, generator, usecase.RetrievalConfig{
		DefaultTopK:         cfg.SearchTopK,
		HybridCandidates:    cfg.HybridCandidates,
		FusionStrategy:      cfg.FusionStrategy,
		FusionRRFK:          cfg.FusionRRFK,
		VectorWeight:        cfg.FusionVectorWeight,
		KeywordWeight:       cfg.FusionKeywordWeight,
		SimilarityThreshold: cfg.SimilarityThreshold,
		KeywordMinScore:     cfg.KeywordMinScore,
		MultiQueryCount:     cfg.MultiQueryCount,
		HydeUseBoth:         cfg.HydeUseBoth,
		MaxContextChars:     cfg.MaxContextChars,
	})

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue)
	processUC := usecase.NewProcessDocumentUseCase(repo, chunkRepo, textExtractor, chunker, embedder, vectorDB, queue, cfg.EmbedBatchSize)
	deleteUC := usecase.NewDeleteDocumentUseCase(repo, chunkRepo, storage, vectorDB, queue)
	rebuildUC := usecase.NewRebuildIndexUseCase(chunkRepo, keywordDB)

	return &App{
		Config: cfg,
		Queue:  queue,
		Repo:   repo,

		IngestUC:  ingestUC,
		ProcessUC: processUC,
		DeleteUC:  deleteUC,
		SearchUC:  searchUC,
		RebuildUC: rebuildUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
