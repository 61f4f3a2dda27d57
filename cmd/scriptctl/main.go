package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/peregrine-labs/scriptrag/internal/chunker"
	"github.com/peregrine-labs/scriptrag/internal/cli"
	"github.com/peregrine-labs/scriptrag/internal/config"
	dbRedis "github.com/peregrine-labs/scriptrag/internal/db/redis"
	"github.com/peregrine-labs/scriptrag/internal/keywords"
	"github.com/peregrine-labs/scriptrag/internal/repository/embcache"
	indexrepo "github.com/peregrine-labs/scriptrag/internal/repository/index"
	openaiTransport "github.com/peregrine-labs/scriptrag/internal/transport/openai"
	answeruc "github.com/peregrine-labs/scriptrag/internal/usecase/answer"
	healthuc "github.com/peregrine-labs/scriptrag/internal/usecase/health"
	ingestuc "github.com/peregrine-labs/scriptrag/internal/usecase/ingest"
	retrievaluc "github.com/peregrine-labs/scriptrag/internal/usecase/retrieval"
)

func main() {
	cli.SetConnect(connect)

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// connect wires the services against the configured Redis and providers.
// Called lazily, only by commands that touch the backend.
func connect() (cli.Services, error) {
	cfg, err := config.Load(config.GetEnv())
	if err != nil {
		return cli.Services{}, fmt.Errorf("load config: %w", err)
	}

	store, err := dbRedis.NewStore(dbRedis.Config{
		Addrs:    cfg.Database.Addrs,
		Username: cfg.Database.Username,
		Password: cfg.Database.Password,
		DB:       cfg.Database.DB,
	})
	if err != nil {
		return cli.Services{}, fmt.Errorf("create redis store: %w", err)
	}

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return cli.Services{}, fmt.Errorf("redis not ready: %w", err)
	}

	// Command output goes to stdout; service logs stay quiet.
	logger := zap.NewNop()

	baseEmbedder := openaiTransport.NewEmbedder(&openaiTransport.Config{
		APIKey:     cfg.Embedding.APIKey,
		BaseURL:    cfg.Embedding.BaseURL,
		Model:      cfg.Embedding.Model,
		Dimensions: cfg.Embedding.Dimensions,
		Provider:   cfg.Embedding.Provider,
		Logger:     logger,
	})
	embedder := embcache.New(baseEmbedder, store, cfg.Embedding.Model, nil, logger)
	if cfg.Embedding.CacheTTL > 0 {
		embedder.WithTTL(time.Duration(cfg.Embedding.CacheTTL) * time.Second)
	}

	generator := openaiTransport.NewGenerator(&openaiTransport.GeneratorConfig{
		APIKey:      cfg.Chat.APIKey,
		BaseURL:     cfg.Chat.BaseURL,
		Model:       cfg.Chat.Model,
		Temperature: cfg.Chat.Temperature,
		MaxTokens:   cfg.Chat.MaxTokens,
		Provider:    cfg.Embedding.Provider,
		Logger:      logger,
	})

	indexRepo := indexrepo.New(store, indexrepo.Config{
		Dim:         cfg.Embedding.Dimensions,
		M:           cfg.Index.HNSWM,
		EFConstruct: cfg.Index.HNSWEFConstruct,
	})

	tokenizer := keywords.NewNgramTokenizer(cfg.Retrieval.Lexicon...)
	extractor := keywords.New(tokenizer,
		keywords.WithNumericTolerance(cfg.Retrieval.NumericTolerance))

	retrievalSvc := retrievaluc.New(embedder, indexRepo, extractor, retrievaluc.Config{
		TopK:            cfg.Retrieval.TopK,
		ScoreThreshold:  cfg.Retrieval.ScoreThreshold,
		VectorWeight:    cfg.Retrieval.VectorWeight,
		KeywordWeight:   cfg.Retrieval.KeywordWeight,
		FetchMultiplier: cfg.Retrieval.FetchMultiplier,
	}, logger)

	ingestSvc := ingestuc.New(embedder, indexRepo, ingestuc.Config{
		Chunking: chunker.Config{
			MaxSize: cfg.Chunking.MaxSize,
			MinSize: cfg.Chunking.MinSize,
			Overlap: cfg.Chunking.Overlap,
		},
		EmbedBatchSize: cfg.Index.EmbedBatchSize,
		EmbedWorkers:   cfg.Index.EmbedWorkers,
	}, logger)

	answerSvc := answeruc.New(retrievalSvc, generator, answeruc.Config{
		MaxContextRunes: cfg.Chat.MaxContextRunes,
	}, logger)

	return cli.Services{
		Retrieval: retrievalSvc,
		Ingest:    ingestSvc,
		Answer:    answerSvc,
		Health:    healthuc.New(store, baseEmbedder),
		Cleanup:   store.Close,
	}, nil
}
