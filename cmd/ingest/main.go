// Command ingest loads a documentation directory into the vector
// store the chat server queries. It chunks markdown, text and PDF
// files, embeds every chunk with Cohere and upserts the results.
//
//	ingest [-recreate] [-store qdrant|local] <docs-path>
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bookchat-backend/internal/config"
	"bookchat-backend/internal/ingest"
	"bookchat-backend/internal/services"
)

// embed-english-v3.0 produces 1024-dimension vectors.
const vectorSize = 1024

func main() {
	recreate := flag.Bool("recreate", false, "drop and recreate the collection before ingesting")
	store := flag.String("store", "", "target store: qdrant or local (default: VECTOR_STORE env)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <docs-path>\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	docsPath := flag.Arg(0)

	cfg := config.Load()
	if *store == "" {
		*store = cfg.VectorStore
	}

	logger, err := zap.NewDevelopment()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cohere := services.NewCohereService(
		cfg.CohereAPIKey,
		cfg.CohereBaseURL,
		cfg.CohereEmbedModel,
		cfg.CohereChatModel,
		cfg.UpstreamTimeout,
		logger,
	)

	var writer ingest.VectorWriter
	switch *store {
	case "local":
		localStore, err := services.NewEmptyLocalStore(cfg.LocalStorePath, cfg.QdrantCollection, logger)
		if err != nil {
			logger.Fatal("creating local store", zap.Error(err))
		}
		writer = ingest.NewLocalWriter(localStore)
		logger.Info("ingesting into local store", zap.String("path", cfg.LocalStorePath))
	case "qdrant":
		qdrant := services.NewQdrantService(
			cfg.QdrantURL,
			cfg.QdrantAPIKey,
			cfg.QdrantCollection,
			cfg.UpstreamTimeout,
			logger,
		)
		if *recreate {
			if err := qdrant.RecreateCollection(ctx, vectorSize); err != nil {
				logger.Fatal("recreating collection", zap.Error(err))
			}
		} else if err := qdrant.EnsureCollection(ctx, vectorSize); err != nil {
			logger.Fatal("ensuring collection", zap.Error(err))
		}
		writer = ingest.NewQdrantWriter(qdrant)
		logger.Info("ingesting into Qdrant", zap.String("collection", cfg.QdrantCollection))
	default:
		logger.Fatal("unknown store", zap.String("store", *store))
	}

	ingester := ingest.NewIngester(cohere, writer, logger)
	written, err := ingester.Run(ctx, docsPath)
	if err != nil {
		logger.Fatal("ingestion failed", zap.Int("chunks_written", written), zap.Error(err))
	}
}
