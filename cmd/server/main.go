package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bookchat-backend/internal/config"
	"bookchat-backend/internal/handlers"
	"bookchat-backend/internal/router"
	"bookchat-backend/internal/services"
)

func main() {
	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()

	logger := newLogger(cfg.Env)
	defer logger.Sync()
	logger.Info("environment loaded", zap.String("env", cfg.Env))

	// ──── Step 2: Initialize Cohere Client ────
	cohere := services.NewCohereService(
		cfg.CohereAPIKey,
		cfg.CohereBaseURL,
		cfg.CohereEmbedModel,
		cfg.CohereChatModel,
		cfg.UpstreamTimeout,
		logger,
	)
	logger.Info("Cohere client initialized",
		zap.String("embed_model", cfg.CohereEmbedModel),
		zap.String("chat_model", cfg.CohereChatModel))

	// ──── Step 3: Initialize Vector Store ────
	var retriever services.Retriever
	switch cfg.VectorStore {
	case "local":
		store, err := services.OpenLocalStore(cfg.LocalStorePath, cfg.QdrantCollection, logger)
		if err != nil {
			logger.Fatal("local vector store failed to load", zap.Error(err))
		}
		retriever = store
		logger.Info("local vector store loaded", zap.String("path", cfg.LocalStorePath))
	default:
		retriever = services.NewQdrantService(
			cfg.QdrantURL,
			cfg.QdrantAPIKey,
			cfg.QdrantCollection,
			cfg.UpstreamTimeout,
			logger,
		)
		logger.Info("Qdrant client initialized",
			zap.String("collection", cfg.QdrantCollection))
	}

	// ──── Step 4: Wire Orchestrator and Routes ────
	rag := services.NewRAGService(cohere, retriever, cohere, cfg.TopK, logger)
	chatHandler := handlers.NewChatHandler(rag)
	r := router.New(chatHandler, cfg.FrontendURL)

	// A request makes up to two sequential upstream calls; the write
	// timeout must outlast both.
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 2*cfg.UpstreamTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("shutting down")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	logger.Info("server ready", zap.String("addr", "http://localhost:"+cfg.Port))
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		logger.Fatal("server error", zap.Error(err))
	}
}

func newLogger(env string) *zap.Logger {
	if env == "development" || env == "dev" {
		logger, err := zap.NewDevelopment()
		if err != nil {
			panic(err)
		}
		return logger
	}
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	return logger
}
