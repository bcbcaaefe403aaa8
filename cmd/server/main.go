package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kisaansetu/advisor/internal/api"
	"github.com/kisaansetu/advisor/internal/config"
	"github.com/kisaansetu/advisor/internal/core"
	"github.com/kisaansetu/advisor/internal/kcc"
	"github.com/kisaansetu/advisor/internal/session"
	"github.com/kisaansetu/advisor/internal/store"
)

func main() {
	config.LoadConfig()

	logger, err := newLogger(config.AppConfig.AppEnv)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	refreshFlag := flag.Bool("refresh", false, "Refetch the KCC dataset and rebuild embeddings before serving")
	dataFileFlag := flag.String("data-file", "", "Load KCC records from a local JSON file instead of the data.gov.in API")
	flag.Parse()

	ctx := context.Background()

	dbStore, err := store.NewSQLiteStore(config.AppConfig.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer dbStore.Close()

	llmService, err := core.NewLLMService(ctx, config.AppConfig.GeminiAPIKey, logger)
	if err != nil {
		logger.Fatal("failed to initialize LLM service", zap.Error(err))
	}
	defer llmService.Close()

	corpus, err := loadCorpus(ctx, logger, dbStore, llmService, *refreshFlag, *dataFileFlag)
	if err != nil {
		logger.Fatal("failed to prepare KCC corpus", zap.Error(err))
	}
	logger.Info("KCC corpus ready", zap.Int("records", corpus.Len()))

	sessionTTL := time.Duration(config.AppConfig.SessionTTLMinutes) * time.Minute
	sessions := session.NewStore(sessionTTL)

	retriever := core.NewRetriever(llmService, config.AppConfig.RetrievalTopN, config.AppConfig.RetrievalThreshold)
	advisor := core.NewAdvisorService(
		retriever,
		llmService,
		sessions,
		corpus,
		time.Duration(config.AppConfig.GenerateTimeoutSec)*time.Second,
		logger,
	)

	apiHandler := api.NewAPIHandler(advisor, logger)
	router := api.NewRouter(apiHandler)

	serverAddr := fmt.Sprintf(":%s", config.AppConfig.HTTPPort)

	srv := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // generation calls can take a while
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("addr", serverAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited gracefully")
}

func newLogger(appEnv string) (*zap.Logger, error) {
	if appEnv == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// loadCorpus prepares the embedded corpus: from the SQLite embedding
// cache when possible, otherwise by fetching the dataset and embedding
// it in one batch. refresh forces a refetch. Any failure here is fatal
// to startup; the service never runs on a partial corpus.
func loadCorpus(ctx context.Context, logger *zap.Logger, dbStore *store.SQLiteStore, llmService *core.LLMService, refresh bool, dataFile string) (*core.EmbeddedCorpus, error) {
	cached, err := dbStore.CountRecords()
	if err != nil {
		return nil, err
	}

	if cached > 0 && !refresh {
		records, vectors, err := dbStore.LoadCorpus()
		if err != nil {
			return nil, err
		}
		logger.Info("loaded corpus from embedding cache", zap.Int("records", len(records)))
		return core.NewEmbeddedCorpus(records, vectors)
	}

	var records []core.Record
	if dataFile != "" {
		logger.Info("loading KCC records from file", zap.String("path", dataFile))
		records, err = kcc.LoadFromFile(dataFile)
	} else {
		logger.Info("fetching KCC records from data.gov.in", zap.Int("limit", config.AppConfig.CorpusLimit))
		loader := kcc.NewLoader(config.AppConfig.DataGovAPIKey)
		records, err = loader.Fetch(ctx, config.AppConfig.CorpusLimit)
	}
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no KCC records loaded")
	}

	logger.Info("embedding KCC records", zap.Int("records", len(records)))
	corpus, err := core.BuildEmbeddedCorpus(ctx, llmService, records)
	if err != nil {
		return nil, err
	}

	if err := dbStore.SaveCorpus(corpus.Columns()); err != nil {
		// The corpus itself is fine; losing the cache only costs a
		// re-embed on next start.
		logger.Warn("failed to persist embedding cache", zap.Error(err))
	}

	return corpus, nil
}
