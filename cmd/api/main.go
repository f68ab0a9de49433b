package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	einoEmbedding "github.com/cloudwego/eino/components/embedding"
	"github.com/joho/godotenv"

	"github.com/saarthi/companion/backend/internal/config"
	"github.com/saarthi/companion/backend/internal/handler"
	"github.com/saarthi/companion/backend/internal/model/persona"
	"github.com/saarthi/companion/backend/internal/retrieval"
	"github.com/saarthi/companion/backend/internal/service/ai"
	"github.com/saarthi/companion/backend/internal/service/chat"
	"github.com/saarthi/companion/backend/internal/service/embedding"
	"github.com/saarthi/companion/backend/internal/service/prompt"
	"github.com/saarthi/companion/backend/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	personaStore := persona.NewMemoryStore(persona.Seed())

	sessionStore, err := store.NewFileStore(cfg.Storage.SessionsDir)
	if err != nil {
		log.Fatalf("failed to open chat session store: %v", err)
	}

	embedder, err := newEmbedder(cfg.Retrieval)
	if err != nil {
		log.Fatalf("failed to initialize embedder: %v", err)
	}

	index, err := retrieval.Load(ctx, cfg.Retrieval.IndexPath)
	if err != nil {
		log.Fatalf("failed to load vector index: %v", err)
	}
	log.Printf("vector index loaded: %d passages, dim=%d", index.Len(), index.Dim())

	if !cfg.AI.Enabled() {
		log.Fatalf("AI provider %q is missing credentials or model configuration", cfg.AI.Provider)
	}
	generator, err := ai.NewGenerator(ctx, cfg.AI)
	if err != nil {
		log.Fatalf("failed to initialize AI service: %v", err)
	}
	log.Printf("AI service initialized, provider=%s", cfg.AI.Provider)

	chatService := chat.NewService(
		sessionStore,
		retrieval.NewRetriever(embedder, index, cfg.Retrieval.TopK),
		prompt.NewAssembler(personaStore, cfg.Chat.HistoryLimit),
		generator,
		personaStore,
	)

	router := handler.NewRouter(personaStore, chatService, cfg.Server.CORSOrigins)

	startServer(ctx, cfg.Server, router)
}

func newEmbedder(cfg config.RetrievalConfig) (einoEmbedding.Embedder, error) {
	if cfg.Embedder == config.EmbedderOllama {
		return embedding.NewOllama(cfg.EmbeddingBaseURL, cfg.EmbeddingModel), nil
	}
	embedder, err := embedding.NewOpenAI(embedding.OpenAIConfig{
		APIKey:  cfg.EmbeddingAPIKey,
		BaseURL: cfg.EmbeddingBaseURL,
		Model:   cfg.EmbeddingModel,
	})
	if err != nil {
		return nil, err
	}
	return embedder, nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Saarthi backend listening on %s", addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
