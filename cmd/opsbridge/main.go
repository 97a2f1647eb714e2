package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/okabe-dev/opsbridge/internal/config"
	"github.com/okabe-dev/opsbridge/internal/dispatch"
	"github.com/okabe-dev/opsbridge/internal/engine"
	"github.com/okabe-dev/opsbridge/internal/intent"
	"github.com/okabe-dev/opsbridge/internal/memory"
	"github.com/okabe-dev/opsbridge/internal/normalize"
	"github.com/okabe-dev/opsbridge/internal/plan"
	"github.com/okabe-dev/opsbridge/internal/router"
	"github.com/okabe-dev/opsbridge/internal/schema"
	"github.com/okabe-dev/opsbridge/internal/transport"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
)

func main() {
	// Load .env file if it exists (for development)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	log.Println("Starting opsbridge...")

	cfg := config.Load()
	log.Printf("Service: %s", cfg.ServiceName)
	log.Printf("NATS URL: %s", cfg.NatsURL)
	log.Printf("LLM provider: %s (%s)", cfg.LLMProvider, cfg.LLMModel)

	if cfg.LLMAPIKey == "" {
		log.Fatal("LLM_API_KEY environment variable is required")
	}

	// Action catalog: built-in set, optionally merged with a YAML file
	catalog, err := schema.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("Failed to load action catalog: %v", err)
	}
	registry := catalog.BuildRegistry()
	log.Printf("Action catalog loaded: %d actions, %d services", len(registry.Names()), len(catalog.Services))

	// Action engine: validate -> dispatch -> normalize
	dispatcher := dispatch.NewDispatcher(catalog.Services)
	defer dispatcher.CloseAll()
	eng := engine.New(registry, dispatcher, normalize.NewRegistry())

	// Session store for classifier context
	redisStore, err := memory.NewRedisStore(cfg.RedisURL, cfg.SessionTTL)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	sessions := memory.NewManager(redisStore)
	defer sessions.Close()
	log.Println("Session store connected")

	// LLM provider for the classifier fallback
	model, err := newModel(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize LLM provider: %v", err)
	}

	// Conversational router over the plan store
	planStore := plan.NewStore()
	rt := router.New(planStore, intent.NewClassifier(model), sessions, cfg.DefaultMode)
	log.Printf("Router initialized in %s mode", rt.Mode())

	// NATS surface
	natsTransport, err := transport.NewNATSTransport(cfg, rt, eng)
	if err != nil {
		log.Fatalf("Failed to initialize NATS transport: %v", err)
	}
	defer natsTransport.Close()

	if err := natsTransport.Start(); err != nil {
		log.Fatalf("Failed to start NATS transport: %v", err)
	}

	log.Println("opsbridge is running...")
	log.Printf("Chat subject: %s, action subject: %s", cfg.NatsChatSubject, cfg.NatsActionSubject)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)
	log.Println("Shutting down gracefully...")

	if err := natsTransport.Close(); err != nil {
		log.Printf("Error closing NATS transport: %v", err)
	}
	if err := sessions.Close(); err != nil {
		log.Printf("Error closing session store: %v", err)
	}
	dispatcher.CloseAll()

	log.Println("opsbridge stopped")
}

func newModel(cfg *config.Config) (llms.Model, error) {
	switch cfg.LLMProvider {
	case "openai":
		return openai.New(
			openai.WithToken(cfg.LLMAPIKey),
			openai.WithModel(cfg.LLMModel),
		)
	default:
		return anthropic.New(
			anthropic.WithToken(cfg.LLMAPIKey),
			anthropic.WithModel(cfg.LLMModel),
		)
	}
}
