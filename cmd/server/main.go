// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Command server starts the Ganoderma knowledge-graph API server.
//
// The server answers natural-language questions about the genomics graph,
// synthesizes Cypher for visualization updates, and materializes query
// results into renderable node/edge sets.
//
// Usage:
//
//	go run ./cmd/server
//	go run ./cmd/server -port 9090
//
// With a local Ollama model:
//
//	OLLAMA_MODEL=llama3.1 go run ./cmd/server
//
// With an OpenAI-compatible provider:
//
//	LLM_PROVIDER=openai OPENAI_API_KEY=... go run ./cmd/server
//
// Example requests:
//
//	# Health check
//	curl http://localhost:8080/api/health
//
//	# Ask a question
//	curl -X POST http://localhost:8080/api/chat \
//	  -H "Content-Type: application/json" \
//	  -d '{"message": "Which effector genes are found in the Cameroon isolate?", "scope": "GLOBAL"}'
//
//	# Materialize a Cypher query
//	curl -X POST http://localhost:8080/api/graph/query \
//	  -H "Content-Type: application/json" \
//	  -d '{"cypher": "MATCH p=(g:Gene)-[:FOUND_IN]->(i:Isolate) RETURN p LIMIT 50"}'
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/AleutianAI/GanodermaGraph/services/catalog"
	"github.com/AleutianAI/GanodermaGraph/services/graphstore"
	"github.com/AleutianAI/GanodermaGraph/services/llm"
	"github.com/AleutianAI/GanodermaGraph/services/rag"
)

// config is the environment-driven server configuration. A .env file in the
// working directory is loaded first when present.
type config struct {
	Neo4jURI      string `env:"NEO4J_URI" envDefault:"neo4j://localhost:7687"`
	Neo4jUser     string `env:"NEO4J_USER" envDefault:"neo4j"`
	Neo4jPassword string `env:"NEO4J_PASSWORD" envDefault:"neo4j"`
	Neo4jDatabase string `env:"NEO4J_DATABASE" envDefault:"neo4j"`
	LLMProvider   string `env:"LLM_PROVIDER" envDefault:"ollama"`
	SeedOnStart   bool   `env:"SEED_ON_START" envDefault:"true"`
}

func main() {
	port := flag.Int("port", 8080, "Port to listen on")
	debug := flag.Bool("debug", false, "Enable debug mode")
	flag.Parse()

	if *debug {
		gin.SetMode(gin.DebugMode)
		slog.SetLogLoggerLevel(slog.LevelDebug)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded configuration from .env file")
	}

	var cfg config
	if err := env.Parse(&cfg); err != nil {
		slog.Error("Failed to parse environment configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// W3C TraceContext propagation so trace ids flow from inbound headers
	// through all handlers and external calls.
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	store, err := graphstore.NewExecutor(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword, cfg.Neo4jDatabase)
	if err != nil {
		slog.Error("Failed to create graph store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	verifyCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := store.Verify(verifyCtx); err != nil {
		cancel()
		slog.Error("Graph store unreachable",
			slog.String("uri", cfg.Neo4jURI),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	cancel()
	slog.Info("Graph store connected", slog.String("uri", cfg.Neo4jURI))

	llmClient, err := newLLMClient(cfg.LLMProvider)
	if err != nil {
		slog.Error("Failed to create LLM client",
			slog.String("provider", cfg.LLMProvider),
			slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("LLM provider connected", slog.String("provider", llmClient.Name()))

	repo := catalog.NewRepository(store)
	if cfg.SeedOnStart {
		seedCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		if err := repo.Seed(seedCtx); err != nil {
			slog.Warn("Seeding failed, continuing with existing data", slog.String("error", err.Error()))
		}
		cancel()
	}

	svc := rag.NewService(llmClient, repo, store)
	handlers := rag.NewHandlers(svc, repo)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("ganoderma-graph"))
	if *debug {
		router.Use(gin.Logger())
	}

	api := router.Group("/api")
	rag.RegisterRoutes(api, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	printBanner(*port, llmClient.Name())

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		slog.Info("Shutting down Ganoderma Graph server")
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := store.Close(closeCtx); err != nil {
			slog.Warn("Failed to close graph store", slog.String("error", err.Error()))
		}
		cancel()
		os.Exit(0)
	}()

	addr := fmt.Sprintf(":%d", *port)
	slog.Info("Starting Ganoderma Graph server", slog.String("address", addr))
	if err := router.Run(addr); err != nil {
		slog.Error("Failed to start server", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLLMClient builds the configured completion provider.
func newLLMClient(provider string) (llm.Client, error) {
	switch provider {
	case "openai":
		return llm.NewOpenAIClient()
	case "anthropic":
		return llm.NewAnthropicClient()
	case "gemini":
		return llm.NewGeminiClient()
	case "ollama", "":
		return llm.NewOllamaClient()
	default:
		return nil, fmt.Errorf("unknown LLM provider %q (want ollama, openai, anthropic, or gemini)", provider)
	}
}

func printBanner(port int, provider string) {
	banner := `
╔════════════════════════════════════════════════════════════╗
║                 GANODERMA GRAPH SERVER                     ║
╠════════════════════════════════════════════════════════════╣
║  Knowledge-graph RAG over Ganoderma genomics.              ║
║  LLM provider: %-43s ║
║                                                            ║
║  Quick start:                                              ║
║    curl http://localhost:%-5d/api/health                  ║
║    curl http://localhost:%-5d/api/dashboard/stats         ║
║                                                            ║
║  Press Ctrl+C to stop                                      ║
╚════════════════════════════════════════════════════════════╝
`
	fmt.Printf(banner, provider, port, port)
}
