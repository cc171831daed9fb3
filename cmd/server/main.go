package main

import (
	"context"
	"time"

	"aidesk/internal/classifier"
	"aidesk/internal/config"
	"aidesk/internal/database"
	"aidesk/internal/email"
	"aidesk/internal/factcheck"
	"aidesk/internal/kb"
	"aidesk/internal/llm"
	"aidesk/internal/pipeline"
	"aidesk/internal/rag"
	"aidesk/internal/server"
	"aidesk/internal/ticketing"
	"aidesk/internal/vector"

	"github.com/rs/zerolog"
)

func main() {
	cfg := config.Load()
	logger := cfg.SetupLogger()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}
	logger.Info().Msg("Database connection established")

	tickets, err := database.NewTicketStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize ticket store")
	}
	chats, err := database.NewChatStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize chat store")
	}
	profiles, err := database.NewProfileStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize profile store")
	}
	logs, err := database.NewEmailLogStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize email log store")
	}
	knowledge, err := database.NewKnowledgeStore(db)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize knowledge store")
	}

	model, err := llm.NewClient(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize OpenAI client")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	vectors, err := vector.NewQdrantStore(ctx, cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantCollection)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to vector store")
	}

	deps, err := buildServices(cfg, model, vectors, tickets, chats, profiles, logs, knowledge, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build services")
	}
	deps.DB = db

	srv := server.New(cfg, logger, deps)
	srv.Initialize()

	if err := srv.Start(); err != nil {
		logger.Fatal().Err(err).Msg("Server failed to start")
	}
}

func buildServices(cfg *config.Config, model *llm.Client, vectors vector.Store,
	tickets *database.TicketStore, chats *database.ChatStore, profiles *database.ProfileStore,
	logs *database.EmailLogStore, knowledge *database.KnowledgeStore, logger zerolog.Logger) (server.Deps, error) {

	cls, err := classifier.New(model)
	if err != nil {
		return server.Deps{}, err
	}

	checker, err := factcheck.New(model)
	if err != nil {
		return server.Deps{}, err
	}

	generator, err := rag.New(model, model, vectors, checker, cfg.OrgName, cfg.RagTopK, cfg.SimilarityFloor)
	if err != nil {
		return server.Deps{}, err
	}

	tm, err := ticketing.New(tickets, chats, profiles, logs, cfg.ReopenGraceDays)
	if err != nil {
		return server.Deps{}, err
	}

	sender := email.NewEmailService(cfg.SendGridAPIKey, cfg.SupportName, cfg.SupportEmail)

	processor, err := pipeline.NewProcessor(cls, generator, chats, logs, tm, sender, cfg.SupportName, cfg.AutoSendThreshold)
	if err != nil {
		return server.Deps{}, err
	}

	ingester, err := kb.NewIngester(model, vectors, knowledge, cfg.ChunkSize, cfg.ChunkOverlap, cfg.EmbeddingBatchSize)
	if err != nil {
		return server.Deps{}, err
	}

	logger.Info().Msg("Services initialized")

	return server.Deps{
		Processor: processor,
		Generator: generator,
		Ingester:  ingester,
		Tickets:   tickets,
		Chats:     chats,
		Logs:      logs,
	}, nil
}
