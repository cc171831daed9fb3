package main

import (
	"context"
	"flag"
	"strings"

	"aidesk/internal/config"
	"aidesk/internal/database"
	"aidesk/internal/mail"
	"aidesk/internal/models"
	"aidesk/internal/ticketing"
)

// Imports historical email archives (EML directories or MBOX files)
// into the ticket system. Messages are threaded exactly like live
// inbound mail but no AI processing runs.
func main() {
	orgID := flag.String("org", "", "organization id to import into")
	path := flag.String("path", "", "EML directory or .mbox file")
	batchSize := flag.Int("batch", 100, "MBOX parse batch size")
	flag.Parse()

	cfg := config.Load()
	logger := cfg.SetupLogger()

	if *orgID == "" || *path == "" {
		logger.Fatal().Msg("Both -org and -path are required")
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Database connection failed")
	}

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

	tm, err := ticketing.New(tickets, chats, profiles, logs, cfg.ReopenGraceDays)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build ticketing manager")
	}

	ctx := context.Background()
	imported := 0
	failed := 0

	importBatch := func(batch []*models.InboundMessage) error {
		for _, msg := range batch {
			if msg.MessageID == "" {
				failed++
				continue
			}
			if _, err := tm.HandleInboundEmail(ctx, *orgID, msg); err != nil {
				logger.Error().Err(err).Str("message_id", msg.MessageID).Msg("Failed to import message")
				failed++
				continue
			}
			imported++
		}
		return nil
	}

	if strings.HasSuffix(strings.ToLower(*path), ".mbox") {
		if err := mail.ParseMBOXFileStreaming(*path, *batchSize, importBatch); err != nil {
			logger.Fatal().Err(err).Msg("MBOX import failed")
		}
	} else {
		messages, err := mail.ParseDirectory(*path)
		if err != nil {
			logger.Fatal().Err(err).Msg("EML import failed")
		}
		if err := importBatch(messages); err != nil {
			logger.Fatal().Err(err).Msg("EML import failed")
		}
	}

	logger.Info().Int("imported", imported).Int("failed", failed).Msg("Email import complete")
}
