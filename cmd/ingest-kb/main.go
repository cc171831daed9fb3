package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"time"

	"aidesk/internal/config"
	"aidesk/internal/database"
	"aidesk/internal/kb"
	"aidesk/internal/llm"
	"aidesk/internal/vector"
)

// Ingests text or markdown files into an organization's knowledge base.
func main() {
	orgID := flag.String("org", "", "organization id to ingest for")
	path := flag.String("path", "", "file or directory of .txt/.md documents")
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

	ingester, err := kb.NewIngester(model, vectors, knowledge, cfg.ChunkSize, cfg.ChunkOverlap, cfg.EmbeddingBatchSize)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to build ingester")
	}

	files, err := collectFiles(*path)
	if err != nil {
		logger.Fatal().Err(err).Str("path", *path).Msg("Failed to scan input path")
	}
	if len(files) == 0 {
		logger.Fatal().Str("path", *path).Msg("No .txt or .md files found")
	}

	ingested := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			logger.Error().Err(err).Str("file", file).Msg("Failed to read file, skipping")
			continue
		}

		title := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		result, err := ingester.IngestDocument(context.Background(), *orgID, "", title, string(content))
		if err != nil {
			logger.Error().Err(err).Str("file", file).Msg("Ingestion failed, skipping")
			continue
		}

		logger.Info().
			Str("file", file).
			Str("doc_id", result.DocID).
			Int("chunks", result.ChunkCount).
			Msg("Ingested document")
		ingested++
	}

	logger.Info().Int("documents", ingested).Int("skipped", len(files)-ingested).Msg("Knowledge base ingestion complete")
}

func collectFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(p)) {
		case ".txt", ".md":
			files = append(files, p)
		}
		return nil
	})
	return files, err
}
