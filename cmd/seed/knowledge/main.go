package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gopkg.in/yaml.v3"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/logger"
	"github.com/mansoorceksport/fitcoach/internal/repository"
)

type knowledgeFile struct {
	Chunks []domain.KnowledgeChunk `yaml:"chunks"`
}

// loadChunks decodes a knowledge file and drops entries without content.
func loadChunks(r io.Reader) ([]domain.KnowledgeChunk, error) {
	var file knowledgeFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge file: %w", err)
	}

	chunks := make([]domain.KnowledgeChunk, 0, len(file.Chunks))
	for _, c := range file.Chunks {
		c.Content = strings.TrimSpace(c.Content)
		if c.Content == "" {
			continue
		}
		c.Title = strings.TrimSpace(c.Title)
		chunks = append(chunks, c)
	}
	return chunks, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func main() {
	file := flag.String("file", "cmd/seed/knowledge/knowledge.yaml", "YAML file with coaching knowledge chunks")
	mongoURI := flag.String("mongo", getEnv("MONGODB_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	dbName := flag.String("db", getEnv("MONGODB_DATABASE", "fitcoach"), "Database name")
	dryRun := flag.Bool("dry-run", false, "Parse the file without writing")
	flag.Parse()

	log, err := logger.New(logger.Options{Mode: "development"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	f, err := os.Open(*file)
	if err != nil {
		log.Fatal("failed to open knowledge file", "file", *file, "error", err)
	}
	chunks, err := loadChunks(f)
	f.Close()
	if err != nil {
		log.Fatal("failed to load knowledge", "file", *file, "error", err)
	}
	log.Info("knowledge loaded", "file", *file, "chunks", len(chunks))
	if *dryRun {
		for _, c := range chunks {
			fmt.Printf("- %s (%s)\n", c.Title, strings.Join(c.Tags, ", "))
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(*mongoURI))
	if err != nil {
		log.Fatal("failed to connect to mongodb", "error", err)
	}
	defer client.Disconnect(context.Background())

	retriever := repository.NewMongoKnowledgeRetriever(client.Database(*dbName))
	if err := retriever.EnsureIndexes(ctx); err != nil {
		log.Fatal("failed to ensure knowledge index", "error", err)
	}
	written, err := retriever.Upsert(ctx, chunks)
	if err != nil {
		log.Fatal("failed to seed knowledge", "error", err)
	}
	log.Info("knowledge seeded", "written", written)
}
