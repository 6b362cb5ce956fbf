package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"kindred-match/internal/config"
	"kindred-match/internal/db"
	"kindred-match/internal/domain"
	"kindred-match/internal/embedding"
	"kindred-match/internal/repository"
	"kindred-match/internal/service"

	"github.com/joho/godotenv"
	pgvector "github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
)

// Herramienta de backfill: genera embeddings para las entidades de contenido
// que aun no tienen vector. Pensada para correr tras cargas de catalogo.
func main() {
	batch := flag.Int("batch", 100, "maximum entities to embed per run")
	flag.Parse()

	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	entityRepo := repository.NewPgEntityRepository(pool)
	provider := embedding.NewHTTPClient(cfg.EmbeddingBaseURL, cfg.EmbeddingAPIKey, cfg.EmbeddingModel, zap.NewStdLog(logger))

	entities, err := entityRepo.ListMissingEmbeddings(ctx, *batch)
	if err != nil {
		logger.Fatal("list missing embeddings", zap.Error(err))
	}
	if len(entities) == 0 {
		logger.Info("nothing to backfill")
		return
	}

	done := 0
	for _, entity := range entities {
		vec, err := provider.Embed(ctx, entityText(entity))
		if err != nil {
			logger.Warn("embed failed", zap.Error(err), zap.String("entity_id", entity.ID.String()))
			continue
		}
		if !service.IsValidEmbedding(vec) {
			logger.Warn("embed returned wrong dimension",
				zap.Int("got", len(vec)), zap.String("entity_id", entity.ID.String()))
			continue
		}
		if err := entityRepo.UpdateEmbedding(ctx, entity.ID, pgvector.NewVector(vec)); err != nil {
			logger.Warn("update embedding failed", zap.Error(err), zap.String("entity_id", entity.ID.String()))
			continue
		}
		done++
	}

	logger.Info("backfill finished", zap.Int("embedded", done), zap.Int("candidates", len(entities)))
}

// entityText arma el texto semantico de una entidad para el embedding.
func entityText(e domain.ContentEntity) string {
	parts := []string{e.Name}
	if e.Category != "" {
		parts = append(parts, e.Category)
	}
	parts = append(parts, e.Tags...)
	if e.Description != "" {
		parts = append(parts, e.Description)
	}
	return strings.Join(parts, ", ")
}
