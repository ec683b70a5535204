package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ramonehamilton/mtg-deck-advisor/internal/storage/models"
)

// EmbeddingRepository handles card embedding operations.
type EmbeddingRepository interface {
	UpsertEmbedding(ctx context.Context, embedding *models.CardEmbedding) error
	GetEmbedding(ctx context.Context, cardID string) (*models.CardEmbedding, error)
	GetAllEmbeddings(ctx context.Context) ([]*models.CardEmbedding, error)
	GetEmbeddingCount(ctx context.Context) (int, error)
}

type embeddingRepo struct {
	db *sql.DB
}

// NewEmbeddingRepository creates a new embedding repository.
func NewEmbeddingRepository(db *sql.DB) EmbeddingRepository {
	return &embeddingRepo{db: db}
}

// UpsertEmbedding inserts or updates a card embedding.
func (r *embeddingRepo) UpsertEmbedding(ctx context.Context, embedding *models.CardEmbedding) error {
	embeddingJSON, err := json.Marshal(embedding.Embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	query := `
		INSERT INTO card_embeddings (card_id, card_name, embedding, embedding_version, source, updated_at)
		VALUES (?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(card_id) DO UPDATE SET
			card_name = excluded.card_name,
			embedding = excluded.embedding,
			embedding_version = excluded.embedding_version,
			source = excluded.source,
			updated_at = CURRENT_TIMESTAMP
	`

	_, err = r.db.ExecContext(ctx, query,
		embedding.CardID, embedding.CardName, string(embeddingJSON),
		embedding.EmbeddingVersion, embedding.Source,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert embedding: %w", err)
	}

	return nil
}

// GetEmbedding retrieves an embedding by card id. It returns nil when absent.
func (r *embeddingRepo) GetEmbedding(ctx context.Context, cardID string) (*models.CardEmbedding, error) {
	query := `
		SELECT card_id, card_name, embedding, embedding_version, source, created_at, updated_at
		FROM card_embeddings
		WHERE card_id = ?
	`

	e, err := scanEmbedding(r.db.QueryRowContext(ctx, query, cardID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get embedding: %w", err)
	}
	return e, nil
}

// GetAllEmbeddings retrieves all embeddings ordered by card id.
func (r *embeddingRepo) GetAllEmbeddings(ctx context.Context) ([]*models.CardEmbedding, error) {
	query := `
		SELECT card_id, card_name, embedding, embedding_version, source, created_at, updated_at
		FROM card_embeddings
		ORDER BY card_id
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get all embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var embeddings []*models.CardEmbedding
	for rows.Next() {
		e, err := scanEmbedding(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan embedding: %w", err)
		}
		embeddings = append(embeddings, e)
	}

	return embeddings, rows.Err()
}

// GetEmbeddingCount returns the total number of embeddings.
func (r *embeddingRepo) GetEmbeddingCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM card_embeddings").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get embedding count: %w", err)
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEmbedding(row rowScanner) (*models.CardEmbedding, error) {
	var e models.CardEmbedding
	var embeddingJSON string

	if err := row.Scan(
		&e.CardID, &e.CardName, &embeddingJSON,
		&e.EmbeddingVersion, &e.Source, &e.CreatedAt, &e.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(embeddingJSON), &e.Embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
	}
	return &e, nil
}
