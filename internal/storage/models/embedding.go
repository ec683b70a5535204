// Package models holds the row types persisted by the repositories.
package models

import "time"

// EmbeddingSource indicates how the embedding was generated.
type EmbeddingSource string

const (
	EmbeddingSourceCharacteristics EmbeddingSource = "characteristics"
	EmbeddingSourceOracleText      EmbeddingSource = "oracle_text"
	EmbeddingSourceHybrid          EmbeddingSource = "hybrid"
)

// CardEmbedding is a vector embedding for a card, keyed by Scryfall id.
type CardEmbedding struct {
	CardID           string          `json:"cardId" db:"card_id"`
	CardName         string          `json:"cardName" db:"card_name"`
	Embedding        []float64       `json:"embedding" db:"-"` // Stored as JSON
	EmbeddingVersion int             `json:"embeddingVersion" db:"embedding_version"`
	Source           EmbeddingSource `json:"source" db:"source"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt        time.Time       `json:"updatedAt" db:"updated_at"`
}

// EmbeddingDimensions defines the size of the embedding vector.
const EmbeddingDimensions = 64

// EmbeddingVersion is the current version of the embedding algorithm.
// Increment this when the embedding generation logic changes.
const EmbeddingVersion = 1
