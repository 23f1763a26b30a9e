package model

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// SQLiteRepository persists model portfolios in SQLite. Weight maps are stored
// as JSON columns; the table is created on construction if missing.
//
// It satisfies domain.ModelRepository, so the sleeve builder can run against
// either this or the in-memory store.
type SQLiteRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewSQLiteRepository creates the repository and ensures the schema exists.
func NewSQLiteRepository(db *sql.DB, log zerolog.Logger) (*SQLiteRepository, error) {
	r := &SQLiteRepository{
		db:  db,
		log: log.With().Str("repository", "model_portfolios").Logger(),
	}
	if err := r.initSchema(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRepository) initSchema() error {
	_, err := r.db.Exec(`
		CREATE TABLE IF NOT EXISTS model_portfolios (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			model_type TEXT NOT NULL,
			asset_allocation TEXT NOT NULL DEFAULT '{}',
			sector_allocation TEXT NOT NULL DEFAULT '{}',
			securities TEXT NOT NULL DEFAULT '{}',
			child_models TEXT NOT NULL DEFAULT '{}',
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create model_portfolios table: %w", err)
	}
	return nil
}

// Save validates and upserts a model.
func (r *SQLiteRepository) Save(m *domain.ModelPortfolio) error {
	if err := Validate(m); err != nil {
		return err
	}

	assetJSON, err := encodeWeights(m.AssetAllocation)
	if err != nil {
		return err
	}
	sectorJSON, err := encodeWeights(m.SectorAllocation)
	if err != nil {
		return err
	}
	securitiesJSON, err := encodeWeights(m.Securities)
	if err != nil {
		return err
	}
	childrenJSON, err := encodeWeights(m.ChildModels)
	if err != nil {
		return err
	}

	createdAt := m.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err = r.db.Exec(`
		INSERT INTO model_portfolios
			(id, name, description, model_type, asset_allocation,
			 sector_allocation, securities, child_models, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			model_type = excluded.model_type,
			asset_allocation = excluded.asset_allocation,
			sector_allocation = excluded.sector_allocation,
			securities = excluded.securities,
			child_models = excluded.child_models,
			updated_at = excluded.updated_at
	`, m.ID, m.Name, m.Description, string(m.ModelType), assetJSON,
		sectorJSON, securitiesJSON, childrenJSON, createdAt.Unix(), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to save model %s: %w", m.ID, err)
	}

	r.log.Debug().Str("model_id", m.ID).Msg("Saved model portfolio")
	return nil
}

// Get returns the model for the given ID, or a *domain.NotFoundError.
func (r *SQLiteRepository) Get(modelID string) (*domain.ModelPortfolio, error) {
	var m domain.ModelPortfolio
	var modelType string
	var assetJSON, sectorJSON, securitiesJSON, childrenJSON string
	var createdAt, updatedAt int64

	err := r.db.QueryRow(`
		SELECT id, name, description, model_type, asset_allocation,
		       sector_allocation, securities, child_models, created_at, updated_at
		FROM model_portfolios WHERE id = ?
	`, modelID).Scan(&m.ID, &m.Name, &m.Description, &modelType, &assetJSON,
		&sectorJSON, &securitiesJSON, &childrenJSON, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, domain.NewNotFound("model portfolio", modelID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model %s: %w", modelID, err)
	}

	m.ModelType = domain.ModelType(modelType)
	m.CreatedAt = time.Unix(createdAt, 0)
	m.UpdatedAt = time.Unix(updatedAt, 0)

	if m.AssetAllocation, err = decodeWeights(assetJSON); err != nil {
		return nil, fmt.Errorf("failed to decode asset allocation for %s: %w", modelID, err)
	}
	if m.SectorAllocation, err = decodeWeights(sectorJSON); err != nil {
		return nil, fmt.Errorf("failed to decode sector allocation for %s: %w", modelID, err)
	}
	if m.Securities, err = decodeWeights(securitiesJSON); err != nil {
		return nil, fmt.Errorf("failed to decode securities for %s: %w", modelID, err)
	}
	if m.ChildModels, err = decodeWeights(childrenJSON); err != nil {
		return nil, fmt.Errorf("failed to decode child models for %s: %w", modelID, err)
	}

	return &m, nil
}

// Delete removes a model. Idempotent.
func (r *SQLiteRepository) Delete(modelID string) error {
	_, err := r.db.Exec("DELETE FROM model_portfolios WHERE id = ?", modelID)
	if err != nil {
		return fmt.Errorf("failed to delete model %s: %w", modelID, err)
	}
	return nil
}

// ListIDs returns the IDs of all stored models.
func (r *SQLiteRepository) ListIDs() ([]string, error) {
	rows, err := r.db.Query("SELECT id FROM model_portfolios ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			r.log.Warn().Err(err).Msg("Failed to scan model row")
			continue
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating models: %w", err)
	}
	return ids, nil
}

func encodeWeights(weights map[string]float64) (string, error) {
	if weights == nil {
		return "{}", nil
	}
	data, err := json.Marshal(weights)
	if err != nil {
		return "", fmt.Errorf("failed to encode weights: %w", err)
	}
	return string(data), nil
}

func decodeWeights(data string) (map[string]float64, error) {
	weights := make(map[string]float64)
	if err := json.Unmarshal([]byte(data), &weights); err != nil {
		return nil, err
	}
	return weights, nil
}
