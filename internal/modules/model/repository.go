package model

import (
	"sync"

	"github.com/aristath/loom/internal/domain"
	"github.com/rs/zerolog"
)

// MemoryRepository is an in-process model store. Registration validates the
// model and rejects reference cycles over the children already known; forward
// references to models registered later are allowed.
type MemoryRepository struct {
	mu     sync.RWMutex
	models map[string]*domain.ModelPortfolio
	log    zerolog.Logger
}

// NewMemoryRepository creates an empty in-memory model repository.
func NewMemoryRepository(log zerolog.Logger) *MemoryRepository {
	return &MemoryRepository{
		models: make(map[string]*domain.ModelPortfolio),
		log:    log.With().Str("component", "model_repository").Logger(),
	}
}

// Register validates and stores a model. A model whose child chain reaches
// back to itself through already-registered models is rejected with a
// structure error.
func (r *MemoryRepository) Register(m *domain.ModelPortfolio) error {
	if err := Validate(m); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.checkCycle(m); err != nil {
		return err
	}

	r.models[m.ID] = m.Clone()
	r.log.Debug().
		Str("model_id", m.ID).
		Str("model_type", string(m.ModelType)).
		Int("securities", len(m.Securities)).
		Int("children", len(m.ChildModels)).
		Msg("Registered model portfolio")
	return nil
}

// checkCycle walks the child graph from m over the models currently known.
// Registered models are already acyclic among themselves, so a new cycle can
// only pass through m itself. Callers hold the lock.
func (r *MemoryRepository) checkCycle(m *domain.ModelPortfolio) error {
	visited := make(map[string]bool)
	stack := make([]string, 0, len(m.ChildModels))
	for childID := range m.ChildModels {
		stack = append(stack, childID)
	}

	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if id == m.ID {
			return domain.NewModelError(domain.ModelErrorInvalidStructure,
				"model %s would create a reference cycle", m.ID)
		}
		if visited[id] {
			continue
		}
		visited[id] = true
		child, ok := r.models[id]
		if !ok {
			continue
		}
		for grandchildID := range child.ChildModels {
			stack = append(stack, grandchildID)
		}
	}
	return nil
}

// Get returns a copy of the stored model, or a *domain.NotFoundError.
func (r *MemoryRepository) Get(modelID string) (*domain.ModelPortfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.models[modelID]
	if !ok {
		return nil, domain.NewNotFound("model portfolio", modelID)
	}
	return m.Clone(), nil
}

// List returns all registered model IDs.
func (r *MemoryRepository) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.models))
	for id := range r.models {
		ids = append(ids, id)
	}
	return ids
}
