package storage

import (
	"context"
	"sort"
	"sync"

	"github.com/yourusername/mobit-catalog/internal/domain/entity"
	"github.com/yourusername/mobit-catalog/internal/domain/repository"
)

type memoryActivityRepository struct {
	mu      sync.RWMutex
	actions []entity.Activity
	maxSize int
}

// NewMemoryActivityRepository in-memory activity log keeping the newest maxSize entries
func NewMemoryActivityRepository(maxSize int) repository.ActivityRepository {
	return &memoryActivityRepository{
		actions: []entity.Activity{},
		maxSize: maxSize,
	}
}

// LogAction appends one action
func (m *memoryActivityRepository) LogAction(ctx context.Context, action entity.Activity) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.actions = append(m.actions, action)
	if m.maxSize > 0 && len(m.actions) > m.maxSize {
		m.actions = m.actions[len(m.actions)-m.maxSize:]
	}
	return nil
}

// Recent newest actions first
func (m *memoryActivityRepository) Recent(ctx context.Context, limit int) ([]entity.Activity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := append([]entity.Activity(nil), m.actions...)
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Close is a no-op
func (m *memoryActivityRepository) Close() error {
	return nil
}
