package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/google/uuid"
)

type MemoryBusinessRulesRepo struct {
	mu    sync.RWMutex
	rules map[string]domain.BusinessRule
}

func NewMemoryBusinessRulesRepo() *MemoryBusinessRulesRepo {
	return &MemoryBusinessRulesRepo{rules: map[string]domain.BusinessRule{}}
}

var _ BusinessRulesRepository = (*MemoryBusinessRulesRepo)(nil)

func (r *MemoryBusinessRulesRepo) ListRules(_ context.Context, filter RulesFilter) ([]domain.BusinessRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.BusinessRule{}
	for _, rule := range r.rules {
		if filter.ActiveOnly && !rule.IsActive {
			continue
		}
		if filter.DimensionType != "" && (rule.DimensionType == nil || *rule.DimensionType != filter.DimensionType) {
			continue
		}
		if filter.RuleType != "" && rule.RuleType != filter.RuleType {
			continue
		}
		out = append(out, rule)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *MemoryBusinessRulesRepo) GetRule(_ context.Context, id string) (*domain.BusinessRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &rule, nil
}

func (r *MemoryBusinessRulesRepo) CreateRule(_ context.Context, rule *domain.BusinessRule) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *rule
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	r.rules[stored.ID] = stored
	return stored.ID, nil
}

func (r *MemoryBusinessRulesRepo) UpdateRule(_ context.Context, rule *domain.BusinessRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rules[rule.ID]
	if !ok {
		return ErrNotFound
	}
	stored := *rule
	stored.CreatedAt = cur.CreatedAt
	stored.CreatedBy = cur.CreatedBy
	stored.UpdatedAt = time.Now()
	r.rules[rule.ID] = stored
	return nil
}

func (r *MemoryBusinessRulesRepo) DeleteRule(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rules[id]; !ok {
		return ErrNotFound
	}
	delete(r.rules, id)
	return nil
}
