package repository

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/google/uuid"
)

// MemoryDimensionsRepo backs master data when the DB is disabled (local runs, tests).
type MemoryDimensionsRepo struct {
	mu      sync.RWMutex
	members map[domain.DimensionType]map[string]domain.DimensionMember
}

func NewMemoryDimensionsRepo() *MemoryDimensionsRepo {
	return &MemoryDimensionsRepo{members: map[domain.DimensionType]map[string]domain.DimensionMember{}}
}

var _ DimensionsRepository = (*MemoryDimensionsRepo)(nil)

func cloneMember(m domain.DimensionMember) *domain.DimensionMember {
	m.Attributes = copyAttributes(m.Attributes)
	if m.Description != nil {
		d := *m.Description
		m.Description = &d
	}
	return &m
}

func (r *MemoryDimensionsRepo) GetMember(_ context.Context, t domain.DimensionType, id string) (*domain.DimensionMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[t][id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMember(m), nil
}

func (r *MemoryDimensionsRepo) GetMemberByBusinessID(_ context.Context, t domain.DimensionType, businessID string) (*domain.DimensionMember, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var found *domain.DimensionMember
	for _, m := range r.members[t] {
		if m.BusinessID != businessID {
			continue
		}
		if found == nil || m.CreatedAt.Before(found.CreatedAt) {
			found = cloneMember(m)
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	return found, nil
}

func (r *MemoryDimensionsRepo) ListMembers(_ context.Context, t domain.DimensionType, filter DimensionFilter, page, size int) ([]*domain.DimensionMember, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(strings.TrimSpace(filter.Search))
	all := make([]*domain.DimensionMember, 0, len(r.members[t]))
	for _, m := range r.members[t] {
		if search != "" {
			desc := ""
			if m.Description != nil {
				desc = *m.Description
			}
			if !strings.Contains(strings.ToLower(m.BusinessID), search) && !strings.Contains(strings.ToLower(desc), search) {
				continue
			}
		}
		all = append(all, cloneMember(m))
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].BusinessID != all[j].BusinessID {
			return all[i].BusinessID < all[j].BusinessID
		}
		return all[i].ID < all[j].ID
	})

	page, size = normalizePage(page, size, 100)
	start, end := pageBounds(len(all), page, size)
	return all[start:end], len(all), nil
}

func (r *MemoryDimensionsRepo) CreateMember(_ context.Context, m *domain.DimensionMember) (string, error) {
	if !m.Type.Valid() {
		return "", fmt.Errorf("unknown dimension type: %s", m.Type)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(m), nil
}

// insertLocked stores a copy of m; r.mu must be held for writing.
func (r *MemoryDimensionsRepo) insertLocked(m *domain.DimensionMember) string {
	stored := *cloneMember(*m)
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	stored.CreatedAt, stored.UpdatedAt = now, now
	if r.members[m.Type] == nil {
		r.members[m.Type] = map[string]domain.DimensionMember{}
	}
	r.members[m.Type][stored.ID] = stored
	return stored.ID
}

func (r *MemoryDimensionsRepo) UpdateMember(_ context.Context, m *domain.DimensionMember) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.members[m.Type][m.ID]
	if !ok {
		return ErrNotFound
	}
	stored := *cloneMember(*m)
	stored.CreatedAt = cur.CreatedAt
	stored.UpdatedAt = time.Now()
	r.members[m.Type][m.ID] = stored
	return nil
}

// lookup is used by the memory facts repo to join rows without copying twice.
func (r *MemoryDimensionsRepo) lookup(t domain.DimensionType, id string) (*domain.DimensionMember, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[t][id]
	if !ok {
		return nil, false
	}
	return cloneMember(m), true
}
