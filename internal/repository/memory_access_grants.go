package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/google/uuid"
)

// MemoryAccessGrantsRepo is the in-memory AccessGrantsRepository.
type MemoryAccessGrantsRepo struct {
	mu     sync.RWMutex
	grants map[string]domain.AccessGrant
}

func NewMemoryAccessGrantsRepo() *MemoryAccessGrantsRepo {
	return &MemoryAccessGrantsRepo{grants: map[string]domain.AccessGrant{}}
}

var _ AccessGrantsRepository = (*MemoryAccessGrantsRepo)(nil)

func (r *MemoryAccessGrantsRepo) sorted(match func(domain.AccessGrant) bool, newestFirst bool) []domain.AccessGrant {
	out := []domain.AccessGrant{}
	for _, g := range r.grants {
		if match(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			if newestFirst {
				return out[i].CreatedAt.After(out[j].CreatedAt)
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *MemoryAccessGrantsRepo) ListGrantsByUser(_ context.Context, userID string) ([]domain.AccessGrant, error) {
	if userID == "" {
		return nil, fmt.Errorf("user_id is required")
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(func(g domain.AccessGrant) bool { return g.UserID == userID }, false), nil
}

func (r *MemoryAccessGrantsRepo) ListGrants(_ context.Context, filter AccessGrantsFilter, page, size int) ([]domain.AccessGrant, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := r.sorted(func(g domain.AccessGrant) bool {
		if filter.UserID != "" && g.UserID != filter.UserID {
			return false
		}
		if filter.DimensionType != "" && g.DimensionType != filter.DimensionType {
			return false
		}
		if filter.ApprovalStatus != "" && g.ApprovalStatus != filter.ApprovalStatus {
			return false
		}
		return true
	}, true)
	page, size = normalizePage(page, size, 100)
	start, end := pageBounds(len(all), page, size)
	return all[start:end], len(all), nil
}

func (r *MemoryAccessGrantsRepo) GetGrant(_ context.Context, id string) (*domain.AccessGrant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (r *MemoryAccessGrantsRepo) CreateGrant(_ context.Context, g *domain.AccessGrant) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *g
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.ApprovalStatus == "" {
		stored.ApprovalStatus = domain.ApprovalPending
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now()
	}
	r.grants[stored.ID] = stored
	return stored.ID, nil
}

func (r *MemoryAccessGrantsRepo) DecideGrant(_ context.Context, id string, status domain.ApprovalStatus, decidedBy string) (*domain.AccessGrant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.grants[id]
	if !ok || g.ApprovalStatus != domain.ApprovalPending {
		return nil, ErrNotFound
	}
	now := time.Now()
	by := decidedBy
	g.ApprovalStatus = status
	g.DecidedBy = &by
	g.DecidedAt = &now
	r.grants[id] = g
	return &g, nil
}
