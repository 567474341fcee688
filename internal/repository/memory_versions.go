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

// MemoryVersionsRepo keeps version history in memory and writes version
// members and copied rows into the shared memory dimension and fact repos.
// Lock order is facts, dims, then history.
type MemoryVersionsRepo struct {
	mu      sync.RWMutex
	history []domain.VersionStatusChange
	dims    *MemoryDimensionsRepo
	facts   *MemoryFactsRepo
}

func NewMemoryVersionsRepo(dims *MemoryDimensionsRepo, facts *MemoryFactsRepo) *MemoryVersionsRepo {
	return &MemoryVersionsRepo{dims: dims, facts: facts}
}

var _ VersionsRepository = (*MemoryVersionsRepo)(nil)

func (r *MemoryVersionsRepo) CreateVersion(_ context.Context, m *domain.DimensionMember, baseVersionID *string) (string, int, error) {
	if m.Type != domain.DimensionVersion {
		return "", 0, fmt.Errorf("member is a %s, not a version", m.Type)
	}
	if r.facts != nil && baseVersionID != nil {
		r.facts.mu.Lock()
		defer r.facts.mu.Unlock()
	}
	r.dims.mu.Lock()
	defer r.dims.mu.Unlock()

	id := r.dims.insertLocked(m)
	if baseVersionID == nil || r.facts == nil {
		return id, 0, nil
	}

	copies := []domain.FactRow{}
	for _, f := range r.facts.facts {
		if f.VersionID == nil || *f.VersionID != *baseVersionID {
			continue
		}
		c := f
		c.ID = uuid.NewString()
		target := id
		c.VersionID = &target
		now := time.Now()
		c.CreatedAt, c.UpdatedAt = now, now
		copies = append(copies, c)
	}
	for _, c := range copies {
		r.facts.facts[c.ID] = c
	}
	return id, len(copies), nil
}

func (r *MemoryVersionsRepo) ApplyStatusChange(_ context.Context, c *domain.VersionStatusChange) (string, error) {
	r.dims.mu.Lock()
	defer r.dims.mu.Unlock()
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.dims.members[domain.DimensionVersion][c.VersionID]
	if !ok {
		return "", ErrNotFound
	}
	v, err := domain.VersionFromMember(cur)
	if err != nil {
		return "", err
	}
	if v.Status != c.FromStatus {
		return "", ErrStatusConflict
	}
	// history rows mirror the NOT NULL columns of version_status_history
	if c.ChangedBy == "" || c.ToStatus == "" {
		return "", fmt.Errorf("failed to record version status change: changed_by and to_status are required")
	}

	stored := *c
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.ChangedAt.IsZero() {
		stored.ChangedAt = time.Now()
	}

	updated := *cloneMember(cur)
	updated.Attributes[domain.AttrVersionStatus] = string(c.ToStatus)
	updated.UpdatedAt = time.Now()
	r.dims.members[domain.DimensionVersion][c.VersionID] = updated
	r.history = append(r.history, stored)
	return stored.ID, nil
}

func (r *MemoryVersionsRepo) ListStatusChanges(_ context.Context, versionID string) ([]domain.VersionStatusChange, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.VersionStatusChange{}
	for _, c := range r.history {
		if c.VersionID == versionID {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ChangedAt.Before(out[j].ChangedAt) })
	return out, nil
}
