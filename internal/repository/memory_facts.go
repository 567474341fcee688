package repository

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"

	"github.com/google/uuid"
)

// MemoryFactsRepo keeps planned data in memory and joins against a MemoryDimensionsRepo.
type MemoryFactsRepo struct {
	mu    sync.RWMutex
	facts map[string]domain.FactRow
	dims  *MemoryDimensionsRepo
}

func NewMemoryFactsRepo(dims *MemoryDimensionsRepo) *MemoryFactsRepo {
	return &MemoryFactsRepo{facts: map[string]domain.FactRow{}, dims: dims}
}

var _ FactsRepository = (*MemoryFactsRepo)(nil)

func (r *MemoryFactsRepo) ListJoined(_ context.Context, q FactQuery) ([]domain.JoinedRow, error) {
	for _, term := range q.OrderBy {
		if term.Dimension == "" && !IsFactOrderColumn(term.Column) {
			return nil, fmt.Errorf("cannot order by fact column %q", term.Column)
		}
	}

	allowed := make(map[domain.DimensionType]map[string]bool, len(q.Constraints))
	for t, ids := range q.Constraints {
		set := make(map[string]bool, len(ids))
		for _, id := range ids {
			set[id] = true
		}
		allowed[t] = set
	}

	r.mu.RLock()
	rows := make([]domain.JoinedRow, 0, len(r.facts))
	for _, f := range r.facts {
		visible := true
		for t, set := range allowed {
			if k := f.Key(t); k != nil && !set[*k] {
				visible = false
				break
			}
		}
		if !visible {
			continue
		}
		row := domain.JoinedRow{Fact: f, Dimensions: map[domain.DimensionType]*domain.DimensionMember{}}
		for _, e := range catalog.Entries() {
			k := f.Key(e.Type)
			if k == nil || r.dims == nil {
				continue
			}
			if m, ok := r.dims.lookup(e.Type, *k); ok {
				row.Dimensions[e.Type] = m
			}
		}
		rows = append(rows, row)
	}
	r.mu.RUnlock()

	terms := q.OrderBy
	if len(terms) == 0 {
		terms = []OrderTerm{{Column: "created_at"}}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		for _, term := range terms {
			c := compareOrderValues(orderValue(&rows[i], term), orderValue(&rows[j], term))
			if c == 0 {
				continue
			}
			if term.Desc {
				return c > 0
			}
			return c < 0
		}
		return rows[i].Fact.ID < rows[j].Fact.ID
	})
	return rows, nil
}

// orderValue mirrors the SQL ordering: numbers for measures, text otherwise, nil for NULL.
func orderValue(row *domain.JoinedRow, term OrderTerm) any {
	if term.Dimension == "" {
		switch term.Column {
		case "measure1", "measure2":
			if v, _ := row.Fact.Measure(term.Column); v != nil {
				return *v
			}
			return nil
		case "created_at":
			return row.Fact.CreatedAt
		case "updated_at":
			return row.Fact.UpdatedAt
		case "owner_user_id":
			return row.Fact.OwnerUserID
		}
		return nil
	}
	m := row.Member(term.Dimension)
	if m == nil {
		return nil
	}
	e, _ := catalog.Lookup(term.Dimension)
	v, ok := m.Attribute(term.Column, e.BusinessIDField)
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

// compareOrderValues sorts NULLs last, like Postgres ascending order.
func compareOrderValues(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	}
	switch av := a.(type) {
	case float64:
		bv := b.(float64)
		switch {
		case av < bv:
			return -1
		case av > bv:
			return 1
		}
		return 0
	case time.Time:
		return av.Compare(b.(time.Time))
	case string:
		return strings.Compare(av, b.(string))
	}
	return 0
}

func (r *MemoryFactsRepo) GetFact(_ context.Context, id string) (*domain.FactRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.facts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &f, nil
}

func (r *MemoryFactsRepo) CreateFact(_ context.Context, f *domain.FactRow) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *f
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	now := time.Now()
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = now
	}
	stored.UpdatedAt = now
	r.facts[stored.ID] = stored
	return stored.ID, nil
}

func (r *MemoryFactsRepo) UpdateMeasure(_ context.Context, id, field string, value *float64) (*domain.FactRow, error) {
	if !domain.IsMeasureField(field) {
		return nil, fmt.Errorf("invalid measure field: %s", field)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.facts[id]
	if !ok {
		return nil, ErrNotFound
	}
	var v *float64
	if value != nil {
		x := *value
		v = &x
	}
	if field == domain.MeasureField1 {
		f.Measure1 = v
	} else {
		f.Measure2 = v
	}
	f.UpdatedAt = time.Now()
	r.facts[id] = f
	return &f, nil
}
