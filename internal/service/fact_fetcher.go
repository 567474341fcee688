package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/access"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/metrics"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// SortOption server-side ordering of a fetch
type SortOption struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// FetchRequest 计划数据查询请求
type FetchRequest struct {
	UserID   string
	Sort     *SortOption
	MinLevel domain.AccessLevel // 默认 read
}

// FactFetcher is the only place planned data is read for a user: it applies
// the user's access grants and joins every dimension in one query. The grid
// and the assistant both go through it.
type FactFetcher struct {
	grants  access.GrantSource
	facts   repository.FactsRepository
	builder *access.Builder
	logger  *zap.Logger
}

// NewFactFetcher 创建 FactFetcher
func NewFactFetcher(grants access.GrantSource, facts repository.FactsRepository, builder *access.Builder, logger *zap.Logger) *FactFetcher {
	if builder == nil {
		builder = access.NewBuilder(access.DenyByDefault, nil)
	}
	return &FactFetcher{grants: grants, facts: facts, builder: builder, logger: logger}
}

// AllowList builds the user's allow list for minLevel.
func (f *FactFetcher) AllowList(ctx context.Context, userID string, minLevel domain.AccessLevel) (*access.AllowList, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	if minLevel == "" {
		minLevel = domain.AccessRead
	}
	grants, err := f.grants.ListGrantsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGrantLookup, err)
	}
	return f.builder.Build(grants, minLevel), nil
}

// Fetch returns the rows userID may see, joined and ordered.
// Any failure is returned whole; no partial row set is produced.
func (f *FactFetcher) Fetch(ctx context.Context, req FetchRequest) (rows []domain.JoinedRow, err error) {
	start := time.Now()
	defer func() {
		metrics.ObserveFetch(err, len(rows), time.Since(start))
	}()

	var order []repository.OrderTerm
	if req.Sort != nil && strings.TrimSpace(req.Sort.Column) != "" {
		term, err := ResolveSort(req.Sort.Column)
		if err != nil {
			return nil, err
		}
		term.Desc = req.Sort.Desc
		order = append(order, term)
	}

	allow, err := f.AllowList(ctx, req.UserID, req.MinLevel)
	if err != nil {
		f.logger.Error("Failed to load access grants", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}

	q := repository.FactQuery{
		Constraints: map[domain.DimensionType][]string{},
		OrderBy:     order,
	}
	for _, t := range allow.Types() {
		q.Constraints[t] = allow.IDs(t)
	}

	rows, err = f.facts.ListJoined(ctx, q)
	if err != nil {
		f.logger.Error("Failed to fetch planned data", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrFactQuery, err)
	}
	f.logger.Debug("Fetched planned data",
		zap.String("user_id", req.UserID),
		zap.Int("rows", len(rows)),
		zap.Int("constrained_types", len(q.Constraints)),
	)
	return rows, nil
}

// ResolveSort maps a client sort column onto an OrderTerm. Accepted forms:
// a fact column ("measure1"), a dimension column ("dimension1_id",
// "dimension1_id_category") or a dotted path ("masterdimension1.category").
func ResolveSort(column string) (repository.OrderTerm, error) {
	column = strings.TrimSpace(column)
	if repository.IsFactOrderColumn(column) {
		return repository.OrderTerm{Column: column}, nil
	}
	if res, ok := catalog.Resolve(column); ok {
		return repository.OrderTerm{Dimension: res.Entry.Type, Column: res.Attribute}, nil
	}
	if table, attr, ok := strings.Cut(column, "."); ok && attr != "" {
		for _, e := range catalog.Entries() {
			if e.Table == table {
				return repository.OrderTerm{Dimension: e.Type, Column: attr}, nil
			}
		}
	}
	return repository.OrderTerm{}, fmt.Errorf("%w: %q", ErrInvalidSort, column)
}
