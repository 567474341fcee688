package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/events"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/repository"

	"go.uber.org/zap"
)

// PlanningService 计划数据网格服务
type PlanningService struct {
	fetcher   *FactFetcher
	facts     repository.FactsRepository
	sessions  *grid.SessionStore
	publisher events.Publisher
	logger    *zap.Logger

	maxAge time.Duration
	now    func() time.Time
}

// DefaultSessionMaxAge bounds how long cached grid rows are served without
// a refresh.
const DefaultSessionMaxAge = time.Minute

// NewPlanningService 创建计划数据服务
func NewPlanningService(fetcher *FactFetcher, facts repository.FactsRepository, sessions *grid.SessionStore, publisher events.Publisher, logger *zap.Logger) *PlanningService {
	if publisher == nil {
		publisher = events.Nop{}
	}
	return &PlanningService{
		fetcher:   fetcher,
		facts:     facts,
		sessions:  sessions,
		publisher: publisher,
		logger:    logger,
		maxAge:    DefaultSessionMaxAge,
		now:       time.Now,
	}
}

// SetSessionMaxAge sets how old cached grid rows may get before the next Grid
// call refetches them. Values <= 0 keep DefaultSessionMaxAge.
func (s *PlanningService) SetSessionMaxAge(d time.Duration) {
	if d <= 0 {
		d = DefaultSessionMaxAge
	}
	s.maxAge = d
}

// GridRequest 网格查询请求
type GridRequest struct {
	UserID  string
	View    string
	Columns []grid.ColumnConfig
	Sort    *SortOption // 服务端排序（刷新时生效）
	Page    int         // 从 0 开始
	Size    int
	Refresh bool
}

// GridColumn 网格列（前端格式）
type GridColumn struct {
	Field  string `json:"field"`
	Kind   string `json:"kind"`
	Header string `json:"header"`
}

// GridRow 网格行
type GridRow struct {
	ID    string      `json:"id"`
	Cells []grid.Cell `json:"cells"`
}

// GridResponse 网格查询响应
type GridResponse struct {
	Columns    []GridColumn `json:"columns"`
	Rows       []GridRow    `json:"rows"`
	Total      int          `json:"total"`
	Page       int          `json:"page"`
	Size       int          `json:"size"`
	Generation uint64       `json:"generation"`
	FetchedAt  time.Time    `json:"fetched_at"`
}

func normalizeColumns(cols []grid.ColumnConfig) ([]grid.ColumnConfig, error) {
	if len(cols) == 0 {
		return grid.DefaultColumns(), nil
	}
	for _, c := range cols {
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
	}
	return cols, nil
}

// sessionRows returns the cached rows of the user's view, fetching when the
// view has none yet, the rows are older than maxAge or a refresh is asked for.
// A fetch that loses the race against a newer one is discarded and the newer
// rows are used.
func (s *PlanningService) sessionRows(ctx context.Context, req GridRequest) ([]domain.JoinedRow, *grid.Session, error) {
	if req.UserID == "" {
		return nil, nil, fmt.Errorf("%w: user id is required", ErrInvalidRequest)
	}
	session := s.sessions.Get(grid.SessionKey(req.UserID, req.View))
	if rows, ok := session.Rows(); ok && !req.Refresh && s.now().Sub(session.FetchedAt()) < s.maxAge {
		return rows, session, nil
	}

	gen := session.Begin()
	rows, err := s.fetcher.Fetch(ctx, FetchRequest{UserID: req.UserID, Sort: req.Sort})
	if err != nil {
		return nil, nil, err
	}
	if !session.Commit(gen, rows) {
		s.logger.Debug("Discarding stale grid fetch",
			zap.String("user_id", req.UserID),
			zap.String("view", req.View),
			zap.Uint64("generation", gen),
		)
		rows, _ = session.Rows()
	}
	return rows, session, nil
}

// Grid returns one page of the user's grid.
func (s *PlanningService) Grid(ctx context.Context, req GridRequest) (*GridResponse, error) {
	cols, err := normalizeColumns(req.Columns)
	if err != nil {
		return nil, err
	}
	rows, session, err := s.sessionRows(ctx, req)
	if err != nil {
		return nil, err
	}

	page := grid.Apply(rows, cols, req.Page, req.Size)
	resp := &GridResponse{
		Columns:    gridColumns(cols),
		Rows:       make([]GridRow, 0, len(page.Rows)),
		Total:      page.Total,
		Page:       page.Page,
		Size:       page.Size,
		Generation: session.Generation(),
		FetchedAt:  session.FetchedAt(),
	}
	for i := range page.Rows {
		row := &page.Rows[i]
		resp.Rows = append(resp.Rows, GridRow{ID: row.Fact.ID, Cells: grid.ProjectRow(row, cols)})
	}
	return resp, nil
}

// ExportRows returns every filtered and sorted row of the user's grid, for exports.
func (s *PlanningService) ExportRows(ctx context.Context, req GridRequest) ([]grid.ColumnConfig, []domain.JoinedRow, error) {
	cols, err := normalizeColumns(req.Columns)
	if err != nil {
		return nil, nil, err
	}
	rows, _, err := s.sessionRows(ctx, req)
	if err != nil {
		return nil, nil, err
	}
	return cols, grid.Refine(rows, cols), nil
}

func gridColumns(cols []grid.ColumnConfig) []GridColumn {
	out := make([]GridColumn, len(cols))
	for i, c := range cols {
		kind := string(c.Kind)
		if kind == "" {
			kind = string(grid.KindDimension)
			if domain.IsMeasureField(c.Field) {
				kind = string(grid.KindMeasure)
			} else if _, ok := catalog.Resolve(c.Field); !ok {
				kind = "field"
			}
		}
		out[i] = GridColumn{Field: c.Field, Kind: kind, Header: c.Header()}
	}
	return out
}

// UpdateCellRequest 单元格更新请求
type UpdateCellRequest struct {
	UserID string
	FactID string
	Field  string   // measure1 | measure2
	Value  *float64 // nil 清空
}

// UpdateCell writes one measure. The user needs write access on every
// controlled key of the row. The stored row is returned and patched into
// cached grid sessions; nothing changes locally if the write fails.
func (s *PlanningService) UpdateCell(ctx context.Context, req UpdateCellRequest) (*domain.FactRow, error) {
	if req.FactID == "" {
		return nil, fmt.Errorf("%w: fact id is required", ErrInvalidRequest)
	}
	if !domain.IsMeasureField(req.Field) {
		return nil, fmt.Errorf("%w: %s is not an editable measure", ErrInvalidRequest, req.Field)
	}

	fact, err := s.facts.GetFact(ctx, req.FactID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: planned data row %s", ErrNotFound, req.FactID)
		}
		return nil, fmt.Errorf("failed to load planned data row: %w", err)
	}

	allow, err := s.fetcher.AllowList(ctx, req.UserID, domain.AccessWrite)
	if err != nil {
		return nil, err
	}
	if !allow.AllowsRow(fact) {
		s.logger.Warn("Rejected planned data write",
			zap.String("user_id", req.UserID),
			zap.String("fact_id", req.FactID),
		)
		return nil, fmt.Errorf("%w: no write access to row %s", ErrAccessDenied, req.FactID)
	}

	updated, err := s.facts.UpdateMeasure(ctx, req.FactID, req.Field, req.Value)
	if err != nil {
		return nil, fmt.Errorf("failed to update planned data: %w", err)
	}
	s.sessions.UpdateFact(*updated)

	payload := map[string]any{"field": req.Field, "value": nil}
	if req.Value != nil {
		payload["value"] = *req.Value
	}
	s.publish(ctx, events.New(events.TypeFactUpdated, updated.ID, req.UserID, payload))
	return updated, nil
}

// CreateFactRequest 新增计划数据请求
type CreateFactRequest struct {
	UserID string
	Fact   domain.FactRow
}

// CreateFact inserts a row owned by the user. Every controlled key must be
// covered by a write grant. Cached grid sessions pick the row up on refresh.
func (s *PlanningService) CreateFact(ctx context.Context, req CreateFactRequest) (string, error) {
	allow, err := s.fetcher.AllowList(ctx, req.UserID, domain.AccessWrite)
	if err != nil {
		return "", err
	}
	f := req.Fact
	f.ID = ""
	f.OwnerUserID = req.UserID
	if !allow.AllowsRow(&f) {
		return "", fmt.Errorf("%w: no write access to the referenced dimension members", ErrAccessDenied)
	}

	id, err := s.facts.CreateFact(ctx, &f)
	if err != nil {
		return "", fmt.Errorf("failed to create planned data: %w", err)
	}

	payload := map[string]any{}
	for _, e := range catalog.Entries() {
		if k := f.Key(e.Type); k != nil {
			payload[e.Field] = *k
		}
	}
	s.publish(ctx, events.New(events.TypeFactCreated, id, req.UserID, payload))
	return id, nil
}

func (s *PlanningService) publish(ctx context.Context, ev events.Event) {
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish event", zap.String("event_type", ev.Type), zap.Error(err))
	}
}
