package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/catalog"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/grid"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// PlanningHandler 计划数据网格 Handler
type PlanningHandler struct {
	planning *service.PlanningService
	logger   *zap.Logger
}

// NewPlanningHandler 创建计划数据 Handler
func NewPlanningHandler(planning *service.PlanningService, logger *zap.Logger) *PlanningHandler {
	return &PlanningHandler{planning: planning, logger: logger}
}

// ServeHTTP 实现 http.Handler 接口
func (h *PlanningHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case r.URL.Path == "/planning/api/v1/grid" && r.Method == http.MethodPost:
		h.Grid(w, r)
	case r.URL.Path == "/planning/api/v1/grid/export" && r.Method == http.MethodGet:
		h.Export(w, r)
	case r.URL.Path == "/planning/api/v1/facts" && r.Method == http.MethodPost:
		h.CreateFact(w, r)
	case strings.HasPrefix(r.URL.Path, "/planning/api/v1/facts/") && r.Method == http.MethodPut:
		h.UpdateCell(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type gridRequestBody struct {
	View    string              `json:"view"`
	Columns []grid.ColumnConfig `json:"columns"`
	Sort    *service.SortOption `json:"sort"`
	Page    int                 `json:"page"`
	Size    int                 `json:"size"`
	Refresh bool                `json:"refresh"`
}

// Grid 查询网格一页
func (h *PlanningHandler) Grid(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body gridRequestBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	resp, err := h.planning.Grid(r.Context(), service.GridRequest{
		UserID:  id.UserID,
		View:    body.View,
		Columns: body.Columns,
		Sort:    body.Sort,
		Page:    body.Page,
		Size:    body.Size,
		Refresh: body.Refresh,
	})
	if err != nil {
		h.logger.Error("Grid failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// Export 导出当前视图（全部页）为 Excel
// Query: view, columns (JSON array of column configs), refresh
func (h *PlanningHandler) Export(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	var cols []grid.ColumnConfig
	if raw := q.Get("columns"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &cols); err != nil {
			writeJSON(w, http.StatusOK, Fail("invalid columns"))
			return
		}
	}

	cols, rows, err := h.planning.ExportRows(r.Context(), service.GridRequest{
		UserID:  id.UserID,
		View:    q.Get("view"),
		Columns: cols,
		Refresh: parseBool(q.Get("refresh")),
	})
	if err != nil {
		h.logger.Error("Export failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}

	data, err := GeneratePlanningExport(cols, rows)
	if err != nil {
		h.logger.Error("Failed to generate planning export", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail("failed to generate export"))
		return
	}

	filename := fmt.Sprintf("planning_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

type updateCellBody struct {
	Field string   `json:"field"`
	Value *float64 `json:"value"`
}

// UpdateCell 更新一个度量值
func (h *PlanningHandler) UpdateCell(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	factID := strings.TrimPrefix(r.URL.Path, "/planning/api/v1/facts/")
	if factID == "" || strings.Contains(factID, "/") {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	var body updateCellBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	f, err := h.planning.UpdateCell(r.Context(), service.UpdateCellRequest{
		UserID: id.UserID,
		FactID: factID,
		Field:  body.Field,
		Value:  body.Value,
	})
	if err != nil {
		h.logger.Error("UpdateCell failed", zap.String("fact_id", factID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(factJSON(f)))
}

type createFactBody struct {
	DimensionKeys map[string]string `json:"dimensions"` // catalog field -> member id
	Measure1      *float64          `json:"measure1"`
	Measure2      *float64          `json:"measure2"`
}

// CreateFact 新增计划数据行
func (h *PlanningHandler) CreateFact(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body createFactBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}

	f, err := factFromBody(body)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	factID, err := h.planning.CreateFact(r.Context(), service.CreateFactRequest{UserID: id.UserID, Fact: f})
	if err != nil {
		h.logger.Error("CreateFact failed", zap.String("user_id", id.UserID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": factID}))
}

func factFromBody(body createFactBody) (domain.FactRow, error) {
	f := domain.FactRow{Measure1: body.Measure1, Measure2: body.Measure2}
	for field, memberID := range body.DimensionKeys {
		e, ok := catalog.ResolveType(field)
		if !ok {
			return f, fmt.Errorf("unknown dimension: %s", field)
		}
		if memberID == "" {
			continue
		}
		id := memberID
		f.SetKey(e.Type, &id)
	}
	return f, nil
}

func factJSON(f *domain.FactRow) map[string]any {
	out := map[string]any{
		"id":            f.ID,
		"measure1":      f.Measure1,
		"measure2":      f.Measure2,
		"owner_user_id": f.OwnerUserID,
		"updated_at":    f.UpdatedAt,
	}
	for _, e := range catalog.Entries() {
		out[e.Field] = f.Key(e.Type)
	}
	return out
}
