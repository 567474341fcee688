package httpapi

import (
	"net/http"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// DimensionHandler 维度主数据 Handler
type DimensionHandler struct {
	dimensions *service.DimensionService
	logger     *zap.Logger
}

// NewDimensionHandler 创建维度主数据 Handler
func NewDimensionHandler(dimensions *service.DimensionService, logger *zap.Logger) *DimensionHandler {
	return &DimensionHandler{dimensions: dimensions, logger: logger}
}

const dimensionsPrefix = "/master/api/v1/dimensions/"

// ServeHTTP 实现 http.Handler 接口
func (h *DimensionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/master/api/v1/catalog" {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		writeJSON(w, http.StatusOK, Ok(h.dimensions.Catalog()))
		return
	}

	parts := pathParts(r.URL.Path, dimensionsPrefix)
	switch {
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.ListMembers(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPost:
		h.CreateMember(w, r, parts[0])
	case len(parts) == 2 && r.Method == http.MethodGet:
		h.GetMember(w, r, parts[0], parts[1])
	case len(parts) == 2 && r.Method == http.MethodPut:
		h.UpdateMember(w, r, parts[0], parts[1])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListMembers 查询维度成员列表
func (h *DimensionHandler) ListMembers(w http.ResponseWriter, r *http.Request, typ string) {
	q := r.URL.Query()
	resp, err := h.dimensions.ListMembers(r.Context(), service.ListMembersRequest{
		Type:   typ,
		Search: q.Get("search"),
		Page:   parseInt(q.Get("page"), 1),
		Size:   parseInt(q.Get("size"), 100),
	})
	if err != nil {
		h.logger.Error("ListMembers failed", zap.String("type", typ), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

// GetMember 查询维度成员
func (h *DimensionHandler) GetMember(w http.ResponseWriter, r *http.Request, typ, id string) {
	item, err := h.dimensions.GetMember(r.Context(), typ, id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

type memberBody struct {
	BusinessID  string         `json:"business_id"`
	Description *string        `json:"description"`
	Attributes  map[string]any `json:"attributes"`
}

// CreateMember 创建维度成员
func (h *DimensionHandler) CreateMember(w http.ResponseWriter, r *http.Request, typ string) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body memberBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	id, err := h.dimensions.CreateMember(r.Context(), service.CreateMemberRequest{
		UserID:      who.UserID,
		Type:        typ,
		BusinessID:  body.BusinessID,
		Description: body.Description,
		Attributes:  body.Attributes,
	})
	if err != nil {
		h.logger.Error("CreateMember failed", zap.String("type", typ), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

// UpdateMember 更新维度成员
func (h *DimensionHandler) UpdateMember(w http.ResponseWriter, r *http.Request, typ, id string) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body memberBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.dimensions.UpdateMember(r.Context(), service.UpdateMemberRequest{
		UserID:      who.UserID,
		Type:        typ,
		ID:          id,
		BusinessID:  body.BusinessID,
		Description: body.Description,
		Attributes:  body.Attributes,
	})
	if err != nil {
		h.logger.Error("UpdateMember failed", zap.String("type", typ), zap.String("id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}
