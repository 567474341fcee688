package httpapi

import (
	"net/http"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// VersionHandler 版本管理 Handler
type VersionHandler struct {
	versions *service.VersionService
	logger   *zap.Logger
}

// NewVersionHandler 创建版本管理 Handler
func NewVersionHandler(versions *service.VersionService, logger *zap.Logger) *VersionHandler {
	return &VersionHandler{versions: versions, logger: logger}
}

const versionsPath = "/planning/api/v1/versions"

// ServeHTTP 实现 http.Handler 接口
func (h *VersionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, versionsPath)
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.ListVersions(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.CreateVersion(w, r)
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.GetVersion(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "status" && r.Method == http.MethodPut:
		h.TransitionStatus(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "history" && r.Method == http.MethodGet:
		h.History(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListVersions 查询版本列表
func (h *VersionHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	items, total, err := h.versions.ListVersions(r.Context(), service.ListVersionsRequest{
		Status: q.Get("status"),
		Search: q.Get("search"),
		Page:   parseInt(q.Get("page"), 1),
		Size:   parseInt(q.Get("size"), 100),
	})
	if err != nil {
		h.logger.Error("ListVersions failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": items,
		"total": total,
	}))
}

// GetVersion 查询版本
func (h *VersionHandler) GetVersion(w http.ResponseWriter, r *http.Request, id string) {
	item, err := h.versions.GetVersion(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

type createVersionBody struct {
	Name          string         `json:"name"`
	Description   *string        `json:"description"`
	VersionType   string         `json:"version_type"`
	IsBaseVersion bool           `json:"is_base_version"`
	BaseVersionID *string        `json:"base_version_id"`
	Attributes    map[string]any `json:"attributes"`
}

// CreateVersion 创建版本（可从基准版本复制数据）
func (h *VersionHandler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body createVersionBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	if body.BaseVersionID != nil && *body.BaseVersionID == "" {
		body.BaseVersionID = nil
	}
	resp, err := h.versions.CreateVersion(r.Context(), service.CreateVersionRequest{
		UserID:        who.UserID,
		Name:          body.Name,
		Description:   body.Description,
		VersionType:   body.VersionType,
		IsBaseVersion: body.IsBaseVersion,
		BaseVersionID: body.BaseVersionID,
		Attributes:    body.Attributes,
	})
	if err != nil {
		h.logger.Error("CreateVersion failed", zap.String("name", body.Name), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type transitionBody struct {
	Status  string  `json:"status"`
	Comment *string `json:"comment"`
}

// TransitionStatus 版本状态流转
func (h *VersionHandler) TransitionStatus(w http.ResponseWriter, r *http.Request, id string) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body transitionBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	item, err := h.versions.TransitionStatus(r.Context(), service.TransitionRequest{
		UserID:    who.UserID,
		VersionID: id,
		ToStatus:  body.Status,
		Comment:   body.Comment,
	})
	if err != nil {
		h.logger.Error("TransitionStatus failed", zap.String("version_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(item))
}

// History 版本状态变更历史
func (h *VersionHandler) History(w http.ResponseWriter, r *http.Request, id string) {
	changes, err := h.versions.History(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(changes))
}
