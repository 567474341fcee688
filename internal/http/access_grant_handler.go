package httpapi

import (
	"net/http"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// AccessGrantHandler 维度授权 Handler
type AccessGrantHandler struct {
	grants *service.AccessGrantService
	logger *zap.Logger
}

// NewAccessGrantHandler 创建维度授权 Handler
func NewAccessGrantHandler(grants *service.AccessGrantService, logger *zap.Logger) *AccessGrantHandler {
	return &AccessGrantHandler{grants: grants, logger: logger}
}

const grantsPath = "/admin/api/v1/access-grants"

// ServeHTTP 实现 http.Handler 接口
func (h *AccessGrantHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, grantsPath)
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.ListGrants(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.RequestGrant(w, r)
	case len(parts) == 2 && r.Method == http.MethodPost && (parts[1] == "approve" || parts[1] == "reject"):
		h.DecideGrant(w, r, parts[0], parts[1] == "approve")
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListGrants 查询授权列表；非管理员只能看到自己的授权
func (h *AccessGrantHandler) ListGrants(w http.ResponseWriter, r *http.Request) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	resp, err := h.grants.ListGrants(r.Context(), service.ListGrantsRequest{
		UserID:         who.UserID,
		UserRole:       who.UserRole,
		ForUserID:      q.Get("user_id"),
		DimensionType:  q.Get("dimension_type"),
		ApprovalStatus: q.Get("approval_status"),
		Page:           parseInt(q.Get("page"), 1),
		Size:           parseInt(q.Get("size"), 100),
	})
	if err != nil {
		h.logger.Error("ListGrants failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}

type requestGrantBody struct {
	UserID            string `json:"user_id"`
	DimensionType     string `json:"dimension_type"`
	DimensionMemberID string `json:"dimension_member_id"`
	AccessLevel       string `json:"access_level"`
}

// RequestGrant 申请授权（待审批）
func (h *AccessGrantHandler) RequestGrant(w http.ResponseWriter, r *http.Request) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body requestGrantBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	id, err := h.grants.RequestGrant(r.Context(), service.RequestGrantRequest{
		RequestedBy:       who.UserID,
		UserRole:          who.UserRole,
		UserID:            body.UserID,
		DimensionType:     body.DimensionType,
		DimensionMemberID: body.DimensionMemberID,
		AccessLevel:       body.AccessLevel,
	})
	if err != nil {
		h.logger.Error("RequestGrant failed", zap.String("user_id", who.UserID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}

// DecideGrant 审批授权（仅管理员）
func (h *AccessGrantHandler) DecideGrant(w http.ResponseWriter, r *http.Request, grantID string, approve bool) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	g, err := h.grants.DecideGrant(r.Context(), service.DecideGrantRequest{
		UserID:   who.UserID,
		UserRole: who.UserRole,
		GrantID:  grantID,
		Approve:  approve,
	})
	if err != nil {
		h.logger.Error("DecideGrant failed", zap.String("grant_id", grantID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(g))
}
