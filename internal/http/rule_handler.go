package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// RuleHandler 业务规则 Handler
type RuleHandler struct {
	rules  *service.RuleService
	logger *zap.Logger
}

// NewRuleHandler 创建业务规则 Handler
func NewRuleHandler(rules *service.RuleService, logger *zap.Logger) *RuleHandler {
	return &RuleHandler{rules: rules, logger: logger}
}

const rulesPath = "/rules/api/v1/rules"

// ServeHTTP 实现 http.Handler 接口
func (h *RuleHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := pathParts(r.URL.Path, rulesPath)
	switch {
	case len(parts) == 0 && r.Method == http.MethodGet:
		h.ListRules(w, r)
	case len(parts) == 0 && r.Method == http.MethodPost:
		h.SaveRule(w, r, "")
	case len(parts) == 1 && r.Method == http.MethodGet:
		h.GetRule(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodPut:
		h.SaveRule(w, r, parts[0])
	case len(parts) == 1 && r.Method == http.MethodDelete:
		h.DeleteRule(w, r, parts[0])
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// ListRules 查询业务规则
func (h *RuleHandler) ListRules(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rules, err := h.rules.ListRules(r.Context(), service.ListRulesRequest{
		ActiveOnly:    parseBool(q.Get("active_only")),
		DimensionType: q.Get("dimension_type"),
		RuleType:      q.Get("rule_type"),
	})
	if err != nil {
		h.logger.Error("ListRules failed", zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"items": rules,
		"total": len(rules),
	}))
}

// GetRule 查询业务规则
func (h *RuleHandler) GetRule(w http.ResponseWriter, r *http.Request, id string) {
	rule, err := h.rules.GetRule(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(rule))
}

type ruleBody struct {
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	DimensionType *string         `json:"dimension_type"`
	RuleType      string          `json:"rule_type"`
	Definition    json.RawMessage `json:"definition"`
	IsActive      *bool           `json:"is_active"`
}

// SaveRule 创建（id 为空）或更新业务规则
func (h *RuleHandler) SaveRule(w http.ResponseWriter, r *http.Request, id string) {
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body ruleBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	req := service.SaveRuleRequest{
		UserID:        who.UserID,
		ID:            id,
		Name:          body.Name,
		Description:   body.Description,
		DimensionType: body.DimensionType,
		RuleType:      body.RuleType,
		Definition:    body.Definition,
		IsActive:      body.IsActive,
	}

	if id == "" {
		newID, err := h.rules.CreateRule(r.Context(), req)
		if err != nil {
			h.logger.Error("CreateRule failed", zap.Error(err))
			writeJSON(w, http.StatusOK, Fail(err.Error()))
			return
		}
		writeJSON(w, http.StatusOK, Ok(map[string]any{"id": newID}))
		return
	}

	rule, err := h.rules.UpdateRule(r.Context(), req)
	if err != nil {
		h.logger.Error("UpdateRule failed", zap.String("rule_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(rule))
}

// DeleteRule 删除业务规则
func (h *RuleHandler) DeleteRule(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := identityFromReq(w, r); !ok {
		return
	}
	if err := h.rules.DeleteRule(r.Context(), id); err != nil {
		h.logger.Error("DeleteRule failed", zap.String("rule_id", id), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"id": id}))
}
