package httpapi

import (
	"net/http"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/metrics"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Router 使用标准库 http.ServeMux（避免引入第三方路由依赖）
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

// resultRecorder remembers whether the handler answered with a failure envelope.
type resultRecorder struct {
	http.ResponseWriter
	failed bool
	status int
}

func (rec *resultRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

// Handle registers h and counts its requests under the pattern's route label.
func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	route := strings.TrimSuffix(pattern, "/")
	r.mux.HandleFunc(pattern, func(w http.ResponseWriter, req *http.Request) {
		rec := &resultRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, req)
		result := "ok"
		if rec.failed || rec.status >= http.StatusBadRequest {
			result = "error"
		}
		metrics.HTTPRequests.WithLabelValues(route, result).Inc()
	})
}

// HandleHandler 支持 http.Handler 接口（用于 /metrics 等）
func (r *Router) HandleHandler(pattern string, h http.Handler) {
	r.mux.Handle(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterOpsRoutes 健康检查与 Prometheus 指标
func (r *Router) RegisterOpsRoutes() {
	r.HandleHandler("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, Ok(map[string]any{"status": "ok"}))
	})
}

// RegisterPlanningRoutes 计划数据网格、编辑、导出与版本
func (r *Router) RegisterPlanningRoutes(p *PlanningHandler, v *VersionHandler) {
	r.Handle("/planning/api/v1/grid", p.ServeHTTP)
	r.Handle("/planning/api/v1/grid/", p.ServeHTTP)
	r.Handle("/planning/api/v1/facts", p.ServeHTTP)
	r.Handle("/planning/api/v1/facts/", p.ServeHTTP)

	if v != nil {
		r.Handle("/planning/api/v1/versions", v.ServeHTTP)
		r.Handle("/planning/api/v1/versions/", v.ServeHTTP)
	}
}

// RegisterMasterDataRoutes 维度主数据与目录
func (r *Router) RegisterMasterDataRoutes(d *DimensionHandler) {
	r.Handle("/master/api/v1/catalog", d.ServeHTTP)
	r.Handle("/master/api/v1/dimensions/", d.ServeHTTP)
}

// RegisterAccessGrantRoutes 维度授权申请与审批
func (r *Router) RegisterAccessGrantRoutes(g *AccessGrantHandler) {
	r.Handle("/admin/api/v1/access-grants", g.ServeHTTP)
	r.Handle("/admin/api/v1/access-grants/", g.ServeHTTP)
}

// RegisterRuleRoutes 业务规则
func (r *Router) RegisterRuleRoutes(h *RuleHandler) {
	r.Handle("/rules/api/v1/rules", h.ServeHTTP)
	r.Handle("/rules/api/v1/rules/", h.ServeHTTP)
}

// RegisterAssistantRoutes 规划助手
func (r *Router) RegisterAssistantRoutes(h *AssistantHandler) {
	r.Handle("/assistant/api/v1/chat", h.Chat)
}
