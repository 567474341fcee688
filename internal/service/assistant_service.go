package service

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/assistant"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/domain"
	"github.com/raviakasapu/generative-planner-vision-sub000/internal/metrics"

	"go.uber.org/zap"
)

const assistantSystemPrompt = "You are a planning assistant for a financial planning grid. " +
	"Answer briefly and only from the data context you are given. " +
	"If the data context is missing, say what the user can do in the grid instead."

// maxHistory caps the prior turns forwarded to the model.
const maxHistory = 20

// topProducts is how many products the analysis summary lists.
const topProducts = 5

// AssistantService 规划助手服务
type AssistantService struct {
	fetcher *FactFetcher
	llm     Completer
	logger  *zap.Logger
}

// NewAssistantService 创建助手服务。llm 为空时 Chat 返回 ErrAssistantDisabled
func NewAssistantService(fetcher *FactFetcher, llm Completer, logger *zap.Logger) *AssistantService {
	return &AssistantService{fetcher: fetcher, llm: llm, logger: logger}
}

// ChatRequest 对话请求
type ChatRequest struct {
	UserID  string        `validate:"required"`
	Message string        `validate:"required,max=4000"`
	History []ChatMessage `validate:"omitempty,max=100"`
}

// ChatResponse 对话响应
type ChatResponse struct {
	Reply   string             `json:"reply"`
	Actions []assistant.Action `json:"actions"`
	Summary *AnalysisSummary   `json:"summary,omitempty"`
}

// AnalysisSummary is the compact view of a user's rows given to the model.
type AnalysisSummary struct {
	RowCount      int            `json:"row_count"`
	Measure1Total float64        `json:"measure1_total"`
	Measure2Total float64        `json:"measure2_total"`
	TopProducts   []ProductTotal `json:"top_products"`
}

// ProductTotal measure1 total of one product
type ProductTotal struct {
	Product  string  `json:"product"`
	Measure1 float64 `json:"measure1"`
}

// Chat answers one message. Analysis requests are grounded on the rows the
// user is allowed to see, fetched through the same FactFetcher as the grid.
func (s *AssistantService) Chat(ctx context.Context, req ChatRequest) (resp *ChatResponse, err error) {
	defer func() {
		metrics.AssistantRequests.WithLabelValues(metrics.Result(err)).Inc()
	}()

	if s.llm == nil {
		return nil, ErrAssistantDisabled
	}
	req.Message = strings.TrimSpace(req.Message)
	if err := validateStruct(req); err != nil {
		return nil, err
	}

	resp = &ChatResponse{Actions: assistant.Detect(req.Message)}
	messages := []ChatMessage{{Role: "system", Content: assistantSystemPrompt}}

	if assistant.Has(resp.Actions, assistant.ActionRunAnalysis) {
		rows, err := s.fetcher.Fetch(ctx, FetchRequest{UserID: req.UserID})
		if err != nil {
			return nil, fmt.Errorf("failed to load data for analysis: %w", err)
		}
		resp.Summary = Summarize(rows)
		messages = append(messages, ChatMessage{Role: "system", Content: "Data context:\n" + resp.Summary.String()})
	}

	history := req.History
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	for _, m := range history {
		if m.Role != "user" && m.Role != "assistant" {
			continue
		}
		messages = append(messages, m)
	}
	messages = append(messages, ChatMessage{Role: "user", Content: req.Message})

	reply, err := s.llm.Complete(ctx, messages)
	if err != nil {
		s.logger.Error("Assistant completion failed", zap.String("user_id", req.UserID), zap.Error(err))
		return nil, err
	}
	resp.Reply = reply
	return resp, nil
}

// Summarize totals the measures of rows and ranks products by measure1.
// Rows without a visible product are totalled under "N/A".
func Summarize(rows []domain.JoinedRow) *AnalysisSummary {
	sum := &AnalysisSummary{RowCount: len(rows), TopProducts: []ProductTotal{}}
	byProduct := map[string]float64{}
	for i := range rows {
		f := &rows[i].Fact
		if f.Measure1 != nil {
			sum.Measure1Total += *f.Measure1
		}
		if f.Measure2 != nil {
			sum.Measure2Total += *f.Measure2
		}
		name := "N/A"
		if m := rows[i].Member(domain.DimensionProduct); m != nil {
			name = m.BusinessID
		}
		if f.Measure1 != nil {
			byProduct[name] += *f.Measure1
		} else if _, ok := byProduct[name]; !ok {
			byProduct[name] = 0
		}
	}
	for name, total := range byProduct {
		sum.TopProducts = append(sum.TopProducts, ProductTotal{Product: name, Measure1: total})
	}
	sort.Slice(sum.TopProducts, func(i, j int) bool {
		a, b := sum.TopProducts[i], sum.TopProducts[j]
		if a.Measure1 != b.Measure1 {
			return a.Measure1 > b.Measure1
		}
		return a.Product < b.Product
	})
	if len(sum.TopProducts) > topProducts {
		sum.TopProducts = sum.TopProducts[:topProducts]
	}
	return sum
}

// String renders the summary as plain text for the model.
func (s *AnalysisSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "rows: %d\n", s.RowCount)
	fmt.Fprintf(&b, "measure1 total: %s\n", strconv.FormatFloat(s.Measure1Total, 'f', -1, 64))
	fmt.Fprintf(&b, "measure2 total: %s\n", strconv.FormatFloat(s.Measure2Total, 'f', -1, 64))
	if len(s.TopProducts) > 0 {
		b.WriteString("top products by measure1:\n")
		for _, p := range s.TopProducts {
			fmt.Fprintf(&b, "- %s: %s\n", p.Product, strconv.FormatFloat(p.Measure1, 'f', -1, 64))
		}
	}
	return b.String()
}
