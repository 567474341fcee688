package httpapi

import (
	"net/http"

	"github.com/raviakasapu/generative-planner-vision-sub000/internal/service"

	"go.uber.org/zap"
)

// AssistantHandler 规划助手 Handler
type AssistantHandler struct {
	assistant *service.AssistantService
	logger    *zap.Logger
}

// NewAssistantHandler 创建规划助手 Handler
func NewAssistantHandler(assistant *service.AssistantService, logger *zap.Logger) *AssistantHandler {
	return &AssistantHandler{assistant: assistant, logger: logger}
}

type chatBody struct {
	Message string                `json:"message"`
	History []service.ChatMessage `json:"history"`
}

// Chat 对话
func (h *AssistantHandler) Chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	who, ok := identityFromReq(w, r)
	if !ok {
		return
	}
	var body chatBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeJSON(w, http.StatusOK, Fail("invalid body"))
		return
	}
	resp, err := h.assistant.Chat(r.Context(), service.ChatRequest{
		UserID:  who.UserID,
		Message: body.Message,
		History: body.History,
	})
	if err != nil {
		h.logger.Error("Assistant chat failed", zap.String("user_id", who.UserID), zap.Error(err))
		writeJSON(w, http.StatusOK, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(resp))
}
