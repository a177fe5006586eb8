package handler

import (
	"github.com/gin-gonic/gin"

	"knearme-portfolio-api/internal/application/portfolio/tools"
	"knearme-portfolio-api/internal/config"
	"knearme-portfolio-api/internal/interfaces/http/dto"
)

// ToolsHandler 工具调用入口。对话 Agent 把一批工具调用发到这里，
// 逐个执行后按原顺序返回结果。
type ToolsHandler struct {
	dispatcher *tools.Dispatcher
	cfg        *config.Config
}

// NewToolsHandler 创建工具调用处理器
func NewToolsHandler(dispatcher *tools.Dispatcher, cfg *config.Config) *ToolsHandler {
	return &ToolsHandler{
		dispatcher: dispatcher,
		cfg:        cfg,
	}
}

// Dispatch 批量执行工具调用
// @Summary 批量执行工具调用
// @Description 按顺序执行一批工具调用，单个失败不中断批次
// @Tags Tools
// @Accept json
// @Produce json
// @Param request body dto.ToolDispatchRequest true "工具调用批次"
// @Success 200 {object} dto.Response[dto.ToolDispatchResponse]
// @Router /v1/tool-calls [post]
func (h *ToolsHandler) Dispatch(c *gin.Context) {
	var req dto.ToolDispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	provider, model, err := resolveProviderModel(h.cfg, req.Provider, req.Model)
	if err != nil {
		dto.BadRequest(c, err.Error())
		return
	}

	scope := &tools.Scope{
		BusinessID:        dto.BindBusinessID(c),
		ProjectID:         req.ProjectID,
		SessionID:         req.SessionID,
		LatestUserMessage: req.LatestUserMessage,
		Provider:          provider,
		Model:             model,
	}

	batch := h.dispatcher.Dispatch(c.Request.Context(), scope, req.ToolCalls)
	dto.Success(c, dto.ToToolDispatchResponse(batch))
}
