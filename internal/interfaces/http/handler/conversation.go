package handler

import (
	"github.com/gin-gonic/gin"

	"knearme-portfolio-api/internal/application/portfolio"
	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	"knearme-portfolio-api/internal/interfaces/http/dto"
)

// ConversationHandler 会话管理处理器
type ConversationHandler struct {
	svc *portfolio.ConversationService
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(svc *portfolio.ConversationService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

// CreateSession 开启会话
// @Summary 开启对话会话
// @Tags Conversation
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest true "创建会话请求"
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Router /v1/sessions [post]
func (h *ConversationHandler) CreateSession(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	session, err := h.svc.StartSession(c.Request.Context(), dto.BindBusinessID(c), req.ProjectID)
	if err != nil {
		respondAppError(c, err)
		return
	}
	dto.Created(c, dto.ToSessionResponse(session))
}

// GetSession 读取会话
// @Summary 读取会话
// @Tags Conversation
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Router /v1/sessions/{sid} [get]
func (h *ConversationHandler) GetSession(c *gin.Context) {
	session, err := h.svc.GetSession(c.Request.Context(), dto.BindSessionID(c), dto.BindBusinessID(c))
	if err != nil {
		respondAppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(session))
}

// ListProjectSessions 列出项目下的会话
// @Summary 列出项目会话
// @Tags Conversation
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.SessionListResponse]
// @Router /v1/projects/{pid}/sessions [get]
func (h *ConversationHandler) ListProjectSessions(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.svc.ListSessions(c.Request.Context(), dto.BindProjectID(c),
		repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondAppError(c, err)
		return
	}

	sessions := make([]*dto.SessionResponse, 0, len(result.Items))
	for _, s := range result.Items {
		sessions = append(sessions, dto.ToSessionResponse(s))
	}
	dto.SuccessWithPage(c, &dto.SessionListResponse{Sessions: sessions},
		dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}

// AppendMessage 追加会话消息
// @Summary 追加会话消息
// @Tags Conversation
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param request body dto.AppendMessageRequest true "消息内容"
// @Success 201 {object} dto.Response[dto.MessageResponse]
// @Router /v1/sessions/{sid}/messages [post]
func (h *ConversationHandler) AppendMessage(c *gin.Context) {
	var req dto.AppendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	message, err := h.svc.AppendMessage(c.Request.Context(),
		dto.BindBusinessID(c),
		dto.BindSessionID(c),
		entity.Role(req.Role),
		req.Content,
		req.Parts,
	)
	if err != nil {
		respondAppError(c, err)
		return
	}
	dto.Created(c, dto.ToMessageResponse(message))
}

// ListMessages 列出会话消息
// @Summary 列出会话消息
// @Tags Conversation
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.MessageListResponse]
// @Router /v1/sessions/{sid}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	messages, err := h.svc.ListMessages(c.Request.Context(), dto.BindSessionID(c), dto.BindBusinessID(c))
	if err != nil {
		respondAppError(c, err)
		return
	}

	out := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		out = append(out, dto.ToMessageResponse(m))
	}
	dto.Success(c, &dto.MessageListResponse{Messages: out})
}
