package handler

import (
	"github.com/gin-gonic/gin"

	"knearme-portfolio-api/internal/application/portfolio"
	"knearme-portfolio-api/internal/domain/repository"
	"knearme-portfolio-api/internal/interfaces/http/dto"
)

// ProjectHandler 项目管理处理器
type ProjectHandler struct {
	svc *portfolio.ProjectService
}

// NewProjectHandler 创建项目处理器
func NewProjectHandler(svc *portfolio.ProjectService) *ProjectHandler {
	return &ProjectHandler{svc: svc}
}

// CreateProject 创建项目
// @Summary 创建空白项目
// @Tags Project
// @Produce json
// @Success 201 {object} dto.Response[dto.ProjectResponse]
// @Router /v1/projects [post]
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	project, err := h.svc.Create(c.Request.Context(), dto.BindBusinessID(c))
	if err != nil {
		respondAppError(c, err)
		return
	}
	dto.Created(c, dto.ToProjectResponse(project, nil))
}

// GetProject 读取项目
// @Summary 读取项目及派生状态
// @Tags Project
// @Produce json
// @Param pid path string true "项目 ID"
// @Success 200 {object} dto.Response[dto.ProjectResponse]
// @Router /v1/projects/{pid} [get]
func (h *ProjectHandler) GetProject(c *gin.Context) {
	project, state, err := h.svc.Get(c.Request.Context(), dto.BindProjectID(c), dto.BindBusinessID(c))
	if err != nil {
		respondAppError(c, err)
		return
	}
	dto.Success(c, dto.ToProjectResponse(project, state))
}

// ListProjects 列出项目
// @Summary 列出商户的项目
// @Tags Project
// @Produce json
// @Success 200 {object} dto.Response[dto.ProjectListResponse]
// @Router /v1/projects [get]
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	page := dto.BindPage(c)
	result, err := h.svc.List(c.Request.Context(), dto.BindBusinessID(c),
		repository.NewPagination(page.Page, page.PageSize))
	if err != nil {
		respondAppError(c, err)
		return
	}

	projects := make([]*dto.ProjectResponse, 0, len(result.Items))
	for _, p := range result.Items {
		projects = append(projects, dto.ToProjectResponse(p, nil))
	}
	dto.SuccessWithPage(c, &dto.ProjectListResponse{Projects: projects},
		dto.NewPageMeta(page.Page, page.PageSize, int(result.Total)))
}
