package portfolio

import (
	"context"

	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
	"knearme-portfolio-api/pkg/logger"
)

// ProjectService 项目读取与创建。编排器不负责删除，删除走上层 CMS。
type ProjectService struct {
	projects repository.ProjectRepository
}

func NewProjectService(projects repository.ProjectRepository) *ProjectService {
	return &ProjectService{projects: projects}
}

// Create 创建空白项目，状态从 in_progress 起步
func (s *ProjectService) Create(ctx context.Context, businessID string) (*entity.Project, error) {
	if businessID == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "business_id is required")
	}

	project := &entity.Project{
		BusinessID: businessID,
		Status:     entity.ProjectStatusInProgress,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create project")
	}

	logger.Info(ctx, "project created", "project_id", project.ID)
	return project, nil
}

// Get 读取项目并附带派生状态
func (s *ProjectService) Get(ctx context.Context, projectID, businessID string) (*entity.Project, *entity.ProjectState, error) {
	project, err := s.projects.Find(ctx, projectID, businessID)
	if err != nil {
		return nil, nil, err
	}
	return project, entity.StateFromProject(project), nil
}

// List 按商户分页列出项目
func (s *ProjectService) List(ctx context.Context, businessID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return s.projects.ListByBusiness(ctx, businessID, pagination)
}
