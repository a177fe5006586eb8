// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
)

type ProjectRepository struct {
	client *Client
}

func NewProjectRepository(client *Client) *ProjectRepository {
	return &ProjectRepository{client: client}
}

func (r *ProjectRepository) Create(ctx context.Context, project *entity.Project) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(project).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) Find(ctx context.Context, projectID, businessID string) (*entity.Project, error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.Find")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var project entity.Project
	err := db.First(&project, "id = ? AND business_id = ?", projectID, businessID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrProjectNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return &project, nil
}

func (r *ProjectRepository) UpdateFields(ctx context.Context, projectID string, fields map[string]any) error {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.UpdateFields")
	defer span.End()

	if len(fields) == 0 {
		return nil
	}

	db := getDB(ctx, r.client.db)
	result := db.Model(&entity.Project{}).Where("id = ?", projectID).Updates(fields)
	if result.Error != nil {
		span.RecordError(result.Error)
		return fmt.Errorf("failed to update project fields: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) ListByBusiness(ctx context.Context, businessID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	ctx, span := tracer.Start(ctx, "postgres.ProjectRepository.ListByBusiness")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.Project{}).Where("business_id = ?", businessID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count projects: %w", err)
	}

	var projects []*entity.Project
	if err := query.Order("updated_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&projects).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}

	return repository.NewPagedResult(projects, total, pagination), nil
}

// PortfolioPageRepository 旧版作品页 Upsert
type PortfolioPageRepository struct {
	client *Client
}

func NewPortfolioPageRepository(client *Client) *PortfolioPageRepository {
	return &PortfolioPageRepository{client: client}
}

func (r *PortfolioPageRepository) Upsert(ctx context.Context, page *entity.PortfolioPage) error {
	ctx, span := tracer.Start(ctx, "postgres.PortfolioPageRepository.Upsert")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Where("project_id = ?", page.ProjectID).
		Assign(map[string]any{
			"title":         page.Title,
			"description":   page.Description,
			"hero_image_id": page.HeroImageID,
		}).
		FirstOrCreate(&entity.PortfolioPage{ProjectID: page.ProjectID}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to upsert portfolio page: %w", err)
	}
	return nil
}
