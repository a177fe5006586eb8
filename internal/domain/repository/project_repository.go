// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"knearme-portfolio-api/internal/domain/entity"
)

// ProjectRepository 项目持久化。读取一律用 (projectID, businessID)
// 双键限定，防止跨租户访问。
type ProjectRepository interface {
	Create(ctx context.Context, project *entity.Project) error
	// Find 按项目与商户双键读取，未找到返回 ErrProjectNotFound
	Find(ctx context.Context, projectID, businessID string) (*entity.Project, error)
	// UpdateFields 按字段写回，fields 的键为列名。最后写入者胜，
	// 不做乐观锁版本检查。
	UpdateFields(ctx context.Context, projectID string, fields map[string]any) error
	ListByBusiness(ctx context.Context, businessID string, pagination Pagination) (*PagedResult[*entity.Project], error)
}

// PortfolioPageRepository 旧版作品页的尽力同步写入
type PortfolioPageRepository interface {
	Upsert(ctx context.Context, page *entity.PortfolioPage) error
}
