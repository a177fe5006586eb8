// Package entity 定义领域实体
package entity

import (
	"time"

	"github.com/lib/pq"
)

// ProjectStatus 项目状态
type ProjectStatus string

const (
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusPublished  ProjectStatus = "published"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// Project 施工方作品集项目行。编排器对它只做按 (id, business_id) 读取
// 与按字段写回；删除由上层 CMS 负责。
type Project struct {
	ID         string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID string        `json:"business_id" gorm:"type:uuid;index;not null"`
	Status     ProjectStatus `json:"status" gorm:"type:varchar(32);not null;default:'in_progress'"`

	ProjectType     string `json:"project_type,omitempty" gorm:"type:varchar(120)"`
	ProjectTypeSlug string `json:"project_type_slug,omitempty" gorm:"type:varchar(120);index"`
	City            string `json:"city,omitempty" gorm:"type:varchar(120)"`
	State           string `json:"state,omitempty" gorm:"type:varchar(60)"`

	Title            string `json:"title,omitempty" gorm:"type:varchar(255)"`
	Description      string `json:"description,omitempty" gorm:"type:text"`
	CustomerProblem  string `json:"customer_problem,omitempty" gorm:"type:text"`
	SolutionApproach string `json:"solution_approach,omitempty" gorm:"type:text"`
	Duration         string `json:"duration,omitempty" gorm:"type:varchar(120)"`
	ProudOf          string `json:"proud_of,omitempty" gorm:"type:text"`

	Materials  pq.StringArray `json:"materials,omitempty" gorm:"type:text[]"`
	Techniques pq.StringArray `json:"techniques,omitempty" gorm:"type:text[]"`
	Tags       pq.StringArray `json:"tags,omitempty" gorm:"type:text[]"`

	SEOTitle       string `json:"seo_title,omitempty" gorm:"type:varchar(255)"`
	SEODescription string `json:"seo_description,omitempty" gorm:"type:text"`

	Images      []ProjectImage `json:"images,omitempty" gorm:"type:jsonb;serializer:json"`
	HeroImageID string         `json:"hero_image_id,omitempty" gorm:"type:varchar(64)"`
	LayoutStyle string         `json:"layout_style,omitempty" gorm:"type:varchar(60)"`

	NeedsClarification pq.StringArray `json:"needs_clarification,omitempty" gorm:"type:text[]"`
	ClarifiedFields    pq.StringArray `json:"clarified_fields,omitempty" gorm:"type:text[]"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (Project) TableName() string {
	return "projects"
}

// IsPublished 检查项目是否已发布
func (p *Project) IsPublished() bool {
	return p.Status == ProjectStatusPublished
}

// PortfolioPage 旧版作品页记录，保留给尚未迁移的前端读取路径。
// 字段更新工具会尽力同步写入，写入失败不阻塞主记录。
type PortfolioPage struct {
	ID          string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ProjectID   string    `json:"project_id" gorm:"type:uuid;uniqueIndex;not null"`
	Title       string    `json:"title,omitempty" gorm:"type:varchar(255)"`
	Description string    `json:"description,omitempty" gorm:"type:text"`
	HeroImageID string    `json:"hero_image_id,omitempty" gorm:"type:varchar(64)"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (PortfolioPage) TableName() string {
	return "portfolio_pages"
}
