// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"knearme-portfolio-api/internal/domain/entity"
)

// ProjectResponse 项目响应，附带编排器派生的就绪状态
type ProjectResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`

	ProjectType     string `json:"project_type,omitempty"`
	ProjectTypeSlug string `json:"project_type_slug,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	Location        string `json:"location,omitempty"`

	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	CustomerProblem  string `json:"customer_problem,omitempty"`
	SolutionApproach string `json:"solution_approach,omitempty"`
	Duration         string `json:"duration,omitempty"`
	ProudOf          string `json:"proud_of,omitempty"`

	Materials  []string `json:"materials,omitempty"`
	Techniques []string `json:"techniques,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	SEOTitle       string `json:"seo_title,omitempty"`
	SEODescription string `json:"seo_description,omitempty"`

	Images      []entity.ProjectImage `json:"images,omitempty"`
	HeroImageID string                `json:"hero_image_id,omitempty"`
	LayoutStyle string                `json:"layout_style,omitempty"`

	NeedsClarification []string `json:"needs_clarification,omitempty"`
	ClarifiedFields    []string `json:"clarified_fields,omitempty"`

	ReadyForImages  bool `json:"ready_for_images"`
	ReadyForContent bool `json:"ready_for_content"`
	ReadyToPublish  bool `json:"ready_to_publish"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// ToProjectResponse 从项目实体与派生状态构造响应
func ToProjectResponse(p *entity.Project, state *entity.ProjectState) *ProjectResponse {
	if p == nil {
		return nil
	}
	if state == nil {
		state = entity.StateFromProject(p)
	}
	return &ProjectResponse{
		ID:                 p.ID,
		Status:             string(p.Status),
		ProjectType:        p.ProjectType,
		ProjectTypeSlug:    p.ProjectTypeSlug,
		City:               p.City,
		State:              p.State,
		Location:           state.Location,
		Title:              p.Title,
		Description:        p.Description,
		CustomerProblem:    p.CustomerProblem,
		SolutionApproach:   p.SolutionApproach,
		Duration:           p.Duration,
		ProudOf:            p.ProudOf,
		Materials:          p.Materials,
		Techniques:         p.Techniques,
		Tags:               p.Tags,
		SEOTitle:           p.SEOTitle,
		SEODescription:     p.SEODescription,
		Images:             p.Images,
		HeroImageID:        p.HeroImageID,
		LayoutStyle:        p.LayoutStyle,
		NeedsClarification: p.NeedsClarification,
		ClarifiedFields:    p.ClarifiedFields,
		ReadyForImages:     state.ReadyForImages,
		ReadyForContent:    state.ReadyForContent,
		ReadyToPublish:     state.ReadyToPublish,
		CreatedAt:          p.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// ProjectListResponse 项目列表响应
type ProjectListResponse struct {
	Projects []*ProjectResponse `json:"projects"`
}
