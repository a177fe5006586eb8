package tools

import (
	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/domain/entity"
)

// StateProjection 返回给调用方的状态投影
type StateProjection struct {
	ProjectType     string `json:"project_type,omitempty"`
	ProjectTypeSlug string `json:"project_type_slug,omitempty"`
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

	ReadyForImages  bool `json:"ready_for_images"`
	ReadyForContent bool `json:"ready_for_content"`
	ReadyToPublish  bool `json:"ready_to_publish"`

	NeedsClarification []string `json:"needs_clarification,omitempty"`
}

// ProjectState 转换为投影
func projectState(s *entity.ProjectState) *StateProjection {
	if s == nil {
		return &StateProjection{}
	}
	return &StateProjection{
		ProjectType:        s.ProjectType,
		ProjectTypeSlug:    s.ProjectTypeSlug,
		Location:           s.Location,
		Title:              s.Title,
		Description:        s.Description,
		CustomerProblem:    s.CustomerProblem,
		SolutionApproach:   s.SolutionApproach,
		Duration:           s.Duration,
		ProudOf:            s.ProudOf,
		Materials:          s.Materials,
		Techniques:         s.Techniques,
		Tags:               s.Tags,
		SEOTitle:           s.SEOTitle,
		SEODescription:     s.SEODescription,
		Images:             s.Images,
		HeroImageID:        s.HeroImageID,
		LayoutStyle:        s.LayoutStyle,
		ReadyForImages:     s.ReadyForImages,
		ReadyForContent:    s.ReadyForContent,
		ReadyToPublish:     s.ReadyToPublish,
		NeedsClarification: s.NeedsClarification,
	}
}

// DelegationOutput 委派类工具的统一输出
type DelegationOutput struct {
	Success       bool             `json:"success"`
	Message       string           `json:"message,omitempty"`
	State         *StateProjection `json:"state,omitempty"`
	ChangedFields []string         `json:"changed_fields,omitempty"`

	AgentsRun       []string                   `json:"agents_run,omitempty"`
	AgentsSucceeded []string                   `json:"agents_succeeded,omitempty"`
	AgentErrors     []delegate.ErrorDescriptor `json:"agent_errors,omitempty"`

	Quality *delegate.QualityVerdict `json:"quality,omitempty"`

	ContextMode            string `json:"context_mode,omitempty"`
	ContextEstimatedTokens int    `json:"context_estimated_tokens,omitempty"`
}

// UpdateFieldOutput 字段更新工具的输出
type UpdateFieldOutput struct {
	Success bool             `json:"success"`
	Field   string           `json:"field"`
	State   *StateProjection `json:"state"`
	// LegacySynced 旧版作品页同步是否成功，失败不影响主写入
	LegacySynced bool `json:"legacy_synced"`
}

// ClarificationOutput 待澄清字段工具的输出
type ClarificationOutput struct {
	Success bool     `json:"success"`
	Fields  []string `json:"fields"`
	Message string   `json:"message"`
}
