// Package model 定义工作流层的输入输出结构
package model

import "encoding/json"

// ChatTurn 对话片段，按时间升序传给生成链
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoleGenerateInput 单个生成角色的输入。StateJSON 是当前项目状态的
// 快照，Summary 仅在对话被压缩时非空。
type RoleGenerateInput struct {
	Provider    string
	Model       string
	Temperature *float32
	MaxTokens   *int

	StateJSON json.RawMessage
	Summary   string
	Turns     []ChatTurn
	// ImageCount 当前已上传图片数，供视觉编排角色参考
	ImageCount int
}

// StatePatch 角色输出中的状态增量，字段语义与项目状态一致。
// 缺省字段不参与合并。
type StatePatch struct {
	ProjectType      string   `json:"project_type,omitempty"`
	City             string   `json:"city,omitempty"`
	State            string   `json:"state,omitempty"`
	Title            string   `json:"title,omitempty"`
	Description      string   `json:"description,omitempty"`
	CustomerProblem  string   `json:"customer_problem,omitempty"`
	SolutionApproach string   `json:"solution_approach,omitempty"`
	Duration         string   `json:"duration,omitempty"`
	ProudOf          string   `json:"proud_of,omitempty"`
	Materials        []string `json:"materials,omitempty"`
	Techniques       []string `json:"techniques,omitempty"`
	Tags             []string `json:"tags,omitempty"`
	SEOTitle         string   `json:"seo_title,omitempty"`
	SEODescription   string   `json:"seo_description,omitempty"`
	HeroImageID      string   `json:"hero_image_id,omitempty"`
	LayoutStyle      string   `json:"layout_style,omitempty"`
}

// StoryOutput 叙事角色的结构化输出
type StoryOutput struct {
	AssistantMessage   string     `json:"assistant_message"`
	State              StatePatch `json:"state"`
	NeedsClarification []string   `json:"needs_clarification,omitempty"`
}

// DesignOutput 视觉编排角色的结构化输出
type DesignOutput struct {
	AssistantMessage string     `json:"assistant_message"`
	State            StatePatch `json:"state"`
}

// QualityOutput 质量审查角色的结构化输出
type QualityOutput struct {
	AssistantMessage string   `json:"assistant_message"`
	Publishable      bool     `json:"publishable"`
	Issues           []string `json:"issues,omitempty"`
	MissingFields    []string `json:"missing_fields,omitempty"`
}
