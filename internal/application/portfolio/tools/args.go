package tools

// UpdateProjectFieldArgs 字段更新。Value 保持 any：
// 标量字段要求字符串，列表字段要求字符串数组，调度时校验。
type UpdateProjectFieldArgs struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value" validate:"required"`
}

// AnalyzeConversationArgs 会话分析
type AnalyzeConversationArgs struct {
	// MaxMessages 调用方对装载消息数的上限，0 表示不限
	MaxMessages int `json:"max_messages,omitempty" validate:"omitempty,min=1"`
}

// ComposeLayoutArgs 视觉编排
type ComposeLayoutArgs struct {
	MaxMessages int `json:"max_messages,omitempty" validate:"omitempty,min=1"`
}

// CheckPublishReadinessArgs 质量审查
type CheckPublishReadinessArgs struct{}

// GeneratePortfolioArgs 全量生成
type GeneratePortfolioArgs struct {
	MaxMessages int `json:"max_messages,omitempty" validate:"omitempty,min=1"`
}

// ShowImagePickerArgs 纯回显：原样返回给 UI
type ShowImagePickerArgs struct {
	Category string `json:"category,omitempty" validate:"omitempty,oneof=before progress after detail"`
	Multiple bool   `json:"multiple,omitempty"`
}

// ShowPublishPreviewArgs 纯回显：原样返回给 UI
type ShowPublishPreviewArgs struct {
	Section string `json:"section,omitempty"`
}

// RequestClarificationArgs 待澄清字段标记
type RequestClarificationArgs struct {
	Fields []string `json:"fields" validate:"required,min=1,dive,required"`
}
