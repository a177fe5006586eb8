// Package tools 是会话代理工具调用的调度边界。
// 每个调用独立校验、独立执行、独立上报成败，单个失败不影响同批次其它调用。
package tools

import (
	"encoding/json"

	apperrors "knearme-portfolio-api/pkg/errors"
)

// Name 工具标识。调度用穷举 switch 而非字符串表驱动，
// 新增工具漏接处理分支时编译期报警。
type Name string

const (
	// NameUpdateProjectField 单字段写入，带服务端白名单
	NameUpdateProjectField Name = "update_project_field"
	// NameAnalyzeConversation 叙事+编排并行分析会话
	NameAnalyzeConversation Name = "analyze_conversation"
	// NameComposeLayout 仅视觉编排
	NameComposeLayout Name = "compose_layout"
	// NameCheckPublishReadiness 仅质量审查，只提示不拦截
	NameCheckPublishReadiness Name = "check_publish_readiness"
	// NameGeneratePortfolio 全量生成：叙事+编排并行，随后质量审查
	NameGeneratePortfolio Name = "generate_portfolio"
	// NameShowImagePicker 纯回显，副作用在调用方 UI
	NameShowImagePicker Name = "show_image_picker"
	// NameShowPublishPreview 纯回显，副作用在调用方 UI
	NameShowPublishPreview Name = "show_publish_preview"
	// NameRequestClarification 标记待澄清字段
	NameRequestClarification Name = "request_clarification"
)

// Call 批次中的单个工具调用
type Call struct {
	ID   string          `json:"id,omitempty"`
	Name Name            `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

// Scope 批次级别的租户与目标限定，来自 HTTP 层
type Scope struct {
	BusinessID        string
	ProjectID         string
	SessionID         string
	LatestUserMessage string

	Provider string
	Model    string
}

// CallError 单个调用的结构化错误
type CallError struct {
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Retryable bool                `json:"retryable"`
	Details   any                 `json:"details,omitempty"`
}

// CallResult 与入参调用一一对应；Output 与 Error 互斥
type CallResult struct {
	ID     string     `json:"id,omitempty"`
	Name   Name       `json:"name"`
	Output any        `json:"output,omitempty"`
	Error  *CallError `json:"error,omitempty"`
}

// BatchResult 整批调度结果，Results[i] 对应 Calls[i]
type BatchResult struct {
	Results    []CallResult `json:"results"`
	DurationMs int64        `json:"duration_ms"`
}
