package service

import "context"

// LLMUsageInput 一次 LLM 调用的可观测数据。
// 位于 domain/service 作为跨层稳定契约，避免基础设施层反向依赖应用层。
type LLMUsageInput struct {
	BusinessID string

	Workflow string
	Provider string
	Model    string

	PromptTokens     int
	CompletionTokens int
	DurationMs       int
}

// LLMUsageRecorder 记录 LLM 使用量。实现必须 best-effort，
// 不得阻塞或失败主业务流程。
type LLMUsageRecorder interface {
	Record(ctx context.Context, in LLMUsageInput) error
}
