package llm

import (
	"context"

	"knearme-portfolio-api/internal/domain/service"
	"knearme-portfolio-api/pkg/logger"
)

// LogUsageRecorder 将 LLM 使用量写入结构化日志。
// 计费聚合由日志管道下游完成，这里只负责落盘。
type LogUsageRecorder struct{}

func NewLogUsageRecorder() *LogUsageRecorder {
	return &LogUsageRecorder{}
}

func (r *LogUsageRecorder) Record(ctx context.Context, in service.LLMUsageInput) error {
	logger.Info(ctx, "llm usage",
		"business_id", in.BusinessID,
		"workflow", in.Workflow,
		"provider", in.Provider,
		"model", in.Model,
		"prompt_tokens", in.PromptTokens,
		"completion_tokens", in.CompletionTokens,
		"duration_ms", in.DurationMs,
	)
	return nil
}
