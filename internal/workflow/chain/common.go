// Package chain 组装各生成角色的 Eino 执行链
package chain

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	wfmodel "knearme-portfolio-api/internal/workflow/model"
	wfnode "knearme-portfolio-api/internal/workflow/node"
	workflowprompt "knearme-portfolio-api/internal/workflow/prompt"
)

var defaultPromptRegistry = workflowprompt.NewRegistry()

func formatRoleMessages(ctx context.Context, id workflowprompt.PromptID, in *wfmodel.RoleGenerateInput) ([]*schema.Message, error) {
	tpl, err := defaultPromptRegistry.ChatTemplate(id)
	if err != nil {
		return nil, err
	}
	stateJSON := "{}"
	if len(in.StateJSON) > 0 {
		if s := strings.TrimSpace(string(in.StateJSON)); s != "" {
			stateJSON = s
		}
	}
	vars := map[string]any{
		"state_json":         stateJSON,
		"conversation_block": wfnode.BuildConversationBlock(in.Summary, in.Turns),
		"image_count":        in.ImageCount,
	}
	return tpl.Format(ctx, vars)
}

func buildRoleModelOptions(in *wfmodel.RoleGenerateInput, extra []model.Option) []model.Option {
	opts := make([]model.Option, 0, 4)
	if in == nil {
		return opts
	}
	if in.Temperature != nil {
		opts = append(opts, model.WithTemperature(*in.Temperature))
	}
	if in.MaxTokens != nil {
		opts = append(opts, model.WithMaxTokens(*in.MaxTokens))
	}
	if strings.TrimSpace(in.Model) != "" {
		opts = append(opts, model.WithModel(strings.TrimSpace(in.Model)))
	}
	opts = append(opts, extra...)
	return opts
}

func statePatchJSONSchema(allowed map[string]any) map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           allowed,
	}
}

func stringArraySchema() map[string]any {
	return map[string]any{
		"type":  "array",
		"items": map[string]any{"type": "string"},
	}
}
