package chain

import (
	"context"
	"fmt"
	"strings"
	"sync"

	openaiopts "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	llmctx "knearme-portfolio-api/internal/domain/service"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
	wfnode "knearme-portfolio-api/internal/workflow/node"
	workflowport "knearme-portfolio-api/internal/workflow/port"
	workflowprompt "knearme-portfolio-api/internal/workflow/prompt"
	"knearme-portfolio-api/pkg/logger"
)

type QualityChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message]
	chainErr  error
}

func NewQualityChain(factory workflowport.ChatModelFactory) *QualityChain {
	return &QualityChain{factory: factory}
}

func (c *QualityChain) Invoke(ctx context.Context, in *wfmodel.RoleGenerateInput) (*schema.Message, error) {
	if c == nil || c.factory == nil {
		return nil, fmt.Errorf("llm factory not configured")
	}
	if in == nil {
		return nil, fmt.Errorf("input is nil")
	}

	chain, err := c.getChain()
	if err != nil {
		return nil, err
	}
	return chain.Invoke(ctx, in)
}

type qualityChainState struct {
	In       *wfmodel.RoleGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *QualityChain) getChain() (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *QualityChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.RoleGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.RoleGenerateInput) (*qualityChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &qualityChainState{In: in}, nil
		}),
		compose.WithNodeName("quality.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *qualityChainState) (*qualityChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatRoleMessages(ctx, workflowprompt.PromptQualityV1, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("quality.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *qualityChainState) (*qualityChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "quality_review", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildQualityModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildQualityModelOptions(st.In, false)...)
			}
			if err != nil {
				return nil, err
			}
			if outMsg == nil {
				return nil, fmt.Errorf("empty llm response")
			}
			st.OutMsg = outMsg
			return st, nil
		}),
		compose.WithNodeName("quality.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *qualityChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("quality.finalize"),
	)

	return chain.Compile(ctx)
}

func buildQualityModelOptions(in *wfmodel.RoleGenerateInput, enableSchema bool) []model.Option {
	var extra []model.Option
	if enableSchema {
		extra = append(extra, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "quality_review",
					"strict": false,
					"schema": qualityJSONSchema(),
				},
			},
		}))
	}
	return buildRoleModelOptions(in, extra)
}

func qualityJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"assistant_message", "publishable"},
		"properties": map[string]any{
			"assistant_message": map[string]any{"type": "string"},
			"publishable":       map[string]any{"type": "boolean"},
			"issues":            stringArraySchema(),
			"missing_fields":    stringArraySchema(),
		},
	}
}
