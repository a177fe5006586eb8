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

type DesignChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message]
	chainErr  error
}

func NewDesignChain(factory workflowport.ChatModelFactory) *DesignChain {
	return &DesignChain{factory: factory}
}

func (c *DesignChain) Invoke(ctx context.Context, in *wfmodel.RoleGenerateInput) (*schema.Message, error) {
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

type designChainState struct {
	In       *wfmodel.RoleGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *DesignChain) getChain() (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *DesignChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.RoleGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.RoleGenerateInput) (*designChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &designChainState{In: in}, nil
		}),
		compose.WithNodeName("design.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *designChainState) (*designChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatRoleMessages(ctx, workflowprompt.PromptDesignV1, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("design.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *designChainState) (*designChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "design_generate", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildDesignModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildDesignModelOptions(st.In, false)...)
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
		compose.WithNodeName("design.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *designChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("design.finalize"),
	)

	return chain.Compile(ctx)
}

func buildDesignModelOptions(in *wfmodel.RoleGenerateInput, enableSchema bool) []model.Option {
	var extra []model.Option
	if enableSchema {
		extra = append(extra, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "design_generate",
					"strict": false,
					"schema": designJSONSchema(),
				},
			},
		}))
	}
	return buildRoleModelOptions(in, extra)
}

func designJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"assistant_message", "state"},
		"properties": map[string]any{
			"assistant_message": map[string]any{"type": "string"},
			"state": statePatchJSONSchema(map[string]any{
				"layout_style": map[string]any{
					"type": "string",
					"enum": []any{"gallery", "before_after", "story", "minimal"},
				},
				"hero_image_id":   map[string]any{"type": "string"},
				"seo_title":       map[string]any{"type": "string"},
				"seo_description": map[string]any{"type": "string"},
				"tags":            stringArraySchema(),
			}),
		},
	}
}
