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

type StoryChain struct {
	factory workflowport.ChatModelFactory

	chainOnce sync.Once
	chain     compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message]
	chainErr  error
}

func NewStoryChain(factory workflowport.ChatModelFactory) *StoryChain {
	return &StoryChain{factory: factory}
}

func (c *StoryChain) Invoke(ctx context.Context, in *wfmodel.RoleGenerateInput) (*schema.Message, error) {
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

type storyChainState struct {
	In       *wfmodel.RoleGenerateInput
	Messages []*schema.Message
	OutMsg   *schema.Message
}

func (c *StoryChain) getChain() (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	c.chainOnce.Do(func() {
		c.chain, c.chainErr = c.buildChain(context.Background())
	})
	return c.chain, c.chainErr
}

func (c *StoryChain) buildChain(ctx context.Context) (compose.Runnable[*wfmodel.RoleGenerateInput, *schema.Message], error) {
	chain := compose.NewChain[*wfmodel.RoleGenerateInput, *schema.Message]()

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, in *wfmodel.RoleGenerateInput) (*storyChainState, error) {
			if in == nil {
				return nil, fmt.Errorf("input is nil")
			}
			return &storyChainState{In: in}, nil
		}),
		compose.WithNodeName("story.init"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *storyChainState) (*storyChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}
			msgs, err := formatRoleMessages(ctx, workflowprompt.PromptStoryV1, st.In)
			if err != nil {
				return nil, err
			}
			st.Messages = msgs
			return st, nil
		}),
		compose.WithNodeName("story.template"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(ctx context.Context, st *storyChainState) (*storyChainState, error) {
			if st == nil || st.In == nil {
				return nil, fmt.Errorf("state is nil")
			}

			ctx = llmctx.WithWorkflowProvider(ctx, "story_generate", strings.TrimSpace(st.In.Provider))
			chatModel, err := c.factory.Get(ctx, strings.TrimSpace(st.In.Provider))
			if err != nil {
				return nil, err
			}

			outMsg, err := chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In, true)...)
			if err != nil && wfnode.IsResponseFormatUnsupportedError(err) {
				logger.Warn(ctx, "llm json_schema not supported, fallback to prompt-only",
					"provider", strings.TrimSpace(st.In.Provider),
					"model", strings.TrimSpace(st.In.Model),
					"error", err.Error(),
				)
				outMsg, err = chatModel.Generate(ctx, st.Messages, buildStoryModelOptions(st.In, false)...)
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
		compose.WithNodeName("story.llm"),
	)

	chain.AppendLambda(
		compose.InvokableLambda(func(_ context.Context, st *storyChainState) (*schema.Message, error) {
			if st == nil || st.OutMsg == nil {
				return nil, fmt.Errorf("state is nil")
			}
			return st.OutMsg, nil
		}),
		compose.WithNodeName("story.finalize"),
	)

	return chain.Compile(ctx)
}

func buildStoryModelOptions(in *wfmodel.RoleGenerateInput, enableSchema bool) []model.Option {
	var extra []model.Option
	if enableSchema {
		extra = append(extra, openaiopts.WithExtraFields(map[string]any{
			"response_format": map[string]any{
				"type": "json_schema",
				"json_schema": map[string]any{
					"name":   "story_generate",
					"strict": false,
					"schema": storyJSONSchema(),
				},
			},
		}))
	}
	return buildRoleModelOptions(in, extra)
}

func storyJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required":             []any{"assistant_message", "state"},
		"properties": map[string]any{
			"assistant_message": map[string]any{"type": "string"},
			"state": statePatchJSONSchema(map[string]any{
				"project_type":      map[string]any{"type": "string"},
				"city":              map[string]any{"type": "string"},
				"state":             map[string]any{"type": "string"},
				"title":             map[string]any{"type": "string"},
				"description":       map[string]any{"type": "string"},
				"customer_problem":  map[string]any{"type": "string"},
				"solution_approach": map[string]any{"type": "string"},
				"duration":          map[string]any{"type": "string"},
				"proud_of":          map[string]any{"type": "string"},
				"materials":         stringArraySchema(),
				"techniques":        stringArraySchema(),
			}),
			"needs_clarification": stringArraySchema(),
		},
	}
}
