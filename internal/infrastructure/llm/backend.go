package llm

import (
	"context"
	"encoding/json"
	"fmt"

	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/workflow/chain"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
	wfnode "knearme-portfolio-api/internal/workflow/node"
	workflowport "knearme-portfolio-api/internal/workflow/port"
)

// ChainBackend 基于 Eino 执行链的委派后端
type ChainBackend struct {
	story   *chain.StoryChain
	design  *chain.DesignChain
	quality *chain.QualityChain
}

func NewChainBackend(factory workflowport.ChatModelFactory) *ChainBackend {
	return &ChainBackend{
		story:   chain.NewStoryChain(factory),
		design:  chain.NewDesignChain(factory),
		quality: chain.NewQualityChain(factory),
	}
}

func (b *ChainBackend) Run(ctx context.Context, role delegate.Role, dctx *delegate.Context) (*delegate.Result, error) {
	in, err := buildRoleInput(dctx)
	if err != nil {
		return nil, err
	}

	switch role {
	case delegate.RoleStory:
		msg, err := b.story.Invoke(ctx, in)
		if err != nil {
			return nil, err
		}
		var out wfmodel.StoryOutput
		if err := decodeRoleOutput(msg.Content, &out); err != nil {
			return nil, err
		}
		return &delegate.Result{
			Role:               role,
			AssistantText:      out.AssistantMessage,
			StatePatch:         statePatchToEntity(out.State),
			NeedsClarification: out.NeedsClarification,
		}, nil

	case delegate.RoleDesign:
		msg, err := b.design.Invoke(ctx, in)
		if err != nil {
			return nil, err
		}
		var out wfmodel.DesignOutput
		if err := decodeRoleOutput(msg.Content, &out); err != nil {
			return nil, err
		}
		return &delegate.Result{
			Role:          role,
			AssistantText: out.AssistantMessage,
			StatePatch:    statePatchToEntity(out.State),
		}, nil

	case delegate.RoleQuality:
		msg, err := b.quality.Invoke(ctx, in)
		if err != nil {
			return nil, err
		}
		var out wfmodel.QualityOutput
		if err := decodeRoleOutput(msg.Content, &out); err != nil {
			return nil, err
		}
		return &delegate.Result{
			Role:          role,
			AssistantText: out.AssistantMessage,
			Quality: &delegate.QualityVerdict{
				Publishable:   out.Publishable,
				Issues:        out.Issues,
				MissingFields: out.MissingFields,
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown delegation role: %s", role)
	}
}

func buildRoleInput(dctx *delegate.Context) (*wfmodel.RoleGenerateInput, error) {
	if dctx == nil {
		return nil, fmt.Errorf("delegation context is nil")
	}
	stateJSON, err := json.Marshal(dctx.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal project state: %w", err)
	}
	imageCount := 0
	if dctx.State != nil {
		imageCount = len(dctx.State.Images)
	}
	return &wfmodel.RoleGenerateInput{
		Provider:   dctx.Provider,
		Model:      dctx.Model,
		StateJSON:  stateJSON,
		Summary:    dctx.Summary,
		Turns:      dctx.Turns,
		ImageCount: imageCount,
	}, nil
}

func decodeRoleOutput(content string, out any) error {
	raw := wfnode.ExtractJSONObject(content)
	if raw == "" {
		return fmt.Errorf("empty llm output")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to decode llm output: %w", err)
	}
	return nil
}

func statePatchToEntity(p wfmodel.StatePatch) *entity.ProjectState {
	return &entity.ProjectState{
		ProjectType:      p.ProjectType,
		City:             p.City,
		State:            p.State,
		Title:            p.Title,
		Description:      p.Description,
		CustomerProblem:  p.CustomerProblem,
		SolutionApproach: p.SolutionApproach,
		Duration:         p.Duration,
		ProudOf:          p.ProudOf,
		Materials:        p.Materials,
		Techniques:       p.Techniques,
		Tags:             p.Tags,
		SEOTitle:         p.SEOTitle,
		SEODescription:   p.SEODescription,
		HeroImageID:      p.HeroImageID,
		LayoutStyle:      p.LayoutStyle,
	}
}
