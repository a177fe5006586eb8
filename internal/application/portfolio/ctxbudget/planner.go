// Package ctxbudget 在令牌预算内决定一次委派可携带多少会话上下文
package ctxbudget

import (
	"context"
	"encoding/json"

	"knearme-portfolio-api/internal/config"
	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	"knearme-portfolio-api/internal/infrastructure/persistence/redis"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
	"knearme-portfolio-api/pkg/logger"
	"knearme-portfolio-api/pkg/metrics"
)

// Mode 上下文装载模式
type Mode string

const (
	// ModeFull 全量消息都在预算内
	ModeFull Mode = "full"
	// ModeCompacted 超出预算，压缩为摘要加最近若干条
	ModeCompacted Mode = "compacted"
	// ModeEmpty 消息存储不可用，降级为空上下文继续
	ModeEmpty Mode = "empty"
)

// Plan 一次委派的上下文装载计划。EstimatedTokens 由实际装载的
// 消息重新计算，调用方不要用消息条数反推装载模式。
type Plan struct {
	Mode            Mode               `json:"mode"`
	Summary         string             `json:"summary,omitempty"`
	Turns           []wfmodel.ChatTurn `json:"turns"`
	EstimatedTokens int                `json:"estimated_tokens"`
	MessageCount    int                `json:"message_count"`
}

// Planner 上下文预算规划器。压缩判定基于会话行上存储的整体估算，
// 不是消息条数。规划永不失败：存储故障降级为 ModeEmpty，委派照常进行。
type Planner struct {
	messages repository.ConversationMessageRepository
	cache    *redis.Cache
	cfg      *config.OrchestratorConfig
}

func NewPlanner(messages repository.ConversationMessageRepository, cache *redis.Cache, cfg *config.OrchestratorConfig) *Planner {
	return &Planner{
		messages: messages,
		cache:    cache,
		cfg:      cfg,
	}
}

// Plan 为会话生成装载计划。maxMessages 是调用方追加的消息上限，
// 0 表示无上限。结果按会话在 Redis 中短期记忆，追加消息时失效。
func (p *Planner) Plan(ctx context.Context, session *entity.ConversationSession, maxMessages int) *Plan {
	if session == nil {
		return p.emptyPlan()
	}

	if p.cache != nil {
		key := redis.ContextPlanKey(session.ID, session.MessageCount, maxMessages)
		raw, err := p.cache.GetOrLoadSafe(ctx, key, p.cfg.PlanCacheTTL, func() (interface{}, error) {
			return p.build(ctx, session, maxMessages)
		})
		if err == nil {
			var plan Plan
			if jsonErr := json.Unmarshal(raw, &plan); jsonErr == nil {
				return &plan
			}
		} else {
			logger.Warn(ctx, "context plan cache path failed, building directly",
				"session_id", session.ID,
				"error", err.Error(),
			)
		}
	}

	plan, err := p.build(ctx, session, maxMessages)
	if err != nil {
		return p.emptyPlan()
	}
	return plan
}

func (p *Planner) build(ctx context.Context, session *entity.ConversationSession, maxMessages int) (*Plan, error) {
	// 预算判定用会话上存储的整体估算；缺失时退回固定值公式
	estimated := session.EstimatedTokens
	if estimated <= 0 {
		estimated = session.MessageCount*p.cfg.PerMessageEstimate + p.cfg.ProjectDataEstimate
	}

	withinCap := maxMessages <= 0 || session.MessageCount <= maxMessages

	if estimated <= p.cfg.TokenCeiling && withinCap {
		msgs, err := p.messages.ListBySession(ctx, session.ID)
		if err != nil {
			logger.Error(ctx, "failed to load conversation messages, degrading to empty context", err,
				"session_id", session.ID,
			)
			return nil, err
		}
		plan := &Plan{
			Mode:            ModeFull,
			Turns:           toTurns(msgs),
			EstimatedTokens: p.cfg.ProjectDataEstimate + entity.EstimateConversationTokens(msgs),
			MessageCount:    len(msgs),
		}
		p.observe(plan)
		return plan, nil
	}

	// 超出预算或超出调用方上限：已有摘要（若存在）加最近 N 条
	n := p.cfg.RecentMessageCount
	if maxMessages > 0 && maxMessages < n {
		n = maxMessages
	}

	recent, err := p.messages.ListRecent(ctx, session.ID, n)
	if err != nil {
		logger.Error(ctx, "failed to load recent conversation messages, degrading to empty context", err,
			"session_id", session.ID,
		)
		return nil, err
	}

	planTokens := p.cfg.ProjectDataEstimate + entity.EstimateConversationTokens(recent)
	if session.Summary != "" {
		planTokens += len(session.Summary) / 4
	}

	plan := &Plan{
		Mode:            ModeCompacted,
		Summary:         session.Summary,
		Turns:           toTurns(recent),
		EstimatedTokens: planTokens,
		MessageCount:    session.MessageCount,
	}
	p.observe(plan)
	return plan, nil
}

func (p *Planner) emptyPlan() *Plan {
	plan := &Plan{
		Mode:            ModeEmpty,
		EstimatedTokens: p.cfg.ProjectDataEstimate,
	}
	p.observe(plan)
	return plan
}

func (p *Planner) observe(plan *Plan) {
	metrics.ContextLoadsTotal.WithLabelValues(string(plan.Mode)).Inc()
	metrics.ContextEstimatedTokens.WithLabelValues(string(plan.Mode)).Observe(float64(plan.EstimatedTokens))
}

func toTurns(msgs []*entity.ConversationMessage) []wfmodel.ChatTurn {
	turns := make([]wfmodel.ChatTurn, 0, len(msgs))
	for _, m := range msgs {
		turns = append(turns, wfmodel.ChatTurn{
			Role:    string(m.Role),
			Content: m.Content,
		})
	}
	return turns
}
