// Package delegate 把会话内容分派给各生成角色并汇总结果。
// 委派永远不向上抛错：角色失败以错误描述随结果返回，
// 是否走确定性兜底由调用方决定。
package delegate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"knearme-portfolio-api/internal/domain/entity"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
	apperrors "knearme-portfolio-api/pkg/errors"
	"knearme-portfolio-api/pkg/logger"
	"knearme-portfolio-api/pkg/metrics"
)

// Role 生成角色
type Role string

const (
	// RoleStory 叙事抽取与文案
	RoleStory Role = "story"
	// RoleDesign 版式与展示决策
	RoleDesign Role = "design"
	// RoleQuality 发布前质量审查，只提示不拦截
	RoleQuality Role = "quality"
)

// Context 一次委派的输入快照。State 在派发前会被克隆，
// 角色之间互不干扰。用完即弃，跨调用不复用。
type Context struct {
	BusinessID string
	ProjectID  string
	SessionID  string

	State   *entity.ProjectState
	Summary string
	Turns   []wfmodel.ChatTurn

	Provider string
	Model    string
}

// QualityVerdict 质量角色的审查结论
type QualityVerdict struct {
	Publishable   bool     `json:"publishable"`
	Issues        []string `json:"issues,omitempty"`
	MissingFields []string `json:"missing_fields,omitempty"`
}

// ErrorDescriptor 角色失败的结构化描述，随结果返回而非抛出
type ErrorDescriptor struct {
	Role      Role                `json:"role"`
	Code      apperrors.ErrorCode `json:"code"`
	Message   string              `json:"message"`
	Retryable bool                `json:"retryable"`
}

// Result 单个角色的委派结果。Err 非空时 StatePatch 为空，
// 即输入状态未被改动。Fallback 为 true 表示结果来自确定性兜底。
type Result struct {
	Role          Role
	AssistantText string
	StatePatch    *entity.ProjectState
	// Actions 角色实际改动的字段名
	Actions []string
	// NeedsClarification 叙事角色标记的待澄清字段
	NeedsClarification []string
	Quality            *QualityVerdict
	Err                *ErrorDescriptor
	Fallback           bool
}

// Backend 实际执行角色生成的后端（LLM 链）
type Backend interface {
	Run(ctx context.Context, role Role, dctx *Context) (*Result, error)
}

// Delegator 角色委派器
type Delegator struct {
	backend Backend
}

func NewDelegator(backend Backend) *Delegator {
	return &Delegator{backend: backend}
}

// Delegate 执行单个角色。后端错误与 panic 都被吸收为结果中的错误描述。
func (d *Delegator) Delegate(ctx context.Context, role Role, dctx *Context) (result *Result) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error(ctx, "delegation panicked", fmt.Errorf("panic: %v", r), "role", string(role))
			result = errorResult(role, fmt.Errorf("panic: %v", r))
		}
		status := "ok"
		switch {
		case result != nil && result.Err != nil:
			status = "error"
		case result != nil && result.Fallback:
			status = "fallback"
		}
		metrics.DelegationTotal.WithLabelValues(string(role), status).Inc()
		metrics.DelegationDuration.WithLabelValues(string(role)).Observe(time.Since(start).Seconds())
	}()

	if dctx == nil {
		return errorResult(role, fmt.Errorf("empty delegation context"))
	}

	// 每个角色从独立的状态副本出发
	safe := *dctx
	safe.State = dctx.State.Clone()

	res, err := d.backend.Run(ctx, role, &safe)
	if err != nil {
		logger.Warn(ctx, "delegation backend failed",
			"role", string(role),
			"project_id", dctx.ProjectID,
			"error", err.Error(),
		)
		return errorResult(role, err)
	}
	if res == nil {
		return errorResult(role, fmt.Errorf("backend returned nil result"))
	}
	res.Role = role
	if res.StatePatch != nil && len(res.Actions) == 0 {
		res.Actions = entity.ChangedFields(entity.NewProjectState(), res.StatePatch)
	}
	return res
}

// DelegateParallel 并行执行多个角色，结果顺序与入参角色顺序一致。
// 任何角色失败都不影响其它角色。
func (d *Delegator) DelegateParallel(ctx context.Context, roles []Role, dctx *Context) []*Result {
	results := make([]*Result, len(roles))

	var wg sync.WaitGroup
	for i, role := range roles {
		wg.Add(1)
		go func(i int, role Role) {
			defer wg.Done()
			results[i] = d.Delegate(ctx, role, dctx)
		}(i, role)
	}
	wg.Wait()

	return results
}

func errorResult(role Role, cause error) *Result {
	return &Result{Role: role, Err: &ErrorDescriptor{
		Role:      role,
		Code:      apperrors.CodeDelegationFailed,
		Message:   cause.Error(),
		Retryable: true,
	}}
}

// RolesAttempted 返回被派发过的角色名，无论成败
func RolesAttempted(results []*Result) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		names = append(names, string(r.Role))
	}
	return names
}

// RolesSucceeded 返回产出了可用结果的角色名（成功或兜底）
func RolesSucceeded(results []*Result) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil || r.Err != nil {
			continue
		}
		names = append(names, string(r.Role))
	}
	return names
}

// MergeResults 把各角色的状态增量按入参顺序折叠进基础状态。
// 并行叙事+编排时调用方保证顺序为叙事在前、编排在后，重叠标量
// 以编排为准。失败角色被跳过，部分失败只是少合并一份增量。
func MergeResults(base *entity.ProjectState, results []*Result) *entity.ProjectState {
	merged := base.Clone()
	merged.RecomputeDerived()
	for _, r := range results {
		if r == nil || r.Err != nil || r.StatePatch == nil {
			continue
		}
		merged = entity.Merge(merged, r.StatePatch)
		if len(r.NeedsClarification) > 0 {
			merged = entity.Merge(merged, &entity.ProjectState{NeedsClarification: r.NeedsClarification})
		}
	}
	return merged
}
