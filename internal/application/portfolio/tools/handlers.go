package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"knearme-portfolio-api/internal/application/portfolio/ctxbudget"
	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/domain/entity"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
	apperrors "knearme-portfolio-api/pkg/errors"
	"knearme-portfolio-api/pkg/logger"
)

// loadProject 按双键读取项目行并重建状态。找不到项目给出明确的
// 用户可见错误，而不是堆栈。
func (d *Dispatcher) loadProject(ctx context.Context, scope *Scope) (*entity.Project, *entity.ProjectState, *CallError) {
	if scope == nil || scope.ProjectID == "" {
		return nil, nil, &CallError{
			Code:    apperrors.CodeValidationFailed,
			Message: "project_id is required for this tool",
		}
	}

	project, err := d.projects.Find(ctx, scope.ProjectID, scope.BusinessID)
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) && appErr.Code == apperrors.CodeProjectNotFound {
			return nil, nil, &CallError{
				Code:    apperrors.CodeProjectNotFound,
				Message: "no project found",
			}
		}
		logger.Error(ctx, "project lookup failed", err, "project_id", scope.ProjectID)
		return nil, nil, &CallError{
			Code:      apperrors.CodeDatabaseError,
			Message:   "project store unavailable, try again shortly",
			Retryable: true,
		}
	}

	return project, entity.StateFromProject(project), nil
}

// buildDelegationContext 规划上下文预算并组装委派输入。
// 会话缺失或存储故障都降级为空上下文冷启动。
func (d *Dispatcher) buildDelegationContext(ctx context.Context, scope *Scope, state *entity.ProjectState, maxMessages int) (*delegate.Context, *ctxbudget.Plan) {
	var session *entity.ConversationSession
	if scope.SessionID != "" {
		var err error
		session, err = d.sessions.Find(ctx, scope.SessionID, scope.BusinessID)
		if err != nil {
			logger.Warn(ctx, "session lookup failed, proceeding with empty context",
				"session_id", scope.SessionID,
				"error", err.Error(),
			)
			session = nil
		}
	}

	plan := d.planner.Plan(ctx, session, maxMessages)

	turns := plan.Turns
	if text := strings.TrimSpace(scope.LatestUserMessage); text != "" {
		turns = append(turns, wfmodel.ChatTurn{Role: string(entity.RoleUser), Content: text})
	}

	return &delegate.Context{
		BusinessID: scope.BusinessID,
		ProjectID:  scope.ProjectID,
		SessionID:  scope.SessionID,
		State:      state,
		Summary:    plan.Summary,
		Turns:      turns,
		Provider:   scope.Provider,
		Model:      scope.Model,
	}, plan
}

// persistChanges 把合并后的变化写回项目行，返回实际写回的字段
func (d *Dispatcher) persistChanges(ctx context.Context, projectID string, before, after *entity.ProjectState) ([]string, *CallError) {
	changed := entity.ChangedFields(before, after)
	if len(changed) == 0 {
		return nil, nil
	}
	if err := d.projects.UpdateFields(ctx, projectID, after.FieldValues(changed)); err != nil {
		logger.Error(ctx, "failed to persist merged state", err,
			"project_id", projectID,
			"fields", changed,
		)
		return nil, &CallError{
			Code:      apperrors.CodeDatabaseError,
			Message:   "failed to save project changes, try again shortly",
			Retryable: true,
		}
	}
	return changed, nil
}

func (d *Dispatcher) handleAnalyzeConversation(ctx context.Context, scope *Scope, call Call, args *AnalyzeConversationArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	dctx, plan := d.buildDelegationContext(ctx, scope, state, args.MaxMessages)

	// 固定顺序：叙事在前、编排在后，重叠字段以编排为准
	results := d.delegator.DelegateParallel(ctx, []delegate.Role{delegate.RoleStory, delegate.RoleDesign}, dctx)

	// 叙事失败时降级到确定性关键词抽取；编排失败保持错误上报，
	// 调用方可以稍后单独触发 compose_layout
	if results[0].Err != nil {
		results[0] = d.extractor.Extract(dctx)
	}

	merged := delegate.MergeResults(state, results)
	changed, cerr := d.persistChanges(ctx, scope.ProjectID, state, merged)
	if cerr != nil {
		return errResult(call, cerr)
	}

	return okResult(call, &DelegationOutput{
		Success:                true,
		Message:                pickAssistantText(results),
		State:                  projectState(merged),
		ChangedFields:          changed,
		AgentsRun:              delegate.RolesAttempted(results),
		AgentsSucceeded:        delegate.RolesSucceeded(results),
		AgentErrors:            collectErrors(results),
		ContextMode:            string(plan.Mode),
		ContextEstimatedTokens: plan.EstimatedTokens,
	})
}

func (d *Dispatcher) handleComposeLayout(ctx context.Context, scope *Scope, call Call, args *ComposeLayoutArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	dctx, plan := d.buildDelegationContext(ctx, scope, state, args.MaxMessages)

	result := d.delegator.Delegate(ctx, delegate.RoleDesign, dctx)
	if result.Err != nil {
		result = d.composer.Compose(dctx)
	}

	results := []*delegate.Result{result}
	merged := delegate.MergeResults(state, results)
	changed, cerr := d.persistChanges(ctx, scope.ProjectID, state, merged)
	if cerr != nil {
		return errResult(call, cerr)
	}

	return okResult(call, &DelegationOutput{
		Success:                true,
		Message:                result.AssistantText,
		State:                  projectState(merged),
		ChangedFields:          changed,
		AgentsRun:              delegate.RolesAttempted(results),
		AgentsSucceeded:        delegate.RolesSucceeded(results),
		ContextMode:            string(plan.Mode),
		ContextEstimatedTokens: plan.EstimatedTokens,
	})
}

func (d *Dispatcher) handleCheckPublishReadiness(ctx context.Context, scope *Scope, call Call, _ *CheckPublishReadinessArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	dctx, plan := d.buildDelegationContext(ctx, scope, state, 0)

	result := d.delegator.Delegate(ctx, delegate.RoleQuality, dctx)
	if result.Err != nil {
		// 质量审查纯属提示，失败不值得报错，提示稍后再试即可
		return okResult(call, &DelegationOutput{
			Success:     false,
			Message:     retryMessage(result.Err),
			State:       projectState(state),
			AgentsRun:   []string{string(delegate.RoleQuality)},
			AgentErrors: []delegate.ErrorDescriptor{*result.Err},
			ContextMode: string(plan.Mode),
		})
	}

	return okResult(call, &DelegationOutput{
		Success:         true,
		Message:         result.AssistantText,
		State:           projectState(state),
		AgentsRun:       []string{string(delegate.RoleQuality)},
		AgentsSucceeded: []string{string(delegate.RoleQuality)},
		Quality:         result.Quality,
		ContextMode:     string(plan.Mode),
	})
}

func (d *Dispatcher) handleGeneratePortfolio(ctx context.Context, scope *Scope, call Call, args *GeneratePortfolioArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	dctx, plan := d.buildDelegationContext(ctx, scope, state, args.MaxMessages)

	results := d.delegator.DelegateParallel(ctx, []delegate.Role{delegate.RoleStory, delegate.RoleDesign}, dctx)

	// 全量生成必须产出完整页面，两个角色都有确定性兜底
	if results[0].Err != nil {
		results[0] = d.extractor.Extract(dctx)
	}
	if results[1].Err != nil {
		results[1] = d.composer.Compose(dctx)
	}

	merged := delegate.MergeResults(state, results)

	// 质量审查跑在合并后的状态上
	qctx := *dctx
	qctx.State = merged
	quality := d.delegator.Delegate(ctx, delegate.RoleQuality, &qctx)
	results = append(results, quality)

	changed, cerr := d.persistChanges(ctx, scope.ProjectID, state, merged)
	if cerr != nil {
		return errResult(call, cerr)
	}

	out := &DelegationOutput{
		Success:                true,
		Message:                pickAssistantText(results),
		State:                  projectState(merged),
		ChangedFields:          changed,
		AgentsRun:              delegate.RolesAttempted(results),
		AgentsSucceeded:        delegate.RolesSucceeded(results),
		AgentErrors:            collectErrors(results),
		ContextMode:            string(plan.Mode),
		ContextEstimatedTokens: plan.EstimatedTokens,
	}
	if quality.Err == nil {
		out.Quality = quality.Quality
	}
	return okResult(call, out)
}

func (d *Dispatcher) handleUpdateProjectField(ctx context.Context, scope *Scope, call Call, args *UpdateProjectFieldArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	// 白名单是防调用方绕过编译期约束的第二道防线
	kind, ok := entity.MutableProjectFields()[args.Field]
	if !ok {
		return errResult(call, &CallError{
			Code:    apperrors.CodeFieldNotAllowed,
			Message: fmt.Sprintf("field %q is not updatable", args.Field),
		})
	}

	patch := entity.NewProjectState()
	switch kind {
	case entity.FieldKindScalar:
		text, ok := args.Value.(string)
		if !ok {
			return errResult(call, &CallError{
				Code:    apperrors.CodeFieldTypeMismatch,
				Message: fmt.Sprintf("field %q expects a string value", args.Field),
			})
		}
		applyScalarField(patch, args.Field, text)
	case entity.FieldKindList:
		items, cerr := stringSlice(args.Value)
		if cerr != nil {
			return errResult(call, &CallError{
				Code:    apperrors.CodeFieldTypeMismatch,
				Message: fmt.Sprintf("field %q expects a list of strings", args.Field),
			})
		}
		applyListField(patch, args.Field, items)
	}

	merged := entity.Merge(state, patch)
	if _, cerr := d.persistChanges(ctx, scope.ProjectID, state, merged); cerr != nil {
		return errResult(call, cerr)
	}

	// 旧版作品页尽力同步，失败绝不影响主写入
	legacySynced := true
	if isLegacyPageField(args.Field) {
		if err := d.pages.Upsert(ctx, &entity.PortfolioPage{
			ProjectID:   scope.ProjectID,
			Title:       merged.Title,
			Description: merged.Description,
			HeroImageID: merged.HeroImageID,
		}); err != nil {
			legacySynced = false
			logger.Warn(ctx, "legacy portfolio page sync failed",
				"project_id", scope.ProjectID,
				"field", args.Field,
				"error", err.Error(),
			)
		}
	}

	return okResult(call, &UpdateFieldOutput{
		Success:      true,
		Field:        args.Field,
		State:        projectState(merged),
		LegacySynced: legacySynced,
	})
}

func (d *Dispatcher) handleRequestClarification(ctx context.Context, scope *Scope, call Call, args *RequestClarificationArgs) CallResult {
	_, state, cerr := d.loadProject(ctx, scope)
	if cerr != nil {
		return errResult(call, cerr)
	}

	allowed := entity.MutableProjectFields()
	for _, f := range args.Fields {
		if _, ok := allowed[f]; !ok {
			return errResult(call, &CallError{
				Code:    apperrors.CodeFieldNotAllowed,
				Message: fmt.Sprintf("cannot request clarification for unknown field %q", f),
			})
		}
	}

	merged := entity.Merge(state, &entity.ProjectState{
		NeedsClarification: unionFields(state.NeedsClarification, args.Fields),
	})
	if _, cerr := d.persistChanges(ctx, scope.ProjectID, state, merged); cerr != nil {
		return errResult(call, cerr)
	}

	return okResult(call, &ClarificationOutput{
		Success: true,
		Fields:  merged.NeedsClarification,
		Message: fmt.Sprintf("I still need a bit more detail on: %s.", strings.Join(args.Fields, ", ")),
	})
}

func applyScalarField(patch *entity.ProjectState, field, value string) {
	switch field {
	case "project_type":
		patch.ProjectType = value
	case "project_type_slug":
		patch.ProjectTypeSlug = value
	case "city":
		patch.City = value
	case "state":
		patch.State = value
	case "title":
		patch.Title = value
	case "description":
		patch.Description = value
	case "customer_problem":
		patch.CustomerProblem = value
	case "solution_approach":
		patch.SolutionApproach = value
	case "duration":
		patch.Duration = value
	case "proud_of":
		patch.ProudOf = value
	case "seo_title":
		patch.SEOTitle = value
	case "seo_description":
		patch.SEODescription = value
	case "hero_image_id":
		patch.HeroImageID = value
	}
}

func applyListField(patch *entity.ProjectState, field string, items []string) {
	switch field {
	case "materials":
		patch.Materials = items
	case "techniques":
		patch.Techniques = items
	case "tags":
		patch.Tags = items
	}
}

func stringSlice(v any) ([]string, error) {
	switch items := v.(type) {
	case []string:
		return items, nil
	case []any:
		out := make([]string, 0, len(items))
		for _, item := range items {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("non-string list element")
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("not a list")
	}
}

func isLegacyPageField(field string) bool {
	switch field {
	case "title", "description", "hero_image_id":
		return true
	default:
		return false
	}
}

func unionFields(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, v := range append(append([]string{}, base...), extra...) {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// pickAssistantText 优先用叙事角色的回复，其次任何成功角色的回复
func pickAssistantText(results []*delegate.Result) string {
	for _, r := range results {
		if r != nil && r.Err == nil && r.Role == delegate.RoleStory && r.AssistantText != "" {
			return r.AssistantText
		}
	}
	for _, r := range results {
		if r != nil && r.Err == nil && r.AssistantText != "" {
			return r.AssistantText
		}
	}
	return ""
}

func retryMessage(errDesc *delegate.ErrorDescriptor) string {
	if errDesc != nil && errDesc.Retryable {
		return "I couldn't finish the review just now, please try again shortly."
	}
	return "I couldn't finish the review."
}

func collectErrors(results []*delegate.Result) []delegate.ErrorDescriptor {
	var errs []delegate.ErrorDescriptor
	for _, r := range results {
		if r != nil && r.Err != nil {
			errs = append(errs, *r.Err)
		}
	}
	return errs
}
