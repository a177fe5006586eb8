package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knearme-portfolio-api/internal/application/portfolio/ctxbudget"
	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/config"
	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
)

type fakeProjectRepo struct {
	project   *entity.Project
	findErr   error
	updateErr error

	updatedFields map[string]any
}

func (f *fakeProjectRepo) Create(ctx context.Context, project *entity.Project) error { return nil }

func (f *fakeProjectRepo) Find(ctx context.Context, projectID, businessID string) (*entity.Project, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.project, nil
}

func (f *fakeProjectRepo) UpdateFields(ctx context.Context, projectID string, fields map[string]any) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updatedFields = fields
	return nil
}

func (f *fakeProjectRepo) ListByBusiness(ctx context.Context, businessID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

type fakePageRepo struct {
	upsertErr error
	upserted  *entity.PortfolioPage
}

func (f *fakePageRepo) Upsert(ctx context.Context, page *entity.PortfolioPage) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.upserted = page
	return nil
}

type fakeSessionRepo struct {
	session *entity.ConversationSession
	findErr error
}

func (f *fakeSessionRepo) Create(ctx context.Context, session *entity.ConversationSession) error {
	return nil
}

func (f *fakeSessionRepo) Find(ctx context.Context, sessionID, businessID string) (*entity.ConversationSession, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	return f.session, nil
}

func (f *fakeSessionRepo) Update(ctx context.Context, session *entity.ConversationSession) error {
	return nil
}

func (f *fakeSessionRepo) UpdateStats(ctx context.Context, sessionID string, messageCount, estimatedTokens int) error {
	return nil
}

func (f *fakeSessionRepo) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	return &repository.PagedResult[*entity.ConversationSession]{}, nil
}

type fakeMessageRepo struct {
	messages []*entity.ConversationMessage
}

func (f *fakeMessageRepo) Append(ctx context.Context, message *entity.ConversationMessage) error {
	return nil
}

func (f *fakeMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ConversationMessage, error) {
	return f.messages, nil
}

func (f *fakeMessageRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationMessage, error) {
	if limit < len(f.messages) {
		return f.messages[len(f.messages)-limit:], nil
	}
	return f.messages, nil
}

func (f *fakeMessageRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	return int64(len(f.messages)), nil
}

// roleBackend 按角色返回预设结果或错误
type roleBackend struct {
	results map[delegate.Role]*delegate.Result
	errs    map[delegate.Role]error
}

func (b *roleBackend) Run(ctx context.Context, role delegate.Role, dctx *delegate.Context) (*delegate.Result, error) {
	if err := b.errs[role]; err != nil {
		return nil, err
	}
	if res, ok := b.results[role]; ok {
		return res, nil
	}
	return &delegate.Result{Role: role}, nil
}

func orchestratorConfig() *config.OrchestratorConfig {
	return &config.OrchestratorConfig{
		TokenCeiling:        30000,
		RecentMessageCount:  10,
		PerMessageEstimate:  80,
		ProjectDataEstimate: 1200,
	}
}

func newTestDispatcher(projects *fakeProjectRepo, pages *fakePageRepo, sessions *fakeSessionRepo, backend delegate.Backend) *Dispatcher {
	planner := ctxbudget.NewPlanner(&fakeMessageRepo{}, nil, orchestratorConfig())
	return NewDispatcher(projects, pages, sessions, planner, delegate.NewDelegator(backend))
}

func sampleProject() *entity.Project {
	return &entity.Project{
		ID:         "p-1",
		BusinessID: "b-1",
		Status:     entity.ProjectStatusInProgress,
		Title:      "Chimney rebuild",
	}
}

func scope() *Scope {
	return &Scope{BusinessID: "b-1", ProjectID: "p-1"}
}

func rawArgs(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func TestDispatchPreservesBatchOrder(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	calls := []Call{
		{ID: "c-1", Name: NameShowImagePicker, Args: rawArgs(t, map[string]any{"category": "after"})},
		{ID: "c-2", Name: Name("bogus_tool")},
		{ID: "c-3", Name: NameShowPublishPreview},
	}

	batch := d.Dispatch(context.Background(), scope(), calls)

	require.Len(t, batch.Results, 3)
	assert.Equal(t, "c-1", batch.Results[0].ID)
	assert.Equal(t, "c-2", batch.Results[1].ID)
	assert.Equal(t, "c-3", batch.Results[2].ID)

	// 未知工具只影响自己的结果
	assert.Nil(t, batch.Results[0].Error)
	require.NotNil(t, batch.Results[1].Error)
	assert.Equal(t, apperrors.CodeUnknownTool, batch.Results[1].Error.Code)
	assert.Nil(t, batch.Results[2].Error)

	assert.GreaterOrEqual(t, batch.DurationMs, int64(0))
}

func TestDispatchEchoToolsReturnArgs(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameShowImagePicker, Args: rawArgs(t, map[string]any{"category": "before", "multiple": true})},
	})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	args, ok := res.Output.(*ShowImagePickerArgs)
	require.True(t, ok)
	assert.Equal(t, "before", args.Category)
	assert.True(t, args.Multiple)
}

func TestDispatchEchoToolValidation(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameShowImagePicker, Args: rawArgs(t, map[string]any{"category": "sideways"})},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeValidationFailed, batch.Results[0].Error.Code)
}

func TestDispatchMalformedArgs(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: json.RawMessage(`{"field": `)},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeValidationFailed, batch.Results[0].Error.Code)
}

func TestUpdateFieldScalar(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	pages := &fakePageRepo{}
	d := newTestDispatcher(projects, pages, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "title", "value": "Brick chimney rebuild"})},
	})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out, ok := res.Output.(*UpdateFieldOutput)
	require.True(t, ok)
	assert.True(t, out.Success)
	assert.True(t, out.LegacySynced)
	assert.Equal(t, "Brick chimney rebuild", out.State.Title)

	assert.Equal(t, "Brick chimney rebuild", projects.updatedFields["title"])
	// title 是旧版作品页字段，同步写入
	require.NotNil(t, pages.upserted)
	assert.Equal(t, "p-1", pages.upserted.ProjectID)
}

func TestUpdateFieldList(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "materials", "value": []string{"brick", "mortar"}})},
	})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*UpdateFieldOutput)
	assert.Equal(t, []string{"brick", "mortar"}, out.State.Materials)
	assert.Contains(t, projects.updatedFields, "materials")
}

func TestUpdateFieldRejectsUnknownField(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{project: sampleProject()}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "status", "value": "published"})},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeFieldNotAllowed, batch.Results[0].Error.Code)
}

func TestUpdateFieldRejectsLayoutStyle(t *testing.T) {
	// 版式只能由编排角色决定，不在白名单内
	d := newTestDispatcher(&fakeProjectRepo{project: sampleProject()}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "layout_style", "value": "gallery"})},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeFieldNotAllowed, batch.Results[0].Error.Code)
}

func TestUpdateFieldTypeMismatch(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{project: sampleProject()}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "title", "value": []string{"not", "scalar"}})},
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "materials", "value": "not a list"})},
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "materials", "value": []any{"brick", 7}})},
	})

	for i, res := range batch.Results {
		require.NotNil(t, res.Error, "call %d", i)
		assert.Equal(t, apperrors.CodeFieldTypeMismatch, res.Error.Code, "call %d", i)
	}
}

func TestUpdateFieldLegacySyncFailureTolerated(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	pages := &fakePageRepo{upsertErr: errors.New("legacy table gone")}
	d := newTestDispatcher(projects, pages, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "description", "value": "rebuilt the crown"})},
	})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*UpdateFieldOutput)
	assert.True(t, out.Success)
	assert.False(t, out.LegacySynced)
	// 主写入仍然发生
	assert.Contains(t, projects.updatedFields, "description")
}

func TestToolRequiresProjectID(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{project: sampleProject()}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), &Scope{BusinessID: "b-1"}, []Call{
		{Name: NameUpdateProjectField, Args: rawArgs(t, map[string]any{"field": "title", "value": "x"})},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeValidationFailed, batch.Results[0].Error.Code)
}

func TestToolProjectNotFound(t *testing.T) {
	projects := &fakeProjectRepo{findErr: apperrors.ErrProjectNotFound}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameAnalyzeConversation},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeProjectNotFound, batch.Results[0].Error.Code)
	assert.False(t, batch.Results[0].Error.Retryable)
}

func TestToolProjectStoreUnavailable(t *testing.T) {
	projects := &fakeProjectRepo{findErr: errors.New("connection refused")}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameAnalyzeConversation},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeDatabaseError, batch.Results[0].Error.Code)
	assert.True(t, batch.Results[0].Error.Retryable)
}

func TestAnalyzeConversationMergesRolePatches(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	backend := &roleBackend{results: map[delegate.Role]*delegate.Result{
		delegate.RoleStory: {
			AssistantText: "sounds like a chimney job",
			StatePatch:    &entity.ProjectState{ProjectType: "Chimney Repair", Materials: []string{"brick"}},
		},
		delegate.RoleDesign: {
			AssistantText: "laid out your photos",
			StatePatch:    &entity.ProjectState{LayoutStyle: "gallery"},
		},
	}}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameAnalyzeConversation}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out, ok := res.Output.(*DelegationOutput)
	require.True(t, ok)

	assert.True(t, out.Success)
	// 叙事角色的回复优先
	assert.Equal(t, "sounds like a chimney job", out.Message)
	assert.Equal(t, "Chimney Repair", out.State.ProjectType)
	assert.Equal(t, "gallery", out.State.LayoutStyle)
	assert.Equal(t, []string{"story", "design"}, out.AgentsRun)
	assert.Equal(t, []string{"story", "design"}, out.AgentsSucceeded)
	assert.ElementsMatch(t, []string{"project_type", "materials", "layout_style"}, out.ChangedFields)
	assert.Equal(t, string(ctxbudget.ModeEmpty), out.ContextMode)

	// 变化字段被写回
	assert.Contains(t, projects.updatedFields, "project_type")
	assert.Contains(t, projects.updatedFields, "layout_style")
}

func TestAnalyzeConversationStoryFallback(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	backend := &roleBackend{
		errs: map[delegate.Role]error{delegate.RoleStory: errors.New("model unavailable")},
		results: map[delegate.Role]*delegate.Result{
			delegate.RoleDesign: {StatePatch: entity.NewProjectState()},
		},
	}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	sc := scope()
	sc.LatestUserMessage = "We rebuilt a cracked brick chimney, took about a week."
	batch := d.Dispatch(context.Background(), sc, []Call{{Name: NameAnalyzeConversation}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)

	// 叙事兜底抽取最新用户消息
	assert.Equal(t, "Chimney Repair", out.State.ProjectType)
	assert.Contains(t, out.State.Materials, "brick")
	assert.Equal(t, []string{"story", "design"}, out.AgentsSucceeded)
	assert.Empty(t, out.AgentErrors)
}

func TestAnalyzeConversationDesignErrorReported(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	backend := &roleBackend{
		results: map[delegate.Role]*delegate.Result{
			delegate.RoleStory: {AssistantText: "noted", StatePatch: entity.NewProjectState()},
		},
		errs: map[delegate.Role]error{delegate.RoleDesign: errors.New("timeout")},
	}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameAnalyzeConversation}})

	out := batch.Results[0].Output.(*DelegationOutput)
	// 编排失败不兜底，以错误描述上报
	assert.Equal(t, []string{"story"}, out.AgentsSucceeded)
	require.Len(t, out.AgentErrors, 1)
	assert.Equal(t, delegate.RoleDesign, out.AgentErrors[0].Role)
}

func TestComposeLayoutFallsBackToDeterministicComposer(t *testing.T) {
	project := sampleProject()
	project.Images = []entity.ProjectImage{
		{ID: "after-1", Category: entity.ImageCategoryAfter},
		{ID: "before-1", Category: entity.ImageCategoryBefore},
	}
	projects := &fakeProjectRepo{project: project}
	backend := &roleBackend{errs: map[delegate.Role]error{delegate.RoleDesign: errors.New("model unavailable")}}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameComposeLayout}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)

	assert.True(t, out.Success)
	assert.Equal(t, "after-1", out.State.HeroImageID)
	assert.Equal(t, "gallery", out.State.LayoutStyle)
	assert.Equal(t, "before-1", out.State.Images[0].ID)
}

func TestCheckPublishReadiness(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	backend := &roleBackend{results: map[delegate.Role]*delegate.Result{
		delegate.RoleQuality: {
			AssistantText: "almost there, add a before photo",
			Quality: &delegate.QualityVerdict{
				Publishable:   false,
				Issues:        []string{"no before photo"},
				MissingFields: []string{"customer_problem"},
			},
		},
	}}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameCheckPublishReadiness}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)

	assert.True(t, out.Success)
	require.NotNil(t, out.Quality)
	assert.False(t, out.Quality.Publishable)
	assert.Contains(t, out.Quality.MissingFields, "customer_problem")
	// 审查不改状态
	assert.Nil(t, projects.updatedFields)
}

func TestCheckPublishReadinessFailureIsAdvisory(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}
	backend := &roleBackend{errs: map[delegate.Role]error{delegate.RoleQuality: errors.New("model unavailable")}}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameCheckPublishReadiness}})

	res := batch.Results[0]
	// 审查失败不是调用错误，以 success=false 提示重试
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)
	assert.False(t, out.Success)
	assert.NotEmpty(t, out.Message)
	require.Len(t, out.AgentErrors, 1)
}

func TestGeneratePortfolioRunsQualityOnMergedState(t *testing.T) {
	projects := &fakeProjectRepo{project: sampleProject()}

	var qualitySawType string
	backend := &roleBackend{results: map[delegate.Role]*delegate.Result{
		delegate.RoleStory: {
			StatePatch: &entity.ProjectState{ProjectType: "Chimney Repair"},
		},
		delegate.RoleDesign: {
			StatePatch: &entity.ProjectState{LayoutStyle: "gallery"},
		},
	}}
	inner := backend
	capture := backendFunc(func(ctx context.Context, role delegate.Role, dctx *delegate.Context) (*delegate.Result, error) {
		if role == delegate.RoleQuality {
			qualitySawType = dctx.State.ProjectType
			return &delegate.Result{Quality: &delegate.QualityVerdict{Publishable: true}}, nil
		}
		return inner.Run(ctx, role, dctx)
	})
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, capture)

	batch := d.Dispatch(context.Background(), scope(), []Call{{Name: NameGeneratePortfolio}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)

	// 质量审查看到的是合并后的状态
	assert.Equal(t, "Chimney Repair", qualitySawType)
	assert.Equal(t, []string{"story", "design", "quality"}, out.AgentsRun)
	require.NotNil(t, out.Quality)
	assert.True(t, out.Quality.Publishable)
	assert.Equal(t, "Chimney Repair", out.State.ProjectType)
	assert.Equal(t, "gallery", out.State.LayoutStyle)
}

func TestGeneratePortfolioBothFallbacks(t *testing.T) {
	project := sampleProject()
	project.Images = []entity.ProjectImage{{ID: "after-1", Category: entity.ImageCategoryAfter}}
	projects := &fakeProjectRepo{project: project}
	backend := &roleBackend{errs: map[delegate.Role]error{
		delegate.RoleStory:   errors.New("down"),
		delegate.RoleDesign:  errors.New("down"),
		delegate.RoleQuality: errors.New("down"),
	}}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, backend)

	sc := scope()
	sc.LatestUserMessage = "Rebuilt the brick chimney in about a week."
	batch := d.Dispatch(context.Background(), sc, []Call{{Name: NameGeneratePortfolio}})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*DelegationOutput)

	// 叙事与编排都有确定性兜底，质量失败只进错误列表
	assert.Equal(t, "Chimney Repair", out.State.ProjectType)
	assert.Equal(t, "after-1", out.State.HeroImageID)
	assert.Equal(t, []string{"story", "design"}, out.AgentsSucceeded)
	require.Len(t, out.AgentErrors, 1)
	assert.Equal(t, delegate.RoleQuality, out.AgentErrors[0].Role)
	assert.Nil(t, out.Quality)
}

func TestRequestClarification(t *testing.T) {
	project := sampleProject()
	project.NeedsClarification = []string{"duration"}
	projects := &fakeProjectRepo{project: project}
	d := newTestDispatcher(projects, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameRequestClarification, Args: rawArgs(t, map[string]any{"fields": []string{"materials", "duration"}})},
	})

	res := batch.Results[0]
	require.Nil(t, res.Error)
	out := res.Output.(*ClarificationOutput)

	assert.True(t, out.Success)
	assert.Equal(t, []string{"duration", "materials"}, out.Fields)
	assert.Contains(t, projects.updatedFields, "needs_clarification")
}

func TestRequestClarificationRejectsUnknownField(t *testing.T) {
	d := newTestDispatcher(&fakeProjectRepo{project: sampleProject()}, &fakePageRepo{}, &fakeSessionRepo{}, &roleBackend{})

	batch := d.Dispatch(context.Background(), scope(), []Call{
		{Name: NameRequestClarification, Args: rawArgs(t, map[string]any{"fields": []string{"status"}})},
	})

	require.NotNil(t, batch.Results[0].Error)
	assert.Equal(t, apperrors.CodeFieldNotAllowed, batch.Results[0].Error.Code)
}

// backendFunc 函数式后端适配
type backendFunc func(ctx context.Context, role delegate.Role, dctx *delegate.Context) (*delegate.Result, error)

func (f backendFunc) Run(ctx context.Context, role delegate.Role, dctx *delegate.Context) (*delegate.Result, error) {
	return f(ctx, role, dctx)
}
