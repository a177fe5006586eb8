package delegate

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knearme-portfolio-api/internal/domain/entity"
)

// fakeBackend 按角色返回预设结果，记录看到的状态副本
type fakeBackend struct {
	results map[Role]*Result
	errs    map[Role]error
	panics  map[Role]bool

	seenStates map[Role]*entity.ProjectState
}

func (f *fakeBackend) Run(ctx context.Context, role Role, dctx *Context) (*Result, error) {
	if f.seenStates == nil {
		f.seenStates = make(map[Role]*entity.ProjectState)
	}
	f.seenStates[role] = dctx.State
	if f.panics[role] {
		panic("backend exploded")
	}
	if err := f.errs[role]; err != nil {
		return nil, err
	}
	return f.results[role], nil
}

func storyPatch() *entity.ProjectState {
	return &entity.ProjectState{
		ProjectType: "Chimney Repair",
		Materials:   []string{"brick", "mortar"},
		Duration:    "a week",
	}
}

func TestDelegateSuccess(t *testing.T) {
	backend := &fakeBackend{results: map[Role]*Result{
		RoleStory: {AssistantText: "sounds like a chimney job", StatePatch: storyPatch()},
	}}
	d := NewDelegator(backend)

	base := &entity.ProjectState{City: "Denver"}
	res := d.Delegate(context.Background(), RoleStory, &Context{ProjectID: "p-1", State: base})

	require.NotNil(t, res)
	assert.Nil(t, res.Err)
	assert.Equal(t, RoleStory, res.Role)
	assert.Equal(t, "Chimney Repair", res.StatePatch.ProjectType)
	// Actions 缺省时从补丁推导
	assert.Contains(t, res.Actions, "project_type")
	assert.Contains(t, res.Actions, "materials")
}

func TestDelegateCopiesStatePerRole(t *testing.T) {
	backend := &fakeBackend{results: map[Role]*Result{RoleStory: {}}}
	d := NewDelegator(backend)

	base := &entity.ProjectState{Materials: []string{"brick"}}
	d.Delegate(context.Background(), RoleStory, &Context{State: base})

	require.NotNil(t, backend.seenStates[RoleStory])
	backend.seenStates[RoleStory].Materials[0] = "stone"
	assert.Equal(t, "brick", base.Materials[0])
}

func TestDelegateBackendError(t *testing.T) {
	backend := &fakeBackend{errs: map[Role]error{
		RoleDesign: errors.New("model unavailable"),
	}}
	d := NewDelegator(backend)

	res := d.Delegate(context.Background(), RoleDesign, &Context{State: entity.NewProjectState()})

	require.NotNil(t, res.Err)
	assert.Equal(t, RoleDesign, res.Err.Role)
	assert.True(t, res.Err.Retryable)
	// 失败结果不携带状态增量
	assert.Nil(t, res.StatePatch)
}

func TestDelegateAbsorbsPanic(t *testing.T) {
	backend := &fakeBackend{panics: map[Role]bool{RoleStory: true}}
	d := NewDelegator(backend)

	res := d.Delegate(context.Background(), RoleStory, &Context{State: entity.NewProjectState()})

	require.NotNil(t, res)
	require.NotNil(t, res.Err)
	assert.Contains(t, res.Err.Message, "panic")
}

func TestDelegateNilBackendResult(t *testing.T) {
	backend := &fakeBackend{}
	d := NewDelegator(backend)

	res := d.Delegate(context.Background(), RoleQuality, &Context{State: entity.NewProjectState()})

	require.NotNil(t, res.Err)
}

func TestDelegateNilContext(t *testing.T) {
	d := NewDelegator(&fakeBackend{})

	res := d.Delegate(context.Background(), RoleStory, nil)

	require.NotNil(t, res.Err)
}

func TestDelegateParallelPartialFailure(t *testing.T) {
	backend := &fakeBackend{
		results: map[Role]*Result{
			RoleStory: {AssistantText: "noted", StatePatch: storyPatch()},
		},
		errs: map[Role]error{
			RoleDesign: errors.New("timeout"),
		},
	}
	d := NewDelegator(backend)

	base := entity.NewProjectState()
	results := d.DelegateParallel(context.Background(), []Role{RoleStory, RoleDesign}, &Context{State: base})

	require.Len(t, results, 2)
	// 结果顺序与角色顺序一致
	assert.Equal(t, RoleStory, results[0].Role)
	assert.Equal(t, RoleDesign, results[1].Role)
	assert.Nil(t, results[0].Err)
	require.NotNil(t, results[1].Err)

	assert.Equal(t, []string{"story", "design"}, RolesAttempted(results))
	assert.Equal(t, []string{"story"}, RolesSucceeded(results))

	merged := MergeResults(base, results)
	assert.Equal(t, "Chimney Repair", merged.ProjectType)
	assert.Equal(t, []string{"brick", "mortar"}, merged.Materials)
}

func TestMergeResultsOrderAndClarification(t *testing.T) {
	base := &entity.ProjectState{Title: "old title"}
	results := []*Result{
		{Role: RoleStory, StatePatch: &entity.ProjectState{Title: "story title"}, NeedsClarification: []string{"duration"}},
		{Role: RoleDesign, StatePatch: &entity.ProjectState{Title: "design title", LayoutStyle: "gallery"}},
	}

	merged := MergeResults(base, results)

	// 后合并的角色覆盖重叠标量
	assert.Equal(t, "design title", merged.Title)
	assert.Equal(t, "gallery", merged.LayoutStyle)
	assert.Equal(t, []string{"duration"}, merged.NeedsClarification)
}

func TestMergeResultsSkipsFailedRoles(t *testing.T) {
	base := &entity.ProjectState{Title: "keep me"}
	results := []*Result{
		nil,
		{Role: RoleStory, Err: &ErrorDescriptor{Role: RoleStory, Message: "boom"}},
	}

	merged := MergeResults(base, results)

	assert.Equal(t, "keep me", merged.Title)
}
