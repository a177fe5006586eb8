package delegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knearme-portfolio-api/internal/domain/entity"
	wfmodel "knearme-portfolio-api/internal/workflow/model"
)

func turns(pairs ...[2]string) []wfmodel.ChatTurn {
	out := make([]wfmodel.ChatTurn, 0, len(pairs))
	for _, p := range pairs {
		out = append(out, wfmodel.ChatTurn{Role: p[0], Content: p[1]})
	}
	return out
}

func TestFallbackExtractChimneyStory(t *testing.T) {
	e := NewFallbackExtractor()

	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns(
			[2]string{"user", "We rebuilt a cracked brick chimney with matching salvaged brick, took about a week."},
			[2]string{"assistant", "Nice, tell me more."},
		),
	})

	require.NotNil(t, res)
	assert.True(t, res.Fallback)
	assert.Equal(t, RoleStory, res.Role)
	require.NotNil(t, res.StatePatch)

	assert.Equal(t, "Chimney Repair", res.StatePatch.ProjectType)
	assert.Contains(t, res.StatePatch.Materials, "brick")
	assert.Equal(t, "about a week", res.StatePatch.Duration)
	// 语义字段不做猜测
	assert.Empty(t, res.StatePatch.CustomerProblem)
	assert.Empty(t, res.StatePatch.SolutionApproach)
	assert.False(t, res.StatePatch.ReadyForImages)

	assert.Contains(t, res.Actions, "project_type")
	assert.NotEmpty(t, res.AssistantText)
}

func TestFallbackExtractIgnoresAssistantTurns(t *testing.T) {
	e := NewFallbackExtractor()

	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns(
			[2]string{"assistant", "Was it a chimney or a roof?"},
			[2]string{"user", "Neither, we redid the whole kitchen."},
		),
	})

	assert.Equal(t, "Kitchen Remodel", res.StatePatch.ProjectType)
}

func TestFallbackExtractTechniqueStems(t *testing.T) {
	e := NewFallbackExtractor()

	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns([2]string{"user", "We repointed the joints and waterproofed the crown."}),
	})

	assert.Contains(t, res.StatePatch.Techniques, "repointing")
	assert.Contains(t, res.StatePatch.Techniques, "waterproofing")
}

func TestFallbackExtractNumericDuration(t *testing.T) {
	e := NewFallbackExtractor()

	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns([2]string{"user", "The deck build ran 3 weeks start to finish."}),
	})

	assert.Equal(t, "Deck Construction", res.StatePatch.ProjectType)
	assert.Equal(t, "3 weeks", res.StatePatch.Duration)
}

func TestFallbackExtractNothingToSay(t *testing.T) {
	e := NewFallbackExtractor()

	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns([2]string{"user", "hello there"}),
	})

	assert.Empty(t, res.StatePatch.ProjectType)
	assert.Empty(t, res.StatePatch.Materials)
	// 仍然给出可继续对话的回复
	assert.NotEmpty(t, res.AssistantText)
	assert.Empty(t, res.Actions)
}

func TestFallbackExtractWordBoundaries(t *testing.T) {
	e := NewFallbackExtractor()

	// "bricked" 不应命中 brick 材料
	res := e.Extract(&Context{
		State: entity.NewProjectState(),
		Turns: turns([2]string{"user", "The console got bricked during the storm."}),
	})

	assert.NotContains(t, res.StatePatch.Materials, "brick")
}
