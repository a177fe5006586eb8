package delegate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knearme-portfolio-api/internal/domain/entity"
)

func TestComposeOrdersByCategory(t *testing.T) {
	c := NewFallbackComposer()

	state := entity.NewProjectState()
	state.Images = []entity.ProjectImage{
		{ID: "detail-1", Category: entity.ImageCategoryDetail, DisplayOrder: 0},
		{ID: "after-1", Category: entity.ImageCategoryAfter, DisplayOrder: 1},
		{ID: "before-1", Category: entity.ImageCategoryBefore, DisplayOrder: 2},
		{ID: "progress-1", Category: entity.ImageCategoryProgress, DisplayOrder: 3},
	}

	res := c.Compose(&Context{State: state})

	require.NotNil(t, res.StatePatch)
	ids := make([]string, 0, len(res.StatePatch.Images))
	for _, img := range res.StatePatch.Images {
		ids = append(ids, img.ID)
	}
	assert.Equal(t, []string{"before-1", "progress-1", "after-1", "detail-1"}, ids)

	// 展示序号重排为连续值
	for i, img := range res.StatePatch.Images {
		assert.Equal(t, i, img.DisplayOrder)
	}

	// 主图优先取完工照
	assert.Equal(t, "after-1", res.StatePatch.HeroImageID)
	assert.Equal(t, "gallery", res.StatePatch.LayoutStyle)
	assert.True(t, res.Fallback)
	assert.Equal(t, RoleDesign, res.Role)
}

func TestComposeHeroWithoutAfterImage(t *testing.T) {
	c := NewFallbackComposer()

	state := entity.NewProjectState()
	state.Images = []entity.ProjectImage{
		{ID: "detail-1", Category: entity.ImageCategoryDetail},
		{ID: "before-1", Category: entity.ImageCategoryBefore},
	}

	res := c.Compose(&Context{State: state})

	// 没有完工照时取排序后的第一张
	assert.Equal(t, "before-1", res.StatePatch.HeroImageID)
}

func TestComposeStableWithinCategory(t *testing.T) {
	c := NewFallbackComposer()

	state := entity.NewProjectState()
	state.Images = []entity.ProjectImage{
		{ID: "after-2", Category: entity.ImageCategoryAfter, DisplayOrder: 5},
		{ID: "after-1", Category: entity.ImageCategoryAfter, DisplayOrder: 1},
	}

	res := c.Compose(&Context{State: state})

	assert.Equal(t, "after-1", res.StatePatch.Images[0].ID)
	assert.Equal(t, "after-1", res.StatePatch.HeroImageID)
}

func TestComposeNoImages(t *testing.T) {
	c := NewFallbackComposer()

	res := c.Compose(&Context{State: entity.NewProjectState()})

	assert.Empty(t, res.StatePatch.Images)
	assert.Empty(t, res.StatePatch.HeroImageID)
	assert.Empty(t, res.StatePatch.LayoutStyle)
	assert.NotEmpty(t, res.AssistantText)
	assert.Empty(t, res.Actions)
}

func TestComposeDoesNotTouchInputState(t *testing.T) {
	c := NewFallbackComposer()

	state := entity.NewProjectState()
	state.Images = []entity.ProjectImage{
		{ID: "detail-1", Category: entity.ImageCategoryDetail, DisplayOrder: 0},
		{ID: "after-1", Category: entity.ImageCategoryAfter, DisplayOrder: 1},
	}

	c.Compose(&Context{State: state})

	assert.Equal(t, "detail-1", state.Images[0].ID)
	assert.Equal(t, 0, state.Images[0].DisplayOrder)
}
