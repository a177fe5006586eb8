package delegate

import (
	"sort"

	"knearme-portfolio-api/internal/domain/entity"
)

// FallbackComposer 视觉编排角色的确定性兜底：LLM 不可用时按固定规则
// 选主图、排图序、定版式。不产出 SEO 文案。
type FallbackComposer struct{}

func NewFallbackComposer() *FallbackComposer {
	return &FallbackComposer{}
}

// categoryRank 展示顺序：前 -> 中 -> 后 -> 细节
var categoryRank = map[entity.ImageCategory]int{
	entity.ImageCategoryBefore:   0,
	entity.ImageCategoryProgress: 1,
	entity.ImageCategoryAfter:    2,
	entity.ImageCategoryDetail:   3,
}

// Compose 基于已有图片做确定性编排。没有图片时返回空增量。
func (c *FallbackComposer) Compose(dctx *Context) *Result {
	patch := entity.NewProjectState()

	if dctx != nil && dctx.State != nil && len(dctx.State.Images) > 0 {
		images := make([]entity.ProjectImage, len(dctx.State.Images))
		copy(images, dctx.State.Images)

		sort.SliceStable(images, func(i, j int) bool {
			ri, rj := categoryRank[images[i].Category], categoryRank[images[j].Category]
			if ri != rj {
				return ri < rj
			}
			return images[i].DisplayOrder < images[j].DisplayOrder
		})
		for i := range images {
			images[i].DisplayOrder = i
		}

		// 主图优先选完工照
		hero := images[0].ID
		for _, img := range images {
			if img.Category == entity.ImageCategoryAfter {
				hero = img.ID
				break
			}
		}

		patch.Images = images
		patch.HeroImageID = hero
		patch.LayoutStyle = "gallery"
	}

	text := "I arranged your photos in before, during and after order."
	if len(patch.Images) == 0 {
		text = "Upload a few photos of the job and I will lay them out for you."
	}

	return &Result{
		Role:          RoleDesign,
		AssistantText: text,
		StatePatch:    patch,
		Actions:       entity.ChangedFields(entity.NewProjectState(), patch),
		Fallback:      true,
	}
}
