package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeScalarPresentWins(t *testing.T) {
	base := &ProjectState{ProjectType: "Chimney Repair", Duration: "2 days"}
	patch := &ProjectState{ProjectType: "Fireplace Remodel", Title: "  "}

	out := Merge(base, patch)

	assert.Equal(t, "Fireplace Remodel", out.ProjectType)
	// 空白补丁不覆盖已知值
	assert.Equal(t, "", out.Title)
	assert.Equal(t, "2 days", out.Duration)
	// 入参不被修改
	assert.Equal(t, "Chimney Repair", base.ProjectType)
}

func TestMergeEmptyPatchKeepsBase(t *testing.T) {
	base := &ProjectState{
		ProjectType: "Masonry",
		Materials:   []string{"brick", "mortar"},
		Images:      []ProjectImage{{ID: "img-1", Category: ImageCategoryAfter}},
	}

	out := Merge(base, &ProjectState{})

	assert.Equal(t, base.ProjectType, out.ProjectType)
	assert.Equal(t, base.Materials, out.Materials)
	assert.Equal(t, base.Images, out.Images)
}

func TestMergeIdempotent(t *testing.T) {
	base := &ProjectState{City: "Denver", State: "CO"}
	patch := &ProjectState{
		ProjectType: "Chimney Repair",
		Materials:   []string{"brick"},
		Images:      []ProjectImage{{ID: "img-1", DisplayOrder: 1}},
	}

	once := Merge(base, patch)
	twice := Merge(once, patch)

	assert.Equal(t, once, twice)
}

func TestMergeListReplacesWholesale(t *testing.T) {
	base := &ProjectState{Materials: []string{"brick", "mortar"}}
	patch := &ProjectState{Materials: []string{"stucco"}}

	out := Merge(base, patch)

	// 列表替换而非并集：最新抽取视为更权威
	assert.Equal(t, []string{"stucco"}, out.Materials)
}

func TestMergeNilListKeepsBase(t *testing.T) {
	base := &ProjectState{Techniques: []string{"tuckpointing"}}

	out := Merge(base, &ProjectState{Techniques: nil})

	assert.Equal(t, []string{"tuckpointing"}, out.Techniques)
}

func TestMergeClarifiedFieldsUnion(t *testing.T) {
	base := &ProjectState{ClarifiedFields: []string{"duration"}}
	patch := &ProjectState{ClarifiedFields: []string{"materials", "duration"}}

	out := Merge(base, patch)

	assert.Equal(t, []string{"duration", "materials"}, out.ClarifiedFields)
}

func TestMergeImagesByID(t *testing.T) {
	base := &ProjectState{Images: []ProjectImage{
		{ID: "img-1", Category: ImageCategoryBefore, DisplayOrder: 1},
		{ID: "img-2", Category: ImageCategoryAfter, DisplayOrder: 2},
	}}
	patch := &ProjectState{Images: []ProjectImage{
		{ID: "img-2", Category: ImageCategoryAfter, AltText: "finished chimney", DisplayOrder: 0},
		{ID: "img-3", Category: ImageCategoryDetail, DisplayOrder: 2},
	}}

	out := Merge(base, patch)

	require.Len(t, out.Images, 3)
	// 按 DisplayOrder 重排后 img-2 在前
	assert.Equal(t, "img-2", out.Images[0].ID)
	assert.Equal(t, "finished chimney", out.Images[0].AltText)
	assert.Equal(t, "img-1", out.Images[1].ID)
	assert.Equal(t, "img-3", out.Images[2].ID)
}

func TestMergeDoesNotDeleteImages(t *testing.T) {
	base := &ProjectState{Images: []ProjectImage{
		{ID: "img-1"}, {ID: "img-2"},
	}}
	patch := &ProjectState{Images: []ProjectImage{{ID: "img-1", AltText: "updated"}}}

	out := Merge(base, patch)

	assert.Len(t, out.Images, 2)
}

func TestRecomputeDerivedLocation(t *testing.T) {
	s := &ProjectState{City: "Denver", State: "CO"}
	s.RecomputeDerived()
	assert.Equal(t, "Denver, CO", s.Location)

	s = &ProjectState{City: "Denver"}
	s.RecomputeDerived()
	assert.Equal(t, "Denver", s.Location)

	s = &ProjectState{State: "CO"}
	s.RecomputeDerived()
	assert.Equal(t, "CO", s.Location)
}

func TestRecomputeDerivedClearsDanglingHero(t *testing.T) {
	s := &ProjectState{
		HeroImageID: "img-9",
		Images:      []ProjectImage{{ID: "img-1"}},
	}
	s.RecomputeDerived()
	assert.Empty(t, s.HeroImageID)

	s = &ProjectState{
		HeroImageID: "img-1",
		Images:      []ProjectImage{{ID: "img-1"}},
	}
	s.RecomputeDerived()
	assert.Equal(t, "img-1", s.HeroImageID)
}

func TestReadinessDerivation(t *testing.T) {
	s := &ProjectState{
		ProjectType:     "Fireplace Remodel",
		CustomerProblem: "smoke damage",
		Materials:       []string{"mortar"},
	}
	s.RecomputeDerived()

	assert.True(t, s.ReadyForImages)
	assert.False(t, s.ReadyForContent)
	assert.False(t, s.ReadyToPublish)

	s.Images = []ProjectImage{{ID: "img-1"}}
	s.HeroImageID = "img-1"
	s.RecomputeDerived()
	assert.True(t, s.ReadyForContent)

	s.Status = ProjectStatusPublished
	s.RecomputeDerived()
	assert.True(t, s.ReadyToPublish)
}

func TestReadinessRequiresProblemOrSolution(t *testing.T) {
	s := &ProjectState{
		ProjectType: "Masonry",
		Materials:   []string{"brick"},
	}
	s.RecomputeDerived()
	assert.False(t, s.ReadyForImages)

	s.SolutionApproach = "rebuilt the crown"
	s.RecomputeDerived()
	assert.True(t, s.ReadyForImages)
}

func TestChangedFields(t *testing.T) {
	before := &ProjectState{ProjectType: "Masonry", Materials: []string{"brick"}}
	after := before.Clone()
	after.ProjectType = "Chimney Repair"
	after.Materials = []string{"brick", "mortar"}
	after.Duration = "a week"

	changed := ChangedFields(before, after)

	assert.ElementsMatch(t, []string{"project_type", "materials", "duration"}, changed)
}

func TestChangedFieldsEmptyOnIdentical(t *testing.T) {
	s := &ProjectState{Title: "Brick chimney rebuild", Tags: []string{"chimney"}}
	assert.Empty(t, ChangedFields(s, s.Clone()))
}

func TestFieldValues(t *testing.T) {
	s := &ProjectState{
		Title:     "Chimney rebuild",
		Materials: []string{"brick", "mortar"},
		Images:    []ProjectImage{{ID: "img-1", DisplayOrder: 0}},
	}

	values := s.FieldValues([]string{"title", "materials", "images", "bogus"})

	assert.Equal(t, "Chimney rebuild", values["title"])
	assert.Contains(t, values, "materials")
	assert.Contains(t, values, "images")
	// 未知字段被忽略
	assert.NotContains(t, values, "bogus")
}

func TestStateFromProjectRoundTrip(t *testing.T) {
	p := &Project{
		ID:          "p-1",
		BusinessID:  "b-1",
		Status:      ProjectStatusInProgress,
		ProjectType: "Chimney Repair",
		City:        "Denver",
		State:       "CO",
		Materials:   []string{"brick"},
		Images:      []ProjectImage{{ID: "img-1"}},
		HeroImageID: "img-1",
	}

	s := StateFromProject(p)

	assert.Equal(t, "Denver, CO", s.Location)
	assert.Equal(t, ProjectStatusInProgress, s.Status)
	assert.True(t, s.ReadyForContent)

	// 状态副本独立于项目行
	s.Materials[0] = "stone"
	assert.Equal(t, "brick", p.Materials[0])
}

func TestCloneIndependence(t *testing.T) {
	s := &ProjectState{
		Materials: []string{"brick"},
		Images:    []ProjectImage{{ID: "img-1"}},
	}
	c := s.Clone()
	c.Materials[0] = "stone"
	c.Images[0].ID = "img-2"

	assert.Equal(t, "brick", s.Materials[0])
	assert.Equal(t, "img-1", s.Images[0].ID)
}
