// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/lib/pq"
)

// ImageCategory 图片类别
type ImageCategory string

const (
	ImageCategoryBefore   ImageCategory = "before"
	ImageCategoryProgress ImageCategory = "progress"
	ImageCategoryAfter    ImageCategory = "after"
	ImageCategoryDetail   ImageCategory = "detail"
)

// ProjectImage 项目图片。按 ID 合并：叙事类合并不会隐式删除图片。
type ProjectImage struct {
	ID           string        `json:"id"`
	URL          string        `json:"url,omitempty"`
	StorageKey   string        `json:"storage_key,omitempty"`
	Category     ImageCategory `json:"category,omitempty"`
	AltText      string        `json:"alt_text,omitempty"`
	DisplayOrder int           `json:"display_order"`
}

// ProjectState 进行中项目的规范可合并表示。多个生成角色各自产出
// 部分更新，全部通过 Merge 折叠进同一个实例。
//
// 字段约定：
//   - 标量字段为空串表示"未知"，合并时不会覆盖已知值；
//   - 列表字段 nil 表示"未知"，空切片表示"已知为空"；合并时非空补丁整体
//     替换（刻意不做并集：最新抽取视为更权威，见合并策略说明）；
//   - 就绪标志永远由其它字段派生，从不取自补丁。
type ProjectState struct {
	ProjectType     string `json:"project_type,omitempty"`
	ProjectTypeSlug string `json:"project_type_slug,omitempty"`
	City            string `json:"city,omitempty"`
	State           string `json:"state,omitempty"`
	// Location 是 city/state 派生出的展示标签
	Location string `json:"location,omitempty"`

	Title            string `json:"title,omitempty"`
	Description      string `json:"description,omitempty"`
	CustomerProblem  string `json:"customer_problem,omitempty"`
	SolutionApproach string `json:"solution_approach,omitempty"`
	Duration         string `json:"duration,omitempty"`
	ProudOf          string `json:"proud_of,omitempty"`

	Materials  []string `json:"materials,omitempty"`
	Techniques []string `json:"techniques,omitempty"`
	Tags       []string `json:"tags,omitempty"`

	SEOTitle       string `json:"seo_title,omitempty"`
	SEODescription string `json:"seo_description,omitempty"`

	Images      []ProjectImage `json:"images,omitempty"`
	HeroImageID string         `json:"hero_image_id,omitempty"`
	// LayoutStyle 视觉编排角色给出的版式风格
	LayoutStyle string `json:"layout_style,omitempty"`

	ReadyForImages  bool `json:"ready_for_images"`
	ReadyForContent bool `json:"ready_for_content"`
	ReadyToPublish  bool `json:"ready_to_publish"`

	NeedsClarification []string `json:"needs_clarification,omitempty"`
	ClarifiedFields    []string `json:"clarified_fields,omitempty"`

	// Status 底层项目行的状态，仅用于派生 ReadyToPublish，合并时忽略补丁值
	Status ProjectStatus `json:"status,omitempty"`
}

// NewProjectState 创建空状态。任何状态都可由空状态加一串合并重建。
func NewProjectState() *ProjectState {
	return &ProjectState{}
}

// Clone 深拷贝状态。并行委派时每个角色从独立副本出发。
func (s *ProjectState) Clone() *ProjectState {
	if s == nil {
		return NewProjectState()
	}
	out := *s
	out.Materials = cloneStrings(s.Materials)
	out.Techniques = cloneStrings(s.Techniques)
	out.Tags = cloneStrings(s.Tags)
	out.NeedsClarification = cloneStrings(s.NeedsClarification)
	out.ClarifiedFields = cloneStrings(s.ClarifiedFields)
	if s.Images != nil {
		out.Images = make([]ProjectImage, len(s.Images))
		copy(out.Images, s.Images)
	}
	return &out
}

// Merge 将部分补丁折叠进基础状态，返回新状态，不修改入参。
//
// 策略（按字段种类）：
//   - 标量：补丁值非空（trim 后）才覆盖，空值保留基础值，因此用低置信度
//     的部分抽取反复合并是安全的；
//   - 列表：补丁非空则整体替换，空或缺省保留基础值；
//   - 图片：按 ID 合并，类别/排序原地更新，新图片追加，不隐式删除；
//   - 已澄清字段：并集（澄清是单调事实）；
//   - 就绪标志与 Location：合并后统一重算。
//
// 对相同补丁重复合并幂等；不冲突字段满足交换律，冲突标量后并者胜。
func Merge(base, patch *ProjectState) *ProjectState {
	out := base.Clone()
	if patch == nil {
		out.RecomputeDerived()
		return out
	}

	mergeScalar(&out.ProjectType, patch.ProjectType)
	mergeScalar(&out.ProjectTypeSlug, patch.ProjectTypeSlug)
	mergeScalar(&out.City, patch.City)
	mergeScalar(&out.State, patch.State)

	mergeScalar(&out.Title, patch.Title)
	mergeScalar(&out.Description, patch.Description)
	mergeScalar(&out.CustomerProblem, patch.CustomerProblem)
	mergeScalar(&out.SolutionApproach, patch.SolutionApproach)
	mergeScalar(&out.Duration, patch.Duration)
	mergeScalar(&out.ProudOf, patch.ProudOf)

	mergeList(&out.Materials, patch.Materials)
	mergeList(&out.Techniques, patch.Techniques)
	mergeList(&out.Tags, patch.Tags)

	mergeScalar(&out.SEOTitle, patch.SEOTitle)
	mergeScalar(&out.SEODescription, patch.SEODescription)

	out.Images = mergeImages(out.Images, patch.Images)
	mergeScalar(&out.HeroImageID, patch.HeroImageID)
	mergeScalar(&out.LayoutStyle, patch.LayoutStyle)

	mergeList(&out.NeedsClarification, patch.NeedsClarification)
	out.ClarifiedFields = unionStrings(out.ClarifiedFields, patch.ClarifiedFields)

	out.RecomputeDerived()
	return out
}

// RecomputeDerived 重算派生字段：Location 标签、主图引用约束、就绪标志。
func (s *ProjectState) RecomputeDerived() {
	s.Location = deriveLocation(s.City, s.State)

	// 主图必须引用已存在的图片
	if s.HeroImageID != "" && s.imageByID(s.HeroImageID) == nil {
		s.HeroImageID = ""
	}

	s.ReadyForImages = s.ProjectType != "" &&
		(s.CustomerProblem != "" || s.SolutionApproach != "") &&
		len(s.Materials) > 0
	s.ReadyForContent = s.ProjectType != "" &&
		len(s.Images) > 0 &&
		s.HeroImageID != ""
	// 仅作提示，发布门控由质量角色与服务端校验负责
	s.ReadyToPublish = s.Status == ProjectStatusPublished
}

// HasImages 检查是否有图片
func (s *ProjectState) HasImages() bool {
	return len(s.Images) > 0
}

func (s *ProjectState) imageByID(id string) *ProjectImage {
	for i := range s.Images {
		if s.Images[i].ID == id {
			return &s.Images[i]
		}
	}
	return nil
}

func mergeScalar(dst *string, v string) {
	v = strings.TrimSpace(v)
	if v != "" {
		*dst = v
	}
}

func mergeList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = cloneStrings(v)
	}
}

func mergeImages(base, patch []ProjectImage) []ProjectImage {
	if len(patch) == 0 {
		return base
	}

	out := make([]ProjectImage, len(base))
	copy(out, base)

	for _, p := range patch {
		if p.ID == "" {
			continue
		}
		found := false
		for i := range out {
			if out[i].ID != p.ID {
				continue
			}
			found = true
			if strings.TrimSpace(p.URL) != "" {
				out[i].URL = p.URL
			}
			if strings.TrimSpace(p.StorageKey) != "" {
				out[i].StorageKey = p.StorageKey
			}
			if p.Category != "" {
				out[i].Category = p.Category
			}
			if strings.TrimSpace(p.AltText) != "" {
				out[i].AltText = p.AltText
			}
			out[i].DisplayOrder = p.DisplayOrder
			break
		}
		if !found {
			out = append(out, p)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

func deriveLocation(city, state string) string {
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	default:
		return ""
	}
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}

func unionStrings(base, extra []string) []string {
	if len(extra) == 0 {
		return base
	}
	seen := make(map[string]struct{}, len(base)+len(extra))
	out := make([]string, 0, len(base)+len(extra))
	for _, v := range base {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	for _, v := range extra {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// StateFromProject 从项目行重建状态。每次工具调用都重新读取，
// 跨调用不做服务端缓存。
func StateFromProject(p *Project) *ProjectState {
	if p == nil {
		return NewProjectState()
	}
	s := &ProjectState{
		ProjectType:        p.ProjectType,
		ProjectTypeSlug:    p.ProjectTypeSlug,
		City:               p.City,
		State:              p.State,
		Title:              p.Title,
		Description:        p.Description,
		CustomerProblem:    p.CustomerProblem,
		SolutionApproach:   p.SolutionApproach,
		Duration:           p.Duration,
		ProudOf:            p.ProudOf,
		Materials:          cloneStrings(p.Materials),
		Techniques:         cloneStrings(p.Techniques),
		Tags:               cloneStrings(p.Tags),
		SEOTitle:           p.SEOTitle,
		SEODescription:     p.SEODescription,
		HeroImageID:        p.HeroImageID,
		LayoutStyle:        p.LayoutStyle,
		NeedsClarification: cloneStrings(p.NeedsClarification),
		ClarifiedFields:    cloneStrings(p.ClarifiedFields),
		Status:             p.Status,
	}
	if p.Images != nil {
		s.Images = make([]ProjectImage, len(p.Images))
		copy(s.Images, p.Images)
	}
	s.RecomputeDerived()
	return s
}

// ChangedFields 比较两个状态，返回内容发生变化的字段名列表。
// 调用方据此决定要写回项目存储的字段。
func ChangedFields(before, after *ProjectState) []string {
	if before == nil {
		before = NewProjectState()
	}
	if after == nil {
		after = NewProjectState()
	}

	var changed []string
	scalar := func(name, a, b string) {
		if a != b {
			changed = append(changed, name)
		}
	}
	list := func(name string, a, b []string) {
		if !equalStrings(a, b) {
			changed = append(changed, name)
		}
	}

	scalar("project_type", before.ProjectType, after.ProjectType)
	scalar("project_type_slug", before.ProjectTypeSlug, after.ProjectTypeSlug)
	scalar("city", before.City, after.City)
	scalar("state", before.State, after.State)
	scalar("title", before.Title, after.Title)
	scalar("description", before.Description, after.Description)
	scalar("customer_problem", before.CustomerProblem, after.CustomerProblem)
	scalar("solution_approach", before.SolutionApproach, after.SolutionApproach)
	scalar("duration", before.Duration, after.Duration)
	scalar("proud_of", before.ProudOf, after.ProudOf)
	list("materials", before.Materials, after.Materials)
	list("techniques", before.Techniques, after.Techniques)
	list("tags", before.Tags, after.Tags)
	scalar("seo_title", before.SEOTitle, after.SEOTitle)
	scalar("seo_description", before.SEODescription, after.SEODescription)
	scalar("hero_image_id", before.HeroImageID, after.HeroImageID)
	scalar("layout_style", before.LayoutStyle, after.LayoutStyle)
	if !equalImages(before.Images, after.Images) {
		changed = append(changed, "images")
	}
	list("needs_clarification", before.NeedsClarification, after.NeedsClarification)
	list("clarified_fields", before.ClarifiedFields, after.ClarifiedFields)

	return changed
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func equalImages(a, b []ProjectImage) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// FieldValues 取指定字段的列值，供按字段写回项目行。
// 未知字段名被忽略。
func (s *ProjectState) FieldValues(fields []string) map[string]any {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		switch f {
		case "project_type":
			values[f] = s.ProjectType
		case "project_type_slug":
			values[f] = s.ProjectTypeSlug
		case "city":
			values[f] = s.City
		case "state":
			values[f] = s.State
		case "title":
			values[f] = s.Title
		case "description":
			values[f] = s.Description
		case "customer_problem":
			values[f] = s.CustomerProblem
		case "solution_approach":
			values[f] = s.SolutionApproach
		case "duration":
			values[f] = s.Duration
		case "proud_of":
			values[f] = s.ProudOf
		case "materials":
			values[f] = pq.StringArray(s.Materials)
		case "techniques":
			values[f] = pq.StringArray(s.Techniques)
		case "tags":
			values[f] = pq.StringArray(s.Tags)
		case "seo_title":
			values[f] = s.SEOTitle
		case "seo_description":
			values[f] = s.SEODescription
		case "hero_image_id":
			values[f] = s.HeroImageID
		case "layout_style":
			values[f] = s.LayoutStyle
		case "images":
			// 序列化后写入，map 形式的 Updates 不走模型的 serializer
			if b, err := json.Marshal(s.Images); err == nil {
				values[f] = json.RawMessage(b)
			}
		case "needs_clarification":
			values[f] = pq.StringArray(s.NeedsClarification)
		case "clarified_fields":
			values[f] = pq.StringArray(s.ClarifiedFields)
		}
	}
	return values
}

// FieldKind 可变更字段的取值种类
type FieldKind string

const (
	FieldKindScalar FieldKind = "scalar"
	FieldKindList   FieldKind = "list"
)

// MutableProjectFields 字段更新工具的服务端白名单。
// 编译期类型之外的第二道防线：白名单之外的字段一律拒绝。
func MutableProjectFields() map[string]FieldKind {
	return map[string]FieldKind{
		"project_type":      FieldKindScalar,
		"project_type_slug": FieldKindScalar,
		"city":              FieldKindScalar,
		"state":             FieldKindScalar,
		"title":             FieldKindScalar,
		"description":       FieldKindScalar,
		"customer_problem":  FieldKindScalar,
		"solution_approach": FieldKindScalar,
		"duration":          FieldKindScalar,
		"proud_of":          FieldKindScalar,
		"seo_title":         FieldKindScalar,
		"seo_description":   FieldKindScalar,
		"hero_image_id":     FieldKindScalar,
		"materials":         FieldKindList,
		"techniques":        FieldKindList,
		"tags":              FieldKindList,
	}
}
