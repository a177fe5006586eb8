package delegate

import (
	"regexp"
	"strings"

	"knearme-portfolio-api/internal/domain/entity"
)

// FallbackExtractor 确定性关键词抽取，叙事角色的 LLM 不可用时启用。
// 只抽取低风险的客观字段：项目类型、材料、工艺、工期。
// 客户问题与解决方案需要理解语义，兜底路径刻意不碰，
// 以免把猜测写进状态。
type FallbackExtractor struct{}

func NewFallbackExtractor() *FallbackExtractor {
	return &FallbackExtractor{}
}

// projectTypeKeywords 关键词在用户消息中首次命中即确定项目类型
var projectTypeKeywords = []struct {
	keyword string
	label   string
}{
	{"chimney", "Chimney Repair"},
	{"roof", "Roofing"},
	{"kitchen", "Kitchen Remodel"},
	{"bathroom", "Bathroom Remodel"},
	{"basement", "Basement Finishing"},
	{"deck", "Deck Construction"},
	{"fence", "Fence Installation"},
	{"driveway", "Driveway Paving"},
	{"siding", "Siding"},
	{"window", "Window Installation"},
	{"door", "Door Installation"},
	{"patio", "Patio Construction"},
	{"gutter", "Gutter Installation"},
	{"drywall", "Drywall"},
	{"floor", "Flooring"},
	{"paint", "Painting"},
	{"landscap", "Landscaping"},
	{"plumb", "Plumbing"},
	{"electric", "Electrical"},
	{"hvac", "HVAC"},
	{"furnace", "HVAC"},
	{"insulat", "Insulation"},
	{"foundation", "Foundation Repair"},
	{"masonry", "Masonry"},
	{"concrete", "Concrete Work"},
	{"tile", "Tile Work"},
}

var materialKeywords = []string{
	"mortar", "brick", "concrete", "lumber", "tile", "grout", "shingles",
	"drywall", "stone", "granite", "quartz", "hardwood", "laminate",
	"vinyl", "copper", "pvc", "insulation", "flashing", "cedar",
	"composite", "stucco", "caulk", "rebar", "gravel", "plywood", "paint",
}

var techniqueKeywords = []string{
	"repointing", "tuckpointing", "demolition", "framing", "waterproofing",
	"staining", "sealing", "sanding", "soldering", "welding", "leveling",
	"grading", "tiling", "priming", "refinishing", "power washing",
}

// techniqueStems 动词变形归一到技术名词
var techniqueStems = []struct {
	stem  string
	label string
}{
	{"repoint", "repointing"},
	{"tuckpoint", "tuckpointing"},
	{"waterproof", "waterproofing"},
	{"refinish", "refinishing"},
	{"regrade", "grading"},
}

var durationPattern = regexp.MustCompile(
	`(?i)\b((?:about |around |roughly |over |under |almost |nearly )?` +
		`(?:a |an |half a |one |two |three |four |five |six |seven |eight |nine |ten |couple of |few |[0-9]+(?:\.[0-9]+)? )` +
		`(?:hour|day|weekend|week|month|year)s?)\b`)

// Extract 扫描用户消息做关键词抽取，永不失败。
func (e *FallbackExtractor) Extract(dctx *Context) *Result {
	patch := entity.NewProjectState()

	var userText []string
	for _, t := range dctx.Turns {
		if strings.EqualFold(t.Role, string(entity.RoleUser)) {
			userText = append(userText, t.Content)
		}
	}
	text := strings.ToLower(strings.Join(userText, "\n"))

	for _, pt := range projectTypeKeywords {
		if strings.Contains(text, pt.keyword) {
			patch.ProjectType = pt.label
			break
		}
	}

	for _, m := range materialKeywords {
		if containsWord(text, strings.TrimSuffix(m, "s")) || containsWord(text, m) {
			patch.Materials = append(patch.Materials, m)
		}
	}

	seen := make(map[string]bool)
	for _, t := range techniqueKeywords {
		if strings.Contains(text, t) && !seen[t] {
			seen[t] = true
			patch.Techniques = append(patch.Techniques, t)
		}
	}
	for _, ts := range techniqueStems {
		if strings.Contains(text, ts.stem) && !seen[ts.label] {
			seen[ts.label] = true
			patch.Techniques = append(patch.Techniques, ts.label)
		}
	}

	if m := durationPattern.FindStringSubmatch(text); len(m) > 1 {
		patch.Duration = strings.TrimSpace(m[1])
	}

	return &Result{
		Role:          RoleStory,
		AssistantText: fallbackAssistantText(patch),
		StatePatch:    patch,
		Actions:       entity.ChangedFields(entity.NewProjectState(), patch),
		Fallback:      true,
	}
}

func fallbackAssistantText(patch *entity.ProjectState) string {
	if patch.ProjectType == "" && len(patch.Materials) == 0 && patch.Duration == "" {
		return "Got it. Tell me more about the job: what kind of project was it, and what did you work with?"
	}
	var parts []string
	if patch.ProjectType != "" {
		parts = append(parts, "a "+strings.ToLower(patch.ProjectType)+" job")
	}
	if len(patch.Materials) > 0 {
		parts = append(parts, "using "+strings.Join(patch.Materials, ", "))
	}
	if patch.Duration != "" {
		parts = append(parts, "taking "+patch.Duration)
	}
	return "Noted " + strings.Join(parts, ", ") + ". What problem was the customer facing, and how did you solve it?"
}

func containsWord(text, word string) bool {
	idx := 0
	for {
		i := strings.Index(text[idx:], word)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(word)
		beforeOK := start == 0 || !isWordChar(text[start-1])
		afterOK := end >= len(text) || !isWordChar(text[end]) || text[end] == 's'
		if beforeOK && afterOK {
			return true
		}
		idx = end
	}
}

func isWordChar(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= '0' && b <= '9')
}
