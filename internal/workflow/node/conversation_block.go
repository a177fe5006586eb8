package node

import (
	"strings"

	wfmodel "knearme-portfolio-api/internal/workflow/model"
)

// BuildConversationBlock 把对话片段拼成模板可用的文本块。
// summary 非空时说明早期对话已被压缩，拼在片段之前。
func BuildConversationBlock(summary string, turns []wfmodel.ChatTurn) string {
	lines := make([]string, 0, len(turns)+2)
	if s := strings.TrimSpace(summary); s != "" {
		lines = append(lines, "Earlier conversation (summarized):\n"+s)
	}
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		role := strings.TrimSpace(t.Role)
		if role == "" {
			role = "user"
		}
		lines = append(lines, role+": "+content)
	}
	if len(lines) == 0 {
		return "(no conversation yet)"
	}
	return strings.Join(lines, "\n")
}
