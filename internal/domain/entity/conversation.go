// Package entity 定义领域实体
package entity

import (
	"encoding/json"
	"time"
)

// Role 对话角色枚举
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const (
	// minMessageTokenEstimate 单条消息的最小 token 估算
	minMessageTokenEstimate = 1
	// estimateBytesPerToken 估算用的每 token 字节数（近似值）
	estimateBytesPerToken = 4
)

// ConversationSession 采访式对话会话。message_count/estimated_tokens 是
// 随消息追加维护的运行统计，summary 是最近一次压缩生成的摘要（可为空）。
type ConversationSession struct {
	ID              string    `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	BusinessID      string    `json:"business_id" gorm:"type:uuid;index;not null"`
	ProjectID       string    `json:"project_id,omitempty" gorm:"type:uuid;index"`
	MessageCount    int       `json:"message_count" gorm:"not null;default:0"`
	Summary         string    `json:"summary,omitempty" gorm:"type:text"`
	EstimatedTokens int       `json:"estimated_tokens" gorm:"not null;default:0"`
	CreatedAt       time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ConversationSession) TableName() string {
	return "conversation_sessions"
}

// NewConversationSession 创建对话会话
func NewConversationSession(businessID, projectID string) *ConversationSession {
	now := time.Now()
	return &ConversationSession{
		BusinessID: businessID,
		ProjectID:  projectID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// MessagePart 消息中的结构化负载（例如工具调用结果），token 估算
// 必须基于序列化后的字节数而非纯文本长度。
type MessagePart struct {
	Type     string          `json:"type"`
	ToolName string          `json:"tool_name,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// ConversationMessage 对话消息
type ConversationMessage struct {
	ID        string        `json:"id" gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	SessionID string        `json:"session_id" gorm:"type:uuid;index;not null"`
	Role      Role          `json:"role" gorm:"type:varchar(16);not null"`
	Content   string        `json:"content" gorm:"type:text"`
	Parts     []MessagePart `json:"parts,omitempty" gorm:"type:jsonb;serializer:json"`
	CreatedAt time.Time     `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName 指定表名
func (ConversationMessage) TableName() string {
	return "conversation_messages"
}

// NewConversationMessage 创建对话消息
func NewConversationMessage(sessionID string, role Role, content string, parts []MessagePart) *ConversationMessage {
	return &ConversationMessage{
		SessionID: sessionID,
		Role:      role,
		Content:   content,
		Parts:     parts,
		CreatedAt: time.Now(),
	}
}

// EstimateTokens 估算单条消息的 token 开销。
// 带结构化负载的消息按序列化字节数估算，纯文本按字符数估算，下限为 1。
func (m *ConversationMessage) EstimateTokens() int {
	if m == nil {
		return 0
	}

	size := 0
	if len(m.Parts) > 0 {
		if b, err := json.Marshal(m.Parts); err == nil {
			size = len(b)
		}
	}
	if size == 0 {
		size = len(m.Content)
	}

	est := size / estimateBytesPerToken
	if est < minMessageTokenEstimate {
		est = minMessageTokenEstimate
	}
	return est
}

// EstimateConversationTokens 估算一组消息的总 token 开销
func EstimateConversationTokens(messages []*ConversationMessage) int {
	total := 0
	for _, m := range messages {
		total += m.EstimateTokens()
	}
	return total
}
