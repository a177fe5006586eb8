// Package dto 提供 HTTP 层数据传输对象
package dto

import (
	"time"

	"knearme-portfolio-api/internal/domain/entity"
)

// CreateSessionRequest 创建会话请求
type CreateSessionRequest struct {
	ProjectID string `json:"project_id,omitempty"`
}

// SessionResponse 会话响应
type SessionResponse struct {
	ID              string `json:"id"`
	ProjectID       string `json:"project_id,omitempty"`
	MessageCount    int    `json:"message_count"`
	EstimatedTokens int    `json:"estimated_tokens"`
	Summary         string `json:"summary,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

// ToSessionResponse 转换会话实体
func ToSessionResponse(s *entity.ConversationSession) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:              s.ID,
		ProjectID:       s.ProjectID,
		MessageCount:    s.MessageCount,
		EstimatedTokens: s.EstimatedTokens,
		Summary:         s.Summary,
		CreatedAt:       s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:       s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// SessionListResponse 会话列表响应
type SessionListResponse struct {
	Sessions []*SessionResponse `json:"sessions"`
}

// AppendMessageRequest 追加消息请求
type AppendMessageRequest struct {
	Role    string               `json:"role" binding:"required,oneof=user assistant system"`
	Content string               `json:"content,omitempty"`
	Parts   []entity.MessagePart `json:"parts,omitempty"`
}

// MessageResponse 消息响应
type MessageResponse struct {
	ID        string               `json:"id"`
	SessionID string               `json:"session_id"`
	Role      string               `json:"role"`
	Content   string               `json:"content,omitempty"`
	Parts     []entity.MessagePart `json:"parts,omitempty"`
	CreatedAt string               `json:"created_at"`
}

// ToMessageResponse 转换消息实体
func ToMessageResponse(m *entity.ConversationMessage) *MessageResponse {
	if m == nil {
		return nil
	}
	return &MessageResponse{
		ID:        m.ID,
		SessionID: m.SessionID,
		Role:      string(m.Role),
		Content:   m.Content,
		Parts:     m.Parts,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// MessageListResponse 消息列表响应
type MessageListResponse struct {
	Messages []*MessageResponse `json:"messages"`
}
