// Package repository 定义数据访问层接口
package repository

import (
	"context"

	"knearme-portfolio-api/internal/domain/entity"
)

// ConversationSessionRepository 会话持久化
type ConversationSessionRepository interface {
	Create(ctx context.Context, session *entity.ConversationSession) error
	// Find 按会话与商户双键读取，未找到返回 ErrSessionNotFound
	Find(ctx context.Context, sessionID, businessID string) (*entity.ConversationSession, error)
	Update(ctx context.Context, session *entity.ConversationSession) error
	// UpdateStats 追加消息后回写消息数与整体令牌估算
	UpdateStats(ctx context.Context, sessionID string, messageCount, estimatedTokens int) error
	ListByProject(ctx context.Context, projectID string, pagination Pagination) (*PagedResult[*entity.ConversationSession], error)
}

// ConversationMessageRepository 会话消息持久化
type ConversationMessageRepository interface {
	Append(ctx context.Context, message *entity.ConversationMessage) error
	// ListBySession 按创建时间升序返回全部消息
	ListBySession(ctx context.Context, sessionID string) ([]*entity.ConversationMessage, error)
	// ListRecent 按创建时间取最近 limit 条，返回时仍为升序
	ListRecent(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationMessage, error)
	CountBySession(ctx context.Context, sessionID string) (int64, error)
}
