// Package portfolio 提供作品集编排的应用服务
package portfolio

import (
	"context"
	"errors"
	"strings"

	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	"knearme-portfolio-api/internal/infrastructure/persistence/redis"
	apperrors "knearme-portfolio-api/pkg/errors"
	"knearme-portfolio-api/pkg/logger"
)

// ConversationService 管理采访式会话的生命周期：开启会话、追加消息、
// 维护会话级的消息数与 token 估算统计。统计随写入同步更新，
// 上下文规划器据此决定全量还是压缩加载。
type ConversationService struct {
	sessions repository.ConversationSessionRepository
	messages repository.ConversationMessageRepository
	projects repository.ProjectRepository
	txMgr    repository.Transactor
	cache    *redis.Cache
}

func NewConversationService(
	sessions repository.ConversationSessionRepository,
	messages repository.ConversationMessageRepository,
	projects repository.ProjectRepository,
	txMgr repository.Transactor,
	cache *redis.Cache,
) *ConversationService {
	return &ConversationService{
		sessions: sessions,
		messages: messages,
		projects: projects,
		txMgr:    txMgr,
		cache:    cache,
	}
}

// StartSession 为商户开启新会话。projectID 可为空，表示尚未绑定项目
// 的开场对话。
func (s *ConversationService) StartSession(ctx context.Context, businessID, projectID string) (*entity.ConversationSession, error) {
	if businessID == "" {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "business_id is required")
	}
	if projectID != "" {
		if _, err := s.projects.Find(ctx, projectID, businessID); err != nil {
			return nil, err
		}
	}

	session := entity.NewConversationSession(businessID, projectID)
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to create session")
	}

	logger.Info(ctx, "conversation session started",
		"session_id", session.ID,
		"project_id", projectID,
	)
	return session, nil
}

// GetSession 读取会话
func (s *ConversationService) GetSession(ctx context.Context, sessionID, businessID string) (*entity.ConversationSession, error) {
	return s.sessions.Find(ctx, sessionID, businessID)
}

// ListSessions 按项目分页列出会话
func (s *ConversationService) ListSessions(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	return s.sessions.ListByProject(ctx, projectID, pagination)
}

// ListMessages 按时间升序返回会话的全部消息
func (s *ConversationService) ListMessages(ctx context.Context, sessionID, businessID string) ([]*entity.ConversationMessage, error) {
	if _, err := s.sessions.Find(ctx, sessionID, businessID); err != nil {
		return nil, err
	}
	return s.messages.ListBySession(ctx, sessionID)
}

// AppendMessage 追加一条消息并在同一事务里回写会话统计。
// 成功后使该会话的上下文计划缓存失效，下次规划重新读库。
func (s *ConversationService) AppendMessage(ctx context.Context, businessID, sessionID string, role entity.Role, content string, parts []entity.MessagePart) (*entity.ConversationMessage, error) {
	if strings.TrimSpace(content) == "" && len(parts) == 0 {
		return nil, apperrors.New(apperrors.CodeValidationFailed, "message content is empty")
	}
	switch role {
	case entity.RoleUser, entity.RoleAssistant, entity.RoleSystem:
	default:
		return nil, apperrors.New(apperrors.CodeValidationFailed, "unknown message role")
	}

	session, err := s.sessions.Find(ctx, sessionID, businessID)
	if err != nil {
		return nil, err
	}

	message := entity.NewConversationMessage(sessionID, role, content, parts)

	err = s.txMgr.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.messages.Append(txCtx, message); err != nil {
			return err
		}
		return s.sessions.UpdateStats(txCtx,
			sessionID,
			session.MessageCount+1,
			session.EstimatedTokens+message.EstimateTokens(),
		)
	})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to append message")
	}

	// 缓存失效是尽力而为，过期兜底由 TTL 保证
	s.invalidatePlanCache(ctx, sessionID)

	return message, nil
}

// UpdateSummary 回写压缩摘要。摘要由上层在压缩加载后生成，
// 这里只负责持久化。
func (s *ConversationService) UpdateSummary(ctx context.Context, businessID, sessionID, summary string) error {
	session, err := s.sessions.Find(ctx, sessionID, businessID)
	if err != nil {
		return err
	}
	session.Summary = summary
	if err := s.sessions.Update(ctx, session); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to update session summary")
	}
	s.invalidatePlanCache(ctx, sessionID)
	return nil
}

func (s *ConversationService) invalidatePlanCache(ctx context.Context, sessionID string) {
	if s.cache == nil {
		return
	}
	if cerr := s.cache.InvalidateSession(ctx, sessionID); cerr != nil {
		logger.Warn(ctx, "failed to invalidate context plan cache",
			"session_id", sessionID,
			"error", cerr.Error(),
		)
	}
}

// IsNotFound 判定是否为会话或项目未找到
func IsNotFound(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeSessionNotFound, apperrors.CodeProjectNotFound:
			return true
		}
	}
	return false
}
