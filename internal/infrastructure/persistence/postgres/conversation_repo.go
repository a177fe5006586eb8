// Package postgres 提供 PostgreSQL Repository 实现
package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
)

type ConversationSessionRepository struct {
	client *Client
}

func NewConversationSessionRepository(client *Client) *ConversationSessionRepository {
	return &ConversationSessionRepository{client: client}
}

func (r *ConversationSessionRepository) Create(ctx context.Context, session *entity.ConversationSession) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationSessionRepository.Create")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to create conversation session: %w", err)
	}
	return nil
}

func (r *ConversationSessionRepository) Find(ctx context.Context, sessionID, businessID string) (*entity.ConversationSession, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationSessionRepository.Find")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var session entity.ConversationSession
	err := db.First(&session, "id = ? AND business_id = ?", sessionID, businessID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrSessionNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("failed to find conversation session: %w", err)
	}
	return &session, nil
}

func (r *ConversationSessionRepository) Update(ctx context.Context, session *entity.ConversationSession) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationSessionRepository.Update")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Save(session).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update conversation session: %w", err)
	}
	return nil
}

func (r *ConversationSessionRepository) UpdateStats(ctx context.Context, sessionID string, messageCount, estimatedTokens int) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationSessionRepository.UpdateStats")
	defer span.End()

	db := getDB(ctx, r.client.db)
	err := db.Model(&entity.ConversationSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"message_count":    messageCount,
			"estimated_tokens": estimatedTokens,
		}).Error
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to update conversation session stats: %w", err)
	}
	return nil
}

func (r *ConversationSessionRepository) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationSessionRepository.ListByProject")
	defer span.End()

	db := getDB(ctx, r.client.db)
	query := db.Model(&entity.ConversationSession{}).Where("project_id = ?", projectID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to count conversation sessions: %w", err)
	}

	var sessions []*entity.ConversationSession
	if err := query.Order("created_at DESC").
		Offset(pagination.Offset()).
		Limit(pagination.Limit()).
		Find(&sessions).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list conversation sessions: %w", err)
	}

	return repository.NewPagedResult(sessions, total, pagination), nil
}

type ConversationMessageRepository struct {
	client *Client
}

func NewConversationMessageRepository(client *Client) *ConversationMessageRepository {
	return &ConversationMessageRepository{client: client}
}

func (r *ConversationMessageRepository) Append(ctx context.Context, message *entity.ConversationMessage) error {
	ctx, span := tracer.Start(ctx, "postgres.ConversationMessageRepository.Append")
	defer span.End()

	db := getDB(ctx, r.client.db)
	if err := db.Create(message).Error; err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to append conversation message: %w", err)
	}
	return nil
}

func (r *ConversationMessageRepository) ListBySession(ctx context.Context, sessionID string) ([]*entity.ConversationMessage, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationMessageRepository.ListBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var messages []*entity.ConversationMessage
	if err := db.Where("session_id = ?", sessionID).
		Order("created_at ASC").
		Find(&messages).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	return messages, nil
}

func (r *ConversationMessageRepository) ListRecent(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationMessage, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationMessageRepository.ListRecent")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var messages []*entity.ConversationMessage
	if err := db.Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&messages).Error; err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to list recent conversation messages: %w", err)
	}

	// 倒序取最近 N 条，返回前恢复为时间升序
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

func (r *ConversationMessageRepository) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	ctx, span := tracer.Start(ctx, "postgres.ConversationMessageRepository.CountBySession")
	defer span.End()

	db := getDB(ctx, r.client.db)
	var total int64
	if err := db.Model(&entity.ConversationMessage{}).
		Where("session_id = ?", sessionID).
		Count(&total).Error; err != nil {
		span.RecordError(err)
		return 0, fmt.Errorf("failed to count conversation messages: %w", err)
	}
	return total, nil
}
