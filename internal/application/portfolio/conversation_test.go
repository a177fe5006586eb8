package portfolio

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knearme-portfolio-api/internal/domain/entity"
	"knearme-portfolio-api/internal/domain/repository"
	apperrors "knearme-portfolio-api/pkg/errors"
)

type stubSessionRepo struct {
	session   *entity.ConversationSession
	findErr   error
	createErr error

	created        *entity.ConversationSession
	statsSessionID string
	statsCount     int
	statsTokens    int
	updated        *entity.ConversationSession
}

func (s *stubSessionRepo) Create(ctx context.Context, session *entity.ConversationSession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created = session
	return nil
}

func (s *stubSessionRepo) Find(ctx context.Context, sessionID, businessID string) (*entity.ConversationSession, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return s.session, nil
}

func (s *stubSessionRepo) Update(ctx context.Context, session *entity.ConversationSession) error {
	s.updated = session
	return nil
}

func (s *stubSessionRepo) UpdateStats(ctx context.Context, sessionID string, messageCount, estimatedTokens int) error {
	s.statsSessionID = sessionID
	s.statsCount = messageCount
	s.statsTokens = estimatedTokens
	return nil
}

func (s *stubSessionRepo) ListByProject(ctx context.Context, projectID string, pagination repository.Pagination) (*repository.PagedResult[*entity.ConversationSession], error) {
	return &repository.PagedResult[*entity.ConversationSession]{}, nil
}

type stubMessageRepo struct {
	appendErr error
	appended  *entity.ConversationMessage
}

func (s *stubMessageRepo) Append(ctx context.Context, message *entity.ConversationMessage) error {
	if s.appendErr != nil {
		return s.appendErr
	}
	s.appended = message
	return nil
}

func (s *stubMessageRepo) ListBySession(ctx context.Context, sessionID string) ([]*entity.ConversationMessage, error) {
	return nil, nil
}

func (s *stubMessageRepo) ListRecent(ctx context.Context, sessionID string, limit int) ([]*entity.ConversationMessage, error) {
	return nil, nil
}

func (s *stubMessageRepo) CountBySession(ctx context.Context, sessionID string) (int64, error) {
	return 0, nil
}

type stubProjectRepo struct {
	findErr error
}

func (s *stubProjectRepo) Create(ctx context.Context, project *entity.Project) error { return nil }

func (s *stubProjectRepo) Find(ctx context.Context, projectID, businessID string) (*entity.Project, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	return &entity.Project{ID: projectID, BusinessID: businessID}, nil
}

func (s *stubProjectRepo) UpdateFields(ctx context.Context, projectID string, fields map[string]any) error {
	return nil
}

func (s *stubProjectRepo) ListByBusiness(ctx context.Context, businessID string, pagination repository.Pagination) (*repository.PagedResult[*entity.Project], error) {
	return &repository.PagedResult[*entity.Project]{}, nil
}

// passthroughTx 直接执行回调，记录是否进入过事务
type passthroughTx struct {
	called bool
}

func (t *passthroughTx) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.called = true
	return fn(ctx)
}

func newConversationService(sessions *stubSessionRepo, messages *stubMessageRepo, projects *stubProjectRepo, tx *passthroughTx) *ConversationService {
	return NewConversationService(sessions, messages, projects, tx, nil)
}

func TestStartSession(t *testing.T) {
	sessions := &stubSessionRepo{}
	svc := newConversationService(sessions, &stubMessageRepo{}, &stubProjectRepo{}, &passthroughTx{})

	session, err := svc.StartSession(context.Background(), "b-1", "p-1")

	require.NoError(t, err)
	require.NotNil(t, sessions.created)
	assert.Equal(t, "b-1", session.BusinessID)
	assert.Equal(t, "p-1", session.ProjectID)
	assert.Zero(t, session.MessageCount)
}

func TestStartSessionWithoutProject(t *testing.T) {
	projects := &stubProjectRepo{findErr: apperrors.ErrProjectNotFound}
	svc := newConversationService(&stubSessionRepo{}, &stubMessageRepo{}, projects, &passthroughTx{})

	// 不绑定项目时不触发项目校验
	session, err := svc.StartSession(context.Background(), "b-1", "")

	require.NoError(t, err)
	assert.Empty(t, session.ProjectID)
}

func TestStartSessionRejectsMissingBusiness(t *testing.T) {
	svc := newConversationService(&stubSessionRepo{}, &stubMessageRepo{}, &stubProjectRepo{}, &passthroughTx{})

	_, err := svc.StartSession(context.Background(), "", "p-1")

	require.Error(t, err)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestStartSessionUnknownProject(t *testing.T) {
	projects := &stubProjectRepo{findErr: apperrors.ErrProjectNotFound}
	svc := newConversationService(&stubSessionRepo{}, &stubMessageRepo{}, projects, &passthroughTx{})

	_, err := svc.StartSession(context.Background(), "b-1", "p-missing")

	assert.True(t, IsNotFound(err))
}

func TestAppendMessageUpdatesStats(t *testing.T) {
	sessions := &stubSessionRepo{session: &entity.ConversationSession{
		ID:              "s-1",
		BusinessID:      "b-1",
		MessageCount:    4,
		EstimatedTokens: 320,
	}}
	messages := &stubMessageRepo{}
	tx := &passthroughTx{}
	svc := newConversationService(sessions, messages, &stubProjectRepo{}, tx)

	msg, err := svc.AppendMessage(context.Background(), "b-1", "s-1", entity.RoleUser, "we rebuilt the chimney", nil)

	require.NoError(t, err)
	require.NotNil(t, messages.appended)
	assert.True(t, tx.called)

	assert.Equal(t, "s-1", sessions.statsSessionID)
	assert.Equal(t, 5, sessions.statsCount)
	// 统计累加本条消息的估算
	assert.Equal(t, 320+msg.EstimateTokens(), sessions.statsTokens)
	assert.Positive(t, msg.EstimateTokens())
}

func TestAppendMessageRejectsEmptyContent(t *testing.T) {
	svc := newConversationService(&stubSessionRepo{}, &stubMessageRepo{}, &stubProjectRepo{}, &passthroughTx{})

	_, err := svc.AppendMessage(context.Background(), "b-1", "s-1", entity.RoleUser, "   ", nil)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestAppendMessageRejectsUnknownRole(t *testing.T) {
	svc := newConversationService(&stubSessionRepo{}, &stubMessageRepo{}, &stubProjectRepo{}, &passthroughTx{})

	_, err := svc.AppendMessage(context.Background(), "b-1", "s-1", entity.Role("tool"), "hi", nil)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeValidationFailed, appErr.Code)
}

func TestAppendMessageStoreFailure(t *testing.T) {
	sessions := &stubSessionRepo{session: &entity.ConversationSession{ID: "s-1"}}
	messages := &stubMessageRepo{appendErr: errors.New("disk full")}
	svc := newConversationService(sessions, messages, &stubProjectRepo{}, &passthroughTx{})

	_, err := svc.AppendMessage(context.Background(), "b-1", "s-1", entity.RoleAssistant, "noted", nil)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.CodeDatabaseError, appErr.Code)
	// 事务失败时不回写统计
	assert.Empty(t, sessions.statsSessionID)
}

func TestUpdateSummary(t *testing.T) {
	sessions := &stubSessionRepo{session: &entity.ConversationSession{ID: "s-1", BusinessID: "b-1"}}
	svc := newConversationService(sessions, &stubMessageRepo{}, &stubProjectRepo{}, &passthroughTx{})

	err := svc.UpdateSummary(context.Background(), "b-1", "s-1", "contractor described a chimney rebuild")

	require.NoError(t, err)
	require.NotNil(t, sessions.updated)
	assert.Equal(t, "contractor described a chimney rebuild", sessions.updated.Summary)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(apperrors.ErrProjectNotFound))
	assert.True(t, IsNotFound(apperrors.New(apperrors.CodeSessionNotFound, "session not found")))
	assert.False(t, IsNotFound(errors.New("plain error")))
	assert.False(t, IsNotFound(nil))
}

func TestProjectServiceCreate(t *testing.T) {
	svc := NewProjectService(&stubProjectRepo{})

	project, err := svc.Create(context.Background(), "b-1")

	require.NoError(t, err)
	assert.Equal(t, entity.ProjectStatusInProgress, project.Status)
	assert.Equal(t, "b-1", project.BusinessID)

	_, err = svc.Create(context.Background(), "")
	require.Error(t, err)
}

func TestProjectServiceGetDerivesState(t *testing.T) {
	svc := NewProjectService(&stubProjectRepo{})

	project, state, err := svc.Get(context.Background(), "p-1", "b-1")

	require.NoError(t, err)
	assert.Equal(t, "p-1", project.ID)
	require.NotNil(t, state)
	assert.False(t, state.ReadyForImages)
}
