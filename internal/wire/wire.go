//go:build wireinject
// +build wireinject

// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"github.com/google/wire"

	"knearme-portfolio-api/internal/application/portfolio"
	"knearme-portfolio-api/internal/application/portfolio/ctxbudget"
	"knearme-portfolio-api/internal/application/portfolio/delegate"
	"knearme-portfolio-api/internal/application/portfolio/tools"
	"knearme-portfolio-api/internal/config"
	"knearme-portfolio-api/internal/domain/repository"
	"knearme-portfolio-api/internal/infrastructure/llm"
	"knearme-portfolio-api/internal/infrastructure/persistence/postgres"
	"knearme-portfolio-api/internal/infrastructure/persistence/redis"
	"knearme-portfolio-api/internal/interfaces/http/handler"
	"knearme-portfolio-api/internal/interfaces/http/middleware"
	"knearme-portfolio-api/internal/interfaces/http/router"
	workflowport "knearme-portfolio-api/internal/workflow/port"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*router.Router, func(), error) {
	wire.Build(
		RepoSet,
		RedisSet,
		LLMSet,
		OrchestratorSet,
		RouterSet,
	)
	return nil, nil, nil
}

// RepoSet PostgreSQL 提供者与接口绑定
var RepoSet = wire.NewSet(
	ProvidePostgresClient,
	postgres.NewTxManager,
	postgres.NewProjectRepository,
	postgres.NewPortfolioPageRepository,
	postgres.NewConversationSessionRepository,
	postgres.NewConversationMessageRepository,
	wire.Bind(new(repository.Transactor), new(*postgres.TxManager)),
	wire.Bind(new(repository.ProjectRepository), new(*postgres.ProjectRepository)),
	wire.Bind(new(repository.PortfolioPageRepository), new(*postgres.PortfolioPageRepository)),
	wire.Bind(new(repository.ConversationSessionRepository), new(*postgres.ConversationSessionRepository)),
	wire.Bind(new(repository.ConversationMessageRepository), new(*postgres.ConversationMessageRepository)),
)

// RedisSet Redis 提供者集合
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	redis.NewCache,
	redis.NewRateLimiter,
	wire.Bind(new(middleware.RateLimiter), new(*redis.RateLimiter)),
)

// LLMSet LLM 执行链提供者集合
var LLMSet = wire.NewSet(
	llm.NewEinoFactory,
	llm.NewChainBackend,
	wire.Bind(new(workflowport.ChatModelFactory), new(*llm.EinoFactory)),
	wire.Bind(new(delegate.Backend), new(*llm.ChainBackend)),
)

// OrchestratorSet 编排核心提供者集合
var OrchestratorSet = wire.NewSet(
	ProvideOrchestratorConfig,
	ctxbudget.NewPlanner,
	delegate.NewDelegator,
	tools.NewDispatcher,
	portfolio.NewProjectService,
	portfolio.NewConversationService,
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewToolsHandler,
	handler.NewProjectHandler,
	handler.NewConversationHandler,
	ProvideRouter,
)
