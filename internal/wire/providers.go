// Package wire 提供依赖注入配置
package wire

import (
	"knearme-portfolio-api/internal/config"
	"knearme-portfolio-api/internal/infrastructure/persistence/postgres"
	"knearme-portfolio-api/internal/infrastructure/persistence/redis"
	"knearme-portfolio-api/internal/interfaces/http/handler"
	"knearme-portfolio-api/internal/interfaces/http/middleware"
	"knearme-portfolio-api/internal/interfaces/http/router"
)

// ProvidePostgresClient 提供 PostgreSQL 客户端
func ProvidePostgresClient(cfg *config.Config) (*postgres.Client, func(), error) {
	client, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideRedisClient 提供 Redis 客户端
func ProvideRedisClient(cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		client.Close()
	}
	return client, cleanup, nil
}

// ProvideOrchestratorConfig 提供编排配置
func ProvideOrchestratorConfig(cfg *config.Config) *config.OrchestratorConfig {
	return &cfg.Orchestrator
}

// ProvideRouter 构建路由器并注册全部路由
func ProvideRouter(
	cfg *config.Config,
	limiter middleware.RateLimiter,
	healthHandler *handler.HealthHandler,
	toolsHandler *handler.ToolsHandler,
	projectHandler *handler.ProjectHandler,
	conversationHandler *handler.ConversationHandler,
) *router.Router {
	r := router.New(cfg, limiter)
	router.RegisterRoutes(r, healthHandler, toolsHandler, projectHandler, conversationHandler)
	return r
}
