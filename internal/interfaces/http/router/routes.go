// Package router 提供 HTTP 路由配置
package router

import (
	"knearme-portfolio-api/internal/interfaces/http/handler"
)

// RegisterRoutes 注册全部路由
func RegisterRoutes(
	r *Router,
	healthHandler *handler.HealthHandler,
	toolsHandler *handler.ToolsHandler,
	projectHandler *handler.ProjectHandler,
	conversationHandler *handler.ConversationHandler,
) {
	engine := r.Engine()

	// 系统端点
	engine.GET("/health", healthHandler.Health)
	engine.GET("/ready", healthHandler.Ready)
	engine.GET("/live", healthHandler.Live)

	v1 := r.V1()

	// 工具调用入口，对话 Agent 的主通道
	v1.POST("/tool-calls", toolsHandler.Dispatch)

	// 项目管理
	projects := v1.Group("/projects")
	{
		projects.GET("", projectHandler.ListProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:pid", projectHandler.GetProject)
		projects.GET("/:pid/sessions", conversationHandler.ListProjectSessions)
	}

	// 会话管理
	sessions := v1.Group("/sessions")
	{
		sessions.POST("", conversationHandler.CreateSession)
		sessions.GET("/:sid", conversationHandler.GetSession)
		sessions.GET("/:sid/messages", conversationHandler.ListMessages)
		sessions.POST("/:sid/messages", conversationHandler.AppendMessage)
	}
}
