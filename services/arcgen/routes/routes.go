// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package routes registers arcgen's HTTP route table on a *gin.Engine.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/arcgen/arcgen/services/arcgen/handlers"
	"github.com/arcgen/arcgen/services/arcgen/middleware"
)

// SetupRoutes installs arcgen's middleware chain and every endpoint
// spec.md §6.1 names onto router, dispatching to method values on h.
func SetupRoutes(router *gin.Engine, h *handlers.Handlers, rateLimiter *middleware.RateLimiter, corsOrigins []string) {
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.CORS(corsOrigins))

	router.GET("/health", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	if rateLimiter != nil {
		api.Use(rateLimiter.Middleware())
	}
	{
		api.POST("/generate-diagram", h.GenerateDiagram)
		api.POST("/modify-diagram", h.ModifyDiagram)
		api.POST("/undo-diagram", h.UndoDiagram)
		api.POST("/regenerate-format", h.RegenerateFormat)
		api.POST("/execute-code", h.ExecuteCode)
		api.POST("/validate-code", h.ValidateCode)
		api.GET("/completions/:provider", h.Completions)
		api.GET("/diagrams/:filename", h.ServeDiagram)
		api.POST("/feedback", h.SubmitFeedback)
		api.GET("/feedback/stats", h.FeedbackStatsHandler)
		api.GET("/error-logs/:request_id", h.ErrorLogs)
		api.GET("/progress/:request_id", h.StreamProgress)
	}
}
