// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package middleware provides the gin.HandlerFunc middleware arcgen's
// route groups install: request-id tagging (every response carries
// X-Request-ID and X-Process-Time) and per-remote-address rate limiting
// of the /api routes. There is no authentication middleware
// here — the spec treats auth as out of scope.
package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// requestIDKey is the context key RequestID stores the generated id under.
const requestIDKey = "arcgen_request_id"

// RequestID returns the current request's id, set by RequestIDMiddleware.
// Returns "" if called outside a request the middleware has processed.
func RequestID(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// RequestIDMiddleware generates a request id (or reuses an inbound
// X-Request-ID header, allowing a caller-supplied trace id to thread
// through), stores it in the context, and stamps both X-Request-ID and
// X-Process-Time on every response regardless of outcome.
//
// # Examples
//
//	router.Use(middleware.RequestIDMiddleware())
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header("X-Request-ID", id)

		c.Next()

		elapsed := time.Since(start)
		c.Header("X-Process-Time", strconv.FormatFloat(elapsed.Seconds(), 'f', 3, 64))
	}
}
