// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter grants one token-bucket limiter per remote address, applied
// to every route in the /api group (GET /health and GET /metrics sit
// outside it). Limiters are created lazily and never evicted: arcgen's
// own process lifetime bounds the map, and a long-lived limiter per address
// is cheap relative to a render request.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	perMin   int
}

// NewRateLimiter builds a RateLimiter allowing perMinute requests per
// remote address, with a burst equal to perMinute so a client can use its
// whole budget in one instant rather than being forced to trickle it in.
func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 60
	}
	return &RateLimiter{limiters: make(map[string]*rate.Limiter), perMin: perMinute}
}

func (r *RateLimiter) limiterFor(key string) *rate.Limiter {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.limiters[key]; ok {
		return l
	}
	every := time.Minute / time.Duration(r.perMin)
	l := rate.NewLimiter(rate.Every(every), r.perMin)
	r.limiters[key] = l
	return l
}

// Middleware returns a gin.HandlerFunc that rejects a request with 429 once
// the caller's remote address has exhausted its per-minute budget.
func (r *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := r.limiterFor(c.ClientIP())
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
