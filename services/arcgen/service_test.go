// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package arcgen

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arcgen/arcgen/services/arcgen/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func testConfig(t *testing.T) config.ArcgenConfig {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = t.TempDir()
	cfg.ResolverCachePath = t.TempDir() + "/resolver-cache"
	cfg.RegistryDir = "registry/data"
	cfg.RateLimitPerMinute = 0
	return cfg
}

// TestNewWiresEveryComponentAndRoutesAreReachable verifies service.New
// succeeds against the real registry catalogs and a tempdir-backed
// session store, with every optional backend left at its "none" default,
// then drives the health/metrics/completions endpoints through the real
// router to confirm routes.SetupRoutes actually wired handlers.New's
// Handlers rather than just compiling.
//
// A single test function constructs the service exactly once:
// observability.NewMetrics registers against the process-wide Prometheus
// default registerer, so a second New call in the same test binary would
// panic on duplicate metric registration.
func TestNewWiresEveryComponentAndRoutesAreReachable(t *testing.T) {
	svc, err := New(testConfig(t))
	require.NoError(t, err)
	require.NotNil(t, svc)
	defer svc.Shutdown(t.Context())

	assert.NotNil(t, svc.Router())

	router := svc.Router()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/completions/aws", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
