// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/arcgen/arcgen/services/arcgen/datatypes"
	"github.com/arcgen/arcgen/services/arcgen/feedback"
)

// defaultStatsWindow bounds GET /api/feedback/stats when the caller does
// not supply ?window_seconds=.
const defaultStatsWindow = 30 * 24 * time.Hour

// SubmitFeedback handles POST /api/feedback: records a rating (and
// optional comment) against a prior generation, best-effort against
// whichever Sink/StatsBackend pair is configured.
func (h *Handlers) SubmitFeedback(c *gin.Context) {
	var req datatypes.FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, "submit_feedback", fmt.Errorf("%w: %v", datatypes.ErrValidation, err))
		return
	}

	entry := feedback.Entry{
		SessionID:    req.SessionID,
		GenerationID: req.GenerationID,
		Rating:       req.Rating,
		Comment:      req.Comment,
		Provider:     string(req.Provider),
		SubmittedAt:  time.Now(),
	}
	if err := h.Feedback.Record(c.Request.Context(), entry); err != nil {
		h.respondError(c, "submit_feedback", fmt.Errorf("%w: recording feedback: %v", datatypes.ErrInternal, err))
		return
	}

	rating := req.Rating
	if h.FeedbackStats != nil {
		_ = h.FeedbackStats.RecordGeneration(c.Request.Context(), string(req.Provider), 0, &rating)
	}

	c.Status(http.StatusNoContent)
}

// FeedbackStatsHandler handles GET /api/feedback/stats: aggregate rating
// counts over a trailing window, defaulting to defaultStatsWindow,
// overridable with ?window_seconds=.
func (h *Handlers) FeedbackStatsHandler(c *gin.Context) {
	window := defaultStatsWindow
	if raw := c.Query("window_seconds"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			h.respondError(c, "feedback_stats", fmt.Errorf("%w: invalid window_seconds %q", datatypes.ErrValidation, raw))
			return
		}
		window = time.Duration(seconds) * time.Second
	}

	summary, err := h.FeedbackStats.Summarize(c.Request.Context(), window)
	if err != nil {
		h.respondError(c, "feedback_stats", fmt.Errorf("%w: summarizing feedback: %v", datatypes.ErrInternal, err))
		return
	}

	c.JSON(http.StatusOK, datatypes.FeedbackStatsResponse{
		Count:         summary.Count,
		AverageRating: summary.AverageRating,
		ByProvider:    summary.ByProvider,
	})
}
